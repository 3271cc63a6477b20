package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"review-harvester/internal/types"
)

// fakeSurface simulates a page with one scrollable region whose extent grows
// by growBy on every scroll.
type fakeSurface struct {
	html      string
	extents   map[string]float64
	docExtent float64
	growBy    float64
	htmlErr   error
	scrolls   int
}

func (s *fakeSurface) OuterHTML(selector string) (string, error) {
	if s.htmlErr != nil {
		return "", s.htmlErr
	}
	return s.html, nil
}

func (s *fakeSurface) ScrollExtent(selector string) (float64, error) {
	if extent, ok := s.extents[selector]; ok {
		return extent, nil
	}
	return -1, nil
}

func (s *fakeSurface) ScrollToBottom(selector string) error {
	s.scrolls++
	if _, ok := s.extents[selector]; ok {
		s.extents[selector] += s.growBy
	}
	return nil
}

func (s *fakeSurface) ScrollViewportToBottom() error {
	s.scrolls++
	s.docExtent += s.growBy
	return nil
}

func (s *fakeSurface) DocumentExtent() (float64, error) {
	return s.docExtent, nil
}

func scrollTestConfig() *types.Config {
	config := types.DefaultConfig()
	config.SettleWait = time.Millisecond
	return config
}

const panelHTML = `
<html><body>
<div class="review-panel">
  <div class="review-item" data-review-id="r-1">
    <div class="review-meta">Ana M. | 2024-02-01</div>
    <div class="review-text">Fits true to size and the color is exactly as pictured</div>
    <span class="star filled"></span><span class="star filled"></span>
    <span class="star filled"></span><span class="star"></span>
    <img class="review-image" src="//cdn.example/a_.avif"/>
    <div class="review-sku">Blue / M</div>
  </div>
  <div class="review-item">
    <div class="review-meta">Pete</div>
    <div class="review-text">Stitching came loose after one wash, disappointed</div>
  </div>
</div>
</body></html>`

const altPanelHTML = `
<html><body>
<ul>
  <li class="comment">
    <div class="comment-header">Lena | 2023-12-24</div>
    <div class="comment-body">Bought this as a gift and it was well received</div>
    <em class="star-on"></em><em class="star-on"></em>
  </li>
</ul>
</body></html>`

func TestScrollProvider_PullParsesRecords(t *testing.T) {
	surface := &fakeSurface{html: panelHTML}
	provider := NewScrollProvider(surface, scrollTestConfig(), logrus.New(), nil)

	records, err := provider.Pull(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "r-1", records[0].ID)
	assert.Equal(t, "Ana M. | 2024-02-01", records[0].AuthorAndDate)
	assert.Equal(t, "Fits true to size and the color is exactly as pictured", records[0].Text)
	require.NotNil(t, records[0].StarCount)
	assert.Equal(t, 3, *records[0].StarCount)
	assert.Equal(t, []string{"//cdn.example/a_.avif"}, records[0].Images)
	assert.Equal(t, "Blue / M", records[0].SKUInfo)

	assert.Empty(t, records[1].ID)
	assert.Nil(t, records[1].StarCount)
}

func TestScrollProvider_SelectorFallbackChain(t *testing.T) {
	// First selector set matches nothing; the third one does
	surface := &fakeSurface{html: altPanelHTML}
	provider := NewScrollProvider(surface, scrollTestConfig(), logrus.New(), nil)

	records, err := provider.Pull(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Lena | 2023-12-24", records[0].AuthorAndDate)
	require.NotNil(t, records[0].StarCount)
	assert.Equal(t, 2, *records[0].StarCount)
}

func TestScrollProvider_PullEmptyWhenNothingMatches(t *testing.T) {
	surface := &fakeSurface{html: "<html><body><p>no reviews yet</p></body></html>"}
	provider := NewScrollProvider(surface, scrollTestConfig(), logrus.New(), nil)

	records, err := provider.Pull(context.Background())

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestScrollProvider_PullSurfaceLossIsFatal(t *testing.T) {
	surface := &fakeSurface{htmlErr: errors.New("target closed")}
	provider := NewScrollProvider(surface, scrollTestConfig(), logrus.New(), nil)

	_, err := provider.Pull(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSurfaceLost)
}

func TestScrollProvider_AdvanceReportsGrowth(t *testing.T) {
	surface := &fakeSurface{
		html:    panelHTML,
		extents: map[string]float64{"div.review-panel": 1000},
		growBy:  500,
	}
	provider := NewScrollProvider(surface, scrollTestConfig(), logrus.New(), nil)

	outcome, err := provider.Advance(context.Background())

	require.NoError(t, err)
	assert.Equal(t, types.AdvanceChanged, outcome)
	assert.Equal(t, 1, surface.scrolls)
}

func TestScrollProvider_AdvanceUnchangedWhenExtentStalls(t *testing.T) {
	surface := &fakeSurface{
		html:    panelHTML,
		extents: map[string]float64{"div.review-panel": 1000},
		growBy:  0,
	}
	provider := NewScrollProvider(surface, scrollTestConfig(), logrus.New(), nil)

	outcome, err := provider.Advance(context.Background())

	require.NoError(t, err)
	assert.Equal(t, types.AdvanceUnchanged, outcome)
}

func TestScrollProvider_AdvanceFallsBackToViewport(t *testing.T) {
	// No scrollable region anywhere on the page
	surface := &fakeSurface{
		html:      panelHTML,
		docExtent: 2000,
		growBy:    300,
	}
	provider := NewScrollProvider(surface, scrollTestConfig(), logrus.New(), nil)

	outcome, err := provider.Advance(context.Background())

	require.NoError(t, err)
	assert.Equal(t, types.AdvanceChanged, outcome)
	assert.Equal(t, 1, surface.scrolls)
}

func TestScrollProvider_RepeatedAdvanceStallsAfterGrowthStops(t *testing.T) {
	surface := &fakeSurface{
		html:    panelHTML,
		extents: map[string]float64{"div.review-panel": 1000},
		growBy:  500,
	}
	provider := NewScrollProvider(surface, scrollTestConfig(), logrus.New(), nil)
	ctx := context.Background()

	outcome, err := provider.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.AdvanceChanged, outcome)

	surface.growBy = 0
	outcome, err = provider.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.AdvanceUnchanged, outcome)
}
