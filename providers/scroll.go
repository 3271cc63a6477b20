package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"review-harvester/internal/types"
)

// PageSurface is the slice of browser functionality the scroll provider
// needs. utils.BrowserClient satisfies it; tests supply a fake.
type PageSurface interface {
	OuterHTML(selector string) (string, error)
	ScrollExtent(selector string) (float64, error)
	ScrollToBottom(selector string) error
	ScrollViewportToBottom() error
	DocumentExtent() (float64, error)
}

// SelectorSet is one equivalent way of locating review elements on the page.
// Review panel markup varies by product template, so the provider tries an
// ordered list of these and the first set yielding matches wins for that call.
type SelectorSet struct {
	Item       string // one review container
	Text       string // review body, relative to Item
	AuthorDate string // "name | date" meta line, relative to Item
	StarFilled string // one filled star indicator, relative to Item
	Image      string // one review image, relative to Item
	SKU        string // purchased-variant line, relative to Item
}

// DefaultSelectorSets covers the review panel templates observed so far.
func DefaultSelectorSets() []SelectorSet {
	return []SelectorSet{
		{
			Item:       "div.review-item",
			Text:       "div.review-text",
			AuthorDate: "div.review-meta",
			StarFilled: "span.star.filled",
			Image:      "img.review-image",
			SKU:        "div.review-sku",
		},
		{
			Item:       "div[data-review-id]",
			Text:       "p.content",
			AuthorDate: "span.author-line",
			StarFilled: "i.icon-star-full",
			Image:      "div.review-photos img",
			SKU:        "span.sku",
		},
		{
			Item:       "li.comment",
			Text:       "div.comment-body",
			AuthorDate: "div.comment-header",
			StarFilled: "em.star-on",
			Image:      "ul.photos img",
			SKU:        "div.variant",
		},
	}
}

// DefaultScrollRegions lists panel selectors tried when advancing; the first
// one present on the page is scrolled, otherwise the outer viewport is.
func DefaultScrollRegions() []string {
	return []string{
		"div.review-panel",
		"div.reviews-scroll-container",
		"div[class*='review-list']",
	}
}

// ScrollProvider reads currently visible review records from a scrollable
// panel and advances it by scrolling to the bottom, waiting a settle interval
// for lazily loaded content to materialize.
type ScrollProvider struct {
	surface       PageSurface
	config        *types.Config
	logger        types.Logger
	selectorSets  []SelectorSet
	scrollRegions []string
	region        string  // resolved scrollable region, empty until found
	lastExtent    float64 // content extent observed by the previous advance
	closer        func()
}

// NewScrollProvider creates a scroll provider over an already opened page.
// closer may be nil when the caller owns the surface lifecycle.
func NewScrollProvider(surface PageSurface, config *types.Config, logger types.Logger, closer func()) *ScrollProvider {
	return &ScrollProvider{
		surface:       surface,
		config:        config,
		logger:        logger,
		selectorSets:  DefaultSelectorSets(),
		scrollRegions: DefaultScrollRegions(),
		lastExtent:    -1,
		closer:        closer,
	}
}

// SetSelectorSets overrides the default selector fallback chain.
func (s *ScrollProvider) SetSelectorSets(sets []SelectorSet) {
	s.selectorSets = sets
}

// Pull reads all currently materialized records from the panel.
func (s *ScrollProvider) Pull(ctx context.Context) ([]types.RawRecord, error) {
	html, err := s.surface.OuterHTML("body")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSurfaceLost, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse panel HTML: %w", err)
	}

	for _, set := range s.selectorSets {
		items := doc.Find(set.Item)
		if items.Length() == 0 {
			continue
		}

		s.logger.Debugf("Selector set %q matched %d items", set.Item, items.Length())

		var records []types.RawRecord
		items.Each(func(i int, item *goquery.Selection) {
			records = append(records, s.parseItem(item, set))
		})
		return records, nil
	}

	s.logger.Debug("No selector set matched any review items")
	return nil, nil
}

// parseItem converts one review element into a raw record. Field-shape
// reconciliation (star count vs score, pipe-delimited author line) is left
// to the normalizer.
func (s *ScrollProvider) parseItem(item *goquery.Selection, set SelectorSet) types.RawRecord {
	record := types.RawRecord{
		Text:          strings.TrimSpace(item.Find(set.Text).Text()),
		AuthorAndDate: strings.TrimSpace(item.Find(set.AuthorDate).Text()),
		SKUInfo:       strings.TrimSpace(item.Find(set.SKU).Text()),
	}

	if id, ok := item.Attr("data-review-id"); ok {
		record.ID = id
	}

	if stars := item.Find(set.StarFilled).Length(); stars > 0 {
		record.StarCount = &stars
	}

	item.Find(set.Image).Each(func(i int, img *goquery.Selection) {
		if src, ok := img.Attr("src"); ok && strings.TrimSpace(src) != "" {
			record.Images = append(record.Images, strings.TrimSpace(src))
		}
	})

	return record
}

// Advance scrolls the review panel to its current maximum extent, waits for
// lazy content to settle, and reports changed only if the extent grew.
func (s *ScrollProvider) Advance(ctx context.Context) (types.AdvanceOutcome, error) {
	region, extentBefore, err := s.resolveRegion()
	if err != nil {
		return types.AdvanceUnchanged, err
	}

	if region != "" {
		err = s.surface.ScrollToBottom(region)
	} else {
		err = s.surface.ScrollViewportToBottom()
	}
	if err != nil {
		return types.AdvanceUnchanged, fmt.Errorf("%w: %v", ErrSurfaceLost, err)
	}

	// Settle wait: lazy-loaded content lags behind the scroll signal.
	select {
	case <-time.After(s.config.SettleWait):
	case <-ctx.Done():
		return types.AdvanceUnchanged, nil
	}

	var extentAfter float64
	if region != "" {
		extentAfter, err = s.surface.ScrollExtent(region)
	} else {
		extentAfter, err = s.surface.DocumentExtent()
	}
	if err != nil {
		return types.AdvanceUnchanged, fmt.Errorf("%w: %v", ErrSurfaceLost, err)
	}

	grew := extentAfter > extentBefore && extentAfter > s.lastExtent
	s.lastExtent = extentAfter

	if grew {
		s.logger.Debugf("Panel extent grew to %.0f", extentAfter)
		return types.AdvanceChanged, nil
	}
	return types.AdvanceUnchanged, nil
}

// resolveRegion finds the scrollable region and its current extent. The
// resolved region is cached; an empty region means viewport fallback.
func (s *ScrollProvider) resolveRegion() (string, float64, error) {
	if s.region != "" {
		extent, err := s.surface.ScrollExtent(s.region)
		if err != nil {
			return "", 0, fmt.Errorf("%w: %v", ErrSurfaceLost, err)
		}
		return s.region, extent, nil
	}

	for _, candidate := range s.scrollRegions {
		extent, err := s.surface.ScrollExtent(candidate)
		if err != nil {
			return "", 0, fmt.Errorf("%w: %v", ErrSurfaceLost, err)
		}
		if extent >= 0 {
			s.logger.Debugf("Using scrollable region %q", candidate)
			s.region = candidate
			return candidate, extent, nil
		}
	}

	s.logger.Debug("No scrollable region found, falling back to viewport")
	extent, err := s.surface.DocumentExtent()
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrSurfaceLost, err)
	}
	return "", extent, nil
}

// Close releases the underlying surface if this provider owns it
func (s *ScrollProvider) Close() {
	if s.closer != nil {
		s.closer()
	}
}
