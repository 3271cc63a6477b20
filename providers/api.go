package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"review-harvester/internal/types"
	"review-harvester/utils"
)

// apiPage is one page of the backend pagination API.
type apiPage struct {
	Reviews  []apiReview `json:"reviews"`
	LastPage bool        `json:"last_page"`
}

// apiReview mirrors the backend's review shape. Rating arrives either as a
// discrete star count or a 0-100 score depending on the backend version.
type apiReview struct {
	ID           string   `json:"id"`
	Author       string   `json:"author"`
	Rating       *int     `json:"rating,omitempty"`
	Score        *float64 `json:"score,omitempty"`
	Content      string   `json:"content"`
	Date         string   `json:"date"`
	SKUInfo      string   `json:"sku_info"`
	Images       []string `json:"images"`
	HelpfulCount int      `json:"helpful_count"`
	Country      string   `json:"country"`
}

// APIProvider requests review pages by page number from the backend
// pagination API, with bounded retries on empty or malformed responses.
type APIProvider struct {
	client    *utils.HTTPClient
	config    *types.Config
	logger    types.Logger
	baseURL   string
	productID string
	page      int
	lastPage  bool
}

// NewAPIProvider creates an API pagination provider starting at page 1.
func NewAPIProvider(baseURL, productID string, config *types.Config, logger types.Logger) *APIProvider {
	return &APIProvider{
		client:    utils.NewHTTPClient(config, logger),
		config:    config,
		logger:    logger,
		baseURL:   baseURL,
		productID: productID,
		page:      1,
	}
}

// Pull requests the current page. It retries up to the attempt ceiling when
// the response is malformed or unexpectedly empty, sleeping a short backoff
// between attempts, and degrades to an empty pull when retries run out.
func (a *APIProvider) Pull(ctx context.Context) ([]types.RawRecord, error) {
	pageURL := a.pageURL()

	for attempt := 0; attempt <= a.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(a.config.RetryBackoff):
			case <-ctx.Done():
				return nil, nil
			}
		}

		body, err := a.client.Get(ctx, pageURL)
		if err != nil {
			// The HTTP client already exhausted its own transport
			// retries; the API is gone, fatal for the run.
			return nil, fmt.Errorf("%w: %v", ErrTransportLost, err)
		}

		var page apiPage
		if err := json.Unmarshal(body, &page); err != nil {
			a.logger.Warnf("Malformed page %d response (attempt %d): %v", a.page, attempt+1, err)
			continue
		}

		if page.LastPage {
			a.lastPage = true
		}

		if len(page.Reviews) == 0 && !page.LastPage {
			a.logger.Warnf("Unexpectedly empty page %d (attempt %d)", a.page, attempt+1)
			continue
		}

		a.logger.Debugf("Page %d yielded %d reviews (last_page=%v)", a.page, len(page.Reviews), page.LastPage)
		return toRawRecords(page.Reviews), nil
	}

	a.logger.Warnf("Page %d produced no usable response after %d attempts", a.page, a.config.MaxRetries+1)
	return nil, nil
}

// Advance moves the cursor to the next page, or reports exhausted once the
// backend has indicated the last page.
func (a *APIProvider) Advance(ctx context.Context) (types.AdvanceOutcome, error) {
	if a.lastPage {
		return types.AdvanceExhausted, nil
	}
	a.page++
	return types.AdvanceChanged, nil
}

// Close releases nothing; the HTTP client holds no persistent resources.
func (a *APIProvider) Close() {}

func (a *APIProvider) pageURL() string {
	params := url.Values{}
	params.Set("productId", a.productID)
	params.Set("page", fmt.Sprintf("%d", a.page))
	params.Set("pageSize", fmt.Sprintf("%d", a.config.PageSize))
	params.Set("filter", a.config.Filter)
	params.Set("sort", a.config.Sort)
	return a.baseURL + "?" + params.Encode()
}

func toRawRecords(reviews []apiReview) []types.RawRecord {
	records := make([]types.RawRecord, 0, len(reviews))
	for _, r := range reviews {
		records = append(records, types.RawRecord{
			ID:           r.ID,
			Author:       r.Author,
			StarCount:    r.Rating,
			ScorePercent: r.Score,
			Text:         r.Content,
			Date:         r.Date,
			SKUInfo:      r.SKUInfo,
			Images:       r.Images,
			HelpfulCount: r.HelpfulCount,
			Country:      r.Country,
		})
	}
	return records
}
