package utils

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/chromedp/chromedp"
	"review-harvester/internal/types"
)

// BrowserClient provides headless browser functionality for one page session.
// Unlike a per-request client, it keeps a single browser context alive for the
// whole run because scroll position is only meaningful across calls.
type BrowserClient struct {
	config *types.Config
	logger types.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// NewBrowserClient creates a new browser client
func NewBrowserClient(config *types.Config, logger types.Logger) *BrowserClient {
	// Suppress chromedp debug logging
	log.SetOutput(io.Discard)

	return &BrowserClient{
		config: config,
		logger: logger,
	}
}

// Open starts the browser session and navigates to the given URL.
// It must be called before any other page operation.
func (b *BrowserClient) Open(ctx context.Context, url string) error {
	browserCtx, cancel := chromedp.NewContext(ctx)
	b.ctx = browserCtx
	b.cancel = cancel

	err := chromedp.Run(b.ctx,
		chromedp.Navigate(url),
		chromedp.Sleep(500*time.Millisecond),
	)
	if err != nil {
		return fmt.Errorf("failed to open page %s: %w", url, err)
	}

	b.logger.Debugf("Opened page %s", url)
	return nil
}

// OuterHTML retrieves the HTML content of the element matching the selector.
func (b *BrowserClient) OuterHTML(selector string) (string, error) {
	if b.ctx == nil {
		return "", fmt.Errorf("browser session not open")
	}

	runCtx, cancel := context.WithTimeout(b.ctx, b.config.Timeout)
	defer cancel()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.OuterHTML(selector, &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("failed to get page content: %w", err)
	}

	b.logger.Debugf("Retrieved %d bytes for selector %s", len(html), selector)
	return html, nil
}

// Click clicks the first element matching the selector.
func (b *BrowserClient) Click(selector string) error {
	if b.ctx == nil {
		return fmt.Errorf("browser session not open")
	}

	runCtx, cancel := context.WithTimeout(b.ctx, b.config.Timeout)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to click %s: %w", selector, err)
	}
	return nil
}

// ScrollExtent returns the scrollHeight of the element matching the selector,
// or -1 when no such element exists on the page.
func (b *BrowserClient) ScrollExtent(selector string) (float64, error) {
	if b.ctx == nil {
		return 0, fmt.Errorf("browser session not open")
	}

	runCtx, cancel := context.WithTimeout(b.ctx, b.config.Timeout)
	defer cancel()

	script := fmt.Sprintf(
		`(function() { var el = document.querySelector(%q); return el ? el.scrollHeight : -1; })()`,
		selector,
	)

	var extent float64
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &extent)); err != nil {
		return 0, fmt.Errorf("failed to read scroll extent of %s: %w", selector, err)
	}
	return extent, nil
}

// ScrollToBottom scrolls the element matching the selector to its maximum
// extent so that lazily loaded content below it starts materializing.
func (b *BrowserClient) ScrollToBottom(selector string) error {
	if b.ctx == nil {
		return fmt.Errorf("browser session not open")
	}

	runCtx, cancel := context.WithTimeout(b.ctx, b.config.Timeout)
	defer cancel()

	script := fmt.Sprintf(
		`(function() { var el = document.querySelector(%q); if (el) { el.scrollTop = el.scrollHeight; } })()`,
		selector,
	)

	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, nil)); err != nil {
		return fmt.Errorf("failed to scroll %s: %w", selector, err)
	}
	return nil
}

// ScrollViewportToBottom scrolls the outer viewport to the bottom of the
// document. Used as a fallback when no scrollable region is found.
func (b *BrowserClient) ScrollViewportToBottom() error {
	if b.ctx == nil {
		return fmt.Errorf("browser session not open")
	}

	runCtx, cancel := context.WithTimeout(b.ctx, b.config.Timeout)
	defer cancel()

	script := `window.scrollTo(0, document.body.scrollHeight)`
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, nil)); err != nil {
		return fmt.Errorf("failed to scroll viewport: %w", err)
	}
	return nil
}

// DocumentExtent returns the scrollHeight of the whole document.
func (b *BrowserClient) DocumentExtent() (float64, error) {
	if b.ctx == nil {
		return 0, fmt.Errorf("browser session not open")
	}

	runCtx, cancel := context.WithTimeout(b.ctx, b.config.Timeout)
	defer cancel()

	var extent float64
	err := chromedp.Run(runCtx, chromedp.Evaluate(`document.body.scrollHeight`, &extent))
	if err != nil {
		return 0, fmt.Errorf("failed to read document extent: %w", err)
	}
	return extent, nil
}

// Close tears down the browser session
func (b *BrowserClient) Close() {
	if b.cancel != nil {
		b.cancel()
	}
}
