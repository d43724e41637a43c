// Package scrape fetches the public constituents reference page and
// extracts the current-membership and historical-changes tables from it.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"

	"idxlens/internal/config"
)

// Fetcher retrieves the raw HTML of a page
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches pages with a plain HTTP client. Requests are
// rate-limited to stay polite toward the public reference site.
type HTTPFetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewHTTPFetcher creates an HTTP fetcher from scrape configuration
func NewHTTPFetcher(cfg config.ScrapeConfig) *HTTPFetcher {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 1
	}

	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		userAgent: cfg.UserAgent,
	}
}

// Fetch retrieves the page body, honoring context cancellation
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", url, err)
	}

	return body, nil
}

// BrowserFetcher fetches pages through a headless browser, for sources that
// only render their tables client-side.
type BrowserFetcher struct {
	headless bool
	timeout  time.Duration
}

// NewBrowserFetcher creates a chromedp-backed fetcher
func NewBrowserFetcher(cfg config.ScrapeConfig) *BrowserFetcher {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &BrowserFetcher{headless: cfg.Headless, timeout: timeout}
}

// Fetch navigates to the URL and returns the rendered document HTML
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.headless),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, f.timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("browser fetch of %s failed: %w", url, err)
	}

	return []byte(html), nil
}

// NewFetcher selects the fetcher implied by configuration
func NewFetcher(cfg config.ScrapeConfig) Fetcher {
	if cfg.UseBrowser {
		return NewBrowserFetcher(cfg)
	}
	return NewHTTPFetcher(cfg)
}
