package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/spiritdex/spiritdex/internal/config"
	"github.com/spiritdex/spiritdex/internal/types"
)

// BrowserFetcher implements Fetcher with a headless browser via Rod. It is
// the fallback for origins whose anti-scraping heuristics reject plain HTTP
// clients even with browser-like headers.
type BrowserFetcher struct {
	browser *rod.Browser
	cfg     *config.FetcherConfig
	logger  *slog.Logger
	mu      sync.Mutex
}

// NewBrowserFetcher launches a headless Chromium and connects to it.
func NewBrowserFetcher(cfg *config.Config, logger *slog.Logger) (*BrowserFetcher, error) {
	launchURL, err := launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled").
		Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	bf := &BrowserFetcher{
		browser: browser,
		cfg:     &cfg.Fetcher,
		logger:  logger.With("component", "browser_fetcher"),
	}
	bf.logger.Info("browser fetcher ready")
	return bf, nil
}

// Fetch navigates to the request URL and returns the rendered HTML.
// Pages are serialized through a mutex; the harvest pipeline bounds its own
// concurrency, so one page at a time is enough here.
func (bf *BrowserFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	start := time.Now()

	page, err := stealth.Page(bf.browser)
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: fmt.Errorf("stealth page: %w", err)}
	}
	defer page.Close()

	page = page.Context(ctx)
	timeout := bf.cfg.RequestTimeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	if timeout > 0 {
		page = page.Timeout(timeout)
	}

	if ua := req.Headers.Get("User-Agent"); ua != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
			bf.logger.Warn("failed to set user agent", "error", err)
		}
	}
	if extra := extraHeaders(req); len(extra) > 0 {
		if _, err := page.SetExtraHeaders(extra); err != nil {
			bf.logger.Warn("failed to set extra headers", "error", err)
		}
	}

	if err := page.Navigate(req.URLString()); err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err}
	}
	if err := page.WaitLoad(); err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err}
	}

	info, err := page.Info()
	finalURL := req.URLString()
	if err == nil && info.URL != "" {
		finalURL = info.URL
	}

	resp := types.NewBrowserResponse(req, 200, []byte(html), finalURL, time.Since(start))

	bf.logger.Debug("browser fetch complete",
		"url", req.URLString(),
		"size", len(html),
		"duration", resp.FetchDuration,
	)
	return resp, nil
}

// Close shuts down the browser.
func (bf *BrowserFetcher) Close() error {
	if bf.browser != nil {
		return bf.browser.Close()
	}
	return nil
}

// Type returns the fetcher type identifier.
func (bf *BrowserFetcher) Type() string {
	return "browser"
}

// extraHeaders flattens the request headers into rod's key/value list,
// skipping User-Agent which is set through the devtools override.
func extraHeaders(req *types.Request) []string {
	headers := make([]string, 0, len(req.Headers)*2)
	for k, vals := range req.Headers {
		if k == "User-Agent" {
			continue
		}
		for _, v := range vals {
			headers = append(headers, k, v)
		}
	}
	return headers
}
