// Package spiritdex provides a high-level API for embedding the harvester
// as a library.
//
// Example usage:
//
//	records, err := spiritdex.Harvest(ctx,
//	    "https://www.whiskybase.com/sitemaps/sitemaps.xml",
//	    spiritdex.WithListingPattern("whiskies-[0-9]+"),
//	    spiritdex.WithConcurrency(4),
//	    spiritdex.WithFailurePolicy("skip"),
//	)
package spiritdex

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/spiritdex/spiritdex/internal/config"
	"github.com/spiritdex/spiritdex/internal/fetcher"
	"github.com/spiritdex/spiritdex/internal/harvest"
	"github.com/spiritdex/spiritdex/internal/types"
)

// Record is the normalized eight-field output shape.
type Record = types.Record

// StatRecord is the catalog-flow output shape.
type StatRecord = types.StatRecord

// Option configures a harvest run.
type Option func(*options)

type options struct {
	cfg    *config.Config
	logger *slog.Logger
}

// WithListingPattern sets the item-listing sitemap pattern.
func WithListingPattern(pattern string) Option {
	return func(o *options) { o.cfg.Harvest.ListingPattern = pattern }
}

// WithExpandAll expands every matching child sitemap instead of only the
// first one.
func WithExpandAll() Option {
	return func(o *options) { o.cfg.Harvest.ExpandAll = true }
}

// WithConcurrency bounds the detail-page worker pool. 1 keeps the run
// strictly sequential.
func WithConcurrency(n int) Option {
	return func(o *options) { o.cfg.Harvest.Concurrency = n }
}

// WithFailurePolicy sets "abort" (default) or "skip".
func WithFailurePolicy(policy string) Option {
	return func(o *options) { o.cfg.Harvest.FailurePolicy = policy }
}

// WithMaxItems caps the number of detail pages fetched.
func WithMaxItems(n int) Option {
	return func(o *options) { o.cfg.Harvest.MaxItems = n }
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.cfg.Fetcher.RequestTimeout = d }
}

// WithUserAgent overrides the User-Agent sent on detail-page requests.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.cfg.Harvest.UserAgent = ua }
}

// WithBrowser fetches pages with a headless browser instead of plain HTTP.
func WithBrowser() Option {
	return func(o *options) { o.cfg.Fetcher.Type = "browser" }
}

// WithLogger supplies a logger; the default logs warnings and errors to
// stderr.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Harvest runs the full sitemap-driven pipeline against rootSitemapURL and
// returns the normalized records in item order.
func Harvest(ctx context.Context, rootSitemapURL string, opts ...Option) ([]Record, error) {
	f, driver, err := build(opts)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return driver.Run(ctx, rootSitemapURL)
}

// HarvestCatalog runs the catalog/stat flow against a local catalog JSON.
func HarvestCatalog(ctx context.Context, catalogPath string, opts ...Option) ([]StatRecord, error) {
	f, driver, err := build(opts)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return driver.RunCatalog(ctx, catalogPath)
}

func build(opts []Option) (fetcher.Fetcher, *harvest.Driver, error) {
	o := &options{
		cfg: config.DefaultConfig(),
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		})),
	}
	for _, opt := range opts {
		opt(o)
	}
	if err := config.Validate(o.cfg); err != nil {
		return nil, nil, err
	}

	var f fetcher.Fetcher
	var err error
	if o.cfg.Fetcher.Type == "browser" {
		f, err = fetcher.NewBrowserFetcher(o.cfg, o.logger)
	} else {
		f, err = fetcher.NewHTTPFetcher(o.cfg, o.logger)
	}
	if err != nil {
		return nil, nil, err
	}

	driver, err := harvest.New(o.cfg, f, o.logger)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, driver, nil
}
