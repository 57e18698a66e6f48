// Package harvest sequences sitemap discovery, detail-page extraction and
// normalization into an ordered sequence of Records.
package harvest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/spiritdex/spiritdex/internal/config"
	"github.com/spiritdex/spiritdex/internal/extract"
	"github.com/spiritdex/spiritdex/internal/fetcher"
	"github.com/spiritdex/spiritdex/internal/normalize"
	"github.com/spiritdex/spiritdex/internal/observability"
	"github.com/spiritdex/spiritdex/internal/sitemap"
	"github.com/spiritdex/spiritdex/internal/types"
)

// Driver runs the harvest pipeline. Data flows strictly forward: sitemap
// index → item sitemaps → detail pages → normalized records. The driver
// never persists anything; callers hand the result to a storage backend.
type Driver struct {
	cfg      *config.Config
	fetcher  fetcher.Fetcher
	sitemaps *sitemap.Client
	details  *extract.DetailExtractor
	stats    *extract.StatExtractor
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// New creates a Driver.
func New(cfg *config.Config, f fetcher.Fetcher, logger *slog.Logger) (*Driver, error) {
	sm, err := sitemap.New(f, cfg.Harvest.ListingPattern, logger)
	if err != nil {
		return nil, fmt.Errorf("compile listing pattern: %w", err)
	}
	return &Driver{
		cfg:      cfg,
		fetcher:  f,
		sitemaps: sm,
		details:  extract.NewDetailExtractor(f, logger),
		stats:    extract.NewStatExtractor(f, logger),
		metrics:  observability.NewMetrics(logger),
		logger:   logger.With("component", "harvest"),
	}, nil
}

// Metrics exposes the run counters.
func (d *Driver) Metrics() *observability.Metrics { return d.metrics }

// Run resolves the sitemap index at rootURL, expands item-listing sitemaps
// (only the first match unless expand_all is set), extracts and normalizes
// every located item, and returns the records in item order. A failed item
// aborts the whole run under the default "abort" policy; "skip" logs the
// failure and continues. Sitemap-level failures always abort.
func (d *Driver) Run(ctx context.Context, rootURL string) ([]types.Record, error) {
	children, err := d.sitemaps.ResolveIndex(ctx, rootURL)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		d.logger.Warn("no item-listing sitemaps found", "root", rootURL,
			"pattern", d.cfg.Harvest.ListingPattern)
		return []types.Record{}, nil
	}

	if !d.cfg.Harvest.ExpandAll {
		children = children[:1]
	}

	var items []types.LocatedItem
	for _, child := range children {
		located, err := d.sitemaps.LocateItems(ctx, child)
		if err != nil {
			return nil, err
		}
		d.metrics.SitemapsResolved.Add(1)
		items = append(items, located...)
	}

	if max := d.cfg.Harvest.MaxItems; max > 0 && len(items) > max {
		items = items[:max]
	}
	d.metrics.ItemsLocated.Add(int64(len(items)))

	d.logger.Info("harvest starting",
		"sitemaps", len(children),
		"items", len(items),
		"concurrency", d.cfg.Harvest.Concurrency,
		"failure_policy", d.cfg.Harvest.FailurePolicy,
	)

	records, err := forEachItem(ctx, d, items, d.harvestOne)
	if err != nil {
		return nil, err
	}

	d.logger.Info("harvest complete", "records", len(records))
	return records, nil
}

// harvestOne fetches and normalizes a single located item.
func (d *Driver) harvestOne(ctx context.Context, item types.LocatedItem) (types.Record, error) {
	attrs, err := d.details.Extract(ctx, item.DetailURL, d.detailHeaders(item.DetailURL))
	if err != nil {
		d.metrics.FetchFailures.Add(1)
		return types.Record{}, err
	}
	d.metrics.PagesFetched.Add(1)
	return normalize.Normalize(item.Title, attrs), nil
}

// LocateImages resolves the index and returns the image URLs advertised by
// the located sitemap entries, keyed by a stable content-addressed name.
// Entries without image metadata are omitted.
func (d *Driver) LocateImages(ctx context.Context, rootURL string) (map[string]string, error) {
	children, err := d.sitemaps.ResolveIndex(ctx, rootURL)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return map[string]string{}, nil
	}
	if !d.cfg.Harvest.ExpandAll {
		children = children[:1]
	}

	images := make(map[string]string)
	for _, child := range children {
		located, err := d.sitemaps.LocateItems(ctx, child)
		if err != nil {
			return nil, err
		}
		for _, item := range located {
			if item.ImageURL == "" {
				continue
			}
			sum := sha256.Sum256([]byte(item.ImageURL))
			images[hex.EncodeToString(sum[:8])] = item.ImageURL
		}
	}
	return images, nil
}

// detailHeaders builds the browser-like header set sent on every detail-page
// GET. Host is derived per URL; omitting these trips the origin's
// anti-scraping heuristic.
func (d *Driver) detailHeaders(rawURL string) http.Header {
	h := make(http.Header)
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		h.Set("Host", u.Host)
	}
	h.Set("User-Agent", d.cfg.Harvest.UserAgent)
	h.Set("Accept", d.cfg.Harvest.Accept)
	return h
}

// forEachItem applies fn to every item through a bounded worker pool and
// returns the results in input order. Concurrency 1 keeps the run strictly
// sequential. Under the "skip" policy a failed item leaves a gap that is
// compacted out; under "abort" the first failure cancels the remaining work.
func forEachItem[T any, R any](ctx context.Context, d *Driver, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	limit := d.cfg.Harvest.Concurrency
	if limit < 1 {
		limit = 1
	}
	skip := d.cfg.Harvest.FailurePolicy == "skip"

	results := make([]*R, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := fn(gctx, item)
			if err != nil {
				if skip {
					d.metrics.RecordsSkipped.Add(1)
					d.logger.Warn("item skipped", "index", i, "error", err)
					return nil
				}
				return err
			}
			results[i] = &res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]R, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
			d.metrics.RecordsEmitted.Add(1)
		}
	}
	return out, nil
}
