package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spiritdex/spiritdex/internal/normalize"
	"github.com/spiritdex/spiritdex/internal/types"
)

// LoadCatalog reads a catalog JSON document from disk.
func LoadCatalog(path string) (*types.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	var cat types.Catalog
	if err := json.NewDecoder(f).Decode(&cat); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return &cat, nil
}

// RunCatalog drives the catalog/stat flow: for every catalog entry, fetch
// its permalink page, read the stat-list widget and the product image, and
// normalize into a StatRecord. Order and failure semantics match Run.
func (d *Driver) RunCatalog(ctx context.Context, catalogPath string) ([]types.StatRecord, error) {
	cat, err := LoadCatalog(catalogPath)
	if err != nil {
		return nil, err
	}

	entries := cat.Whiskey
	if max := d.cfg.Harvest.MaxItems; max > 0 && len(entries) > max {
		entries = entries[:max]
	}

	d.logger.Info("catalog harvest starting",
		"catalog", catalogPath,
		"entries", len(entries),
		"concurrency", d.cfg.Harvest.Concurrency,
		"failure_policy", d.cfg.Harvest.FailurePolicy,
	)

	records, err := forEachItem(ctx, d, entries, d.statOne)
	if err != nil {
		return nil, err
	}

	d.logger.Info("catalog harvest complete", "records", len(records))
	return records, nil
}

// statOne fetches and normalizes a single catalog entry.
func (d *Driver) statOne(ctx context.Context, entry types.CatalogEntry) (types.StatRecord, error) {
	image, stats, err := d.stats.Extract(ctx, entry.Permalink)
	if err != nil {
		d.metrics.FetchFailures.Add(1)
		return types.StatRecord{}, err
	}
	d.metrics.PagesFetched.Add(1)
	return normalize.NormalizeStats(entry, image, stats), nil
}
