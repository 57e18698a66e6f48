package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks operational counters for a harvest run.
type Metrics struct {
	// Discovery
	SitemapsResolved atomic.Int64
	ItemsLocated     atomic.Int64

	// Detail pages
	PagesFetched  atomic.Int64
	FetchFailures atomic.Int64

	// Output
	RecordsEmitted  atomic.Int64
	RecordsSkipped  atomic.Int64
	ImagesFetched   atomic.Int64
	BytesDownloaded atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"spiritdex_sitemaps_resolved_total", "Item-listing sitemaps resolved", m.SitemapsResolved.Load()},
		{"spiritdex_items_located_total", "Items located in sitemaps", m.ItemsLocated.Load()},
		{"spiritdex_pages_fetched_total", "Detail pages fetched", m.PagesFetched.Load()},
		{"spiritdex_fetch_failures_total", "Failed fetches", m.FetchFailures.Load()},
		{"spiritdex_records_emitted_total", "Records emitted", m.RecordsEmitted.Load()},
		{"spiritdex_records_skipped_total", "Items skipped under the skip policy", m.RecordsSkipped.Load()},
		{"spiritdex_images_fetched_total", "Images downloaded", m.ImagesFetched.Load()},
		{"spiritdex_bytes_downloaded_total", "Bytes downloaded", m.BytesDownloaded.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Snapshot returns all counters as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"sitemaps_resolved": m.SitemapsResolved.Load(),
		"items_located":     m.ItemsLocated.Load(),
		"pages_fetched":     m.PagesFetched.Load(),
		"fetch_failures":    m.FetchFailures.Load(),
		"records_emitted":   m.RecordsEmitted.Load(),
		"records_skipped":   m.RecordsSkipped.Load(),
		"images_fetched":    m.ImagesFetched.Load(),
		"bytes_downloaded":  m.BytesDownloaded.Load(),
	}
}
