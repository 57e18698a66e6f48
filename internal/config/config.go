package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for spiritdex.
type Config struct {
	Harvest HarvestConfig `mapstructure:"harvest" yaml:"harvest"`
	Fetcher FetcherConfig `mapstructure:"fetcher" yaml:"fetcher"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Media   MediaConfig   `mapstructure:"media"   yaml:"media"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// HarvestConfig controls the sitemap-driven harvest pipeline.
type HarvestConfig struct {
	// RootSitemapURL is the sitemap-index document the run starts from.
	RootSitemapURL string `mapstructure:"root_sitemap_url" yaml:"root_sitemap_url"`

	// ListingPattern selects item-listing child sitemaps by name. Matched
	// case-sensitively as a regular expression against each child location.
	ListingPattern string `mapstructure:"listing_pattern" yaml:"listing_pattern"`

	// ExpandAll expands every matching child sitemap. When false only the
	// first match is expanded, which mirrors the original harvester.
	ExpandAll bool `mapstructure:"expand_all" yaml:"expand_all"`

	// Concurrency bounds the detail-page worker pool. 1 means strictly
	// sequential fetching; output order is input order either way.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`

	// FailurePolicy is "abort" (a failed item ends the run) or "skip"
	// (log and continue). Abort is the default.
	FailurePolicy string `mapstructure:"failure_policy" yaml:"failure_policy"`

	// MaxItems caps the number of detail pages fetched. 0 means unlimited.
	MaxItems int `mapstructure:"max_items" yaml:"max_items"`

	// UserAgent and Accept are sent on every detail-page GET. The origin
	// rejects requests without browser-like values, so these are required
	// behavior rather than cosmetics.
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
	Accept    string `mapstructure:"accept"     yaml:"accept"`
}

// FetcherConfig controls the request fetcher.
type FetcherConfig struct {
	// Type selects the fetcher implementation: "http" or "browser".
	Type string `mapstructure:"type" yaml:"type"`

	// RequestTimeout bounds each fetch. 0 disables the timeout entirely,
	// which reproduces the original harvester's unguarded requests.
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`

	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
}

// StorageConfig controls where harvested records land.
type StorageConfig struct {
	// Type is one of json, jsonl, csv, sqlite, mongodb.
	Type       string       `mapstructure:"type"        yaml:"type"`
	OutputPath string       `mapstructure:"output_path" yaml:"output_path"`
	SQLite     SQLiteConfig `mapstructure:"sqlite"      yaml:"sqlite"`
	Mongo      MongoConfig  `mapstructure:"mongo"       yaml:"mongo"`
}

// SQLiteConfig configures the relational sink.
type SQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// MongoConfig configures the document sink.
type MongoConfig struct {
	URI        string `mapstructure:"uri"        yaml:"uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// MediaConfig controls image downloading.
type MediaConfig struct {
	Enabled     bool   `mapstructure:"enabled"     yaml:"enabled"`
	OutputDir   string `mapstructure:"output_dir"  yaml:"output_dir"`
	MaxSizeMB   int64  `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	Concurrency int    `mapstructure:"concurrency" yaml:"concurrency"`
}

// MetricsConfig controls the metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Harvest: HarvestConfig{
			RootSitemapURL: "https://www.whiskybase.com/sitemaps/sitemaps.xml",
			ListingPattern: "whiskies-[0-9]+",
			ExpandAll:      false,
			Concurrency:    1,
			FailurePolicy:  "abort",
			UserAgent:      "Mozilla/5.0 (X11; Linux x86_64; rv:124.0) Gecko/20100101 Firefox/124.0",
			Accept:         "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		},
		Fetcher: FetcherConfig{
			Type:            "http",
			RequestTimeout:  30 * time.Second,
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
		},
		Storage: StorageConfig{
			Type:       "json",
			OutputPath: "./output/whiskies.json",
			SQLite: SQLiteConfig{
				Path: "./output/whiskey.db",
			},
			Mongo: MongoConfig{
				URI:        "mongodb://localhost:27017",
				Database:   "spiritdex",
				Collection: "whiskies",
			},
		},
		Media: MediaConfig{
			Enabled:     false,
			OutputDir:   "./output/images",
			MaxSizeMB:   20,
			Concurrency: 4,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9190,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
