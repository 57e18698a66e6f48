package config

import (
	"fmt"
	"net/url"
	"regexp"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Harvest.RootSitemapURL); err != nil {
		return fmt.Errorf("harvest.root_sitemap_url: %w", err)
	}
	if cfg.Harvest.ListingPattern == "" {
		return fmt.Errorf("harvest.listing_pattern must not be empty")
	}
	if _, err := regexp.Compile(cfg.Harvest.ListingPattern); err != nil {
		return fmt.Errorf("harvest.listing_pattern is not a valid regexp: %w", err)
	}
	if cfg.Harvest.Concurrency < 1 {
		return fmt.Errorf("harvest.concurrency must be >= 1, got %d", cfg.Harvest.Concurrency)
	}
	if cfg.Harvest.Concurrency > 64 {
		return fmt.Errorf("harvest.concurrency must be <= 64, got %d", cfg.Harvest.Concurrency)
	}
	if cfg.Harvest.FailurePolicy != "abort" && cfg.Harvest.FailurePolicy != "skip" {
		return fmt.Errorf("harvest.failure_policy must be 'abort' or 'skip', got %q", cfg.Harvest.FailurePolicy)
	}
	if cfg.Harvest.MaxItems < 0 {
		return fmt.Errorf("harvest.max_items must be >= 0, got %d", cfg.Harvest.MaxItems)
	}

	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}
	if cfg.Fetcher.RequestTimeout < 0 {
		return fmt.Errorf("fetcher.request_timeout must be >= 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}

	validStorageTypes := map[string]bool{
		"json": true, "jsonl": true, "csv": true, "sqlite": true, "mongodb": true,
	}
	if !validStorageTypes[cfg.Storage.Type] {
		return fmt.Errorf("storage.type %q is not supported (valid: json, jsonl, csv, sqlite, mongodb)", cfg.Storage.Type)
	}
	if cfg.Storage.Type == "sqlite" && cfg.Storage.SQLite.Path == "" {
		return fmt.Errorf("storage.sqlite.path must be set for sqlite storage")
	}
	if cfg.Storage.Type == "mongodb" && cfg.Storage.Mongo.URI == "" {
		return fmt.Errorf("storage.mongo.uri must be set for mongodb storage")
	}

	if cfg.Media.Enabled {
		if cfg.Media.OutputDir == "" {
			return fmt.Errorf("media.output_dir must be set when media.enabled")
		}
		if cfg.Media.Concurrency < 1 {
			return fmt.Errorf("media.concurrency must be >= 1, got %d", cfg.Media.Concurrency)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level %q is not supported (valid: debug, info, warn, error)", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

// ValidateURL checks that a raw URL is absolute http(s).
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL %q must use http or https", rawURL)
	}
	if u.Host == "" {
		return fmt.Errorf("URL %q has no host", rawURL)
	}
	return nil
}
