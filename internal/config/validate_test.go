package config

import "testing"

func TestValidateDefaults(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad root URL", func(c *Config) { c.Harvest.RootSitemapURL = "ftp://x/sitemaps.xml" }},
		{"empty pattern", func(c *Config) { c.Harvest.ListingPattern = "" }},
		{"bad pattern", func(c *Config) { c.Harvest.ListingPattern = "whiskies-[" }},
		{"zero concurrency", func(c *Config) { c.Harvest.Concurrency = 0 }},
		{"excessive concurrency", func(c *Config) { c.Harvest.Concurrency = 128 }},
		{"bad failure policy", func(c *Config) { c.Harvest.FailurePolicy = "retry" }},
		{"negative max items", func(c *Config) { c.Harvest.MaxItems = -1 }},
		{"bad fetcher type", func(c *Config) { c.Fetcher.Type = "carrier-pigeon" }},
		{"zero body size", func(c *Config) { c.Fetcher.MaxBodySize = 0 }},
		{"bad storage type", func(c *Config) { c.Storage.Type = "yaml" }},
		{"sqlite without path", func(c *Config) { c.Storage.Type = "sqlite"; c.Storage.SQLite.Path = "" }},
		{"mongo without uri", func(c *Config) { c.Storage.Type = "mongodb"; c.Storage.Mongo.URI = "" }},
		{"media without dir", func(c *Config) { c.Media.Enabled = true; c.Media.OutputDir = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	if err := ValidateURL("https://www.whiskybase.com/sitemaps/sitemaps.xml"); err != nil {
		t.Errorf("valid URL rejected: %v", err)
	}
	for _, bad := range []string{"", "://nope", "file:///etc/passwd", "https://"} {
		if err := ValidateURL(bad); err == nil {
			t.Errorf("ValidateURL(%q): expected error", bad)
		}
	}
}
