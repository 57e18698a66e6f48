package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/spiritdex/spiritdex/internal/config"
	"github.com/spiritdex/spiritdex/internal/fetcher"
	"github.com/spiritdex/spiritdex/internal/harvest"
	"github.com/spiritdex/spiritdex/internal/media"
	"github.com/spiritdex/spiritdex/internal/storage"
)

var (
	cfgFile string
	verbose bool

	outputPath    string
	outputType    string
	fetcherType   string
	expandAll     bool
	concurrency   int
	maxItems      int
	failurePolicy string
	timeout       string
	pattern       string
	withImages    bool
	catalogPath   string
	dbPath        string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "spiritdex",
		Short: "spiritdex - spirit-bottle metadata harvester",
		Long: `spiritdex harvests structured whisky-bottle records from public sites.

The harvest command walks a sitemap index, expands item-listing sitemaps and
extracts each bottle's spec sheet into a fixed eight-field record. The
catalog command reads a local catalog JSON and extracts the stat widget from
each permalink page into a relational table, optionally downloading images.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(harvestCmd())
	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// harvestCmd creates the "harvest" subcommand.
func harvestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest [root-sitemap-url]",
		Short: "Harvest records from a sitemap index",
		Long:  "Resolve a sitemap index, expand item-listing sitemaps, extract each detail page and write normalized records.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHarvest,
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file path")
	cmd.Flags().StringVarP(&outputType, "format", "f", "", "output format: json, jsonl, csv, sqlite, mongodb")
	cmd.Flags().StringVar(&fetcherType, "fetcher", "", "fetcher: http or browser")
	cmd.Flags().BoolVar(&expandAll, "expand-all", false, "expand every matching child sitemap instead of only the first")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "n", 0, "detail-page workers (1 = sequential)")
	cmd.Flags().IntVarP(&maxItems, "max-items", "m", 0, "cap on detail pages fetched (0 = unlimited)")
	cmd.Flags().StringVar(&failurePolicy, "failure-policy", "", "abort or skip")
	cmd.Flags().StringVar(&timeout, "timeout", "", "per-request timeout (e.g. 30s; 0 disables)")
	cmd.Flags().StringVar(&pattern, "pattern", "", "item-listing sitemap pattern (regexp)")
	cmd.Flags().BoolVar(&withImages, "images", false, "also download sitemap-advertised images")

	return cmd
}

// runHarvest executes the harvest command.
func runHarvest(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	rootURL := cfg.Harvest.RootSitemapURL
	if len(args) > 0 {
		rootURL = args[0]
	}
	if err := config.ValidateURL(rootURL); err != nil {
		return err
	}

	f, err := newFetcher(cfg, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer f.Close()

	driver, err := harvest.New(cfg, f, logger)
	if err != nil {
		return err
	}

	store, err := storage.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}

	if cfg.Metrics.Enabled {
		if err := driver.Metrics().StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting harvest",
		"root", rootURL,
		"pattern", cfg.Harvest.ListingPattern,
		"expand_all", cfg.Harvest.ExpandAll,
		"output", cfg.Storage.OutputPath,
		"format", cfg.Storage.Type,
	)

	start := time.Now()
	records, err := driver.Run(ctx, rootURL)
	if err != nil {
		store.Close()
		return fmt.Errorf("harvest failed: %w", err)
	}

	if err := store.Store(records); err != nil {
		store.Close()
		return fmt.Errorf("store records: %w", err)
	}
	if err := store.Close(); err != nil {
		return fmt.Errorf("close storage: %w", err)
	}

	if withImages || cfg.Media.Enabled {
		if err := downloadHarvestImages(ctx, cfg, driver, logger, rootURL); err != nil {
			logger.Warn("image download incomplete", "error", err)
		}
	}

	elapsed := time.Since(start)
	stats := driver.Metrics().Snapshot()

	logger.Info("harvest complete",
		"elapsed", elapsed,
		"records", len(records),
		"pages", stats["pages_fetched"],
		"failures", stats["fetch_failures"],
		"skipped", stats["records_skipped"],
	)

	fmt.Printf("Harvested %d records in %s → %s\n", len(records), elapsed.Round(time.Millisecond), cfg.Storage.OutputPath)
	return nil
}

// downloadHarvestImages re-locates items for their image URLs and fetches
// them. Image URLs live in the sitemap entries, not in the records.
func downloadHarvestImages(ctx context.Context, cfg *config.Config, driver *harvest.Driver, logger *slog.Logger, rootURL string) error {
	images, err := driver.LocateImages(ctx, rootURL)
	if err != nil {
		return err
	}
	if len(images) == 0 {
		return nil
	}
	dl, err := media.NewDownloader(cfg.Media.OutputDir, cfg.Media.MaxSizeMB, cfg.Media.Concurrency, logger)
	if err != nil {
		return err
	}
	results := dl.DownloadAll(ctx, images)
	driver.Metrics().ImagesFetched.Add(int64(len(results)))
	logger.Info("images downloaded", "count", len(results), "dir", cfg.Media.OutputDir)
	return nil
}

// catalogCmd creates the "catalog" subcommand.
func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Harvest stat pages listed in a local catalog JSON",
		Long:  "Read a catalog JSON of {title, type, permalink} entries, extract each page's stat widget, store rows in SQLite and optionally download images.",
		RunE:  runCatalog,
	}

	cmd.Flags().StringVarP(&catalogPath, "input", "i", "whiskey.json", "catalog JSON path")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "also write records as JSON to this path")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "n", 0, "stat-page workers (1 = sequential)")
	cmd.Flags().IntVarP(&maxItems, "max-items", "m", 0, "cap on stat pages fetched (0 = unlimited)")
	cmd.Flags().StringVar(&failurePolicy, "failure-policy", "", "abort or skip")
	cmd.Flags().BoolVar(&withImages, "images", false, "download product images")

	return cmd
}

// runCatalog executes the catalog command.
func runCatalog(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.Storage.SQLite.Path = dbPath
	}

	f, err := newFetcher(cfg, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer f.Close()

	driver, err := harvest.New(cfg, f, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	records, err := driver.RunCatalog(ctx, catalogPath)
	if err != nil {
		return fmt.Errorf("catalog harvest failed: %w", err)
	}

	if outputPath != "" {
		if err := storage.WriteStatsJSON(outputPath, records); err != nil {
			return err
		}
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.SQLite.Path, logger)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	images, err := store.StoreCatalog(records)
	if err != nil {
		store.Close()
		return err
	}
	if err := store.Close(); err != nil {
		return err
	}

	if (withImages || cfg.Media.Enabled) && len(images) > 0 {
		dl, err := media.NewDownloader(cfg.Media.OutputDir, cfg.Media.MaxSizeMB, cfg.Media.Concurrency, logger)
		if err != nil {
			return err
		}
		results := dl.DownloadAll(ctx, images)
		driver.Metrics().ImagesFetched.Add(int64(len(results)))
		logger.Info("images downloaded", "count", len(results), "dir", cfg.Media.OutputDir)
	}

	fmt.Printf("Harvested %d stat records in %s → %s\n", len(records), time.Since(start).Round(time.Millisecond), cfg.Storage.SQLite.Path)
	return nil
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("spiritdex %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Printf("Harvest:\n")
			fmt.Printf("  Root Sitemap URL:  %s\n", cfg.Harvest.RootSitemapURL)
			fmt.Printf("  Listing Pattern:   %s\n", cfg.Harvest.ListingPattern)
			fmt.Printf("  Expand All:        %v\n", cfg.Harvest.ExpandAll)
			fmt.Printf("  Concurrency:       %d\n", cfg.Harvest.Concurrency)
			fmt.Printf("  Failure Policy:    %s\n", cfg.Harvest.FailurePolicy)
			fmt.Printf("  Max Items:         %d\n", cfg.Harvest.MaxItems)
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Type:              %s\n", cfg.Fetcher.Type)
			fmt.Printf("  Request Timeout:   %s\n", cfg.Fetcher.RequestTimeout)
			fmt.Printf("  Follow Redirects:  %v\n", cfg.Fetcher.FollowRedirects)
			fmt.Printf("  Max Body Size:     %d bytes\n", cfg.Fetcher.MaxBodySize)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Type:              %s\n", cfg.Storage.Type)
			fmt.Printf("  Output Path:       %s\n", cfg.Storage.OutputPath)
			fmt.Printf("  SQLite Path:       %s\n", cfg.Storage.SQLite.Path)
			fmt.Printf("\nMedia:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Media.Enabled)
			fmt.Printf("  Output Dir:        %s\n", cfg.Media.OutputDir)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:              %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}

// loadConfig loads configuration, applies CLI overrides and builds the logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, setupLogger(cfg), nil
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if outputPath != "" {
		cfg.Storage.OutputPath = outputPath
	}
	if outputType != "" {
		cfg.Storage.Type = outputType
	}
	if fetcherType != "" {
		cfg.Fetcher.Type = fetcherType
	}
	if expandAll {
		cfg.Harvest.ExpandAll = true
	}
	if concurrency > 0 {
		cfg.Harvest.Concurrency = concurrency
	}
	if maxItems > 0 {
		cfg.Harvest.MaxItems = maxItems
	}
	if failurePolicy != "" {
		cfg.Harvest.FailurePolicy = failurePolicy
	}
	if pattern != "" {
		cfg.Harvest.ListingPattern = pattern
	}
	if timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.Fetcher.RequestTimeout = d
		}
	}
	if withImages {
		cfg.Media.Enabled = true
	}
}

// newFetcher builds the configured fetcher implementation.
func newFetcher(cfg *config.Config, logger *slog.Logger) (fetcher.Fetcher, error) {
	if cfg.Fetcher.Type == "browser" {
		return fetcher.NewBrowserFetcher(cfg, logger)
	}
	return fetcher.NewHTTPFetcher(cfg, logger)
}

// setupLogger creates a structured logger.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
