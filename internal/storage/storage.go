package storage

import (
	"fmt"
	"log/slog"

	"github.com/spiritdex/spiritdex/internal/config"
	"github.com/spiritdex/spiritdex/internal/types"
)

// Storage is the interface for all record sinks.
type Storage interface {
	// Store persists a batch of records.
	Store(records []types.Record) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// New creates the storage backend selected by cfg.Storage.Type.
func New(cfg *config.Config, logger *slog.Logger) (Storage, error) {
	switch cfg.Storage.Type {
	case "json":
		return NewJSONStorage(cfg.Storage.OutputPath, logger)
	case "jsonl":
		return NewJSONLStorage(cfg.Storage.OutputPath, logger)
	case "csv":
		return NewCSVStorage(cfg.Storage.OutputPath, logger)
	case "sqlite":
		return NewSQLiteStorage(cfg.Storage.SQLite.Path, logger)
	case "mongodb":
		return NewMongoStorage(cfg.Storage.Mongo.URI, cfg.Storage.Mongo.Database, cfg.Storage.Mongo.Collection, logger)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}
