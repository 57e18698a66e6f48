package storage

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/spiritdex/spiritdex/internal/normalize"
	"github.com/spiritdex/spiritdex/internal/types"
)

// SQLiteStorage persists records to a local SQLite database.
type SQLiteStorage struct {
	db     *sql.DB
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewSQLiteStorage opens (or creates) the database at path and ensures the
// schema exists. WAL mode and a busy timeout keep concurrent writers from
// tripping over "database locked".
func NewSQLiteStorage(path string, logger *slog.Logger) (*SQLiteStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		logger: logger.With("component", "sqlite_storage"),
	}, nil
}

func createSchema(db *sql.DB) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS whisky (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  name TEXT,
	  category TEXT,
	  distillery TEXT,
	  stated_age TEXT,
	  cask_type TEXT,
	  strength TEXT,
	  abv REAL,
	  size TEXT,
	  barcode TEXT,
	  scraped_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_whisky_name ON whisky(name);

	CREATE TABLE IF NOT EXISTS whiskey_stats (
	  title TEXT NOT NULL,
	  type TEXT NOT NULL,
	  distiller TEXT NOT NULL,
	  bottler TEXT NOT NULL,
	  abv REAL NOT NULL,
	  age TEXT NOT NULL,
	  image_key TEXT NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

func (s *SQLiteStorage) Name() string { return "sqlite" }

// Store inserts harvest records into the whisky table. A nil field becomes
// SQL NULL; the numeric abv column is derived from the Strength string when
// one is present.
func (s *SQLiteStorage) Store(records []types.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	stmt, err := tx.Prepare(`INSERT INTO whisky
		(name, category, distillery, stated_age, cask_type, strength, abv, size, barcode)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	defer stmt.Close()

	for _, rec := range records {
		var abv any
		if rec.Strength != nil {
			if v, ok := normalize.NumericStrength(*rec.Strength); ok {
				abv = v
			}
		}
		if _, err := stmt.Exec(
			rec.Name, rec.Category, rec.Distillery, rec.StatedAge,
			rec.CaskType, rec.Strength, abv, rec.Size, rec.Barcode,
		); err != nil {
			tx.Rollback()
			return &types.StorageError{Backend: s.Name(), Err: err}
		}
		s.count++
	}

	if err := tx.Commit(); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	s.logger.Debug("records stored", "count", len(records), "total", s.count)
	return nil
}

// StoreCatalog inserts catalog-flow records into the whiskey_stats table.
// Rows missing any required column (distiller, bottler, age, ABV, image, or
// a parseable ABV number) are skipped, not failed: partial data in, complete
// rows out. It returns image-key→URL pairs for the rows actually inserted so
// the caller can download the images under their stored keys.
func (s *SQLiteStorage) StoreCatalog(records []types.StatRecord) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Err: err}
	}
	stmt, err := tx.Prepare(`INSERT INTO whiskey_stats
		(title, type, distiller, bottler, abv, age, image_key)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return nil, &types.StorageError{Backend: s.Name(), Err: err}
	}
	defer stmt.Close()

	images := make(map[string]string)
	skipped := 0
	for _, rec := range records {
		if rec.Distiller == nil || rec.Bottler == nil || rec.Age == nil || rec.ABV == nil || rec.Image == nil {
			skipped++
			continue
		}
		abv, ok := normalize.NumericStrength(*rec.ABV)
		if !ok {
			s.logger.Warn("unparseable ABV skipped", "title", rec.Title, "abv", *rec.ABV)
			skipped++
			continue
		}

		key := imageKey(*rec.Image)
		if _, err := stmt.Exec(rec.Title, rec.Type, *rec.Distiller, *rec.Bottler, abv, *rec.Age, key); err != nil {
			tx.Rollback()
			return nil, &types.StorageError{Backend: s.Name(), Err: err}
		}
		images[key] = *rec.Image
		s.count++
	}

	if err := tx.Commit(); err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Err: err}
	}

	s.logger.Info("catalog rows stored", "inserted", len(records)-skipped, "skipped", skipped)
	return images, nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	s.logger.Info("sqlite storage closing", "total_records", s.count)
	return s.db.Close()
}

// imageKey derives a stable content-addressed key for an image URL.
func imageKey(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:8])
}
