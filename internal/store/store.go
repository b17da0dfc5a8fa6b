package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hpungsan/mindprint/internal/config"
	"github.com/hpungsan/mindprint/internal/errors"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Store is the persona store: the durable repository of seller/buyer
// installation records, distilled cognition assets, and rental rows. It is
// the only component with shared mutable state; every operation is bounded
// by a timeout and safe for concurrent callers.
type Store struct {
	db      *sql.DB
	timeout time.Duration
}

// Open initializes the SQLite database at baseDir/mindprint.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.mindprint.
func Open(baseDir string, cfg *config.Config) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	dbPath := filepath.Join(baseDir, "mindprint.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return &Store{db: db, timeout: cfg.StoreTimeout()}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable. Used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

// opContext derives a bounded context for a single store operation.
func (s *Store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// mapStoreErr converts low-level failures into the store error taxonomy.
// Timeouts become retryable STORE_UNAVAILABLE; everything else is internal.
// The driver and database/sql wrap context errors, so unwrap when matching.
func mapStoreErr(err error) *errors.Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*errors.Error); ok {
		return e
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return errors.NewStoreUnavailable(err)
	}
	return errors.NewInternal(err)
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return fmt.Errorf("failed to get user_version: %w", err)
	}

	// Migration 0 -> 1: Initial schema (v1)
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS memory_data (
		  id           TEXT PRIMARY KEY,
		  file_path    TEXT NOT NULL,
		  content      TEXT NOT NULL,
		  content_hash TEXT NOT NULL,
		  scanned_at   INTEGER NOT NULL,
		  user_id      TEXT NOT NULL,
		  UNIQUE (file_path, content_hash)
		);

		CREATE INDEX IF NOT EXISTS idx_memory_data_user
		ON memory_data(user_id, scanned_at DESC);

		CREATE TABLE IF NOT EXISTS rentals (
		  token          TEXT PRIMARY KEY,
		  seller_user_id TEXT NOT NULL,
		  created_at     INTEGER NOT NULL,
		  expires_at     INTEGER,
		  revoked_at     INTEGER
		);

		CREATE INDEX IF NOT EXISTS idx_rentals_seller
		ON rentals(seller_user_id);

		CREATE TABLE IF NOT EXISTS sellers (
		  user_id          TEXT PRIMARY KEY,
		  host_fingerprint TEXT,
		  first_seen       INTEGER NOT NULL,
		  last_seen        INTEGER NOT NULL,
		  metadata_json    TEXT
		);

		CREATE TABLE IF NOT EXISTS buyers (
		  user_id          TEXT PRIMARY KEY,
		  host_fingerprint TEXT,
		  first_seen       INTEGER NOT NULL,
		  last_seen        INTEGER NOT NULL,
		  metadata_json    TEXT
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", 1)); err != nil {
			return fmt.Errorf("failed to set user_version: %w", err)
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}
