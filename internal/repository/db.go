package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// Config holds the sqlite connection settings for the document store.
type Config struct {
	Path        string
	BusyTimeout time.Duration
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id INTEGER PRIMARY KEY,
	raw_text TEXT NOT NULL,
	doc_type TEXT NOT NULL DEFAULT '',
	doc_number TEXT NOT NULL DEFAULT '',
	full_name TEXT NOT NULL DEFAULT '',
	date_of_birth TEXT NOT NULL DEFAULT '',
	issue_date TEXT NOT NULL DEFAULT '',
	expiry_date TEXT NOT NULL DEFAULT '',
	date_added TEXT NOT NULL,
	last_modified TEXT NOT NULL,
	verification_status TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id INTEGER NOT NULL,
	action TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	actor TEXT NOT NULL,
	details TEXT NOT NULL
);
`

// Open opens or creates the sqlite database at cfg.Path and ensures the
// schema exists. Existing rows are never dropped on startup; the store is
// opened once and owns the handle for the lifetime of the process.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	logger.Info("opening document store", "path", cfg.Path)

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
		cfg.Path, busy.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to open document store", "path", cfg.Path, "error", err)
		return nil, err
	}
	// Single connection keeps every row+audit transaction serialized.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		logger.Error("failed to ping document store", "path", cfg.Path, "error", err)
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		logger.Error("failed to ensure schema", "path", cfg.Path, "error", err)
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	logger.Info("document store ready", "path", cfg.Path)
	return db, nil
}

// Close closes the store handle gracefully.
func Close(db *sql.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := db.Close(); err != nil {
		logger.Error("failed to close document store", "error", err)
		return
	}
	logger.Info("document store closed")
}
