package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const (
	getSlotQuery = `SELECT value FROM ledger_slots WHERE slot_key = ?`
	setSlotQuery = `INSERT INTO ledger_slots (slot_key, value, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(slot_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
)

// Repository is a Store backed by a single SQLite table of key/value slots.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Get implements store.Store
func (r *Repository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, getSlotQuery, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get slot %q: %w", key, err)
	}
	return value, true, nil
}

// Set implements store.Store
func (r *Repository) Set(ctx context.Context, key, value string) error {
	if _, err := r.db.ExecContext(ctx, setSlotQuery, key, value); err != nil {
		return fmt.Errorf("set slot %q: %w", key, err)
	}
	slog.DebugContext(ctx, "Ledger slot saved to SQLite", "storage_key", key, "bytes", len(value))
	return nil
}
