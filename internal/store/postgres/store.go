package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	mpostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a Store backed by a Postgres table of key/value slots.
type Store struct {
	db *sql.DB
}

// Open connects to url, applies migrations and returns the store.
func Open(ctx context.Context, url string) (*Store, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return New(db), nil
}

// New wraps an already migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func runMigrations(db *sql.DB) error {
	driver, err := mpostgres.WithInstance(db, &mpostgres.Config{})
	if err != nil {
		return fmt.Errorf("create postgres driver: %w", err)
	}
	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", d, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (p *Store) Get(ctx context.Context, key string) (string, bool, error) {
	const query = `SELECT value FROM ledger_slots WHERE slot_key = $1`

	var value string
	err := p.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get slot %q: %w", key, err)
	}
	return value, true, nil
}

func (p *Store) Set(ctx context.Context, key, value string) error {
	const query = `INSERT INTO ledger_slots (slot_key, value, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (slot_key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	if _, err := p.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("set slot %q: %w", key, err)
	}
	return nil
}

func (p *Store) Close() error {
	return p.db.Close()
}
