// Package database keeps household documents in SQLite.
package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// connPragmas apply to every connection the driver opens.
const connPragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// DB wraps the SQLite handle shared by the stores.
type DB struct {
	SQL  *sql.DB
	path string
}

// NewDB creates the file's directory, brings the schema up to date and opens
// a single-connection pool over it.
func NewDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	if err := RunMigrations(path); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path+connPragmas)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &DB{SQL: conn, path: path}, nil
}

func (d *DB) Close() error {
	return d.SQL.Close()
}

// SchemaVersion reports the last applied migration. Zero means none.
func (d *DB) SchemaVersion() (uint, error) {
	m, err := newMigrator(d.path)
	if err != nil {
		return 0, err
	}
	defer m.Close()

	v, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	case dirty:
		return v, fmt.Errorf("schema version %d is dirty", v)
	}
	return v, nil
}

// RunMigrations applies every pending migration to the database at path.
func RunMigrations(path string) error {
	m, err := newMigrator(path)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	slog.Debug("Database schema up to date", "path", path)
	return nil
}

func newMigrator(path string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite://"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}
