// Package database connects to Postgres and keeps its schema up to date.
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// driverName is the database/sql driver registered by pgx.
const driverName = "pgx"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, dsn string, pingTimeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("error in sql.Open call: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error in db.PingContext call: %w", err)
	}

	return db, nil
}

// Migrate applies every pending migration on its own connection.
func Migrate(ctx context.Context, dsn string, pingTimeout time.Duration) error {
	db, err := Open(ctx, dsn, pingTimeout)
	if err != nil {
		return fmt.Errorf("error in Open call: %w", err)
	}

	m, err := newMigrate(db)
	if err != nil {
		_ = db.Close()
		return err
	}
	// This closes the database too.
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error in migrate.Up call: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("error in migrate.Version call: %w", err)
	}

	slog.InfoContext(ctx, "database schema is up to date", "version", version, "dirty", dirty)
	return nil
}

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("error in iofs.New call: %w", err)
	}

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return nil, fmt.Errorf("error in pgxmigrate.WithInstance call: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		return nil, fmt.Errorf("error in migrate.NewWithInstance call: %w", err)
	}
	return m, nil
}
