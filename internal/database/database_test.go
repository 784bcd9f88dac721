package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/require"
)

func TestMigrations(t *testing.T) {
	source, err := iofs.New(migrationsFS, "migrations")
	require.NoError(t, err, "Expected embedded migrations to form a valid source")
	defer func() { _ = source.Close() }()

	first, err := source.First()
	require.NoError(t, err, "Expected at least one migration")
	require.Equal(t, uint(1), first)

	// Every up migration must come with its down migration.
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)

	ups, downs := 0, 0
	for _, entry := range entries {
		switch {
		case strings.HasSuffix(entry.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(entry.Name(), ".down.sql"):
			downs++
		}
	}
	require.Equal(t, ups, downs, "Unbalanced migrations")
}

func TestMigrations_CreateRegistryTable(t *testing.T) {
	content, err := fs.ReadFile(migrationsFS, "migrations/000001_redirect_handlers.up.sql")
	require.NoError(t, err)
	require.Contains(t, string(content), "CREATE TABLE IF NOT EXISTS redirect_handlers")
}
