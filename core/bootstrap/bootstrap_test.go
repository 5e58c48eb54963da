package bootstrap

import (
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"

	coreconfig "github.com/m3rciful/wordbot/core/config"
	coredatabase "github.com/m3rciful/wordbot/core/database"
)

func TestRunPipeline(t *testing.T) {
	t.Parallel()

	var migratedDriver string
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Driver: "sqlite", DSN: ":memory:"},
		Migrations: fstest.MapFS{},
		LoggerInit: func(*coreconfig.Config) error { return nil },
		Connect: func(cfg coredatabase.Config) (*sqlx.DB, error) {
			return sqlx.Open("sqlite3", cfg.DSN)
		},
		Migrate: func(_ *sqlx.DB, driver string, _ fs.FS) error {
			migratedDriver = driver
			return nil
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.DB.Close() })

	assert.Equal(t, coredatabase.DriverSQLite, res.Driver)
	assert.Equal(t, coredatabase.DriverSQLite, migratedDriver)
}

func TestRunStopsOnMigrationError(t *testing.T) {
	t.Parallel()

	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Driver: "sqlite3", DSN: ":memory:"},
		Migrations: fstest.MapFS{},
		LoggerInit: func(*coreconfig.Config) error { return nil },
		Connect: func(cfg coredatabase.Config) (*sqlx.DB, error) {
			return sqlx.Open("sqlite3", cfg.DSN)
		},
		Migrate: func(*sqlx.DB, string, fs.FS) error { return errors.New("bad schema") },
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrations failed")
}

func TestRunRequiresConfig(t *testing.T) {
	t.Parallel()

	_, err := Run(Options{})
	require.Error(t, err)
}
