package database

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"log/slog"

	"github.com/m3rciful/wordbot/core/logger"
)

// RunMigrations applies all up migrations found in fsys under the directory
// named after the driver (for example "postgres/000001_x.up.sql").
func RunMigrations(db *sqlx.DB, driver string, fsys fs.FS) error {
	if db == nil {
		return fmt.Errorf("migrate: nil db")
	}

	files := listMigrationFiles(fsys, driver)
	logger.MIG.Debug("migrations resolved",
		slog.String("event", "resolve"),
		slog.String("driver", driver),
		slog.Int("files_total", len(files)),
		slog.String("files_preview", logger.Preview(files, 6)),
	)

	m, err := newMigrator(db, driver, fsys)
	if err != nil {
		logger.MIG.Error("init failed", slog.String("event", "db.migrate"), logger.Err(err))
		return err
	}

	fromVer, _, _ := m.Version()
	start := time.Now()
	upErr := m.Up()
	took := logger.Took(start)

	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		logger.MIG.Error("migration failed",
			slog.String("event", "apply"),
			slog.Duration("duration", took),
			logger.Err(upErr),
		)
		return fmt.Errorf("migration execution failed: %w", upErr)
	}

	toVer, _, _ := m.Version()
	applied := selectApplied(files, uint64(fromVer), uint64(toVer))
	logger.MIG.Info("migrations summary",
		slog.String("event", "summary"),
		slog.String("driver", driver),
		slog.Uint64("from_ver", uint64(fromVer)),
		slog.Uint64("to_ver", uint64(toVer)),
		slog.Int("files", len(applied)),
		slog.String("files_preview", logger.Preview(applied, 6)),
		slog.Duration("duration", took),
	)
	return nil
}

func newMigrator(db *sqlx.DB, driver string, fsys fs.FS) (*migrate.Migrate, error) {
	src, err := iofs.New(fsys, driver)
	if err != nil {
		return nil, fmt.Errorf("open migrations source: %w", err)
	}
	target, err := databaseDriver(db, driver)
	if err != nil {
		return nil, fmt.Errorf("open migrations target: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		return nil, fmt.Errorf("init migrations: %w", err)
	}
	return m, nil
}

// databaseDriver wraps the already opened pool; closing the migrate instance
// would close it, so callers must not call Close on the returned Migrate.
func databaseDriver(db *sqlx.DB, driver string) (database.Driver, error) {
	switch driver {
	case DriverPostgres:
		return postgres.WithInstance(db.DB, &postgres.Config{})
	case DriverSQLite:
		return sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	}
	return nil, fmt.Errorf("unsupported migration driver %q", driver)
}

func listMigrationFiles(fsys fs.FS, dir string) []string {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".up.sql") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func parseVersion(name string) uint64 {
	head, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(head, 10, 64)
	return v
}

func selectApplied(files []string, from, to uint64) []string {
	if to <= from {
		return nil
	}
	var out []string
	for _, f := range files {
		v := parseVersion(f)
		if v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}
