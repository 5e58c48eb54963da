// Package bootstrap brings up the infrastructure a bot needs before it
// starts serving updates.
package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/wordbot/core/config"
	coredatabase "github.com/m3rciful/wordbot/core/database"
	"github.com/m3rciful/wordbot/core/logger"
)

// Options configure Run. The function fields default to the core
// implementations and exist for tests.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config
	// Migrations holds one directory per driver; nil skips migrations.
	Migrations fs.FS

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(db *sqlx.DB, driver string, fsys fs.FS) error
}

func (o *Options) fillDefaults() {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.RunMigrations
	}
}

// Result is the initialized infrastructure. The caller owns DB.
type Result struct {
	DB     *sqlx.DB
	Driver string
}

// Run initializes logging, opens the database and applies migrations, in
// that order. The database is closed again if migrations fail.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}
	opts.fillDefaults()
	started := time.Now()

	if err := opts.LoggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	dbCfg := opts.Database
	if err := dbCfg.Normalize(); err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	db, err := opts.Connect(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	if opts.Migrations != nil {
		if err := opts.Migrate(db, dbCfg.Driver, opts.Migrations); err != nil {
			return nil, errors.Join(
				fmt.Errorf("bootstrap: migrations failed: %w", err),
				db.Close(),
			)
		}
	}

	logger.DB.Info("infrastructure ready",
		slog.String("event", "bootstrap.done"),
		slog.String("driver", dbCfg.Driver),
		slog.Bool("migrated", opts.Migrations != nil),
		slog.Duration("duration", logger.Took(started)),
	)
	return &Result{DB: db, Driver: dbCfg.Driver}, nil
}
