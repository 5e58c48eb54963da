package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"log/slog"

	"github.com/m3rciful/wordbot/core/logger"
)

const (
	connectAttemptTimeout = 5 * time.Second
	connectRetryDelay     = 2 * time.Second
	defaultReadyTimeout   = 30 * time.Second
)

// Connect opens the database connection, waits until it answers pings,
// configures the pool and returns it.
func Connect(cfg Config) (*sqlx.DB, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}

	start := time.Now()
	db, err := waitReady(cfg, defaultReadyTimeout)
	took := time.Since(start)
	if err != nil {
		logger.DB.Error("db connect failed",
			slog.String("event", "db.connect"),
			slog.String("driver", cfg.Driver),
			slog.String("db", cfg.Target()),
			slog.Duration("duration", logger.RoundMS(took)),
			logger.Err(err),
		)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)
	logger.DB.Debug("db pool configured",
		slog.String("event", "db.pool"),
		slog.Int("pool_open", cfg.MaxConnections),
	)

	logger.DB.Info("db connected",
		slog.String("event", "db.connect"),
		slog.String("driver", cfg.Driver),
		slog.String("db", cfg.Target()),
		slog.Int("pool_open", cfg.MaxConnections),
		slog.Duration("duration", logger.RoundMS(took)),
	)
	return db, nil
}

// waitReady retries connect+ping until the database is ready or timeout is reached.
func waitReady(cfg Config, timeout time.Duration) (*sqlx.DB, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), connectAttemptTimeout)
		db, err := sqlx.ConnectContext(ctx, cfg.DriverName(), cfg.ConnString())
		cancel()
		if err == nil {
			return db, nil
		}
		lastErr = err
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timeout reached waiting for database after %d attempts: %w", attempt, lastErr)
		}
		logger.DB.Debug("db not ready",
			slog.String("event", "db.wait"),
			slog.Int("attempts", attempt),
			logger.Err(err),
		)
		time.Sleep(connectRetryDelay)
	}
}
