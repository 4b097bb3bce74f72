package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/scriptbot/core/logger"
)

// Connect opens the database connection, configures the pool, and verifies connectivity.
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	sqlxDB, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	took := time.Since(start)
	if err != nil {
		logger.DB.Error("db connect failed",
			slog.String("event", "db.connect"),
			slog.String("host", cfg.Host),
			slog.String("port", cfg.Port),
			slog.String("db", cfg.Name),
			slog.Duration("duration", logger.RoundMS(took)),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	sqlxDB.SetMaxOpenConns(cfg.MaxConnections)
	sqlxDB.SetMaxIdleConns(cfg.MaxConnections)

	logger.DB.Info("db connected",
		slog.String("event", "db.connect"),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
		slog.Int("pool_open", cfg.MaxConnections),
		slog.Duration("duration", logger.RoundMS(took)),
	)
	return sqlxDB, nil
}

// Pinger opens a short-lived handle and checks it responds.
type Pinger func(ctx context.Context, dsn string) error

// PingPostgres is the default Pinger backed by lib/pq.
func PingPostgres(ctx context.Context, dsn string) error {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.PingContext(ctx)
}

// WaitForPostgres probes the database every interval until it answers or ctx ends.
// Every failed attempt is logged; there is no attempt limit.
func WaitForPostgres(ctx context.Context, cfg Config, ping Pinger) error {
	if ping == nil {
		ping = PingPostgres
	}
	interval := cfg.RetryInterval()
	for attempt := 1; ; attempt++ {
		probeCtx, cancel := context.WithTimeout(ctx, interval)
		err := ping(probeCtx, cfg.DSN())
		cancel()
		if err == nil {
			if attempt > 1 {
				logger.DB.Info("db ready",
					slog.String("event", "db.wait"),
					slog.String("status", "ok"),
					slog.Int("attempts", attempt),
				)
			}
			return nil
		}
		logger.DB.Warn("db not ready",
			slog.String("event", "db.wait"),
			slog.String("status", "retry"),
			slog.Int("attempt", attempt),
			slog.Duration("retry_in", interval),
			slog.String("host", cfg.Host),
			slog.String("db", cfg.Name),
			slog.String("err", err.Error()),
		)
		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("waiting for database: %w", ctx.Err())
		case <-t.C:
		}
	}
}
