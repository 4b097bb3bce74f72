package bootstrap

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/scriptbot/core/config"
	coredatabase "github.com/m3rciful/scriptbot/core/database"
	"github.com/m3rciful/scriptbot/core/logger"
)

// Options control the generic bootstrap pipeline shared between bots.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config

	// Migrations holds *.up.sql files under MigrationsDir; nil skips migrating.
	Migrations    fs.FS
	MigrationsDir string

	LoggerInit func(*coreconfig.Config) error
	Wait       func(context.Context, coredatabase.Config) error
	Connect    func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config, fs.FS, string) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB *sqlx.DB
}

// Run initializes the logger, blocks until the database answers, connects
// and applies migrations. Only ctx cancellation ends the wait early.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	wait := opts.Wait
	if wait == nil {
		wait = func(ctx context.Context, cfg coredatabase.Config) error {
			return coredatabase.WaitForPostgres(ctx, cfg, nil)
		}
	}
	if err := wait(ctx, opts.Database); err != nil {
		return nil, fmt.Errorf("bootstrap: database not ready: %w", err)
	}

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(ctx, opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	if opts.Migrations != nil {
		migrate := opts.Migrate
		if migrate == nil {
			migrate = coredatabase.RunMigrations
		}
		if err := migrate(opts.Database, opts.Migrations, opts.MigrationsDir); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
	}

	return &Result{DB: db}, nil
}
