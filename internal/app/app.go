// Package app assembles the script marketplace bot from its parts.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/scriptbot/core/bootstrap"
	corecmd "github.com/m3rciful/scriptbot/core/cmd"
	coredatabase "github.com/m3rciful/scriptbot/core/database"
	"github.com/m3rciful/scriptbot/core/logger"
	tg "github.com/m3rciful/scriptbot/core/telegram"
	"github.com/m3rciful/scriptbot/core/telegram/router"
	"github.com/m3rciful/scriptbot/core/telegram/state"
	"github.com/m3rciful/scriptbot/internal/bot"
	"github.com/m3rciful/scriptbot/internal/marketplace"
	"github.com/m3rciful/scriptbot/internal/moderation"
	"github.com/m3rciful/scriptbot/internal/storage"
)

// App owns the database handle and the in-memory stores.
type App struct {
	cfg      *Config
	db       *sqlx.DB
	awaiter  *state.Awaiter
	queue    *moderation.Queue
	bot      *bot.Bot
	registry *tg.Registry
}

// LoadConfigCarrier adapts LoadConfig to the runner.
func LoadConfigCarrier(path string) (corecmd.ConfigCarrier, error) {
	return LoadConfig(path)
}

// Bootstrap waits for the database, migrates it and builds the App.
func Bootstrap(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:        &cfg.Config,
		Database:      cfg.Database,
		Migrations:    storage.Migrations,
		MigrationsDir: storage.MigrationsDir,
	})
	if err != nil {
		return nil, err
	}
	a, err := New(cfg, res.DB)
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}
	return a, nil
}

// Migrate waits for the database and applies pending migrations.
func Migrate(ctx context.Context, cfg *Config) error {
	if err := coredatabase.WaitForPostgres(ctx, cfg.Database, nil); err != nil {
		return err
	}
	return coredatabase.RunMigrations(cfg.Database, storage.Migrations, storage.MigrationsDir)
}

// New wires stores, queues and handlers on top of db.
func New(cfg *Config, db *sqlx.DB) (*App, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("app.New: config and database are required")
	}
	aw, err := state.NewAwaiter(state.Options{TTL: cfg.PendingTTL(), Capacity: cfg.Conversation.Capacity})
	if err != nil {
		return nil, err
	}
	q, err := moderation.NewQueue(moderation.Options{TTL: cfg.ModerationTTL(), Capacity: cfg.Moderation.Capacity})
	if err != nil {
		aw.Close()
		return nil, err
	}

	users := storage.NewUserRepository(db)
	scripts := storage.NewScriptRepository(db)
	b, err := bot.New(bot.Deps{
		Users:          users,
		Catalog:        scripts,
		Market:         marketplace.NewService(scripts, users, cfg.Marketplace.PageSize),
		Queue:          q,
		Awaiter:        aw,
		ReviewChat:     cfg.Moderation.ReviewChatID,
		IsAdmin:        cfg.Telegram.IsAdmin,
		MaxScriptBytes: cfg.Marketplace.MaxScriptBytes,
		Location:       cfg.Location(),
	})
	if err != nil {
		aw.Close()
		q.Close()
		return nil, err
	}

	reg := tg.NewRegistry()
	if err := b.Register(reg); err != nil {
		aw.Close()
		q.Close()
		return nil, err
	}
	return &App{cfg: cfg, db: db, awaiter: aw, queue: q, bot: b, registry: reg}, nil
}

// TelegramRunOptions returns the routes and hooks for the core runner.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		IsAdmin:       a.cfg.Telegram.IsAdmin,
		OnAdminReject: bot.DenyAdmin,
	})
	routes = append(routes, router.CallbackRoute(a.registry))
	routes = append(routes, router.InputRoutes(a.awaiter, a.registry)...)

	return tg.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(&a.cfg.Config, bot.RateLimited),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt tg.Runtime) error {
			a.bot.Attach(rt.Bot, rt.Bot, rt.Dispatcher)
			logger.LogEvent(ctx, logger.TWire, slog.LevelInfo, "app.wired",
				slog.Int("routes", len(routes)),
				slog.Int64("review_chat", a.cfg.Moderation.ReviewChatID),
			)
			return nil
		},
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			logger.LogEvent(ctx, logger.TWire, slog.LevelInfo, "app.stopping",
				slog.Int("pending", a.awaiter.Len()),
				slog.Int("count", a.queue.Len()),
			)
			return nil
		},
	}, nil
}

// Close releases the in-memory stores and the database.
func (a *App) Close() error {
	a.awaiter.Close()
	a.queue.Close()
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("app.Close: %w", err)
	}
	return nil
}
