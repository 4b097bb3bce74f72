package bootstrap

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/scriptbot/core/config"
	coredatabase "github.com/m3rciful/scriptbot/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunOrder(t *testing.T) {
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	mock.ExpectClose()

	var steps []string
	res, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Wait: func(context.Context, coredatabase.Config) error {
			steps = append(steps, "wait")
			return nil
		},
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			steps = append(steps, "connect")
			return sqlx.NewDb(raw, "postgres"), nil
		},
		Migrations:    fstest.MapFS{},
		MigrationsDir: "migrations",
		Migrate: func(_ coredatabase.Config, _ fs.FS, dir string) error {
			steps = append(steps, "migrate:"+dir)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []string{"wait", "connect", "migrate:migrations"}
	if len(steps) != len(want) {
		t.Fatalf("steps = %v", steps)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Fatalf("steps = %v, want %v", steps, want)
		}
	}
	if err := res.DB.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestRunStopsWhenWaitFails(t *testing.T) {
	connected := false
	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Wait: func(context.Context, coredatabase.Config) error {
			return context.Canceled
		},
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			connected = true
			return nil, nil
		},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if connected {
		t.Fatal("must not connect before the database is ready")
	}
}

func TestRunClosesDBWhenMigrationFails(t *testing.T) {
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	mock.ExpectClose()

	_, err = Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Wait:       func(context.Context, coredatabase.Config) error { return nil },
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			return sqlx.NewDb(raw, "postgres"), nil
		},
		Migrations: fstest.MapFS{},
		Migrate: func(coredatabase.Config, fs.FS, string) error {
			return errors.New("dirty")
		},
	})
	if err == nil {
		t.Fatal("expected migration error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("db not closed: %v", err)
	}
}
