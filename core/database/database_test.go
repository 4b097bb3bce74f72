package database

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

func TestConfigNormalizeDefaults(t *testing.T) {
	cfg := Config{Name: "scripts"}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.RetryInterval() != 5*time.Second {
		t.Fatalf("retry interval = %v", cfg.RetryInterval())
	}
	if cfg.Port != "5432" || cfg.SSLMode != "disable" || cfg.MaxConnections != 10 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := (&Config{}).Normalize(); err == nil {
		t.Fatal("expected error for missing database name")
	}
}

func TestConfigURLEscapesCredentials(t *testing.T) {
	cfg := Config{User: "bot", Password: "p@ss word", Host: "db", Port: "5432", Name: "scripts", SSLMode: "disable"}
	got := cfg.URL()
	if !strings.HasPrefix(got, "postgres://bot:p%40ss%20word@db:5432/scripts") {
		t.Fatalf("url = %s", got)
	}
	if !strings.Contains(cfg.DSN(), "dbname=scripts") {
		t.Fatalf("dsn = %s", cfg.DSN())
	}
}

func TestWaitForPostgresRetriesUntilReady(t *testing.T) {
	cfg := Config{Name: "scripts", RetryIntervalSeconds: 1}
	calls := 0
	ping := func(context.Context, string) error {
		calls++
		if calls < 2 {
			return errors.New("connection refused")
		}
		return nil
	}
	if err := WaitForPostgres(context.Background(), cfg, ping); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestWaitForPostgresStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WaitForPostgres(ctx, Config{RetryIntervalSeconds: 1}, func(context.Context, string) error {
		return errors.New("down")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestListAndSelectApplied(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/0002_scripts.up.sql": {Data: []byte("--")},
		"migrations/0001_users.up.sql":   {Data: []byte("--")},
		"migrations/0001_users.down.sql": {Data: []byte("--")},
		"migrations/0003_tokens.up.sql":  {Data: []byte("--")},
	}
	files := listMigrationFiles(fsys, "migrations")
	if len(files) != 3 || files[0] != "0001_users.up.sql" {
		t.Fatalf("files = %v", files)
	}
	applied := selectApplied(files, 1, 3)
	if len(applied) != 2 || applied[0] != "0002_scripts.up.sql" {
		t.Fatalf("applied = %v", applied)
	}
	if selectApplied(files, 3, 3) != nil {
		t.Fatal("expected nothing applied when version unchanged")
	}
}
