package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	coreconfig "github.com/m3rciful/scriptbot/core/config"
)

func TestSelectLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info+2":  slog.LevelInfo + 2,
		"loud":    slog.LevelInfo,
	}
	for raw, want := range cases {
		cfg := &coreconfig.Config{Logging: coreconfig.LoggingConfig{Level: raw}}
		if got := selectLevel(cfg); got != want {
			t.Fatalf("selectLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestSelectFormatFollowsProfile(t *testing.T) {
	cfg := &coreconfig.Config{Logging: coreconfig.LoggingConfig{Profile: "Debug"}}
	if got := selectFormat(cfg); got != formatKV {
		t.Fatalf("debug profile format = %s", got)
	}
	cfg.Logging.Format = "json"
	if got := selectFormat(cfg); got != formatJSON {
		t.Fatalf("explicit format = %s", got)
	}
}

func TestSelectKeyOrder(t *testing.T) {
	cfg := &coreconfig.Config{Logging: coreconfig.LoggingConfig{KeysOrder: "ts, event,,level"}}
	got := selectKeyOrder(cfg)
	if len(got) != 3 || got[0] != "ts" || got[1] != "event" || got[2] != "level" {
		t.Fatalf("order = %v", got)
	}
	cfg.Logging.KeysOrder = "default"
	if got := selectKeyOrder(cfg); len(got) != len(defaultKeyOrder) {
		t.Fatalf("default order len = %d", len(got))
	}
}

func TestBuildOutputsFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	cfg := &coreconfig.Config{Logging: coreconfig.LoggingConfig{Dir: dir, BotFile: "bot.log"}}
	writers, closers, err := buildOutputs(cfg)
	if err != nil {
		t.Fatalf("buildOutputs: %v", err)
	}
	if len(writers) != 2 || len(closers) != 1 {
		t.Fatalf("writers=%d closers=%d", len(writers), len(closers))
	}
	for _, c := range closers {
		_ = c.Close()
	}
	if _, err := os.Stat(filepath.Join(dir, "bot.log")); err != nil {
		t.Fatalf("log file: %v", err)
	}
}

func TestBuildOutputsReportsBadDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := &coreconfig.Config{Logging: coreconfig.LoggingConfig{Dir: file, BotFile: "bot.log"}}
	if _, _, err := buildOutputs(cfg); err == nil {
		t.Fatal("expected error when the log dir is a file")
	}
}
