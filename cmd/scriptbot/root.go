package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/m3rciful/scriptbot/core/buildinfo"
	corecmd "github.com/m3rciful/scriptbot/core/cmd"
	"github.com/m3rciful/scriptbot/core/logger"
	"github.com/m3rciful/scriptbot/internal/app"
)

const (
	configEnvVar      = "CONFIG_PATH"
	defaultConfigPath = "config.yaml"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "scriptbot",
		Short:        "Telegram bot for the Lua script marketplace",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().String("config", "", "Config file path (defaults to $CONFIG_PATH, then config.yaml).")

	cmd.AddCommand(newRunCmd(), newMigrateCmd(), newVersionCmd())
	return cmd
}

func configFlag(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Wait for the database, migrate it and serve Telegram updates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return corecmd.Run(corecmd.Options{
				ConfigPath:        configFlag(cmd),
				ConfigEnvVar:      configEnvVar,
				DefaultConfigPath: defaultConfigPath,
				LoadConfig:        app.LoadConfigCarrier,
				Bootstrap:         app.Bootstrap,
			})
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := corecmd.ResolveConfigPath(configFlag(cmd), configEnvVar, defaultConfigPath)
			if err != nil {
				return err
			}
			cfg, err := app.LoadConfig(path)
			if err != nil {
				return err
			}
			if err := logger.InitLogger(&cfg.Config); err != nil {
				return err
			}
			defer func() { _ = logger.Shutdown() }()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return app.Migrate(ctx, cfg)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "scriptbot %s\n", strings.TrimSpace(buildinfo.Version))
			if c := strings.TrimSpace(buildinfo.Commit); c != "" && c != "local" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", c)
			}
			if d := strings.TrimSpace(buildinfo.Date); d != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "date: %s\n", d)
			}
			return nil
		},
	}
}
