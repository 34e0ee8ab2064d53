package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/ngena"
	"github.com/aretw0/ngena/internal/config"
	"github.com/aretw0/ngena/internal/logging"
	"github.com/spf13/cobra"
)

// loadConfig reads --config and the environment, then builds the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(level, cfg.Logging.Format)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// openApp wires the application from the command's configuration.
func openApp(ctx context.Context, cmd *cobra.Command, opts ...ngena.Option) (*ngena.App, *config.Config, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := ensureDataDir(cfg); err != nil {
		return nil, nil, err
	}
	app, err := ngena.New(ctx, cfg, append([]ngena.Option{ngena.WithLogger(logger)}, opts...)...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize ngena: %w", err)
	}
	return app, cfg, nil
}

// ensureDataDir creates the directory of a file-backed SQLite database.
func ensureDataDir(cfg *config.Config) error {
	if cfg.Records.Driver != config.DriverSQLite {
		return nil
	}
	path, ok := strings.CutPrefix(cfg.Records.DSN, "file:")
	if !ok {
		return nil
	}
	path, _, _ = strings.Cut(path, "?")
	if path == "" || path == ":memory:" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
