package main

import (
	"fmt"
	"log/slog"

	"github.com/arxiv/zero/internal/config"
)

// loadAppConfig loads configuration from path, or from the environment and
// ./config.yaml when path is empty.
func loadAppConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// logConfig records the loaded settings without their secrets.
func logConfig(logger *slog.Logger, cfg *config.Config) {
	logger.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"database_driver", cfg.Database.Driver,
		"task_backend", cfg.Task.Backend,
		"worker_count", cfg.Task.WorkerCount)
	logger.Debug("auth configuration",
		"jwt_secret_present", cfg.Auth.JWTSecret != "",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)
}
