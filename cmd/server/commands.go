package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/arxiv/zero/internal/platform/migrations"
	"github.com/arxiv/zero/internal/service/auth"
	"github.com/spf13/cobra"
)

func migrationCommands() []string {
	return migrations.Commands
}

// runServe runs the server until SIGINT or SIGTERM.
func runServe(ctx context.Context, flags *GlobalFlags) error {
	cfg, err := loadAppConfig(flags.ConfigPath)
	if err != nil {
		return err
	}

	logger, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}
	logConfig(logger, cfg)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, src, err := setupAppDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}

	if cfg.Database.AutoMigrate {
		if err := migrations.Run(ctx, db, src, migrations.CommandUp, logger); err != nil {
			_ = db.Close()
			return err
		}
	}

	app, err := newApplication(cfg, logger, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}

// runMigrate runs one migration command against the configured database.
func runMigrate(ctx context.Context, flags *GlobalFlags, command string) error {
	cfg, err := loadAppConfig(flags.ConfigPath)
	if err != nil {
		return err
	}

	logger, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}

	db, src, err := setupAppDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("error closing database connection", "error", err)
		}
	}()

	return migrations.Run(ctx, db, src, command, logger)
}

// runToken prints a signed token for flags.User. Nothing is logged, so the
// output can be captured by scripts.
func runToken(cmd *cobra.Command, globalFlags *GlobalFlags, flags *TokenFlags) error {
	cfg, err := loadAppConfig(globalFlags.ConfigPath)
	if err != nil {
		return err
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	token, err := jwtService.GenerateToken(cmd.Context(), flags.User, flags.Scopes)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}
