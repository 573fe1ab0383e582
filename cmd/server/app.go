package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/arxiv/zero/internal/config"
	"github.com/arxiv/zero/internal/platform/baz"
	"github.com/arxiv/zero/internal/platform/metrics"
	"github.com/arxiv/zero/internal/platform/postgres"
	"github.com/arxiv/zero/internal/platform/sqlite"
	"github.com/arxiv/zero/internal/service"
	"github.com/arxiv/zero/internal/service/auth"
	"github.com/arxiv/zero/internal/store"
	"github.com/arxiv/zero/internal/task"
	"github.com/prometheus/client_golang/prometheus"
)

// Supported values of task.backend.
const (
	taskBackendDatabase = "database"
	taskBackendMemory   = "memory"
)

// application holds the shared dependencies of the server so they can be
// built once and released together on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	thingStore  store.ThingStore
	resultStore task.ResultStore

	jwtService      auth.JWTService
	thingService    service.ThingService
	mutationService service.MutationService
	bazClient       *baz.Client

	taskRunner *task.Runner
}

// newApplication wires every dependency on top of an open database. The task
// runner is created but not started.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	var taskStore task.ResultStore
	switch cfg.Database.Driver {
	case driverSQLite:
		app.thingStore = sqlite.NewThingStore(db, logger)
		taskStore = sqlite.NewTaskStore(db, logger)
	case driverPostgres:
		app.thingStore = postgres.NewPostgresThingStore(db, logger)
		taskStore = postgres.NewPostgresTaskStore(db, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	switch cfg.Task.Backend {
	case taskBackendDatabase:
		app.resultStore = taskStore
	case taskBackendMemory:
		app.resultStore = task.NewMemoryResultStore()
	default:
		return nil, fmt.Errorf("unsupported task backend %q", cfg.Task.Backend)
	}

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	app.thingService, err = service.NewThingService(app.thingStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create thing service: %w", err)
	}

	app.taskRunner, err = setupTaskRunner(app)
	if err != nil {
		return nil, fmt.Errorf("failed to setup task runner: %w", err)
	}

	app.mutationService, err = service.NewMutationService(app.taskRunner, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create mutation service: %w", err)
	}

	app.bazClient = baz.New(baz.Config{
		BaseURL:    cfg.Baz.BaseURL,
		Param:      cfg.Baz.Param,
		Timeout:    cfg.Baz.Timeout,
		MaxRetries: cfg.Baz.MaxRetries,
		Logger:     logger,
	})

	logger.Info("application initialized",
		"database_driver", cfg.Database.Driver,
		"task_backend", cfg.Task.Backend)
	return app, nil
}

// setupTaskRunner creates the task runner and registers the mutation handler.
func setupTaskRunner(app *application) (*task.Runner, error) {
	runner := task.NewRunner(app.resultStore, task.RunnerConfig{
		WorkerCount:            app.config.Task.WorkerCount,
		QueueSize:              app.config.Task.QueueSize,
		StuckTaskAge:           app.config.Task.StuckTaskAge,
		StuckTaskCheckInterval: app.config.Task.StuckTaskCheckInterval,
	}, app.logger)

	mutation := task.NewThingMutationHandler(app.thingStore, app.thingService, nil, app.config.Task.MutationDelay, app.logger)
	if err := runner.Register(task.TypeThingMutation, mutation); err != nil {
		return nil, err
	}
	return runner, nil
}

// cleanup stops the runner and closes the database.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
