package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/arxiv/zero/internal/domain"
	"github.com/arxiv/zero/internal/platform/logger"
	"github.com/arxiv/zero/internal/store"
)

// PostgresThingStore implements store.ThingStore using a PostgreSQL database.
type PostgresThingStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresThingStore creates a new PostgreSQL implementation of store.ThingStore.
// If logger is nil, a default logger will be used.
func NewPostgresThingStore(db *sql.DB, logger *slog.Logger) *PostgresThingStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresThingStore{
		db:     db,
		logger: logger.With(slog.String("component", "thing_store")),
	}
}

var _ store.ThingStore = (*PostgresThingStore)(nil)

// Create implements store.ThingStore.Create.
func (s *PostgresThingStore) Create(ctx context.Context, thing domain.Thing) (domain.Thing, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if thing.IsPersisted() {
		return domain.Thing{}, fmt.Errorf("%w: thing already has id %d", store.ErrInvalidEntity, thing.ID)
	}
	if err := thing.Validate(); err != nil {
		log.Warn("thing validation failed during create", slog.String("error", err.Error()))
		return domain.Thing{}, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO things (name, created)
		VALUES ($1, $2)
		RETURNING id
	`
	var id int64
	if err := s.db.QueryRowContext(ctx, query, thing.Name, thing.Created.UTC()).Scan(&id); err != nil {
		mapped := MapError(err)
		log.Error("failed to create thing", slog.String("error", err.Error()))
		if errors.Is(mapped, store.ErrStorageUnavailable) || errors.Is(mapped, store.ErrPersistence) {
			return domain.Thing{}, mapped
		}
		return domain.Thing{}, fmt.Errorf("%w: %v", store.ErrPersistence, err)
	}

	thing.ID = id
	log.Info("thing created", slog.Int64("thing_id", id))
	return thing, nil
}

// GetByID implements store.ThingStore.GetByID.
func (s *PostgresThingStore) GetByID(ctx context.Context, id int64) (domain.Thing, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving thing by ID", slog.Int64("thing_id", id))

	query := `
		SELECT id, name, created
		FROM things
		WHERE id = $1
	`
	thing, err := scanThing(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("thing not found", slog.Int64("thing_id", id))
			return domain.Thing{}, store.ErrThingNotFound
		}
		log.Error("failed to get thing", slog.Int64("thing_id", id), slog.String("error", err.Error()))
		return domain.Thing{}, store.NewStoreError("thing", "get", "query failed", MapError(err))
	}
	return thing, nil
}

// Update implements store.ThingStore.Update. The row is locked while it is
// checked and written.
func (s *PostgresThingStore) Update(ctx context.Context, thing domain.Thing) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !thing.IsPersisted() {
		return fmt.Errorf("%w: thing has no id", store.ErrInvalidArgument)
	}
	if err := thing.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM things WHERE id = $1 FOR UPDATE`, thing.ID).Scan(&id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrThingNotFound
			}
			return MapError(err)
		}

		_, err = tx.ExecContext(ctx, `UPDATE things SET name = $1 WHERE id = $2`, thing.Name, thing.ID)
		return MapError(err)
	})
	if err != nil {
		if errors.Is(err, store.ErrThingNotFound) {
			log.Debug("thing not found for update", slog.Int64("thing_id", thing.ID))
			return err
		}
		log.Error("failed to update thing",
			slog.Int64("thing_id", thing.ID),
			slog.String("error", err.Error()))
		return store.NewStoreError("thing", "update", "write failed", MapError(err))
	}

	log.Debug("thing updated", slog.Int64("thing_id", thing.ID))
	return nil
}

func scanThing(row *sql.Row) (domain.Thing, error) {
	var thing domain.Thing
	if err := row.Scan(&thing.ID, &thing.Name, &thing.Created); err != nil {
		return domain.Thing{}, err
	}
	thing.Created = thing.Created.UTC()
	return thing, nil
}
