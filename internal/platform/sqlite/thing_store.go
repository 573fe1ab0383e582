package sqlite

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

// ThingStore implements store.ThingStore on SQLite.
type ThingStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewThingStore creates a ThingStore. If logger is nil, a default logger is used.
func NewThingStore(db *sql.DB, logger *slog.Logger) *ThingStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ThingStore{
		db:     db,
		logger: logger.With(slog.String("component", "thing_store")),
	}
}

var _ store.ThingStore = (*ThingStore)(nil)

// Create implements store.ThingStore.Create.
func (s *ThingStore) Create(ctx context.Context, thing domain.Thing) (domain.Thing, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if thing.IsPersisted() {
		return domain.Thing{}, fmt.Errorf("%w: thing already has id %d", store.ErrInvalidEntity, thing.ID)
	}
	if err := thing.Validate(); err != nil {
		return domain.Thing{}, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO things (name, created) VALUES (?, ?)`,
		thing.Name, thing.Created.UTC())
	if err == nil {
		thing.ID, err = res.LastInsertId()
	}
	if err != nil {
		log.Error("failed to create thing", slog.String("error", err.Error()))
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrStorageUnavailable) || errors.Is(mapped, store.ErrPersistence) {
			return domain.Thing{}, mapped
		}
		return domain.Thing{}, fmt.Errorf("%w: %v", store.ErrPersistence, err)
	}

	log.Info("thing created", slog.Int64("thing_id", thing.ID))
	return thing, nil
}

// GetByID implements store.ThingStore.GetByID.
func (s *ThingStore) GetByID(ctx context.Context, id int64) (domain.Thing, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var thing domain.Thing
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created FROM things WHERE id = ?`, id).
		Scan(&thing.ID, &thing.Name, &thing.Created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Thing{}, store.ErrThingNotFound
		}
		log.Error("failed to get thing", slog.Int64("thing_id", id), slog.String("error", err.Error()))
		return domain.Thing{}, store.NewStoreError("thing", "get", "query failed", MapError(err))
	}
	thing.Created = thing.Created.UTC()
	return thing, nil
}

// Update implements store.ThingStore.Update.
func (s *ThingStore) Update(ctx context.Context, thing domain.Thing) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !thing.IsPersisted() {
		return fmt.Errorf("%w: thing has no id", store.ErrInvalidArgument)
	}
	if err := thing.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM things WHERE id = ?`, thing.ID).Scan(&id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrThingNotFound
			}
			return MapError(err)
		}
		_, err = tx.ExecContext(ctx, `UPDATE things SET name = ? WHERE id = ?`, thing.Name, thing.ID)
		return MapError(err)
	})
	if err != nil {
		if errors.Is(err, store.ErrThingNotFound) {
			return err
		}
		log.Error("failed to update thing",
			slog.Int64("thing_id", thing.ID),
			slog.String("error", err.Error()))
		return store.NewStoreError("thing", "update", "write failed", MapError(err))
	}
	return nil
}
