package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/arxiv/zero/internal/domain"
	"github.com/arxiv/zero/internal/store"
)

// ThingService provides thing-related operations.
type ThingService interface {
	// CreateThing validates name and persists a new thing.
	CreateThing(ctx context.Context, name string) (domain.Thing, error)

	// GetThing retrieves a thing by id. Returns ErrThingNotFound when absent.
	GetThing(ctx context.Context, id int64) (domain.Thing, error)

	// UpdateThing persists changes to an existing thing. Returns an error
	// wrapping ErrIntegrityViolation when the thing has no id or is gone.
	UpdateThing(ctx context.Context, thing domain.Thing) error
}

type thingServiceImpl struct {
	things store.ThingStore
	logger *slog.Logger
}

var _ ThingService = (*thingServiceImpl)(nil)

// NewThingService creates a ThingService. It returns an error if things is nil.
func NewThingService(things store.ThingStore, logger *slog.Logger) (ThingService, error) {
	if things == nil {
		return nil, &ServiceError{Service: "thing", Operation: "create_service", Err: errors.New("thing store cannot be nil")}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &thingServiceImpl{
		things: things,
		logger: logger.With("component", "thing_service"),
	}, nil
}

func (s *thingServiceImpl) CreateThing(ctx context.Context, name string) (domain.Thing, error) {
	thing, err := domain.NewThing(name)
	if err != nil {
		return domain.Thing{}, err
	}

	created, err := s.things.Create(ctx, thing)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create thing", "error", err)
		return domain.Thing{}, NewServiceError("thing", "create_thing", err)
	}

	s.logger.InfoContext(ctx, "thing created", "thing_id", created.ID)
	return created, nil
}

func (s *thingServiceImpl) GetThing(ctx context.Context, id int64) (domain.Thing, error) {
	thing, err := s.things.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrThingNotFound) {
			return domain.Thing{}, ErrThingNotFound
		}
		s.logger.ErrorContext(ctx, "failed to get thing", "error", err, "thing_id", id)
		return domain.Thing{}, NewServiceError("thing", "get_thing", err)
	}
	return thing, nil
}

func (s *thingServiceImpl) UpdateThing(ctx context.Context, thing domain.Thing) error {
	err := s.things.Update(ctx, thing)
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrInvalidArgument) || errors.Is(err, store.ErrThingNotFound) {
		s.logger.WarnContext(ctx, "rejected update of missing thing", "error", err, "thing_id", thing.ID)
		return fmt.Errorf("%w: %w", ErrIntegrityViolation, err)
	}
	s.logger.ErrorContext(ctx, "failed to update thing", "error", err, "thing_id", thing.ID)
	return NewServiceError("thing", "update_thing", err)
}
