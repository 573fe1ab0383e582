package store

import (
	"context"

	"github.com/arxiv/zero/internal/domain"
)

// ThingStore defines the interface for thing data persistence.
//
// Implementations must be safe for concurrent use. Every method is its own
// unit of work; no lock or transaction outlives a call.
type ThingStore interface {
	// Create persists a new thing and returns a copy carrying the assigned ID.
	// Returns ErrInvalidEntity if the thing fails validation or already has an ID,
	// ErrStorageUnavailable on connectivity failures, and ErrPersistence for
	// any other rejected write.
	Create(ctx context.Context, thing domain.Thing) (domain.Thing, error)

	// GetByID retrieves a thing by its ID.
	// Returns ErrThingNotFound if the thing does not exist.
	GetByID(ctx context.Context, id int64) (domain.Thing, error)

	// Update overwrites the stored name of an existing thing.
	// Returns ErrInvalidArgument if thing.ID is zero, ErrThingNotFound if no
	// row has that ID, and ErrStorageUnavailable on operational failures.
	Update(ctx context.Context, thing domain.Thing) error
}
