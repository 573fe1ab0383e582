package mocks

import (
	"context"

	"github.com/arxiv/zero/internal/domain"
	"github.com/arxiv/zero/internal/service"
)

// MockThingService implements service.ThingService for testing
type MockThingService struct {
	CreateThingFn func(ctx context.Context, name string) (domain.Thing, error)
	GetThingFn    func(ctx context.Context, id int64) (domain.Thing, error)
	UpdateThingFn func(ctx context.Context, thing domain.Thing) error
}

var _ service.ThingService = (*MockThingService)(nil)

// CreateThing implements service.ThingService
func (m *MockThingService) CreateThing(ctx context.Context, name string) (domain.Thing, error) {
	if m.CreateThingFn != nil {
		return m.CreateThingFn(ctx, name)
	}
	return domain.Thing{}, nil
}

// GetThing implements service.ThingService
func (m *MockThingService) GetThing(ctx context.Context, id int64) (domain.Thing, error) {
	if m.GetThingFn != nil {
		return m.GetThingFn(ctx, id)
	}
	return domain.Thing{}, nil
}

// UpdateThing implements service.ThingService
func (m *MockThingService) UpdateThing(ctx context.Context, thing domain.Thing) error {
	if m.UpdateThingFn != nil {
		return m.UpdateThingFn(ctx, thing)
	}
	return nil
}
