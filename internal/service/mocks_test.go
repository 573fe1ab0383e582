package service

import (
	"context"

	"github.com/arxiv/zero/internal/domain"
	"github.com/arxiv/zero/internal/task"
	"github.com/stretchr/testify/mock"
)

// MockThingStore mocks the store.ThingStore interface
type MockThingStore struct {
	mock.Mock
}

func (m *MockThingStore) Create(ctx context.Context, thing domain.Thing) (domain.Thing, error) {
	args := m.Called(ctx, thing)
	return args.Get(0).(domain.Thing), args.Error(1)
}

func (m *MockThingStore) GetByID(ctx context.Context, id int64) (domain.Thing, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Thing), args.Error(1)
}

func (m *MockThingStore) Update(ctx context.Context, thing domain.Thing) error {
	args := m.Called(ctx, thing)
	return args.Error(0)
}

// MockTaskRunner mocks the TaskRunner interface
type MockTaskRunner struct {
	mock.Mock
}

func (m *MockTaskRunner) Submit(ctx context.Context, taskType string, payload any) (string, error) {
	args := m.Called(ctx, taskType, payload)
	return args.String(0), args.Error(1)
}

func (m *MockTaskRunner) Status(ctx context.Context, taskID string) (task.TaskState, error) {
	args := m.Called(ctx, taskID)
	return args.Get(0).(task.TaskState), args.Error(1)
}
