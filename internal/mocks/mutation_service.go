package mocks

import (
	"context"

	"github.com/arxiv/zero/internal/service"
)

// MockMutationService implements service.MutationService for testing
type MockMutationService struct {
	RequestMutationFn func(ctx context.Context, thingID int64) (string, error)
	MutationStatusFn  func(ctx context.Context, taskID string) (service.MutationStatus, error)
}

var _ service.MutationService = (*MockMutationService)(nil)

// RequestMutation implements service.MutationService
func (m *MockMutationService) RequestMutation(ctx context.Context, thingID int64) (string, error) {
	if m.RequestMutationFn != nil {
		return m.RequestMutationFn(ctx, thingID)
	}
	return "", nil
}

// MutationStatus implements service.MutationService
func (m *MockMutationService) MutationStatus(ctx context.Context, taskID string) (service.MutationStatus, error) {
	if m.MutationStatusFn != nil {
		return m.MutationStatusFn(ctx, taskID)
	}
	return service.MutationStatus{}, nil
}
