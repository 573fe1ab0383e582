package mocks

import (
	"context"

	"github.com/arxiv/zero/internal/domain"
)

// MockBazRetriever implements api.BazRetriever for testing
type MockBazRetriever struct {
	RetrieveBazFn func(ctx context.Context, id int64) (domain.Baz, error)
}

// RetrieveBaz returns the result of RetrieveBazFn, or a zero Baz.
func (m *MockBazRetriever) RetrieveBaz(ctx context.Context, id int64) (domain.Baz, error) {
	if m.RetrieveBazFn != nil {
		return m.RetrieveBazFn(ctx, id)
	}
	return domain.Baz{}, nil
}
