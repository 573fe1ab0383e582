package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/arxiv/zero/internal/domain"
	"github.com/arxiv/zero/internal/platform/logger"
	"github.com/arxiv/zero/internal/store"
	"github.com/arxiv/zero/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newThingService(t *testing.T, things *MockThingStore) ThingService {
	t.Helper()
	svc, err := NewThingService(things, logger.Discard())
	require.NoError(t, err)
	return svc
}

func TestNewThingService(t *testing.T) {
	t.Parallel()

	t.Run("nil store", func(t *testing.T) {
		t.Parallel()
		svc, err := NewThingService(nil, nil)
		assert.Nil(t, svc)
		assert.ErrorContains(t, err, "thing store cannot be nil")
	})

	t.Run("nil logger falls back to default", func(t *testing.T) {
		t.Parallel()
		svc, err := NewThingService(new(MockThingStore), nil)
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})
}

func TestThingService_CreateThing(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		things := new(MockThingStore)
		things.On("Create", mock.Anything, mock.MatchedBy(func(th domain.Thing) bool {
			return th.Name == "The Thing" && th.ID == 0 && !th.Created.IsZero()
		})).Return(domain.Thing{ID: 1, Name: "The Thing", Created: time.Now().UTC()}, nil)

		created, err := newThingService(t, things).CreateThing(context.Background(), "The Thing")
		require.NoError(t, err)
		assert.Equal(t, int64(1), created.ID)
		assert.Equal(t, "The Thing", created.Name)
		things.AssertExpectations(t)
	})

	t.Run("invalid name never reaches the store", func(t *testing.T) {
		t.Parallel()
		things := new(MockThingStore)

		_, err := newThingService(t, things).CreateThing(context.Background(), "")
		assert.ErrorIs(t, err, domain.ErrValidation)

		_, err = newThingService(t, things).CreateThing(context.Background(), strings.Repeat("x", 256))
		assert.ErrorIs(t, err, domain.ErrValidation)
		things.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("storage failure", func(t *testing.T) {
		t.Parallel()
		things := new(MockThingStore)
		things.On("Create", mock.Anything, mock.Anything).Return(domain.Thing{}, store.ErrStorageUnavailable)

		_, err := newThingService(t, things).CreateThing(context.Background(), "The Thing")
		var serviceErr *ServiceError
		assert.ErrorAs(t, err, &serviceErr)
		assert.ErrorIs(t, err, store.ErrStorageUnavailable)
	})
}

func TestThingService_GetThing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		storeErr error
		wantErr  error
	}{
		{name: "found"},
		{name: "not found", storeErr: store.ErrThingNotFound, wantErr: ErrThingNotFound},
		{name: "storage unavailable", storeErr: store.ErrStorageUnavailable, wantErr: store.ErrStorageUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			thing := domain.Thing{ID: 7, Name: "The Thing", Created: time.Now().UTC()}
			things := new(MockThingStore)
			if tt.storeErr != nil {
				things.On("GetByID", mock.Anything, int64(7)).Return(domain.Thing{}, tt.storeErr)
			} else {
				things.On("GetByID", mock.Anything, int64(7)).Return(thing, nil)
			}

			got, err := newThingService(t, things).GetThing(context.Background(), 7)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, thing, got)
		})
	}

	t.Run("not found hides the store error", func(t *testing.T) {
		t.Parallel()
		things := new(MockThingStore)
		things.On("GetByID", mock.Anything, int64(9)).Return(domain.Thing{}, store.ErrThingNotFound)

		_, err := newThingService(t, things).GetThing(context.Background(), 9)
		assert.False(t, errors.Is(err, store.ErrNotFound))
	})
}

func TestThingService_UpdateThing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		storeErr      error
		wantIntegrity bool
	}{
		{name: "success"},
		{name: "missing id", storeErr: store.ErrInvalidArgument, wantIntegrity: true},
		{name: "missing thing", storeErr: store.ErrThingNotFound, wantIntegrity: true},
		{name: "storage unavailable", storeErr: store.ErrStorageUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			thing := domain.Thing{ID: 3, Name: "The Thing1"}
			things := new(MockThingStore)
			things.On("Update", mock.Anything, thing).Return(tt.storeErr)

			err := newThingService(t, things).UpdateThing(context.Background(), thing)
			if tt.storeErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.storeErr)
			assert.Equal(t, tt.wantIntegrity, errors.Is(err, ErrIntegrityViolation))
		})
	}
}

func TestThingService_MutationUpdateOfVanishedThing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	thing := domain.Thing{ID: 5, Name: "The Thing", Created: time.Now().UTC()}
	things := new(MockThingStore)
	things.On("GetByID", mock.Anything, int64(5)).Return(thing, nil)
	things.On("Update", mock.Anything, mock.Anything).Return(store.ErrThingNotFound)
	svc := newThingService(t, things)

	runner := task.NewRunner(task.NewMemoryResultStore(), task.DefaultRunnerConfig(), logger.Discard())
	t.Cleanup(runner.Stop)
	h := task.NewThingMutationHandler(things, svc, nil, 0, logger.Discard())
	require.NoError(t, runner.Register(task.TypeThingMutation, h))
	require.NoError(t, runner.Start(ctx))

	id, err := runner.Submit(ctx, task.TypeThingMutation, task.MutationPayload{ThingID: 5})
	require.NoError(t, err)

	var state task.TaskState
	require.Eventually(t, func() bool {
		state, err = runner.Status(ctx, id)
		require.NoError(t, err)
		return state.Kind == task.StateFailure
	}, 5*time.Second, 5*time.Millisecond)
	assert.Contains(t, state.Reason, ErrIntegrityViolation.Error())
	assert.Contains(t, state.Reason, "failed to update thing 5")
	things.AssertExpectations(t)
}
