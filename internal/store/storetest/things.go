// Package storetest provides behavioural test suites shared by the store
// implementations.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/arxiv/zero/internal/domain"
	"github.com/arxiv/zero/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewThingStoreFunc returns an empty ThingStore for one subtest.
type NewThingStoreFunc func(t *testing.T) store.ThingStore

// RunThingStoreContract exercises the ThingStore contract.
func RunThingStoreContract(t *testing.T, newStore NewThingStoreFunc) {
	t.Helper()
	ctx := context.Background()

	t.Run("create assigns id", func(t *testing.T) {
		s := newStore(t)
		thing, err := domain.NewThing("The Thing")
		require.NoError(t, err)

		created, err := s.Create(ctx, thing)
		require.NoError(t, err)
		assert.True(t, created.IsPersisted())
		assert.Equal(t, "The Thing", created.Name)
		assert.False(t, thing.IsPersisted(), "input must not be modified")

		other, err := s.Create(ctx, thing)
		require.NoError(t, err)
		assert.NotEqual(t, created.ID, other.ID)
	})

	t.Run("create rejects invalid things", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Create(ctx, domain.Thing{Created: time.Now()})
		assert.ErrorIs(t, err, store.ErrInvalidEntity)

		_, err = s.Create(ctx, domain.Thing{ID: 5, Name: "already stored", Created: time.Now()})
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})

	t.Run("get returns what was created", func(t *testing.T) {
		s := newStore(t)
		thing, err := domain.NewThing("The Thing")
		require.NoError(t, err)
		created, err := s.Create(ctx, thing)
		require.NoError(t, err)

		first, err := s.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, first.ID)
		assert.Equal(t, "The Thing", first.Name)
		assert.WithinDuration(t, thing.Created, first.Created, time.Second)

		second, err := s.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetByID(ctx, 424242)
		assert.ErrorIs(t, err, store.ErrThingNotFound)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("update", func(t *testing.T) {
		s := newStore(t)
		thing, err := domain.NewThing("The Thing")
		require.NoError(t, err)
		created, err := s.Create(ctx, thing)
		require.NoError(t, err)

		created.Name = "The Thing111"
		require.NoError(t, s.Update(ctx, created))

		got, err := s.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "The Thing111", got.Name)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("update without id", func(t *testing.T) {
		s := newStore(t)
		err := s.Update(ctx, domain.Thing{Name: "orphan"})
		assert.ErrorIs(t, err, store.ErrInvalidArgument)
	})

	t.Run("update missing", func(t *testing.T) {
		s := newStore(t)
		err := s.Update(ctx, domain.Thing{ID: 424242, Name: "ghost"})
		assert.ErrorIs(t, err, store.ErrThingNotFound)
	})

	t.Run("update invalid name", func(t *testing.T) {
		s := newStore(t)
		thing, err := domain.NewThing("The Thing")
		require.NoError(t, err)
		created, err := s.Create(ctx, thing)
		require.NoError(t, err)

		created.Name = ""
		assert.ErrorIs(t, s.Update(ctx, created), store.ErrInvalidEntity)
	})
}
