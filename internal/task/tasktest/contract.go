// Package tasktest provides a behavioural test suite shared by every
// task.ResultStore implementation.
package tasktest

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/arxiv/zero/internal/store"
	"github.com/arxiv/zero/internal/task"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewStoreFunc returns an empty result store for one subtest.
type NewStoreFunc func(t *testing.T) task.ResultStore

func newTask(taskType string) task.Task {
	return task.Task{
		ID:        uuid.NewString(),
		Type:      taskType,
		Payload:   json.RawMessage(`{"thing_id":1}`),
		Status:    task.TaskStatusSent,
		CreatedAt: time.Now().UTC(),
	}
}

// RunResultStoreContract exercises the ResultStore contract against stores
// produced by newStore.
func RunResultStoreContract(t *testing.T, newStore NewStoreFunc) {
	t.Helper()
	ctx := context.Background()

	t.Run("saved task is sent", func(t *testing.T) {
		s := newStore(t)
		tk := newTask("echo")
		require.NoError(t, s.SaveTask(ctx, tk))

		got, err := s.GetTask(ctx, tk.ID)
		require.NoError(t, err)
		assert.Equal(t, tk.ID, got.ID)
		assert.Equal(t, "echo", got.Type)
		assert.Equal(t, task.TaskStatusSent, got.Status)
		assert.JSONEq(t, `{"thing_id":1}`, string(got.Payload))
		assert.Empty(t, got.Error)
		assert.Empty(t, got.Result)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("unknown id", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetTask(ctx, "never-issued")
		assert.ErrorIs(t, err, store.ErrTaskNotFound)

		assert.ErrorIs(t, s.MarkProcessing(ctx, "never-issued"), store.ErrTaskNotFound)
		assert.ErrorIs(t, s.FailTask(ctx, "never-issued", "x"), store.ErrTaskNotFound)
	})

	t.Run("duplicate id", func(t *testing.T) {
		s := newStore(t)
		tk := newTask("echo")
		require.NoError(t, s.SaveTask(ctx, tk))
		assert.ErrorIs(t, s.SaveTask(ctx, tk), store.ErrDuplicate)
	})

	t.Run("complete", func(t *testing.T) {
		s := newStore(t)
		tk := newTask("echo")
		require.NoError(t, s.SaveTask(ctx, tk))
		require.NoError(t, s.MarkProcessing(ctx, tk.ID))

		got, err := s.GetTask(ctx, tk.ID)
		require.NoError(t, err)
		assert.Equal(t, task.TaskStatusProcessing, got.Status)

		require.NoError(t, s.CompleteTask(ctx, tk.ID, json.RawMessage(`{"thing_id":1,"result":12}`)))
		got, err = s.GetTask(ctx, tk.ID)
		require.NoError(t, err)
		assert.Equal(t, task.TaskStatusCompleted, got.Status)
		assert.JSONEq(t, `{"thing_id":1,"result":12}`, string(got.Result))
	})

	t.Run("second claim is rejected", func(t *testing.T) {
		s := newStore(t)
		tk := newTask("echo")
		require.NoError(t, s.SaveTask(ctx, tk))
		require.NoError(t, s.MarkProcessing(ctx, tk.ID))

		err := s.MarkProcessing(ctx, tk.ID)
		assert.ErrorIs(t, err, task.ErrTaskClaimed)
		assert.NotErrorIs(t, err, task.ErrTaskFinished)

		got, err := s.GetTask(ctx, tk.ID)
		require.NoError(t, err)
		assert.Equal(t, task.TaskStatusProcessing, got.Status)

		// The claim still owns the task and can finish it.
		require.NoError(t, s.CompleteTask(ctx, tk.ID, json.RawMessage(`1`)))
		assert.ErrorIs(t, s.MarkProcessing(ctx, tk.ID), task.ErrTaskFinished)
	})

	t.Run("concurrent claims", func(t *testing.T) {
		s := newStore(t)
		tk := newTask("echo")
		require.NoError(t, s.SaveTask(ctx, tk))

		var wg sync.WaitGroup
		var mu sync.Mutex
		claims := 0
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.MarkProcessing(ctx, tk.ID)
				if err == nil {
					mu.Lock()
					claims++
					mu.Unlock()
					return
				}
				assert.ErrorIs(t, err, task.ErrTaskClaimed)
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, claims)
	})

	t.Run("fail from sent", func(t *testing.T) {
		s := newStore(t)
		tk := newTask("echo")
		require.NoError(t, s.SaveTask(ctx, tk))
		require.NoError(t, s.FailTask(ctx, tk.ID, "queue full"))

		got, err := s.GetTask(ctx, tk.ID)
		require.NoError(t, err)
		assert.Equal(t, task.TaskStatusFailed, got.Status)
		assert.Equal(t, "queue full", got.Error)
	})

	t.Run("terminal states never change", func(t *testing.T) {
		s := newStore(t)
		done := newTask("echo")
		require.NoError(t, s.SaveTask(ctx, done))
		require.NoError(t, s.CompleteTask(ctx, done.ID, json.RawMessage(`1`)))

		assert.ErrorIs(t, s.FailTask(ctx, done.ID, "late"), task.ErrTaskFinished)
		assert.ErrorIs(t, s.MarkProcessing(ctx, done.ID), task.ErrTaskFinished)
		assert.ErrorIs(t, s.CompleteTask(ctx, done.ID, json.RawMessage(`2`)), task.ErrTaskFinished)

		got, err := s.GetTask(ctx, done.ID)
		require.NoError(t, err)
		assert.Equal(t, task.TaskStatusCompleted, got.Status)
		assert.JSONEq(t, `1`, string(got.Result))

		failed := newTask("echo")
		require.NoError(t, s.SaveTask(ctx, failed))
		require.NoError(t, s.FailTask(ctx, failed.ID, "first"))
		assert.ErrorIs(t, s.CompleteTask(ctx, failed.ID, json.RawMessage(`1`)), task.ErrTaskFinished)

		got, err = s.GetTask(ctx, failed.ID)
		require.NoError(t, err)
		assert.Equal(t, task.TaskStatusFailed, got.Status)
		assert.Equal(t, "first", got.Error)
	})

	t.Run("get by status", func(t *testing.T) {
		s := newStore(t)
		sent := newTask("echo")
		processing := newTask("echo")
		require.NoError(t, s.SaveTask(ctx, sent))
		require.NoError(t, s.SaveTask(ctx, processing))
		require.NoError(t, s.MarkProcessing(ctx, processing.ID))

		got, err := s.GetTasksByStatus(ctx, task.TaskStatusSent, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, sent.ID, got[0].ID)

		got, err = s.GetTasksByStatus(ctx, task.TaskStatusProcessing, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, processing.ID, got[0].ID)

		// Nothing has been processing for an hour.
		got, err = s.GetTasksByStatus(ctx, task.TaskStatusProcessing, time.Hour)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("concurrent writers", func(t *testing.T) {
		s := newStore(t)
		tk := newTask("echo")
		require.NoError(t, s.SaveTask(ctx, tk))
		require.NoError(t, s.MarkProcessing(ctx, tk.ID))

		var wg sync.WaitGroup
		var mu sync.Mutex
		wins := 0
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				var err error
				if i%2 == 0 {
					err = s.CompleteTask(ctx, tk.ID, json.RawMessage(`true`))
				} else {
					err = s.FailTask(ctx, tk.ID, "lost")
				}
				if err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
					return
				}
				assert.ErrorIs(t, err, task.ErrTaskFinished)
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, wins)
		got, err := s.GetTask(ctx, tk.ID)
		require.NoError(t, err)
		assert.True(t, got.Status.IsTerminal())
	})
}
