package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/arxiv/zero/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler() Handler {
	return HandlerFunc(func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
		return payload, nil
	})
}

func newTestRunner(t *testing.T, s ResultStore, config RunnerConfig) *Runner {
	t.Helper()
	r := NewRunner(s, config, setupTestLogger())
	r.newID = sequentialIDs()
	t.Cleanup(r.Stop)
	return r
}

func testRunnerConfig() RunnerConfig {
	config := DefaultRunnerConfig()
	config.QueueSize = 10
	return config
}

// failingStore wraps a MemoryResultStore and lets tests inject errors.
type failingStore struct {
	*MemoryResultStore
	SaveFn func(ctx context.Context, task Task) error
	GetFn  func(ctx context.Context, taskID string) (Task, error)
	MarkFn func(ctx context.Context, taskID string) error
}

func (s *failingStore) MarkProcessing(ctx context.Context, taskID string) error {
	if s.MarkFn != nil {
		return s.MarkFn(ctx, taskID)
	}
	return s.MemoryResultStore.MarkProcessing(ctx, taskID)
}

func (s *failingStore) SaveTask(ctx context.Context, task Task) error {
	if s.SaveFn != nil {
		return s.SaveFn(ctx, task)
	}
	return s.MemoryResultStore.SaveTask(ctx, task)
}

func (s *failingStore) GetTask(ctx context.Context, taskID string) (Task, error) {
	if s.GetFn != nil {
		return s.GetFn(ctx, taskID)
	}
	return s.MemoryResultStore.GetTask(ctx, taskID)
}

func TestRunner_Register(t *testing.T) {
	t.Parallel()

	r := newTestRunner(t, NewMemoryResultStore(), testRunnerConfig())

	require.NoError(t, r.Register("echo", echoHandler()))
	assert.ErrorIs(t, r.Register("echo", echoHandler()), ErrDuplicateTaskType)
	assert.Error(t, r.Register("", echoHandler()))
	assert.Error(t, r.Register("nil", nil))
}

func TestRunner_Submit(t *testing.T) {
	t.Parallel()

	t.Run("unknown type is rejected", func(t *testing.T) {
		t.Parallel()
		s := NewMemoryResultStore()
		r := newTestRunner(t, s, testRunnerConfig())

		id, err := r.Submit(context.Background(), "nope", nil)
		assert.ErrorIs(t, err, ErrUnknownTaskType)
		assert.Empty(t, id)

		sent, _ := s.GetTasksByStatus(context.Background(), TaskStatusSent, 0)
		assert.Empty(t, sent)
	})

	t.Run("task is visible before any worker runs", func(t *testing.T) {
		t.Parallel()
		s := NewMemoryResultStore()
		r := newTestRunner(t, s, testRunnerConfig())
		require.NoError(t, r.Register("echo", echoHandler()))

		id, err := r.Submit(context.Background(), "echo", map[string]int{"n": 1})
		require.NoError(t, err)
		assert.Equal(t, "task-1", id)

		state, err := r.Status(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, StateInProgress, state.Kind)

		stored, err := s.GetTask(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, TaskStatusSent, stored.Status)
		assert.JSONEq(t, `{"n":1}`, string(stored.Payload))
	})

	t.Run("queue full marks the task failed", func(t *testing.T) {
		t.Parallel()
		s := NewMemoryResultStore()
		config := testRunnerConfig()
		config.QueueSize = 1
		r := newTestRunner(t, s, config)
		require.NoError(t, r.Register("echo", echoHandler()))

		_, err := r.Submit(context.Background(), "echo", 1)
		require.NoError(t, err)

		_, err = r.Submit(context.Background(), "echo", 2)
		assert.ErrorIs(t, err, ErrQueueFull)

		failed, _ := s.GetTasksByStatus(context.Background(), TaskStatusFailed, 0)
		require.Len(t, failed, 1)
		assert.Equal(t, "task-2", failed[0].ID)
		assert.Contains(t, failed[0].Error, "queue is full")
	})

	t.Run("store error", func(t *testing.T) {
		t.Parallel()
		s := &failingStore{
			MemoryResultStore: NewMemoryResultStore(),
			SaveFn: func(ctx context.Context, task Task) error {
				return errors.New("mock store error")
			},
		}
		r := newTestRunner(t, s, testRunnerConfig())
		require.NoError(t, r.Register("echo", echoHandler()))

		_, err := r.Submit(context.Background(), "echo", 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save task")
	})

	t.Run("unencodable payload", func(t *testing.T) {
		t.Parallel()
		r := newTestRunner(t, NewMemoryResultStore(), testRunnerConfig())
		require.NoError(t, r.Register("echo", echoHandler()))

		_, err := r.Submit(context.Background(), "echo", make(chan int))
		assert.Error(t, err)
	})

	t.Run("after stop the queue is closed", func(t *testing.T) {
		t.Parallel()
		s := NewMemoryResultStore()
		r := newTestRunner(t, s, testRunnerConfig())
		require.NoError(t, r.Register("echo", echoHandler()))
		require.NoError(t, r.Start(context.Background()))
		r.Stop()

		_, err := r.Submit(context.Background(), "echo", 1)
		assert.ErrorIs(t, err, ErrQueueClosed)
	})
}

func TestRunner_Status(t *testing.T) {
	t.Parallel()

	t.Run("never issued id is unknown", func(t *testing.T) {
		t.Parallel()
		r := newTestRunner(t, NewMemoryResultStore(), testRunnerConfig())

		state, err := r.Status(context.Background(), "never-issued")
		require.NoError(t, err)
		assert.Equal(t, StateUnknown, state.Kind)
	})

	t.Run("store error is returned", func(t *testing.T) {
		t.Parallel()
		s := &failingStore{
			MemoryResultStore: NewMemoryResultStore(),
			GetFn: func(ctx context.Context, taskID string) (Task, error) {
				return Task{}, errors.New("connection refused")
			},
		}
		r := newTestRunner(t, s, testRunnerConfig())

		_, err := r.Status(context.Background(), "task-1")
		assert.Error(t, err)
	})
}

func TestRunner_Processing(t *testing.T) {
	t.Parallel()

	s := NewMemoryResultStore()
	config := testRunnerConfig()
	config.WorkerCount = 2
	r := newTestRunner(t, s, config)

	require.NoError(t, r.Register("echo", echoHandler()))
	require.NoError(t, r.Register("fail", HandlerFunc(func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
		return nil, errors.New("no luck")
	})))
	require.NoError(t, r.Register("panic", HandlerFunc(func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
		panic("kaboom")
	})))
	require.NoError(t, r.Register("empty", HandlerFunc(func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
		return nil, nil
	})))
	require.NoError(t, r.Start(context.Background()))

	ctx := context.Background()
	okID, err := r.Submit(ctx, "echo", map[string]string{"hello": "world"})
	require.NoError(t, err)
	failID, err := r.Submit(ctx, "fail", nil)
	require.NoError(t, err)
	panicID, err := r.Submit(ctx, "panic", nil)
	require.NoError(t, err)
	emptyID, err := r.Submit(ctx, "empty", nil)
	require.NoError(t, err)

	state := waitForState(t, r, okID, StateSuccess)
	assert.JSONEq(t, `{"hello":"world"}`, string(state.Result))

	state = waitForState(t, r, failID, StateFailure)
	assert.Equal(t, "no luck", state.Reason)

	state = waitForState(t, r, panicID, StateFailure)
	assert.Contains(t, state.Reason, "panicked")
	assert.Contains(t, state.Reason, "kaboom")

	state = waitForState(t, r, emptyID, StateSuccess)
	assert.JSONEq(t, `null`, string(state.Result))

	// Terminal states are stable across polls.
	again, err := r.Status(ctx, okID)
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, again.Kind)
}

func TestRunner_StartTwice(t *testing.T) {
	t.Parallel()

	r := newTestRunner(t, NewMemoryResultStore(), testRunnerConfig())
	require.NoError(t, r.Start(context.Background()))
	assert.Error(t, r.Start(context.Background()))
	r.Stop()
	r.Stop()
}

func TestRunner_Recover(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryResultStore()

	queued := newTestTask("queued")
	running := newTestTask("running")
	finished := newTestTask("finished")
	for _, tk := range []Task{queued, running, finished} {
		require.NoError(t, s.SaveTask(ctx, tk))
	}
	require.NoError(t, s.MarkProcessing(ctx, running.ID))
	require.NoError(t, s.CompleteTask(ctx, finished.ID, json.RawMessage(`"done"`)))

	r := newTestRunner(t, s, testRunnerConfig())
	require.NoError(t, r.Register("echo", echoHandler()))
	require.NoError(t, r.Start(ctx))

	state := waitForState(t, r, queued.ID, StateSuccess)
	assert.JSONEq(t, `{"n":1}`, string(state.Result))

	state, err := r.Status(ctx, running.ID)
	require.NoError(t, err)
	assert.Equal(t, StateFailure, state.Kind)
	assert.Equal(t, ReasonInterrupted, state.Reason)

	state, err = r.Status(ctx, finished.ID)
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, state.Kind)
	assert.JSONEq(t, `"done"`, string(state.Result))
}

func TestRunner_StopLeavesRunningTaskForRecovery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryResultStore()
	entered := make(chan struct{})

	first := NewRunner(s, testRunnerConfig(), setupTestLogger())
	require.NoError(t, first.Register("slow", HandlerFunc(func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
		close(entered)
		<-ctx.Done()
		return nil, ctx.Err()
	})))
	require.NoError(t, first.Start(ctx))

	id, err := first.Submit(ctx, "slow", nil)
	require.NoError(t, err)
	<-entered
	first.Stop()

	stored, err := s.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, TaskStatusProcessing, stored.Status)

	second := newTestRunner(t, s, testRunnerConfig())
	require.NoError(t, second.Start(ctx))

	state, err := second.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateFailure, state.Kind)
	assert.Equal(t, ReasonInterrupted, state.Reason)
}

func TestRunner_StuckTaskMonitor(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryResultStore()
	config := testRunnerConfig()
	config.StuckTaskAge = 20 * time.Millisecond
	config.StuckTaskCheckInterval = 10 * time.Millisecond

	r := newTestRunner(t, s, config)
	require.NoError(t, r.Start(ctx))

	// A task some other worker claimed and never finished.
	stuck := newTestTask("stuck")
	require.NoError(t, s.SaveTask(ctx, stuck))
	require.NoError(t, s.MarkProcessing(ctx, stuck.ID))

	state := waitForState(t, r, stuck.ID, StateFailure)
	assert.Equal(t, ReasonTimedOut, state.Reason)
}

func TestRunner_UnregisteredTypeOnRecovery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryResultStore()
	orphan := newTestTask("orphan")
	orphan.Type = "retired"
	require.NoError(t, s.SaveTask(ctx, orphan))

	r := newTestRunner(t, s, testRunnerConfig())
	require.NoError(t, r.Start(ctx))

	state := waitForState(t, r, orphan.ID, StateFailure)
	assert.Contains(t, state.Reason, ErrUnknownTaskType.Error())
}

func TestRunner_ClaimFailure(t *testing.T) {
	t.Parallel()

	t.Run("store error fails the task", func(t *testing.T) {
		t.Parallel()
		ran := make(chan struct{}, 1)
		s := &failingStore{
			MemoryResultStore: NewMemoryResultStore(),
			MarkFn: func(ctx context.Context, taskID string) error {
				return fmt.Errorf("%w: database is locked", store.ErrStorageUnavailable)
			},
		}
		r := newTestRunner(t, s, testRunnerConfig())
		require.NoError(t, r.Register("echo", HandlerFunc(func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
			ran <- struct{}{}
			return payload, nil
		})))
		require.NoError(t, r.Start(context.Background()))

		id, err := r.Submit(context.Background(), "echo", 1)
		require.NoError(t, err)

		state := waitForState(t, r, id, StateFailure)
		assert.Contains(t, state.Reason, ReasonClaimFailed)
		assert.Contains(t, state.Reason, "database is locked")
		assert.Empty(t, ran)
	})

	t.Run("task claimed elsewhere is skipped", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		s := NewMemoryResultStore()
		calls := 0
		r := newTestRunner(t, s, testRunnerConfig())
		require.NoError(t, r.Register("echo", HandlerFunc(func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
			calls++
			return payload, nil
		})))

		tk := newTestTask("claimed")
		require.NoError(t, s.SaveTask(ctx, tk))
		require.NoError(t, s.MarkProcessing(ctx, tk.ID))

		r.processTask(ctx, tk, 1)

		assert.Zero(t, calls)
		stored, err := s.GetTask(ctx, tk.ID)
		require.NoError(t, err)
		assert.Equal(t, TaskStatusProcessing, stored.Status)
	})
}
