package task

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/arxiv/zero/internal/store"
)

// MemoryResultStore is an in-process ResultStore. Records do not survive a
// restart, so it suits tests and single-process deployments only.
type MemoryResultStore struct {
	mu    sync.RWMutex
	tasks map[string]Task
	now   func() time.Time
}

// NewMemoryResultStore creates an empty MemoryResultStore.
func NewMemoryResultStore() *MemoryResultStore {
	return &MemoryResultStore{
		tasks: make(map[string]Task),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SaveTask implements ResultStore.
func (s *MemoryResultStore) SaveTask(ctx context.Context, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return fmt.Errorf("%w: task %s", store.ErrDuplicate, task.ID)
	}

	now := s.now()
	task.Status = TaskStatusSent
	task.Result = nil
	task.Error = ""
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	s.tasks[task.ID] = task
	return nil
}

// MarkProcessing implements ResultStore.
func (s *MemoryResultStore) MarkProcessing(ctx context.Context, taskID string) error {
	return s.transition(taskID, func(t *Task) error {
		if t.Status != TaskStatusSent {
			return ErrTaskClaimed
		}
		t.Status = TaskStatusProcessing
		return nil
	})
}

// CompleteTask implements ResultStore.
func (s *MemoryResultStore) CompleteTask(ctx context.Context, taskID string, result json.RawMessage) error {
	return s.transition(taskID, func(t *Task) error {
		t.Status = TaskStatusCompleted
		t.Result = append(json.RawMessage(nil), result...)
		return nil
	})
}

// FailTask implements ResultStore.
func (s *MemoryResultStore) FailTask(ctx context.Context, taskID string, reason string) error {
	return s.transition(taskID, func(t *Task) error {
		t.Status = TaskStatusFailed
		t.Error = reason
		return nil
	})
}

func (s *MemoryResultStore) transition(taskID string, apply func(t *Task) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return store.ErrTaskNotFound
	}
	if t.Status.IsTerminal() {
		return ErrTaskFinished
	}
	if err := apply(&t); err != nil {
		return err
	}
	t.UpdatedAt = s.now()
	s.tasks[taskID] = t
	return nil
}

// GetTask implements ResultStore.
func (s *MemoryResultStore) GetTask(ctx context.Context, taskID string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return Task{}, store.ErrTaskNotFound
	}
	return t, nil
}

// GetTasksByStatus implements ResultStore. Results are ordered by creation time.
func (s *MemoryResultStore) GetTasksByStatus(
	ctx context.Context,
	status TaskStatus,
	olderThan time.Duration,
) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := s.now().Add(-olderThan)
	var out []Task
	for _, t := range s.tasks {
		if t.Status != status {
			continue
		}
		if olderThan > 0 && !t.UpdatedAt.Before(cutoff) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
