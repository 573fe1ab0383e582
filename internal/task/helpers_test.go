package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arxiv/zero/internal/platform/logger"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return logger.Discard()
}

func newTestTask(id string) Task {
	return Task{
		ID:        id,
		Type:      "echo",
		Payload:   json.RawMessage(`{"n":1}`),
		Status:    TaskStatusSent,
		CreatedAt: time.Now().UTC(),
	}
}

// sequentialIDs returns an ID generator producing task-1, task-2, ...
func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("task-%d", n.Add(1))
	}
}

// waitForState polls the runner until the task reaches want or the deadline passes.
func waitForState(t *testing.T, r *Runner, taskID string, want StateKind) TaskState {
	t.Helper()

	var state TaskState
	require.Eventually(t, func() bool {
		var err error
		state, err = r.Status(context.Background(), taskID)
		require.NoError(t, err)
		return state.Kind == want
	}, 5*time.Second, 5*time.Millisecond, "task %s never reached %s", taskID, want)
	return state
}
