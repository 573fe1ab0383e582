package task

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// TaskStatus is the stored state of a task.
type TaskStatus string

// Possible task status values.
const (
	// TaskStatusSent marks a task that has been accepted and queued but not
	// yet picked up by a worker.
	TaskStatusSent       TaskStatus = "sent"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Errors reported by the task package.
var (
	// ErrUnknownTaskType is returned by Submit for types with no registered handler.
	ErrUnknownTaskType = errors.New("unknown task type")

	// ErrDuplicateTaskType is returned by Register when a type is registered twice.
	ErrDuplicateTaskType = errors.New("task type already registered")

	// ErrTaskFinished is returned by ResultStore writes that target a task
	// already in a terminal state.
	ErrTaskFinished = errors.New("task already finished")

	// ErrTaskClaimed is returned by MarkProcessing when another worker has
	// already moved the task to processing.
	ErrTaskClaimed = errors.New("task already claimed")
)

// Task is the record kept for every submitted work item.
type Task struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Status    TaskStatus      `json:"status"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// StateKind is the observable state of a task as seen by a poller.
type StateKind int

const (
	// StateUnknown means no task with the ID was ever recorded.
	StateUnknown StateKind = iota
	// StateInProgress covers both queued and executing tasks.
	StateInProgress
	StateSuccess
	StateFailure
)

func (k StateKind) String() string {
	switch k {
	case StateInProgress:
		return "in progress"
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// TaskState is the result of polling a task.
type TaskState struct {
	Kind StateKind
	// Result is the handler's output. Set only for StateSuccess.
	Result json.RawMessage
	// Reason describes the failure. Set only for StateFailure.
	Reason string
}

// StateOf derives the observable state of a stored task.
func StateOf(t Task) TaskState {
	switch t.Status {
	case TaskStatusSent, TaskStatusProcessing:
		return TaskState{Kind: StateInProgress}
	case TaskStatusCompleted:
		return TaskState{Kind: StateSuccess, Result: t.Result}
	case TaskStatusFailed:
		return TaskState{Kind: StateFailure, Reason: t.Error}
	default:
		return TaskState{Kind: StateUnknown}
	}
}

// Handler executes one type of work item.
//
// A returned error marks the task failed with the error text as its reason.
// Handlers are never retried.
type Handler interface {
	Handle(ctx context.Context, payload json.RawMessage) (json.RawMessage, error)
}

// HandlerFunc adapts an ordinary function to Handler.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	return f(ctx, payload)
}

// TaskQueueReader provides read-only access to the task channel
// allowing workers to consume tasks without the ability to enqueue.
type TaskQueueReader interface {
	GetChannel() <-chan Task
}

// TaskQueueWriter provides write access to the task queue.
type TaskQueueWriter interface {
	// Enqueue adds a task to the queue without blocking.
	// Returns ErrQueueFull or ErrQueueClosed when the task cannot be queued.
	Enqueue(task Task) error

	// Close closes the task queue, preventing further task submission.
	Close()
}

// ResultStore persists task records and their outcomes.
//
// Implementations must be safe for concurrent use by submitters and workers,
// and must never change a task that is already completed or failed: such
// writes return ErrTaskFinished.
type ResultStore interface {
	// SaveTask records a new task with status TaskStatusSent.
	SaveTask(ctx context.Context, task Task) error

	// MarkProcessing moves a task from TaskStatusSent to TaskStatusProcessing.
	// A task that is already processing is left alone and ErrTaskClaimed
	// is returned.
	MarkProcessing(ctx context.Context, taskID string) error

	// CompleteTask records a successful result.
	CompleteTask(ctx context.Context, taskID string, result json.RawMessage) error

	// FailTask records a failure reason.
	FailTask(ctx context.Context, taskID string, reason string) error

	// GetTask returns the stored task, or store.ErrTaskNotFound.
	GetTask(ctx context.Context, taskID string) (Task, error)

	// GetTasksByStatus returns tasks in the given status. If olderThan is
	// non-zero, only tasks whose last update is older than that are returned.
	GetTasksByStatus(ctx context.Context, status TaskStatus, olderThan time.Duration) ([]Task, error)
}
