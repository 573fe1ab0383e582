package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/arxiv/zero/internal/redact"
	"github.com/arxiv/zero/internal/task"
)

// MaxTaskIDLength bounds the task ids accepted by MutationStatus.
const MaxTaskIDLength = 64

var taskIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// TaskRunner is the part of task.Runner the mutation service needs.
type TaskRunner interface {
	Submit(ctx context.Context, taskType string, payload any) (string, error)
	Status(ctx context.Context, taskID string) (task.TaskState, error)
}

// MutationState is the externally visible progress of a mutation.
type MutationState string

const (
	MutationInProgress MutationState = "in progress"
	MutationFailed     MutationState = "failed"
	MutationComplete   MutationState = "complete"
)

// MutationStatus reports a polled mutation.
type MutationStatus struct {
	State MutationState
	// Reason is the redacted failure detail. Set only when State is MutationFailed.
	Reason string
	// Result is set only when State is MutationComplete.
	Result *task.MutationResult
}

// MutationService starts thing mutations and reports on them.
type MutationService interface {
	// RequestMutation queues a mutation of the thing and returns the task id.
	// It does not check that the thing exists and never waits for the task.
	RequestMutation(ctx context.Context, thingID int64) (string, error)

	// MutationStatus reports the state of the task.
	MutationStatus(ctx context.Context, taskID string) (MutationStatus, error)
}

type mutationServiceImpl struct {
	runner TaskRunner
	logger *slog.Logger
}

var _ MutationService = (*mutationServiceImpl)(nil)

// NewMutationService creates a MutationService. It returns an error if runner is nil.
func NewMutationService(runner TaskRunner, logger *slog.Logger) (MutationService, error) {
	if runner == nil {
		return nil, &ServiceError{Service: "mutation", Operation: "create_service", Err: errors.New("task runner cannot be nil")}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &mutationServiceImpl{
		runner: runner,
		logger: logger.With("component", "mutation_service"),
	}, nil
}

func (s *mutationServiceImpl) RequestMutation(ctx context.Context, thingID int64) (string, error) {
	taskID, err := s.runner.Submit(ctx, task.TypeThingMutation, task.MutationPayload{ThingID: thingID})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to submit mutation", "error", err, "thing_id", thingID)
		return "", NewServiceError("mutation", "request_mutation", err)
	}
	s.logger.InfoContext(ctx, "mutation requested", "thing_id", thingID, "task_id", taskID)
	return taskID, nil
}

func (s *mutationServiceImpl) MutationStatus(ctx context.Context, taskID string) (MutationStatus, error) {
	if !ValidTaskID(taskID) {
		return MutationStatus{}, ErrInvalidTaskID
	}

	state, err := s.runner.Status(ctx, taskID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to read mutation status", "error", err, "task_id", taskID)
		return MutationStatus{}, NewServiceError("mutation", "mutation_status", err)
	}

	switch state.Kind {
	case task.StateInProgress:
		return MutationStatus{State: MutationInProgress}, nil
	case task.StateFailure:
		return MutationStatus{State: MutationFailed, Reason: redact.String(state.Reason)}, nil
	case task.StateSuccess:
		var result task.MutationResult
		if err := json.Unmarshal(state.Result, &result); err != nil {
			s.logger.ErrorContext(ctx, "mutation result is malformed", "error", err, "task_id", taskID)
			return MutationStatus{}, NewServiceError("mutation", "mutation_status",
				fmt.Errorf("decode result of task %s: %w", taskID, err))
		}
		return MutationStatus{State: MutationComplete, Result: &result}, nil
	default:
		return MutationStatus{}, ErrTaskNotFound
	}
}

// ValidTaskID reports whether id could have been issued as a task id.
func ValidTaskID(id string) bool {
	return len(id) > 0 && len(id) <= MaxTaskIDLength && taskIDPattern.MatchString(id)
}
