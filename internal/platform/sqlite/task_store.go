package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arxiv/zero/internal/platform/logger"
	"github.com/arxiv/zero/internal/store"
	"github.com/arxiv/zero/internal/task"
)

// TaskStore implements task.ResultStore on SQLite.
type TaskStore struct {
	db     store.DBTX
	logger *slog.Logger
	now    func() time.Time
}

// NewTaskStore creates a TaskStore on db, which may be a *sql.DB or a *sql.Tx.
func NewTaskStore(db store.DBTX, logger *slog.Logger) *TaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

var _ task.ResultStore = (*TaskStore)(nil)

// SaveTask implements task.ResultStore.
func (s *TaskStore) SaveTask(ctx context.Context, t task.Task) error {
	now := s.now()
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, type, payload, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Type, string(jsonOrNull(t.Payload)), string(task.TaskStatusSent), createdAt.UTC(), now)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to save task",
			"task_id", t.ID,
			"task_type", t.Type,
			"error", err)
		return fmt.Errorf("failed to save task to database: %w", MapError(err))
	}
	return nil
}

// MarkProcessing implements task.ResultStore.
func (s *TaskStore) MarkProcessing(ctx context.Context, taskID string) error {
	return s.transition(ctx, taskID, task.TaskStatusProcessing, nil, "")
}

// transitionFrom is the status filter for each target status. Only sent tasks
// can be claimed; any unfinished task can be completed or failed.
func transitionFrom(to task.TaskStatus) string {
	if to == task.TaskStatusProcessing {
		return `status = 'sent'`
	}
	return `status NOT IN ('completed', 'failed')`
}

// CompleteTask implements task.ResultStore.
func (s *TaskStore) CompleteTask(ctx context.Context, taskID string, result json.RawMessage) error {
	return s.transition(ctx, taskID, task.TaskStatusCompleted, jsonOrNull(result), "")
}

// FailTask implements task.ResultStore.
func (s *TaskStore) FailTask(ctx context.Context, taskID string, reason string) error {
	return s.transition(ctx, taskID, task.TaskStatusFailed, nil, reason)
}

func (s *TaskStore) transition(
	ctx context.Context,
	taskID string,
	status task.TaskStatus,
	result []byte,
	errorMsg string,
) error {
	var resultArg any
	if result != nil {
		resultArg = string(result)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET status = ?, result = ?, error_message = NULLIF(?, ''), updated_at = ?
		WHERE id = ? AND `+transitionFrom(status),
		string(status), resultArg, errorMsg, s.now(), taskID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update task status",
			"task_id", taskID,
			"status", status,
			"error", err)
		return fmt.Errorf("failed to update task status: %w", MapError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	var current string
	err = s.db.QueryRowContext(ctx, `SELECT status FROM tasks WHERE id = ?`, taskID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrTaskNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read task status: %w", MapError(err))
	}
	return rejectedTransition(task.TaskStatus(current))
}

// rejectedTransition reports why a write matched no row for a task in current.
func rejectedTransition(current task.TaskStatus) error {
	if current.IsTerminal() {
		return task.ErrTaskFinished
	}
	return task.ErrTaskClaimed
}

const taskColumns = `id, type, payload, status, result, error_message, created_at, updated_at`

// GetTask implements task.ResultStore.
func (s *TaskStore) GetTask(ctx context.Context, taskID string) (task.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, taskID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return task.Task{}, store.ErrTaskNotFound
		}
		return task.Task{}, fmt.Errorf("failed to get task: %w", MapError(err))
	}
	return t, nil
}

// GetTasksByStatus implements task.ResultStore.
func (s *TaskStore) GetTasksByStatus(
	ctx context.Context,
	status task.TaskStatus,
	olderThan time.Duration,
) ([]task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE status = ?`
	args := []any{string(status)}
	if olderThan > 0 {
		query += ` AND updated_at < ?`
		args = append(args, s.now().Add(-olderThan))
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var tasks []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", MapError(err))
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", MapError(err))
	}
	return tasks, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (task.Task, error) {
	var (
		t        task.Task
		status   string
		payload  string
		result   sql.NullString
		errorMsg sql.NullString
	)
	if err := row.Scan(
		&t.ID,
		&t.Type,
		&payload,
		&status,
		&result,
		&errorMsg,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return task.Task{}, err
	}
	t.Status = task.TaskStatus(status)
	t.Payload = json.RawMessage(payload)
	if result.Valid {
		t.Result = json.RawMessage(result.String)
	}
	t.Error = errorMsg.String
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}

func jsonOrNull(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte("null")
	}
	return []byte(raw)
}
