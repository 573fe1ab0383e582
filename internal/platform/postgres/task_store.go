package postgres

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

// PostgresTaskStore implements task.ResultStore using PostgreSQL.
// Several processes may share one tasks table.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgresTaskStore.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ task.ResultStore = (*PostgresTaskStore)(nil)

// SaveTask persists a new task in the sent state.
func (s *PostgresTaskStore) SaveTask(ctx context.Context, t task.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO tasks (id, type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	now := time.Now().UTC()
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err := s.db.ExecContext(ctx, query,
		t.ID,
		t.Type,
		jsonOrNull(t.Payload),
		string(task.TaskStatusSent),
		createdAt.UTC(),
		now,
	)
	if err != nil {
		log.Error("failed to save task",
			"task_id", t.ID,
			"task_type", t.Type,
			"error", err)
		return fmt.Errorf("failed to save task to database: %w", MapError(err))
	}
	return nil
}

// MarkProcessing implements task.ResultStore.
func (s *PostgresTaskStore) MarkProcessing(ctx context.Context, taskID string) error {
	return s.transition(ctx, taskID, task.TaskStatusProcessing, nil, "")
}

// CompleteTask implements task.ResultStore.
func (s *PostgresTaskStore) CompleteTask(ctx context.Context, taskID string, result json.RawMessage) error {
	return s.transition(ctx, taskID, task.TaskStatusCompleted, jsonOrNull(result), "")
}

// FailTask implements task.ResultStore.
func (s *PostgresTaskStore) FailTask(ctx context.Context, taskID string, reason string) error {
	return s.transition(ctx, taskID, task.TaskStatusFailed, nil, reason)
}

// transition moves a task to status unless it is already terminal. Only a
// sent task can move to processing.
func (s *PostgresTaskStore) transition(
	ctx context.Context,
	taskID string,
	status task.TaskStatus,
	result []byte,
	errorMsg string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET status = $1, result = $2, error_message = NULLIF($3, ''), updated_at = $4
		WHERE id = $5 AND ` + sourceStatusFilter(status) + `
	`
	res, err := s.db.ExecContext(ctx, query,
		string(status),
		result,
		errorMsg,
		time.Now().UTC(),
		taskID,
	)
	if err != nil {
		log.Error("failed to update task status",
			"task_id", taskID,
			"status", status,
			"error", err)
		return fmt.Errorf("failed to update task status: %w", MapError(err))
	}

	if err := CheckRowsAffected(res, errNoTransition); err != nil {
		if !errors.Is(err, errNoTransition) {
			return err
		}
		var current task.TaskStatus
		lookupErr := s.db.QueryRowContext(ctx, `SELECT status FROM tasks WHERE id = $1`, taskID).Scan(&current)
		if errors.Is(lookupErr, sql.ErrNoRows) {
			return store.ErrTaskNotFound
		}
		if lookupErr != nil {
			return fmt.Errorf("failed to read task status: %w", MapError(lookupErr))
		}
		log.Debug("ignoring task transition",
			"task_id", taskID,
			"status", current,
			"requested", status)
		if current.IsTerminal() {
			return task.ErrTaskFinished
		}
		return task.ErrTaskClaimed
	}
	return nil
}

func sourceStatusFilter(to task.TaskStatus) string {
	if to == task.TaskStatusProcessing {
		return `status = 'sent'`
	}
	return `status NOT IN ('completed', 'failed')`
}

var errNoTransition = errors.New("no row transitioned")

// GetTask implements task.ResultStore.
func (s *PostgresTaskStore) GetTask(ctx context.Context, taskID string) (task.Task, error) {
	query := `
		SELECT id, type, payload, status, result, error_message, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`
	t, err := scanTask(s.db.QueryRowContext(ctx, query, taskID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return task.Task{}, store.ErrTaskNotFound
		}
		return task.Task{}, fmt.Errorf("failed to get task: %w", MapError(err))
	}
	return t, nil
}

// GetTasksByStatus implements task.ResultStore.
func (s *PostgresTaskStore) GetTasksByStatus(
	ctx context.Context,
	status task.TaskStatus,
	olderThan time.Duration,
) ([]task.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var query string
	var args []interface{}

	if olderThan > 0 {
		query = `
			SELECT id, type, payload, status, result, error_message, created_at, updated_at
			FROM tasks
			WHERE status = $1 AND updated_at < $2
			ORDER BY created_at ASC
		`
		args = []interface{}{string(status), time.Now().UTC().Add(-olderThan)}
	} else {
		query = `
			SELECT id, type, payload, status, result, error_message, created_at, updated_at
			FROM tasks
			WHERE status = $1
			ORDER BY created_at ASC
		`
		args = []interface{}{string(status)}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks by status", "status", status, "error", err)
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
		payload  []byte
		result   []byte
		errorMsg sql.NullString
	)
	if err := row.Scan(
		&t.ID,
		&t.Type,
		&payload,
		&t.Status,
		&result,
		&errorMsg,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return task.Task{}, err
	}
	t.Payload = payload
	if len(result) > 0 {
		t.Result = result
	}
	t.Error = errorMsg.String
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}

// jsonOrNull returns raw as bytes, or the JSON literal null when raw is empty.
func jsonOrNull(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte("null")
	}
	return []byte(raw)
}
