package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/arxiv/zero/internal/platform/metrics"
	"github.com/arxiv/zero/internal/store"
	"github.com/google/uuid"
)

// Failure reasons recorded by the runner itself.
const (
	ReasonInterrupted = "interrupted: worker stopped before the task finished"
	ReasonTimedOut    = "timed out: task exceeded the processing time limit"
	ReasonClaimFailed = "could not start task"
)

// RunnerConfig holds configuration for the task runner.
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks.
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue.
	QueueSize int

	// StuckTaskAge defines how long a task can be in processing state
	// before it's considered stuck and failed.
	StuckTaskAge time.Duration

	// StuckTaskCheckInterval defines how often to check for stuck tasks.
	// If zero, defaults to 5 minutes.
	StuckTaskCheckInterval time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:            2,
		QueueSize:              100,
		StuckTaskAge:           30 * time.Minute,
		StuckTaskCheckInterval: 5 * time.Minute,
	}
}

// Runner accepts work items, queues them, and executes them on a worker pool.
// Results are kept in a ResultStore and read back with Status.
type Runner struct {
	store  ResultStore
	queue  *TaskQueue
	pool   *WorkerPool
	config RunnerConfig
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string]Handler

	lifecycle sync.Mutex
	started   bool
	stopped   bool
	monitorWG sync.WaitGroup
	stopCh    chan struct{}

	newID func() string
}

// NewRunner creates a Runner. No goroutines run until Start.
func NewRunner(resultStore ResultStore, config RunnerConfig, logger *slog.Logger) *Runner {
	if config.StuckTaskCheckInterval <= 0 {
		config.StuckTaskCheckInterval = 5 * time.Minute
	}
	logger = logger.With("component", "task_runner")

	r := &Runner{
		store:    resultStore,
		queue:    NewTaskQueue(config.QueueSize, logger),
		config:   config,
		logger:   logger,
		handlers: make(map[string]Handler),
		stopCh:   make(chan struct{}),
		newID:    uuid.NewString,
	}
	r.pool = NewWorkerPool(r.queue, WorkerPoolConfig{WorkerCount: config.WorkerCount}, r.processTask, logger)
	return r
}

// Register associates taskType with h. Submissions of unregistered types
// are rejected.
func (r *Runner) Register(taskType string, h Handler) error {
	if taskType == "" || h == nil {
		return errors.New("task type and handler are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[taskType]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTaskType, taskType)
	}
	r.handlers[taskType] = h
	return nil
}

func (r *Runner) handler(taskType string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[taskType]
	return h, ok
}

// Submit records a new task as sent and queues it for execution. It returns
// the task ID without waiting for the task to run.
//
// The sent record is written before the task is queued, so a Status call
// made immediately after Submit returns never reports the ID as unknown.
// If the queue rejects the task, the record is marked failed and the queue
// error is returned.
func (r *Runner) Submit(ctx context.Context, taskType string, payload any) (string, error) {
	if _, ok := r.handler(taskType); !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTaskType, taskType)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode task payload: %w", err)
	}

	t := Task{
		ID:        r.newID(),
		Type:      taskType,
		Payload:   raw,
		Status:    TaskStatusSent,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.SaveTask(ctx, t); err != nil {
		return "", fmt.Errorf("failed to save task: %w", err)
	}

	if err := r.queue.Enqueue(t); err != nil {
		r.logger.Error("failed to enqueue task",
			"task_id", t.ID,
			"task_type", t.Type,
			"error", err)
		if failErr := r.store.FailTask(ctx, t.ID, err.Error()); failErr != nil {
			r.logger.Error("failed to mark rejected task as failed",
				"task_id", t.ID,
				"error", failErr)
		}
		metrics.ObserveTaskFinished(t.Type, metrics.OutcomeRejected, 0)
		return "", err
	}

	metrics.IncTaskSubmitted(t.Type)
	r.logger.Debug("task submitted", "task_id", t.ID, "task_type", t.Type)
	return t.ID, nil
}

// Status returns the observable state of a task. An ID that was never
// recorded yields StateUnknown with a nil error.
func (r *Runner) Status(ctx context.Context, taskID string) (TaskState, error) {
	t, err := r.store.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return TaskState{Kind: StateUnknown}, nil
		}
		return TaskState{}, fmt.Errorf("failed to get task status: %w", err)
	}
	return StateOf(t), nil
}

// Start recovers unfinished tasks, then starts the workers and the stuck
// task monitor.
func (r *Runner) Start(ctx context.Context) error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	if r.started {
		return errors.New("task runner already started")
	}

	if err := r.Recover(ctx); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	r.pool.Start()

	r.monitorWG.Add(1)
	go r.stuckTaskMonitor()

	r.started = true
	r.logger.Info("task runner started",
		"worker_count", r.config.WorkerCount,
		"queue_size", r.config.QueueSize)
	return nil
}

// Stop stops the workers and closes the queue. Tasks that were executing
// stay in processing and are failed by the next Recover; tasks still queued
// stay sent and are queued again by the next Recover.
func (r *Runner) Stop() {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	if r.stopped {
		return
	}
	r.stopped = true

	close(r.stopCh)
	r.monitorWG.Wait()
	r.pool.Stop()
	r.queue.Close()
	r.logger.Info("task runner stopped")
}

// Recover loads unfinished tasks from the result store. Sent tasks never ran
// and are queued again. Processing tasks were cut off mid-run and are failed.
func (r *Runner) Recover(ctx context.Context) error {
	sentTasks, err := r.store.GetTasksByStatus(ctx, TaskStatusSent, 0)
	if err != nil {
		return fmt.Errorf("failed to get sent tasks: %w", err)
	}

	processingTasks, err := r.store.GetTasksByStatus(ctx, TaskStatusProcessing, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing tasks: %w", err)
	}

	r.logger.Info("recovering unfinished tasks",
		"sent_count", len(sentTasks),
		"processing_count", len(processingTasks))

	for _, t := range sentTasks {
		if err := r.queue.Enqueue(t); err != nil {
			r.logger.Error("failed to requeue sent task",
				"task_id", t.ID,
				"task_type", t.Type,
				"error", err)
			r.fail(ctx, t, err.Error(), metrics.OutcomeRejected)
		}
	}

	for _, t := range processingTasks {
		r.fail(ctx, t, ReasonInterrupted, metrics.OutcomeInterrupted)
	}

	return nil
}

func (r *Runner) fail(ctx context.Context, t Task, reason, outcome string) {
	if err := r.store.FailTask(ctx, t.ID, reason); err != nil {
		if !errors.Is(err, ErrTaskFinished) {
			r.logger.Error("failed to mark task as failed",
				"task_id", t.ID,
				"task_type", t.Type,
				"error", err)
		}
		return
	}
	metrics.ObserveTaskFinished(t.Type, outcome, 0)
}

// processTask handles execution of a single task.
func (r *Runner) processTask(ctx context.Context, t Task, workerID int) {
	log := r.logger.With(
		"task_id", t.ID,
		"task_type", t.Type,
		"worker_id", workerID,
	)

	// Leave the task sent; the next Recover queues it again.
	if ctx.Err() != nil {
		log.Info("worker stopping, task left queued")
		return
	}

	if err := r.store.MarkProcessing(ctx, t.ID); err != nil {
		switch {
		case errors.Is(err, ErrTaskFinished):
			log.Warn("skipping task that already finished")
		case errors.Is(err, ErrTaskClaimed):
			log.Warn("skipping task claimed by another worker")
		default:
			log.Error("failed to update task status to processing", "error", err)
			r.fail(context.WithoutCancel(ctx), t,
				fmt.Sprintf("%s: %v", ReasonClaimFailed, err), metrics.OutcomeFailed)
		}
		return
	}

	metrics.IncTasksInFlight()
	defer metrics.DecTasksInFlight()

	h, ok := r.handler(t.Type)
	if !ok {
		r.fail(ctx, t, fmt.Sprintf("%s: %s", ErrUnknownTaskType, t.Type), metrics.OutcomeFailed)
		return
	}

	log.Info("processing task")
	start := time.Now()
	result, err := r.execute(ctx, h, t)
	elapsed := time.Since(start).Seconds()
	interrupted := ctx.Err() != nil
	// The outcome is recorded even if shutdown began after the handler returned.
	ctx = context.WithoutCancel(ctx)

	if err != nil {
		if interrupted {
			// Shutdown interrupted the handler. The task stays processing.
			log.Warn("task interrupted by shutdown", "error", err)
			metrics.ObserveTaskFinished(t.Type, metrics.OutcomeInterrupted, elapsed)
			return
		}
		log.Error("task execution failed", "error", err)
		if updateErr := r.store.FailTask(ctx, t.ID, err.Error()); updateErr != nil {
			log.Error("failed to update task status to failed", "error", updateErr)
			return
		}
		metrics.ObserveTaskFinished(t.Type, metrics.OutcomeFailed, elapsed)
		return
	}

	if updateErr := r.store.CompleteTask(ctx, t.ID, result); updateErr != nil {
		log.Error("failed to update task status to completed", "error", updateErr)
		return
	}
	metrics.ObserveTaskFinished(t.Type, metrics.OutcomeCompleted, elapsed)
	log.Info("task completed successfully", "duration_seconds", elapsed)
}

// execute runs h, converting a panic into an error.
func (r *Runner) execute(ctx context.Context, h Handler, t Task) (result json.RawMessage, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("task handler panicked: %v", p)
		}
	}()

	result, err = h.Handle(ctx, t.Payload)
	if err == nil && len(result) == 0 {
		result = json.RawMessage("null")
	}
	return result, err
}

// stuckTaskMonitor periodically fails tasks that have been in processing
// state for longer than StuckTaskAge.
func (r *Runner) stuckTaskMonitor() {
	defer r.monitorWG.Done()

	if r.config.StuckTaskAge <= 0 {
		return
	}

	ticker := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.failStuckTasks(context.Background())
		}
	}
}

func (r *Runner) failStuckTasks(ctx context.Context) {
	stuckTasks, err := r.store.GetTasksByStatus(ctx, TaskStatusProcessing, r.config.StuckTaskAge)
	if err != nil {
		r.logger.Error("failed to check for stuck tasks", "error", err)
		return
	}
	if len(stuckTasks) == 0 {
		return
	}

	r.logger.Info("found stuck tasks", "count", len(stuckTasks))
	for _, t := range stuckTasks {
		r.fail(ctx, t, ReasonTimedOut, metrics.OutcomeFailed)
	}
}
