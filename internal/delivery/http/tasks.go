package http

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pcsite/backend/internal/domain"
	"github.com/pcsite/backend/internal/logging"
)

// TaskStatus is the lifecycle state of a background task
type TaskStatus string

const (
	TaskRunning   TaskStatus = "running"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// finishedTaskRetention bounds how long finished tasks stay queryable
const finishedTaskRetention = 24 * time.Hour

// Task is a snapshot of one background pass
type Task struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Category   domain.Category `json:"category"`
	Status     TaskStatus      `json:"status"`
	Result     any             `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt *time.Time      `json:"finishedAt,omitempty"`
}

// TaskFunc is the work of a task. A result returned alongside an error is kept.
type TaskFunc func(ctx context.Context) (any, error)

// TaskManager runs passes in the background under a context it owns and allows at
// most one running task per (kind, category)
type TaskManager struct {
	mu      sync.Mutex
	tasks   map[string]*Task
	running map[string]string
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	now     func() time.Time
}

// NewTaskManager creates a task manager; cancelling parent cancels every task
func NewTaskManager(parent context.Context) *TaskManager {
	ctx, cancel := context.WithCancel(parent)
	return &TaskManager{
		tasks:   make(map[string]*Task),
		running: make(map[string]string),
		ctx:     ctx,
		cancel:  cancel,
		now:     time.Now,
	}
}

func runningKey(kind string, category domain.Category) string {
	return kind + ":" + string(category)
}

// Start launches fn in the background. reqCtx only contributes its logger.
func (m *TaskManager) Start(reqCtx context.Context, kind string, category domain.Category, fn TaskFunc) (Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ctx.Err(); err != nil {
		return Task{}, fmt.Errorf("task manager stopped: %w", err)
	}
	key := runningKey(kind, category)
	if id, ok := m.running[key]; ok {
		return Task{}, fmt.Errorf("%w: %s %s (%s)", domain.ErrTaskRunning, kind, category, id)
	}
	m.prune()

	task := &Task{
		ID:        uuid.NewString(),
		Kind:      kind,
		Category:  category,
		Status:    TaskRunning,
		StartedAt: m.now(),
	}
	m.tasks[task.ID] = task
	m.running[key] = task.ID

	ctx := logging.WithLogger(m.ctx, logging.FromContext(reqCtx))
	ctx = logging.WithField(ctx, "task_id", task.ID)
	ctx = logging.WithField(ctx, "category", string(category))

	m.wg.Add(1)
	go m.run(ctx, task, key, fn)

	return *task, nil
}

// RunExclusive runs fn in the calling goroutine while holding the running slot of
// (kind, category), so a background task of that slot cannot overlap it and vice versa.
// It fails with domain.ErrTaskRunning when the slot is taken.
func (m *TaskManager) RunExclusive(ctx context.Context, kind string, category domain.Category, fn TaskFunc) (any, error) {
	key := runningKey(kind, category)

	m.mu.Lock()
	if err := m.ctx.Err(); err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("task manager stopped: %w", err)
	}
	if id, ok := m.running[key]; ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s %s (%s)", domain.ErrTaskRunning, kind, category, id)
	}
	holder := "inline-" + uuid.NewString()
	m.running[key] = holder
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		if m.running[key] == holder {
			delete(m.running, key)
		}
		m.mu.Unlock()
	}()

	return m.safeCall(ctx, fn)
}

func (m *TaskManager) run(ctx context.Context, task *Task, key string, fn TaskFunc) {
	defer m.wg.Done()
	log := logging.FromContext(ctx)
	log.Info().Str("kind", task.Kind).Msg("task started")

	result, err := m.safeCall(ctx, fn)

	m.mu.Lock()
	defer m.mu.Unlock()

	finished := m.now()
	task.FinishedAt = &finished
	task.Result = result
	switch {
	case err == nil:
		task.Status = TaskSucceeded
	case errors.Is(err, context.Canceled):
		task.Status = TaskCancelled
		task.Error = err.Error()
	default:
		task.Status = TaskFailed
		task.Error = err.Error()
	}
	delete(m.running, key)

	log.Info().
		Str("kind", task.Kind).
		Str("status", string(task.Status)).
		Dur("duration", finished.Sub(task.StartedAt)).
		AnErr("error", err).
		Msg("task finished")
}

func (m *TaskManager) safeCall(ctx context.Context, fn TaskFunc) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return fn(ctx)
}

// Get returns a snapshot of the task
func (m *TaskManager) Get(id string) (Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *task, true
}

// prune drops finished tasks past retention; callers hold mu
func (m *TaskManager) prune() {
	cutoff := m.now().Add(-finishedTaskRetention)
	for id, task := range m.tasks {
		if task.FinishedAt != nil && task.FinishedAt.Before(cutoff) {
			delete(m.tasks, id)
		}
	}
}

// Shutdown cancels running tasks and waits for them to return or ctx to end
func (m *TaskManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.cancel()
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
