package agents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cutroom/internal/logging"
	"cutroom/internal/services"
	"cutroom/internal/store"
)

// Tracker persists agent tasks and enforces their lifecycle transitions.
type Tracker struct {
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewTracker builds a Tracker over the document store.
func NewTracker(st *store.Store, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Tracker{
		store:  st,
		logger: logging.NewComponentLogger(logger, "agents"),
		now:    time.Now,
	}
}

// Create records a new pending task for an episode.
func (t *Tracker) Create(ctx context.Context, episodeID string, kind Kind, taskType, input string) (*Task, error) {
	if episodeID == "" {
		return nil, services.Wrap(services.ErrValidation, "agents", "create", "episode id required", nil)
	}
	if !kind.Valid() {
		return nil, services.Wrap(services.ErrValidation, "agents", "create", "", fmt.Errorf("%w: %q", ErrUnknownKind, kind))
	}
	if taskType == "" {
		return nil, services.Wrap(services.ErrValidation, "agents", "create", "task type required", nil)
	}

	task := &Task{
		ID:        uuid.NewString(),
		EpisodeID: episodeID,
		AgentKind: kind,
		TaskType:  taskType,
		Status:    TaskPending,
		Input:     input,
		CreatedAt: t.now().UTC(),
	}
	if _, err := t.store.CreateWithID(ctx, store.CollectionAgentTasks, task.ID, task); err != nil {
		return nil, services.Wrap(services.ErrTransient, "agents", "create", "persist task", err)
	}

	t.logger.InfoContext(ctx, "agent task created",
		logging.String("task_id", task.ID),
		logging.String(logging.FieldEpisodeID, episodeID),
		logging.String(logging.FieldAgent, string(kind)),
		logging.String("task_type", taskType))
	return task, nil
}

// Get loads one task by identifier.
func (t *Tracker) Get(ctx context.Context, taskID string) (*Task, error) {
	doc, err := t.store.Get(ctx, store.CollectionAgentTasks, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, services.Wrap(services.ErrNotFound, "agents", "get", "task "+taskID, nil)
		}
		return nil, services.Wrap(services.ErrTransient, "agents", "get", "load task", err)
	}
	var task Task
	if err := doc.Decode(&task); err != nil {
		return nil, services.Wrap(services.ErrTransient, "agents", "get", "decode task", err)
	}
	task.ID = doc.ID
	return &task, nil
}

// ByEpisode returns every task recorded for an episode in creation order.
func (t *Tracker) ByEpisode(ctx context.Context, episodeID string) ([]*Task, error) {
	docs, err := t.store.QueryField(ctx, store.CollectionAgentTasks, "episodeId", episodeID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "agents", "list", "query tasks", err)
	}
	tasks := make([]*Task, 0, len(docs))
	for _, doc := range docs {
		var task Task
		if err := doc.Decode(&task); err != nil {
			return nil, services.Wrap(services.ErrTransient, "agents", "list", "decode task", err)
		}
		task.ID = doc.ID
		tasks = append(tasks, &task)
	}
	return tasks, nil
}

// MarkRunning moves a pending task to running and stamps StartedAt.
func (t *Tracker) MarkRunning(ctx context.Context, taskID string) (*Task, error) {
	return t.transition(ctx, taskID, TaskRunning, func(task *Task) {
		started := t.now().UTC()
		task.StartedAt = &started
	})
}

// Complete moves a running task to completed with its output.
func (t *Tracker) Complete(ctx context.Context, taskID, output string) (*Task, error) {
	return t.transition(ctx, taskID, TaskCompleted, func(task *Task) {
		completed := t.now().UTC()
		task.CompletedAt = &completed
		task.Output = output
		task.Error = ""
	})
}

// Fail moves a task to failed with the failure reason. Pending tasks may fail
// directly when they never got to run.
func (t *Tracker) Fail(ctx context.Context, taskID, reason string) (*Task, error) {
	return t.transition(ctx, taskID, TaskFailed, func(task *Task) {
		completed := t.now().UTC()
		task.CompletedAt = &completed
		task.Error = reason
	})
}

func (t *Tracker) transition(ctx context.Context, taskID string, to TaskStatus, apply func(*Task)) (*Task, error) {
	task, err := t.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !canTransition(task.Status, to) {
		return nil, services.Wrap(services.ErrValidation, "agents", "transition", "",
			fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, task.Status, to))
	}
	task.Status = to
	apply(task)
	if _, err := t.store.Update(ctx, store.CollectionAgentTasks, taskID, task); err != nil {
		return nil, services.Wrap(services.ErrTransient, "agents", "transition", "persist task", err)
	}

	t.logger.InfoContext(ctx, "agent task transitioned",
		logging.String("task_id", taskID),
		logging.String(logging.FieldEpisodeID, task.EpisodeID),
		logging.String(logging.FieldAgent, string(task.AgentKind)),
		logging.String("status", string(to)))
	return task, nil
}
