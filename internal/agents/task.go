package agents

import (
	"errors"
	"time"
)

// TaskStatus tracks a delegated agent call through its lifecycle.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "in_progress"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// ErrInvalidTransition marks a task status change that skips the lifecycle
// order (pending -> in_progress -> completed|failed).
var ErrInvalidTransition = errors.New("invalid task transition")

// Task is one delegated unit of agent work for an episode.
type Task struct {
	ID          string     `json:"id"`
	EpisodeID   string     `json:"episodeId"`
	AgentKind   Kind       `json:"agentType"`
	TaskType    string     `json:"taskType"`
	Status      TaskStatus `json:"status"`
	Input       string     `json:"input,omitempty"`
	Output      string     `json:"output,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Terminal reports whether the task has finished, successfully or not.
func (t *Task) Terminal() bool {
	return t.Status == TaskCompleted || t.Status == TaskFailed
}

// Duration returns how long the task ran. Zero until the task has both
// started and finished.
func (t *Task) Duration() time.Duration {
	if t.StartedAt == nil || t.CompletedAt == nil {
		return 0
	}
	return t.CompletedAt.Sub(*t.StartedAt)
}

func canTransition(from, to TaskStatus) bool {
	switch from {
	case TaskPending:
		return to == TaskRunning
	case TaskRunning:
		return to == TaskCompleted || to == TaskFailed
	default:
		return false
	}
}
