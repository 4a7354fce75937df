package workflow

import (
	"time"

	"cutroom/internal/phases"
)

// Note is one timestamped review remark on a phase.
type Note struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// PhaseState tracks one phase's review state within an episode.
type PhaseState struct {
	Status      phases.Status `json:"status"`
	StartedAt   *time.Time    `json:"startedAt,omitempty"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
	Notes       []Note        `json:"notes,omitempty"`
	Assignee    string        `json:"assignee,omitempty"`
}

// Workflow is the full phase-status map for one episode. Exactly one phase is
// current; phases before it are approved, phases after it pending.
type Workflow struct {
	CurrentPhase phases.ID                 `json:"currentPhase"`
	Phases       map[phases.ID]*PhaseState `json:"phases"`
}

// New builds the initial workflow: the first phase in progress, every other
// phase pending.
func New(reg *phases.Registry, now time.Time) *Workflow {
	states := make(map[phases.ID]*PhaseState, reg.Count())
	for _, phase := range reg.Phases() {
		states[phase.ID] = &PhaseState{Status: phases.StatusPending}
	}
	first := reg.First()
	started := now.UTC()
	states[first.ID].Status = phases.StatusInProgress
	states[first.ID].StartedAt = &started

	return &Workflow{
		CurrentPhase: first.ID,
		Phases:       states,
	}
}

// Clone returns a deep copy of the workflow.
func (w *Workflow) Clone() *Workflow {
	if w == nil {
		return nil
	}
	cp := &Workflow{
		CurrentPhase: w.CurrentPhase,
		Phases:       make(map[phases.ID]*PhaseState, len(w.Phases)),
	}
	for id, state := range w.Phases {
		sc := &PhaseState{
			Status:   state.Status,
			Assignee: state.Assignee,
		}
		if state.StartedAt != nil {
			started := *state.StartedAt
			sc.StartedAt = &started
		}
		if state.CompletedAt != nil {
			completed := *state.CompletedAt
			sc.CompletedAt = &completed
		}
		if len(state.Notes) > 0 {
			sc.Notes = make([]Note, len(state.Notes))
			copy(sc.Notes, state.Notes)
		}
		cp.Phases[id] = sc
	}
	return cp
}
