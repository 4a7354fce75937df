package workflow

import (
	"errors"
	"fmt"
	"time"

	"cutroom/internal/phases"
)

var (
	// ErrUnknownPhase marks a phase id outside the registry.
	ErrUnknownPhase = errors.New("unknown phase")
	// ErrMissingNote marks a rejection submitted without a review note.
	ErrMissingNote = errors.New("rejection requires a note")
)

// SetPhaseStatus applies a status change to one phase and returns the phase
// that is current afterwards. The same call applied twice leaves the workflow
// unchanged except for appended notes: timestamps are stamped only when unset.
func SetPhaseStatus(w *Workflow, reg *phases.Registry, phase phases.ID, status phases.Status, note string, now time.Time) (phases.ID, error) {
	target, ok := reg.ByID(phase)
	if !ok {
		return w.CurrentPhase, fmt.Errorf("%w: %q", ErrUnknownPhase, phase)
	}
	if status == phases.StatusRejected && note == "" {
		return w.CurrentPhase, fmt.Errorf("%w: phase %q", ErrMissingNote, phase)
	}
	state, ok := w.Phases[phase]
	if !ok {
		state = &PhaseState{Status: phases.StatusPending}
		w.Phases[phase] = state
	}

	ts := now.UTC()
	state.Status = status
	switch status {
	case phases.StatusInProgress, phases.StatusReview:
		if state.StartedAt == nil {
			state.StartedAt = &ts
		}
		state.CompletedAt = nil
	case phases.StatusApproved:
		if state.StartedAt == nil {
			state.StartedAt = &ts
		}
		if state.CompletedAt == nil {
			state.CompletedAt = &ts
		}
	default:
		state.CompletedAt = nil
	}
	if note != "" {
		state.Notes = append(state.Notes, Note{Text: note, Timestamp: ts})
	}

	if status == phases.StatusApproved {
		if next, ok := reg.Next(target.ID); ok {
			w.CurrentPhase = next.ID
			ns := w.Phases[next.ID]
			if ns == nil {
				ns = &PhaseState{Status: phases.StatusPending}
				w.Phases[next.ID] = ns
			}
			if ns.Status == phases.StatusPending {
				ns.Status = phases.StatusInProgress
				if ns.StartedAt == nil {
					ns.StartedAt = &ts
				}
			}
		}
		// No next phase: the current phase pointer is left untouched.
	}
	return w.CurrentPhase, nil
}

// ApproveCurrent approves the current phase, advancing to the next one.
func ApproveCurrent(w *Workflow, reg *phases.Registry, note string, now time.Time) (phases.ID, error) {
	return SetPhaseStatus(w, reg, w.CurrentPhase, phases.StatusApproved, note, now)
}

// RequestRevision rejects the current phase. The note is required.
func RequestRevision(w *Workflow, reg *phases.Registry, note string, now time.Time) (phases.ID, error) {
	return SetPhaseStatus(w, reg, w.CurrentPhase, phases.StatusRejected, note, now)
}

// PhaseSummary is one row of a workflow summary.
type PhaseSummary struct {
	ID          phases.ID     `json:"id"`
	Name        string        `json:"name"`
	Order       int           `json:"order"`
	Status      phases.Status `json:"status"`
	StartedAt   *time.Time    `json:"startedAt,omitempty"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
	Notes       []Note        `json:"notes,omitempty"`
	Assignee    string        `json:"assignee,omitempty"`
	Current     bool          `json:"current"`
}

// Summary is the progress view of one episode's workflow.
type Summary struct {
	CurrentPhase     phases.ID      `json:"currentPhase"`
	CurrentPhaseName string         `json:"currentPhaseName"`
	ProgressPercent  int            `json:"progressPercent"`
	CompletedCount   int            `json:"completedCount"`
	TotalCount       int            `json:"totalCount"`
	Done             bool           `json:"done"`
	Phases           []PhaseSummary `json:"phases"`
}

// Summarize computes progress over the registry's phase order. Progress is the
// share of approved phases, so it only moves when a phase is approved or a
// prior approval is revoked.
func Summarize(w *Workflow, reg *phases.Registry) Summary {
	all := reg.Phases()
	summary := Summary{
		CurrentPhase: w.CurrentPhase,
		TotalCount:   len(all),
		Phases:       make([]PhaseSummary, 0, len(all)),
	}
	approved := 0
	for _, phase := range all {
		state := w.Phases[phase.ID]
		if state == nil {
			state = &PhaseState{Status: phases.StatusPending}
		}
		if state.Status == phases.StatusApproved {
			approved++
		}
		if phase.ID == w.CurrentPhase {
			summary.CurrentPhaseName = phase.Name
		}
		summary.Phases = append(summary.Phases, PhaseSummary{
			ID:          phase.ID,
			Name:        phase.Name,
			Order:       phase.Order,
			Status:      state.Status,
			StartedAt:   state.StartedAt,
			CompletedAt: state.CompletedAt,
			Notes:       state.Notes,
			Assignee:    state.Assignee,
			Current:     phase.ID == w.CurrentPhase,
		})
	}
	summary.CompletedCount = approved
	if len(all) > 0 {
		summary.ProgressPercent = approved * 100 / len(all)
	}
	summary.Done = approved == len(all)
	return summary
}
