package workflow

import (
	"context"
	"log/slog"
	"time"

	"cutroom/internal/lockmap"
	"cutroom/internal/logging"
	"cutroom/internal/phases"
	"cutroom/internal/services"
)

// Store loads and saves per-episode workflow state.
type Store interface {
	Workflow(ctx context.Context, episodeID string) (*Workflow, error)
	SetWorkflow(ctx context.Context, episodeID string, w *Workflow) error
}

// Machine serializes workflow mutations per episode so a read-modify-write
// from one caller cannot clobber another's.
type Machine struct {
	registry *phases.Registry
	store    Store
	locks    *lockmap.Map
	logger   *slog.Logger
	now      func() time.Time
}

// NewMachine builds a Machine over the given store and phase registry.
func NewMachine(store Store, reg *phases.Registry, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Machine{
		registry: reg,
		store:    store,
		locks:    lockmap.New(),
		logger:   logging.NewComponentLogger(logger, "workflow"),
		now:      time.Now,
	}
}

// Registry exposes the phase registry the machine runs over.
func (m *Machine) Registry() *phases.Registry { return m.registry }

// Initialize creates the starting workflow for an episode and persists it.
func (m *Machine) Initialize(ctx context.Context, episodeID string) (*Workflow, error) {
	unlock := m.locks.Lock(episodeID)
	defer unlock()

	w := New(m.registry, m.now())
	if err := m.store.SetWorkflow(ctx, episodeID, w); err != nil {
		return nil, services.Wrap(services.ErrTransient, "workflow", "initialize", "persist workflow", err)
	}
	m.logger.InfoContext(ctx, "workflow initialized",
		logging.String(logging.FieldEpisodeID, episodeID),
		logging.String(logging.FieldPhase, string(w.CurrentPhase)))
	return w, nil
}

// SetPhaseStatus applies one status change under the episode lock and
// persists the result.
func (m *Machine) SetPhaseStatus(ctx context.Context, episodeID string, phase phases.ID, status phases.Status, note string) (*Workflow, error) {
	unlock := m.locks.Lock(episodeID)
	defer unlock()

	w, err := m.store.Workflow(ctx, episodeID)
	if err != nil {
		return nil, err
	}
	current, err := SetPhaseStatus(w, m.registry, phase, status, note, m.now())
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "workflow", "set_phase_status", "apply transition", err)
	}
	if err := m.store.SetWorkflow(ctx, episodeID, w); err != nil {
		return nil, services.Wrap(services.ErrTransient, "workflow", "set_phase_status", "persist workflow", err)
	}
	m.logger.InfoContext(ctx, "phase status updated",
		logging.String(logging.FieldEpisodeID, episodeID),
		logging.String(logging.FieldPhase, string(phase)),
		logging.String("status", string(status)),
		logging.String("current_phase", string(current)))
	return w, nil
}

// ApproveCurrent approves the episode's current phase.
func (m *Machine) ApproveCurrent(ctx context.Context, episodeID, note string) (*Workflow, error) {
	unlock := m.locks.Lock(episodeID)
	defer unlock()

	w, err := m.store.Workflow(ctx, episodeID)
	if err != nil {
		return nil, err
	}
	if _, err := ApproveCurrent(w, m.registry, note, m.now()); err != nil {
		return nil, services.Wrap(services.ErrValidation, "workflow", "approve", "apply approval", err)
	}
	if err := m.store.SetWorkflow(ctx, episodeID, w); err != nil {
		return nil, services.Wrap(services.ErrTransient, "workflow", "approve", "persist workflow", err)
	}
	m.logger.InfoContext(ctx, "phase approved",
		logging.String(logging.FieldEpisodeID, episodeID),
		logging.String("current_phase", string(w.CurrentPhase)))
	return w, nil
}

// RequestRevision rejects the episode's current phase with a required note.
func (m *Machine) RequestRevision(ctx context.Context, episodeID, note string) (*Workflow, error) {
	unlock := m.locks.Lock(episodeID)
	defer unlock()

	w, err := m.store.Workflow(ctx, episodeID)
	if err != nil {
		return nil, err
	}
	if _, err := RequestRevision(w, m.registry, note, m.now()); err != nil {
		return nil, services.Wrap(services.ErrValidation, "workflow", "request_revision", "apply rejection", err)
	}
	if err := m.store.SetWorkflow(ctx, episodeID, w); err != nil {
		return nil, services.Wrap(services.ErrTransient, "workflow", "request_revision", "persist workflow", err)
	}
	m.logger.InfoContext(ctx, "revision requested",
		logging.String(logging.FieldEpisodeID, episodeID),
		logging.String(logging.FieldPhase, string(w.CurrentPhase)))
	return w, nil
}

// Status returns the progress summary for one episode.
func (m *Machine) Status(ctx context.Context, episodeID string) (Summary, error) {
	w, err := m.store.Workflow(ctx, episodeID)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(w, m.registry), nil
}
