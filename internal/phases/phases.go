// Package phases defines the fixed production pipeline phases and their
// statuses. The registry is built once at process start and never mutated.
package phases

import (
	"fmt"
	"strings"
)

// ID identifies one of the fixed production phases.
type ID string

const (
	Research  ID = "research"
	Archive   ID = "archive"
	Script    ID = "script"
	Voiceover ID = "voiceover"
	Assembly  ID = "assembly"
)

// Status is the review state of a phase within an episode workflow.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
)

var allStatuses = []Status{
	StatusPending,
	StatusInProgress,
	StatusReview,
	StatusApproved,
	StatusRejected,
}

// activeStatuses are the statuses counted by the dashboard occupancy tally.
var activeStatuses = []Status{
	StatusPending,
	StatusInProgress,
	StatusReview,
	StatusApproved,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ActiveStatuses returns the statuses tallied in dashboard occupancy counts.
func ActiveStatuses() []Status {
	cp := make([]Status, len(activeStatuses))
	copy(cp, activeStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Phase describes one pipeline stage.
type Phase struct {
	ID          ID
	Order       int
	Name        string
	Description string
}

// Registry is the immutable ordered set of production phases.
type Registry struct {
	ordered []Phase
	byID    map[ID]Phase
}

// NewRegistry builds a registry from the supplied phases. Orders must form a
// contiguous 1..N sequence with no repeats.
func NewRegistry(list []Phase) (*Registry, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("phase registry requires at least one phase")
	}
	ordered := make([]Phase, len(list))
	copy(ordered, list)

	byID := make(map[ID]Phase, len(ordered))
	byOrder := make(map[int]ID, len(ordered))
	for _, phase := range ordered {
		if phase.ID == "" {
			return nil, fmt.Errorf("phase with order %d has no identifier", phase.Order)
		}
		if _, dup := byID[phase.ID]; dup {
			return nil, fmt.Errorf("duplicate phase %q", phase.ID)
		}
		if phase.Order < 1 || phase.Order > len(ordered) {
			return nil, fmt.Errorf("phase %q order %d outside 1..%d", phase.ID, phase.Order, len(ordered))
		}
		if existing, dup := byOrder[phase.Order]; dup {
			return nil, fmt.Errorf("phases %q and %q share order %d", existing, phase.ID, phase.Order)
		}
		byID[phase.ID] = phase
		byOrder[phase.Order] = phase.ID
	}

	for i := range ordered {
		for j := i + 1; j < len(ordered); j++ {
			if ordered[j].Order < ordered[i].Order {
				ordered[i], ordered[j] = ordered[j], ordered[i]
			}
		}
	}
	return &Registry{ordered: ordered, byID: byID}, nil
}

// DefaultRegistry returns the standard five-phase documentary pipeline.
func DefaultRegistry() *Registry {
	reg, err := NewRegistry([]Phase{
		{ID: Research, Order: 1, Name: "Research", Description: "Gather sources, contacts, and background material"},
		{ID: Archive, Order: 2, Name: "Archive", Description: "Locate and license archival footage and stills"},
		{ID: Script, Order: 3, Name: "Script", Description: "Draft and review the episode script"},
		{ID: Voiceover, Order: 4, Name: "Voiceover", Description: "Record and edit narration"},
		{ID: Assembly, Order: 5, Name: "Assembly", Description: "Cut the episode and finish post-production"},
	})
	if err != nil {
		panic(fmt.Sprintf("default phase registry invalid: %v", err))
	}
	return reg
}

// Phases returns the phases in pipeline order.
func (r *Registry) Phases() []Phase {
	cp := make([]Phase, len(r.ordered))
	copy(cp, r.ordered)
	return cp
}

// Count returns the number of phases.
func (r *Registry) Count() int {
	return len(r.ordered)
}

// ByID looks up a phase by identifier.
func (r *Registry) ByID(id ID) (Phase, bool) {
	phase, ok := r.byID[id]
	return phase, ok
}

// Contains reports whether the identifier names a registered phase.
func (r *Registry) Contains(id ID) bool {
	_, ok := r.byID[id]
	return ok
}

// First returns the phase with order 1.
func (r *Registry) First() Phase {
	return r.ordered[0]
}

// Next returns the phase following the supplied one in pipeline order.
func (r *Registry) Next(id ID) (Phase, bool) {
	current, ok := r.byID[id]
	if !ok {
		return Phase{}, false
	}
	for _, phase := range r.ordered {
		if phase.Order == current.Order+1 {
			return phase, true
		}
	}
	return Phase{}, false
}
