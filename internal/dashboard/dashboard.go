// Package dashboard aggregates episode workflows into a production overview:
// how many episodes sit in each phase and status, where work is piling up
// for review, and how far each series has progressed.
package dashboard

import (
	"context"
	"sort"
	"time"

	"cutroom/internal/episodes"
	"cutroom/internal/phases"
	"cutroom/internal/services"
	"cutroom/internal/workflow"
)

// EpisodeSource supplies the episodes to aggregate. Satisfied by the
// episodes service.
type EpisodeSource interface {
	List(ctx context.Context) ([]*episodes.Episode, error)
}

// Occupancy counts episodes per phase and status. Every episode contributes
// one count to every phase row, taken from that phase's own status, so a
// column total equals the episode count.
type Occupancy map[phases.ID]map[phases.Status]int

// Bottleneck flags a phase with episodes waiting on review.
type Bottleneck struct {
	Phase       phases.ID `json:"phase"`
	PhaseName   string    `json:"phaseName"`
	ReviewCount int       `json:"reviewCount"`
}

// SeriesProgress summarizes one project's episodes.
type SeriesProgress struct {
	ProjectID       string `json:"projectId"`
	TotalEpisodes   int    `json:"totalEpisodes"`
	Finished        int    `json:"finished"`
	InProduction    int    `json:"inProduction"`
	ProgressPercent int    `json:"progressPercent"`
}

// Snapshot is the aggregated production overview.
type Snapshot struct {
	TotalEpisodes int                       `json:"totalEpisodes"`
	Finished      int                       `json:"finished"`
	InProduction  int                       `json:"inProduction"`
	Occupancy     Occupancy                 `json:"occupancy"`
	Bottlenecks   []Bottleneck              `json:"bottlenecks,omitempty"`
	Series        map[string]SeriesProgress `json:"series"`
	GeneratedAt   time.Time                 `json:"generatedAt"`
}

// Aggregator computes dashboard snapshots.
type Aggregator struct {
	source   EpisodeSource
	registry *phases.Registry
	now      func() time.Time
}

// New builds an Aggregator over the episode source.
func New(source EpisodeSource, reg *phases.Registry) *Aggregator {
	return &Aggregator{
		source:   source,
		registry: reg,
		now:      time.Now,
	}
}

// Snapshot aggregates the current state of every episode.
func (a *Aggregator) Snapshot(ctx context.Context) (*Snapshot, error) {
	list, err := a.source.List(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "dashboard", "snapshot", "list episodes", err)
	}

	snapshot := &Snapshot{
		Occupancy:   make(Occupancy, a.registry.Count()),
		Series:      make(map[string]SeriesProgress),
		GeneratedAt: a.now().UTC(),
	}
	for _, phase := range a.registry.Phases() {
		counts := make(map[phases.Status]int, len(phases.ActiveStatuses()))
		for _, status := range phases.ActiveStatuses() {
			counts[status] = 0
		}
		snapshot.Occupancy[phase.ID] = counts
	}

	lastPhase := a.registry.Phases()[a.registry.Count()-1]
	for _, episode := range list {
		if episode.Workflow == nil {
			continue
		}
		snapshot.TotalEpisodes++
		progress := snapshot.Series[episode.ProjectID]
		progress.ProjectID = episode.ProjectID
		progress.TotalEpisodes++

		for _, phase := range a.registry.Phases() {
			// Rejected phases are tallied as in progress: they still
			// hold active work.
			tallied := phaseStatus(episode.Workflow, phase.ID)
			if tallied == phases.StatusRejected {
				tallied = phases.StatusInProgress
			}
			snapshot.Occupancy[phase.ID][tallied]++
		}

		current := episode.Workflow.CurrentPhase
		if current == lastPhase.ID && phaseStatus(episode.Workflow, current) == phases.StatusApproved {
			snapshot.Finished++
			progress.Finished++
		} else {
			snapshot.InProduction++
			progress.InProduction++
		}
		snapshot.Series[episode.ProjectID] = progress
	}

	for id, progress := range snapshot.Series {
		if progress.TotalEpisodes > 0 {
			progress.ProgressPercent = progress.Finished * 100 / progress.TotalEpisodes
		}
		snapshot.Series[id] = progress
	}
	snapshot.Bottlenecks = a.bottlenecks(snapshot.Occupancy)
	return snapshot, nil
}

func phaseStatus(w *workflow.Workflow, id phases.ID) phases.Status {
	if state := w.Phases[id]; state != nil {
		return state.Status
	}
	return phases.StatusPending
}

// bottlenecks lists phases holding episodes in review, busiest first.
func (a *Aggregator) bottlenecks(occupancy Occupancy) []Bottleneck {
	var list []Bottleneck
	for _, phase := range a.registry.Phases() {
		if count := occupancy[phase.ID][phases.StatusReview]; count > 0 {
			list = append(list, Bottleneck{
				Phase:       phase.ID,
				PhaseName:   phase.Name,
				ReviewCount: count,
			})
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].ReviewCount > list[j].ReviewCount
	})
	return list
}

// EpisodeProgress returns one episode's workflow summary, for per-episode
// dashboard rows.
func EpisodeProgress(episode *episodes.Episode, reg *phases.Registry) *workflow.Summary {
	if episode == nil || episode.Workflow == nil {
		return nil
	}
	summary := workflow.Summarize(episode.Workflow, reg)
	return &summary
}
