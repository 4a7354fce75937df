package dashboard_test

import (
	"context"
	"testing"

	"cutroom/internal/dashboard"
	"cutroom/internal/episodes"
	"cutroom/internal/phases"
	"cutroom/internal/projects"
	"cutroom/internal/testsupport"
	"cutroom/internal/workflow"
)

type fixture struct {
	projects  *projects.Service
	episodes  *episodes.Service
	machine   *workflow.Machine
	aggregate *dashboard.Aggregator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	reg := phases.DefaultRegistry()
	episodeSvc := episodes.NewService(st, reg, nil)
	return &fixture{
		projects:  projects.NewService(st, nil),
		episodes:  episodeSvc,
		machine:   workflow.NewMachine(episodeSvc, reg, nil),
		aggregate: dashboard.New(episodeSvc, reg),
	}
}

func (f *fixture) mustProject(t *testing.T, title string) *projects.Project {
	t.Helper()
	project, err := f.projects.Create(context.Background(), title, "")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return project
}

func (f *fixture) mustEpisode(t *testing.T, projectID, title string, number int) *episodes.Episode {
	t.Helper()
	episode, err := f.episodes.Create(context.Background(), projectID, title, number, "", "")
	if err != nil {
		t.Fatalf("create episode: %v", err)
	}
	return episode
}

// approveAll walks an episode through every phase.
func (f *fixture) approveAll(t *testing.T, episodeID string) {
	t.Helper()
	for range phases.DefaultRegistry().Phases() {
		if _, err := f.machine.ApproveCurrent(context.Background(), episodeID, ""); err != nil {
			t.Fatalf("approve: %v", err)
		}
	}
}

func TestSnapshotEmpty(t *testing.T) {
	f := newFixture(t)
	snapshot, err := f.aggregate.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snapshot.TotalEpisodes != 0 || snapshot.Finished != 0 {
		t.Errorf("snapshot = %+v, want empty", snapshot)
	}
	if len(snapshot.Bottlenecks) != 0 {
		t.Errorf("bottlenecks = %+v, want none", snapshot.Bottlenecks)
	}
	// Every phase row exists even with no episodes.
	if len(snapshot.Occupancy) != 5 {
		t.Errorf("occupancy rows = %d, want 5", len(snapshot.Occupancy))
	}
}

func TestSnapshotTalliesEveryPhaseRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.mustProject(t, "The Space Race")

	f.mustEpisode(t, project.ID, "Ep 1", 1)
	second := f.mustEpisode(t, project.ID, "Ep 2", 2)
	// Approve research and archive; Ep 2's current phase becomes script.
	for i := 0; i < 2; i++ {
		if _, err := f.machine.ApproveCurrent(ctx, second.ID, ""); err != nil {
			t.Fatalf("approve: %v", err)
		}
	}

	snapshot, err := f.aggregate.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snapshot.TotalEpisodes != 2 {
		t.Errorf("total = %d, want 2", snapshot.TotalEpisodes)
	}

	// Approved and pending phases show up in their own rows, not just the
	// current phase's.
	if got := snapshot.Occupancy[phases.Research][phases.StatusApproved]; got != 1 {
		t.Errorf("research approved = %d, want 1", got)
	}
	if got := snapshot.Occupancy[phases.Research][phases.StatusInProgress]; got != 1 {
		t.Errorf("research in_progress = %d, want 1", got)
	}
	if got := snapshot.Occupancy[phases.Archive][phases.StatusApproved]; got != 1 {
		t.Errorf("archive approved = %d, want 1", got)
	}
	if got := snapshot.Occupancy[phases.Script][phases.StatusInProgress]; got != 1 {
		t.Errorf("script in_progress = %d, want 1", got)
	}
	if got := snapshot.Occupancy[phases.Voiceover][phases.StatusPending]; got != 2 {
		t.Errorf("voiceover pending = %d, want 2", got)
	}

	// Each phase row accounts for every episode exactly once.
	for id, counts := range snapshot.Occupancy {
		rowTotal := 0
		for _, count := range counts {
			rowTotal += count
		}
		if rowTotal != 2 {
			t.Errorf("%s row sum = %d, want 2", id, rowTotal)
		}
	}
}

func TestSnapshotBottlenecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.mustProject(t, "The Space Race")

	for i := 1; i <= 2; i++ {
		episode := f.mustEpisode(t, project.ID, "Ep", i)
		if _, err := f.machine.SetPhaseStatus(ctx, episode.ID, phases.Research, phases.StatusReview, ""); err != nil {
			t.Fatalf("set review: %v", err)
		}
	}
	scriptEp := f.mustEpisode(t, project.ID, "Ep 3", 3)
	for i := 0; i < 2; i++ {
		if _, err := f.machine.ApproveCurrent(ctx, scriptEp.ID, ""); err != nil {
			t.Fatalf("approve: %v", err)
		}
	}
	if _, err := f.machine.SetPhaseStatus(ctx, scriptEp.ID, phases.Script, phases.StatusReview, ""); err != nil {
		t.Fatalf("set review: %v", err)
	}

	snapshot, err := f.aggregate.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snapshot.Bottlenecks) != 2 {
		t.Fatalf("bottlenecks = %+v, want 2", snapshot.Bottlenecks)
	}
	// Busiest phase first.
	if snapshot.Bottlenecks[0].Phase != phases.Research || snapshot.Bottlenecks[0].ReviewCount != 2 {
		t.Errorf("first bottleneck = %+v", snapshot.Bottlenecks[0])
	}
	if snapshot.Bottlenecks[1].Phase != phases.Script || snapshot.Bottlenecks[1].ReviewCount != 1 {
		t.Errorf("second bottleneck = %+v", snapshot.Bottlenecks[1])
	}
}

func TestSnapshotSeriesProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.mustProject(t, "The Space Race")

	finished := f.mustEpisode(t, project.ID, "Ep 1", 1)
	f.approveAll(t, finished.ID)
	f.mustEpisode(t, project.ID, "Ep 2", 2)

	snapshot, err := f.aggregate.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snapshot.Finished != 1 || snapshot.InProduction != 1 {
		t.Errorf("finished/in production = %d/%d, want 1/1", snapshot.Finished, snapshot.InProduction)
	}
	progress := snapshot.Series[project.ID]
	if progress.TotalEpisodes != 2 || progress.Finished != 1 {
		t.Errorf("series = %+v", progress)
	}
	if progress.ProgressPercent != 50 {
		t.Errorf("progress = %d, want 50", progress.ProgressPercent)
	}
}

func TestSnapshotRejectedCountsAsInProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.mustProject(t, "The Space Race")

	episode := f.mustEpisode(t, project.ID, "Ep 1", 1)
	if _, err := f.machine.RequestRevision(ctx, episode.ID, "redo the timeline"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	snapshot, err := f.aggregate.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if got := snapshot.Occupancy[phases.Research][phases.StatusInProgress]; got != 1 {
		t.Errorf("research in_progress = %d, want 1 (rejected tallies as active work)", got)
	}
}
