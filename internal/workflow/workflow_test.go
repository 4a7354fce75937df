package workflow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"cutroom/internal/phases"
	"cutroom/internal/workflow"
)

var testTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func TestNewStartsResearchInProgress(t *testing.T) {
	reg := phases.DefaultRegistry()
	w := workflow.New(reg, testTime)

	if w.CurrentPhase != phases.Research {
		t.Fatalf("current phase = %q, want %q", w.CurrentPhase, phases.Research)
	}
	research := w.Phases[phases.Research]
	if research.Status != phases.StatusInProgress {
		t.Errorf("research status = %q, want in_progress", research.Status)
	}
	if research.StartedAt == nil || !research.StartedAt.Equal(testTime) {
		t.Errorf("research startedAt = %v, want %v", research.StartedAt, testTime)
	}
	for _, id := range []phases.ID{phases.Archive, phases.Script, phases.Voiceover, phases.Assembly} {
		state := w.Phases[id]
		if state.Status != phases.StatusPending {
			t.Errorf("%s status = %q, want pending", id, state.Status)
		}
		if state.StartedAt != nil {
			t.Errorf("%s startedAt should be nil", id)
		}
	}
}

func TestApprovalAdvancesToNextPhase(t *testing.T) {
	reg := phases.DefaultRegistry()
	w := workflow.New(reg, testTime)

	current, err := workflow.ApproveCurrent(w, reg, "looks good", testTime.Add(time.Hour))
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if current != phases.Archive {
		t.Fatalf("current phase = %q, want %q", current, phases.Archive)
	}
	research := w.Phases[phases.Research]
	if research.Status != phases.StatusApproved {
		t.Errorf("research status = %q, want approved", research.Status)
	}
	if research.CompletedAt == nil {
		t.Error("research completedAt not stamped")
	}
	if len(research.Notes) != 1 || research.Notes[0].Text != "looks good" {
		t.Errorf("research notes = %+v, want one note %q", research.Notes, "looks good")
	}
	archive := w.Phases[phases.Archive]
	if archive.Status != phases.StatusInProgress {
		t.Errorf("archive status = %q, want in_progress", archive.Status)
	}
	if archive.StartedAt == nil {
		t.Error("archive startedAt not stamped")
	}
}

func TestApprovingLastPhaseIsTerminal(t *testing.T) {
	reg := phases.DefaultRegistry()
	w := workflow.New(reg, testTime)

	for range reg.Phases() {
		if _, err := workflow.ApproveCurrent(w, reg, "", testTime); err != nil {
			t.Fatalf("approve: %v", err)
		}
	}
	if w.CurrentPhase != phases.Assembly {
		t.Fatalf("current phase = %q, want %q", w.CurrentPhase, phases.Assembly)
	}
	summary := workflow.Summarize(w, reg)
	if !summary.Done {
		t.Error("summary.Done = false after approving every phase")
	}
	if summary.ProgressPercent != 100 {
		t.Errorf("progress = %d, want 100", summary.ProgressPercent)
	}

	// Approving the final phase again must not move anything.
	if _, err := workflow.ApproveCurrent(w, reg, "", testTime); err != nil {
		t.Fatalf("re-approve: %v", err)
	}
	if w.CurrentPhase != phases.Assembly {
		t.Errorf("current phase moved to %q after terminal re-approval", w.CurrentPhase)
	}
}

func TestApprovingLastPhaseOutOfOrderKeepsCurrent(t *testing.T) {
	reg := phases.DefaultRegistry()
	w := workflow.New(reg, testTime)

	// Backfill-approving assembly while research is current must not yank
	// the current phase pointer forward.
	if _, err := workflow.SetPhaseStatus(w, reg, phases.Assembly, phases.StatusApproved, "", testTime); err != nil {
		t.Fatalf("approve assembly: %v", err)
	}
	if w.CurrentPhase != phases.Research {
		t.Errorf("current phase = %q, want %q", w.CurrentPhase, phases.Research)
	}
	if w.Phases[phases.Assembly].Status != phases.StatusApproved {
		t.Errorf("assembly status = %q, want approved", w.Phases[phases.Assembly].Status)
	}
}

func TestProgressOnlyCountsApprovals(t *testing.T) {
	reg := phases.DefaultRegistry()
	w := workflow.New(reg, testTime)

	if got := workflow.Summarize(w, reg).ProgressPercent; got != 0 {
		t.Fatalf("initial progress = %d, want 0", got)
	}
	if _, err := workflow.SetPhaseStatus(w, reg, phases.Research, phases.StatusReview, "", testTime); err != nil {
		t.Fatalf("set review: %v", err)
	}
	if got := workflow.Summarize(w, reg).ProgressPercent; got != 0 {
		t.Errorf("progress after review = %d, want 0", got)
	}
	if _, err := workflow.ApproveCurrent(w, reg, "", testTime); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got := workflow.Summarize(w, reg).ProgressPercent; got != 20 {
		t.Errorf("progress after one approval = %d, want 20", got)
	}
}

func TestSetPhaseStatusIsIdempotentExceptNotes(t *testing.T) {
	reg := phases.DefaultRegistry()
	w := workflow.New(reg, testTime)

	first := testTime.Add(time.Minute)
	if _, err := workflow.SetPhaseStatus(w, reg, phases.Research, phases.StatusApproved, "ship it", first); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	completed := *w.Phases[phases.Research].CompletedAt

	later := testTime.Add(time.Hour)
	if _, err := workflow.SetPhaseStatus(w, reg, phases.Research, phases.StatusApproved, "ship it", later); err != nil {
		t.Fatalf("second approve: %v", err)
	}
	research := w.Phases[phases.Research]
	if !research.CompletedAt.Equal(completed) {
		t.Errorf("completedAt restamped: %v, want %v", research.CompletedAt, completed)
	}
	if w.CurrentPhase != phases.Archive {
		t.Errorf("current phase = %q, want %q", w.CurrentPhase, phases.Archive)
	}
	if len(research.Notes) != 2 {
		t.Errorf("notes = %d, want 2 (notes always append)", len(research.Notes))
	}
}

func TestRejectionRequiresNote(t *testing.T) {
	reg := phases.DefaultRegistry()
	w := workflow.New(reg, testTime)

	if _, err := workflow.RequestRevision(w, reg, "", testTime); err == nil {
		t.Fatal("expected error for rejection without note")
	}
	if w.Phases[phases.Research].Status != phases.StatusInProgress {
		t.Error("failed rejection mutated phase status")
	}
}

func TestRejectionStaysOnPhase(t *testing.T) {
	reg := phases.DefaultRegistry()
	w := workflow.New(reg, testTime)

	current, err := workflow.RequestRevision(w, reg, "needs more sources", testTime)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if current != phases.Research {
		t.Errorf("current phase = %q, want %q", current, phases.Research)
	}
	research := w.Phases[phases.Research]
	if research.Status != phases.StatusRejected {
		t.Errorf("status = %q, want rejected", research.Status)
	}
	if research.CompletedAt != nil {
		t.Error("completedAt set on rejected phase")
	}

	// Work resumes via an explicit status write, not an implicit transition.
	if _, err := workflow.SetPhaseStatus(w, reg, phases.Research, phases.StatusInProgress, "reworking", testTime); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if research.Status != phases.StatusInProgress {
		t.Errorf("status = %q, want in_progress", research.Status)
	}
}

func TestUnknownPhaseRejected(t *testing.T) {
	reg := phases.DefaultRegistry()
	w := workflow.New(reg, testTime)

	if _, err := workflow.SetPhaseStatus(w, reg, phases.ID("color_grading"), phases.StatusApproved, "", testTime); err == nil {
		t.Fatal("expected error for unknown phase")
	}
}

func TestReviewScenario(t *testing.T) {
	reg := phases.DefaultRegistry()
	w := workflow.New(reg, testTime)

	if _, err := workflow.ApproveCurrent(w, reg, "looks good", testTime.Add(time.Hour)); err != nil {
		t.Fatalf("approve research: %v", err)
	}
	if _, err := workflow.RequestRevision(w, reg, "needs more footage", testTime.Add(2*time.Hour)); err != nil {
		t.Fatalf("reject archive: %v", err)
	}

	summary := workflow.Summarize(w, reg)
	if summary.CurrentPhase != phases.Archive {
		t.Errorf("current phase = %q, want %q", summary.CurrentPhase, phases.Archive)
	}
	if summary.ProgressPercent != 20 {
		t.Errorf("progress = %d, want 20", summary.ProgressPercent)
	}
	if summary.CompletedCount != 1 {
		t.Errorf("completed count = %d, want 1", summary.CompletedCount)
	}
	for _, row := range summary.Phases {
		switch row.ID {
		case phases.Research:
			if row.Status != phases.StatusApproved {
				t.Errorf("research = %q, want approved", row.Status)
			}
		case phases.Archive:
			if row.Status != phases.StatusRejected {
				t.Errorf("archive = %q, want rejected", row.Status)
			}
			if len(row.Notes) != 1 || row.Notes[0].Text != "needs more footage" {
				t.Errorf("archive notes = %+v", row.Notes)
			}
			if !row.Current {
				t.Error("archive not marked current")
			}
		default:
			if row.Status != phases.StatusPending {
				t.Errorf("%s = %q, want pending", row.ID, row.Status)
			}
		}
	}
}

type memoryStore struct {
	mu        sync.Mutex
	workflows map[string]*workflow.Workflow
}

func newMemoryStore() *memoryStore {
	return &memoryStore{workflows: make(map[string]*workflow.Workflow)}
}

func (s *memoryStore) Workflow(_ context.Context, episodeID string) (*workflow.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workflows[episodeID].Clone(), nil
}

func (s *memoryStore) SetWorkflow(_ context.Context, episodeID string, w *workflow.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[episodeID] = w.Clone()
	return nil
}

func TestMachineSerializesConcurrentNotes(t *testing.T) {
	store := newMemoryStore()
	machine := workflow.NewMachine(store, phases.DefaultRegistry(), nil)
	ctx := context.Background()

	if _, err := machine.Initialize(ctx, "ep-1"); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := machine.SetPhaseStatus(ctx, "ep-1", phases.Research, phases.StatusInProgress, "note"); err != nil {
				t.Errorf("set status: %v", err)
			}
		}()
	}
	wg.Wait()

	w, err := store.Workflow(ctx, "ep-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := len(w.Phases[phases.Research].Notes); got != writers {
		t.Errorf("notes = %d, want %d (lost update)", got, writers)
	}
}

func TestMachineStatus(t *testing.T) {
	store := newMemoryStore()
	machine := workflow.NewMachine(store, phases.DefaultRegistry(), nil)
	ctx := context.Background()

	if _, err := machine.Initialize(ctx, "ep-2"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if _, err := machine.ApproveCurrent(ctx, "ep-2", "solid research"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	summary, err := machine.Status(ctx, "ep-2")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if summary.CurrentPhase != phases.Archive {
		t.Errorf("current phase = %q, want %q", summary.CurrentPhase, phases.Archive)
	}
	if summary.CurrentPhaseName == "" {
		t.Error("current phase name empty")
	}
}
