package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"cutroom/internal/agents"
	"cutroom/internal/pipeline"
	"cutroom/internal/scripts"
	"cutroom/internal/testsupport"
)

// stubGenerator routes calls by system prompt so each agent role can be given
// its own behavior.
type stubGenerator struct {
	mu        sync.Mutex
	calls     []agents.Kind
	responses map[agents.Kind]string
	failures  map[agents.Kind]error
	delays    map[agents.Kind]time.Duration
}

func newStubGenerator() *stubGenerator {
	return &stubGenerator{
		responses: map[agents.Kind]string{
			agents.KindResearchSpecialist: "research brief",
			agents.KindArchiveSpecialist:  "archive notes",
			agents.KindInterviewProducer:  "interview plan",
			agents.KindScriptWriter:       "NARRATOR: In the summer of 1969...",
			agents.KindFactChecker:        "all claims check out",
		},
		failures: map[agents.Kind]error{},
		delays:   map[agents.Kind]time.Duration{},
	}
}

func (g *stubGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	kind := g.kindFor(systemPrompt)
	g.mu.Lock()
	g.calls = append(g.calls, kind)
	delay := g.delays[kind]
	failure := g.failures[kind]
	response := g.responses[kind]
	g.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}
	if failure != nil {
		return "", failure
	}
	return response, nil
}

func (g *stubGenerator) kindFor(systemPrompt string) agents.Kind {
	for _, kind := range agents.Kinds() {
		if systemPrompt == kind.SystemPrompt() {
			return kind
		}
	}
	return ""
}

func (g *stubGenerator) callCount(kind agents.Kind) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	count := 0
	for _, k := range g.calls {
		if k == kind {
			count++
		}
	}
	return count
}

var testInputs = pipeline.Inputs{
	EpisodeID:   "ep-1",
	Title:       "One Giant Leap",
	Topic:       "the Apollo 11 moon landing",
	Description: "From launch to splashdown.",
}

func TestRunHappyPath(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	tracker := agents.NewTracker(st, nil)
	scriptSvc := scripts.NewService(st, nil)
	gen := newStubGenerator()
	orch := pipeline.New(gen, tracker, scriptSvc, pipeline.Options{}, nil)

	result, err := orch.Run(context.Background(), testInputs)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Degraded {
		t.Error("run degraded with no failures")
	}
	if result.Script != "NARRATOR: In the summer of 1969..." {
		t.Errorf("script = %q", result.Script)
	}
	if result.Review != "all claims check out" {
		t.Errorf("review = %q", result.Review)
	}
	if len(result.Steps) != 5 {
		t.Fatalf("steps = %d, want 5", len(result.Steps))
	}
	for _, kind := range agents.Kinds() {
		if got := gen.callCount(kind); got != 1 {
			t.Errorf("%s called %d times, want 1", kind, got)
		}
	}

	if result.ScriptVersion == nil {
		t.Fatal("no script version persisted")
	}
	if result.ScriptVersion.VersionNumber != 1 || result.ScriptVersion.VersionType != scripts.VersionInitial {
		t.Errorf("version = %d/%s, want 1/v1_initial", result.ScriptVersion.VersionNumber, result.ScriptVersion.VersionType)
	}
	if result.ScriptVersion.FactCheck != "all claims check out" {
		t.Errorf("fact check = %q", result.ScriptVersion.FactCheck)
	}
	if result.ScriptVersion.AgentOutputs["research"] != "research brief" {
		t.Errorf("agent outputs = %v, raw specialist material must be retained", result.ScriptVersion.AgentOutputs)
	}

	tasks, err := tracker.ByEpisode(context.Background(), "ep-1")
	if err != nil {
		t.Fatalf("tasks: %v", err)
	}
	if len(tasks) != 5 {
		t.Fatalf("task records = %d, want 5", len(tasks))
	}
	for _, task := range tasks {
		if task.Status != agents.TaskCompleted {
			t.Errorf("task %s/%s status = %q, want completed", task.AgentKind, task.TaskType, task.Status)
		}
	}
}

func TestRunSpecialistFailureDegrades(t *testing.T) {
	gen := newStubGenerator()
	gen.failures[agents.KindArchiveSpecialist] = errors.New("archive service unavailable")
	orch := pipeline.New(gen, nil, nil, pipeline.Options{}, nil)

	result, err := orch.Run(context.Background(), testInputs)
	if err != nil {
		t.Fatalf("run: %v (specialist failures must not abort the run)", err)
	}
	if !result.Degraded {
		t.Error("run not marked degraded")
	}
	if !strings.HasPrefix(result.ArchiveNotes, "Error: ") {
		t.Errorf("archive notes = %q, want Error: placeholder", result.ArchiveNotes)
	}
	if result.Research != "research brief" {
		t.Errorf("research = %q, other specialists should be untouched", result.Research)
	}
	if result.Script == "" {
		t.Error("synthesis skipped despite surviving specialists")
	}
}

func TestRunSynthesisFailureIsFatal(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	scriptSvc := scripts.NewService(st, nil)
	gen := newStubGenerator()
	gen.failures[agents.KindScriptWriter] = errors.New("model refused")
	orch := pipeline.New(gen, nil, scriptSvc, pipeline.Options{}, nil)

	result, err := orch.Run(context.Background(), testInputs)
	if !errors.Is(err, pipeline.ErrSynthesisFailed) {
		t.Fatalf("err = %v, want ErrSynthesisFailed", err)
	}
	if result == nil {
		t.Fatal("partial result not returned")
	}
	if result.Research != "research brief" {
		t.Errorf("research = %q, partial outputs must survive", result.Research)
	}
	if result.ScriptVersion != nil {
		t.Error("script version persisted from failed synthesis")
	}
	if got := gen.callCount(agents.KindFactChecker); got != 0 {
		t.Errorf("fact checker called %d times after fatal synthesis, want 0", got)
	}

	versions, verr := scriptSvc.ByEpisode(context.Background(), "ep-1")
	if verr != nil {
		t.Fatalf("versions: %v", verr)
	}
	if len(versions) != 0 {
		t.Errorf("versions = %d, want 0", len(versions))
	}
}

func TestRunReviewFailureIsAdvisory(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	scriptSvc := scripts.NewService(st, nil)
	gen := newStubGenerator()
	gen.failures[agents.KindFactChecker] = errors.New("rate limited")
	orch := pipeline.New(gen, nil, scriptSvc, pipeline.Options{}, nil)

	result, err := orch.Run(context.Background(), testInputs)
	if err != nil {
		t.Fatalf("run: %v (review failures are advisory)", err)
	}
	if !result.Degraded {
		t.Error("run not marked degraded")
	}
	if result.Review != "" {
		t.Errorf("review = %q, want empty", result.Review)
	}
	if result.ScriptVersion == nil {
		t.Error("draft not persisted despite successful synthesis")
	}
}

func TestRunCallTimeoutCountsAsFailure(t *testing.T) {
	gen := newStubGenerator()
	gen.delays[agents.KindResearchSpecialist] = 200 * time.Millisecond
	orch := pipeline.New(gen, nil, nil, pipeline.Options{CallTimeout: 20 * time.Millisecond}, nil)

	result, err := orch.Run(context.Background(), testInputs)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.Degraded {
		t.Error("run not marked degraded by timeout")
	}
	if !strings.Contains(result.Research, "timeout") {
		t.Errorf("research = %q, want timeout placeholder", result.Research)
	}
}

func TestRunCancellationFailsTaskRecords(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	tracker := agents.NewTracker(st, nil)
	gen := newStubGenerator()
	for _, kind := range agents.Kinds() {
		gen.delays[kind] = time.Second
	}
	orch := pipeline.New(gen, tracker, nil, pipeline.Options{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	result, err := orch.Run(ctx, testInputs)
	if !errors.Is(err, pipeline.ErrSynthesisFailed) {
		t.Fatalf("err = %v, want ErrSynthesisFailed after cancellation", err)
	}
	if result == nil {
		t.Fatal("partial result not returned")
	}

	tasks, terr := tracker.ByEpisode(context.Background(), "ep-1")
	if terr != nil {
		t.Fatalf("tasks: %v", terr)
	}
	if len(tasks) == 0 {
		t.Fatal("no task records for cancelled run")
	}
	for _, task := range tasks {
		if task.Status != agents.TaskFailed {
			t.Errorf("task %s status = %q, want failed", task.TaskType, task.Status)
		}
		if !strings.Contains(task.Error, "cancelled") {
			t.Errorf("task %s error = %q, want cancellation reason", task.TaskType, task.Error)
		}
	}
}

func TestRunValidatesInputs(t *testing.T) {
	orch := pipeline.New(newStubGenerator(), nil, nil, pipeline.Options{}, nil)
	if _, err := orch.Run(context.Background(), pipeline.Inputs{Topic: "x"}); err == nil {
		t.Error("expected error for missing episode id")
	}
	if _, err := orch.Run(context.Background(), pipeline.Inputs{EpisodeID: "ep"}); err == nil {
		t.Error("expected error for missing topic")
	}
}

func TestRunCapsSynthesisContext(t *testing.T) {
	var synthesisPrompt string
	gen := newStubGenerator()
	gen.responses[agents.KindResearchSpecialist] = strings.Repeat("a", 500)
	orch := pipeline.New(promptCapture{gen, &synthesisPrompt}, nil, nil, pipeline.Options{ContextLimit: 100}, nil)

	if _, err := orch.Run(context.Background(), testInputs); err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.Contains(synthesisPrompt, strings.Repeat("a", 101)) {
		t.Error("research output not truncated to context limit")
	}
	if !strings.Contains(synthesisPrompt, strings.Repeat("a", 100)) {
		t.Error("truncated research output missing from synthesis prompt")
	}
}

func TestRunFeedsSourceMaterialToSpecialists(t *testing.T) {
	var prompts sync.Map
	gen := newStubGenerator()
	capture := captureAll{gen, &prompts}
	orch := pipeline.New(capture, nil, nil, pipeline.Options{ContextLimit: 50}, nil)

	in := testInputs
	in.ResearchDocuments = "declassified mission logs"
	in.ArchiveIndex = "NASA reel catalog"
	in.InterviewTranscripts = strings.Repeat("t", 200)
	in.StyleGuide = "second person, present tense"

	if _, err := orch.Run(context.Background(), in); err != nil {
		t.Fatalf("run: %v", err)
	}

	prompt := promptFor(t, &prompts, agents.KindResearchSpecialist)
	if !strings.Contains(prompt, "declassified mission logs") {
		t.Error("research documents missing from research prompt")
	}
	prompt = promptFor(t, &prompts, agents.KindArchiveSpecialist)
	if !strings.Contains(prompt, "NASA reel catalog") {
		t.Error("clip index missing from archive prompt")
	}
	prompt = promptFor(t, &prompts, agents.KindInterviewProducer)
	if strings.Contains(prompt, strings.Repeat("t", 51)) {
		t.Error("transcript material not capped at the context limit")
	}
	if !strings.Contains(prompt, strings.Repeat("t", 50)) {
		t.Error("transcript material missing from interview prompt")
	}
	prompt = promptFor(t, &prompts, agents.KindScriptWriter)
	if !strings.Contains(prompt, "second person, present tense") {
		t.Error("style guide missing from synthesis prompt")
	}
}

type captureAll struct {
	*stubGenerator
	prompts *sync.Map
}

func (c captureAll) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	c.prompts.Store(c.kindFor(systemPrompt), userPrompt)
	return c.stubGenerator.Generate(ctx, systemPrompt, userPrompt)
}

func promptFor(t *testing.T, prompts *sync.Map, kind agents.Kind) string {
	t.Helper()
	value, ok := prompts.Load(kind)
	if !ok {
		t.Fatalf("no prompt captured for %s", kind)
	}
	return value.(string)
}

type promptCapture struct {
	*stubGenerator
	synthesis *string
}

func (p promptCapture) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if systemPrompt == agents.KindScriptWriter.SystemPrompt() {
		*p.synthesis = userPrompt
	}
	return p.stubGenerator.Generate(ctx, systemPrompt, userPrompt)
}
