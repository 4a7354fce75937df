// Package pipeline runs the scripted production pass for one episode: three
// specialist agents gather material concurrently, the script writer
// synthesizes their output into a draft, and the fact checker reviews it.
// Only the synthesis step is fatal; a failed specialist degrades the run and
// a failed review is advisory.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"cutroom/internal/agents"
	"cutroom/internal/logging"
	"cutroom/internal/scripts"
	"cutroom/internal/services"
)

// ErrSynthesisFailed marks a run whose script synthesis step failed. No
// script version is produced, but the specialist outputs gathered before the
// failure are still returned.
var ErrSynthesisFailed = errors.New("script synthesis failed")

// Generator issues one generation call. Implemented by the llm client.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Recorder persists agent task lifecycle records for a run.
type Recorder interface {
	Create(ctx context.Context, episodeID string, kind agents.Kind, taskType, input string) (*agents.Task, error)
	MarkRunning(ctx context.Context, taskID string) (*agents.Task, error)
	Complete(ctx context.Context, taskID, output string) (*agents.Task, error)
	Fail(ctx context.Context, taskID, reason string) (*agents.Task, error)
}

// ScriptWriterStore persists the synthesized draft.
type ScriptWriterStore interface {
	Create(ctx context.Context, episodeID string, draft scripts.Draft) (*scripts.Version, error)
}

// Inputs describes the episode a run works on. The source material fields are
// optional; when present each is fed to its specialist, capped at the context
// limit.
type Inputs struct {
	EpisodeID   string
	Title       string
	Topic       string
	Description string

	// ResearchDocuments is existing research text for the research specialist.
	ResearchDocuments string
	// ArchiveIndex is a catalog of already-located archival material.
	ArchiveIndex string
	// InterviewTranscripts is raw transcript text for the interview producer.
	InterviewTranscripts string
	// StyleGuide is the series' editorial style text, applied at synthesis.
	StyleGuide string
}

// Options tune a run. Zero values fall back to the defaults below.
type Options struct {
	// CallTimeout bounds each individual generation call. A call that
	// exceeds it counts as a failed call.
	CallTimeout time.Duration
	// ContextLimit caps how many characters of each specialist's output are
	// fed into synthesis.
	ContextLimit int
	// TargetRuntime is the episode length the script writer aims for.
	TargetRuntime string
}

const (
	defaultCallTimeout   = 120 * time.Second
	defaultContextLimit  = 10_000
	defaultTargetRuntime = "45 minutes"
)

func (o Options) withDefaults() Options {
	if o.CallTimeout <= 0 {
		o.CallTimeout = defaultCallTimeout
	}
	if o.ContextLimit <= 0 {
		o.ContextLimit = defaultContextLimit
	}
	if strings.TrimSpace(o.TargetRuntime) == "" {
		o.TargetRuntime = defaultTargetRuntime
	}
	return o
}

// StepStatus is the outcome of one agent step within a run.
type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// Step records one agent call's outcome.
type Step struct {
	Agent    agents.Kind   `json:"agent"`
	TaskType string        `json:"taskType"`
	Status   StepStatus    `json:"status"`
	Output   string        `json:"output,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Result is the full outcome of one pipeline run.
type Result struct {
	EpisodeID     string           `json:"episodeId"`
	Steps         []Step           `json:"steps"`
	Research      string           `json:"research,omitempty"`
	ArchiveNotes  string           `json:"archiveNotes,omitempty"`
	Interviews    string           `json:"interviews,omitempty"`
	Script        string           `json:"script,omitempty"`
	Review        string           `json:"review,omitempty"`
	ScriptVersion *scripts.Version `json:"scriptVersion,omitempty"`
	Degraded      bool             `json:"degraded"`
	StartedAt     time.Time        `json:"startedAt"`
	FinishedAt    time.Time        `json:"finishedAt"`
}

// Orchestrator coordinates the agent calls for a run.
type Orchestrator struct {
	generator Generator
	recorder  Recorder
	scripts   ScriptWriterStore
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
}

// New builds an Orchestrator. The recorder and script store may be nil in
// which case task records and draft persistence are skipped.
func New(generator Generator, recorder Recorder, scriptStore ScriptWriterStore, opts Options, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		generator: generator,
		recorder:  recorder,
		scripts:   scriptStore,
		opts:      opts.withDefaults(),
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		now:       time.Now,
	}
}

type fanoutSpec struct {
	kind     agents.Kind
	taskType string
	prompt   func(Inputs, int) string
}

var fanoutSpecs = []fanoutSpec{
	{
		kind:     agents.KindResearchSpecialist,
		taskType: "research",
		prompt: func(in Inputs, limit int) string {
			var b strings.Builder
			fmt.Fprintf(&b,
				"Research the documentary episode %q about: %s\n%s\n"+
					"Deliver a research brief: chronological timeline of key events with dates, "+
					"the principal figures involved, and the most telling details a filmmaker could use.",
				in.Title, in.Topic, in.Description)
			appendMaterial(&b, "EXISTING RESEARCH", in.ResearchDocuments, limit)
			return b.String()
		},
	},
	{
		kind:     agents.KindArchiveSpecialist,
		taskType: "archive_search",
		prompt: func(in Inputs, limit int) string {
			var b strings.Builder
			fmt.Fprintf(&b,
				"Find archival material for the documentary episode %q about: %s\n%s\n"+
					"List footage, photographs, audio, and documents worth pursuing, with likely "+
					"holding institutions and licensing notes.",
				in.Title, in.Topic, in.Description)
			appendMaterial(&b, "CLIP INDEX", in.ArchiveIndex, limit)
			return b.String()
		},
	},
	{
		kind:     agents.KindInterviewProducer,
		taskType: "interview_prep",
		prompt: func(in Inputs, limit int) string {
			var b strings.Builder
			fmt.Fprintf(&b,
				"Plan interviews for the documentary episode %q about: %s\n%s\n"+
					"Propose interview subjects with rationale and draft open-ended questions for each.",
				in.Title, in.Topic, in.Description)
			appendMaterial(&b, "TRANSCRIPT SEGMENTS", in.InterviewTranscripts, limit)
			return b.String()
		},
	},
}

func appendMaterial(b *strings.Builder, label, material string, limit int) {
	if strings.TrimSpace(material) == "" {
		return
	}
	fmt.Fprintf(b, "\n\n%s:\n%s", label, truncate(material, limit))
}

// Run executes the full production pass for one episode.
func (o *Orchestrator) Run(ctx context.Context, in Inputs) (*Result, error) {
	if strings.TrimSpace(in.EpisodeID) == "" {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "run", "episode id required", nil)
	}
	if strings.TrimSpace(in.Topic) == "" {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "run", "topic required", nil)
	}

	ctx = services.WithEpisodeID(ctx, in.EpisodeID)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, o.logger)

	result := &Result{
		EpisodeID: in.EpisodeID,
		StartedAt: o.now().UTC(),
	}
	logger.InfoContext(ctx, "pipeline run started", logging.String("topic", in.Topic))

	// Specialists run concurrently; each failure is converted into a
	// placeholder so synthesis still has something to work with.
	fanout := o.runFanout(ctx, in)
	for _, step := range fanout {
		result.Steps = append(result.Steps, step)
		if step.Status == StepFailed {
			result.Degraded = true
		}
	}
	result.Research = fanout[0].materialOrPlaceholder()
	result.ArchiveNotes = fanout[1].materialOrPlaceholder()
	result.Interviews = fanout[2].materialOrPlaceholder()

	// Synthesis is the one step the run cannot survive.
	scriptStep := o.runStep(ctx, in.EpisodeID, agents.KindScriptWriter, "script_synthesis", o.synthesisPrompt(in, result))
	result.Steps = append(result.Steps, scriptStep)
	if scriptStep.Status != StepCompleted {
		result.Steps = append(result.Steps, Step{
			Agent:    agents.KindFactChecker,
			TaskType: "fact_check",
			Status:   StepSkipped,
		})
		result.FinishedAt = o.now().UTC()
		logger.ErrorContext(ctx, "pipeline run failed", logging.String("reason", scriptStep.Error))
		return result, fmt.Errorf("%w: %s", ErrSynthesisFailed, scriptStep.Error)
	}
	result.Script = scriptStep.Output

	// Review is advisory: a failed fact check degrades the run but the
	// draft still lands.
	reviewStep := o.runStep(ctx, in.EpisodeID, agents.KindFactChecker, "fact_check", o.reviewPrompt(in, result.Script))
	result.Steps = append(result.Steps, reviewStep)
	if reviewStep.Status == StepCompleted {
		result.Review = reviewStep.Output
	} else {
		result.Degraded = true
	}

	if o.scripts != nil {
		notes := "Generated by the production pipeline"
		if result.Degraded {
			notes += " (degraded run: one or more agent steps failed)"
		}
		version, err := o.scripts.Create(ctx, in.EpisodeID, scripts.Draft{
			VersionType: scripts.VersionInitial,
			Content:     result.Script,
			Author:      "pipeline",
			ChangeNotes: notes,
			FactCheck:   result.Review,
			AgentOutputs: map[string]string{
				"research":   result.Research,
				"archive":    result.ArchiveNotes,
				"interviews": result.Interviews,
			},
		})
		if err != nil {
			result.FinishedAt = o.now().UTC()
			return result, services.Wrap(services.ErrTransient, "pipeline", "run", "persist script version", err)
		}
		result.ScriptVersion = version
	}

	result.FinishedAt = o.now().UTC()
	logger.InfoContext(ctx, "pipeline run finished", logging.Bool("degraded", result.Degraded))
	return result, nil
}

func (s Step) materialOrPlaceholder() string {
	if s.Status == StepCompleted {
		return s.Output
	}
	return "Error: " + s.Error
}

func (o *Orchestrator) runFanout(ctx context.Context, in Inputs) []Step {
	steps := make([]Step, len(fanoutSpecs))
	var wg sync.WaitGroup
	for i, spec := range fanoutSpecs {
		wg.Add(1)
		go func(i int, spec fanoutSpec) {
			defer wg.Done()
			steps[i] = o.runStep(ctx, in.EpisodeID, spec.kind, spec.taskType, spec.prompt(in, o.opts.ContextLimit))
		}(i, spec)
	}
	wg.Wait()
	return steps
}

func (o *Orchestrator) runStep(ctx context.Context, episodeID string, kind agents.Kind, taskType, prompt string) Step {
	ctx = services.WithAgent(ctx, string(kind))
	ctx = services.WithStage(ctx, taskType)
	logger := logging.WithContext(ctx, o.logger)

	step := Step{Agent: kind, TaskType: taskType}
	started := o.now()

	// Task bookkeeping writes survive cancellation of the run context; a
	// cancelled call still has to leave a failed record behind.
	recordCtx := context.WithoutCancel(ctx)
	var taskID string
	if o.recorder != nil {
		task, err := o.recorder.Create(recordCtx, episodeID, kind, taskType, prompt)
		if err != nil {
			logger.WarnContext(ctx, "task record failed", logging.Error(err))
		} else {
			taskID = task.ID
			if _, err := o.recorder.MarkRunning(recordCtx, taskID); err != nil {
				logger.WarnContext(ctx, "task record failed", logging.Error(err))
				taskID = ""
			}
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, o.opts.CallTimeout)
	output, err := o.generator.Generate(callCtx, kind.SystemPrompt(), prompt)
	cancel()

	step.Duration = o.now().Sub(started)
	if err != nil {
		step.Status = StepFailed
		step.Error = err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			step.Error = fmt.Sprintf("call exceeded %s timeout", o.opts.CallTimeout)
		} else if errors.Is(err, context.Canceled) {
			step.Error = "pipeline run cancelled"
		}
		if taskID != "" {
			if _, ferr := o.recorder.Fail(recordCtx, taskID, step.Error); ferr != nil {
				logger.WarnContext(ctx, "task record failed", logging.Error(ferr))
			}
		}
		logger.WarnContext(ctx, "agent step failed",
			logging.String("error_detail", step.Error))
		return step
	}

	step.Status = StepCompleted
	step.Output = output
	if taskID != "" {
		if _, cerr := o.recorder.Complete(recordCtx, taskID, output); cerr != nil {
			logger.WarnContext(ctx, "task record failed", logging.Error(cerr))
		}
	}
	logger.InfoContext(ctx, "agent step completed",
		logging.Duration("duration", step.Duration))
	return step
}

func (o *Orchestrator) synthesisPrompt(in Inputs, result *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write the script for the documentary episode %q about: %s\n", in.Title, in.Topic)
	fmt.Fprintf(&b, "Target runtime: %s.\n", o.opts.TargetRuntime)
	b.WriteString("Structure it in segments: voiceover narration, archive footage callouts, " +
		"interview callouts, and callouts for visuals to be produced.\n\n")
	b.WriteString("RESEARCH BRIEF:\n")
	b.WriteString(truncate(result.Research, o.opts.ContextLimit))
	b.WriteString("\n\nARCHIVE NOTES:\n")
	b.WriteString(truncate(result.ArchiveNotes, o.opts.ContextLimit))
	b.WriteString("\n\nINTERVIEW PLAN:\n")
	b.WriteString(truncate(result.Interviews, o.opts.ContextLimit))
	appendMaterial(&b, "SERIES STYLE GUIDE", in.StyleGuide, o.opts.ContextLimit)
	b.WriteString("\n\nA section beginning with \"Error:\" means that specialist failed; write around the gap.")
	return b.String()
}

func (o *Orchestrator) reviewPrompt(in Inputs, script string) string {
	return fmt.Sprintf(
		"Fact-check this documentary script for the episode %q about: %s\n\nSCRIPT:\n%s",
		in.Title, in.Topic, truncate(script, o.opts.ContextLimit))
}

func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
