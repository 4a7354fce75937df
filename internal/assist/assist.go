// Package assist offers one-off generation helpers for producers working
// outside a full pipeline run: topic research, interview questions, episode
// outlines, and shot ideas. Each helper is a single generation call with no
// retry, mirroring how the pipeline treats its agents.
package assist

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cutroom/internal/agents"
	"cutroom/internal/logging"
	"cutroom/internal/services"
)

// Generator issues one generation call. Implemented by the llm client.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Service runs the helper prompts.
type Service struct {
	generator Generator
	logger    *slog.Logger
}

// NewService builds a Service over the generator.
func NewService(generator Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		generator: generator,
		logger:    logging.NewComponentLogger(logger, "assist"),
	}
}

// Research produces a quick research brief on a topic.
func (s *Service) Research(ctx context.Context, topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", services.Wrap(services.ErrValidation, "assist", "research", "topic required", nil)
	}
	prompt := fmt.Sprintf(
		"Prepare a research brief on: %s\n"+
			"Cover the timeline of key events, principal figures, and the details a documentary "+
			"filmmaker would care about most.", topic)
	return s.generate(ctx, "research", agents.KindResearchSpecialist.SystemPrompt(), prompt)
}

// InterviewQuestions drafts questions for a named subject on a topic.
func (s *Service) InterviewQuestions(ctx context.Context, subject, topic string) (string, error) {
	subject = strings.TrimSpace(subject)
	topic = strings.TrimSpace(topic)
	if subject == "" {
		return "", services.Wrap(services.ErrValidation, "assist", "interview_questions", "subject required", nil)
	}
	if topic == "" {
		return "", services.Wrap(services.ErrValidation, "assist", "interview_questions", "topic required", nil)
	}
	prompt := fmt.Sprintf(
		"Draft interview questions for %s about: %s\n"+
			"Write ten open-ended questions ordered from warm-up to the emotional core of the story.",
		subject, topic)
	return s.generate(ctx, "interview_questions", agents.KindInterviewProducer.SystemPrompt(), prompt)
}

// EpisodeOutline sketches a three-act episode structure for a topic.
func (s *Service) EpisodeOutline(ctx context.Context, title, topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", services.Wrap(services.ErrValidation, "assist", "episode_outline", "topic required", nil)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = topic
	}
	prompt := fmt.Sprintf(
		"Outline the documentary episode %q about: %s\n"+
			"Give a three-act structure with the key beats, suggested archival moments, and where "+
			"interview soundbites should land.", title, topic)
	return s.generate(ctx, "episode_outline", agents.KindScriptWriter.SystemPrompt(), prompt)
}

// ShotIdeas suggests visual treatments for a scene or topic.
func (s *Service) ShotIdeas(ctx context.Context, scene string) (string, error) {
	scene = strings.TrimSpace(scene)
	if scene == "" {
		return "", services.Wrap(services.ErrValidation, "assist", "shot_ideas", "scene required", nil)
	}
	prompt := fmt.Sprintf(
		"Suggest visual treatments for this documentary scene: %s\n"+
			"List archival footage options, recreations, graphics, and b-roll that could carry it.", scene)
	return s.generate(ctx, "shot_ideas", agents.KindArchiveSpecialist.SystemPrompt(), prompt)
}

// ExpandTopic turns a short premise into a fuller episode description.
func (s *Service) ExpandTopic(ctx context.Context, premise string) (string, error) {
	premise = strings.TrimSpace(premise)
	if premise == "" {
		return "", services.Wrap(services.ErrValidation, "assist", "expand_topic", "premise required", nil)
	}
	prompt := fmt.Sprintf(
		"Expand this documentary episode premise into a full description: %s\n"+
			"Explain what the episode covers, why it matters, and the narrative arc it could follow.",
		premise)
	return s.generate(ctx, "expand_topic", agents.KindResearchSpecialist.SystemPrompt(), prompt)
}

func (s *Service) generate(ctx context.Context, operation, systemPrompt, prompt string) (string, error) {
	output, err := s.generator.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		s.logger.WarnContext(ctx, "assist call failed",
			logging.String("operation", operation),
			logging.Error(err))
		return "", services.Wrap(services.ErrExternalTool, "assist", operation, "generation call", err)
	}
	s.logger.InfoContext(ctx, "assist call completed", logging.String("operation", operation))
	return output, nil
}
