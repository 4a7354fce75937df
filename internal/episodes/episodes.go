// Package episodes manages episode records and their embedded workflow
// state. The service doubles as the workflow machine's persistence backend.
package episodes

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"cutroom/internal/logging"
	"cutroom/internal/phases"
	"cutroom/internal/services"
	"cutroom/internal/store"
	"cutroom/internal/workflow"
)

// Episode is one documentary episode within a project.
type Episode struct {
	ID            string             `json:"id"`
	ProjectID     string             `json:"projectId"`
	Title         string             `json:"title"`
	EpisodeNumber int                `json:"episodeNumber"`
	Topic         string             `json:"topic,omitempty"`
	Description   string             `json:"description,omitempty"`
	Workflow      *workflow.Workflow `json:"workflow,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// Service persists episodes in the document store.
type Service struct {
	store    *store.Store
	registry *phases.Registry
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds a Service over the document store.
func NewService(st *store.Store, reg *phases.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		store:    st,
		registry: reg,
		logger:   logging.NewComponentLogger(logger, "episodes"),
		now:      time.Now,
	}
}

// Create stores a new episode with a freshly bootstrapped workflow: the
// first phase starts in progress, everything after it pending.
func (s *Service) Create(ctx context.Context, projectID, title string, episodeNumber int, topic, description string) (*Episode, error) {
	projectID = strings.TrimSpace(projectID)
	title = strings.TrimSpace(title)
	if projectID == "" {
		return nil, services.Wrap(services.ErrValidation, "episodes", "create", "project id required", nil)
	}
	if title == "" {
		return nil, services.Wrap(services.ErrValidation, "episodes", "create", "title required", nil)
	}
	if episodeNumber < 1 {
		return nil, services.Wrap(services.ErrValidation, "episodes", "create", "episode number must be positive", nil)
	}
	if _, err := s.store.Get(ctx, store.CollectionProjects, projectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, services.Wrap(services.ErrNotFound, "episodes", "create", "project "+projectID, nil)
		}
		return nil, services.Wrap(services.ErrTransient, "episodes", "create", "check project", err)
	}

	now := s.now().UTC()
	episode := &Episode{
		ID:            uuid.NewString(),
		ProjectID:     projectID,
		Title:         title,
		EpisodeNumber: episodeNumber,
		Topic:         strings.TrimSpace(topic),
		Description:   strings.TrimSpace(description),
		Workflow:      workflow.New(s.registry, now),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := s.store.CreateWithID(ctx, store.CollectionEpisodes, episode.ID, episode); err != nil {
		return nil, services.Wrap(services.ErrTransient, "episodes", "create", "persist episode", err)
	}
	s.logger.InfoContext(ctx, "episode created",
		logging.String(logging.FieldEpisodeID, episode.ID),
		logging.String("project_id", projectID),
		logging.String("title", title))
	return episode, nil
}

// Get loads one episode by identifier.
func (s *Service) Get(ctx context.Context, episodeID string) (*Episode, error) {
	doc, err := s.store.Get(ctx, store.CollectionEpisodes, episodeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, services.Wrap(services.ErrNotFound, "episodes", "get", "episode "+episodeID, nil)
		}
		return nil, services.Wrap(services.ErrTransient, "episodes", "get", "load episode", err)
	}
	var episode Episode
	if err := doc.Decode(&episode); err != nil {
		return nil, services.Wrap(services.ErrTransient, "episodes", "get", "decode episode", err)
	}
	episode.ID = doc.ID
	return &episode, nil
}

// ByProject returns a project's episodes in creation order.
func (s *Service) ByProject(ctx context.Context, projectID string) ([]*Episode, error) {
	docs, err := s.store.QueryField(ctx, store.CollectionEpisodes, "projectId", projectID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "episodes", "list", "query episodes", err)
	}
	return decodeEpisodes(docs)
}

// List returns every episode in creation order.
func (s *Service) List(ctx context.Context) ([]*Episode, error) {
	docs, err := s.store.List(ctx, store.CollectionEpisodes)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "episodes", "list", "query episodes", err)
	}
	return decodeEpisodes(docs)
}

// Update rewrites an episode's mutable fields. Empty fields are left
// unchanged; the workflow is never touched here.
func (s *Service) Update(ctx context.Context, episodeID, title, topic, description string) (*Episode, error) {
	episode, err := s.Get(ctx, episodeID)
	if err != nil {
		return nil, err
	}
	if title = strings.TrimSpace(title); title != "" {
		episode.Title = title
	}
	if topic = strings.TrimSpace(topic); topic != "" {
		episode.Topic = topic
	}
	if description = strings.TrimSpace(description); description != "" {
		episode.Description = description
	}
	episode.UpdatedAt = s.now().UTC()
	if _, err := s.store.Update(ctx, store.CollectionEpisodes, episodeID, episode); err != nil {
		return nil, services.Wrap(services.ErrTransient, "episodes", "update", "persist episode", err)
	}
	return episode, nil
}

// Delete removes an episode.
func (s *Service) Delete(ctx context.Context, episodeID string) error {
	removed, err := s.store.Remove(ctx, store.CollectionEpisodes, episodeID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "episodes", "delete", "remove episode", err)
	}
	if !removed {
		return services.Wrap(services.ErrNotFound, "episodes", "delete", "episode "+episodeID, nil)
	}
	s.logger.InfoContext(ctx, "episode deleted", logging.String(logging.FieldEpisodeID, episodeID))
	return nil
}

// Workflow loads an episode's workflow state. Implements workflow.Store.
func (s *Service) Workflow(ctx context.Context, episodeID string) (*workflow.Workflow, error) {
	episode, err := s.Get(ctx, episodeID)
	if err != nil {
		return nil, err
	}
	if episode.Workflow == nil {
		return nil, services.Wrap(services.ErrValidation, "episodes", "workflow", "episode "+episodeID+" has no workflow", nil)
	}
	return episode.Workflow, nil
}

// SetWorkflow replaces an episode's workflow state. Implements workflow.Store.
func (s *Service) SetWorkflow(ctx context.Context, episodeID string, w *workflow.Workflow) error {
	episode, err := s.Get(ctx, episodeID)
	if err != nil {
		return err
	}
	episode.Workflow = w
	episode.UpdatedAt = s.now().UTC()
	if _, err := s.store.Update(ctx, store.CollectionEpisodes, episodeID, episode); err != nil {
		return services.Wrap(services.ErrTransient, "episodes", "set_workflow", "persist episode", err)
	}
	return nil
}

func decodeEpisodes(docs []*store.Document) ([]*Episode, error) {
	episodes := make([]*Episode, 0, len(docs))
	for _, doc := range docs {
		var episode Episode
		if err := doc.Decode(&episode); err != nil {
			return nil, services.Wrap(services.ErrTransient, "episodes", "list", "decode episode", err)
		}
		episode.ID = doc.ID
		episodes = append(episodes, &episode)
	}
	return episodes, nil
}
