// Package projects manages documentary series records. A project groups the
// episodes of one series.
package projects

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"cutroom/internal/logging"
	"cutroom/internal/services"
	"cutroom/internal/store"
)

// Project is one documentary series.
type Project struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Known project statuses.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Service persists projects in the document store.
type Service struct {
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds a Service over the document store.
func NewService(st *store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		store:  st,
		logger: logging.NewComponentLogger(logger, "projects"),
		now:    time.Now,
	}
}

// Create stores a new active project.
func (s *Service) Create(ctx context.Context, title, description string) (*Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, services.Wrap(services.ErrValidation, "projects", "create", "title required", nil)
	}
	now := s.now().UTC()
	project := &Project{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(description),
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.store.CreateWithID(ctx, store.CollectionProjects, project.ID, project); err != nil {
		return nil, services.Wrap(services.ErrTransient, "projects", "create", "persist project", err)
	}
	s.logger.InfoContext(ctx, "project created",
		logging.String("project_id", project.ID),
		logging.String("title", title))
	return project, nil
}

// Get loads one project by identifier.
func (s *Service) Get(ctx context.Context, projectID string) (*Project, error) {
	doc, err := s.store.Get(ctx, store.CollectionProjects, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, services.Wrap(services.ErrNotFound, "projects", "get", "project "+projectID, nil)
		}
		return nil, services.Wrap(services.ErrTransient, "projects", "get", "load project", err)
	}
	var project Project
	if err := doc.Decode(&project); err != nil {
		return nil, services.Wrap(services.ErrTransient, "projects", "get", "decode project", err)
	}
	project.ID = doc.ID
	return &project, nil
}

// List returns every project in creation order.
func (s *Service) List(ctx context.Context) ([]*Project, error) {
	docs, err := s.store.List(ctx, store.CollectionProjects)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "projects", "list", "query projects", err)
	}
	projects := make([]*Project, 0, len(docs))
	for _, doc := range docs {
		var project Project
		if err := doc.Decode(&project); err != nil {
			return nil, services.Wrap(services.ErrTransient, "projects", "list", "decode project", err)
		}
		project.ID = doc.ID
		projects = append(projects, &project)
	}
	return projects, nil
}

// Update rewrites a project's title, description, or status. Empty fields are
// left unchanged.
func (s *Service) Update(ctx context.Context, projectID, title, description, status string) (*Project, error) {
	project, err := s.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if title = strings.TrimSpace(title); title != "" {
		project.Title = title
	}
	if description = strings.TrimSpace(description); description != "" {
		project.Description = description
	}
	if status = strings.TrimSpace(status); status != "" {
		if status != StatusActive && status != StatusArchived {
			return nil, services.Wrap(services.ErrValidation, "projects", "update", "unknown status "+status, nil)
		}
		project.Status = status
	}
	project.UpdatedAt = s.now().UTC()
	if _, err := s.store.Update(ctx, store.CollectionProjects, projectID, project); err != nil {
		return nil, services.Wrap(services.ErrTransient, "projects", "update", "persist project", err)
	}
	return project, nil
}

// Delete removes a project.
func (s *Service) Delete(ctx context.Context, projectID string) error {
	removed, err := s.store.Remove(ctx, store.CollectionProjects, projectID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "projects", "delete", "remove project", err)
	}
	if !removed {
		return services.Wrap(services.ErrNotFound, "projects", "delete", "project "+projectID, nil)
	}
	s.logger.InfoContext(ctx, "project deleted", logging.String("project_id", projectID))
	return nil
}
