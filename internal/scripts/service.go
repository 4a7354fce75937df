package scripts

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cutroom/internal/lockmap"
	"cutroom/internal/logging"
	"cutroom/internal/services"
	"cutroom/internal/store"
)

// Service persists script versions and hands out version numbers. Numbering
// is serialized per episode so two concurrent writers can never claim the
// same number.
type Service struct {
	store  *store.Store
	locks  *lockmap.Map
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
		locks:  lockmap.New(),
		logger: logging.NewComponentLogger(logger, "scripts"),
		now:    time.Now,
	}
}

// Draft carries the caller-supplied fields of a new script version.
type Draft struct {
	VersionType  VersionType
	Content      string
	Author       string
	ChangeNotes  string
	FactCheck    string
	AgentOutputs map[string]string
}

// Create stores a new script version. The version number is one more than
// the episode's current count, assigned under the episode lock.
func (s *Service) Create(ctx context.Context, episodeID string, draft Draft) (*Version, error) {
	if episodeID == "" {
		return nil, services.Wrap(services.ErrValidation, "scripts", "create", "episode id required", nil)
	}
	if _, err := ParseVersionType(string(draft.VersionType)); err != nil {
		return nil, services.Wrap(services.ErrValidation, "scripts", "create", string(draft.VersionType), err)
	}

	unlock := s.locks.Lock(episodeID)
	defer unlock()

	count, err := s.store.CountField(ctx, store.CollectionScriptVersions, "episodeId", episodeID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "scripts", "create", "count versions", err)
	}

	now := s.now().UTC()
	version := &Version{
		ID:            uuid.NewString(),
		EpisodeID:     episodeID,
		VersionNumber: count + 1,
		VersionType:   draft.VersionType,
		Content:       draft.Content,
		Author:        draft.Author,
		ChangeNotes:   draft.ChangeNotes,
		FactCheck:     draft.FactCheck,
		AgentOutputs:  draft.AgentOutputs,
		WordCount:     countWords(draft.Content),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := s.store.CreateWithID(ctx, store.CollectionScriptVersions, version.ID, version); err != nil {
		return nil, services.Wrap(services.ErrTransient, "scripts", "create", "persist version", err)
	}

	s.logger.InfoContext(ctx, "script version created",
		logging.String(logging.FieldEpisodeID, episodeID),
		logging.Int("version_number", version.VersionNumber),
		logging.String("version_type", string(draft.VersionType)),
		logging.Int("word_count", version.WordCount))
	return version, nil
}

// Get loads one version by identifier.
func (s *Service) Get(ctx context.Context, versionID string) (*Version, error) {
	doc, err := s.store.Get(ctx, store.CollectionScriptVersions, versionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, services.Wrap(services.ErrNotFound, "scripts", "get", "version "+versionID, nil)
		}
		return nil, services.Wrap(services.ErrTransient, "scripts", "get", "load version", err)
	}
	var version Version
	if err := doc.Decode(&version); err != nil {
		return nil, services.Wrap(services.ErrTransient, "scripts", "get", "decode version", err)
	}
	version.ID = doc.ID
	return &version, nil
}

// ByEpisode returns an episode's versions in creation order, which matches
// version-number order.
func (s *Service) ByEpisode(ctx context.Context, episodeID string) ([]*Version, error) {
	docs, err := s.store.QueryField(ctx, store.CollectionScriptVersions, "episodeId", episodeID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "scripts", "list", "query versions", err)
	}
	versions := make([]*Version, 0, len(docs))
	for _, doc := range docs {
		var version Version
		if err := doc.Decode(&version); err != nil {
			return nil, services.Wrap(services.ErrTransient, "scripts", "list", "decode version", err)
		}
		version.ID = doc.ID
		versions = append(versions, &version)
	}
	return versions, nil
}

// Latest returns the highest-numbered version for an episode, or nil when the
// episode has no versions yet.
func (s *Service) Latest(ctx context.Context, episodeID string) (*Version, error) {
	versions, err := s.ByEpisode(ctx, episodeID)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, nil
	}
	latest := versions[0]
	for _, version := range versions[1:] {
		if version.VersionNumber > latest.VersionNumber {
			latest = version
		}
	}
	return latest, nil
}

// UpdateContent rewrites a version's content and change notes. Locked
// versions reject edits.
func (s *Service) UpdateContent(ctx context.Context, versionID, content, changeNotes string) (*Version, error) {
	version, err := s.Get(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if version.Locked {
		return nil, services.Wrap(services.ErrValidation, "scripts", "update", "version "+versionID, ErrVersionLocked)
	}
	version.Content = content
	version.WordCount = countWords(content)
	if changeNotes != "" {
		version.ChangeNotes = changeNotes
	}
	version.UpdatedAt = s.now().UTC()
	if _, err := s.store.Update(ctx, store.CollectionScriptVersions, versionID, version); err != nil {
		return nil, services.Wrap(services.ErrTransient, "scripts", "update", "persist version", err)
	}
	return version, nil
}

// Lock freezes a version against further edits. Locking is idempotent.
func (s *Service) Lock(ctx context.Context, versionID string) (*Version, error) {
	version, err := s.Get(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if version.Locked {
		return version, nil
	}
	version.Locked = true
	version.UpdatedAt = s.now().UTC()
	if _, err := s.store.Update(ctx, store.CollectionScriptVersions, versionID, version); err != nil {
		return nil, services.Wrap(services.ErrTransient, "scripts", "lock", "persist version", err)
	}
	s.logger.InfoContext(ctx, "script version locked",
		logging.String(logging.FieldEpisodeID, version.EpisodeID),
		logging.Int("version_number", version.VersionNumber))
	return version, nil
}
