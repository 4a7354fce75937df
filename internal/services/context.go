package services

import "context"

type contextKey string

const (
	episodeIDKey contextKey = "episode_id"
	stageKey     contextKey = "stage"
	agentKey     contextKey = "agent"
	requestIDKey contextKey = "request_id"
)

// WithEpisodeID stores an episode identifier on the context for logging.
func WithEpisodeID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, episodeIDKey, id)
}

// EpisodeIDFromContext extracts the episode identifier if present.
func EpisodeIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(episodeIDKey).(string)
	return id, ok && id != ""
}

// WithStage stores a pipeline stage name on the context for logging.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext extracts the pipeline stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	stage, ok := ctx.Value(stageKey).(string)
	return stage, ok && stage != ""
}

// WithAgent stores an agent kind on the context for logging.
func WithAgent(ctx context.Context, agent string) context.Context {
	return context.WithValue(ctx, agentKey, agent)
}

// AgentFromContext extracts the agent kind if present.
func AgentFromContext(ctx context.Context) (string, bool) {
	agent, ok := ctx.Value(agentKey).(string)
	return agent, ok && agent != ""
}

// WithRequestID stores a correlation identifier on the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok && id != ""
}
