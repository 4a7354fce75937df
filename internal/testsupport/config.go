// Package testsupport provides shared helpers for package tests: per-test
// temp-dir configurations and store lifecycles.
package testsupport

import (
	"path/filepath"
	"testing"

	"cutroom/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.LLM.APIKey = "test"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithAgentCallTimeout overrides the per-agent call timeout on the test config.
func WithAgentCallTimeout(seconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.AgentCallTimeout = seconds
	}
}

// WithAgentContextLimit overrides the agent context cap on the test config.
func WithAgentContextLimit(limit int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.AgentContextLimit = limit
	}
}
