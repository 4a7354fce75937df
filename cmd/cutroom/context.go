package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"cutroom/internal/agents"
	"cutroom/internal/config"
	"cutroom/internal/dashboard"
	"cutroom/internal/episodes"
	"cutroom/internal/logging"
	"cutroom/internal/phases"
	"cutroom/internal/pipeline"
	"cutroom/internal/projects"
	"cutroom/internal/scripts"
	"cutroom/internal/services/llm"
	"cutroom/internal/store"
	"cutroom/internal/workflow"
)

// commandContext lazily builds the service graph shared by all commands.
// Config and store setup run at most once per invocation.
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	servicesOnce sync.Once
	servicesErr  error
	store        *store.Store
	logger       *slog.Logger
	registry     *phases.Registry
	projects     *projects.Service
	episodes     *episodes.Service
	machine      *workflow.Machine
	tracker      *agents.Tracker
	scripts      *scripts.Service
	dashboard    *dashboard.Aggregator
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureServices() error {
	c.servicesOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.servicesErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.servicesErr = fmt.Errorf("initialize logging: %w", err)
			return
		}
		st, err := store.Open(cfg)
		if err != nil {
			c.servicesErr = fmt.Errorf("open store: %w", err)
			return
		}

		c.logger = logger
		c.store = st
		c.registry = phases.DefaultRegistry()
		c.projects = projects.NewService(st, logger)
		c.episodes = episodes.NewService(st, c.registry, logger)
		c.machine = workflow.NewMachine(c.episodes, c.registry, logger)
		c.tracker = agents.NewTracker(st, logger)
		c.scripts = scripts.NewService(st, logger)
		c.dashboard = dashboard.New(c.episodes, c.registry)
	})
	return c.servicesErr
}

func (c *commandContext) close() {
	if c.store != nil {
		_ = c.store.Close()
	}
}

// generator builds the LLM client from the loaded config.
func (c *commandContext) generator() (*llm.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	settings := cfg.GetLLM()
	if settings.APIKey == "" {
		return nil, fmt.Errorf("llm api key not configured; set llm.api_key in the config file or export CUTROOM_LLM_API_KEY")
	}
	return llm.NewClient(llm.Config{
		APIKey:         settings.APIKey,
		BaseURL:        settings.BaseURL,
		Model:          settings.Model,
		Referer:        settings.Referer,
		Title:          settings.Title,
		TimeoutSeconds: settings.TimeoutSeconds,
	}), nil
}

// pipelineOptions maps workflow config onto orchestrator options.
func (c *commandContext) pipelineOptions() pipeline.Options {
	opts := pipeline.Options{}
	if c.config != nil {
		opts.CallTimeout = c.config.AgentCallTimeout()
		opts.ContextLimit = c.config.Workflow.AgentContextLimit
		opts.TargetRuntime = c.config.Workflow.TargetRuntime
	}
	return opts
}

// withExclusiveLock serializes commands that generate or mutate pipeline
// output, so two invocations cannot race on the same data directory.
func (c *commandContext) withExclusiveLock(fn func() error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	lock := flock.New(filepath.Join(cfg.Paths.LogDir, "cutroom.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another cutroom command is already running against this data directory")
	}
	defer func() { _ = lock.Unlock() }()
	return fn()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
