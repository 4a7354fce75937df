package config

import (
	"os"
	"strings"
)

// normalize expands path fields and applies environment overrides.
func (c *Config) normalize() error {
	if key := strings.TrimSpace(os.Getenv("CUTROOM_LLM_API_KEY")); key != "" {
		c.LLM.APIKey = key
	}

	dataDir, err := expandPath(c.Paths.DataDir)
	if err != nil {
		return err
	}
	c.Paths.DataDir = dataDir

	logDir, err := expandPath(c.Paths.LogDir)
	if err != nil {
		return err
	}
	c.Paths.LogDir = logDir

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Workflow.TargetRuntime = strings.TrimSpace(c.Workflow.TargetRuntime); c.Workflow.TargetRuntime == "" {
		c.Workflow.TargetRuntime = defaultTargetRuntime
	}
	return nil
}
