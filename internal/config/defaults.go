package config

const (
	defaultDataDir           = "~/.local/share/cutroom"
	defaultLogDir            = "~/.local/share/cutroom/logs"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel          = "google/gemini-3-flash-preview"
	defaultLLMTitle          = "Cutroom"
	defaultLLMTimeoutSeconds = 120
	defaultAgentCallTimeout  = 120
	defaultAgentContextLimit = 10_000
	defaultTargetRuntime     = "45 minutes"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Workflow: Workflow{
			AgentCallTimeout:  defaultAgentCallTimeout,
			AgentContextLimit: defaultAgentContextLimit,
			TargetRuntime:     defaultTargetRuntime,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
