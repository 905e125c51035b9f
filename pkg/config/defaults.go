package config

import "github.com/papercomputeco/papermind/pkg/llm/provider"

const (
	defaultModel     = provider.DefaultModel
	defaultTimeout   = "5m"
	defaultAPIListen = ":8081"

	defaultExplainContextLimit = 15000
	defaultReportContextLimit  = 30000
)

// NewDefaultConfig returns the configuration used when config.toml, the
// environment and flags leave a key unset.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		LLM: LLMConfig{
			Model:   defaultModel,
			Timeout: defaultTimeout,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Prompt: PromptConfig{
			ExplainContextLimit: defaultExplainContextLimit,
			ReportContextLimit:  defaultReportContextLimit,
		},
	}
}
