package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config represents the persistent papermind configuration stored as
// config.toml in the .papermind/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version int          `toml:"version"`
	LLM     LLMConfig    `toml:"llm"`
	API     APIConfig    `toml:"api"`
	Prompt  PromptConfig `toml:"prompt"`
}

// LLMConfig holds the upstream chat completion settings. The API key is not
// stored here; see the credentials package.
type LLMConfig struct {
	Model   string `toml:"model,omitempty"`
	BaseURL string `toml:"base_url,omitempty"`
	Timeout string `toml:"timeout,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// PromptConfig holds the context window limits, in characters, applied
// before a document is sent upstream.
type PromptConfig struct {
	ExplainContextLimit int `toml:"explain_context_limit,omitempty"`
	ReportContextLimit  int `toml:"report_context_limit,omitempty"`
}

// configKey is one user-facing dotted key, in TOML section order.
type configKey struct {
	name string
	get  func(c *Config) any
	set  func(c *Config, v string) error
}

var configKeys = []configKey{
	{
		name: "llm.model",
		get:  func(c *Config) any { return c.LLM.Model },
		set:  func(c *Config, v string) error { c.LLM.Model = v; return nil },
	},
	{
		name: "llm.base_url",
		get:  func(c *Config) any { return c.LLM.BaseURL },
		set:  func(c *Config, v string) error { c.LLM.BaseURL = v; return nil },
	},
	{
		name: "llm.timeout",
		get:  func(c *Config) any { return c.LLM.Timeout },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return err
			}
			c.LLM.Timeout = v
			return nil
		},
	},
	{
		name: "api.listen",
		get:  func(c *Config) any { return c.API.Listen },
		set:  func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	{
		name: "prompt.explain_context_limit",
		get:  func(c *Config) any { return c.Prompt.ExplainContextLimit },
		set:  limitSetter(func(c *Config) *int { return &c.Prompt.ExplainContextLimit }),
	},
	{
		name: "prompt.report_context_limit",
		get:  func(c *Config) any { return c.Prompt.ReportContextLimit },
		set:  limitSetter(func(c *Config) *int { return &c.Prompt.ReportContextLimit }),
	},
}

func lookupKey(name string) (configKey, bool) {
	for _, k := range configKeys {
		if k.name == name {
			return k, true
		}
	}
	return configKey{}, false
}

// limitSetter parses a positive character limit into the field picked by f.
func limitSetter(f func(c *Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		if n <= 0 {
			return fmt.Errorf("must be positive, got %d", n)
		}
		*f(c) = n
		return nil
	}
}
