package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/papermind/pkg/dotdir"
	"github.com/papercomputeco/papermind/pkg/llm/provider"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

// presets seed config.toml for `papermind init --preset`.
var presets = map[string]LLMConfig{
	provider.DeepSeek: {Model: "deepseek-chat", BaseURL: provider.DeepSeekBaseURL},
	provider.OpenAI:   {Model: "gpt-4o-mini", BaseURL: provider.OpenAIBaseURL},
}

// Configer reads and writes config.toml.
type Configer struct {
	path string
}

// NewConfiger keeps config.toml in the directory dotdir.Resolve picks for
// override.
func NewConfiger(override string) (*Configer, error) {
	dir, err := dotdir.Resolve(override)
	if err != nil {
		return nil, err
	}
	return &Configer{path: filepath.Join(dir, configFile)}, nil
}

// Path returns the config.toml location.
func (c *Configer) Path() string {
	return c.path
}

// ValidConfigKeys returns every settable key in TOML section order.
func ValidConfigKeys() []string {
	names := make([]string, len(configKeys))
	for i, k := range configKeys {
		names[i] = k.name
	}
	return names
}

// IsValidConfigKey reports whether key can be read or set.
func IsValidConfigKey(key string) bool {
	_, ok := lookupKey(key)
	return ok
}

// LoadConfig reads config.toml over NewDefaultConfig, so keys the file
// leaves out keep their defaults. A missing file yields the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	cfg := NewDefaultConfig()

	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := decode(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig replaces config.toml with cfg.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := dotdir.WriteFile(c.path, buf.Bytes()); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// SetConfigValue validates value for key and saves it to config.toml.
func (c *Configer) SetConfigValue(key, value string) error {
	k, ok := lookupKey(key)
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}
	if err := k.set(cfg, value); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return c.SaveConfig(cfg)
}

// GetConfigValue returns the effective value of key, defaults included.
func (c *Configer) GetConfigValue(key string) (string, error) {
	k, ok := lookupKey(key)
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}
	return fmt.Sprint(k.get(cfg)), nil
}

// PresetConfig returns the defaults with the LLM section of the named
// provider preset. Names are case-insensitive.
func PresetConfig(name string) (*Config, error) {
	llm, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown preset: %q (available: %s)", name, strings.Join(ValidPresetNames(), ", "))
	}

	cfg := NewDefaultConfig()
	cfg.LLM.Model = llm.Model
	cfg.LLM.BaseURL = llm.BaseURL
	return cfg, nil
}

// ValidPresetNames returns the preset names, sorted.
func ValidPresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ParseConfigTOML parses a config.toml document as written, without
// defaults.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := decode(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config TOML: %w", err)
	}
	if cfg.Version != CurrentV {
		return fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}
	return nil
}
