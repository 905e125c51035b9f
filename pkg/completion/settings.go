package completion

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/papercomputeco/papermind/pkg/credentials"
	"github.com/papercomputeco/papermind/pkg/llm/provider"
)

// KeyStore resolves the API key for a provider name.
type KeyStore interface {
	Resolve(provider string) (credentials.Resolved, error)
}

// LoadConfig builds a Config from v. The API key is taken from llm.api_key
// first, then from keys for the provider serving the model. A nil keys only
// consults the provider's environment variable (e.g. DEEPSEEK_API_KEY). A
// missing key is not an error here; Stream reports it.
func LoadConfig(v *viper.Viper, keys KeyStore) (Config, error) {
	cfg := Config{
		APIKey:  v.GetString("llm.api_key"),
		Model:   v.GetString("llm.model"),
		BaseURL: v.GetString("llm.base_url"),
	}

	if raw := v.GetString("llm.timeout"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid llm.timeout %q: %w", raw, err)
		}
		cfg.Timeout = d
	}

	if cfg.APIKey != "" {
		return cfg, nil
	}

	name := provider.NameForModel(cfg.Model)
	if keys == nil {
		cfg.APIKey = credentials.FromEnv(name).Key
		return cfg, nil
	}

	r, err := keys.Resolve(name)
	if err != nil {
		return Config{}, fmt.Errorf("loading credentials: %w", err)
	}
	cfg.APIKey = r.Key

	return cfg, nil
}
