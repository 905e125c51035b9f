// Package provider selects the chat completion endpoint for a model.
package provider

import (
	"fmt"
	"strings"

	"github.com/papercomputeco/papermind/pkg/llm/provider/openai"
)

// Supported provider type constants
const (
	OpenAI   = "openai"
	DeepSeek = "deepseek"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "deepseek-chat"

	OpenAIBaseURL   = "https://api.openai.com/v1"
	DeepSeekBaseURL = "https://api.deepseek.com"
)

// SupportedProviders returns the list of all supported provider type names.
func SupportedProviders() []string {
	return []string{OpenAI, DeepSeek}
}

// New creates a new Provider instance for the given provider type.
// A non-empty baseURL overrides the provider's default endpoint.
// Returns an error if the provider type is not recognized.
func New(providerType, baseURL string) (Provider, error) {
	switch providerType {
	case OpenAI:
		return openai.NewWithEndpoint(OpenAI, orDefault(baseURL, OpenAIBaseURL)), nil
	case DeepSeek:
		return openai.NewWithEndpoint(DeepSeek, orDefault(baseURL, DeepSeekBaseURL)), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %q (supported: %v)", providerType, SupportedProviders())
	}
}

// NameForModel returns the provider that serves the given model. Any model
// name containing "deepseek" (case-insensitive) is served by DeepSeek,
// everything else by OpenAI. An empty model resolves to DefaultModel.
func NameForModel(model string) string {
	if model == "" {
		model = DefaultModel
	}
	if strings.Contains(strings.ToLower(model), DeepSeek) {
		return DeepSeek
	}
	return OpenAI
}

// ForModel returns the Provider for the given model.
func ForModel(model, baseURL string) Provider {
	// NameForModel only returns supported names.
	p, _ := New(NameForModel(model), baseURL)
	return p
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return strings.TrimRight(v, "/")
}
