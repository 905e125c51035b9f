package provider

import (
	"github.com/papercomputeco/papermind/pkg/llm"
)

// Provider defines the interface for an OpenAI-compatible chat completion
// endpoint: where it lives and how its wire format is encoded and decoded.
type Provider interface {
	// Name returns the canonical provider name (e.g., "openai", "deepseek")
	Name() string

	// BaseURL returns the API base the chat completions path is appended to.
	BaseURL() string

	// BuildRequest encodes a chat request into the provider's JSON body.
	BuildRequest(req *llm.ChatRequest) ([]byte, error)

	// ParseStreamChunk converts a single streaming event payload into the
	// internal format. Returns an error if the payload is not valid JSON
	// for the chunk shape. A payload without content is not an error and
	// yields a chunk with empty Content.
	ParseStreamChunk(payload []byte) (*llm.StreamChunk, error)

	// ParseErrorMessage extracts a human readable message from a
	// non-streamed error body. Returns false when no message can be found.
	ParseErrorMessage(body []byte) (string, bool)
}
