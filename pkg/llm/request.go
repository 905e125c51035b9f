package llm

// ChatRequest represents a provider-agnostic chat completion request.
// Provider codecs turn it into their wire format.
type ChatRequest struct {
	// Model name (e.g., "deepseek-chat", "gpt-4o")
	Model string `json:"model"`

	// Conversation messages, oldest first
	Messages []Message `json:"messages"`

	// Whether to stream the response
	Stream bool `json:"stream"`
}
