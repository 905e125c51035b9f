package llm

// StreamChunk is the decoded form of a single streaming event payload.
// Only the first choice of a payload is represented.
type StreamChunk struct {
	// Content is the text delta carried by the chunk. Empty when the
	// payload has no choices, no delta, or no content.
	Content string `json:"content,omitempty"`

	// FinishReason is set on the last content chunk (e.g. "stop", "length")
	FinishReason string `json:"finish_reason,omitempty"`

	// Usage metrics, typically only present on the final chunk
	Usage *Usage `json:"usage,omitempty"`
}

// Usage contains token counts reported by the upstream provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}
