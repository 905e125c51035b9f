// Package openai implements the OpenAI chat completions wire format, which
// DeepSeek and other compatible endpoints share.
package openai

import (
	"encoding/json"

	"github.com/papercomputeco/papermind/pkg/llm"
)

const (
	defaultName    = "openai"
	defaultBaseURL = "https://api.openai.com/v1"
)

// provider implements the Provider interface for OpenAI's Chat Completions API.
type provider struct {
	name    string
	baseURL string
}

// New returns the codec for api.openai.com.
func New() *provider { return NewWithEndpoint(defaultName, defaultBaseURL) }

// NewWithEndpoint returns the codec for an OpenAI-compatible endpoint.
func NewWithEndpoint(name, baseURL string) *provider {
	return &provider{name: name, baseURL: baseURL}
}

func (o *provider) Name() string {
	return o.name
}

func (o *provider) BaseURL() string {
	return o.baseURL
}

func (o *provider) BuildRequest(req *llm.ChatRequest) ([]byte, error) {
	messages := make([]openaiMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, openaiMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	return json.Marshal(openaiRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   req.Stream,
	})
}

func (o *provider) ParseStreamChunk(payload []byte) (*llm.StreamChunk, error) {
	var chunk openaiStreamChunk
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return nil, err
	}

	result := &llm.StreamChunk{}

	// Only the first choice carries text for single-completion streams.
	if len(chunk.Choices) > 0 {
		result.Content = chunk.Choices[0].Delta.Content
		result.FinishReason = chunk.Choices[0].FinishReason
	}

	if chunk.Usage != nil {
		result.Usage = &llm.Usage{
			PromptTokens:     chunk.Usage.PromptTokens,
			CompletionTokens: chunk.Usage.CompletionTokens,
			TotalTokens:      chunk.Usage.TotalTokens,
		}
	}

	return result, nil
}

func (o *provider) ParseErrorMessage(body []byte) (string, bool) {
	var resp openaiErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", false
	}

	if resp.Error == nil || resp.Error.Message == "" {
		return "", false
	}

	return resp.Error.Message, true
}
