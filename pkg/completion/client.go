// Package completion sends chat completion requests to an OpenAI-compatible
// API and decodes the streamed response.
package completion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/papermind/pkg/llm"
	"github.com/papercomputeco/papermind/pkg/llm/provider"
	"github.com/papercomputeco/papermind/pkg/logger"
	"github.com/papercomputeco/papermind/pkg/metrics"
	"github.com/papercomputeco/papermind/pkg/sse"
)

const (
	// DefaultTimeout bounds a whole request including the streamed body.
	// LLM responses can be slow.
	DefaultTimeout = 5 * time.Minute

	chatCompletionsPath = "/chat/completions"

	// maxErrorBody caps how much of an error response is read.
	maxErrorBody = 1 << 20
)

// Config holds the settings for a Client.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client streams chat completions from the provider serving Config.Model.
type Client struct {
	cfg        Config
	provider   provider.Provider
	httpClient *http.Client
	logger     *slog.Logger
	transcript io.Writer
}

// Option configures a Client created with New.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger for the client and its decoders.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithTranscript copies every raw response byte to w as it is read.
func WithTranscript(w io.Writer) Option {
	return func(c *Client) {
		c.transcript = w
	}
}

// New creates a Client. An empty model resolves to provider.DefaultModel.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Model == "" {
		cfg.Model = provider.DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		cfg:      cfg,
		provider: provider.ForModel(cfg.Model, cfg.BaseURL),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return c
}

// Model returns the model requests are sent for.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Provider returns the provider serving the configured model.
func (c *Client) Provider() provider.Provider {
	return c.provider
}

// Endpoint returns the chat completions URL requests are posted to.
func (c *Client) Endpoint() string {
	return c.provider.BaseURL() + chatCompletionsPath
}

// Validate returns a *ConfigError when the client is missing a setting it
// needs before a request can be sent.
func (c *Client) Validate() error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return &ConfigError{Setting: "llm.api_key"}
	}
	return nil
}

// Stream posts messages with streaming enabled and feeds the response body
// to a decoder, calling onDelta for every text delta. It returns the full
// text once the body is exhausted.
//
// A missing API key yields a *ConfigError before any request is made. A
// failed connection or a non-2xx status yields a *TransportError. If the body
// fails mid-stream the error is returned along with the text decoded so far,
// and the decoder is never finished.
func (c *Client) Stream(ctx context.Context, messages []llm.Message, onDelta sse.DeltaHandler) (string, error) {
	result := metrics.StreamResult{
		Provider: c.provider.Name(),
		Model:    c.cfg.Model,
	}

	if err := c.Validate(); err != nil {
		result.Outcome = metrics.OutcomeConfigError
		metrics.RecordStream(result)
		return "", err
	}

	body, err := c.provider.BuildRequest(&llm.ChatRequest{
		Model:    c.cfg.Model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	c.logger.Debug("sending chat completion request",
		"provider", result.Provider,
		"model", result.Model,
		"endpoint", c.Endpoint(),
		"message_count", len(messages),
	)

	metrics.ActiveStreams.Inc()
	defer metrics.ActiveStreams.Dec()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		result.Outcome = metrics.OutcomeTransportError
		metrics.RecordStream(result)
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result.Outcome = metrics.OutcomeHTTPError
		metrics.RecordStream(result)
		return "", c.errorFromResponse(resp)
	}

	var src io.Reader = resp.Body
	if c.transcript != nil {
		src = io.TeeReader(resp.Body, c.transcript)
	}

	dec := sse.NewDecoder(c.provider,
		sse.WithDeltaHandler(onDelta),
		sse.WithLogger(c.logger),
	)

	_, readErr := dec.ReadFrom(src)

	stats := dec.Stats()
	result.Deltas = stats.Deltas
	result.Malformed = stats.Malformed
	result.Duration = time.Since(start)

	if readErr != nil {
		result.Outcome = metrics.OutcomeTransportError
		metrics.RecordStream(result)
		c.logger.Warn("completion stream interrupted",
			"error", readErr,
			"deltas", stats.Deltas,
		)
		return dec.Text(), fmt.Errorf("reading stream: %w", readErr)
	}

	text := dec.Finish()

	result.Outcome = metrics.OutcomeSuccess
	metrics.RecordStream(result)

	attrs := []any{
		"provider", result.Provider,
		"deltas", stats.Deltas,
		"malformed_frames", stats.Malformed,
		"finish_reason", stats.FinishReason,
		"duration", result.Duration,
	}
	if stats.Usage != nil {
		attrs = append(attrs,
			"prompt_tokens", stats.Usage.PromptTokens,
			"completion_tokens", stats.Usage.CompletionTokens,
			"total_tokens", stats.Usage.TotalTokens,
		)
	}
	c.logger.Debug("completion stream finished", attrs...)

	return text, nil
}

func (c *Client) errorFromResponse(resp *http.Response) *TransportError {
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		c.logger.Debug("reading error response", "error", err)
	}

	msg, ok := c.provider.ParseErrorMessage(respBody)
	if !ok {
		msg = genericErrorMessage
	}

	c.logger.Debug("upstream rejected request",
		"status", resp.StatusCode,
		"message", msg,
	)

	return &TransportError{StatusCode: resp.StatusCode, Message: msg}
}
