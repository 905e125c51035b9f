package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/papermind/pkg/completion"
	"github.com/papercomputeco/papermind/pkg/llm"
	"github.com/papercomputeco/papermind/pkg/prompt"
	"github.com/papercomputeco/papermind/pkg/utils"
)

// ErrorResponse is the JSON body of a rejected request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ExplainRequest asks for an explanation of a selection within a document.
type ExplainRequest struct {
	Context   string `json:"context"`
	Selection string `json:"selection"`
}

// ReportRequest asks for a reading report over a document and its notes.
type ReportRequest struct {
	Context string        `json:"context"`
	Notes   []prompt.Note `json:"notes"`
}

// DeltaEvent is the payload of every "data:" event on a response stream.
type DeltaEvent struct {
	Delta string `json:"delta"`
	Text  string `json:"text"`
}

// DoneEvent is the payload of the final "done" event.
type DoneEvent struct {
	Text string `json:"text"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleExplain streams an explanation of the selected text.
func (s *Server) handleExplain(c *fiber.Ctx) error {
	var req ExplainRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.Selection == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "selection is required"})
	}

	s.logger.Debug("explanation requested",
		"request_id", requestIDFrom(c),
		"selection", utils.Truncate(req.Selection, 80),
		"context_chars", len([]rune(req.Context)),
	)

	return s.stream(c, prompt.Explanation(req.Context, req.Selection, s.config.ExplainContextLimit))
}

// handleReport streams a reading report built from the user's notes.
func (s *Server) handleReport(c *fiber.Ctx) error {
	var req ReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	s.logger.Debug("report requested",
		"request_id", requestIDFrom(c),
		"notes", len(req.Notes),
	)

	return s.stream(c, prompt.Report(req.Context, req.Notes, s.config.ReportContextLimit))
}

// stream answers with an event stream fed by the upstream completion.
// Configuration problems are reported as a plain JSON error before the
// stream starts; anything later arrives as an "error" event.
func (s *Server) stream(c *fiber.Ctx, messages []llm.Message) error {
	if err := s.streamer.Validate(); err != nil {
		return c.Status(fiber.StatusPreconditionFailed).JSON(ErrorResponse{Error: err.Error()})
	}

	log := s.logger.With("request_id", requestIDFrom(c), "path", c.Path())

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set("X-Accel-Buffering", "no")

	// fasthttp recycles the request context once the handler returns, so the
	// upstream call runs on its own context. It is canceled when the client
	// stops reading.
	pr, pw := io.Pipe()
	go s.pump(pw, messages, log)

	// Unknown size (-1) makes fasthttp use chunked transfer encoding and
	// flush after every write to the pipe.
	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

func (s *Server) pump(pw *io.PipeWriter, messages []llm.Message, log *slog.Logger) {
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := bufio.NewWriter(pw)
	var writeErr error

	emit := func(event string, payload any) {
		if writeErr != nil {
			return
		}
		if writeErr = writeEvent(w, event, payload); writeErr == nil {
			writeErr = w.Flush()
		}
		if writeErr != nil {
			log.Debug("client stopped reading", "error", writeErr)
			cancel()
		}
	}

	text, err := s.streamer.Stream(ctx, messages, func(delta, full string) {
		emit("", DeltaEvent{Delta: delta, Text: full})
	})
	if err != nil {
		if writeErr == nil {
			log.Error("completion stream failed", "error", err)
		}
		emit("error", ErrorResponse{Error: clientMessage(err)})
		return
	}

	emit("done", DoneEvent{Text: text})
	log.Debug("completion stream sent", "chars", len(text))
}

// clientMessage returns the part of err that is safe to show to a user.
func clientMessage(err error) string {
	var tErr *completion.TransportError
	if errors.As(err, &tErr) && tErr.StatusCode != 0 {
		return tErr.Message
	}

	var cfgErr *completion.ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr.Error()
	}

	return "upstream request failed"
}

// writeEvent writes one event in the "data: " line format. An empty event
// name writes an unnamed message event.
func writeEvent(w io.Writer, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	if event != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
			return err
		}
	}

	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
