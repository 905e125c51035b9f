package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/papercomputeco/papermind/pkg/llm"
	"github.com/papercomputeco/papermind/pkg/sse"
)

const requestIDHeader = "X-Request-Id"

// Streamer sends chat messages upstream and reports each text delta.
// *completion.Client implements it.
type Streamer interface {
	Validate() error
	Stream(ctx context.Context, messages []llm.Message, onDelta sse.DeltaHandler) (string, error)
}

// Server is the API server for streaming completions to clients.
type Server struct {
	config   Config
	streamer Streamer
	logger   *slog.Logger
	app      *fiber.App
}

// NewServer creates a new API server backed by streamer.
func NewServer(config Config, streamer Streamer, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		streamer: streamer,
		logger:   logger,
		app:      app,
	}

	app.Use(s.requestID)

	app.Get("/ping", s.handlePing)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/v1")
	v1.Post("/explain", s.handleExplain)
	v1.Post("/report", s.handleReport)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// requestID tags every request with an ID, reusing one sent by the caller.
func (s *Server) requestID(c *fiber.Ctx) error {
	id := c.Get(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}

	c.Locals(requestIDHeader, id)
	c.Set(requestIDHeader, id)

	return c.Next()
}

func requestIDFrom(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDHeader).(string)
	return id
}
