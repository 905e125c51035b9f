// Package servecmder provides the serve command, which runs the streaming
// API server.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/papermind/api"
	"github.com/papercomputeco/papermind/pkg/completion"
	"github.com/papercomputeco/papermind/pkg/config"
	"github.com/papercomputeco/papermind/pkg/credentials"
	"github.com/papercomputeco/papermind/pkg/logger"
)

type ServeCommander struct {
	configDir string
	debug     bool
	logFile   string

	// Flag targets. Effective values are read back through viper.
	listen  string
	model   string
	baseURL string
	apiKey  string
	timeout string

	viper  *viper.Viper
	logger *slog.Logger
}

const serveLongDesc string = `Run the PaperMind API server.

The server streams explanations and reading reports to HTTP clients as
server-sent events:
  POST /v1/explain   {"context": "...", "selection": "..."}
  POST /v1/report    {"context": "...", "notes": [{"text": "...", "page": 1}]}
  GET  /ping         Health check
  GET  /metrics      Prometheus metrics

Examples:
  papermind serve
  papermind serve --listen :9000 --model gpt-4o-mini
  papermind serve --log-file papermind.log`

const serveShortDesc string = "Run the PaperMind API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.ServeFlags, []string{config.FlagListen})
			config.BindRegisteredFlags(v, cmd, config.LLMFlags, []string{
				config.FlagModel,
				config.FlagBaseURL,
				config.FlagAPIKey,
				config.FlagTimeout,
			})
			cmder.viper = v

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.ServeFlags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.LLMFlags, config.FlagModel, &cmder.model)
	config.AddStringFlag(cmd, config.LLMFlags, config.FlagBaseURL, &cmder.baseURL)
	config.AddStringFlag(cmd, config.LLMFlags, config.FlagAPIKey, &cmder.apiKey)
	config.AddStringFlag(cmd, config.LLMFlags, config.FlagTimeout, &cmder.timeout)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")

	return cmd
}

func (c *ServeCommander) run(ctx context.Context) error {
	cleanup, err := c.setupLogger()
	if err != nil {
		return err
	}
	defer cleanup()

	mgr, err := credentials.NewManager(c.configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	cfg, err := completion.LoadConfig(c.viper, mgr)
	if err != nil {
		return err
	}

	client := completion.New(cfg, completion.WithLogger(c.logger))
	if err := client.Validate(); err != nil {
		// The key is resolved once here; a key stored later needs a restart.
		c.logger.Warn("no API key configured: requests are rejected with 412 until the server is restarted with one",
			"error", err,
		)
	}

	apiConfig := api.Config{
		ListenAddr:          c.viper.GetString("api.listen"),
		ExplainContextLimit: c.viper.GetInt("prompt.explain_context_limit"),
		ReportContextLimit:  c.viper.GetInt("prompt.report_context_limit"),
	}
	server := api.NewServer(apiConfig, client, c.logger)

	c.logger.Info("using upstream",
		"provider", client.Provider().Name(),
		"model", client.Model(),
		"endpoint", client.Endpoint(),
	)

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)

	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal, cancellation or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
		c.logger.Info("context canceled, shutting down")
	}

	if err := server.Shutdown(); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// setupLogger builds the pretty stdout logger and, with --log-file, fans it
// out to a JSON logger writing to that file.
func (c *ServeCommander) setupLogger() (func(), error) {
	pretty := logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(true),
		logger.WithSource(c.debug),
	)

	if c.logFile == "" {
		c.logger = pretty
		return func() {}, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	c.logger = logger.Multi(pretty, logger.New(
		logger.WithDebug(c.debug),
		logger.WithJSON(true),
		logger.WithSource(c.debug),
		logger.WithWriter(f),
	))

	return func() { _ = f.Close() }, nil
}
