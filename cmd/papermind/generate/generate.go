// Package generatecmder provides the explain and report commands, which
// stream a chat completion for a document to the terminal.
package generatecmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/papermind/pkg/cliui"
	"github.com/papercomputeco/papermind/pkg/completion"
	"github.com/papercomputeco/papermind/pkg/config"
	"github.com/papercomputeco/papermind/pkg/credentials"
	"github.com/papercomputeco/papermind/pkg/llm"
	"github.com/papercomputeco/papermind/pkg/logger"
)

// llmFlagKeys are the LLMFlags entries shared by explain and report.
var llmFlagKeys = []string{
	config.FlagModel,
	config.FlagBaseURL,
	config.FlagAPIKey,
	config.FlagTimeout,
}

// generateCommander holds the state shared by explain and report.
type generateCommander struct {
	configDir   string
	debug       bool
	contextFile string
	render      bool
	dumpStream  string

	// Flag targets. Effective values are read back through viper.
	model        string
	baseURL      string
	apiKey       string
	timeout      string
	contextLimit int

	viper  *viper.Viper
	logger *slog.Logger
	out    io.Writer
	errOut io.Writer
}

// addCommonFlags registers the flags every generate command has.
// limitKey selects which context limit --context-limit is bound to.
func (g *generateCommander) addCommonFlags(cmd *cobra.Command, limitKey string) {
	cmd.Flags().StringVarP(&g.contextFile, "context", "c", "", "Path to a text file holding the document context")
	cmd.Flags().BoolVar(&g.render, "render", false, "Render the finished answer as markdown instead of streaming raw text")
	cmd.Flags().StringVar(&g.dumpStream, "dump-stream", "", "Write the raw upstream event stream to this file")

	config.AddStringFlag(cmd, config.LLMFlags, config.FlagModel, &g.model)
	config.AddStringFlag(cmd, config.LLMFlags, config.FlagBaseURL, &g.baseURL)
	config.AddStringFlag(cmd, config.LLMFlags, config.FlagAPIKey, &g.apiKey)
	config.AddStringFlag(cmd, config.LLMFlags, config.FlagTimeout, &g.timeout)
	config.AddIntFlag(cmd, config.LLMFlags, limitKey, &g.contextLimit)
}

// preRun resolves configuration and binds the registered flags to viper.
func (g *generateCommander) preRun(cmd *cobra.Command, limitKey string) error {
	g.configDir, _ = cmd.Flags().GetString("config-dir")
	g.debug, _ = cmd.Flags().GetBool("debug")
	g.out = cmd.OutOrStdout()
	g.errOut = cmd.ErrOrStderr()

	v, err := config.InitViper(g.configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.LLMFlags, append(llmFlagKeys, limitKey))
	g.viper = v

	g.logger = logger.New(
		logger.WithDebug(g.debug),
		logger.WithPretty(true),
		logger.WithSource(g.debug),
		logger.WithWriter(g.errOut),
	)

	return nil
}

func (g *generateCommander) readContext() (string, error) {
	if g.contextFile == "" {
		return "", nil
	}

	data, err := os.ReadFile(g.contextFile)
	if err != nil {
		return "", fmt.Errorf("reading context: %w", err)
	}
	return string(data), nil
}

func (g *generateCommander) newClient() (*completion.Client, func(), error) {
	mgr, err := credentials.NewManager(g.configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading credentials: %w", err)
	}

	cfg, err := completion.LoadConfig(g.viper, mgr)
	if err != nil {
		return nil, nil, err
	}

	opts := []completion.Option{completion.WithLogger(g.logger)}
	cleanup := func() {}

	if g.dumpStream != "" {
		f, err := os.Create(g.dumpStream)
		if err != nil {
			return nil, nil, fmt.Errorf("creating stream dump: %w", err)
		}
		opts = append(opts, completion.WithTranscript(f))
		cleanup = func() { _ = f.Close() }
	}

	return completion.New(cfg, opts...), cleanup, nil
}

// stream sends messages upstream and writes the answer to the command output.
// Without --render each delta is written as it arrives; with --render a
// spinner runs on stderr and the finished text is rendered as markdown.
func (g *generateCommander) stream(ctx context.Context, label string, messages []llm.Message) error {
	client, cleanup, err := g.newClient()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := client.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	g.logger.Debug("streaming completion",
		"model", client.Model(),
		"provider", client.Provider().Name(),
		"endpoint", client.Endpoint(),
	)

	if !g.render {
		_, err := client.Stream(ctx, messages, func(delta, _ string) {
			fmt.Fprint(g.out, delta)
		})
		fmt.Fprintln(g.out)
		return describe(err)
	}

	var text string
	err = cliui.Step(g.errOut, label, func() error {
		var streamErr error
		text, streamErr = client.Stream(ctx, messages, nil)
		return streamErr
	})
	if err != nil {
		return describe(err)
	}

	rendered, err := cliui.RenderMarkdown(text)
	if err != nil {
		g.logger.Warn("could not render markdown", "error", err)
	}
	fmt.Fprint(g.out, rendered)

	return nil
}

// describe prefixes upstream HTTP failures with their status code.
func describe(err error) error {
	var te *completion.TransportError
	if errors.As(err, &te) && te.StatusCode != 0 {
		return fmt.Errorf("upstream returned %d: %w", te.StatusCode, err)
	}
	return err
}
