// Package papermindcmder
package papermindcmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/papermind/cmd/papermind/auth"
	configcmder "github.com/papercomputeco/papermind/cmd/papermind/config"
	generatecmder "github.com/papercomputeco/papermind/cmd/papermind/generate"
	initcmder "github.com/papercomputeco/papermind/cmd/papermind/init"
	servecmder "github.com/papercomputeco/papermind/cmd/papermind/serve"
	versioncmder "github.com/papercomputeco/papermind/cmd/version"
)

const papermindLongDesc string = `PaperMind is an AI reading assistant for research papers.

It explains passages you highlight and turns your notes into a reading
report, streaming the answer from an OpenAI-compatible chat completion API
(DeepSeek or OpenAI, chosen by model name).

Get started:
  papermind init --preset deepseek                       Write a local config
  papermind auth deepseek                                Store an API key
  papermind explain --context paper.txt "the selection"   Explain a passage
  papermind report --context paper.txt --notes notes.json Generate a report
  papermind serve                                        Run the streaming API`

const papermindShortDesc string = "PaperMind - AI reading assistant"

func NewPapermindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "papermind",
		Short:         papermindShortDesc,
		Long:          papermindLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .papermind/ config directory")

	// Add subcommands
	cmd.AddCommand(generatecmder.NewExplainCmd())
	cmd.AddCommand(generatecmder.NewReportCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
