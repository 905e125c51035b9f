package generatecmder

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/papermind/pkg/config"
	"github.com/papercomputeco/papermind/pkg/prompt"
)

const explainLongDesc string = `Explain a selected passage of a document.

The selection is sent upstream together with the end of the document context
(--context-limit characters, 15000 by default) and the explanation is
streamed to stdout as it arrives.

Examples:
  papermind explain --context paper.txt "attention is all you need"
  papermind explain -c paper.txt --selection "KV cache" --render
  papermind explain -c paper.txt -m gpt-4o-mini "residual stream"`

const explainShortDesc string = "Explain a selected passage"

func NewExplainCmd() *cobra.Command {
	cmder := &generateCommander{}
	var selection string

	cmd := &cobra.Command{
		Use:   "explain [selection]",
		Short: explainShortDesc,
		Long:  explainLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.preRun(cmd, config.FlagExplainLimit)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				selection = args[0]
			}
			if strings.TrimSpace(selection) == "" {
				return errors.New("selection required: pass it as an argument or with --selection")
			}

			docContext, err := cmder.readContext()
			if err != nil {
				return err
			}

			messages := prompt.Explanation(docContext, selection,
				cmder.viper.GetInt("prompt.explain_context_limit"))

			return cmder.stream(cmd.Context(), "Explaining selection", messages)
		},
	}

	cmder.addCommonFlags(cmd, config.FlagExplainLimit)
	cmd.Flags().StringVarP(&selection, "selection", "s", "", "Text selected in the document")

	return cmd
}
