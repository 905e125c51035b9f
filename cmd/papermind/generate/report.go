package generatecmder

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/papermind/pkg/config"
	"github.com/papercomputeco/papermind/pkg/prompt"
)

const reportLongDesc string = `Generate a reading report from your notes.

Notes are read from a JSON array of objects with "text", "page" and an
optional "explanation". They are sent upstream together with the end of the
document context (--context-limit characters, 30000 by default) and the
report is streamed to stdout as it arrives.

Examples:
  papermind report --context paper.txt --notes notes.json
  papermind report -c paper.txt -n notes.json --render`

const reportShortDesc string = "Generate a reading report from notes"

func NewReportCmd() *cobra.Command {
	cmder := &generateCommander{}
	var notesFile string

	cmd := &cobra.Command{
		Use:   "report",
		Short: reportShortDesc,
		Long:  reportLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.preRun(cmd, config.FlagReportLimit)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if notesFile == "" {
				return errors.New("--notes is required")
			}

			f, err := os.Open(notesFile)
			if err != nil {
				return fmt.Errorf("opening notes: %w", err)
			}
			defer f.Close()

			notes, err := prompt.LoadNotes(f)
			if err != nil {
				return err
			}
			if len(notes) == 0 {
				return errors.New("no notes to report on")
			}

			docContext, err := cmder.readContext()
			if err != nil {
				return err
			}

			messages := prompt.Report(docContext, notes,
				cmder.viper.GetInt("prompt.report_context_limit"))

			return cmder.stream(cmd.Context(), "Writing report", messages)
		},
	}

	cmder.addCommonFlags(cmd, config.FlagReportLimit)
	cmd.Flags().StringVarP(&notesFile, "notes", "n", "", "Path to a JSON file holding the notes")

	return cmd
}
