// Package configcmder provides the config command for managing persistent
// papermind configuration stored in the .papermind/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent papermind configuration.

Configuration is stored as config.toml in the .papermind/ directory and
provides default values for command flags. CLI flags and PAPERMIND_*
environment variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  llm.model, llm.base_url, llm.timeout,
  api.listen,
  prompt.explain_context_limit, prompt.report_context_limit

API keys are not configuration. Store them with "papermind auth".

Use subcommands to get, set, or list configuration values:
  papermind config set <key> <value>    Set a configuration value
  papermind config get <key>            Get a configuration value
  papermind config list                 List all configuration values

Examples:
  papermind config set llm.model gpt-4o-mini
  papermind config set prompt.explain_context_limit 8000
  papermind config get llm.model
  papermind config list`

const configShortDesc string = "Manage persistent papermind configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
