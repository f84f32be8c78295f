package cli

import (
	"github.com/spf13/cobra"

	"github.com/tari-project/tapplet-host/internal/cli/render"
)

// NewConfigCmd creates the config command
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the resolved host configuration",
		Long: `Show the configuration tapp-host runs with.

Values come from, in order of precedence:
  command line flags
  TAPP_* environment variables (also read from .env files)
  <data-dir>/config.json
  built-in defaults

When run without subcommands, displays the current config.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:          "show",
		Short:        "Show current config",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd)
		},
	})

	return cmd
}

func showConfig(cmd *cobra.Command) error {
	app, err := getApp(cmd)
	if err != nil {
		return err
	}
	renderer := render.NewConfigRenderer(cmd.OutOrStdout())
	return renderer.RenderConfig(app.Config, app.Config.JSON)
}
