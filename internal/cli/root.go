package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tari-project/tapplet-host/internal/app"
	"github.com/tari-project/tapplet-host/internal/config"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tapp-host",
		Short: "Host tapplets and bridge them to the Tari wallet daemon",
		Long: `tapp-host serves tapplets, relays their signer calls to the wallet
daemon and asks you to review every transaction they submit.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip for help/version commands
			if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			dataDir, _ := cmd.Flags().GetString("data-dir")
			if dataDir == "" {
				var err error
				dataDir, err = config.DefaultDataDir()
				if err != nil {
					return fmt.Errorf("failed to resolve data dir: %w", err)
				}
			}

			// Set up viper with every flag the user changed
			v := config.SetupViper(dataDir, cmd)

			// Initialize app with DI
			appInstance, err := app.InitApp(v)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			// Store app in context
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)

			// Add timeout if configured
			if appInstance.Config.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
				// Store cancel func to be called on command completion
				cmd.PostRun = func(cmd *cobra.Command, args []string) {
					cancel()
				}
			}

			cmd.SetContext(ctx)

			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if appInstance, err := getApp(cmd); err == nil {
				appInstance.Close()
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("data-dir", "", "Data directory (defaults to ~/.tapp-host)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	rootCmd.PersistentFlags().String("daemon-url", "", "Wallet daemon JSON-RPC URL")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Abort the command after this long")

	// Add command groups
	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	serveCmd := NewServeCmd()
	serveCmd.GroupID = "main"
	rootCmd.AddCommand(serveCmd)

	tappletsCmd := NewTappletsCmd()
	tappletsCmd.GroupID = "main"
	rootCmd.AddCommand(tappletsCmd)

	configCmd := NewConfigCmd()
	configCmd.GroupID = "management"
	rootCmd.AddCommand(configCmd)

	// Version command
	versionCmd := NewVersionCmd()
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	if cmd.Context() == nil {
		return nil, fmt.Errorf("app not initialized")
	}
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	app, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return app, nil
}
