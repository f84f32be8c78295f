package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve tapplets and bridge their signer calls",
		Long: `Serve installed tapplets under /tapplets/<id>/ and accept tapplet
connections on /bridge?tapplet=<id>[&dev=true].

Transactions a tapplet submits are presented for review in this terminal.
With --non-interactive they are estimated and submitted when the estimate
succeeds, and cancelled otherwise.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "%s tapplet host on %s (wallet daemon %s)\n",
				color.New(color.FgGreen, color.Bold).Sprint("Starting"),
				color.New(color.FgCyan).Sprint("http://"+app.Config.ListenAddr),
				app.Config.DaemonURL)

			return app.Server.ListenAndServe(ctx)
		},
	}

	cmd.Flags().String("listen", "", "Address to listen on (host:port)")
	cmd.Flags().String("daemon-token", "", "Bearer token for the wallet daemon")
	cmd.Flags().Duration("finalize-timeout", 0, "How long to wait for the daemon to finalize a transaction")
	cmd.Flags().String("csp", "", "Content-Security-Policy for installed tapplets that declare none")

	return cmd
}
