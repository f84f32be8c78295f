package cli

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tari-project/tapplet-host/internal/app"
	"github.com/tari-project/tapplet-host/internal/cli/render"
	"github.com/tari-project/tapplet-host/internal/domain"
	"github.com/tari-project/tapplet-host/internal/usecase"
)

// NewTappletsCmd creates the tapplets command group
func NewTappletsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tapplets",
		Aliases: []string{"tapp"},
		Short:   "Manage registered tapplets",
		Long: `Register dev tapplets served from a local endpoint, install tapplets
from an extracted directory, and launch them.

When run without subcommands, lists every registered tapplet.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listTapplets(cmd)
		},
	}

	cmd.AddCommand(newTappletsListCmd())
	cmd.AddCommand(newTappletsAddCmd())
	cmd.AddCommand(newTappletsInstallCmd())
	cmd.AddCommand(newTappletsRemoveCmd())
	cmd.AddCommand(newTappletsLaunchCmd())

	return cmd
}

func newTappletsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "list",
		Short:        "List registered tapplets",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listTapplets(cmd)
		},
	}
}

func listTapplets(cmd *cobra.Command) error {
	app, err := getApp(cmd)
	if err != nil {
		return err
	}
	list, err := app.ManageTapplets.List(cmd.Context())
	if err != nil {
		return err
	}
	return render.NewTappletRenderer(cmd.OutOrStdout(), app.Config.JSON).RenderList(list)
}

func newTappletsAddCmd() *cobra.Command {
	var name, csp string

	cmd := &cobra.Command{
		Use:   "add <package-name> <endpoint>",
		Short: "Register a dev tapplet served from a local endpoint",
		Example: `  tapp-host tapplets add tapp-counter http://localhost:5173
  tapp-host tapplets add tapp-swap http://localhost:3000 --name "Swap" --csp "default-src 'self' http://localhost:3000"`,
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			added, err := app.ManageTapplets.AddDev(cmd.Context(), usecase.AddDevTappletParams{
				PackageName: args[0],
				Endpoint:    args[1],
				DisplayName: name,
				CSP:         csp,
			})
			if err != nil {
				return err
			}
			return render.NewTappletRenderer(cmd.OutOrStdout(), app.Config.JSON).RenderAdded("dev", added.ID, added.DisplayName)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (defaults to the package name)")
	cmd.Flags().StringVar(&csp, "csp", "", "Content-Security-Policy for the tapplet")
	return cmd
}

func newTappletsInstallCmd() *cobra.Command {
	var name, csp string

	cmd := &cobra.Command{
		Use:          "install <dir>",
		Short:        "Register an extracted tapplet directory to be served by the host",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			installed, err := app.ManageTapplets.Install(cmd.Context(), usecase.InstallTappletParams{
				Path:        args[0],
				DisplayName: name,
				CSP:         csp,
			})
			if err != nil {
				return err
			}
			return render.NewTappletRenderer(cmd.OutOrStdout(), app.Config.JSON).RenderAdded("installed", installed.ID, installed.DisplayName)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (defaults to the package name)")
	cmd.Flags().StringVar(&csp, "csp", "", "Content-Security-Policy for the tapplet")
	return cmd
}

func newTappletsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "remove [id]",
		Aliases:      []string{"rm"},
		Short:        "Unregister a tapplet",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			ref, err := resolveTapplet(cmd, app, args, "Select tapplet to remove")
			if err != nil {
				return err
			}
			if err := app.ManageTapplets.Remove(cmd.Context(), ref.ID, ref.Dev); err != nil {
				return err
			}
			return render.NewTappletRenderer(cmd.OutOrStdout(), app.Config.JSON).RenderRemoved(ref)
		},
	}
}

func newTappletsLaunchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "launch [id]",
		Short: "Resolve a tapplet's config and print where it connects",
		Long: `Fetch the tapplet's tapplet.config.json, resolve its permissions and
print the bridge URL the tapplet document connects to while "serve" runs.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			ref, err := resolveTapplet(cmd, app, args, "Select tapplet to launch")
			if err != nil {
				return err
			}
			result, err := app.LaunchTapplet.Run(cmd.Context(), usecase.LaunchTappletParams{
				TappletID: ref.ID,
				Dev:       ref.Dev,
				ServerURL: "http://" + app.Config.ListenAddr,
			})
			if err != nil {
				return err
			}
			return render.NewTappletRenderer(cmd.OutOrStdout(), app.Config.JSON).RenderLaunch(render.LaunchView{
				Tapplet:   result.Tapplet,
				BridgeURL: BridgeURL(app.Config.ListenAddr, *ref),
				CSP:       result.CSP,
			})
		},
	}
}

// resolveTapplet finds the tapplet named by id, or asks the user to pick one
func resolveTapplet(cmd *cobra.Command, app *app.App, args []string, prompt string) (*usecase.TappletRef, error) {
	list, err := app.ManageTapplets.List(cmd.Context())
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return app.Selector.SelectTapplet(cmd.Context(), list, prompt)
	}
	return findTapplet(list, args[0])
}

// findTapplet matches an id, package name or display name
func findTapplet(list *usecase.TappletList, query string) (*usecase.TappletRef, error) {
	refs := list.Refs()
	if id, err := strconv.Atoi(query); err == nil {
		for i := range refs {
			if refs[i].ID == id {
				return &refs[i], nil
			}
		}
		return nil, fmt.Errorf("tapplet %d: %w", id, domain.ErrNotFound)
	}

	var matches []usecase.TappletRef
	for _, ref := range refs {
		if strings.EqualFold(ref.PackageName, query) || strings.EqualFold(ref.DisplayName, query) {
			matches = append(matches, ref)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("tapplet %q: %w", query, domain.ErrNotFound)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("%d tapplets match %q, use an id", len(matches), query)
	}
}

// BridgeURL is the WebSocket URL a tapplet document connects to
func BridgeURL(listenAddr string, ref usecase.TappletRef) string {
	q := url.Values{}
	q.Set("tapplet", strconv.Itoa(ref.ID))
	if ref.Dev {
		q.Set("dev", "true")
	}
	return (&url.URL{Scheme: "ws", Host: listenAddr, Path: "/bridge", RawQuery: q.Encode()}).String()
}
