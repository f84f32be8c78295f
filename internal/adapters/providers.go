package adapters

import (
	"log/slog"
	"os"

	"github.com/google/wire"

	"github.com/tari-project/tapplet-host/internal/adapters/fs"
	"github.com/tari-project/tapplet-host/internal/adapters/host"
	"github.com/tari-project/tapplet-host/internal/adapters/interactive"
	"github.com/tari-project/tapplet-host/internal/adapters/notify"
	"github.com/tari-project/tapplet-host/internal/adapters/review"
	"github.com/tari-project/tapplet-host/internal/adapters/server"
	"github.com/tari-project/tapplet-host/internal/adapters/tappletconfig"
	"github.com/tari-project/tapplet-host/internal/adapters/walletd"
	"github.com/tari-project/tapplet-host/internal/config"
	"github.com/tari-project/tapplet-host/internal/usecase"
)

// ProvidePrompter provides the review dialog; non-interactive runs decide automatically
func ProvidePrompter(cfg *config.RuntimeConfig, log *slog.Logger) *review.Prompter {
	opts := review.Options{
		Out:     os.Stdout,
		Chooser: review.PromptChooser{},
		Spinner: true,
	}
	if cfg.NonInteractive {
		opts.Chooser = review.AutoChooser{}
		opts.Spinner = false
	}
	return review.NewPrompter(opts, log)
}

// FSSet provides filesystem-based implementations
var FSSet = wire.NewSet(
	fs.NewTappletStore,
	wire.Bind(new(usecase.TappletRepository), new(*fs.TappletStore)),

	fs.NewTappletConfigReader,
	wire.Bind(new(usecase.LocalConfigReader), new(*fs.TappletConfigReader)),
)

// WalletSet provides the wallet daemon connection and session signers
var WalletSet = wire.NewSet(
	walletd.NewClient,
	walletd.NewSignerFactory,
	wire.Bind(new(usecase.SignerFactory), new(*walletd.SignerFactory)),
)

// TappletSet provides tapplet config download
var TappletSet = wire.NewSet(
	tappletconfig.NewFetcher,
	wire.Bind(new(usecase.TappletConfigFetcher), new(*tappletconfig.Fetcher)),
)

// NotifySet provides the process-wide error reporter
var NotifySet = wire.NewSet(
	notify.NewReporter,
	wire.Bind(new(usecase.ErrorReporter), new(*notify.Reporter)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewSelectorAdapter,
	wire.Bind(new(usecase.TappletSelector), new(*interactive.SelectorAdapter)),

	ProvidePrompter,
	wire.Bind(new(server.ReviewBinder), new(*review.Prompter)),
)

// ServerSet provides the host and its HTTP surface
var ServerSet = wire.NewSet(
	host.NewHost,
	server.NewServer,
	wire.Bind(new(server.Launcher), new(*usecase.LaunchTapplet)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	FSSet,
	WalletSet,
	TappletSet,
	NotifySet,
	InteractiveSet,
	ServerSet,
)
