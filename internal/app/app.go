package app

import (
	"log/slog"

	"github.com/tari-project/tapplet-host/internal/adapters/notify"
	"github.com/tari-project/tapplet-host/internal/adapters/review"
	"github.com/tari-project/tapplet-host/internal/adapters/server"
	"github.com/tari-project/tapplet-host/internal/config"
	"github.com/tari-project/tapplet-host/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig
	Log    *slog.Logger

	// Shared dependencies
	Reporter *notify.Reporter
	Selector usecase.TappletSelector
	Prompter *review.Prompter
	Server   *server.Server

	// Use cases
	LaunchTapplet  *usecase.LaunchTapplet
	ManageTapplets *usecase.ManageTapplets
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	reporter *notify.Reporter,
	selector usecase.TappletSelector,
	prompter *review.Prompter,
	srv *server.Server,
	launchTapplet *usecase.LaunchTapplet,
	manageTapplets *usecase.ManageTapplets,
) (*App, error) {
	return &App{
		Config:         cfg,
		Log:            log,
		Reporter:       reporter,
		Selector:       selector,
		Prompter:       prompter,
		Server:         srv,
		LaunchTapplet:  launchTapplet,
		ManageTapplets: manageTapplets,
	}, nil
}

// Close stops background workers
func (a *App) Close() {
	a.Server.Close()
	a.Prompter.Close()
}
