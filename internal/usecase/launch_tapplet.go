package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tari-project/tapplet-host/internal/domain"
)

// LaunchTapplet resolves a registered tapplet into an active session
type LaunchTapplet struct {
	repo     TappletRepository
	fetcher  TappletConfigFetcher
	signers  SignerFactory
	reporter ErrorReporter
}

// NewLaunchTapplet creates a new launch use case
func NewLaunchTapplet(
	repo TappletRepository,
	fetcher TappletConfigFetcher,
	signers SignerFactory,
	reporter ErrorReporter,
) *LaunchTapplet {
	return &LaunchTapplet{
		repo:     repo,
		fetcher:  fetcher,
		signers:  signers,
		reporter: reporter,
	}
}

// LaunchTappletParams selects the tapplet to launch
type LaunchTappletParams struct {
	TappletID int
	// Dev selects a dev tapplet served from its own endpoint
	Dev bool
	// ServerURL is the base URL installed tapplets are served from
	ServerURL string
}

// LaunchTappletResult is a launched tapplet with its session signer
type LaunchTappletResult struct {
	Tapplet   domain.ActiveTapplet
	SessionID string
	Signer    Signer
	CSP       string
}

// Run launches the tapplet
func (l *LaunchTapplet) Run(ctx context.Context, params LaunchTappletParams) (*LaunchTappletResult, error) {
	active, csp, err := l.resolve(ctx, params)
	if err != nil {
		return nil, err
	}

	cfg, err := l.fetcher.FetchConfig(ctx, active.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch config for tapplet %d: %w", params.TappletID, err)
	}
	active.Version = cfg.Version
	active.SupportedChain = cfg.SupportedChain
	active.Permissions = PermissionsFromConfig(cfg)
	if cfg.Permissions == nil {
		l.reporter.ReportError(fmt.Sprintf("%s: %s", domain.ErrMissingPermissions, cfg.PackageName))
	}

	sessionID := uuid.NewString()
	return &LaunchTappletResult{
		Tapplet:   *active,
		SessionID: sessionID,
		Signer:    l.signers.NewSigner(sessionID, active.DisplayName, active.Permissions),
		CSP:       csp,
	}, nil
}

func (l *LaunchTapplet) resolve(ctx context.Context, params LaunchTappletParams) (*domain.ActiveTapplet, string, error) {
	if params.Dev {
		dev, err := l.repo.GetDevTapplet(ctx, params.TappletID)
		if err != nil {
			return nil, "", fmt.Errorf("dev tapplet %d: %w", params.TappletID, err)
		}
		return &domain.ActiveTapplet{
			TappletID:   dev.ID,
			DisplayName: dev.DisplayName,
			Source:      dev.Endpoint,
		}, cspOrDefault(dev.CSP), nil
	}

	installed, err := l.repo.GetInstalledTapplet(ctx, params.TappletID)
	if err != nil {
		return nil, "", fmt.Errorf("installed tapplet %d: %w", params.TappletID, err)
	}
	if params.ServerURL == "" {
		return nil, "", fmt.Errorf("installed tapplet %d: tapplet server is not running", params.TappletID)
	}
	return &domain.ActiveTapplet{
		TappletID:   installed.ID,
		DisplayName: installed.DisplayName,
		Source:      InstalledTappletURL(params.ServerURL, installed.ID),
	}, cspOrDefault(installed.CSP), nil
}

// PermissionsFromConfig maps the permissions a tapplet declares to the
// signer's required set; the optional set is always empty.
func PermissionsFromConfig(cfg *domain.TappletConfig) domain.TappletPermissions {
	required := []json.RawMessage{}
	if cfg != nil && cfg.Permissions != nil {
		required = append(required, cfg.Permissions...)
	}
	return domain.TappletPermissions{
		RequiredPermissions: required,
		OptionalPermissions: []json.RawMessage{},
	}
}

// InstalledTappletURL is where the host serves an installed tapplet
func InstalledTappletURL(serverURL string, id int) string {
	return fmt.Sprintf("%s/tapplets/%d/", strings.TrimRight(serverURL, "/"), id)
}

func cspOrDefault(csp string) string {
	if strings.TrimSpace(csp) == "" {
		return domain.DefaultCSP
	}
	return csp
}
