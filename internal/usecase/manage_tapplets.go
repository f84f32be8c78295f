package usecase

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/tari-project/tapplet-host/internal/domain"
)

// ManageTapplets registers, lists and removes tapplets
type ManageTapplets struct {
	repo   TappletRepository
	reader LocalConfigReader
}

// NewManageTapplets creates a new tapplet management use case
func NewManageTapplets(repo TappletRepository, reader LocalConfigReader) *ManageTapplets {
	return &ManageTapplets{repo: repo, reader: reader}
}

// AddDevTappletParams describes a tapplet served from a developer's endpoint
type AddDevTappletParams struct {
	PackageName string
	Endpoint    string
	DisplayName string
	CSP         string
}

// InstallTappletParams describes an extracted tapplet directory
type InstallTappletParams struct {
	Path        string
	DisplayName string
	CSP         string
}

// TappletList is every registered tapplet
type TappletList struct {
	Dev       []domain.DevTapplet       `json:"dev"`
	Installed []domain.InstalledTapplet `json:"installed"`
}

// TappletRef identifies a dev or installed tapplet
type TappletRef struct {
	ID          int    `json:"id"`
	Dev         bool   `json:"dev"`
	PackageName string `json:"package_name"`
	DisplayName string `json:"display_name"`
	// Location is the dev endpoint or the installed directory
	Location string `json:"location"`
}

// Kind is "dev" or "installed"
func (r TappletRef) Kind() string {
	if r.Dev {
		return "dev"
	}
	return "installed"
}

// Refs flattens the list, dev tapplets first
func (l *TappletList) Refs() []TappletRef {
	refs := make([]TappletRef, 0, len(l.Dev)+len(l.Installed))
	for _, t := range l.Dev {
		refs = append(refs, TappletRef{ID: t.ID, Dev: true, PackageName: t.PackageName, DisplayName: t.DisplayName, Location: t.Endpoint})
	}
	for _, t := range l.Installed {
		refs = append(refs, TappletRef{ID: t.ID, PackageName: t.PackageName, DisplayName: t.DisplayName, Location: t.Path})
	}
	return refs
}

// AddDev registers a dev tapplet
func (m *ManageTapplets) AddDev(ctx context.Context, params AddDevTappletParams) (*domain.DevTapplet, error) {
	if strings.TrimSpace(params.PackageName) == "" {
		return nil, fmt.Errorf("package name is required")
	}
	endpoint, err := url.Parse(params.Endpoint)
	if err != nil || (endpoint.Scheme != "http" && endpoint.Scheme != "https") || endpoint.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q: expected an http(s) URL", params.Endpoint)
	}

	normalized := strings.TrimRight(params.Endpoint, "/")

	existing, err := m.repo.ListDevTapplets(ctx)
	if err != nil {
		return nil, err
	}
	if lo.ContainsBy(existing, func(t domain.DevTapplet) bool { return t.Endpoint == normalized }) {
		return nil, fmt.Errorf("dev tapplet at %s: %w", normalized, domain.ErrAlreadyExists)
	}

	return m.repo.AddDevTapplet(ctx, domain.DevTapplet{
		PackageName: params.PackageName,
		Endpoint:    normalized,
		DisplayName: lo.Ternary(params.DisplayName == "", params.PackageName, params.DisplayName),
		CSP:         params.CSP,
	})
}

// Install registers an extracted tapplet directory, reading its package
// name and version from the tapplet config inside it.
func (m *ManageTapplets) Install(ctx context.Context, params InstallTappletParams) (*domain.InstalledTapplet, error) {
	dir, err := filepath.Abs(params.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid tapplet path: %w", err)
	}
	cfg, err := m.reader.ReadConfig(dir)
	if err != nil {
		return nil, err
	}
	if cfg.PackageName == "" {
		return nil, fmt.Errorf("%s in %s has no packageName", domain.TappletConfigFile, dir)
	}

	existing, err := m.repo.ListInstalledTapplets(ctx)
	if err != nil {
		return nil, err
	}
	if lo.ContainsBy(existing, func(t domain.InstalledTapplet) bool {
		return t.PackageName == cfg.PackageName && t.Version == cfg.Version
	}) {
		return nil, fmt.Errorf("tapplet %s@%s: %w", cfg.PackageName, cfg.Version, domain.ErrAlreadyExists)
	}

	return m.repo.AddInstalledTapplet(ctx, domain.InstalledTapplet{
		PackageName: cfg.PackageName,
		Version:     cfg.Version,
		DisplayName: lo.Ternary(params.DisplayName == "", cfg.PackageName, params.DisplayName),
		Path:        dir,
		CSP:         params.CSP,
	})
}

// List returns all registered tapplets
func (m *ManageTapplets) List(ctx context.Context) (*TappletList, error) {
	dev, err := m.repo.ListDevTapplets(ctx)
	if err != nil {
		return nil, err
	}
	installed, err := m.repo.ListInstalledTapplets(ctx)
	if err != nil {
		return nil, err
	}
	return &TappletList{Dev: dev, Installed: installed}, nil
}

// Remove deletes a registered tapplet
func (m *ManageTapplets) Remove(ctx context.Context, id int, dev bool) error {
	if dev {
		return m.repo.DeleteDevTapplet(ctx, id)
	}
	return m.repo.DeleteInstalledTapplet(ctx, id)
}
