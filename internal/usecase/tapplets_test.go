package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tari-project/tapplet-host/internal/domain"
)

type memoryTappletRepo struct {
	dev       []domain.DevTapplet
	installed []domain.InstalledTapplet
	nextID    int
}

func (m *memoryTappletRepo) ListDevTapplets(context.Context) ([]domain.DevTapplet, error) {
	return append([]domain.DevTapplet(nil), m.dev...), nil
}

func (m *memoryTappletRepo) GetDevTapplet(_ context.Context, id int) (*domain.DevTapplet, error) {
	for _, t := range m.dev {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memoryTappletRepo) AddDevTapplet(_ context.Context, t domain.DevTapplet) (*domain.DevTapplet, error) {
	m.nextID++
	t.ID = m.nextID
	m.dev = append(m.dev, t)
	return &t, nil
}

func (m *memoryTappletRepo) DeleteDevTapplet(_ context.Context, id int) error {
	for i, t := range m.dev {
		if t.ID == id {
			m.dev = append(m.dev[:i], m.dev[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memoryTappletRepo) ListInstalledTapplets(context.Context) ([]domain.InstalledTapplet, error) {
	return append([]domain.InstalledTapplet(nil), m.installed...), nil
}

func (m *memoryTappletRepo) GetInstalledTapplet(_ context.Context, id int) (*domain.InstalledTapplet, error) {
	for _, t := range m.installed {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memoryTappletRepo) AddInstalledTapplet(_ context.Context, t domain.InstalledTapplet) (*domain.InstalledTapplet, error) {
	m.nextID++
	t.ID = m.nextID
	m.installed = append(m.installed, t)
	return &t, nil
}

func (m *memoryTappletRepo) DeleteInstalledTapplet(_ context.Context, id int) error {
	for i, t := range m.installed {
		if t.ID == id {
			m.installed = append(m.installed[:i], m.installed[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type mockConfigFetcher struct {
	configs map[string]*domain.TappletConfig
	sources []string
}

func (m *mockConfigFetcher) FetchConfig(_ context.Context, source string) (*domain.TappletConfig, error) {
	m.sources = append(m.sources, source)
	cfg, ok := m.configs[source]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return cfg, nil
}

func (m *mockConfigFetcher) ReadConfig(dir string) (*domain.TappletConfig, error) {
	return m.FetchConfig(context.Background(), dir)
}

type mockSignerFactory struct {
	id          string
	name        string
	permissions domain.TappletPermissions
}

func (m *mockSignerFactory) NewSigner(id, name string, permissions domain.TappletPermissions) Signer {
	m.id, m.name, m.permissions = id, name, permissions
	return &mockSigner{}
}

func TestLaunchTapplet_Dev(t *testing.T) {
	repo := &memoryTappletRepo{}
	dev, err := repo.AddDevTapplet(context.Background(), domain.DevTapplet{
		PackageName: "tapp-counter", Endpoint: "http://localhost:5173", DisplayName: "Counter",
	})
	require.NoError(t, err)

	fetcher := &mockConfigFetcher{configs: map[string]*domain.TappletConfig{
		"http://localhost:5173": {
			PackageName:    "tapp-counter",
			Version:        "1.2.0",
			SupportedChain: []domain.SupportedChain{domain.ChainStagenet},
			Permissions:    []json.RawMessage{json.RawMessage(`{"TariPermissionAccountInfo":{}}`)},
		},
	}}
	factory := &mockSignerFactory{}
	reporter := &mockReporter{}

	res, err := NewLaunchTapplet(repo, fetcher, factory, reporter).Run(context.Background(), LaunchTappletParams{
		TappletID: dev.ID,
		Dev:       true,
	})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5173", res.Tapplet.Source)
	assert.Equal(t, "1.2.0", res.Tapplet.Version)
	assert.Equal(t, []domain.SupportedChain{domain.ChainStagenet}, res.Tapplet.SupportedChain)
	assert.Len(t, res.Tapplet.Permissions.RequiredPermissions, 1)
	assert.Empty(t, res.Tapplet.Permissions.OptionalPermissions)
	assert.Equal(t, domain.DefaultCSP, res.CSP)
	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, res.SessionID, factory.id)
	assert.Equal(t, "Counter", factory.name)
	assert.Equal(t, res.Tapplet.Permissions, factory.permissions)
	assert.Empty(t, reporter.Messages())
}

func TestLaunchTapplet_MissingPermissionsIsReported(t *testing.T) {
	repo := &memoryTappletRepo{}
	installed, err := repo.AddInstalledTapplet(context.Background(), domain.InstalledTapplet{
		PackageName: "tapp-swap", Version: "0.1.0", DisplayName: "Swap", Path: "/tmp/swap", CSP: "default-src *",
	})
	require.NoError(t, err)

	source := "http://127.0.0.1:18150/tapplets/1/"
	fetcher := &mockConfigFetcher{configs: map[string]*domain.TappletConfig{
		source: {PackageName: "tapp-swap", Version: "0.1.0"},
	}}
	reporter := &mockReporter{}

	res, err := NewLaunchTapplet(repo, fetcher, &mockSignerFactory{}, reporter).Run(context.Background(), LaunchTappletParams{
		TappletID: installed.ID,
		ServerURL: "http://127.0.0.1:18150/",
	})
	require.NoError(t, err)

	assert.Equal(t, source, res.Tapplet.Source)
	assert.Equal(t, "default-src *", res.CSP)
	assert.NotNil(t, res.Tapplet.Permissions.RequiredPermissions)
	assert.Empty(t, res.Tapplet.Permissions.RequiredPermissions)
	require.Len(t, reporter.Messages(), 1)
	assert.Contains(t, reporter.Messages()[0], domain.ErrMissingPermissions.Error())
}

func TestLaunchTapplet_Errors(t *testing.T) {
	repo := &memoryTappletRepo{}
	dev, _ := repo.AddDevTapplet(context.Background(), domain.DevTapplet{PackageName: "x", Endpoint: "http://localhost:1"})
	launch := NewLaunchTapplet(repo, &mockConfigFetcher{}, &mockSignerFactory{}, &mockReporter{})

	_, err := launch.Run(context.Background(), LaunchTappletParams{TappletID: 99, Dev: true})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = launch.Run(context.Background(), LaunchTappletParams{TappletID: dev.ID, Dev: true})
	assert.ErrorContains(t, err, "connection refused")
}

func TestManageTapplets_AddDev(t *testing.T) {
	repo := &memoryTappletRepo{}
	manage := NewManageTapplets(repo, &mockConfigFetcher{})
	ctx := context.Background()

	added, err := manage.AddDev(ctx, AddDevTappletParams{PackageName: "tapp-counter", Endpoint: "http://localhost:5173/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5173", added.Endpoint)
	assert.Equal(t, "tapp-counter", added.DisplayName)

	_, err = manage.AddDev(ctx, AddDevTappletParams{PackageName: "again", Endpoint: "http://localhost:5173"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	_, err = manage.AddDev(ctx, AddDevTappletParams{PackageName: "bad", Endpoint: "localhost:5173"})
	assert.Error(t, err)

	_, err = manage.AddDev(ctx, AddDevTappletParams{Endpoint: "http://localhost:9999"})
	assert.Error(t, err)

	list, err := manage.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list.Dev, 1)

	require.NoError(t, manage.Remove(ctx, added.ID, true))
	assert.ErrorIs(t, manage.Remove(ctx, added.ID, true), domain.ErrNotFound)
}

func TestManageTapplets_Install(t *testing.T) {
	dir := t.TempDir()
	repo := &memoryTappletRepo{}
	reader := &mockConfigFetcher{configs: map[string]*domain.TappletConfig{
		dir: {PackageName: "tapp-swap", Version: "0.1.0"},
	}}
	manage := NewManageTapplets(repo, reader)

	installed, err := manage.Install(context.Background(), InstallTappletParams{Path: dir, DisplayName: "Swap"})
	require.NoError(t, err)
	assert.Equal(t, "tapp-swap", installed.PackageName)
	assert.Equal(t, "0.1.0", installed.Version)
	assert.Equal(t, "Swap", installed.DisplayName)
	assert.Equal(t, dir, installed.Path)

	_, err = manage.Install(context.Background(), InstallTappletParams{Path: dir})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestTappletList_Refs(t *testing.T) {
	list := &TappletList{
		Dev:       []domain.DevTapplet{{ID: 3, PackageName: "a", DisplayName: "A", Endpoint: "http://localhost:1"}},
		Installed: []domain.InstalledTapplet{{ID: 1, PackageName: "b", DisplayName: "B", Path: "/tmp/b"}},
	}

	refs := list.Refs()
	require.Len(t, refs, 2)
	assert.Equal(t, TappletRef{ID: 3, Dev: true, PackageName: "a", DisplayName: "A", Location: "http://localhost:1"}, refs[0])
	assert.Equal(t, "installed", refs[1].Kind())
	assert.Equal(t, "/tmp/b", refs[1].Location)
}
