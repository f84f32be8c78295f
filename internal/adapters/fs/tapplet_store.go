package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/tari-project/tapplet-host/internal/config"
	"github.com/tari-project/tapplet-host/internal/domain"
	"github.com/tari-project/tapplet-host/internal/usecase"
)

// TappletStoreFile is the registry file under the data directory
const TappletStoreFile = "tapplets.yaml"

type tappletFile struct {
	NextID    int                       `yaml:"next_id"`
	Dev       []domain.DevTapplet       `yaml:"dev"`
	Installed []domain.InstalledTapplet `yaml:"installed"`
}

// TappletStore persists registered tapplets in a YAML file
type TappletStore struct {
	path string
	mu   sync.Mutex
}

// NewTappletStore creates a store in the configured data directory
func NewTappletStore(cfg *config.RuntimeConfig) *TappletStore {
	return &TappletStore{path: filepath.Join(cfg.DataDir, TappletStoreFile)}
}

// GetPath returns the path to the registry file
func (s *TappletStore) GetPath() string {
	return s.path
}

func (s *TappletStore) load() (*tappletFile, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &tappletFile{NextID: 1}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tapplet registry: %w", err)
	}

	var f tappletFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse tapplet registry: %w", err)
	}
	if f.NextID < 1 {
		f.NextID = 1
	}
	return &f, nil
}

func (s *TappletStore) save(f *tappletFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal tapplet registry: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write tapplet registry: %w", err)
	}
	return nil
}

// ListDevTapplets implements usecase.TappletRepository
func (s *TappletStore) ListDevTapplets(ctx context.Context) ([]domain.DevTapplet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.load()
	if err != nil {
		return nil, err
	}
	return f.Dev, nil
}

// GetDevTapplet implements usecase.TappletRepository
func (s *TappletStore) GetDevTapplet(ctx context.Context, id int) (*domain.DevTapplet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.load()
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(f.Dev, func(t domain.DevTapplet) bool { return t.ID == id })
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	return &f.Dev[i], nil
}

// AddDevTapplet assigns an id and stores the tapplet
func (s *TappletStore) AddDevTapplet(ctx context.Context, t domain.DevTapplet) (*domain.DevTapplet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.load()
	if err != nil {
		return nil, err
	}
	t.ID = f.NextID
	f.NextID++
	f.Dev = append(f.Dev, t)
	if err := s.save(f); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteDevTapplet implements usecase.TappletRepository
func (s *TappletStore) DeleteDevTapplet(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.load()
	if err != nil {
		return err
	}
	i := slices.IndexFunc(f.Dev, func(t domain.DevTapplet) bool { return t.ID == id })
	if i < 0 {
		return domain.ErrNotFound
	}
	f.Dev = slices.Delete(f.Dev, i, i+1)
	return s.save(f)
}

// ListInstalledTapplets implements usecase.TappletRepository
func (s *TappletStore) ListInstalledTapplets(ctx context.Context) ([]domain.InstalledTapplet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.load()
	if err != nil {
		return nil, err
	}
	return f.Installed, nil
}

// GetInstalledTapplet implements usecase.TappletRepository
func (s *TappletStore) GetInstalledTapplet(ctx context.Context, id int) (*domain.InstalledTapplet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.load()
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(f.Installed, func(t domain.InstalledTapplet) bool { return t.ID == id })
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	return &f.Installed[i], nil
}

// AddInstalledTapplet assigns an id and stores the tapplet
func (s *TappletStore) AddInstalledTapplet(ctx context.Context, t domain.InstalledTapplet) (*domain.InstalledTapplet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.load()
	if err != nil {
		return nil, err
	}
	t.ID = f.NextID
	f.NextID++
	f.Installed = append(f.Installed, t)
	if err := s.save(f); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteInstalledTapplet removes the registry entry; extracted files are left in place
func (s *TappletStore) DeleteInstalledTapplet(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.load()
	if err != nil {
		return err
	}
	i := slices.IndexFunc(f.Installed, func(t domain.InstalledTapplet) bool { return t.ID == id })
	if i < 0 {
		return domain.ErrNotFound
	}
	f.Installed = slices.Delete(f.Installed, i, i+1)
	return s.save(f)
}

var _ usecase.TappletRepository = (*TappletStore)(nil)
