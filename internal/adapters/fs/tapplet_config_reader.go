package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tari-project/tapplet-host/internal/domain"
	"github.com/tari-project/tapplet-host/internal/usecase"
)

// TappletConfigReader reads tapplet.config.json from an extracted tapplet
type TappletConfigReader struct{}

// NewTappletConfigReader creates a new reader
func NewTappletConfigReader() *TappletConfigReader {
	return &TappletConfigReader{}
}

// ReadConfig implements usecase.LocalConfigReader
func (r *TappletConfigReader) ReadConfig(dir string) (*domain.TappletConfig, error) {
	path := filepath.Join(dir, domain.TappletConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var cfg domain.TappletConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

var _ usecase.LocalConfigReader = (*TappletConfigReader)(nil)
