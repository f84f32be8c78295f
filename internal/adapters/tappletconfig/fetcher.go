// Package tappletconfig downloads the config document a tapplet serves.
package tappletconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tari-project/tapplet-host/internal/domain"
	"github.com/tari-project/tapplet-host/internal/usecase"
)

// Fetcher fetches {source}/tapplet.config.json over HTTP
type Fetcher struct {
	httpClient *http.Client
}

// NewFetcher creates a fetcher with a short request timeout
func NewFetcher() *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ConfigURL is where a tapplet at source serves its config
func ConfigURL(source string) string {
	return strings.TrimRight(source, "/") + "/" + domain.TappletConfigFile
}

// FetchConfig implements usecase.TappletConfigFetcher
func (f *Fetcher) FetchConfig(ctx context.Context, source string) (*domain.TappletConfig, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ConfigURL(source), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tapplet config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tapplet config request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var cfg domain.TappletConfig
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode tapplet config: %w", err)
	}
	return &cfg, nil
}

var _ usecase.TappletConfigFetcher = (*Fetcher)(nil)
