package interactive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tari-project/tapplet-host/internal/config"
	"github.com/tari-project/tapplet-host/internal/domain"
	"github.com/tari-project/tapplet-host/internal/usecase"
)

func testList() *usecase.TappletList {
	return &usecase.TappletList{
		Dev: []domain.DevTapplet{
			{ID: 1, PackageName: "tapp-counter", DisplayName: "Counter", Endpoint: "http://localhost:5173/"},
		},
		Installed: []domain.InstalledTapplet{
			{ID: 2, PackageName: "tapp-swap", DisplayName: "Swap", Version: "1.2.0", Path: "/data/swap"},
		},
	}
}

func TestSelectTapplet_SingleAndEmpty(t *testing.T) {
	s := NewSelectorAdapter(&config.RuntimeConfig{NonInteractive: true})

	_, err := s.SelectTapplet(context.Background(), &usecase.TappletList{}, "pick")
	assert.Error(t, err)

	single := &usecase.TappletList{Dev: testList().Dev}
	ref, err := s.SelectTapplet(context.Background(), single, "pick")
	require.NoError(t, err)
	assert.Equal(t, 1, ref.ID)
	assert.True(t, ref.Dev)
}

func TestSelectTapplet_NonInteractiveNeedsID(t *testing.T) {
	s := NewSelectorAdapter(&config.RuntimeConfig{NonInteractive: true})
	_, err := s.SelectTapplet(context.Background(), testList(), "pick")
	assert.ErrorContains(t, err, "non-interactive")
}

func TestFuzzySearch(t *testing.T) {
	search := createFuzzySearchFunc(testList().Refs())

	assert.True(t, search("", 0))
	assert.True(t, search("count", 0))
	assert.True(t, search("swp", 1))
	assert.True(t, search("5173", 0))
	assert.False(t, search("swap", 0))
}
