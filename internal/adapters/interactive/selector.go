package interactive

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/sahilm/fuzzy"

	"github.com/tari-project/tapplet-host/internal/config"
	"github.com/tari-project/tapplet-host/internal/usecase"
)

// SelectorAdapter handles interactive selection
type SelectorAdapter struct {
	config *config.RuntimeConfig
}

// NewSelectorAdapter creates a new selector adapter
func NewSelectorAdapter(cfg *config.RuntimeConfig) *SelectorAdapter {
	return &SelectorAdapter{config: cfg}
}

// SelectTapplet picks one registered tapplet
func (s *SelectorAdapter) SelectTapplet(ctx context.Context, list *usecase.TappletList, prompt string) (*usecase.TappletRef, error) {
	refs := list.Refs()
	if len(refs) == 0 {
		return nil, fmt.Errorf("no tapplets registered")
	}
	if len(refs) == 1 {
		return &refs[0], nil
	}

	// In non-interactive mode, we can't select
	if s.config.NonInteractive {
		return nil, fmt.Errorf("%d tapplets registered, pass an id in non-interactive mode", len(refs))
	}

	options := formatTappletOptions(refs)

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . | faint }}",
		Selected: "✓ {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, Enter to select"),
	}

	promptSelect := promptui.Select{
		Label:             prompt,
		Items:             options,
		Templates:         templates,
		Size:              10,
		StartInSearchMode: true,
		Searcher:          createFuzzySearchFunc(refs),
	}

	index, _, err := promptSelect.Run()
	if err != nil {
		return nil, fmt.Errorf("selection cancelled: %w", err)
	}

	return &refs[index], nil
}

// formatTappletOptions creates display strings like "counter [dev] (http://localhost:5173)"
func formatTappletOptions(refs []usecase.TappletRef) []string {
	options := make([]string, len(refs))
	for i, ref := range refs {
		name := color.New(color.FgWhite, color.Bold).Sprint(ref.DisplayName)
		kind := color.New(color.FgYellow).Sprintf("[%s #%d]", ref.Kind(), ref.ID)
		location := color.New(color.FgBlue).Sprint(ref.Location)
		options[i] = fmt.Sprintf("%s %s (%s)", name, kind, location)
	}
	return options
}

// createFuzzySearchFunc creates a fuzzy search function for promptui.
// Matching runs on the plain text, not the coloured option.
func createFuzzySearchFunc(refs []usecase.TappletRef) func(input string, index int) bool {
	return func(input string, index int) bool {
		// Empty search shows all items
		if input == "" {
			return true
		}

		input = strings.ToLower(input)
		ref := refs[index]
		item := strings.ToLower(ref.DisplayName + " " + ref.PackageName + " " + ref.Location)

		if strings.Contains(item, input) {
			return true
		}

		return len(fuzzy.Find(input, []string{item})) > 0
	}
}

// Ensure the adapter implements the interface
var _ usecase.TappletSelector = (*SelectorAdapter)(nil)
