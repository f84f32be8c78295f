package review

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/samber/lo"

	"github.com/tari-project/tapplet-host/internal/domain/models"
)

// Action is a choice offered in the review dialog
type Action string

const (
	ActionEstimate Action = "Estimate fee"
	ActionSubmit   Action = "Submit"
	ActionCancel   Action = "Cancel"
)

// Chooser picks the next action for a transaction under review
type Chooser interface {
	Choose(rec *models.TransactionRecord, actions []Action) (Action, error)
}

// PromptChooser asks on the terminal
type PromptChooser struct{}

// Choose implements Chooser
func (PromptChooser) Choose(rec *models.TransactionRecord, actions []Action) (Action, error) {
	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . | faint }}",
		Selected: "✓ {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, Enter to select"),
	}

	prompt := promptui.Select{
		Label:     fmt.Sprintf("Transaction #%d", rec.ID),
		Items:     actions,
		Templates: templates,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("selection cancelled: %w", err)
	}
	return actions[index], nil
}

// AutoChooser decides without a terminal: estimate once, submit when the
// estimate produced a fee, cancel otherwise.
type AutoChooser struct{}

// Choose implements Chooser
func (AutoChooser) Choose(rec *models.TransactionRecord, actions []Action) (Action, error) {
	estimated := rec.DryRun != nil && rec.DryRun.Simulation.Status != models.StatusDryRun
	switch {
	case estimated && rec.DryRun.EstimatedFee != nil && lo.Contains(actions, ActionSubmit):
		return ActionSubmit, nil
	case !estimated && lo.Contains(actions, ActionEstimate):
		return ActionEstimate, nil
	default:
		return ActionCancel, nil
	}
}
