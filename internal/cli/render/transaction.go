package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tari-project/tapplet-host/internal/domain/models"
)

// FeeDecimals is the number of decimals of the fee token
const FeeDecimals = 6

// FeeSymbol is the display symbol of the fee token
const FeeSymbol = "XTR"

var amounts = message.NewPrinter(language.English)

// TransactionRenderer prints transaction review screens
type TransactionRenderer struct {
	out io.Writer
}

// NewTransactionRenderer creates a renderer writing to out
func NewTransactionRenderer(out io.Writer) *TransactionRenderer {
	return &TransactionRenderer{out: out}
}

// RenderRequest prints the header of a transaction awaiting review
func (r *TransactionRenderer) RenderRequest(rec *models.TransactionRecord) {
	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "%s %s\n",
		color.New(color.FgCyan, color.Bold).Sprint("Transaction"),
		color.New(color.FgWhite, color.Bold).Sprintf("#%d", rec.ID))
	fmt.Fprintf(r.out, "  Method: %s\n", rec.MethodName)
	fmt.Fprintf(r.out, "  Status: %s\n", FormatStatus(rec.Status))
}

// RenderDryRun prints a simulation preview: outcome, fee and balance changes
func (r *TransactionRenderer) RenderDryRun(dry *models.DryRunResult) {
	if dry == nil {
		return
	}
	fmt.Fprintf(r.out, "  Simulation: %s\n", FormatStatus(dry.Simulation.Status))
	if dry.Simulation.ErrorMessage != "" {
		fmt.Fprintf(r.out, "  %s\n", color.New(color.FgRed).Sprint(dry.Simulation.ErrorMessage))
	}
	if dry.EstimatedFee != nil {
		fmt.Fprintf(r.out, "  Estimated fee: %s\n", FormatFee(*dry.EstimatedFee))
	}
	if len(dry.BalanceUpdates) == 0 {
		fmt.Fprintln(r.out, "  No balance changes")
		return
	}
	fmt.Fprintln(r.out, BalanceUpdatesTable(dry.BalanceUpdates))
}

// RenderFinalized prints the outcome of a submitted transaction
func (r *TransactionRenderer) RenderFinalized(rec *models.TransactionRecord, result *models.FinalizeResult) {
	if rec == nil {
		return
	}
	if rec.Status == models.StatusAccepted {
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Transaction #%d accepted", rec.ID)))
	} else {
		fmt.Fprintln(r.out, FormatWarning(fmt.Sprintf("Transaction #%d finished as %s", rec.ID, rec.Status)))
	}
	if result != nil {
		if result.TransactionHash != "" {
			fmt.Fprintf(r.out, "  Hash: %s\n", result.TransactionHash)
		}
		if result.FeeReceipt.TotalFeesPaid != 0 {
			fmt.Fprintf(r.out, "  Fee paid: %s\n", FormatFee(result.FeeReceipt.TotalFeesPaid))
		}
	}
}

// BalanceUpdatesTable renders balance changes as a table
func BalanceUpdatesTable(updates []models.BalanceUpdate) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.AppendHeader(table.Row{"Vault", "Token", "Current", "New", "Change"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	for _, u := range updates {
		t.AppendRow(table.Row{
			shortID(u.VaultAddress),
			u.TokenSymbol,
			FormatAmount(u.CurrentBalance),
			FormatAmount(u.NewBalance),
			formatChange(u.CurrentBalance, u.NewBalance),
		})
	}
	return t.Render()
}

// FormatAmount groups digits of a raw amount
func FormatAmount(a models.Amount) string {
	return amounts.Sprintf("%d", a.Int64())
}

// FormatFee renders a fee in whole tokens
func FormatFee(a models.Amount) string {
	return fmt.Sprintf("%s %s", decimal.New(a.Int64(), -FeeDecimals).StringFixed(FeeDecimals), FeeSymbol)
}

// FormatStatus colours a transaction status
func FormatStatus(s models.TransactionStatus) string {
	switch s {
	case models.StatusAccepted:
		return color.New(color.FgGreen).Sprint(s)
	case models.StatusRejected, models.StatusInvalidTransaction, models.StatusCancelled:
		return color.New(color.FgRed).Sprint(s)
	case models.StatusOnlyFeeAccepted:
		return color.New(color.FgYellow).Sprint(s)
	default:
		return color.New(color.FgWhite).Sprint(s)
	}
}

func formatChange(current, next models.Amount) string {
	delta := decimal.NewFromInt(next.Int64()).Sub(decimal.NewFromInt(current.Int64()))
	switch delta.Sign() {
	case 1:
		return color.New(color.FgGreen).Sprint("+" + amounts.Sprintf("%d", delta.IntPart()))
	case -1:
		return color.New(color.FgRed).Sprint(amounts.Sprintf("%d", delta.IntPart()))
	default:
		return "0"
	}
}

func shortID(id string) string {
	const keep = 12
	prefix, rest, found := strings.Cut(id, "_")
	if !found || len(rest) <= 2*keep {
		return id
	}
	return prefix + "_" + rest[:keep] + "…" + rest[len(rest)-keep:]
}
