package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tari-project/tapplet-host/internal/domain"
	"github.com/tari-project/tapplet-host/internal/usecase"
)

// TappletRenderer renders registered and launched tapplets
type TappletRenderer struct {
	out  io.Writer
	json bool
}

// NewTappletRenderer creates a new tapplet renderer
func NewTappletRenderer(out io.Writer, asJSON bool) *TappletRenderer {
	return &TappletRenderer{out: out, json: asJSON}
}

func (r *TappletRenderer) encode(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// RenderList renders every registered tapplet
func (r *TappletRenderer) RenderList(list *usecase.TappletList) error {
	if r.json {
		return r.encode(list)
	}

	refs := list.Refs()
	if len(refs) == 0 {
		fmt.Fprintln(r.out, "No tapplets registered")
		return nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.AppendHeader(table.Row{"ID", "Kind", "Name", "Package", "Location"})
	for _, ref := range refs {
		t.AppendRow(table.Row{
			ref.ID,
			kindColor(ref.Kind()),
			color.New(color.Bold).Sprint(ref.DisplayName),
			ref.PackageName,
			color.New(color.FgBlue).Sprint(ref.Location),
		})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}

// RenderAdded confirms a registration
func (r *TappletRenderer) RenderAdded(kind string, id int, name string) error {
	if r.json {
		return r.encode(map[string]any{"id": id, "kind": kind, "display_name": name})
	}
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Registered %s tapplet %q with id %d", kind, name, id)))
	return nil
}

// RenderRemoved confirms a removal
func (r *TappletRenderer) RenderRemoved(ref *usecase.TappletRef) error {
	if r.json {
		return r.encode(ref)
	}
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Removed %s tapplet %q", ref.Kind(), ref.DisplayName)))
	return nil
}

// LaunchView is what a launched tapplet needs to connect
type LaunchView struct {
	Tapplet   domain.ActiveTapplet `json:"tapplet"`
	BridgeURL string               `json:"bridge_url"`
	CSP       string               `json:"csp"`
}

// RenderLaunch describes a launched tapplet and where it connects
func (r *TappletRenderer) RenderLaunch(view LaunchView) error {
	if r.json {
		return r.encode(view)
	}

	label := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintf(r.out, "%s %s\n", color.New(color.Bold).Sprint("🚀"), color.New(color.Bold).Sprint(view.Tapplet.DisplayName))
	fmt.Fprintf(r.out, "%s %s\n", label("Source: "), view.Tapplet.Source)
	fmt.Fprintf(r.out, "%s %s\n", label("Version:"), view.Tapplet.Version)
	fmt.Fprintf(r.out, "%s %s\n", label("Chains: "), formatChains(view.Tapplet.SupportedChain))
	fmt.Fprintf(r.out, "%s %d required\n", label("Perms:  "), len(view.Tapplet.Permissions.RequiredPermissions))
	fmt.Fprintf(r.out, "%s %s\n", label("CSP:    "), view.CSP)
	fmt.Fprintf(r.out, "%s %s\n", label("Bridge: "), view.BridgeURL)
	return nil
}

func formatChains(chains []domain.SupportedChain) string {
	if len(chains) == 0 {
		return "(none declared)"
	}
	caser := cases.Title(language.English)
	names := make([]string, len(chains))
	for i, c := range chains {
		names[i] = caser.String(strings.ToLower(string(c)))
	}
	return strings.Join(names, ", ")
}

func kindColor(kind string) string {
	if kind == "dev" {
		return color.New(color.FgYellow).Sprint(kind)
	}
	return color.New(color.FgGreen).Sprint(kind)
}
