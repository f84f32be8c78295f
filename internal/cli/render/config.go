package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/tari-project/tapplet-host/internal/config"
)

// ConfigRenderer renders config-related output
type ConfigRenderer struct {
	out io.Writer
}

// NewConfigRenderer creates a new config renderer
func NewConfigRenderer(out io.Writer) *ConfigRenderer {
	return &ConfigRenderer{
		out: out,
	}
}

// configView is the printable form of the runtime config; the daemon token is masked
type configView struct {
	DataDir         string `json:"data_dir"`
	Listen          string `json:"listen"`
	CSP             string `json:"csp"`
	DaemonURL       string `json:"daemon_url"`
	DaemonToken     string `json:"daemon_token,omitempty"`
	DaemonTimeout   string `json:"daemon_timeout"`
	FinalizeTimeout string `json:"finalize_timeout"`
	Debug           bool   `json:"debug"`
	NonInteractive  bool   `json:"non_interactive"`
}

func viewOf(cfg *config.RuntimeConfig) configView {
	v := configView{
		DataDir:         cfg.DataDir,
		Listen:          cfg.ListenAddr,
		CSP:             cfg.CSP,
		DaemonURL:       cfg.DaemonURL,
		DaemonTimeout:   cfg.DaemonTimeout.String(),
		FinalizeTimeout: cfg.FinalizeTimeout.String(),
		Debug:           cfg.Debug,
		NonInteractive:  cfg.NonInteractive,
	}
	if cfg.DaemonToken != "" {
		v.DaemonToken = "********"
	}
	return v
}

// getRelativePath returns the relative path from current directory
func getRelativePath(path string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}

	relPath, err := filepath.Rel(cwd, path)
	if err != nil {
		return path
	}

	return relPath
}

// RenderConfig renders the configuration display
func (r *ConfigRenderer) RenderConfig(cfg *config.RuntimeConfig, asJSON bool) error {
	view := viewOf(cfg)
	if asJSON {
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	label := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintln(r.out, "📋 Current config:")
	fmt.Fprintf(r.out, "%s %s\n", label("Listen:          "), view.Listen)
	fmt.Fprintf(r.out, "%s %s\n", label("Daemon URL:      "), view.DaemonURL)
	if view.DaemonToken != "" {
		fmt.Fprintf(r.out, "%s %s\n", label("Daemon token:    "), view.DaemonToken)
	} else {
		fmt.Fprintf(r.out, "%s %s\n", label("Daemon token:    "), "(not set)")
	}
	fmt.Fprintf(r.out, "%s %s\n", label("Daemon timeout:  "), view.DaemonTimeout)
	fmt.Fprintf(r.out, "%s %s\n", label("Finalize timeout:"), view.FinalizeTimeout)
	fmt.Fprintf(r.out, "%s %s\n", label("Default CSP:     "), view.CSP)

	configFile := filepath.Join(cfg.DataDir, "config.json")
	if _, err := os.Stat(configFile); err == nil {
		fmt.Fprintf(r.out, "\n📁 config file: %s\n", getRelativePath(configFile))
	} else {
		fmt.Fprintf(r.out, "\n⚠️  No config file at %s, using defaults and TAPP_* environment\n", getRelativePath(configFile))
	}
	return nil
}
