package config

import (
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	DataDir string

	// Host server
	ListenAddr string
	CSP        string // Content-Security-Policy for served tapplets without their own

	// Wallet daemon
	DaemonURL     string
	DaemonToken   string
	DaemonTimeout time.Duration

	// Transaction lifecycle
	FinalizeTimeout time.Duration

	// Execution settings
	Debug          bool
	NonInteractive bool
	JSON           bool // Output in JSON format
	Timeout        time.Duration
}

const (
	DefaultListenAddr      = "127.0.0.1:18150"
	DefaultDaemonURL       = "http://127.0.0.1:9000/json_rpc"
	DefaultFinalizeTimeout = 10 * time.Second
	DefaultDaemonTimeout   = 30 * time.Second
)
