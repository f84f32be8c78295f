// Package signer is the capability-scoped wallet facade exposed to a tapplet.
package signer

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/tari-project/tapplet-host/internal/domain"
	"github.com/tari-project/tapplet-host/internal/domain/models"
)

// Name identifies this signer implementation to tapplets
const Name = "TappletSigner"

// DaemonClient is the wallet daemon RPC connection. Implementations must be
// safe for concurrent use; the signer performs no queuing of its own.
type DaemonClient interface {
	Call(ctx context.Context, method string, params any, result any) error
}

// Params scope a signer to one tapplet session
type Params struct {
	ID          string
	Name        string
	Permissions domain.TappletPermissions
}

// Signer exposes a fixed set of wallet operations to one tapplet session
type Signer struct {
	params Params
	client DaemonClient
	log    *slog.Logger

	mu     sync.RWMutex
	window domain.WindowSize
}

// New creates a signer for a session. The client connection is shared by all
// operations issued through it.
func New(params Params, client DaemonClient, log *slog.Logger) *Signer {
	if log == nil {
		log = slog.Default()
	}
	if params.Permissions.RequiredPermissions == nil {
		params.Permissions.RequiredPermissions = []json.RawMessage{}
	}
	if params.Permissions.OptionalPermissions == nil {
		params.Permissions.OptionalPermissions = []json.RawMessage{}
	}
	return &Signer{
		params: params,
		client: client,
		log:    log.With("signer", params.ID),
	}
}

// ID returns the session id the signer was built for
func (s *Signer) ID() string {
	return s.params.ID
}

// Permissions returns the declared permission set
func (s *Signer) Permissions() domain.TappletPermissions {
	return s.params.Permissions
}

// IsConnected reports whether the daemon connection is usable
func (s *Signer) IsConnected() bool {
	return s.client != nil
}

// SetWindowSize records the last measured size of the tapplet viewport
func (s *Signer) SetWindowSize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window = domain.WindowSize{Width: width, Height: height}
}

// WindowSize returns the last measured size of the tapplet viewport
func (s *Signer) WindowSize() domain.WindowSize {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.window
}

// RequestParentSize answers a tapplet asking for its container size
func (s *Signer) RequestParentSize(context.Context) (domain.WindowSize, error) {
	return s.WindowSize(), nil
}

// ActiveAccount returns the wallet's default account
func (s *Signer) ActiveAccount(ctx context.Context) (*models.Account, error) {
	return s.GetAccount(ctx)
}
