package walletd

import (
	"log/slog"

	"github.com/tari-project/tapplet-host/internal/domain"
	"github.com/tari-project/tapplet-host/internal/signer"
	"github.com/tari-project/tapplet-host/internal/usecase"
)

// SignerFactory builds session signers that share one daemon client
type SignerFactory struct {
	client *Client
	log    *slog.Logger
}

// NewSignerFactory creates a signer factory
func NewSignerFactory(client *Client, log *slog.Logger) *SignerFactory {
	return &SignerFactory{client: client, log: log}
}

// NewSigner implements usecase.SignerFactory
func (f *SignerFactory) NewSigner(id, name string, permissions domain.TappletPermissions) usecase.Signer {
	return signer.New(signer.Params{
		ID:          id,
		Name:        name,
		Permissions: permissions,
	}, f.client, f.log)
}

var _ usecase.SignerFactory = (*SignerFactory)(nil)
