package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tari-project/tapplet-host/internal/domain"
	"github.com/tari-project/tapplet-host/internal/domain/models"
)

// Signer is the wallet facade bound to one tapplet session
type Signer interface {
	ID() string
	RunOne(ctx context.Context, method string, args []json.RawMessage) (any, error)
	SubmitTransaction(ctx context.Context, req models.SubmitTransactionRequest) (*models.SubmitTransactionResponse, error)
	WaitForTransactionResult(ctx context.Context, transactionID string, timeout time.Duration) error
	GetTransactionResult(ctx context.Context, transactionID string) (*models.TransactionResultResponse, error)
	GetAccountBalances(ctx context.Context, address string) (*models.AccountBalances, error)
	SetWindowSize(width, height int)
}

// AccountProvider resolves the wallet's active account
type AccountProvider interface {
	ActiveAccount(ctx context.Context) (*models.Account, error)
}

// ErrorReporter is the process-wide user-visible error channel
type ErrorReporter interface {
	ReportError(message string)
}

// ReplySource is the return channel of an inbound tapplet message
type ReplySource interface {
	PostMessage(msg any, targetOrigin string) error
}

// ReplyTarget addresses a reply: the source it came from and the origin it declared
type ReplyTarget struct {
	Source ReplySource
	Origin string
}

// ReviewNotifier asks the UI to present a transaction for review.
// Implementations must not block the caller while the user decides.
type ReviewNotifier interface {
	NotifyTransactionReview(ctx context.Context, id int64)
}

// TappletRepository persists registered tapplets
type TappletRepository interface {
	ListDevTapplets(ctx context.Context) ([]domain.DevTapplet, error)
	GetDevTapplet(ctx context.Context, id int) (*domain.DevTapplet, error)
	AddDevTapplet(ctx context.Context, tapplet domain.DevTapplet) (*domain.DevTapplet, error)
	DeleteDevTapplet(ctx context.Context, id int) error
	ListInstalledTapplets(ctx context.Context) ([]domain.InstalledTapplet, error)
	GetInstalledTapplet(ctx context.Context, id int) (*domain.InstalledTapplet, error)
	AddInstalledTapplet(ctx context.Context, tapplet domain.InstalledTapplet) (*domain.InstalledTapplet, error)
	DeleteInstalledTapplet(ctx context.Context, id int) error
}

// LocalConfigReader reads the config document of an extracted tapplet directory
type LocalConfigReader interface {
	ReadConfig(dir string) (*domain.TappletConfig, error)
}

// TappletConfigFetcher downloads the config document a tapplet serves from its origin
type TappletConfigFetcher interface {
	FetchConfig(ctx context.Context, source string) (*domain.TappletConfig, error)
}

// SignerFactory builds a session signer scoped by a permission set
type SignerFactory interface {
	NewSigner(id, name string, permissions domain.TappletPermissions) Signer
}

// TappletSelector picks a tapplet when the user named none
type TappletSelector interface {
	SelectTapplet(ctx context.Context, list *TappletList, prompt string) (*TappletRef, error)
}

// NopReporter discards reported errors
type NopReporter struct{}

func (NopReporter) ReportError(string) {}

// NopReviewNotifier ignores review requests
type NopReviewNotifier struct{}

func (NopReviewNotifier) NotifyTransactionReview(context.Context, int64) {}
