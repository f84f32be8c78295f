package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for bridge operations
var (
	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when trying to create a resource that already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnknownMethod is returned when a signer call names an operation the signer does not expose
	ErrUnknownMethod = errors.New("unknown signer method")

	// ErrInvalidArguments is returned when signer call arguments cannot be decoded
	ErrInvalidArguments = errors.New("invalid signer arguments")

	// ErrSignerUnavailable is returned when no signer is bound to the session
	ErrSignerUnavailable = errors.New("signer undefined")

	// ErrAccountUnavailable is returned when the wallet has no active account
	ErrAccountUnavailable = errors.New("account undefined")

	// ErrNotSimulatable is returned when a dry run is requested for a method other than submitTransaction
	ErrNotSimulatable = errors.New("simulation not supported")

	// ErrTransactionTerminal is returned when acting on a transaction that already reached a terminal state
	ErrTransactionTerminal = errors.New("transaction already finalized")

	// ErrTransactionInFlight is returned when acting on a transaction while it is being submitted
	ErrTransactionInFlight = errors.New("transaction is being submitted")

	// ErrFinalizeTimeout is returned when the daemon does not finalize a transaction in time
	ErrFinalizeTimeout = errors.New("timed out waiting for transaction result")

	// ErrOriginMismatch is returned when a message is posted to an origin other than the frame's
	ErrOriginMismatch = errors.New("target origin does not match frame origin")

	// ErrMissingPermissions is returned when a tapplet config declares no permissions
	ErrMissingPermissions = errors.New("tapplet config has no permissions")
)

// UnknownMethodError is the protocol error for a signer call naming an unsupported operation.
type UnknownMethodError struct {
	Method string
}

func (e UnknownMethodError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownMethod, e.Method)
}

func (e UnknownMethodError) Unwrap() error {
	return ErrUnknownMethod
}

// ArgumentError reports a positional argument that could not be decoded.
type ArgumentError struct {
	Method   SignerMethod
	Position int
	Err      error
}

func (e ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s argument %d: %v", ErrInvalidArguments, e.Method, e.Position, e.Err)
}

func (e ArgumentError) Unwrap() []error {
	return []error{ErrInvalidArguments, e.Err}
}
