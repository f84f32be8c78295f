package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TransactionStatus is the lifecycle state of a tapplet transaction record,
// shared with the wallet daemon's transaction status strings.
type TransactionStatus string

const (
	StatusNew                TransactionStatus = "New"
	StatusDryRun             TransactionStatus = "DryRun"
	StatusPending            TransactionStatus = "Pending"
	StatusAccepted           TransactionStatus = "Accepted"
	StatusRejected           TransactionStatus = "Rejected"
	StatusInvalidTransaction TransactionStatus = "InvalidTransaction"
	StatusOnlyFeeAccepted    TransactionStatus = "OnlyFeeAccepted"
	StatusCancelled          TransactionStatus = "Cancelled"
)

// ParseTransactionStatus maps a daemon status string to a TransactionStatus
func ParseTransactionStatus(s string) (TransactionStatus, error) {
	switch strings.TrimSpace(s) {
	case "New":
		return StatusNew, nil
	case "DryRun":
		return StatusDryRun, nil
	case "Pending":
		return StatusPending, nil
	case "Accepted":
		return StatusAccepted, nil
	case "Rejected":
		return StatusRejected, nil
	case "InvalidTransaction":
		return StatusInvalidTransaction, nil
	case "OnlyFeeAccepted":
		return StatusOnlyFeeAccepted, nil
	case "Cancelled":
		return StatusCancelled, nil
	default:
		return "", fmt.Errorf("unknown transaction status: %q", s)
	}
}

// IsTerminal reports whether no further lifecycle transition is allowed
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case StatusAccepted, StatusRejected, StatusInvalidTransaction, StatusOnlyFeeAccepted, StatusCancelled:
		return true
	}
	return false
}

// TransactionRequest is an inbound signer call that needs user review.
// ID is chosen by the tapplet and correlates the reply.
type TransactionRequest struct {
	MethodName string            `json:"methodName"`
	Args       []json.RawMessage `json:"args"`
	ID         int64             `json:"id"`
}

// TransactionRecord is the registry's view of one reviewed transaction.
// Records are treated as values: every update produces a new record.
type TransactionRecord struct {
	ID         int64             `json:"id"`
	MethodName string            `json:"methodName"`
	Args       []json.RawMessage `json:"args"`
	Status     TransactionStatus `json:"status"`
	DryRun     *DryRunResult     `json:"dryRun,omitempty"`
}

// Clone returns a copy that shares no mutable state with r
func (r *TransactionRecord) Clone() *TransactionRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Args = append([]json.RawMessage(nil), r.Args...)
	if r.DryRun != nil {
		c.DryRun = r.DryRun.Clone()
	}
	return &c
}

// BalanceUpdate is one fungible vault whose balance a transaction changes
type BalanceUpdate struct {
	VaultAddress   string `json:"vaultAddress"`
	TokenSymbol    string `json:"tokenSymbol"`
	CurrentBalance Amount `json:"currentBalance"`
	NewBalance     Amount `json:"newBalance"`
}

// SimulationOutcome classifies a dry run
type SimulationOutcome struct {
	Status       TransactionStatus `json:"status"`
	ErrorMessage string            `json:"errorMsg,omitempty"`
}

// DryRunResult is the preview produced by simulating a transaction
type DryRunResult struct {
	BalanceUpdates []BalanceUpdate   `json:"balanceUpdates"`
	Simulation     SimulationOutcome `json:"txSimulation"`
	EstimatedFee   *Amount           `json:"estimatedFee,omitempty"`
}

// Clone returns a deep copy of d
func (d *DryRunResult) Clone() *DryRunResult {
	if d == nil {
		return nil
	}
	c := *d
	c.BalanceUpdates = append([]BalanceUpdate{}, d.BalanceUpdates...)
	if d.EstimatedFee != nil {
		fee := *d.EstimatedFee
		c.EstimatedFee = &fee
	}
	return &c
}

// PlaceholderDryRun is attached to a record before any simulation ran
func PlaceholderDryRun() *DryRunResult {
	return &DryRunResult{
		BalanceUpdates: []BalanceUpdate{},
		Simulation:     SimulationOutcome{Status: StatusDryRun},
	}
}

// InvalidDryRun is the degraded simulation outcome
func InvalidDryRun(msg string) *DryRunResult {
	return &DryRunResult{
		BalanceUpdates: []BalanceUpdate{},
		Simulation: SimulationOutcome{
			Status:       StatusInvalidTransaction,
			ErrorMessage: msg,
		},
	}
}
