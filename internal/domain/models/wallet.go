package models

import (
	"encoding/json"
	"fmt"
)

// AccountResource is one resource balance held by an account
type AccountResource struct {
	Type            string `json:"type"`
	ResourceAddress string `json:"resource_address"`
	Balance         Amount `json:"balance"`
	TokenSymbol     string `json:"token_symbol"`
	VaultID         string `json:"vault_id"`
}

// Account is the wallet's default account as presented to a tapplet
type Account struct {
	AccountID   uint64            `json:"account_id"`
	Address     string            `json:"address"`
	AccountName string            `json:"account_name"`
	PublicKey   string            `json:"public_key"`
	Resources   []AccountResource `json:"resources"`
}

// AccountData is returned by account creation calls
type AccountData struct {
	AccountID uint64            `json:"account_id"`
	Address   string            `json:"address"`
	PublicKey string            `json:"public_key"`
	Resources []AccountResource `json:"resources"`
}

// BalanceEntry is one vault in the wallet's balance listing
type BalanceEntry struct {
	VaultAddress        SubstateID `json:"vault_address"`
	ResourceAddress     string     `json:"resource_address"`
	Balance             Amount     `json:"balance"`
	ResourceType        string     `json:"resource_type"`
	ConfidentialBalance Amount     `json:"confidential_balance"`
	TokenSymbol         string     `json:"token_symbol"`
}

// AccountBalances is the wallet's balance snapshot for one account
type AccountBalances struct {
	Address  json.RawMessage `json:"address"`
	Balances []BalanceEntry  `json:"balances"`
}

// RequiredSubstate is an input the caller wants the transaction to lock.
// A nil Version means "latest".
type RequiredSubstate struct {
	SubstateID string  `json:"substate_id"`
	Version    *uint32 `json:"version,omitempty"`
}

// SubmitTransactionRequest is the tapplet-facing transaction submission
type SubmitTransactionRequest struct {
	Network                    uint8              `json:"network"`
	AccountID                  uint64             `json:"account_id"`
	FeeInstructions            []json.RawMessage  `json:"fee_instructions"`
	Instructions               []json.RawMessage  `json:"instructions"`
	RequiredSubstates          []RequiredSubstate `json:"required_substates"`
	IsDryRun                   bool               `json:"is_dry_run"`
	IsSealSignerAuthorized     bool               `json:"is_seal_signer_authorized"`
	DetectInputsUseUnversioned bool               `json:"detect_inputs_use_unversioned"`
}

// UnmarshalJSON accepts the network either as a byte or as a name
func (r *SubmitTransactionRequest) UnmarshalJSON(data []byte) error {
	type plain SubmitTransactionRequest
	var aux struct {
		plain
		Network json.RawMessage `json:"network"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = SubmitTransactionRequest(aux.plain)
	if len(aux.Network) == 0 || string(aux.Network) == "null" {
		return nil
	}
	var n uint8
	if err := json.Unmarshal(aux.Network, &n); err == nil {
		r.Network = n
		return nil
	}
	var name string
	if err := json.Unmarshal(aux.Network, &name); err != nil {
		return fmt.Errorf("invalid network: %s", string(aux.Network))
	}
	n, err := ParseNetwork(name)
	if err != nil {
		return err
	}
	r.Network = n
	return nil
}

// ParseNetwork maps a network name to its byte
func ParseNetwork(name string) (uint8, error) {
	switch name {
	case "mainnet", "MAINNET":
		return 0x00, nil
	case "stagenet", "STAGENET":
		return 0x01, nil
	case "nextnet", "NEXTNET":
		return 0x02, nil
	case "localnet", "LOCALNET":
		return 0x10, nil
	case "igor", "IGOR":
		return 0x24, nil
	case "esmeralda", "testnet", "TESTNET", "ESMERALDA":
		return 0x26, nil
	default:
		return 0, fmt.Errorf("unknown network %q", name)
	}
}

// SubmitTransactionResponse identifies a submitted transaction
type SubmitTransactionResponse struct {
	TransactionID string `json:"transaction_id"`
}

// TransactionResultResponse is a polled transaction result. Result is kept
// raw so it can be relayed to the tapplet unchanged.
type TransactionResultResponse struct {
	TransactionID string            `json:"transaction_id"`
	Status        TransactionStatus `json:"status"`
	Result        json.RawMessage   `json:"result"`
}

// Finalize decodes the result payload; it returns nil when the daemon sent none.
func (r *TransactionResultResponse) Finalize() (*FinalizeResult, error) {
	if r == nil || len(r.Result) == 0 || string(r.Result) == "null" {
		return nil, nil
	}
	var fr FinalizeResult
	if err := json.Unmarshal(r.Result, &fr); err != nil {
		return nil, fmt.Errorf("failed to decode finalize result: %w", err)
	}
	return &fr, nil
}

// SubstateRecord is a substate with its versioned address
type SubstateRecord struct {
	Value   json.RawMessage `json:"value"`
	Address SubstateAddress `json:"address"`
}

// SubstateAddress is a substate id at a version
type SubstateAddress struct {
	SubstateID string `json:"substate_id"`
	Version    uint32 `json:"version"`
}

// ListSubstatesRequest filters the substate listing
type ListSubstatesRequest struct {
	FilterByTemplate *string `json:"filter_by_template"`
	FilterByType     *string `json:"filter_by_type"`
	Limit            *uint64 `json:"limit"`
	Offset           *uint64 `json:"offset"`
}

// ListedSubstate is one row of a substate listing
type ListedSubstate struct {
	SubstateID      string  `json:"substate_id"`
	ModuleName      *string `json:"module_name"`
	Version         uint32  `json:"version"`
	TemplateAddress *string `json:"template_address"`
}

// ListSubstatesResponse is a page of substates
type ListSubstatesResponse struct {
	Substates []ListedSubstate `json:"substates"`
}
