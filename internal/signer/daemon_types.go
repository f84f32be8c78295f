package signer

import (
	"encoding/json"

	"github.com/tari-project/tapplet-host/internal/domain/models"
)

// Wallet daemon JSON-RPC method names
const (
	rpcAccountsGetDefault          = "accounts.get_default"
	rpcAccountsGetBalances         = "accounts.get_balances"
	rpcAccountsList                = "accounts.list"
	rpcAccountsCreate              = "accounts.create"
	rpcAccountsCreateFreeTestCoins = "accounts.create_free_test_coins"
	rpcAccountsSetDefault          = "accounts.set_default"
	rpcTransactionsSubmit          = "transactions.submit"
	rpcTransactionsGetResult       = "transactions.get_result"
	rpcTransactionsWaitResult      = "transactions.wait_result"
	rpcSubstatesGet                = "substates.get"
	rpcSubstatesList               = "substates.list"
	rpcTemplatesGet                = "templates.get"
	rpcTemplatesPublish            = "templates.publish"
	rpcNftsList                    = "nfts.list"
	rpcKeysCreate                  = "keys.create"
	rpcViewVaultBalance            = "confidential.view_vault_balance"
)

// accountRef is the daemon's ComponentAddressOrName selector
type accountRef struct {
	ComponentAddress string `json:"ComponentAddress,omitempty"`
	Name             string `json:"Name,omitempty"`
}

type daemonAccount struct {
	Name      *string           `json:"name"`
	Address   models.SubstateID `json:"address"`
	KeyIndex  uint64            `json:"key_index"`
	IsDefault bool              `json:"is_default"`
}

type accountsGetDefaultResponse struct {
	Account   daemonAccount `json:"account"`
	PublicKey string        `json:"public_key"`
}

type accountsGetBalancesRequest struct {
	Account accountRef `json:"account"`
	Refresh bool       `json:"refresh"`
}

type accountsListRequest struct {
	Limit  uint64 `json:"limit"`
	Offset uint64 `json:"offset"`
}

// AccountsListResponse is a page of wallet accounts
type AccountsListResponse struct {
	Accounts []json.RawMessage `json:"accounts"`
	Total    uint64            `json:"total"`
}

type accountsCreateRequest struct {
	AccountName       *string         `json:"account_name"`
	CustomAccessRules json.RawMessage `json:"custom_access_rules"`
	IsDefault         bool            `json:"is_default"`
	KeyID             *uint64         `json:"key_id"`
	MaxFee            *models.Amount  `json:"max_fee"`
}

type accountsCreateResponse struct {
	Address   models.SubstateID `json:"address"`
	PublicKey string            `json:"public_key"`
}

type createFreeTestCoinsRequest struct {
	Account *accountRef    `json:"account"`
	Amount  models.Amount  `json:"amount"`
	MaxFee  *models.Amount `json:"max_fee"`
	KeyID   *uint64        `json:"key_id"`
}

type createFreeTestCoinsResponse struct {
	Account   daemonAccount `json:"account"`
	Amount    models.Amount `json:"amount"`
	Fee       models.Amount `json:"fee"`
	PublicKey string        `json:"public_key"`
}

type accountsSetDefaultRequest struct {
	Account accountRef `json:"account"`
}

type substateInput struct {
	SubstateID string  `json:"substate_id"`
	Version    *uint32 `json:"version"`
}

type unsignedTransactionV1 struct {
	Network                uint8             `json:"network"`
	FeeInstructions        []json.RawMessage `json:"fee_instructions"`
	Instructions           []json.RawMessage `json:"instructions"`
	Inputs                 []substateInput   `json:"inputs"`
	MinEpoch               *uint64           `json:"min_epoch"`
	MaxEpoch               *uint64           `json:"max_epoch"`
	IsSealSignerAuthorized bool              `json:"is_seal_signer_authorized"`
}

type transactionEnvelope struct {
	V1 unsignedTransactionV1 `json:"V1"`
}

type transactionSubmitRequest struct {
	Transaction                transactionEnvelope `json:"transaction"`
	SigningKeyIndex            *uint64             `json:"signing_key_index"`
	AutofillInputs             []json.RawMessage   `json:"autofill_inputs"`
	DetectInputs               bool                `json:"detect_inputs"`
	DetectInputsUseUnversioned bool                `json:"detect_inputs_use_unversioned"`
	ProofIDs                   []json.RawMessage   `json:"proof_ids"`
	IsDryRun                   bool                `json:"is_dry_run"`
}

type transactionIDRequest struct {
	TransactionID string `json:"transaction_id"`
}

type transactionGetResultResponse struct {
	TransactionID string          `json:"transaction_id"`
	Status        string          `json:"status"`
	Result        json.RawMessage `json:"result"`
}

type transactionWaitResultRequest struct {
	TransactionID string  `json:"transaction_id"`
	TimeoutSecs   *uint64 `json:"timeout_secs"`
}

type transactionWaitResultResponse struct {
	TransactionID string          `json:"transaction_id"`
	Result        json.RawMessage `json:"result"`
	Status        string          `json:"status"`
	FinalFee      models.Amount   `json:"final_fee"`
	TimedOut      bool            `json:"timed_out"`
}

type substatesGetRequest struct {
	SubstateID string `json:"substate_id"`
}

type substatesGetResponse struct {
	Record struct {
		SubstateID models.SubstateID `json:"substate_id"`
		Version    uint32            `json:"version"`
	} `json:"record"`
	Value json.RawMessage `json:"value"`
}

type substatesListResponse struct {
	Substates []struct {
		SubstateID      models.SubstateID `json:"substate_id"`
		ModuleName      *string           `json:"module_name"`
		Version         uint32            `json:"version"`
		TemplateAddress *string           `json:"template_address"`
	} `json:"substates"`
}

type templatesGetRequest struct {
	TemplateAddress string `json:"template_address"`
}

type templatesGetResponse struct {
	TemplateDefinition json.RawMessage `json:"template_definition"`
}

// NftsListRequest pages through an account's NFTs
type NftsListRequest struct {
	Account json.RawMessage `json:"account"`
	Limit   uint64          `json:"limit"`
	Offset  uint64          `json:"offset"`
}

type keysCreateRequest struct {
	Branch        string `json:"branch"`
	SpecificIndex *int   `json:"specific_index"`
}

type keysCreateResponse struct {
	ID        uint64 `json:"id"`
	PublicKey string `json:"public_key"`
}

// ConfidentialVaultBalanceRequest asks the daemon to reveal a confidential vault's balance range
type ConfidentialVaultBalanceRequest struct {
	VaultID              string         `json:"vault_id"`
	ViewKeyID            uint64         `json:"view_key_id"`
	MinimumExpectedValue *models.Amount `json:"minimum_expected_value"`
	MaximumExpectedValue *models.Amount `json:"maximum_expected_value"`
}

// VaultBalances maps commitment to revealed value, nil when out of range
type VaultBalances struct {
	Balances map[string]*models.Amount `json:"balances"`
}
