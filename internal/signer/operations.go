package signer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/tari-project/tapplet-host/internal/domain"
	"github.com/tari-project/tapplet-host/internal/domain/models"
)

// Defaults applied when a tapplet omits optional positional arguments
const (
	DefaultTestCoinsAccount = "test"
	DefaultTestCoinsAmount  = models.Amount(1_000_000)
	DefaultAccountsLimit    = 10
)

// waitResultGrace is added to the local deadline of a wait so the daemon's own
// timeout reply arrives before the request is cut off.
const waitResultGrace = 2 * time.Second

func (s *Signer) call(ctx context.Context, method string, params any, result any) error {
	s.log.Debug("daemon call", "method", method)
	if err := s.client.Call(ctx, method, params, result); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

// GetAccount returns the default account with its resources; confidential
// balances are folded into the visible balance.
func (s *Signer) GetAccount(ctx context.Context) (*models.Account, error) {
	var def accountsGetDefaultResponse
	if err := s.call(ctx, rpcAccountsGetDefault, struct{}{}, &def); err != nil {
		return nil, err
	}

	address := def.Account.Address.String()
	var balances models.AccountBalances
	req := accountsGetBalancesRequest{Account: accountRef{ComponentAddress: address}, Refresh: false}
	if err := s.call(ctx, rpcAccountsGetBalances, req, &balances); err != nil {
		return nil, err
	}

	return &models.Account{
		AccountID:   def.Account.KeyIndex,
		Address:     address,
		AccountName: lo.FromPtr(def.Account.Name),
		PublicKey:   def.PublicKey,
		Resources: lo.Map(balances.Balances, func(b models.BalanceEntry, _ int) models.AccountResource {
			return models.AccountResource{
				Type:            b.ResourceType,
				ResourceAddress: b.ResourceAddress,
				Balance:         b.Balance + b.ConfidentialBalance,
				TokenSymbol:     b.TokenSymbol,
				VaultID:         b.VaultAddress.String(),
			}
		}),
	}, nil
}

// GetAccountBalances forces a balance refresh for the account at address
func (s *Signer) GetAccountBalances(ctx context.Context, address string) (*models.AccountBalances, error) {
	var res models.AccountBalances
	req := accountsGetBalancesRequest{Account: accountRef{ComponentAddress: address}, Refresh: true}
	if err := s.call(ctx, rpcAccountsGetBalances, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetAccountsBalances returns balances for an account selected by name
func (s *Signer) GetAccountsBalances(ctx context.Context, accountName string, refresh bool) (*models.AccountBalances, error) {
	var res models.AccountBalances
	req := accountsGetBalancesRequest{Account: accountRef{Name: accountName}, Refresh: refresh}
	if err := s.call(ctx, rpcAccountsGetBalances, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetAccountsList pages through the wallet's accounts
func (s *Signer) GetAccountsList(ctx context.Context, limit, offset uint64) (*AccountsListResponse, error) {
	var res AccountsListResponse
	if err := s.call(ctx, rpcAccountsList, accountsListRequest{Limit: limit, Offset: offset}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SubmitTransaction wraps the request in a V1 envelope and submits it.
// Inputs without a version are submitted as latest.
func (s *Signer) SubmitTransaction(ctx context.Context, req models.SubmitTransactionRequest) (*models.SubmitTransactionResponse, error) {
	params := transactionSubmitRequest{
		Transaction: transactionEnvelope{V1: unsignedTransactionV1{
			Network:                req.Network,
			FeeInstructions:        lo.Ternary(req.FeeInstructions == nil, []json.RawMessage{}, req.FeeInstructions),
			Instructions:           lo.Ternary(req.Instructions == nil, []json.RawMessage{}, req.Instructions),
			Inputs:                 buildInputs(req.RequiredSubstates),
			IsSealSignerAuthorized: req.IsSealSignerAuthorized,
		}},
		SigningKeyIndex:            lo.ToPtr(req.AccountID),
		AutofillInputs:             []json.RawMessage{},
		DetectInputs:               true,
		DetectInputsUseUnversioned: req.DetectInputsUseUnversioned,
		ProofIDs:                   []json.RawMessage{},
		IsDryRun:                   req.IsDryRun,
	}

	var res models.SubmitTransactionResponse
	if err := s.call(ctx, rpcTransactionsSubmit, params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func buildInputs(required []models.RequiredSubstate) []substateInput {
	return lo.Map(required, func(r models.RequiredSubstate, _ int) substateInput {
		return substateInput{SubstateID: r.SubstateID, Version: r.Version}
	})
}

// GetTransactionResult polls the daemon for a transaction's current result
func (s *Signer) GetTransactionResult(ctx context.Context, transactionID string) (*models.TransactionResultResponse, error) {
	var res transactionGetResultResponse
	if err := s.call(ctx, rpcTransactionsGetResult, transactionIDRequest{TransactionID: transactionID}, &res); err != nil {
		return nil, err
	}
	status, err := models.ParseTransactionStatus(res.Status)
	if err != nil {
		return nil, err
	}
	return &models.TransactionResultResponse{
		TransactionID: transactionID,
		Status:        status,
		Result:        res.Result,
	}, nil
}

// WaitForTransactionResult blocks until the daemon finalizes the transaction
// or timeout expires. Expiry is reported as domain.ErrFinalizeTimeout.
func (s *Signer) WaitForTransactionResult(ctx context.Context, transactionID string, timeout time.Duration) error {
	secs := uint64(timeout.Round(time.Second) / time.Second)
	if secs == 0 {
		secs = 1
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(secs)*time.Second+waitResultGrace)
	defer cancel()

	req := transactionWaitResultRequest{TransactionID: transactionID, TimeoutSecs: &secs}

	var res transactionWaitResultResponse
	if err := s.call(ctx, rpcTransactionsWaitResult, req, &res); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w: %s", domain.ErrFinalizeTimeout, transactionID)
		}
		return err
	}
	if res.TimedOut {
		return fmt.Errorf("%w: %s", domain.ErrFinalizeTimeout, transactionID)
	}
	return nil
}

// ListSubstates lists substates known to the wallet
func (s *Signer) ListSubstates(ctx context.Context, filter models.ListSubstatesRequest) (*models.ListSubstatesResponse, error) {
	var res substatesListResponse
	if err := s.call(ctx, rpcSubstatesList, filter, &res); err != nil {
		return nil, err
	}
	out := &models.ListSubstatesResponse{Substates: make([]models.ListedSubstate, 0, len(res.Substates))}
	for _, sub := range res.Substates {
		out.Substates = append(out.Substates, models.ListedSubstate{
			SubstateID:      sub.SubstateID.String(),
			ModuleName:      sub.ModuleName,
			Version:         sub.Version,
			TemplateAddress: sub.TemplateAddress,
		})
	}
	return out, nil
}

// GetSubstate fetches one substate by id
func (s *Signer) GetSubstate(ctx context.Context, substateID string) (*models.SubstateRecord, error) {
	var res substatesGetResponse
	if err := s.call(ctx, rpcSubstatesGet, substatesGetRequest{SubstateID: substateID}, &res); err != nil {
		return nil, err
	}
	return &models.SubstateRecord{
		Value: res.Value,
		Address: models.SubstateAddress{
			SubstateID: res.Record.SubstateID.String(),
			Version:    res.Record.Version,
		},
	}, nil
}

// GetTemplateDefinition fetches a published template's definition
func (s *Signer) GetTemplateDefinition(ctx context.Context, templateAddress string) (json.RawMessage, error) {
	var res templatesGetResponse
	if err := s.call(ctx, rpcTemplatesGet, templatesGetRequest{TemplateAddress: templateAddress}, &res); err != nil {
		return nil, err
	}
	return res.TemplateDefinition, nil
}

// CreateFreeTestCoins funds a test account from the faucet
func (s *Signer) CreateFreeTestCoins(ctx context.Context, accountName string, amount models.Amount, fee *models.Amount) (*models.AccountData, error) {
	req := createFreeTestCoinsRequest{Amount: amount, MaxFee: fee}
	if accountName != "" {
		req.Account = &accountRef{Name: accountName}
	}
	var res createFreeTestCoinsResponse
	if err := s.call(ctx, rpcAccountsCreateFreeTestCoins, req, &res); err != nil {
		return nil, err
	}
	return &models.AccountData{
		AccountID: res.Account.KeyIndex,
		Address:   res.Account.Address.String(),
		PublicKey: res.PublicKey,
		Resources: []models.AccountResource{},
	}, nil
}

// CreateAccount creates a wallet account
func (s *Signer) CreateAccount(ctx context.Context, accountName string, fee *models.Amount, customAccessRules json.RawMessage, isDefault bool) (*models.AccountData, error) {
	req := accountsCreateRequest{
		CustomAccessRules: customAccessRules,
		IsDefault:         isDefault,
		MaxFee:            fee,
	}
	if accountName != "" {
		req.AccountName = &accountName
	}
	var res accountsCreateResponse
	if err := s.call(ctx, rpcAccountsCreate, req, &res); err != nil {
		return nil, err
	}
	return &models.AccountData{
		Address:   res.Address.String(),
		PublicKey: res.PublicKey,
		Resources: []models.AccountResource{},
	}, nil
}

// SetDefaultAccount makes the named account the wallet default
func (s *Signer) SetDefaultAccount(ctx context.Context, accountName string) (json.RawMessage, error) {
	var res json.RawMessage
	if err := s.call(ctx, rpcAccountsSetDefault, accountsSetDefaultRequest{Account: accountRef{Name: accountName}}, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// GetNftsList pages through an account's NFTs
func (s *Signer) GetNftsList(ctx context.Context, req NftsListRequest) (json.RawMessage, error) {
	var res json.RawMessage
	if err := s.call(ctx, rpcNftsList, req, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// GetPublicKey derives a public key on a key branch
func (s *Signer) GetPublicKey(ctx context.Context, branch string, index int) (string, error) {
	var res keysCreateResponse
	if err := s.call(ctx, rpcKeysCreate, keysCreateRequest{Branch: branch, SpecificIndex: &index}, &res); err != nil {
		return "", err
	}
	return res.PublicKey, nil
}

// GetConfidentialVaultBalances reveals a confidential vault's balances with a view key
func (s *Signer) GetConfidentialVaultBalances(ctx context.Context, req ConfidentialVaultBalanceRequest) (*VaultBalances, error) {
	var res VaultBalances
	if err := s.call(ctx, rpcViewVaultBalance, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// PublishTemplate publishes a WASM template; the request is passed through unchanged
func (s *Signer) PublishTemplate(ctx context.Context, req json.RawMessage) (json.RawMessage, error) {
	var res json.RawMessage
	if err := s.call(ctx, rpcTemplatesPublish, req, &res); err != nil {
		return nil, err
	}
	return res, nil
}
