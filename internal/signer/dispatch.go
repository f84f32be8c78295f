package signer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/tari-project/tapplet-host/internal/domain"
	"github.com/tari-project/tapplet-host/internal/domain/models"
)

var errMissingArgument = errors.New("missing required argument")

// handler invokes one signer operation with positional JSON arguments
type handler func(ctx context.Context, s *Signer, call *argList) (any, error)

var handlers = map[domain.SignerMethod]handler{
	domain.MethodGetAccount: func(ctx context.Context, s *Signer, _ *argList) (any, error) {
		return s.GetAccount(ctx)
	},
	domain.MethodGetAccountBalances: func(ctx context.Context, s *Signer, a *argList) (any, error) {
		var address string
		if err := a.required(0, &address); err != nil {
			return nil, err
		}
		return s.GetAccountBalances(ctx, address)
	},
	domain.MethodGetAccountsBalances: func(ctx context.Context, s *Signer, a *argList) (any, error) {
		var name string
		refresh := false
		if err := a.required(0, &name); err != nil {
			return nil, err
		}
		if err := a.optional(1, &refresh); err != nil {
			return nil, err
		}
		return s.GetAccountsBalances(ctx, name, refresh)
	},
	domain.MethodGetAccountsList: func(ctx context.Context, s *Signer, a *argList) (any, error) {
		limit, offset := uint64(DefaultAccountsLimit), uint64(0)
		if err := a.optional(0, &limit); err != nil {
			return nil, err
		}
		if err := a.optional(1, &offset); err != nil {
			return nil, err
		}
		return s.GetAccountsList(ctx, limit, offset)
	},
	domain.MethodSubmitTransaction: func(ctx context.Context, s *Signer, a *argList) (any, error) {
		var req models.SubmitTransactionRequest
		if err := a.required(0, &req); err != nil {
			return nil, err
		}
		return s.SubmitTransaction(ctx, req)
	},
	domain.MethodGetTransactionResult: func(ctx context.Context, s *Signer, a *argList) (any, error) {
		var id string
		if err := a.required(0, &id); err != nil {
			return nil, err
		}
		return s.GetTransactionResult(ctx, id)
	},
	domain.MethodListSubstates: func(ctx context.Context, s *Signer, a *argList) (any, error) {
		var filter models.ListSubstatesRequest
		if err := a.optional(0, &filter); err != nil {
			return nil, err
		}
		return s.ListSubstates(ctx, filter)
	},
	domain.MethodGetSubstate: func(ctx context.Context, s *Signer, a *argList) (any, error) {
		var id string
		if err := a.required(0, &id); err != nil {
			return nil, err
		}
		return s.GetSubstate(ctx, id)
	},
	domain.MethodGetTemplateDefinition: func(ctx context.Context, s *Signer, a *argList) (any, error) {
		var address string
		if err := a.required(0, &address); err != nil {
			return nil, err
		}
		return s.GetTemplateDefinition(ctx, address)
	},
	domain.MethodCreateFreeTestCoins: func(ctx context.Context, s *Signer, a *argList) (any, error) {
		name, amount := DefaultTestCoinsAccount, DefaultTestCoinsAmount
		var fee *models.Amount
		if err := a.optional(0, &name); err != nil {
			return nil, err
		}
		if err := a.optional(1, &amount); err != nil {
			return nil, err
		}
		if err := a.optional(2, &fee); err != nil {
			return nil, err
		}
		return s.CreateFreeTestCoins(ctx, name, amount, fee)
	},
	domain.MethodCreateAccount: func(ctx context.Context, s *Signer, a *argList) (any, error) {
		var (
			name  string
			fee   *models.Amount
			rules json.RawMessage
		)
		isDefault := true
		if err := a.optional(0, &name); err != nil {
			return nil, err
		}
		if err := a.optional(1, &fee); err != nil {
			return nil, err
		}
		if err := a.optional(2, &rules); err != nil {
			return nil, err
		}
		if err := a.optional(3, &isDefault); err != nil {
			return nil, err
		}
		return s.CreateAccount(ctx, name, fee, rules, isDefault)
	},
	domain.MethodSetDefaultAccount: func(ctx context.Context, s *Signer, a *argList) (any, error) {
		var name string
		if err := a.required(0, &name); err != nil {
			return nil, err
		}
		return s.SetDefaultAccount(ctx, name)
	},
	domain.MethodGetNftsList: func(ctx context.Context, s *Signer, a *argList) (any, error) {
		var req NftsListRequest
		if err := a.required(0, &req); err != nil {
			return nil, err
		}
		return s.GetNftsList(ctx, req)
	},
	domain.MethodGetPublicKey: func(ctx context.Context, s *Signer, a *argList) (any, error) {
		var (
			branch string
			index  int
		)
		if err := a.required(0, &branch); err != nil {
			return nil, err
		}
		if err := a.required(1, &index); err != nil {
			return nil, err
		}
		return s.GetPublicKey(ctx, branch, index)
	},
	domain.MethodGetConfidentialVaultBalances: func(ctx context.Context, s *Signer, a *argList) (any, error) {
		var req ConfidentialVaultBalanceRequest
		if err := a.required(0, &req); err != nil {
			return nil, err
		}
		return s.GetConfidentialVaultBalances(ctx, req)
	},
	domain.MethodPublishTemplate: func(ctx context.Context, s *Signer, a *argList) (any, error) {
		var req json.RawMessage
		if err := a.required(0, &req); err != nil {
			return nil, err
		}
		return s.PublishTemplate(ctx, req)
	},
	domain.MethodRequestParentSize: func(ctx context.Context, s *Signer, _ *argList) (any, error) {
		return s.RequestParentSize(ctx)
	},
}

// RunOne invokes the named operation with positional arguments. It is the
// only entry point reachable from a tapplet, so unknown names are an error.
func (s *Signer) RunOne(ctx context.Context, method string, args []json.RawMessage) (any, error) {
	m, err := domain.ParseSignerMethod(method)
	if err != nil {
		return nil, err
	}
	h, ok := handlers[m]
	if !ok {
		return nil, domain.UnknownMethodError{Method: method}
	}
	return h(ctx, s, &argList{method: m, args: args})
}

// argList decodes positional arguments. JSON null and missing positions
// count as absent.
type argList struct {
	method domain.SignerMethod
	args   []json.RawMessage
}

func (a *argList) present(i int) bool {
	if i >= len(a.args) {
		return false
	}
	raw := bytes.TrimSpace(a.args[i])
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

func (a *argList) required(i int, dst any) error {
	if !a.present(i) {
		return domain.ArgumentError{Method: a.method, Position: i, Err: errMissingArgument}
	}
	return a.decode(i, dst)
}

func (a *argList) optional(i int, dst any) error {
	if !a.present(i) {
		return nil
	}
	return a.decode(i, dst)
}

func (a *argList) decode(i int, dst any) error {
	if err := json.Unmarshal(a.args[i], dst); err != nil {
		return domain.ArgumentError{Method: a.method, Position: i, Err: err}
	}
	return nil
}
