package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tari-project/tapplet-host/internal/domain"
	"github.com/tari-project/tapplet-host/internal/domain/models"
)

// Mock implementations

type mockSigner struct {
	mu sync.Mutex

	submitted   []models.SubmitTransactionRequest
	runOneCalls []string
	calls       int
	window      domain.WindowSize

	SubmitTransactionFunc    func(ctx context.Context, req models.SubmitTransactionRequest) (*models.SubmitTransactionResponse, error)
	WaitFunc                 func(ctx context.Context, id string, timeout time.Duration) error
	GetTransactionResultFunc func(ctx context.Context, id string) (*models.TransactionResultResponse, error)
	GetAccountBalancesFunc   func(ctx context.Context, address string) (*models.AccountBalances, error)
	RunOneFunc               func(ctx context.Context, method string, args []json.RawMessage) (any, error)
}

func (m *mockSigner) record() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}

func (m *mockSigner) ID() string { return "session" }

func (m *mockSigner) RunOne(ctx context.Context, method string, args []json.RawMessage) (any, error) {
	m.record()
	m.mu.Lock()
	m.runOneCalls = append(m.runOneCalls, method)
	m.mu.Unlock()
	if m.RunOneFunc != nil {
		return m.RunOneFunc(ctx, method, args)
	}
	return nil, errors.New("not implemented")
}

func (m *mockSigner) SubmitTransaction(ctx context.Context, req models.SubmitTransactionRequest) (*models.SubmitTransactionResponse, error) {
	m.record()
	m.mu.Lock()
	m.submitted = append(m.submitted, req)
	m.mu.Unlock()
	if m.SubmitTransactionFunc != nil {
		return m.SubmitTransactionFunc(ctx, req)
	}
	return &models.SubmitTransactionResponse{TransactionID: "sim-1"}, nil
}

func (m *mockSigner) WaitForTransactionResult(ctx context.Context, id string, timeout time.Duration) error {
	m.record()
	if m.WaitFunc != nil {
		return m.WaitFunc(ctx, id, timeout)
	}
	return nil
}

func (m *mockSigner) GetTransactionResult(ctx context.Context, id string) (*models.TransactionResultResponse, error) {
	m.record()
	if m.GetTransactionResultFunc != nil {
		return m.GetTransactionResultFunc(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockSigner) GetAccountBalances(ctx context.Context, address string) (*models.AccountBalances, error) {
	m.record()
	if m.GetAccountBalancesFunc != nil {
		return m.GetAccountBalancesFunc(ctx, address)
	}
	return &models.AccountBalances{}, nil
}

func (m *mockSigner) SetWindowSize(width, height int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.window = domain.WindowSize{Width: width, Height: height}
}

func (m *mockSigner) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockAccounts struct {
	account *models.Account
	err     error
}

func (m *mockAccounts) ActiveAccount(context.Context) (*models.Account, error) {
	return m.account, m.err
}

// blockingAccounts holds ActiveAccount until release is closed
type blockingAccounts struct {
	account *models.Account
	started chan struct{}
	release chan struct{}
}

func (m *blockingAccounts) ActiveAccount(context.Context) (*models.Account, error) {
	close(m.started)
	<-m.release
	return m.account, nil
}

type mockReporter struct {
	mu       sync.Mutex
	messages []string
}

func (m *mockReporter) ReportError(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *mockReporter) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.messages...)
}

type postedMessage struct {
	Msg    any
	Origin string
}

type mockSource struct {
	mu     sync.Mutex
	posted []postedMessage
}

func (m *mockSource) PostMessage(msg any, targetOrigin string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posted = append(m.posted, postedMessage{Msg: msg, Origin: targetOrigin})
	return nil
}

func (m *mockSource) Posted() []postedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]postedMessage(nil), m.posted...)
}

// Fixtures

const tappletOrigin = "http://localhost:3000"

const scenarioArgs = `{
	"instructions": [{"CallMethod": {"method": "withdraw"}}],
	"fee_instructions": [{"CallMethod": {"method": "pay_fee"}}],
	"required_substates": [{"substate_id": "vault_abc", "version": 3}],
	"network": "testnet"
}`

const acceptResult = `{
	"transaction_hash": "hash",
	"result": {"Accept": {
		"up_substates": [
			[{"Vault": "vault_abc"}, {"substate": {"Vault": {"resource_container": {"Fungible": {"address": "resource_xtm", "amount": 90, "locked_amount": 0}}}}, "version": 4}]
		],
		"down_substates": []
	}},
	"fee_receipt": {"total_fee_payment": 1000, "total_fees_paid": 250}
}`

const rejectResult = `{
	"transaction_hash": "hash",
	"result": {"Reject": "insufficient funds"},
	"fee_receipt": {"total_fee_payment": 0, "total_fees_paid": 0}
}`

const partialResult = `{
	"transaction_hash": "hash",
	"result": {"AcceptFeeRejectRest": [{"up_substates": [], "down_substates": []}, "execution failed"]},
	"fee_receipt": {"total_fee_payment": 1000, "total_fees_paid": 120}
}`

func submitRequest42() models.TransactionRequest {
	return models.TransactionRequest{
		MethodName: "submitTransaction",
		Args:       []json.RawMessage{json.RawMessage(scenarioArgs)},
		ID:         42,
	}
}

func resultReturning(status models.TransactionStatus, result string) func(context.Context, string) (*models.TransactionResultResponse, error) {
	return func(_ context.Context, id string) (*models.TransactionResultResponse, error) {
		return &models.TransactionResultResponse{TransactionID: id, Status: status, Result: json.RawMessage(result)}, nil
	}
}

func walletBalances(context.Context, string) (*models.AccountBalances, error) {
	return &models.AccountBalances{Balances: []models.BalanceEntry{
		{VaultAddress: models.ParseSubstateID("vault_abc"), Balance: 100, TokenSymbol: "XTM"},
	}}, nil
}

type registryFixture struct {
	registry *TransactionRegistry
	signer   *mockSigner
	reporter *mockReporter
	source   *mockSource
}

func newRegistryFixture() *registryFixture {
	return newRegistryFixtureWithAccounts(&mockAccounts{account: &models.Account{Address: "component_acc"}})
}

func newRegistryFixtureWithAccounts(accounts AccountProvider) *registryFixture {
	signer := &mockSigner{}
	reporter := &mockReporter{}
	return &registryFixture{
		registry: NewTransactionRegistry(Session{
			Signer:          signer,
			Accounts:        accounts,
			Reporter:        reporter,
			FinalizeTimeout: time.Second,
		}),
		signer:   signer,
		reporter: reporter,
		source:   &mockSource{},
	}
}

func (f *registryFixture) add(t *testing.T, req models.TransactionRequest) {
	t.Helper()
	_, err := f.registry.AddTransaction(req, ReplyTarget{Source: f.source, Origin: tappletOrigin})
	require.NoError(t, err)
}

// Tests

func TestTransactionRegistry_PendingPointerFollowsLatest(t *testing.T) {
	f := newRegistryFixture()

	for _, id := range []int64{3, 1, 7, 5} {
		f.add(t, models.TransactionRequest{MethodName: "submitTransaction", ID: id})

		pending := f.registry.GetPendingTransaction()
		require.NotNil(t, pending)
		assert.Equal(t, id, pending.ID)
		assert.Equal(t, models.StatusPending, pending.Status)
	}

	for _, id := range []int64{1, 3, 5, 7} {
		rec := f.registry.GetTransactionByID(id)
		require.NotNil(t, rec)
		assert.Equal(t, id, rec.ID)
	}
	assert.Nil(t, f.registry.GetTransactionByID(99))

	ids := make([]int64, 0)
	for _, rec := range f.registry.Transactions() {
		ids = append(ids, rec.ID)
	}
	assert.Equal(t, []int64{1, 3, 5, 7}, ids)
}

func TestTransactionRegistry_AddTransactionPlaceholder(t *testing.T) {
	f := newRegistryFixture()
	rec, err := f.registry.AddTransaction(submitRequest42(), ReplyTarget{Source: f.source, Origin: tappletOrigin})
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, rec.Status)
	require.NotNil(t, rec.DryRun)
	assert.Equal(t, models.StatusDryRun, rec.DryRun.Simulation.Status)
	assert.Empty(t, rec.DryRun.BalanceUpdates)
	assert.Nil(t, rec.DryRun.EstimatedFee)
}

func TestTransactionRegistry_AddTransactionDuplicateID(t *testing.T) {
	f := newRegistryFixture()
	f.add(t, submitRequest42())

	_, err := f.registry.AddTransaction(submitRequest42(), ReplyTarget{})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.Len(t, f.reporter.Messages(), 1)

	f.registry.Cancel(42)
	_, err = f.registry.AddTransaction(submitRequest42(), ReplyTarget{})
	assert.NoError(t, err)
}

func TestTransactionRegistry_SnapshotsAreIsolated(t *testing.T) {
	f := newRegistryFixture()
	f.add(t, submitRequest42())

	snap := f.registry.GetTransactionByID(42)
	snap.Status = models.StatusAccepted
	snap.DryRun.BalanceUpdates = append(snap.DryRun.BalanceUpdates, models.BalanceUpdate{VaultAddress: "x"})

	rec := f.registry.GetTransactionByID(42)
	assert.Equal(t, models.StatusPending, rec.Status)
	assert.Empty(t, rec.DryRun.BalanceUpdates)
}

func TestTransactionRegistry_RunSimulationAccept(t *testing.T) {
	f := newRegistryFixture()
	f.signer.GetTransactionResultFunc = resultReturning(models.StatusDryRun, acceptResult)
	f.signer.GetAccountBalancesFunc = walletBalances
	f.add(t, submitRequest42())

	pending := f.registry.GetPendingTransaction()
	require.NotNil(t, pending)
	assert.Equal(t, int64(42), pending.ID)
	assert.Equal(t, models.StatusPending, pending.Status)

	result := f.registry.RunSimulation(context.Background(), 42)

	fee := models.Amount(250)
	assert.Equal(t, &models.DryRunResult{
		BalanceUpdates: []models.BalanceUpdate{
			{VaultAddress: "vault_abc", TokenSymbol: "XTM", CurrentBalance: 100, NewBalance: 90},
		},
		Simulation:   models.SimulationOutcome{Status: models.StatusAccepted},
		EstimatedFee: &fee,
	}, result)

	require.Len(t, f.signer.submitted, 1)
	sent := f.signer.submitted[0]
	assert.True(t, sent.IsDryRun)
	assert.Equal(t, uint8(0x26), sent.Network)
	require.Len(t, sent.RequiredSubstates, 1)
	assert.Equal(t, "vault_abc", sent.RequiredSubstates[0].SubstateID)

	rec := f.registry.GetTransactionByID(42)
	assert.Equal(t, models.StatusPending, rec.Status)
	assert.Equal(t, result, rec.DryRun)
	assert.Empty(t, f.reporter.Messages())
}

func TestTransactionRegistry_RunSimulationReject(t *testing.T) {
	f := newRegistryFixture()
	f.signer.GetTransactionResultFunc = resultReturning(models.StatusDryRun, rejectResult)
	f.signer.GetAccountBalancesFunc = walletBalances
	f.add(t, submitRequest42())

	result := f.registry.RunSimulation(context.Background(), 42)

	assert.Equal(t, &models.DryRunResult{
		BalanceUpdates: []models.BalanceUpdate{},
		Simulation:     models.SimulationOutcome{Status: models.StatusRejected, ErrorMessage: "insufficient funds"},
	}, result)
	assert.Equal(t, models.StatusPending, f.registry.GetTransactionByID(42).Status)
	assert.Empty(t, f.reporter.Messages())
}

func TestTransactionRegistry_RunSimulationAcceptFeeRejectRest(t *testing.T) {
	f := newRegistryFixture()
	f.signer.GetTransactionResultFunc = resultReturning(models.StatusDryRun, partialResult)
	f.add(t, submitRequest42())

	result := f.registry.RunSimulation(context.Background(), 42)

	assert.Empty(t, result.BalanceUpdates)
	assert.Equal(t, models.StatusOnlyFeeAccepted, result.Simulation.Status)
	assert.Equal(t, "execution failed", result.Simulation.ErrorMessage)
	assert.Nil(t, result.EstimatedFee)
}

func TestTransactionRegistry_RunSimulationEmptyResult(t *testing.T) {
	f := newRegistryFixture()
	f.signer.GetTransactionResultFunc = resultReturning(models.StatusDryRun, "null")
	f.add(t, submitRequest42())

	result := f.registry.RunSimulation(context.Background(), 42)

	assert.Equal(t, models.StatusInvalidTransaction, result.Simulation.Status)
	assert.Equal(t, models.StatusPending, f.registry.GetTransactionByID(42).Status)
}

func TestTransactionRegistry_RunSimulationNotSubmit(t *testing.T) {
	f := newRegistryFixture()
	f.add(t, models.TransactionRequest{MethodName: "getAccount", ID: 9})

	result := f.registry.RunSimulation(context.Background(), 9)

	assert.Empty(t, result.BalanceUpdates)
	assert.Equal(t, models.StatusInvalidTransaction, result.Simulation.Status)
	assert.Zero(t, f.signer.callCount())
	assert.Equal(t, models.StatusPending, f.registry.GetTransactionByID(9).Status)
}

func TestTransactionRegistry_RunSimulationPreconditions(t *testing.T) {
	t.Run("no signer", func(t *testing.T) {
		reporter := &mockReporter{}
		registry := NewTransactionRegistry(Session{Reporter: reporter, Accounts: &mockAccounts{account: &models.Account{}}})
		_, err := registry.AddTransaction(submitRequest42(), ReplyTarget{})
		require.NoError(t, err)

		result := registry.RunSimulation(context.Background(), 42)
		assert.Equal(t, models.StatusInvalidTransaction, result.Simulation.Status)
		assert.Equal(t, []string{domain.ErrSignerUnavailable.Error()}, reporter.Messages())
	})

	t.Run("no account", func(t *testing.T) {
		signer := &mockSigner{}
		reporter := &mockReporter{}
		registry := NewTransactionRegistry(Session{Signer: signer, Accounts: &mockAccounts{}, Reporter: reporter})
		_, err := registry.AddTransaction(submitRequest42(), ReplyTarget{})
		require.NoError(t, err)

		result := registry.RunSimulation(context.Background(), 42)
		assert.Equal(t, models.StatusInvalidTransaction, result.Simulation.Status)
		assert.Equal(t, []string{domain.ErrAccountUnavailable.Error()}, reporter.Messages())
		assert.Zero(t, signer.callCount())
	})
}

func TestTransactionRegistry_RunSimulationFailureLeavesMarker(t *testing.T) {
	f := newRegistryFixture()
	f.signer.WaitFunc = func(context.Context, string, time.Duration) error {
		return domain.ErrFinalizeTimeout
	}
	f.add(t, submitRequest42())

	result := f.registry.RunSimulation(context.Background(), 42)

	assert.Equal(t, models.StatusInvalidTransaction, result.Simulation.Status)
	assert.Contains(t, result.Simulation.ErrorMessage, domain.ErrFinalizeTimeout.Error())
	require.Len(t, f.reporter.Messages(), 1)

	rec := f.registry.GetTransactionByID(42)
	assert.Equal(t, models.StatusDryRun, rec.Status)
	assert.Equal(t, result, rec.DryRun)

	// a later simulation may still run from the failed marker
	f.signer.WaitFunc = nil
	f.signer.GetTransactionResultFunc = resultReturning(models.StatusDryRun, rejectResult)
	f.registry.RunSimulation(context.Background(), 42)
	assert.Equal(t, models.StatusPending, f.registry.GetTransactionByID(42).Status)
}

func TestTransactionRegistry_RunSimulationTwice(t *testing.T) {
	f := newRegistryFixture()
	f.signer.GetTransactionResultFunc = resultReturning(models.StatusDryRun, acceptResult)
	f.signer.GetAccountBalancesFunc = walletBalances
	f.add(t, submitRequest42())

	first := f.registry.RunSimulation(context.Background(), 42)
	rec1 := f.registry.GetTransactionByID(42)
	second := f.registry.RunSimulation(context.Background(), 42)
	rec2 := f.registry.GetTransactionByID(42)

	assert.Equal(t, first, second)
	assert.Equal(t, rec1.ID, rec2.ID)
	assert.Equal(t, models.StatusPending, rec1.Status)
	assert.Equal(t, models.StatusPending, rec2.Status)
	assert.Equal(t, int64(42), f.registry.GetPendingTransaction().ID)
}

func TestTransactionRegistry_ConcurrentSimulations(t *testing.T) {
	f := newRegistryFixture()
	f.signer.GetTransactionResultFunc = resultReturning(models.StatusDryRun, acceptResult)
	f.signer.GetAccountBalancesFunc = walletBalances

	ids := []int64{1, 2, 3, 4, 5, 6, 7, 8}
	for _, id := range ids {
		req := submitRequest42()
		req.ID = id
		f.add(t, req)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			f.registry.RunSimulation(context.Background(), id)
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		rec := f.registry.GetTransactionByID(id)
		assert.Equal(t, models.StatusPending, rec.Status)
		assert.Equal(t, models.StatusAccepted, rec.DryRun.Simulation.Status)
		assert.Len(t, rec.DryRun.BalanceUpdates, 1)
	}
}

func TestTransactionRegistry_Cancel(t *testing.T) {
	f := newRegistryFixture()
	f.add(t, submitRequest42())

	f.registry.Cancel(42)

	rec := f.registry.GetTransactionByID(42)
	assert.Equal(t, models.StatusCancelled, rec.Status)
	assert.Nil(t, f.registry.GetPendingTransaction())

	posted := f.source.Posted()
	require.Len(t, posted, 1)
	assert.Equal(t, tappletOrigin, posted[0].Origin)
	reply, ok := posted[0].Msg.(domain.SignerCallReply)
	require.True(t, ok)
	assert.Equal(t, int64(42), reply.ID)
	assert.Equal(t, "Transaction was cancelled", reply.ResultError)
	assert.Equal(t, "signer-call", reply.Type)

	raw, err := json.Marshal(reply)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":42,"result":{},"resultError":"Transaction was cancelled","type":"signer-call"}`, string(raw))

	// a terminal record cannot be cancelled again
	f.registry.Cancel(42)
	assert.Len(t, f.source.Posted(), 1)
	assert.Len(t, f.reporter.Messages(), 1)
}

func TestTransactionRegistry_CancelKeepsOtherPending(t *testing.T) {
	f := newRegistryFixture()
	f.add(t, models.TransactionRequest{MethodName: "submitTransaction", ID: 1})
	f.add(t, models.TransactionRequest{MethodName: "submitTransaction", ID: 2})

	f.registry.Cancel(1)

	pending := f.registry.GetPendingTransaction()
	require.NotNil(t, pending)
	assert.Equal(t, int64(2), pending.ID)
}

func TestTransactionRegistry_Submit(t *testing.T) {
	f := newRegistryFixture()
	f.signer.RunOneFunc = func(_ context.Context, method string, args []json.RawMessage) (any, error) {
		return &models.SubmitTransactionResponse{TransactionID: "tx-42"}, nil
	}
	f.signer.GetTransactionResultFunc = resultReturning(models.StatusAccepted, acceptResult)
	f.add(t, submitRequest42())

	result := f.registry.Submit(context.Background(), 42)

	require.NotNil(t, result)
	require.NotNil(t, result.Result)
	assert.NotNil(t, result.Result.Accept)
	assert.Equal(t, models.Amount(250), result.FeeReceipt.TotalFeesPaid)

	assert.Equal(t, []string{"submitTransaction"}, f.signer.runOneCalls)
	assert.Empty(t, f.signer.submitted, "submit goes through RunOne, not the dry run path")

	posted := f.source.Posted()
	require.Len(t, posted, 1)
	assert.Equal(t, tappletOrigin, posted[0].Origin)
	assert.Equal(t, domain.NewSignerCallReply(42, &models.SubmitTransactionResponse{TransactionID: "tx-42"}), posted[0].Msg)

	assert.Equal(t, models.StatusAccepted, f.registry.GetTransactionByID(42).Status)
	assert.Nil(t, f.registry.GetPendingTransaction())
	assert.Empty(t, f.reporter.Messages())
}

func TestTransactionRegistry_SubmitNonTerminalStatusIsRejected(t *testing.T) {
	f := newRegistryFixture()
	f.signer.RunOneFunc = func(context.Context, string, []json.RawMessage) (any, error) {
		return map[string]any{"transaction_id": "tx-42"}, nil
	}
	f.signer.GetTransactionResultFunc = resultReturning(models.StatusPending, "null")
	f.add(t, submitRequest42())

	result := f.registry.Submit(context.Background(), 42)

	assert.Nil(t, result)
	assert.Equal(t, models.StatusRejected, f.registry.GetTransactionByID(42).Status)
	assert.Nil(t, f.registry.GetPendingTransaction())
}

func TestTransactionRegistry_SubmitTimeout(t *testing.T) {
	f := newRegistryFixture()
	f.signer.RunOneFunc = func(context.Context, string, []json.RawMessage) (any, error) {
		return &models.SubmitTransactionResponse{TransactionID: "tx-42"}, nil
	}
	f.signer.WaitFunc = func(_ context.Context, _ string, timeout time.Duration) error {
		assert.Equal(t, time.Second, timeout)
		return domain.ErrFinalizeTimeout
	}
	f.add(t, submitRequest42())

	result := f.registry.Submit(context.Background(), 42)

	assert.Nil(t, result)
	require.Len(t, f.reporter.Messages(), 1)
	assert.Contains(t, f.reporter.Messages()[0], domain.ErrFinalizeTimeout.Error())
	// the acknowledgement was already posted
	assert.Len(t, f.source.Posted(), 1)
}

func TestTransactionRegistry_SubmitFailure(t *testing.T) {
	f := newRegistryFixture()
	f.signer.RunOneFunc = func(context.Context, string, []json.RawMessage) (any, error) {
		return nil, errors.New("daemon unreachable")
	}
	f.add(t, submitRequest42())

	result := f.registry.Submit(context.Background(), 42)

	assert.Nil(t, result)
	assert.Empty(t, f.source.Posted())
	require.Len(t, f.reporter.Messages(), 1)
	assert.Contains(t, f.reporter.Messages()[0], "daemon unreachable")
	assert.Equal(t, models.StatusPending, f.registry.GetTransactionByID(42).Status)
	assert.Equal(t, int64(42), f.registry.GetPendingTransaction().ID)

	// the failed attempt does not keep the record locked
	f.registry.Cancel(42)
	assert.Equal(t, models.StatusCancelled, f.registry.GetTransactionByID(42).Status)
}

func TestTransactionRegistry_SubmitWithoutSigner(t *testing.T) {
	reporter := &mockReporter{}
	registry := NewTransactionRegistry(Session{Reporter: reporter})
	_, err := registry.AddTransaction(submitRequest42(), ReplyTarget{})
	require.NoError(t, err)

	assert.Nil(t, registry.Submit(context.Background(), 42))
	assert.Equal(t, []string{domain.ErrSignerUnavailable.Error()}, reporter.Messages())
}

func TestTransactionRegistry_TerminalRecordsRefuseActions(t *testing.T) {
	f := newRegistryFixture()
	f.add(t, submitRequest42())
	f.registry.Cancel(42)

	result := f.registry.RunSimulation(context.Background(), 42)
	assert.Equal(t, models.StatusInvalidTransaction, result.Simulation.Status)
	assert.Nil(t, f.registry.Submit(context.Background(), 42))
	assert.Equal(t, models.StatusCancelled, f.registry.GetTransactionByID(42).Status)
	assert.Zero(t, f.signer.callCount())
	assert.Len(t, f.reporter.Messages(), 2)
}

func TestTransactionRegistry_Purge(t *testing.T) {
	f := newRegistryFixture()
	f.add(t, models.TransactionRequest{MethodName: "submitTransaction", ID: 1})
	f.add(t, models.TransactionRequest{MethodName: "submitTransaction", ID: 2})
	f.registry.Cancel(1)

	assert.Equal(t, 1, f.registry.Purge())
	assert.Nil(t, f.registry.GetTransactionByID(1))
	assert.NotNil(t, f.registry.GetTransactionByID(2))
	assert.Equal(t, 0, f.registry.Purge())
}

func TestTransactionRegistry_RunSimulationBalancesUnavailable(t *testing.T) {
	f := newRegistryFixture()
	f.signer.GetTransactionResultFunc = resultReturning(models.StatusDryRun, acceptResult)
	f.signer.GetAccountBalancesFunc = func(context.Context, string) (*models.AccountBalances, error) {
		return nil, errors.New("wallet busy")
	}
	f.add(t, submitRequest42())

	result := f.registry.RunSimulation(context.Background(), 42)

	require.NotNil(t, result.EstimatedFee)
	assert.Equal(t, models.Amount(250), *result.EstimatedFee)
	assert.Equal(t, models.StatusAccepted, result.Simulation.Status)
	assert.Empty(t, result.BalanceUpdates)
	assert.Equal(t, models.StatusPending, f.registry.GetTransactionByID(42).Status)
	assert.Empty(t, f.reporter.Messages())
}

func TestTransactionRegistry_CancelDuringSimulation(t *testing.T) {
	assertCancelWins := func(t *testing.T, f *registryFixture, started, release chan struct{}) {
		t.Helper()
		done := make(chan *models.DryRunResult, 1)
		go func() {
			done <- f.registry.RunSimulation(context.Background(), 42)
		}()

		<-started
		f.registry.Cancel(42)
		assert.Equal(t, models.StatusCancelled, f.registry.GetTransactionByID(42).Status)
		close(release)

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("simulation did not return")
		}

		rec := f.registry.GetTransactionByID(42)
		assert.Equal(t, models.StatusCancelled, rec.Status)
		assert.Nil(t, f.registry.GetPendingTransaction())
		require.Len(t, f.source.Posted(), 1)

		// a cancelled transaction stays unsubmittable
		assert.Nil(t, f.registry.Submit(context.Background(), 42))
		assert.Empty(t, f.signer.runOneCalls)
		assert.Equal(t, models.StatusCancelled, f.registry.GetTransactionByID(42).Status)
	}

	t.Run("while loading the account", func(t *testing.T) {
		accounts := &blockingAccounts{
			account: &models.Account{Address: "component_acc"},
			started: make(chan struct{}),
			release: make(chan struct{}),
		}
		f := newRegistryFixtureWithAccounts(accounts)
		f.signer.GetTransactionResultFunc = resultReturning(models.StatusDryRun, acceptResult)
		f.signer.GetAccountBalancesFunc = walletBalances
		f.add(t, submitRequest42())

		assertCancelWins(t, f, accounts.started, accounts.release)
	})

	t.Run("while the dry run is outstanding", func(t *testing.T) {
		f := newRegistryFixture()
		started, release := make(chan struct{}), make(chan struct{})
		f.signer.WaitFunc = func(context.Context, string, time.Duration) error {
			close(started)
			<-release
			return nil
		}
		f.signer.GetTransactionResultFunc = resultReturning(models.StatusDryRun, acceptResult)
		f.signer.GetAccountBalancesFunc = walletBalances
		f.add(t, submitRequest42())

		assertCancelWins(t, f, started, release)

		// the late outcome is not written onto the cancelled record
		assert.Equal(t, models.StatusDryRun, f.registry.GetTransactionByID(42).DryRun.Simulation.Status)
	})
}

func TestTransactionRegistry_CancelDuringSubmit(t *testing.T) {
	f := newRegistryFixture()
	started, release := make(chan struct{}), make(chan struct{})
	f.signer.RunOneFunc = func(context.Context, string, []json.RawMessage) (any, error) {
		return &models.SubmitTransactionResponse{TransactionID: "tx-42"}, nil
	}
	f.signer.WaitFunc = func(context.Context, string, time.Duration) error {
		close(started)
		<-release
		return nil
	}
	f.signer.GetTransactionResultFunc = resultReturning(models.StatusAccepted, acceptResult)
	f.add(t, submitRequest42())

	done := make(chan *models.FinalizeResult, 1)
	go func() {
		done <- f.registry.Submit(context.Background(), 42)
	}()

	<-started
	f.registry.Cancel(42)
	require.Len(t, f.reporter.Messages(), 1)
	assert.Contains(t, f.reporter.Messages()[0], domain.ErrTransactionInFlight.Error())
	assert.Equal(t, models.StatusPending, f.registry.GetTransactionByID(42).Status)
	close(release)

	select {
	case result := <-done:
		assert.NotNil(t, result)
	case <-time.After(time.Second):
		t.Fatal("submit did not return")
	}

	assert.Equal(t, models.StatusAccepted, f.registry.GetTransactionByID(42).Status)
	posted := f.source.Posted()
	require.Len(t, posted, 1, "only the submit acknowledgement reaches the tapplet")
	assert.Equal(t, domain.NewSignerCallReply(42, &models.SubmitTransactionResponse{TransactionID: "tx-42"}), posted[0].Msg)
}

func TestTransactionRegistry_OverlappingSubmits(t *testing.T) {
	f := newRegistryFixture()
	started, release := make(chan struct{}), make(chan struct{})
	f.signer.RunOneFunc = func(context.Context, string, []json.RawMessage) (any, error) {
		close(started)
		<-release
		return &models.SubmitTransactionResponse{TransactionID: "tx-42"}, nil
	}
	f.signer.GetTransactionResultFunc = resultReturning(models.StatusAccepted, acceptResult)
	f.add(t, submitRequest42())

	done := make(chan *models.FinalizeResult, 1)
	go func() {
		done <- f.registry.Submit(context.Background(), 42)
	}()
	<-started

	assert.Nil(t, f.registry.Submit(context.Background(), 42))
	simulated := f.registry.RunSimulation(context.Background(), 42)
	assert.Equal(t, models.StatusInvalidTransaction, simulated.Simulation.Status)

	messages := f.reporter.Messages()
	require.Len(t, messages, 2)
	for _, msg := range messages {
		assert.Contains(t, msg, domain.ErrTransactionInFlight.Error())
	}
	close(release)

	select {
	case result := <-done:
		assert.NotNil(t, result)
	case <-time.After(time.Second):
		t.Fatal("submit did not return")
	}

	f.signer.mu.Lock()
	assert.Equal(t, []string{"submitTransaction"}, f.signer.runOneCalls)
	assert.Empty(t, f.signer.submitted)
	f.signer.mu.Unlock()
	assert.Equal(t, models.StatusAccepted, f.registry.GetTransactionByID(42).Status)
	assert.Len(t, f.source.Posted(), 1)
}
