package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/tari-project/tapplet-host/internal/domain"
	"github.com/tari-project/tapplet-host/internal/domain/models"
)

// DefaultFinalizeTimeout bounds the wait for the daemon to finalize a transaction
const DefaultFinalizeTimeout = 10 * time.Second

// Session is the explicit context a registry is bound to for one tapplet session
type Session struct {
	Signer          Signer
	Accounts        AccountProvider
	Reporter        ErrorReporter
	FinalizeTimeout time.Duration
	Log             *slog.Logger
}

// TransactionRegistry tracks the transactions a tapplet asked the user to review.
// At most one record is pending at a time. Records are stored as values and
// replaced whole on every update, so concurrent operations on different
// records never lose each other's writes. A terminal record is never changed
// again, and a record being submitted accepts no other action.
type TransactionRegistry struct {
	session Session

	mu         sync.Mutex
	records    map[int64]*models.TransactionRecord
	replies    map[int64]ReplyTarget
	submitting map[int64]struct{}
	pending    *int64
}

// NewTransactionRegistry creates a registry for a session
func NewTransactionRegistry(session Session) *TransactionRegistry {
	if session.Reporter == nil {
		session.Reporter = NopReporter{}
	}
	if session.FinalizeTimeout <= 0 {
		session.FinalizeTimeout = DefaultFinalizeTimeout
	}
	if session.Log == nil {
		session.Log = slog.Default()
	}
	return &TransactionRegistry{
		session: session,
		records:    make(map[int64]*models.TransactionRecord),
		replies:    make(map[int64]ReplyTarget),
		submitting: make(map[int64]struct{}),
	}
}

// AddTransaction registers an inbound request and makes it the pending transaction
func (r *TransactionRegistry) AddTransaction(req models.TransactionRequest, reply ReplyTarget) (*models.TransactionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.records[req.ID]; ok && !existing.Status.IsTerminal() {
		err := fmt.Errorf("transaction %d: %w", req.ID, domain.ErrAlreadyExists)
		r.session.Reporter.ReportError(err.Error())
		return nil, err
	}

	record := &models.TransactionRecord{
		ID:         req.ID,
		MethodName: req.MethodName,
		Args:       append([]json.RawMessage(nil), req.Args...),
		Status:     models.StatusNew,
		DryRun:     models.PlaceholderDryRun(),
	}
	// Review is presented while already pending.
	record.Status = models.StatusPending

	r.records[req.ID] = record
	r.replies[req.ID] = reply
	id := req.ID
	r.pending = &id

	r.session.Log.Debug("transaction added", "tx_id", req.ID, "method", req.MethodName)
	return record.Clone(), nil
}

// GetTransactionByID returns a snapshot of the record, or nil
func (r *TransactionRegistry) GetTransactionByID(id int64) *models.TransactionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[id].Clone()
}

// GetPendingTransaction returns a snapshot of the pending record, or nil
func (r *TransactionRegistry) GetPendingTransaction() *models.TransactionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil {
		return nil
	}
	return r.records[*r.pending].Clone()
}

// Transactions returns snapshots of every tracked record ordered by id
func (r *TransactionRegistry) Transactions() []*models.TransactionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.TransactionRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Clone())
	}
	slices.SortFunc(out, func(a, b *models.TransactionRecord) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// Purge drops every terminal record and returns how many were removed
func (r *TransactionRegistry) Purge() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, rec := range r.records {
		if rec.Status.IsTerminal() {
			delete(r.records, id)
			delete(r.replies, id)
			n++
		}
	}
	return n
}

// RunSimulation dry-runs a pending submitTransaction and annotates the record
// with the outcome. Failures are reported and returned as an InvalidTransaction
// outcome; the caller never receives an error.
func (r *TransactionRegistry) RunSimulation(ctx context.Context, id int64) *models.DryRunResult {
	rec, err := r.actionable(id)
	if err != nil {
		r.session.Reporter.ReportError(err.Error())
		return models.InvalidDryRun(err.Error())
	}
	if rec.MethodName != domain.MethodSubmitTransaction.String() {
		return models.InvalidDryRun(fmt.Sprintf("%s: %s", domain.ErrNotSimulatable, rec.MethodName))
	}
	if r.session.Signer == nil {
		r.session.Reporter.ReportError(domain.ErrSignerUnavailable.Error())
		return models.InvalidDryRun(domain.ErrSignerUnavailable.Error())
	}
	account, err := r.activeAccount(ctx)
	if err != nil {
		r.session.Reporter.ReportError(err.Error())
		return models.InvalidDryRun(err.Error())
	}

	r.update(id, func(rec *models.TransactionRecord) {
		rec.Status = models.StatusDryRun
	})
	if r.isTerminal(id) {
		return models.InvalidDryRun(fmt.Sprintf("transaction %d: %s", id, domain.ErrTransactionTerminal))
	}

	result, err := r.simulate(ctx, rec, account)
	if err != nil {
		r.session.Reporter.ReportError(fmt.Sprintf("Transaction simulation failed: %v", err))
		result = models.InvalidDryRun(err.Error())
		r.update(id, func(rec *models.TransactionRecord) {
			rec.DryRun = result.Clone()
		})
		return result
	}

	r.update(id, func(rec *models.TransactionRecord) {
		rec.DryRun = result.Clone()
		rec.Status = models.StatusPending
	})
	r.session.Log.Debug("transaction simulated", "tx_id", id, "outcome", result.Simulation.Status)
	return result
}

func (r *TransactionRegistry) activeAccount(ctx context.Context) (*models.Account, error) {
	if r.session.Accounts == nil {
		return nil, domain.ErrAccountUnavailable
	}
	account, err := r.session.Accounts.ActiveAccount(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAccountUnavailable, err)
	}
	if account == nil {
		return nil, domain.ErrAccountUnavailable
	}
	return account, nil
}

func (r *TransactionRegistry) simulate(ctx context.Context, rec *models.TransactionRecord, account *models.Account) (*models.DryRunResult, error) {
	req, err := submitRequest(rec)
	if err != nil {
		return nil, err
	}
	req.IsDryRun = true

	signer := r.session.Signer
	submitted, err := signer.SubmitTransaction(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := signer.WaitForTransactionResult(ctx, submitted.TransactionID, r.session.FinalizeTimeout); err != nil {
		return nil, err
	}
	res, err := signer.GetTransactionResult(ctx, submitted.TransactionID)
	if err != nil {
		return nil, err
	}
	finalized, err := res.Finalize()
	if err != nil {
		return nil, err
	}
	if finalized == nil || finalized.Result == nil {
		return models.InvalidDryRun("transaction result is empty"), nil
	}

	switch result := finalized.Result; {
	case result.Reject != nil:
		return &models.DryRunResult{
			BalanceUpdates: []models.BalanceUpdate{},
			Simulation:     models.SimulationOutcome{Status: models.StatusRejected, ErrorMessage: result.Reject.String()},
		}, nil
	case result.AcceptFeeRejectRest != nil:
		return &models.DryRunResult{
			BalanceUpdates: []models.BalanceUpdate{},
			Simulation: models.SimulationOutcome{
				Status:       models.StatusOnlyFeeAccepted,
				ErrorMessage: result.AcceptFeeRejectRest.Reason.String(),
			},
		}, nil
	case result.Accept != nil:
		balances, err := signer.GetAccountBalances(ctx, account.Address)
		if err != nil {
			// the simulation itself succeeded; show the fee without balance changes
			r.session.Log.Warn("failed to fetch wallet balances", "address", account.Address, "error", err)
			balances = nil
		}
		fee := finalized.FeeReceipt.TotalFeesPaid
		return &models.DryRunResult{
			BalanceUpdates: CalculateBalanceUpdates(result.Accept.UpSubstates, balances),
			Simulation:     models.SimulationOutcome{Status: models.StatusAccepted},
			EstimatedFee:   &fee,
		}, nil
	default:
		return models.InvalidDryRun("transaction result is empty"), nil
	}
}

// Submit sends the reviewed transaction for real, acknowledges the tapplet with
// the raw submit result and waits for the daemon to finalize it. It returns the
// finalize result, or nil after reporting a failure.
func (r *TransactionRegistry) Submit(ctx context.Context, id int64) *models.FinalizeResult {
	signer := r.session.Signer
	if signer == nil {
		if _, err := r.actionable(id); err != nil {
			r.session.Reporter.ReportError(err.Error())
			return nil
		}
		r.session.Reporter.ReportError(domain.ErrSignerUnavailable.Error())
		return nil
	}
	rec, err := r.claim(id)
	if err != nil {
		r.session.Reporter.ReportError(err.Error())
		return nil
	}
	defer r.release(id)

	out, err := signer.RunOne(ctx, rec.MethodName, rec.Args)
	if err != nil {
		r.session.Reporter.ReportError(fmt.Sprintf("Error running method %q: %v", rec.MethodName, err))
		return nil
	}
	r.reply(id, domain.NewSignerCallReply(id, out))

	txID, err := transactionID(out)
	if err != nil {
		r.session.Reporter.ReportError(err.Error())
		return nil
	}
	if err := signer.WaitForTransactionResult(ctx, txID, r.session.FinalizeTimeout); err != nil {
		r.session.Reporter.ReportError(fmt.Sprintf("Transaction %s failed: %v", txID, err))
		return nil
	}
	res, err := signer.GetTransactionResult(ctx, txID)
	if err != nil {
		r.session.Reporter.ReportError(fmt.Sprintf("Transaction %s failed: %v", txID, err))
		return nil
	}

	status := res.Status
	if !status.IsTerminal() {
		status = models.StatusRejected
	}
	r.finish(id, status)
	r.session.Log.Info("transaction finalized", "tx_id", id, "transaction_id", txID, "status", status)

	finalized, err := res.Finalize()
	if err != nil {
		r.session.Reporter.ReportError(err.Error())
		return nil
	}
	return finalized
}

// Cancel tells the tapplet the transaction was cancelled and closes the record.
// A transaction already handed to the daemon can no longer be cancelled.
func (r *TransactionRegistry) Cancel(id int64) {
	r.mu.Lock()
	if _, err := r.checkLocked(id); err != nil {
		r.mu.Unlock()
		r.session.Reporter.ReportError(err.Error())
		return
	}
	r.finishLocked(id, models.StatusCancelled)
	r.mu.Unlock()

	r.reply(id, domain.NewSignerCallError(id, domain.TransactionCancelledMessage))
	r.session.Log.Debug("transaction cancelled", "tx_id", id)
}

// actionable returns a snapshot of a record that still accepts simulate, submit or cancel
func (r *TransactionRegistry) actionable(id int64) (*models.TransactionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, err := r.checkLocked(id)
	if err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// claim marks an actionable record as being submitted. Only one claim per
// record can be held; release gives it back.
func (r *TransactionRegistry) claim(id int64) (*models.TransactionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, err := r.checkLocked(id)
	if err != nil {
		return nil, err
	}
	r.submitting[id] = struct{}{}
	return rec.Clone(), nil
}

func (r *TransactionRegistry) release(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.submitting, id)
}

func (r *TransactionRegistry) checkLocked(id int64) (*models.TransactionRecord, error) {
	rec, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("transaction %d: %w", id, domain.ErrNotFound)
	}
	if rec.Status.IsTerminal() {
		return nil, fmt.Errorf("transaction %d is %s: %w", id, rec.Status, domain.ErrTransactionTerminal)
	}
	if _, busy := r.submitting[id]; busy {
		return nil, fmt.Errorf("transaction %d: %w", id, domain.ErrTransactionInFlight)
	}
	return rec, nil
}

func (r *TransactionRegistry) isTerminal(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	return ok && rec.Status.IsTerminal()
}

// update applies fn to a copy of a non-terminal record
func (r *TransactionRegistry) update(id int64, fn func(rec *models.TransactionRecord)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.records[id]
	if !ok || current.Status.IsTerminal() {
		return
	}
	next := current.Clone()
	fn(next)
	r.records[id] = next
}

// finish moves a record to a terminal status and releases the pending slot if it holds it
func (r *TransactionRegistry) finish(id int64, status models.TransactionStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finishLocked(id, status)
}

func (r *TransactionRegistry) finishLocked(id int64, status models.TransactionStatus) {
	current, ok := r.records[id]
	if !ok || current.Status.IsTerminal() {
		return
	}
	next := current.Clone()
	next.Status = status
	r.records[id] = next
	if r.pending != nil && *r.pending == id {
		r.pending = nil
	}
}

// reply posts msg to the reply target recorded for id
func (r *TransactionRegistry) reply(id int64, msg any) {
	r.mu.Lock()
	target, ok := r.replies[id]
	r.mu.Unlock()
	if !ok || target.Source == nil {
		return
	}
	if err := target.Source.PostMessage(msg, target.Origin); err != nil {
		r.session.Log.Warn("failed to post reply", "tx_id", id, "error", err)
	}
}

func submitRequest(rec *models.TransactionRecord) (models.SubmitTransactionRequest, error) {
	var req models.SubmitTransactionRequest
	if len(rec.Args) == 0 {
		return req, domain.ArgumentError{Method: domain.MethodSubmitTransaction, Err: errors.New("missing transaction request")}
	}
	if err := json.Unmarshal(rec.Args[0], &req); err != nil {
		return req, domain.ArgumentError{Method: domain.MethodSubmitTransaction, Err: err}
	}
	return req, nil
}

// transactionID extracts the daemon transaction id from a submit result
func transactionID(out any) (string, error) {
	if res, ok := out.(*models.SubmitTransactionResponse); ok && res != nil {
		return res.TransactionID, nil
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to read submit result: %w", err)
	}
	var res models.SubmitTransactionResponse
	if err := json.Unmarshal(raw, &res); err != nil || res.TransactionID == "" {
		return "", fmt.Errorf("submit result has no transaction id: %s", raw)
	}
	return res.TransactionID, nil
}
