// Package review is the terminal dialog for transactions a tapplet submits.
package review

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/sourcegraph/conc"

	"github.com/tari-project/tapplet-host/internal/cli/render"
	"github.com/tari-project/tapplet-host/internal/domain/models"
	"github.com/tari-project/tapplet-host/internal/usecase"
)

// Registry is the transaction lifecycle of one tapplet session
type Registry interface {
	GetTransactionByID(id int64) *models.TransactionRecord
	RunSimulation(ctx context.Context, id int64) *models.DryRunResult
	Submit(ctx context.Context, id int64) *models.FinalizeResult
	Cancel(id int64)
}

// Options configure a Prompter
type Options struct {
	Out     io.Writer
	Chooser Chooser
	// Spinner shows activity while the daemon works
	Spinner bool
}

type job struct {
	ctx      context.Context
	registry Registry
	id       int64
}

// Prompter presents transactions one at a time. Sessions enqueue through
// the notifier returned by For; the terminal is never shared by two dialogs.
type Prompter struct {
	opts     Options
	renderer *render.TransactionRenderer
	log      *slog.Logger

	mu      sync.Mutex
	pending []job
	wake    chan struct{}

	worker conc.WaitGroup
	cancel context.CancelFunc
	once   sync.Once
}

// NewPrompter starts a prompter
func NewPrompter(opts Options, log *slog.Logger) *Prompter {
	if opts.Chooser == nil {
		opts.Chooser = AutoChooser{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Prompter{
		opts:     opts,
		renderer: render.NewTransactionRenderer(opts.Out),
		log:      log.With("component", "review"),
		wake:     make(chan struct{}, 1),
		cancel:   cancel,
	}
	p.worker.Go(func() { p.loop(ctx) })
	return p
}

// For binds the prompter to one session's registry
func (p *Prompter) For(registry Registry) usecase.ReviewNotifier {
	return &notifier{prompter: p, registry: registry}
}

// Close stops presenting; queued transactions are left untouched
func (p *Prompter) Close() {
	p.once.Do(func() {
		p.cancel()
		p.worker.Wait()
	})
}

type notifier struct {
	prompter *Prompter
	registry Registry
}

// NotifyTransactionReview queues the transaction and returns immediately
func (n *notifier) NotifyTransactionReview(ctx context.Context, id int64) {
	n.prompter.enqueue(job{ctx: ctx, registry: n.registry, id: id})
}

func (p *Prompter) enqueue(j job) {
	p.mu.Lock()
	p.pending = append(p.pending, j)
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Prompter) next() (job, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) == 0 {
		return job{}, false
	}
	j := p.pending[0]
	p.pending = p.pending[1:]
	return j, true
}

func (p *Prompter) loop(ctx context.Context) {
	for {
		for {
			j, ok := p.next()
			if !ok {
				break
			}
			if ctx.Err() != nil {
				return
			}
			if j.ctx.Err() != nil {
				continue
			}
			p.review(ctx, j)
		}
		select {
		case <-ctx.Done():
			return
		case <-p.wake:
		}
	}
}

// review walks one transaction through the dialog. Submit is offered once an
// estimate produced a fee.
func (p *Prompter) review(ctx context.Context, j job) {
	rec := j.registry.GetTransactionByID(j.id)
	if rec == nil || rec.Status.IsTerminal() {
		return
	}
	p.renderer.RenderRequest(rec)

	actions := []Action{ActionEstimate, ActionCancel}
	for {
		if ctx.Err() != nil || j.ctx.Err() != nil {
			return
		}
		action, err := p.opts.Chooser.Choose(rec, actions)
		if err != nil {
			p.log.Debug("review aborted", "id", j.id, "error", err)
			action = ActionCancel
		}

		switch action {
		case ActionEstimate:
			stop := p.activity("Estimating fee...")
			dry := j.registry.RunSimulation(j.ctx, j.id)
			stop()
			p.renderer.RenderDryRun(dry)
			if dry != nil && dry.EstimatedFee != nil {
				actions = []Action{ActionSubmit, ActionCancel}
			}
		case ActionSubmit:
			stop := p.activity("Submitting transaction...")
			result := j.registry.Submit(j.ctx, j.id)
			stop()
			p.renderer.RenderFinalized(j.registry.GetTransactionByID(j.id), result)
			return
		default:
			j.registry.Cancel(j.id)
			fmt.Fprintln(p.opts.Out, render.FormatWarning(fmt.Sprintf("Transaction #%d cancelled", j.id)))
			return
		}

		rec = j.registry.GetTransactionByID(j.id)
		if rec == nil || rec.Status.IsTerminal() {
			return
		}
	}
}

func (p *Prompter) activity(msg string) func() {
	if !p.opts.Spinner {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(p.opts.Out))
	s.Suffix = " " + msg
	s.Start()
	return s.Stop
}
