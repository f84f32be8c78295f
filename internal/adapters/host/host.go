// Package host mounts an embedded tapplet and relays its messages to the
// session signer and transaction registry.
package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/tari-project/tapplet-host/internal/domain"
	"github.com/tari-project/tapplet-host/internal/domain/models"
	"github.com/tari-project/tapplet-host/internal/usecase"
)

// InboundEvent is one message received from the embedded document
type InboundEvent struct {
	Data   json.RawMessage
	Origin string
	// Source is the return channel; nil when the sender cannot be answered
	Source usecase.ReplySource
}

// Frame is the embedded tapplet document
type Frame interface {
	// Messages is closed when the document goes away
	Messages() <-chan InboundEvent
	PostMessage(msg any, targetOrigin string) error
}

// TransactionSink receives transactions that need user review
type TransactionSink interface {
	AddTransaction(req models.TransactionRequest, reply usecase.ReplyTarget) (*models.TransactionRecord, error)
}

// Host mounts tapplet sessions
type Host struct {
	reporter usecase.ErrorReporter
	log      *slog.Logger
}

// NewHost creates a host reporting failures through reporter
func NewHost(reporter usecase.ErrorReporter, log *slog.Logger) *Host {
	return &Host{reporter: reporter, log: log.With("component", "host")}
}

// MountParams are the collaborators of one mounted tapplet
type MountParams struct {
	SourceURL string
	Frame     Frame
	Viewport  *Viewport
	Signer    usecase.Signer
	Registry  TransactionSink
	Review    usecase.ReviewNotifier
}

// Mount is a running tapplet session
type Mount struct {
	host        *Host
	params      MountParams
	origin      string
	cancel      context.CancelFunc
	unsubscribe func()
	handlers    conc.WaitGroup
	done        chan struct{}
	once        sync.Once
}

// Mount starts relaying messages for a tapplet loaded from sourceURL.
// The tapplet is told its container size once the mount is in place.
func (h *Host) Mount(ctx context.Context, params MountParams) (*Mount, error) {
	origin, err := OriginOf(params.SourceURL)
	if err != nil {
		return nil, err
	}
	if params.Frame == nil || params.Viewport == nil || params.Signer == nil || params.Registry == nil {
		return nil, errors.New("mount requires a frame, viewport, signer and registry")
	}
	if params.Review == nil {
		params.Review = usecase.NopReviewNotifier{}
	}

	ctx, cancel := context.WithCancel(ctx)
	resized, unsubscribe := params.Viewport.Subscribe()
	m := &Mount{
		host:        h,
		params:      params,
		origin:      origin,
		cancel:      cancel,
		unsubscribe: unsubscribe,
		done:        make(chan struct{}),
	}

	m.postSize()
	go m.run(ctx, resized)

	h.log.Debug("tapplet mounted", "source", params.SourceURL, "signer", params.Signer.ID())
	return m, nil
}

// Origin is the origin messages to the tapplet are addressed to
func (m *Mount) Origin() string {
	return m.origin
}

// Done is closed once the mount stopped listening
func (m *Mount) Done() <-chan struct{} {
	return m.done
}

// Unmount stops listening and waits for in-flight signer calls to finish
func (m *Mount) Unmount() {
	m.once.Do(func() {
		m.cancel()
		<-m.done
		m.handlers.Wait()
		m.host.log.Debug("tapplet unmounted", "source", m.params.SourceURL)
	})
}

func (m *Mount) run(ctx context.Context, resized <-chan struct{}) {
	defer close(m.done)
	defer m.unsubscribe()

	messages := m.params.Frame.Messages()
	for {
		select {
		case <-ctx.Done():
			return
		case <-resized:
			m.postSize()
		case ev, ok := <-messages:
			if !ok {
				return
			}
			m.handle(ctx, ev)
		}
	}
}

func (m *Mount) handle(ctx context.Context, ev InboundEvent) {
	msg, err := DecodeMessage(ev.Data)
	if err != nil {
		m.host.log.Debug("ignoring message", "origin", ev.Origin, "error", err)
		return
	}

	switch msg := msg.(type) {
	case RequestParentSize:
		m.postSize()
	case SignerCall:
		if msg.MethodName == domain.MethodSubmitTransaction.String() {
			m.review(ctx, msg, ev)
			return
		}
		m.handlers.Go(func() {
			m.dispatch(ctx, msg, ev)
		})
	default:
		m.host.log.Debug("ignoring message", "type", msg.MessageType())
	}
}

func (m *Mount) review(ctx context.Context, call SignerCall, ev InboundEvent) {
	reply := usecase.ReplyTarget{Source: ev.Source, Origin: ev.Origin}
	if _, err := m.params.Registry.AddTransaction(call.Request(), reply); err != nil {
		m.reply(ev, domain.NewSignerCallError(call.ID, err.Error()))
		return
	}
	m.params.Review.NotifyTransactionReview(ctx, call.ID)
}

func (m *Mount) dispatch(ctx context.Context, call SignerCall, ev InboundEvent) {
	result, err := m.params.Signer.RunOne(ctx, call.MethodName, call.Args)
	if err != nil {
		m.host.reporter.ReportError(fmt.Sprintf("Error running method %q: %v", call.MethodName, err))
		if errors.Is(err, domain.ErrUnknownMethod) || errors.Is(err, domain.ErrInvalidArguments) {
			m.reply(ev, domain.NewSignerCallError(call.ID, err.Error()))
		}
		return
	}
	m.reply(ev, domain.NewSignerCallReply(call.ID, result))
}

func (m *Mount) reply(ev InboundEvent, msg any) {
	if ev.Source == nil {
		return
	}
	if err := ev.Source.PostMessage(msg, ev.Origin); err != nil {
		m.host.log.Warn("failed to post reply", "origin", ev.Origin, "error", err)
	}
}

// postSize measures the container, records it on the signer and tells the tapplet
func (m *Mount) postSize() {
	size := m.params.Viewport.Size()
	m.params.Signer.SetWindowSize(size.Width, size.Height)
	if err := m.params.Frame.PostMessage(domain.NewResizeMessage(size), m.origin); err != nil {
		m.host.log.Warn("failed to post resize", "origin", m.origin, "error", err)
	}
}

// OriginOf returns the scheme://host[:port] origin of a URL
func OriginOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid tapplet source %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid tapplet source %q: missing scheme or host", rawURL)
	}
	return u.Scheme + "://" + u.Host, nil
}
