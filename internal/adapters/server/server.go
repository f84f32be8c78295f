// Package server serves installed tapplets and bridges tapplet documents to
// host sessions over WebSocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/tari-project/tapplet-host/internal/adapters/host"
	"github.com/tari-project/tapplet-host/internal/adapters/review"
	"github.com/tari-project/tapplet-host/internal/config"
	"github.com/tari-project/tapplet-host/internal/domain"
	"github.com/tari-project/tapplet-host/internal/usecase"
)

// DefaultViewport is the container size before the UI reports one
var DefaultViewport = domain.WindowSize{Width: 1024, Height: 768}

// Launcher starts a tapplet session
type Launcher interface {
	Run(ctx context.Context, params usecase.LaunchTappletParams) (*usecase.LaunchTappletResult, error)
}

// ReviewBinder hands out a review notifier for a session's registry
type ReviewBinder interface {
	For(registry review.Registry) usecase.ReviewNotifier
}

// Server is the tapplet host's HTTP surface
type Server struct {
	cfg      *config.RuntimeConfig
	repo     usecase.TappletRepository
	launcher Launcher
	host     *host.Host
	review   ReviewBinder
	reporter usecase.ErrorReporter
	viewport *host.Viewport
	upgrader websocket.Upgrader
	log      *slog.Logger

	baseURL string

	mu       sync.Mutex
	sessions map[string]*session
}

// NewServer creates the server; it does not listen until ListenAndServe
func NewServer(
	cfg *config.RuntimeConfig,
	repo usecase.TappletRepository,
	launcher Launcher,
	h *host.Host,
	binder ReviewBinder,
	reporter usecase.ErrorReporter,
	log *slog.Logger,
) *Server {
	return &Server{
		cfg:      cfg,
		repo:     repo,
		launcher: launcher,
		host:     h,
		review:   binder,
		reporter: reporter,
		viewport: host.NewViewport(DefaultViewport),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Origins are matched against the launched tapplet before upgrading
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log:      log.With("component", "server"),
		baseURL:  "http://" + cfg.ListenAddr,
		sessions: make(map[string]*session),
	}
}

// BaseURL is the URL installed tapplets are served under
func (s *Server) BaseURL() string {
	return s.baseURL
}

// Viewport is the container all sessions render into
func (s *Server) Viewport() *host.Viewport {
	return s.viewport
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	r.HandleFunc("/bridge", s.handleBridge).Methods(http.MethodGet)

	r.HandleFunc("/viewport", s.handleGetViewport).Methods(http.MethodGet)
	r.HandleFunc("/viewport", s.handlePutViewport).Methods(http.MethodPut)

	r.HandleFunc("/sessions", s.handleListSessions).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{session}/transactions", s.handleListTransactions).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{session}/transactions", s.handlePurgeTransactions).Methods(http.MethodDelete)
	r.HandleFunc("/sessions/{session}/transactions/{tx:[0-9]+}/{action:simulate|submit|cancel}", s.handleTransactionAction).Methods(http.MethodPost)

	r.PathPrefix("/tapplets/{id:[0-9]+}/").HandlerFunc(s.handleInstalled).Methods(http.MethodGet, http.MethodHead)
	return r
}

// ListenAndServe serves until ctx is cancelled, then closes every session
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddr, err)
	}
	s.baseURL = "http://" + ln.Addr().String()
	return s.Serve(ctx, ln)
}

// Serve serves on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("tapplet host listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	return err
}

// Close ends every running session
func (s *Server) Close() {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.close()
	}
}

// Sessions returns a snapshot of running sessions ordered by start time
func (s *Server) Sessions() []SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SessionInfo, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.info())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

func (s *Server) session(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Server) register(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.id] = sess
}

func (s *Server) unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
