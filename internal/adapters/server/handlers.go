package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/tari-project/tapplet-host/internal/adapters/host"
	"github.com/tari-project/tapplet-host/internal/domain"
	"github.com/tari-project/tapplet-host/internal/usecase"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrOriginMismatch):
		return http.StatusForbidden
	default:
		return http.StatusBadGateway
	}
}

// handleBridge launches the requested tapplet and mounts it on the upgraded
// connection. The connection must come from the tapplet's own origin.
func (s *Server) handleBridge(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	id, err := strconv.Atoi(query.Get("tapplet"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid tapplet id %q", query.Get("tapplet")))
		return
	}
	dev, _ := strconv.ParseBool(query.Get("dev"))

	launched, err := s.launcher.Run(r.Context(), usecase.LaunchTappletParams{
		TappletID: id,
		Dev:       dev,
		ServerURL: s.baseURL,
	})
	if err != nil {
		s.reporter.ReportError(fmt.Sprintf("Failed to launch tapplet %d: %v", id, err))
		writeError(w, statusFor(err), err)
		return
	}

	origin, err := host.OriginOf(launched.Tapplet.Source)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	if got := r.Header.Get("Origin"); got != origin {
		writeError(w, http.StatusForbidden, fmt.Errorf("%w: %q", domain.ErrOriginMismatch, got))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the response
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	frame := host.NewWSFrame(conn, origin, s.log)
	registry := usecase.NewTransactionRegistry(usecase.Session{
		Signer:          launched.Signer,
		Accounts:        accountsOf(launched.Signer),
		Reporter:        s.reporter,
		FinalizeTimeout: s.cfg.FinalizeTimeout,
		Log:             s.log.With("session", launched.SessionID),
	})

	var notifier usecase.ReviewNotifier = usecase.NopReviewNotifier{}
	if s.review != nil {
		notifier = s.review.For(registry)
	}

	// The request context ends with the handler; sessions live until the
	// document disconnects or the server closes them.
	mount, err := s.host.Mount(context.WithoutCancel(r.Context()), host.MountParams{
		SourceURL: launched.Tapplet.Source,
		Frame:     frame,
		Viewport:  s.viewport,
		Signer:    launched.Signer,
		Registry:  registry,
		Review:    notifier,
	})
	if err != nil {
		s.reporter.ReportError(fmt.Sprintf("Failed to mount tapplet %d: %v", id, err))
		_ = frame.Close()
		return
	}

	sess := &session{
		id:        launched.SessionID,
		tapplet:   launched.Tapplet,
		registry:  registry,
		mount:     mount,
		frame:     frame,
		startedAt: time.Now(),
	}
	s.register(sess)
	s.log.Info("tapplet session started", "session", sess.id, "tapplet", launched.Tapplet.DisplayName, "origin", origin)

	<-mount.Done()
	sess.close()
	s.unregister(sess.id)
	s.log.Info("tapplet session ended", "session", sess.id)
}

func accountsOf(signer usecase.Signer) usecase.AccountProvider {
	if accounts, ok := signer.(usecase.AccountProvider); ok {
		return accounts
	}
	return nil
}

func (s *Server) handleGetViewport(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.viewport.Size())
}

func (s *Server) handlePutViewport(w http.ResponseWriter, r *http.Request) {
	var size domain.WindowSize
	if err := json.NewDecoder(r.Body).Decode(&size); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid window size: %w", err))
		return
	}
	if size.Width < 0 || size.Height < 0 {
		writeError(w, http.StatusBadRequest, errors.New("window size must not be negative"))
		return
	}
	s.viewport.Resize(size)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Sessions())
}

func (s *Server) sessionFromRequest(w http.ResponseWriter, r *http.Request) (*session, bool) {
	id := mux.Vars(r)["session"]
	sess, ok := s.session(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("session %s: %w", id, domain.ErrNotFound))
	}
	return sess, ok
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.registry.Transactions())
}

func (s *Server) handlePurgeTransactions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"purged": sess.registry.Purge()})
}

// handleTransactionAction drives the review dialog over HTTP
func (s *Server) handleTransactionAction(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	txID, err := strconv.ParseInt(vars["tx"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid transaction id %q", vars["tx"]))
		return
	}
	if sess.registry.GetTransactionByID(txID) == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("transaction %d: %w", txID, domain.ErrNotFound))
		return
	}

	switch vars["action"] {
	case "simulate":
		writeJSON(w, http.StatusOK, sess.registry.RunSimulation(r.Context(), txID))
	case "submit":
		result := sess.registry.Submit(r.Context(), txID)
		writeJSON(w, http.StatusOK, map[string]any{
			"transaction": sess.registry.GetTransactionByID(txID),
			"result":      result,
		})
	case "cancel":
		sess.registry.Cancel(txID)
		writeJSON(w, http.StatusOK, sess.registry.GetTransactionByID(txID))
	}
}

// handleInstalled serves an installed tapplet's files under its content
// security policy
func (s *Server) handleInstalled(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.NotFound(w, r)
		return
	}
	tapplet, err := s.repo.GetInstalledTapplet(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	csp := tapplet.CSP
	if csp == "" {
		csp = s.cfg.CSP
	}
	if csp == "" {
		csp = domain.DefaultCSP
	}
	w.Header().Set("Content-Security-Policy", csp)

	prefix := fmt.Sprintf("/tapplets/%d", id)
	http.StripPrefix(prefix, http.FileServer(http.Dir(filepath.Clean(tapplet.Path)))).ServeHTTP(w, r)
}
