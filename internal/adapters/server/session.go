package server

import (
	"sync"
	"time"

	"github.com/tari-project/tapplet-host/internal/adapters/host"
	"github.com/tari-project/tapplet-host/internal/domain"
	"github.com/tari-project/tapplet-host/internal/usecase"
)

// SessionInfo describes a running tapplet session
type SessionInfo struct {
	ID           string               `json:"id"`
	Tapplet      domain.ActiveTapplet `json:"tapplet"`
	Origin       string               `json:"origin"`
	StartedAt    time.Time            `json:"started_at"`
	Transactions int                  `json:"transactions"`
	Pending      *int64               `json:"pending,omitempty"`
}

type session struct {
	id        string
	tapplet   domain.ActiveTapplet
	registry  *usecase.TransactionRegistry
	mount     *host.Mount
	frame     *host.WSFrame
	startedAt time.Time
	once      sync.Once
}

func (s *session) info() SessionInfo {
	info := SessionInfo{
		ID:           s.id,
		Tapplet:      s.tapplet,
		Origin:       s.mount.Origin(),
		StartedAt:    s.startedAt,
		Transactions: len(s.registry.Transactions()),
	}
	if pending := s.registry.GetPendingTransaction(); pending != nil {
		info.Pending = &pending.ID
	}
	return info
}

// close unmounts the tapplet and drops the connection
func (s *session) close() {
	s.once.Do(func() {
		_ = s.frame.Close()
		s.mount.Unmount()
	})
}
