package host

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tari-project/tapplet-host/internal/domain"
)

const writeTimeout = 10 * time.Second

// WSFrame is a Frame backed by a WebSocket connection from the tapplet document.
// The handshake Origin is the document's origin; the connection is the reply
// source of every message read from it.
type WSFrame struct {
	conn     *websocket.Conn
	origin   string
	log      *slog.Logger
	messages chan InboundEvent
	closed   chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// NewWSFrame wraps an upgraded connection and starts reading from it
func NewWSFrame(conn *websocket.Conn, origin string, log *slog.Logger) *WSFrame {
	f := &WSFrame{
		conn:     conn,
		origin:   origin,
		log:      log,
		messages: make(chan InboundEvent),
		closed:   make(chan struct{}),
	}
	go f.readPump()
	return f
}

// Origin returns the document's origin
func (f *WSFrame) Origin() string {
	return f.origin
}

// Messages implements Frame
func (f *WSFrame) Messages() <-chan InboundEvent {
	return f.messages
}

// PostMessage writes msg as a JSON text frame. Only the document's own
// origin may be targeted.
func (f *WSFrame) PostMessage(msg any, targetOrigin string) error {
	if targetOrigin != f.origin {
		return domain.ErrOriginMismatch
	}
	select {
	case <-f.closed:
		return websocket.ErrCloseSent
	default:
	}

	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	if err := f.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return f.conn.WriteJSON(msg)
}

// Close closes the connection; Messages is closed once the read loop exits
func (f *WSFrame) Close() error {
	var err error
	f.closeOnce.Do(func() {
		close(f.closed)
		f.writeMu.Lock()
		_ = f.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		f.writeMu.Unlock()
		err = f.conn.Close()
	})
	return err
}

func (f *WSFrame) readPump() {
	defer close(f.messages)
	for {
		messageType, data, err := f.conn.ReadMessage()
		if err != nil {
			if !errors.Is(err, websocket.ErrCloseSent) &&
				websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				f.log.Warn("tapplet connection closed", "origin", f.origin, "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			f.log.Debug("ignoring non-text frame", "origin", f.origin)
			continue
		}
		select {
		case f.messages <- InboundEvent{Data: data, Origin: f.origin, Source: f}:
		case <-f.closed:
			return
		}
	}
}
