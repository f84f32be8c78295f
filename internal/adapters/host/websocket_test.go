package host

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tari-project/tapplet-host/internal/domain"
)

func TestWSFrame_BridgesMount(t *testing.T) {
	f := newHostFixture()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	frames := make(chan *WSFrame, 1)

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		frame := NewWSFrame(conn, r.Header.Get("Origin"), log)
		frames <- frame
		m, err := f.host.Mount(context.Background(), MountParams{
			SourceURL: testOrigin + "/",
			Frame:     frame,
			Viewport:  f.viewport,
			Signer:    f.signer,
			Registry:  f.registry,
			Review:    f.review,
		})
		if err != nil {
			_ = frame.Close()
			return
		}
		<-m.Done()
		m.Unmount()
	}))
	defer srv.Close()

	header := http.Header{}
	header.Set("Origin", testOrigin)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header) //nolint:bodyclose // no need.
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var resize domain.ResizeMessage
	require.NoError(t, conn.ReadJSON(&resize))
	assert.Equal(t, domain.ResizeMessage{Type: "resize", Width: 1024, Height: 768}, resize)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"signer-call","methodName":"getAccount","args":[],"id":3}`)))

	var reply struct {
		ID     int64             `json:"id"`
		Result map[string]string `json:"result"`
		Type   string            `json:"type"`
	}
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, int64(3), reply.ID)
	assert.Equal(t, "signer-call", reply.Type)
	assert.Equal(t, map[string]string{"method": "getAccount"}, reply.Result)

	frame := <-frames
	assert.Equal(t, testOrigin, frame.Origin())
	assert.ErrorIs(t, frame.PostMessage(domain.NewResizeMessage(domain.WindowSize{}), "http://evil.example"), domain.ErrOriginMismatch)
	assert.ErrorIs(t, frame.PostMessage(domain.NewResizeMessage(domain.WindowSize{}), "*"), domain.ErrOriginMismatch)

	require.NoError(t, frame.Close())
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
