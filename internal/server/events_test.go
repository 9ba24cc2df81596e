package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anttttti/DuneBlend/pkg/core"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHub_Broadcast(t *testing.T) {
	s := New(core.NewService(nil), Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	a := dial(t, srv)
	b := dial(t, srv)
	require.Eventually(t, func() bool { return s.hub.Len() == 2 }, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan lifecycle.Event, 1)
	go s.hub.run(ctx, events)

	events <- core.Event{Type: core.EventCreate, Filename: "Mix.md", Timestamp: 1700000000}

	for _, conn := range []*websocket.Conn{a, b} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)

		var got core.Event
		require.NoError(t, json.Unmarshal(msg, &got))
		assert.Equal(t, core.Event{Type: core.EventCreate, Filename: "Mix.md", Timestamp: 1700000000}, got)
	}

	require.NoError(t, a.Close())
	assert.Eventually(t, func() bool { return s.hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	s.hub.closeAll()
	require.NoError(t, b.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := b.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
