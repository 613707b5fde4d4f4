package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/inference-gateway/mcp-manager/config"
	"github.com/inference-gateway/mcp-manager/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialStatusStream(t *testing.T, f *apiFixture) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(f.handler)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func TestWebSocketHandler_SnapshotThenEvents(t *testing.T) {
	f := newAPIFixture(t)
	conn := dialStatusStream(t, f)

	var snapshot WSSnapshot
	require.NoError(t, conn.ReadJSON(&snapshot))
	assert.Equal(t, "snapshot", snapshot.Type)
	assert.Equal(t, "fake", snapshot.Strategy)
	assert.Empty(t, snapshot.Statuses)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "probe_all"}))

	seen := make(map[domain.ServerStatus]int)
	final := domain.ServerStatus("")
	for final == "" {
		var event domain.StatusEvent
		require.NoError(t, conn.ReadJSON(&event))
		assert.Equal(t, "status", event.Type)
		assert.Equal(t, config.ManagerServerID, event.ID)
		seen[event.Status]++
		if event.Status != domain.StatusChecking {
			final = event.Status
			require.NotNil(t, event.Result)
		}
	}

	assert.Equal(t, 1, seen[domain.StatusChecking])
	assert.Equal(t, domain.StatusOffline, final)
}

func TestWebSocketHandler_RejectsBadRequests(t *testing.T) {
	f := newAPIFixture(t)
	conn := dialStatusStream(t, f)

	var snapshot WSSnapshot
	require.NoError(t, conn.ReadJSON(&snapshot))

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "dance"}))
	var msg WSError
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, "Unknown message type: dance", msg.Error)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "probe"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "probe requires an id", msg.Error)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "probe", ID: "ghost"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Contains(t, msg.Error, "server not found")
}
