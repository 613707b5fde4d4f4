package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/inference-gateway/mcp-manager/internal/domain"
	"github.com/inference-gateway/mcp-manager/internal/logger"
	"github.com/inference-gateway/mcp-manager/internal/metrics"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage is a request sent by a status stream client
type WSMessage struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

// WSSnapshot is the first message on every connection
type WSSnapshot struct {
	Type     string                         `json:"type"`
	Strategy string                         `json:"strategy"`
	Statuses map[string]domain.ServerStatus `json:"statuses"`
}

// WSError reports a rejected client request
type WSError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// WebSocketHandler streams liveness status transitions
type WebSocketHandler struct {
	tracker StatusTracker
	metrics *metrics.Metrics
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(tracker StatusTracker, m *metrics.Metrics) *WebSocketHandler {
	return &WebSocketHandler{
		tracker: tracker,
		metrics: m,
	}
}

// HandleWebSocket upgrades the connection, sends the current snapshot, then
// forwards every status event until the client goes away. Clients may send
// {"type":"probe_all"} or {"type":"probe","id":"..."}.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Failed to upgrade to WebSocket", "error", err)
		return
	}
	defer h.closeConnection(conn)

	clientID, events, unsubscribe := h.tracker.Subscribe()
	defer unsubscribe()

	h.metrics.RegisterWSConnection()
	defer h.metrics.UnregisterWSConnection()
	logger.Info("WebSocket client connected", "client_id", clientID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	replies := make(chan any, 8)
	go h.messageLoop(ctx, cancel, conn, replies, clientID)

	snapshot := WSSnapshot{Type: "snapshot", Strategy: h.tracker.Strategy(), Statuses: h.tracker.Snapshot()}
	if err := h.sendMessage(conn, snapshot); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("WebSocket client disconnected", "client_id", clientID)
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := h.sendMessage(conn, event); err != nil {
				return
			}
		case reply := <-replies:
			if err := h.sendMessage(conn, reply); err != nil {
				return
			}
		}
	}
}

func (h *WebSocketHandler) closeConnection(conn *websocket.Conn) {
	if err := conn.Close(); err != nil {
		logger.Warn("Failed to close WebSocket connection", "error", err)
	}
}

// messageLoop reads client requests. Probes run detached from the read loop and
// report back through the event stream; only rejections go to replies.
func (h *WebSocketHandler) messageLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, replies chan<- any, clientID string) {
	defer cancel()

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("WebSocket read ended", "client_id", clientID, "error", err)
			}
			return
		}

		switch msg.Type {
		case "probe_all":
			go func() {
				probeCtx, done := context.WithTimeout(ctx, probeAllTimeout)
				defer done()
				if _, err := h.tracker.ProbeAll(probeCtx); err != nil {
					h.reply(ctx, replies, fmt.Sprintf("Failed to probe servers: %v", err))
				}
			}()
		case "probe":
			if msg.ID == "" {
				h.reply(ctx, replies, "probe requires an id")
				continue
			}
			go func(id string) {
				probeCtx, done := context.WithTimeout(ctx, probeAllTimeout)
				defer done()
				if _, err := h.tracker.ProbeOne(probeCtx, id); err != nil {
					h.reply(ctx, replies, fmt.Sprintf("Failed to probe %s: %v", id, err))
				}
			}(msg.ID)
		default:
			h.reply(ctx, replies, fmt.Sprintf("Unknown message type: %s", msg.Type))
		}
	}
}

func (h *WebSocketHandler) reply(ctx context.Context, replies chan<- any, message string) {
	select {
	case replies <- WSError{Type: "error", Error: message}:
	case <-ctx.Done():
	}
}

func (h *WebSocketHandler) sendMessage(conn *websocket.Conn, msg any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := conn.WriteJSON(msg); err != nil {
		logger.Warn("Failed to send WebSocket message", "error", err)
		return err
	}
	return nil
}
