package handlers

import (
	"net/http"

	"github.com/inference-gateway/mcp-manager/internal/metrics"
)

// NewRouter registers every API route on a new mux
func NewRouter(api *APIHandler, ws *WebSocketHandler, m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", Instrument(m, "/health", api.HandleHealth))
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/ws", ws.HandleWebSocket)
	mux.HandleFunc("/api/v1/platform", Instrument(m, "/api/v1/platform", api.HandlePlatform))
	mux.HandleFunc("/api/v1/config", Instrument(m, "/api/v1/config", api.HandleConfig))
	mux.HandleFunc("/api/v1/host-config", Instrument(m, "/api/v1/host-config", api.HandleHostConfig))
	mux.HandleFunc("/api/v1/tools", Instrument(m, "/api/v1/tools", api.HandleTools))
	mux.HandleFunc("/api/v1/servers", Instrument(m, "/api/v1/servers", api.HandleServers))
	mux.HandleFunc(serversPrefix, Instrument(m, "/api/v1/servers/{id}", api.HandleServerByID))
	mux.HandleFunc("/api/v1/probe", Instrument(m, "/api/v1/probe", api.HandleProbeAll))
	mux.HandleFunc("/api/v1/status", Instrument(m, "/api/v1/status", api.HandleStatus))
	mux.HandleFunc("/api/v1/import", Instrument(m, "/api/v1/import", api.HandleImport))

	return mux
}
