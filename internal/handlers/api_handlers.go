package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	config "github.com/inference-gateway/mcp-manager/config"
	domain "github.com/inference-gateway/mcp-manager/internal/domain"
	logger "github.com/inference-gateway/mcp-manager/internal/logger"
)

const (
	maxBodyBytes    = 1 << 20
	probeAllTimeout = 10 * time.Second
	serversPrefix   = "/api/v1/servers/"
)

// APIHandler handles HTTP API requests for the MCP server configuration
type APIHandler struct {
	manager domain.ServerManager
	tracker StatusTracker
	store   HealthChecker
	timeout time.Duration
}

// NewAPIHandler creates a new API handler. requestTimeout bounds every request except probe-all.
func NewAPIHandler(manager domain.ServerManager, tracker StatusTracker, store HealthChecker, requestTimeout time.Duration) *APIHandler {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	return &APIHandler{
		manager: manager,
		tracker: tracker,
		store:   store,
		timeout: requestTimeout,
	}
}

type serverRequest struct {
	ID     string              `json:"id"`
	Server *config.ServerEntry `json:"server"`
}

type configRequest struct {
	MCPServers *config.ServerSet `json:"mcpServers"`
}

type pathInfo struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// writeJSON writes a JSON response and logs errors
func (h *APIHandler) writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}

// writeError maps domain errors onto status codes
func (h *APIHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrServerNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrServerExists):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidServer), errors.Is(err, domain.ErrNoServers):
		status = http.StatusBadRequest
	}

	log := logger.FromContext(r.Context()).Sugar()
	if status == http.StatusInternalServerError {
		log.Errorw("Request failed", "path", r.URL.Path, "error", err)
	} else {
		log.Debugw("Request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *APIHandler) badRequest(w http.ResponseWriter, message string) {
	h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": message})
}

func (h *APIHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		h.badRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// HandleHealth handles health check requests
func (h *APIHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := h.store.Health(ctx)
	if err != nil {
		logger.Error("Storage health check failed", "error", err)
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unhealthy",
			"error":  err.Error(),
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// HandlePlatform handles GET /api/v1/platform
func (h *APIHandler) HandlePlatform(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	paths := h.manager.Paths()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"platform":       runtime.GOOS,
		"editable":       describePath(paths.Editable),
		"host":           describePath(paths.Host),
		"state":          h.store.Location(),
		"probe_strategy": h.tracker.Strategy(),
	})
}

func describePath(path string) pathInfo {
	_, err := os.Stat(path)
	return pathInfo{Path: path, Exists: err == nil}
}

// HandleConfig handles GET and POST /api/v1/config
func (h *APIHandler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleGetConfig(w, r)
	case http.MethodPost:
		h.handleSaveConfig(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *APIHandler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	servers, err := h.manager.EffectiveConfig(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, config.MCPConfig{MCPServers: servers})
}

func (h *APIHandler) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var req configRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.MCPServers == nil {
		h.writeError(w, r, domain.ErrNoServers)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.manager.SaveConfig(ctx, *req.MCPServers)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleHostConfig handles GET /api/v1/host-config
func (h *APIHandler) HandleHostConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	servers, err := h.manager.HostConfig(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, config.MCPConfig{MCPServers: servers})
}

// HandleTools handles GET /api/v1/tools
func (h *APIHandler) HandleTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	tools, err := h.manager.Tools(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"tools": tools})
}

// HandleServers handles POST /api/v1/servers
func (h *APIHandler) HandleServers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req serverRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Server == nil {
		h.badRequest(w, "server is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.manager.AddServer(ctx, req.ID, *req.Server)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, result)
}

// HandleServerByID handles /api/v1/servers/{id} and its /enable, /disable and /probe actions
func (h *APIHandler) HandleServerByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, serversPrefix)
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		h.badRequest(w, "server id is required")
		return
	}

	r = r.WithContext(logger.WithServer(r.Context(), id))

	switch action {
	case "":
		switch r.Method {
		case http.MethodPut:
			h.handleUpdateServer(w, r, id)
		case http.MethodDelete:
			h.handleRemoveServer(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "enable", "disable":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.handleSetDisabled(w, r, id, action == "disable")
	case "probe":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.handleProbeServer(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (h *APIHandler) handleUpdateServer(w http.ResponseWriter, r *http.Request, id string) {
	var req serverRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Server == nil {
		h.badRequest(w, "server is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.manager.UpdateServer(ctx, id, req.ID, *req.Server)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *APIHandler) handleRemoveServer(w http.ResponseWriter, r *http.Request, id string) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.manager.RemoveServer(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *APIHandler) handleSetDisabled(w http.ResponseWriter, r *http.Request, id string, disabled bool) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.manager.SetDisabled(ctx, id, disabled)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *APIHandler) handleProbeServer(w http.ResponseWriter, r *http.Request, id string) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.tracker.ProbeOne(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"id":     id,
		"status": result.Status(),
		"result": result,
	})
}

// HandleProbeAll handles POST /api/v1/probe
func (h *APIHandler) HandleProbeAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), probeAllTimeout)
	defer cancel()

	statuses, err := h.tracker.ProbeAll(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"strategy": h.tracker.Strategy(),
		"statuses": statuses,
	})
}

// HandleStatus handles GET /api/v1/status
func (h *APIHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"strategy": h.tracker.Strategy(),
		"statuses": h.tracker.Snapshot(),
	})
}

// HandleImport handles POST /api/v1/import. The body is the pasted JSON document itself.
func (h *APIHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.badRequest(w, fmt.Sprintf("failed to read request body: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.manager.ImportJSON(ctx, string(body))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}
