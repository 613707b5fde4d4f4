package domain

import (
	"context"
	"encoding/json"

	"github.com/inference-gateway/mcp-manager/config"
	"github.com/mark3labs/mcp-go/mcp"
)

// ServerStatus is the liveness state shown for a configured server
type ServerStatus string

const (
	StatusUnknown  ServerStatus = "unknown"
	StatusChecking ServerStatus = "checking"
	StatusOnline   ServerStatus = "online"
	StatusOffline  ServerStatus = "offline"
)

// ProbeDetails carries strategy-specific diagnostics of a probe
type ProbeDetails struct {
	Command string `json:"command"`
	Found   bool   `json:"found"`
	Count   int    `json:"count,omitempty"`
	Sample  string `json:"sample,omitempty"`
	Port    int    `json:"port,omitempty"`
}

// ProbeResult is the outcome of one liveness probe
type ProbeResult struct {
	Success bool          `json:"success"`
	Error   string        `json:"error,omitempty"`
	Details *ProbeDetails `json:"details,omitempty"`
}

// Status maps the result onto ONLINE or OFFLINE
func (r ProbeResult) Status() ServerStatus {
	if r.Success {
		return StatusOnline
	}
	return StatusOffline
}

// Prober reports whether a configured server appears to be running
type Prober interface {
	Name() string
	Probe(ctx context.Context, entry config.ServerEntry) ProbeResult
}

// SaveResult is returned by a successful save
type SaveResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ImportResult reports what an import added
type ImportResult struct {
	Imported int      `json:"imported"`
	Added    []string `json:"added"`
	Skipped  []string `json:"skipped"`
}

// ServerTool is a tool offered by an enabled server
type ServerTool struct {
	Tool   mcp.Tool
	Server string
}

// MarshalJSON flattens the tool descriptor and adds the providing server
func (t ServerTool) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(t.Tool)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	fields["server"], err = json.Marshal(t.Server)
	if err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

// StatusEvent is published on every status transition
type StatusEvent struct {
	Type   string       `json:"type"`
	ID     string       `json:"id"`
	Status ServerStatus `json:"status"`
	Result *ProbeResult `json:"result,omitempty"`
}

// ServerManager is the operation surface shared by the CLI and the HTTP API
type ServerManager interface {
	EffectiveConfig(ctx context.Context) (config.ServerSet, error)
	SaveConfig(ctx context.Context, servers config.ServerSet) (*SaveResult, error)
	HostConfig(ctx context.Context) (config.ServerSet, error)
	AddServer(ctx context.Context, id string, entry config.ServerEntry) (*SaveResult, error)
	UpdateServer(ctx context.Context, oldID, newID string, entry config.ServerEntry) (*SaveResult, error)
	RemoveServer(ctx context.Context, id string) (*SaveResult, error)
	SetDisabled(ctx context.Context, id string, disabled bool) (*SaveResult, error)
	ImportJSON(ctx context.Context, text string) (*ImportResult, error)
	Tools(ctx context.Context) ([]ServerTool, error)
	Paths() config.HostPaths
}
