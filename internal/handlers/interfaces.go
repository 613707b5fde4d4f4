package handlers

import (
	"context"

	"github.com/inference-gateway/mcp-manager/internal/domain"
)

// StatusTracker is the liveness state the API and the status stream read from
type StatusTracker interface {
	Strategy() string
	Snapshot() map[string]domain.ServerStatus
	ProbeOne(ctx context.Context, id string) (domain.ProbeResult, error)
	ProbeAll(ctx context.Context) (map[string]domain.ServerStatus, error)
	Subscribe() (id string, events <-chan domain.StatusEvent, cancel func())
}

// HealthChecker reports on the persisted state backend
type HealthChecker interface {
	Health(ctx context.Context) error
	Location() string
}
