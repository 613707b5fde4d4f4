package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/inference-gateway/mcp-manager/config"
	"github.com/inference-gateway/mcp-manager/internal/domain"
	"github.com/inference-gateway/mcp-manager/internal/logger"
	"github.com/inference-gateway/mcp-manager/internal/metrics"
	"golang.org/x/sync/errgroup"
)

const subscriberBuffer = 64

// ServerLister provides the current effective server set
type ServerLister interface {
	EffectiveConfig(ctx context.Context) (config.ServerSet, error)
}

// StatusTracker keeps the last known liveness status of every server and
// publishes each transition to subscribers.
type StatusTracker struct {
	servers     ServerLister
	prober      domain.Prober
	concurrency int
	metrics     *metrics.Metrics

	mu       sync.RWMutex
	statuses map[string]domain.ServerStatus
	results  map[string]domain.ProbeResult

	subMu       sync.Mutex
	subscribers map[string]chan domain.StatusEvent
}

// NewStatusTracker creates a tracker. concurrency bounds parallel probes in ProbeAll.
func NewStatusTracker(servers ServerLister, prober domain.Prober, concurrency int, m *metrics.Metrics) *StatusTracker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &StatusTracker{
		servers:     servers,
		prober:      prober,
		concurrency: concurrency,
		metrics:     m,
		statuses:    make(map[string]domain.ServerStatus),
		results:     make(map[string]domain.ProbeResult),
		subscribers: make(map[string]chan domain.StatusEvent),
	}
}

// Strategy returns the name of the probe strategy in use
func (t *StatusTracker) Strategy() string {
	return t.prober.Name()
}

// Status returns the last known status of id, UNKNOWN if it was never probed
func (t *StatusTracker) Status(id string) domain.ServerStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if status, ok := t.statuses[id]; ok {
		return status
	}
	return domain.StatusUnknown
}

// Result returns the last probe result of id
func (t *StatusTracker) Result(id string) (domain.ProbeResult, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	result, ok := t.results[id]
	return result, ok
}

// Snapshot returns a copy of all known statuses
func (t *StatusTracker) Snapshot() map[string]domain.ServerStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]domain.ServerStatus, len(t.statuses))
	for id, status := range t.statuses {
		out[id] = status
	}
	return out
}

// ProbeOne probes a single configured server
func (t *StatusTracker) ProbeOne(ctx context.Context, id string) (domain.ProbeResult, error) {
	servers, err := t.servers.EffectiveConfig(ctx)
	if err != nil {
		return domain.ProbeResult{}, err
	}

	entry, ok := servers[id]
	if !ok {
		return domain.ProbeResult{}, fmt.Errorf("%w: %s", domain.ErrServerNotFound, id)
	}

	t.set(id, domain.StatusChecking, nil)
	return t.probe(ctx, id, entry), nil
}

// ProbeAll marks every configured server CHECKING, then probes them concurrently.
// Statuses of ids that are no longer configured are dropped.
func (t *StatusTracker) ProbeAll(ctx context.Context) (map[string]domain.ServerStatus, error) {
	servers, err := t.servers.EffectiveConfig(ctx)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	for id := range t.statuses {
		if _, ok := servers[id]; !ok {
			delete(t.statuses, id)
			delete(t.results, id)
		}
	}
	t.mu.Unlock()

	ids := servers.SortedIDs()
	for _, id := range ids {
		t.set(id, domain.StatusChecking, nil)
	}

	var g errgroup.Group
	g.SetLimit(t.concurrency)
	for _, id := range ids {
		entry := servers[id]
		g.Go(func() error {
			t.probe(ctx, id, entry)
			return nil
		})
	}
	_ = g.Wait()

	snapshot := t.Snapshot()
	t.recordCounts(snapshot)
	logger.Info("Probed all servers", "servers", len(ids), "strategy", t.prober.Name())
	return snapshot, nil
}

func (t *StatusTracker) probe(ctx context.Context, id string, entry config.ServerEntry) domain.ProbeResult {
	result := t.prober.Probe(logger.WithServer(ctx, id), entry)
	t.set(id, result.Status(), &result)
	return result
}

func (t *StatusTracker) set(id string, status domain.ServerStatus, result *domain.ProbeResult) {
	t.mu.Lock()
	t.statuses[id] = status
	if result != nil {
		t.results[id] = *result
	}
	t.mu.Unlock()

	t.publish(domain.StatusEvent{Type: "status", ID: id, Status: status, Result: result})
}

func (t *StatusTracker) recordCounts(snapshot map[string]domain.ServerStatus) {
	counts := make(map[string]int)
	for _, status := range snapshot {
		counts[string(status)]++
	}
	t.metrics.SetStatusCounts(counts)
}

// Subscribe registers a listener for status events. Events are dropped for a
// subscriber whose buffer is full. Call cancel to unsubscribe.
func (t *StatusTracker) Subscribe() (id string, events <-chan domain.StatusEvent, cancel func()) {
	id = uuid.NewString()
	ch := make(chan domain.StatusEvent, subscriberBuffer)

	t.subMu.Lock()
	t.subscribers[id] = ch
	t.subMu.Unlock()

	var once sync.Once
	cancel = func() {
		once.Do(func() {
			t.subMu.Lock()
			delete(t.subscribers, id)
			t.subMu.Unlock()
			close(ch)
		})
	}
	return id, ch, cancel
}

func (t *StatusTracker) publish(event domain.StatusEvent) {
	t.subMu.Lock()
	defer t.subMu.Unlock()

	for id, ch := range t.subscribers {
		select {
		case ch <- event:
		default:
			logger.Warn("Dropping status event for slow subscriber", "subscriber", id, "server", event.ID)
		}
	}
}
