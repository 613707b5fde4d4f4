package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/inference-gateway/mcp-manager/config"
	"github.com/inference-gateway/mcp-manager/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticServers struct {
	mu      sync.Mutex
	servers config.ServerSet
	err     error
}

func (s *staticServers) EffectiveConfig(context.Context) (config.ServerSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.servers.Clone(), s.err
}

type commandProber struct {
	online map[string]bool
}

func (p *commandProber) Name() string { return "fake" }

func (p *commandProber) Probe(_ context.Context, entry config.ServerEntry) domain.ProbeResult {
	return domain.ProbeResult{Success: p.online[entry.Command]}
}

func TestStatusTracker_ProbeAll(t *testing.T) {
	servers := &staticServers{servers: config.ServerSet{
		"up":   {Command: "up"},
		"down": {Command: "down"},
	}}
	tracker := NewStatusTracker(servers, &commandProber{online: map[string]bool{"up": true}}, 2, nil)

	assert.Equal(t, domain.StatusUnknown, tracker.Status("up"))

	_, events, cancel := tracker.Subscribe()
	defer cancel()

	statuses, err := tracker.ProbeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.ServerStatus{
		"up":   domain.StatusOnline,
		"down": domain.StatusOffline,
	}, statuses)

	var received []domain.StatusEvent
	for len(received) < 4 {
		received = append(received, <-events)
	}

	assert.Equal(t, domain.StatusChecking, received[0].Status)
	assert.Equal(t, domain.StatusChecking, received[1].Status, "every id is CHECKING before any probe resolves")
	for _, ev := range received[2:] {
		assert.NotEqual(t, domain.StatusChecking, ev.Status)
		assert.NotNil(t, ev.Result)
	}
}

func TestStatusTracker_DropsRemovedIDs(t *testing.T) {
	servers := &staticServers{servers: config.ServerSet{"a": {Command: "a"}, "b": {Command: "b"}}}
	tracker := NewStatusTracker(servers, &commandProber{}, 4, nil)

	_, err := tracker.ProbeAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, tracker.Snapshot(), 2)

	servers.mu.Lock()
	delete(servers.servers, "b")
	servers.mu.Unlock()

	_, err = tracker.ProbeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.ServerStatus{"a": domain.StatusOffline}, tracker.Snapshot())
	assert.Equal(t, domain.StatusUnknown, tracker.Status("b"))
}

func TestStatusTracker_ProbeOne(t *testing.T) {
	servers := &staticServers{servers: config.ServerSet{"up": {Command: "up"}}}
	tracker := NewStatusTracker(servers, &commandProber{online: map[string]bool{"up": true}}, 1, nil)

	result, err := tracker.ProbeOne(context.Background(), "up")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, domain.StatusOnline, tracker.Status("up"))

	stored, ok := tracker.Result("up")
	require.True(t, ok)
	assert.True(t, stored.Success)

	_, err = tracker.ProbeOne(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrServerNotFound)
}

func TestStatusTracker_ConfigError(t *testing.T) {
	servers := &staticServers{err: errors.New("boom")}
	tracker := NewStatusTracker(servers, &commandProber{}, 1, nil)

	_, err := tracker.ProbeAll(context.Background())
	assert.EqualError(t, err, "boom")
}

func TestStatusTracker_UnsubscribeClosesChannel(t *testing.T) {
	tracker := NewStatusTracker(&staticServers{servers: config.ServerSet{}}, &commandProber{}, 1, nil)

	_, events, cancel := tracker.Subscribe()
	cancel()
	cancel()

	_, open := <-events
	assert.False(t, open)
}
