package services

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/inference-gateway/mcp-manager/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidatePort(t *testing.T) {
	tests := []struct {
		name  string
		entry config.ServerEntry
		want  int
	}{
		{
			name:  "no hints",
			entry: config.ServerEntry{Command: "node"},
			want:  8080,
		},
		{
			name:  "env wins over args",
			entry: config.ServerEntry{Env: map[string]string{"MCP_PORT": "9001"}, Args: []string{"--port=9002"}},
			want:  9001,
		},
		{
			name:  "unparseable env falls through to args",
			entry: config.ServerEntry{Env: map[string]string{"MCP_PORT": "abc"}, Args: []string{"--port", "9003"}},
			want:  9003,
		},
		{
			name:  "equals form",
			entry: config.ServerEntry{Args: []string{"server.js", "--port=7000"}},
			want:  7000,
		},
		{
			name:  "separate value form",
			entry: config.ServerEntry{Args: []string{"--port", "7001"}},
			want:  7001,
		},
		{
			name:  "first match wins even when unparseable",
			entry: config.ServerEntry{Args: []string{"--port=abc", "--port", "7002"}},
			want:  8080,
		},
		{
			name:  "trailing --port without value is ignored",
			entry: config.ServerEntry{Args: []string{"--port"}},
			want:  8080,
		},
		{
			name:  "out of range",
			entry: config.ServerEntry{Args: []string{"--port=70000"}},
			want:  8080,
		},
		{
			name:  "zero",
			entry: config.ServerEntry{Env: map[string]string{"MCP_PORT": "0"}},
			want:  8080,
		},
		{
			name:  "leading digits are used",
			entry: config.ServerEntry{Env: map[string]string{"MCP_PORT": "8123/tcp"}},
			want:  8123,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CandidatePort(tt.entry, 8080))
		})
	}
}

func newTestSocketProber(found bool) *SocketProber {
	p := NewSocketProber(time.Second, 8080, nil)
	p.lookPath = func(name string) (string, error) {
		if !found {
			return "", errors.New("not found")
		}
		return "/usr/bin/" + name, nil
	}
	return p
}

func TestSocketProber_CommandNotAvailable(t *testing.T) {
	var dialed atomic.Bool
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = listener.Close() }()
	go func() {
		if conn, err := listener.Accept(); err == nil {
			dialed.Store(true)
			_ = conn.Close()
		}
	}()

	port := listener.Addr().(*net.TCPAddr).Port
	entry := config.ServerEntry{Command: "definitely-missing", Env: map[string]string{"MCP_PORT": strconv.Itoa(port)}}

	result := newTestSocketProber(false).Probe(context.Background(), entry)
	assert.False(t, result.Success)
	assert.Equal(t, "Command not available", result.Error)
	assert.False(t, dialed.Load())
}

func TestSocketProber_Online(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = listener.Close() }()
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	port := listener.Addr().(*net.TCPAddr).Port
	entry := config.ServerEntry{Command: "node server.js", Args: []string{"--port=" + strconv.Itoa(port)}}

	result := newTestSocketProber(true).Probe(context.Background(), entry)
	assert.True(t, result.Success)
	require.NotNil(t, result.Details)
	assert.Equal(t, port, result.Details.Port)
	assert.Equal(t, "node server.js", result.Details.Command)
}

func TestSocketProber_Offline(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	entry := config.ServerEntry{Command: "node", Env: map[string]string{"MCP_PORT": strconv.Itoa(port)}}

	result := newTestSocketProber(true).Probe(context.Background(), entry)
	assert.False(t, result.Success)
	assert.Empty(t, result.Error)
}

func TestDistinctiveArg(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{args: nil, want: ""},
		{args: []string{"--port", "8080", "server.js"}, want: "8080"},
		{args: []string{"--host=0.0.0.0", "-p", "mcp-server-git"}, want: "mcp-server-git"},
		{args: []string{"-h", "--port=1"}, want: "-h"},
		{args: []string{"run", "server.py"}, want: "run"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DistinctiveArg(tt.args), "args %v", tt.args)
	}
}

func newTestProcessProber(procs []ProcessInfo, err error) *ProcessProber {
	p := NewProcessProber(nil)
	p.selfPID = 1
	p.list = func(context.Context) ([]ProcessInfo, error) { return procs, err }
	return p
}

func TestProcessProber(t *testing.T) {
	procs := []ProcessInfo{
		{PID: 1, Cmdline: "mcp-manager probe uvx mcp-server-git"},
		{PID: 10, Cmdline: "/usr/bin/python3 -m http.server"},
		{PID: 11, Cmdline: "uvx mcp-server-git --repository /src"},
		{PID: 12, Cmdline: "uvx mcp-server-git --repository /other"},
		{PID: 13, Cmdline: "node /opt/fs/index.js --root /"},
	}

	tests := []struct {
		name       string
		entry      config.ServerEntry
		wantOnline bool
		wantCount  int
		wantSample string
	}{
		{
			name:       "matches base and distinctive arg",
			entry:      config.ServerEntry{Command: "uvx", Args: []string{"mcp-server-git"}},
			wantOnline: true,
			wantCount:  2,
			wantSample: "uvx mcp-server-git --repository /src",
		},
		{
			name:       "script token must match",
			entry:      config.ServerEntry{Command: "node /opt/fs/index.js"},
			wantOnline: true,
			wantCount:  1,
			wantSample: "node /opt/fs/index.js --root /",
		},
		{
			name:  "script token mismatch",
			entry: config.ServerEntry{Command: "node /opt/other.js"},
		},
		{
			name:  "no process",
			entry: config.ServerEntry{Command: "deno", Args: []string{"run", "x.ts"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := newTestProcessProber(procs, nil).Probe(context.Background(), tt.entry)
			assert.Equal(t, tt.wantOnline, result.Success)
			require.NotNil(t, result.Details)
			assert.Equal(t, tt.entry.Command, result.Details.Command)
			assert.Equal(t, tt.wantCount, result.Details.Count)
			assert.Equal(t, tt.wantSample, result.Details.Sample)
		})
	}
}

func TestProcessProber_ListFailure(t *testing.T) {
	result := newTestProcessProber(nil, errors.New("permission denied")).
		Probe(context.Background(), config.ServerEntry{Command: "uvx"})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "permission denied")
	assert.Equal(t, "uvx", result.Details.Command)
}

func TestNewProber(t *testing.T) {
	p, err := NewProber(config.ProbeConfig{Strategy: "socket"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "socket", p.Name())

	p, err = NewProber(config.ProbeConfig{Strategy: "process"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "process", p.Name())

	_, err = NewProber(config.ProbeConfig{Strategy: "combined"}, nil)
	assert.Error(t, err)
}
