package services

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/inference-gateway/mcp-manager/config"
	"github.com/inference-gateway/mcp-manager/internal/domain"
	"github.com/inference-gateway/mcp-manager/internal/logger"
	"github.com/inference-gateway/mcp-manager/internal/metrics"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

const (
	// ErrCommandNotAvailable is the probe error when the executable is not on PATH
	ErrCommandNotAvailable = "Command not available"

	// PortEnvVar names the env entry that pins a server's port
	PortEnvVar = "MCP_PORT"

	defaultProbePort    = 8080
	defaultProbeTimeout = time.Second
)

// NewProber returns the strategy selected by cfg.Strategy. The strategies are never combined.
func NewProber(cfg config.ProbeConfig, m *metrics.Metrics) (domain.Prober, error) {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}

	switch cfg.Strategy {
	case config.ProbeStrategySocket, "":
		return NewSocketProber(timeout, cfg.DefaultPort, m), nil
	case config.ProbeStrategyProcess:
		return NewProcessProber(m), nil
	default:
		return nil, fmt.Errorf("unsupported probe strategy %q", cfg.Strategy)
	}
}

// SocketProber reports a server online when its command resolves on PATH and
// something accepts a TCP connection on its candidate port on localhost.
type SocketProber struct {
	timeout     time.Duration
	defaultPort int
	lookPath    func(string) (string, error)
	metrics     *metrics.Metrics
}

// NewSocketProber creates a socket strategy prober
func NewSocketProber(timeout time.Duration, defaultPort int, m *metrics.Metrics) *SocketProber {
	if defaultPort <= 0 || defaultPort > 65535 {
		defaultPort = defaultProbePort
	}
	return &SocketProber{
		timeout:     timeout,
		defaultPort: defaultPort,
		lookPath:    exec.LookPath,
		metrics:     m,
	}
}

// Name returns the strategy name
func (p *SocketProber) Name() string {
	return config.ProbeStrategySocket
}

// Probe runs the socket strategy. It never fails; problems become an offline result.
func (p *SocketProber) Probe(ctx context.Context, entry config.ServerEntry) domain.ProbeResult {
	start := time.Now()
	result := p.probe(ctx, entry)
	p.metrics.ObserveProbe(p.Name(), result.Success, time.Since(start))
	return result
}

func (p *SocketProber) probe(ctx context.Context, entry config.ServerEntry) domain.ProbeResult {
	log := logger.FromContext(ctx)

	exe := entry.Executable()
	if exe == "" {
		return domain.ProbeResult{Success: false, Error: ErrCommandNotAvailable}
	}
	if _, err := p.lookPath(exe); err != nil {
		log.Warn("Command not available", zap.String("command", entry.Command))
		return domain.ProbeResult{Success: false, Error: ErrCommandNotAvailable}
	}

	port := CandidatePort(entry, p.defaultPort)
	addr := net.JoinHostPort("localhost", strconv.Itoa(port))

	dialer := net.Dialer{Timeout: p.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	details := &domain.ProbeDetails{Command: entry.Command, Found: err == nil, Port: port}
	if err != nil {
		log.Debug("Socket probe failed", zap.String("addr", addr), zap.Error(err))
		return domain.ProbeResult{Success: false, Details: details}
	}
	_ = conn.Close()

	log.Debug("Socket probe connected", zap.String("addr", addr))
	return domain.ProbeResult{Success: true, Details: details}
}

// CandidatePort picks the port a server is expected to listen on: env MCP_PORT,
// then the first --port=<n> or --port <n> argument, then fallback. A value that
// does not parse to a port in 1-65535 yields fallback.
func CandidatePort(entry config.ServerEntry, fallback int) int {
	port := 0
	if raw, ok := entry.Env[PortEnvVar]; ok {
		port = parsePort(raw)
	}

	if port == 0 {
		for i, arg := range entry.Args {
			if strings.Contains(arg, "--port=") {
				port = parsePort(strings.Split(arg, "=")[1])
				break
			}
			if arg == "--port" && i < len(entry.Args)-1 {
				port = parsePort(entry.Args[i+1])
				break
			}
		}
	}

	if port == 0 {
		return fallback
	}
	return port
}

// parsePort reads the leading decimal digits of s and returns 0 unless they form a valid port
func parsePort(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n < 1 || n > 65535 {
		return 0
	}
	return n
}

// ProcessInfo is one running process as seen by the process strategy
type ProcessInfo struct {
	PID     int32
	Cmdline string
}

// ProcessLister enumerates running processes
type ProcessLister func(ctx context.Context) ([]ProcessInfo, error)

// ListProcesses enumerates processes with gopsutil. Processes whose command line
// cannot be read are skipped.
func ListProcesses(ctx context.Context) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		cmdline, err := p.CmdlineWithContext(ctx)
		if err != nil || cmdline == "" {
			continue
		}
		out = append(out, ProcessInfo{PID: p.Pid, Cmdline: cmdline})
	}
	return out, nil
}

// ProcessProber reports a server online when a running process's command line
// contains its executable, its script and its most distinctive argument.
type ProcessProber struct {
	list    ProcessLister
	selfPID int32
	metrics *metrics.Metrics
}

// NewProcessProber creates a process strategy prober backed by gopsutil
func NewProcessProber(m *metrics.Metrics) *ProcessProber {
	return &ProcessProber{
		list:    ListProcesses,
		selfPID: int32(os.Getpid()),
		metrics: m,
	}
}

// Name returns the strategy name
func (p *ProcessProber) Name() string {
	return config.ProbeStrategyProcess
}

// Probe runs the process strategy. It never fails; problems become an offline result.
func (p *ProcessProber) Probe(ctx context.Context, entry config.ServerEntry) domain.ProbeResult {
	start := time.Now()
	result := p.probe(ctx, entry)
	p.metrics.ObserveProbe(p.Name(), result.Success, time.Since(start))
	return result
}

func (p *ProcessProber) probe(ctx context.Context, entry config.ServerEntry) domain.ProbeResult {
	details := &domain.ProbeDetails{Command: entry.Command}

	tokens := strings.Fields(entry.Command)
	if len(tokens) == 0 {
		return domain.ProbeResult{Success: false, Error: ErrCommandNotAvailable, Details: details}
	}
	base := tokens[0]
	script := ""
	if len(tokens) > 1 {
		script = tokens[1]
	}
	arg := DistinctiveArg(entry.Args)

	procs, err := p.list(ctx)
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to list processes", zap.Error(err))
		return domain.ProbeResult{Success: false, Error: fmt.Sprintf("failed to list processes: %v", err), Details: details}
	}

	for _, proc := range procs {
		if proc.PID == p.selfPID {
			continue
		}
		if !strings.Contains(proc.Cmdline, base) {
			continue
		}
		if script != "" && !strings.Contains(proc.Cmdline, script) {
			continue
		}
		if arg != "" && !strings.Contains(proc.Cmdline, arg) {
			continue
		}
		if details.Count == 0 {
			details.Sample = proc.Cmdline
		}
		details.Count++
	}

	details.Found = details.Count > 0
	logger.FromContext(ctx).Debug("Process probe finished",
		zap.String("base", base), zap.String("arg", arg), zap.Int("matches", details.Count))
	return domain.ProbeResult{Success: details.Found, Details: details}
}

// DistinctiveArg returns the first argument that is not a host or port flag,
// or the first argument when every one is such a flag.
func DistinctiveArg(args []string) string {
	for _, arg := range args {
		switch arg {
		case "--port", "--host", "-p", "-h":
			continue
		}
		if strings.HasPrefix(arg, "--port=") || strings.HasPrefix(arg, "--host=") {
			continue
		}
		return arg
	}
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
