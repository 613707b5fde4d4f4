package cmd

import (
	"strings"
	"testing"

	"github.com/inference-gateway/mcp-manager/config"
	"github.com/inference-gateway/mcp-manager/internal/domain"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvPairs(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]string
		wantErr string
	}{
		{
			name:  "empty",
			pairs: nil,
			want:  map[string]string{},
		},
		{
			name:  "value keeps equals signs",
			pairs: []string{"MCP_PORT=9000", "TOKEN=a=b"},
			want:  map[string]string{"MCP_PORT": "9000", "TOKEN": "a=b"},
		},
		{
			name:  "empty value is allowed here",
			pairs: []string{"EMPTY="},
			want:  map[string]string{"EMPTY": ""},
		},
		{
			name:    "missing separator",
			pairs:   []string{"MCP_PORT"},
			wantErr: `invalid env "MCP_PORT": expected KEY=VALUE`,
		},
		{
			name:    "blank key",
			pairs:   []string{" =x"},
			wantErr: "expected KEY=VALUE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseEnvPairs(tt.pairs)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newUpdateFlagsCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "update"}
	cmd.Flags().String("command", "", "")
	cmd.Flags().StringArray("arg", []string{}, "")
	cmd.Flags().Bool("clear-args", false, "")
	cmd.Flags().StringArrayP("env", "e", []string{}, "")
	cmd.Flags().Bool("clear-env", false, "")
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestApplyUpdateFlags(t *testing.T) {
	current := config.ServerEntry{
		Command:  "npx",
		Args:     []string{"server", "--port", "9000"},
		Env:      map[string]string{"TOKEN": "x"},
		Disabled: true,
	}

	tests := []struct {
		name string
		args []string
		want config.ServerEntry
	}{
		{
			name: "no flags keeps everything",
			want: current,
		},
		{
			name: "command only",
			args: []string{"--command", "uvx"},
			want: config.ServerEntry{Command: "uvx", Args: current.Args, Env: current.Env, Disabled: true},
		},
		{
			name: "args are replaced",
			args: []string{"--arg", "a", "--arg", "b"},
			want: config.ServerEntry{Command: "npx", Args: []string{"a", "b"}, Env: current.Env, Disabled: true},
		},
		{
			name: "clear args and env",
			args: []string{"--clear-args", "--clear-env"},
			want: config.ServerEntry{Command: "npx", Args: []string{}, Env: map[string]string{}, Disabled: true},
		},
		{
			name: "env is replaced",
			args: []string{"-e", "MCP_PORT=1"},
			want: config.ServerEntry{Command: "npx", Args: current.Args, Env: map[string]string{"MCP_PORT": "1"}, Disabled: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := applyUpdateFlags(newUpdateFlagsCommand(t, tt.args...), current)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Command, got.Command)
			assert.Equal(t, tt.want.Args, got.Args)
			assert.Equal(t, tt.want.Env, got.Env)
			assert.Equal(t, tt.want.Disabled, got.Disabled)
		})
	}

	_, err := applyUpdateFlags(newUpdateFlagsCommand(t, "-e", "broken"), current)
	assert.Error(t, err)

	assert.Equal(t, []string{"server", "--port", "9000"}, current.Args)
}

func TestServersMarkdown(t *testing.T) {
	servers := config.ServerSet{
		"b-server": {Command: "node", Args: []string{"b.js"}, Env: map[string]string{"Z": "1", "A": "2"}},
		"a-server": {Command: "python", Args: []string{"a.py"}, Disabled: true},
	}
	paths := config.HostPaths{Editable: "/tmp/editable.json", Host: "/tmp/host.json"}

	md := serversMarkdown(servers, nil, paths)
	assert.Contains(t, md, "**Servers:** 2 total, 1 enabled")
	assert.Contains(t, md, "`/tmp/editable.json`")
	assert.Contains(t, md, "| ✗ | a-server | python | a.py | - |")
	assert.Contains(t, md, "| ✓ | b-server | node | b.js | A, Z |")
	assert.NotContains(t, md, "| Status |")
	assert.Less(t, strings.Index(md, "a-server"), strings.Index(md, "b-server"))

	md = serversMarkdown(servers, map[string]domain.ServerStatus{"b-server": domain.StatusOnline}, paths)
	assert.Contains(t, md, "| Status |")
	assert.Contains(t, md, "| ✓ | ● online | b-server |")
	assert.Contains(t, md, "| ✗ | ? unknown | a-server |")
}

func TestProbeMarkdown(t *testing.T) {
	results := map[string]domain.ProbeResult{
		"socket": {Success: true, Details: &domain.ProbeDetails{Command: "node", Found: true, Port: 9000}},
		"proc":   {Success: true, Details: &domain.ProbeDetails{Command: "python a.py", Found: true, Count: 2, Sample: "python a.py --x"}},
		"gone":   {Success: false, Error: "Command not available"},
		"idle":   {Success: false, Details: &domain.ProbeDetails{Command: "python"}},
	}

	md := probeMarkdown("socket", []string{"gone", "idle", "missing", "proc", "socket"}, results)
	assert.Contains(t, md, "(strategy: socket)")
	assert.Contains(t, md, "| ○ offline | gone | Command not available |")
	assert.Contains(t, md, "| ○ offline | idle | no matching process |")
	assert.Contains(t, md, "| ? unknown | missing | - |")
	assert.Contains(t, md, "| ● online | proc | 2 process(es): python a.py --x |")
	assert.Contains(t, md, "| ● online | socket | port 9000 |")
}

func TestCell(t *testing.T) {
	assert.Equal(t, "-", cell(""))
	assert.Equal(t, `a \| b`, cell("a | b"))

	long := strings.Repeat("x", 100)
	got := cell(long)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.Less(t, len([]rune(got)), 100)
}
