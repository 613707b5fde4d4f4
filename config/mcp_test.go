package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMCPConfig(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantIDs   []string
		wantError string
	}{
		{
			name:    "missing mcpServers reads as empty",
			input:   `{"other": true}`,
			wantIDs: []string{},
		},
		{
			name:    "null mcpServers reads as empty",
			input:   `{"mcpServers": null}`,
			wantIDs: []string{},
		},
		{
			name:    "two servers",
			input:   `{"mcpServers": {"b": {"command": "node"}, "a": {"command": "npx", "args": ["x"]}}}`,
			wantIDs: []string{"a", "b"},
		},
		{
			name:      "malformed json",
			input:     `{"mcpServers": `,
			wantError: "invalid JSON",
		},
		{
			name:      "args of wrong type",
			input:     `{"mcpServers": {"fs": {"command": "npx", "args": "not-a-list"}}}`,
			wantError: `server "fs": field "args": must be an array of strings`,
		},
		{
			name:      "env with non-string value",
			input:     `{"mcpServers": {"fs": {"command": "npx", "env": {"PORT": 1}}}}`,
			wantError: `server "fs": field "env": must be an object of strings`,
		},
		{
			name:      "disabled as string",
			input:     `{"mcpServers": {"fs": {"command": "npx", "disabled": "yes"}}}`,
			wantError: `field "disabled": must be a boolean`,
		},
		{
			name:      "entry is not an object",
			input:     `{"mcpServers": {"fs": "npx"}}`,
			wantError: `server "fs": server entry must be a JSON object`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseMCPConfig([]byte(tt.input))
			if tt.wantError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, cfg.MCPServers.SortedIDs())
		})
	}
}

func TestServerEntry_NullAndAbsentFieldsDefault(t *testing.T) {
	cfg, err := ParseMCPConfig([]byte(`{"mcpServers": {"fs": {"command": "npx", "args": null}}}`))
	require.NoError(t, err)

	entry := cfg.MCPServers["fs"]
	assert.Equal(t, "npx", entry.Command)
	assert.Equal(t, []string{}, entry.Args)
	assert.Equal(t, map[string]string{}, entry.Env)
	assert.False(t, entry.Disabled)
}

func TestServerEntry_MarshalAlwaysEmitsFields(t *testing.T) {
	data, err := json.Marshal(ServerEntry{Command: "node"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"command":"node","args":[],"env":{},"disabled":false}`, string(data))
	assert.Equal(t, `{"command":"node","args":[],"env":{},"disabled":false}`, string(data))
}

func TestHostServerEntry_OmitsDisabled(t *testing.T) {
	entry := ServerEntry{Command: "node", Args: []string{"server.js"}, Disabled: true}
	data, err := json.Marshal(HostServerEntry(entry))
	require.NoError(t, err)
	assert.JSONEq(t, `{"command":"node","args":["server.js"],"env":{}}`, string(data))
}

func TestServerEntry_UnknownKeysRoundTrip(t *testing.T) {
	input := `{"mcpServers": {"remote": {"command": "npx", "autoApprove": ["read"], "type": "stdio"}}}`
	cfg, err := ParseMCPConfig([]byte(input))
	require.NoError(t, err)

	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"mcpServers": {"remote": {
		"command": "npx", "args": [], "env": {}, "disabled": false,
		"autoApprove": ["read"], "type": "stdio"}}}`, string(out))
}

func TestServerEntry_Overlay(t *testing.T) {
	base := ServerEntry{Command: "node", Args: []string{"a.js"}, Env: map[string]string{"K": "v"}}

	t.Run("decoded entry only overrides present fields", func(t *testing.T) {
		var top ServerEntry
		require.NoError(t, json.Unmarshal([]byte(`{"command": "deno"}`), &top))

		merged := base.Overlay(top)
		assert.Equal(t, "deno", merged.Command)
		assert.Equal(t, []string{"a.js"}, merged.Args)
		assert.Equal(t, map[string]string{"K": "v"}, merged.Env)
	})

	t.Run("constructed entry overrides every field", func(t *testing.T) {
		merged := base.Overlay(ServerEntry{Command: "deno"})
		assert.Equal(t, "deno", merged.Command)
		assert.Empty(t, merged.Args)
		assert.Empty(t, merged.Env)
	})

	t.Run("inputs are not mutated", func(t *testing.T) {
		merged := base.Overlay(ServerEntry{Command: "x", Args: []string{"y"}})
		merged.Args[0] = "changed"
		assert.Equal(t, []string{"a.js"}, base.Args)
	})
}

func TestServerEntry_Sanitize(t *testing.T) {
	entry := ServerEntry{
		Command: "  npx  ",
		Args:    []string{" -y ", "", "   ", "pkg"},
		Env:     map[string]string{" KEY ": " value ", "EMPTY": " ", "": "orphan"},
	}

	clean := entry.Sanitize()
	assert.Equal(t, "npx", clean.Command)
	assert.Equal(t, []string{"-y", "pkg"}, clean.Args)
	assert.Equal(t, map[string]string{"KEY": "value"}, clean.Env)
	assert.Equal(t, "  npx  ", entry.Command)
}

func TestServerEntry_Executable(t *testing.T) {
	assert.Equal(t, "uv", ServerEntry{Command: "uv run server.py"}.Executable())
	assert.Equal(t, "", ServerEntry{Command: "   "}.Executable())
}

func TestParseServerSet(t *testing.T) {
	_, err := ParseServerSet([]byte(`{"servers": {}}`))
	assert.ErrorIs(t, err, ErrMissingServers)

	set, err := ParseServerSet([]byte(`{"mcpServers": {"fs": {"command": "npx"}}}`))
	require.NoError(t, err)
	assert.Contains(t, set, "fs")
}

func TestParseStateFile(t *testing.T) {
	state, err := ParseStateFile([]byte(`{"serverStates": {"fs": {"disabled": true}}}`))
	require.NoError(t, err)
	assert.Equal(t, PersistedState{"fs": {Disabled: true}}, state)

	state, err = ParseStateFile([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, state)

	_, err = ParseStateFile([]byte(`nope`))
	assert.Error(t, err)
}

func TestDefaultServerSet(t *testing.T) {
	set, err := DefaultServerSet("")
	require.NoError(t, err)
	require.Contains(t, set, ManagerServerID)
	assert.Equal(t, "mcp-manager", set[ManagerServerID].Command)
	assert.Equal(t, []string{"serve"}, set[ManagerServerID].Args)

	set, err = DefaultServerSet(t.TempDir() + "/missing.json")
	require.NoError(t, err)
	assert.Empty(t, set)
}
