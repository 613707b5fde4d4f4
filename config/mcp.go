package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
)

// ErrMissingServers is returned when a document has no mcpServers object
var ErrMissingServers = errors.New("no mcpServers object found")

type fieldMask uint8

const (
	fieldCommand fieldMask = 1 << iota
	fieldArgs
	fieldEnv
	fieldDisabled
)

// ServerEntry is one MCP server as stored under mcpServers in a host config file
type ServerEntry struct {
	Command  string
	Args     []string
	Env      map[string]string
	Disabled bool

	// Extra holds keys that are not modelled here. They are written back unchanged.
	Extra map[string]json.RawMessage

	// decoded marks entries read from JSON; for those, present lists the keys
	// that were actually in the document.
	decoded bool
	present fieldMask
}

// NewServerEntry builds a complete entry from its parts
func NewServerEntry(command string, args []string, env map[string]string) ServerEntry {
	return ServerEntry{
		Command: command,
		Args:    args,
		Env:     env,
	}
}

func (e ServerEntry) has(f fieldMask) bool {
	return !e.decoded || e.present&f != 0
}

// SetsDisabled reports whether the entry carries an explicit disabled flag
func (e ServerEntry) SetsDisabled() bool {
	return e.has(fieldDisabled)
}

// Clone returns a deep copy of the entry
func (e ServerEntry) Clone() ServerEntry {
	out := e
	out.Args = slices.Clone(e.Args)
	out.Env = maps.Clone(e.Env)
	out.Extra = maps.Clone(e.Extra)
	return out
}

// Overlay shallow-merges the fields present in top over e and returns the result.
// Keys unknown to ServerEntry are merged the same way.
func (e ServerEntry) Overlay(top ServerEntry) ServerEntry {
	out := e.Clone()
	out.decoded = false
	out.present = 0

	if top.has(fieldCommand) {
		out.Command = top.Command
	}
	if top.has(fieldArgs) {
		out.Args = slices.Clone(top.Args)
	}
	if top.has(fieldEnv) {
		out.Env = maps.Clone(top.Env)
	}
	if top.has(fieldDisabled) {
		out.Disabled = top.Disabled
	}
	if len(top.Extra) > 0 && out.Extra == nil {
		out.Extra = make(map[string]json.RawMessage, len(top.Extra))
	}
	for k, v := range top.Extra {
		out.Extra[k] = v
	}
	if out.Args == nil {
		out.Args = []string{}
	}
	if out.Env == nil {
		out.Env = map[string]string{}
	}
	return out
}

// Sanitize trims the command, drops blank args and drops env pairs with a blank key or value
func (e ServerEntry) Sanitize() ServerEntry {
	out := e.Clone()
	out.Command = strings.TrimSpace(e.Command)

	out.Args = make([]string, 0, len(e.Args))
	for _, arg := range e.Args {
		if arg = strings.TrimSpace(arg); arg != "" {
			out.Args = append(out.Args, arg)
		}
	}

	out.Env = make(map[string]string, len(e.Env))
	for k, v := range e.Env {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		out.Env[k] = v
	}
	return out
}

// Executable returns the first whitespace-separated token of the command
func (e ServerEntry) Executable() string {
	fields := strings.Fields(e.Command)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// UnmarshalJSON decodes an entry strictly: known fields must have the expected
// JSON type, null counts as the zero value, unknown keys go to Extra.
func (e *ServerEntry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return errors.New("server entry must be a JSON object")
	}

	out := ServerEntry{decoded: true}
	for key, value := range raw {
		var err error
		switch key {
		case "command":
			err = decodeField(value, &out.Command, "a string")
			out.present |= fieldCommand
		case "args":
			err = decodeField(value, &out.Args, "an array of strings")
			out.present |= fieldArgs
		case "env":
			err = decodeField(value, &out.Env, "an object of strings")
			out.present |= fieldEnv
		case "disabled":
			err = decodeField(value, &out.Disabled, "a boolean")
			out.present |= fieldDisabled
		default:
			if out.Extra == nil {
				out.Extra = make(map[string]json.RawMessage)
			}
			out.Extra[key] = slices.Clone(value)
		}
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
	}

	if out.Args == nil {
		out.Args = []string{}
	}
	if out.Env == nil {
		out.Env = map[string]string{}
	}

	*e = out
	return nil
}

func decodeField(value json.RawMessage, dst any, want string) error {
	if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(value, dst); err != nil {
		return fmt.Errorf("must be %s", want)
	}
	return nil
}

// MarshalJSON always emits command, args, env and disabled, followed by any extra keys
func (e ServerEntry) MarshalJSON() ([]byte, error) {
	return e.marshal(true)
}

func (e ServerEntry) marshal(withDisabled bool) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	write := func(key string, value any) error {
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(encoded)
		return nil
	}

	args := e.Args
	if args == nil {
		args = []string{}
	}
	env := e.Env
	if env == nil {
		env = map[string]string{}
	}

	if err := write("command", e.Command); err != nil {
		return nil, err
	}
	if err := write("args", args); err != nil {
		return nil, err
	}
	if err := write("env", env); err != nil {
		return nil, err
	}
	if withDisabled {
		if err := write("disabled", e.Disabled); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(e.Extra))
	for k := range e.Extra {
		switch k {
		case "command", "args", "env", "disabled":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := write(k, e.Extra[k]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// HostServerEntry serializes a ServerEntry without the disabled flag, the
// shape written to the host application's config.
type HostServerEntry ServerEntry

// MarshalJSON omits the disabled key
func (h HostServerEntry) MarshalJSON() ([]byte, error) {
	return ServerEntry(h).marshal(false)
}

// UnmarshalJSON decodes with the same rules as ServerEntry
func (h *HostServerEntry) UnmarshalJSON(data []byte) error {
	var e ServerEntry
	if err := e.UnmarshalJSON(data); err != nil {
		return err
	}
	*h = HostServerEntry(e)
	return nil
}

// ServerSet maps server ids to entries. Ids are case-sensitive.
type ServerSet map[string]ServerEntry

// UnmarshalJSON decodes every entry strictly and names the offending id on failure
func (s *ServerSet) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.New("mcpServers must be a JSON object")
	}

	out := make(ServerSet, len(raw))
	for id, value := range raw {
		var entry ServerEntry
		if err := entry.UnmarshalJSON(value); err != nil {
			return fmt.Errorf("server %q: %w", id, err)
		}
		out[id] = entry
	}
	*s = out
	return nil
}

// Clone returns a deep copy of the set
func (s ServerSet) Clone() ServerSet {
	out := make(ServerSet, len(s))
	for id, entry := range s {
		out[id] = entry.Clone()
	}
	return out
}

// SortedIDs returns the ids in lexical order
func (s ServerSet) SortedIDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Enabled returns the number of entries that are not disabled
func (s ServerSet) Enabled() int {
	n := 0
	for _, entry := range s {
		if !entry.Disabled {
			n++
		}
	}
	return n
}

// MCPConfig is the document shape shared by the editable and host config files
type MCPConfig struct {
	MCPServers ServerSet `json:"mcpServers"`
}

// HostConfig is the filtered document written to the host application
type HostConfig struct {
	MCPServers map[string]HostServerEntry `json:"mcpServers"`
}

// ServerState is the persisted enable flag of one server
type ServerState struct {
	Disabled bool `json:"disabled"`
}

// PersistedState maps server ids to their persisted flags
type PersistedState map[string]ServerState

// StateFile is the on-disk shape of PersistedState
type StateFile struct {
	ServerStates PersistedState `json:"serverStates"`
}

// ParseMCPConfig decodes a config document. A document without mcpServers reads as an empty set.
func ParseMCPConfig(data []byte) (*MCPConfig, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	cfg := &MCPConfig{MCPServers: ServerSet{}}
	raw, ok := doc["mcpServers"]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return cfg, nil
	}
	if err := cfg.MCPServers.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseServerSet decodes a document that must carry an mcpServers object
func ParseServerSet(data []byte) (ServerSet, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	raw, ok := doc["mcpServers"]
	if !ok {
		return nil, ErrMissingServers
	}
	var set ServerSet
	if err := set.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	return set, nil
}

// ParseStateFile decodes the persisted state document
func ParseStateFile(data []byte) (PersistedState, error) {
	var doc StateFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid state JSON: %w", err)
	}
	if doc.ServerStates == nil {
		doc.ServerStates = PersistedState{}
	}
	return doc.ServerStates, nil
}

// MarshalIndented encodes v as 2-space-indented JSON with a trailing newline
func MarshalIndented(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
