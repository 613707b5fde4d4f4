package services

import (
	"github.com/inference-gateway/mcp-manager/config"
)

// Merge computes the effective server set. Defaults seed the result, saved
// entries are shallow-merged over it field by field, and persisted flags then
// set disabled on ids that exist. Inputs are never mutated.
func Merge(defaults, saved config.ServerSet, state config.PersistedState) config.ServerSet {
	merged := make(config.ServerSet, len(defaults)+len(saved))
	for id, entry := range defaults {
		merged[id] = entry.Clone()
	}

	for id, entry := range saved {
		base, ok := merged[id]
		if !ok {
			base = config.ServerEntry{}
		}
		merged[id] = base.Overlay(entry)
	}

	for id, st := range state {
		entry, ok := merged[id]
		if !ok {
			continue
		}
		entry.Disabled = st.Disabled
		merged[id] = entry
	}

	return merged
}

// SaveArtifacts are the three documents derived from a full server set on save
type SaveArtifacts struct {
	State    config.PersistedState
	Full     config.MCPConfig
	Filtered config.HostConfig
}

// Save derives the persisted state, the full editable config and the filtered
// host config from the current full set. It performs no I/O.
func Save(current config.ServerSet) SaveArtifacts {
	full := current.Clone()

	state := make(config.PersistedState, len(full))
	for id, entry := range full {
		state[id] = config.ServerState{Disabled: entry.Disabled}
	}

	return SaveArtifacts{
		State:    state,
		Full:     config.MCPConfig{MCPServers: full},
		Filtered: FilterDisabled(full),
	}
}

// FilterDisabled drops disabled entries and strips the disabled key from the rest
func FilterDisabled(servers config.ServerSet) config.HostConfig {
	filtered := config.HostConfig{MCPServers: make(map[string]config.HostServerEntry, len(servers))}
	for id, entry := range servers {
		if entry.Disabled {
			continue
		}
		filtered.MCPServers[id] = config.HostServerEntry(entry.Clone())
	}
	return filtered
}
