package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

//go:embed defaults.json
var embeddedDefaults []byte

// ManagerServerID is the id of the default entry that launches this tool
const ManagerServerID = "mcp-manager"

// DefaultServerSet returns the server set that every effective config is seeded with.
// An empty path selects the embedded set; a missing external file yields an empty set.
func DefaultServerSet(path string) (ServerSet, error) {
	data := embeddedDefaults
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return ServerSet{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read defaults file %s: %w", path, err)
		}
	}

	cfg, err := ParseMCPConfig(data)
	if err != nil {
		if path == "" {
			path = "embedded defaults"
		}
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg.MCPServers, nil
}
