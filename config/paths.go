package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	// AppName names the xdg subdirectories owned by mcp-manager
	AppName = "mcp-manager"

	// StateFileName is the default name of the persisted state file
	StateFileName = "server-state.json"

	// ConfigFileName is the default name of the settings file
	ConfigFileName = "config.yaml"

	editableConfigSuffix = "Cursor/User/globalStorage/saoudrizwan.claude-dev/settings/cline_mcp_settings.json"
	hostConfigSuffix     = "Claude/claude_desktop_config.json"
)

// HostPaths locates the two host application config files
type HostPaths struct {
	Editable string `json:"editable"`
	Host     string `json:"host"`
}

// DefaultHostPaths returns the platform-specific config file locations under home.
// goos uses runtime.GOOS values; anything other than darwin and windows is treated as linux.
func DefaultHostPaths(goos, home string) HostPaths {
	var base string
	switch goos {
	case "darwin":
		base = filepath.Join(home, "Library", "Application Support")
	case "windows":
		base = filepath.Join(home, "AppData", "Roaming")
	default:
		base = filepath.Join(home, ".config")
	}

	return HostPaths{
		Editable: filepath.Join(base, filepath.FromSlash(editableConfigSuffix)),
		Host:     filepath.Join(base, filepath.FromSlash(hostConfigSuffix)),
	}
}

// UserHome returns the user's home directory, preferring HOME then USERPROFILE
func UserHome() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if home := os.Getenv("USERPROFILE"); home != "" {
		return home
	}
	home, _ := os.UserHomeDir()
	return home
}

// DefaultStatePath returns the state file location under the xdg data directory
func DefaultStatePath() string {
	return filepath.Join(xdg.DataHome, AppName, StateFileName)
}

// DefaultLogDir returns the log directory under the xdg state directory
func DefaultLogDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// DefaultConfigDir returns the settings directory under the xdg config directory
func DefaultConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultConfigPath returns the default settings file path
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), ConfigFileName)
}

// DefaultSQLitePath returns the default SQLite state database path
func DefaultSQLitePath() string {
	return filepath.Join(xdg.DataHome, AppName, "state.db")
}
