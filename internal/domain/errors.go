package domain

import (
	"errors"
	"fmt"
	"runtime"
)

var (
	// ErrServerNotFound is returned when an operation names an id that is not configured
	ErrServerNotFound = errors.New("server not found")

	// ErrServerExists is returned when adding or renaming onto an id that is already configured
	ErrServerExists = errors.New("server already exists")

	// ErrInvalidServer is returned for entries that fail validation
	ErrInvalidServer = errors.New("invalid server configuration")

	// ErrNoServers is returned when a save or import carries no mcpServers map
	ErrNoServers = errors.New("No server configuration provided")
)

// PortCollisionError represents an error when the API port is already in use
type PortCollisionError struct {
	Port string
}

// Error implements the error interface
func (e *PortCollisionError) Error() string {
	return fmt.Sprintf(`✗ Error: Port %s is already in use

  mcp-manager serve cannot start because port %s is already in use by another process.

  To resolve this:
  1. Find the process using the port:
     %s

  2. Stop the conflicting process, or

  3. Use a different port:
     mcp-manager serve --port <new-port>`, e.Port, e.Port, getPortCheckCommand(e.Port))
}

// getPortCheckCommand returns the platform-specific command to check port usage
func getPortCheckCommand(port string) string {
	if runtime.GOOS == "windows" {
		return fmt.Sprintf("netstat -ano | findstr :%s", port)
	}
	return fmt.Sprintf("lsof -ti:%s", port)
}
