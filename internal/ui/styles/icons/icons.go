package icons

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/inference-gateway/mcp-manager/internal/domain"
)

// Status icons
const (
	CheckMark = "✓"
	CrossMark = "✗"
	Online    = "●"
	Offline   = "○"
	Checking  = "◌"
	Unknown   = "?"
)

// Tokyo Night palette
const (
	successColor = lipgloss.Color("#9ece6a")
	errorColor   = lipgloss.Color("#f7768e")
	warningColor = lipgloss.Color("#e0af68")
	dimColor     = lipgloss.Color("#565f89")
)

// Icon styles
var (
	CheckMarkStyle = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	CrossMarkStyle = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	CheckingStyle  = lipgloss.NewStyle().Foreground(warningColor)
	DimStyle       = lipgloss.NewStyle().Foreground(dimColor)
)

// Helper functions for consistent colored icon usage
func StyledCheckMark() string {
	return CheckMarkStyle.Render(CheckMark)
}

func StyledCrossMark() string {
	return CrossMarkStyle.Render(CrossMark)
}

// Enabled returns the plain enabled/disabled mark
func Enabled(enabled bool) string {
	if enabled {
		return CheckMark
	}
	return CrossMark
}

// Status returns the plain icon for a liveness status
func Status(status domain.ServerStatus) string {
	switch status {
	case domain.StatusOnline:
		return Online
	case domain.StatusOffline:
		return Offline
	case domain.StatusChecking:
		return Checking
	default:
		return Unknown
	}
}

// StyledStatus renders the status icon followed by the status name
func StyledStatus(status domain.ServerStatus) string {
	label := Status(status) + " " + string(status)
	switch status {
	case domain.StatusOnline:
		return CheckMarkStyle.Render(label)
	case domain.StatusOffline:
		return CrossMarkStyle.Render(label)
	case domain.StatusChecking:
		return CheckingStyle.Render(label)
	default:
		return DimStyle.Render(label)
	}
}
