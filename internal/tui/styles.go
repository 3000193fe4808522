// Package tui renders command output for waypoint: styled text on a
// terminal, or JSON and YAML for scripts.
//
// Colors use lipgloss AdaptiveColor for light/dark terminal support. Call
// CheckNoColor before rendering to honor NO_COLOR and TERM=dumb.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/mrz1836/waypoint/internal/domain"
)

//nolint:gochecknoglobals // package-level style palette
var (
	// ColorPrimary is blue, used for headings and active items.
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#00D7FF"}

	// ColorSuccess is green, used for passed checks and completed items.
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#00FF87"}

	// ColorWarning is yellow, used for advisory findings.
	ColorWarning = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD700"}

	// ColorError is red, used for errors and blocked items.
	ColorError = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}

	// ColorMuted is gray, used for keys and secondary text.
	ColorMuted = lipgloss.AdaptiveColor{Light: "#585858", Dark: "#6C6C6C"}
)

// OutputStyles holds common output styles.
type OutputStyles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
	Heading lipgloss.Style
	Key     lipgloss.Style
	Header  lipgloss.Style
}

// NewOutputStyles creates the output styles.
func NewOutputStyles() *OutputStyles {
	return &OutputStyles{
		Success: lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(ColorError).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(ColorWarning),
		Info:    lipgloss.NewStyle().Foreground(ColorPrimary),
		Dim:     lipgloss.NewStyle().Foreground(ColorMuted),
		Heading: lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true),
		Key:     lipgloss.NewStyle().Foreground(ColorMuted),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#DDDDDD"}),
	}
}

// CheckNoColor drops to plain ASCII rendering when colors are unwanted.
func CheckNoColor() {
	if !HasColorSupport() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// HasColorSupport returns false if NO_COLOR is set (any value, including
// empty) or TERM=dumb. See https://no-color.org/.
func HasColorSupport() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// PhaseStatusIcon returns the status icon for a phase.
func PhaseStatusIcon(status domain.PhaseStatus) string {
	switch status {
	case domain.PhaseCompleted:
		return "✓"
	case domain.PhaseInProgress:
		return "●"
	case domain.PhaseNotStarted:
		return "○"
	default:
		return "?"
	}
}

// TaskStatusIcon returns the status icon for a task.
func TaskStatusIcon(status domain.TaskStatus) string {
	switch status {
	case domain.TaskCompleted:
		return "✓"
	case domain.TaskInProgress:
		return "●"
	case domain.TaskNotStarted:
		return "○"
	case domain.TaskBlocked:
		return "✗"
	default:
		return "?"
	}
}
