package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Colors - retro-futuristic palette shared with the rest of the Zoea tools.
var (
	colorBrand    = lipgloss.Color("#9D00FF") // Electric purple
	colorTeal     = lipgloss.Color("#00FFCC") // Bright teal
	colorBrandDim = lipgloss.Color("#6B00B3")

	colorWarning = lipgloss.Color("#FF6600")
	colorError   = lipgloss.Color("#FF3366")
	colorSuccess = lipgloss.Color("#00FF66")
	colorMuted   = lipgloss.Color("#5555AA")
	colorInfo    = lipgloss.Color("#00CCFF")

	colorBgAlt   = lipgloss.Color("#101018")
	colorBgPanel = lipgloss.Color("#14141F")
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBrand).
			Background(colorBgAlt).
			MarginBottom(1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBrand)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorTeal).
			Background(colorBgAlt).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBrandDim).
			Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
			Foreground(colorTeal).
			Bold(true)

	stateRunningStyle = lipgloss.NewStyle().
				Foreground(colorSuccess).
				Bold(true)

	stateWaitingStyle = lipgloss.NewStyle().
				Foreground(colorTeal)

	stateStoppedStyle = lipgloss.NewStyle().
				Foreground(colorMuted)

	stateErroredStyle = lipgloss.NewStyle().
				Foreground(colorError).
				Bold(true)

	pausedStyle = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorBrand).
			Background(colorBgPanel).
			Padding(1, 2).
			Margin(1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorTeal).
			Bold(true)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorBrand).
			Bold(true)

	dimmedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)

// StateStyle returns the style for a runner state.
func StateStyle(state string) lipgloss.Style {
	switch state {
	case "running":
		return stateRunningStyle
	case "waiting", "idle":
		return stateWaitingStyle
	case "stopped":
		return stateStoppedStyle
	default:
		return stateWaitingStyle
	}
}

// ReasonStyle returns the style for a cycle exit reason.
func ReasonStyle(reason string) lipgloss.Style {
	switch reason {
	case "limit_reached", "queue_drained":
		return lipgloss.NewStyle().Foreground(colorSuccess)
	case "no_slots", "max_failures", "insufficient_resources", "origin_unavailable":
		return lipgloss.NewStyle().Foreground(colorWarning)
	case "error", "no_origins", "galaxy_exhausted":
		return stateErroredStyle
	default:
		return lipgloss.NewStyle().Foreground(colorInfo)
	}
}

// renderSectionTitle renders a section title that spans the full width.
func renderSectionTitle(title string, width int) string {
	// Format: ⬧── TITLE ──⬧ with dashes filling the remaining space
	titleWithSpaces := " " + title + " "
	availableWidth := width - lipgloss.Width(titleWithSpaces) - 4
	if availableWidth < 2 {
		availableWidth = 2
	}
	leftDashes := availableWidth / 2
	rightDashes := availableWidth - leftDashes

	line := "⬧─" + strings.Repeat("─", leftDashes) + titleWithSpaces + strings.Repeat("─", rightDashes) + "─⬧"
	return panelTitleStyle.Width(width).Render(line)
}

// truncateToWidth truncates a string to fit within maxWidth display columns.
// Uses rune-aware iteration to avoid cutting multi-byte characters.
func truncateToWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	currentWidth := 0
	for i, r := range s {
		charWidth := lipgloss.Width(string(r))
		if currentWidth+charWidth > maxWidth {
			return s[:i]
		}
		currentWidth += charWidth
	}
	return s
}

func truncateWithEllipsis(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return truncateToWidth(s, maxWidth)
	}
	return truncateToWidth(s, maxWidth-3) + "..."
}
