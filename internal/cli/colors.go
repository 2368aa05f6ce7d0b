package cli

import "github.com/charmbracelet/lipgloss"

// Waterfall colour palette
// Shared signal-theme colours for consistent styling across CLI output.
var (
	// Core palette (cold to hot, mirroring a waterfall display)
	SignalGreen = lipgloss.Color("#00D787") // Strong decode
	SignalAmber = lipgloss.Color("#FFAF00") // Marginal decode / warning
	SignalRed   = lipgloss.Color("#FF5F5F") // Error
	SignalCyan  = lipgloss.Color("#5FD7FF") // Informational

	// Accent colours
	WarmGray = lipgloss.Color("#8A8A8A") // Subtle text
)
