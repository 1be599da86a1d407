package tui

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	colorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	colorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	colorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	colorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	colorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	colorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite).
			Background(colorBlue).
			Padding(0, 1)

	statusStyle     = lipgloss.NewStyle().Bold(true)
	errorStyle      = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	dimStyle        = lipgloss.NewStyle().Foreground(colorGray)
	helpKeyStyle    = lipgloss.NewStyle().Foreground(colorBlue)
	onStyle         = lipgloss.NewStyle().Foreground(colorGreen)
	offStyle        = lipgloss.NewStyle().Foreground(colorGray)
	inProgressStyle = lipgloss.NewStyle().Foreground(colorYellow)

	globalStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBlue)

	globalErrorStyle = globalStyle.
				BorderForeground(colorRed).
				Foreground(colorRed)
)
