package tui

import "github.com/charmbracelet/lipgloss"

// Shared Styles
var (
	// Brand Colors
	primaryColor = lipgloss.Color("#00FFFF") // Cyan/Aqua
	accentColor  = lipgloss.Color("#00FF88") // Green
	purpleColor  = lipgloss.Color("#B892FF")
	orangeColor  = lipgloss.Color("#FFA500")
	yellowColor  = lipgloss.Color("#FFD700")
	subColor     = lipgloss.Color("241") // Grey

	logoStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true).
			MarginLeft(1)

	highlight = lipgloss.NewStyle().Foreground(accentColor)
	subtext   = lipgloss.NewStyle().Foreground(subColor)

	// Dashboard specific
	successText = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF88"))
	warnText    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))
	errText     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444"))
	infoText    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FFFF"))

	headerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 2)

	dashBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	targetStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	metaStyle = lipgloss.NewStyle().
			Foreground(subColor)

	dividerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	sparklineStyle = lipgloss.NewStyle().Foreground(purpleColor)
)

// bigAsciiLogo is the multi-line banner rendered in the dashboard header.
const bigAsciiLogo = `
 ███████╗██╗   ██╗██████╗  ██████╗ ███████╗
 ██╔════╝██║   ██║██╔══██╗██╔════╝ ██╔════╝
 ███████╗██║   ██║██████╔╝██║  ███╗█████╗
 ╚════██║██║   ██║██╔══██╗██║   ██║██╔══╝
 ███████║╚██████╔╝██║  ██║╚██████╔╝███████╗
 ╚══════╝ ╚═════╝ ╚═╝  ╚═╝ ╚═════╝ ╚══════╝`

// asciiLogo is the compact banner used on the summary screen.
const asciiLogo = `⚡ SURGE`

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// GetSpinnerFrame returns the spinner glyph for tick t, cycling through
// spinnerFrames.
func GetSpinnerFrame(t int) string {
	return spinnerFrames[t%len(spinnerFrames)]
}
