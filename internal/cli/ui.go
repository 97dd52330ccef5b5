package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - refs
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// laneStyles colors graph glyphs by lane, cycling like the canvas palette.
var laneStyles = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("36")),  // teal
	lipgloss.NewStyle().Foreground(lipgloss.Color("173")), // orange
	lipgloss.NewStyle().Foreground(lipgloss.Color("134")), // purple
	lipgloss.NewStyle().Foreground(lipgloss.Color("71")),  // green
	lipgloss.NewStyle().Foreground(lipgloss.Color("167")), // red
	lipgloss.NewStyle().Foreground(lipgloss.Color("75")),  // blue
	lipgloss.NewStyle().Foreground(lipgloss.Color("179")), // gold
	lipgloss.NewStyle().Foreground(lipgloss.Color("138")), // rose
}

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleOID      = lipgloss.NewStyle().Foreground(colorYellow)
	styleRef      = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeadRef  = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	styleTag      = lipgloss.NewStyle().Foreground(colorYellow)
	styleAuthor   = lipgloss.NewStyle().Foreground(colorGray)
	styleMatch    = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	styleSelected = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconInfo    = "›"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(StyleDim.Render(iconInfo) + " " + msg)
}

// =============================================================================
// Stats Display
// =============================================================================

// printGraphStats prints layout statistics on a single line.
func printGraphStats(nodes, edges, lanes, crossings int) {
	parts := []string{
		fmt.Sprintf("%d commits", nodes),
		fmt.Sprintf("%d edges", edges),
		fmt.Sprintf("%d lanes", lanes),
	}
	if crossings > 0 {
		parts = append(parts, fmt.Sprintf("%d crossings", crossings))
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	fmt.Println(line)
}
