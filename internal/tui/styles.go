package tui

import "github.com/charmbracelet/lipgloss"

// Theme colors
const (
	ColorAccent    = "86"  // Cyan/green - titles, focused borders
	ColorHighlight = "205" // Magenta - selected row
	ColorDanger    = "196" // Red - failure messages
	ColorMuted     = "241" // Gray - hints, empty states
	ColorText      = "252" // Light gray - normal text
)

// Styles contains the style definitions used by the views.
var Styles = struct {
	Title    lipgloss.Style
	Section  lipgloss.Style
	Box      lipgloss.Style
	BoxFocus lipgloss.Style
	Selected lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Danger   lipgloss.Style
	Hint     lipgloss.Style
}{
	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorAccent)),
	Section: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorHighlight)),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorMuted)).
		Padding(0, 1),
	BoxFocus: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccent)).
		Padding(0, 1),
	Selected: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorHighlight)),
	Normal: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorText)),
	Muted: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)).
		Italic(true),
	Danger: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorDanger)),
	Hint: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)),
}
