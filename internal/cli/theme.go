package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the colors used by the todo manager.
type Theme struct {
	Primary lipgloss.Color
	Dim     lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Border  lipgloss.Color
}

// TokyoNight is the default color theme
var TokyoNight = Theme{
	Primary: lipgloss.Color("#7dcfff"),
	Dim:     lipgloss.Color("#565f89"),
	Success: lipgloss.Color("#9ece6a"),
	Warning: lipgloss.Color("#e0af68"),
	Error:   lipgloss.Color("#f7768e"),
	Border:  lipgloss.Color("#3b4261"),
}

type styles struct {
	renderer *lipgloss.Renderer
	theme    Theme

	title   lipgloss.Style
	bold    lipgloss.Style
	dim     lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	menu    lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
}

// newStyles binds the theme to out, so colors are dropped when out is not a
// terminal.
func newStyles(out io.Writer, theme Theme) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		renderer: r,
		theme:    theme,
		title:    r.NewStyle().Bold(true).Foreground(theme.Primary),
		bold:     r.NewStyle().Bold(true),
		dim:      r.NewStyle().Foreground(theme.Dim),
		success:  r.NewStyle().Foreground(theme.Success),
		warning:  r.NewStyle().Foreground(theme.Warning),
		failure:  r.NewStyle().Foreground(theme.Error),
		menu: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Primary).
			Padding(1, 2),
		header: r.NewStyle().Bold(true).Padding(0, 1),
		cell:   r.NewStyle().Padding(0, 1),
	}
}
