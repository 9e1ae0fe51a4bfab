package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles of the current theme.
type palette struct {
	header, label, value, muted, active lipgloss.Style
	ok, warn, bad                       lipgloss.Style
	panel, graph                        lipgloss.Style
}

func styles() palette {
	t := CurrentTheme
	return palette{
		header: lipgloss.NewStyle().Foreground(t.Secondary).Bold(true).
			BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(t.Muted),
		label:  lipgloss.NewStyle().Foreground(t.Muted).Width(18),
		value:  lipgloss.NewStyle().Foreground(t.Text),
		muted:  lipgloss.NewStyle().Foreground(t.Muted),
		active: lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		ok:     lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		warn:   lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		bad:    lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		panel:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Muted).Padding(1, 2),
		graph:  lipgloss.NewStyle().Foreground(t.Accent).Padding(1, 0),
	}
}

// ProgressBar renders a bar filled to percent, colored by how far along it is.
func ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	p := styles()
	if percent > 0.8 {
		return p.ok.Render(bar)
	} else if percent > 0.4 {
		return p.warn.Render(bar)
	}
	return p.bad.Render(bar)
}

func Separator(width int) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return styles().muted.Render(left + " ◆ " + right)
}
