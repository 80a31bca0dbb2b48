package tui

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Name    string
	Primary lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Accent  lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

var Themes = []Theme{
	{
		Name:    "cyberpunk",
		Primary: lipgloss.Color("#00ffff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#666666"),
		Accent:  lipgloss.Color("#ff00ff"),
		Success: lipgloss.Color("#00ff00"),
		Warning: lipgloss.Color("#ff8800"),
		Error:   lipgloss.Color("#ff0000"),
	},
	{
		Name:    "retro",
		Primary: lipgloss.Color("#00ff00"),
		Text:    lipgloss.Color("#00ff00"),
		Muted:   lipgloss.Color("#005500"),
		Accent:  lipgloss.Color("#88ff88"),
		Success: lipgloss.Color("#88ff88"),
		Warning: lipgloss.Color("#ffff00"),
		Error:   lipgloss.Color("#ff0000"),
	},
	{
		Name:    "ocean",
		Primary: lipgloss.Color("#00a8cc"),
		Text:    lipgloss.Color("#e0f0ff"),
		Muted:   lipgloss.Color("#4488aa"),
		Accent:  lipgloss.Color("#ffd700"),
		Success: lipgloss.Color("#00ff88"),
		Warning: lipgloss.Color("#ffcc00"),
		Error:   lipgloss.Color("#ff4444"),
	},
}

// styles are derived from a theme each frame.
type styles struct {
	title, text, dim, accent, ok, warn, bad lipgloss.Style
}

func (t Theme) styles() styles {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	return styles{
		title:  fg(t.Primary).Bold(true),
		text:   fg(t.Text),
		dim:    fg(t.Muted),
		accent: fg(t.Accent),
		ok:     fg(t.Success),
		warn:   fg(t.Warning),
		bad:    fg(t.Error).Bold(true),
	}
}
