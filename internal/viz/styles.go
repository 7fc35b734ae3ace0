package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/verlet/internal/spawn"
)

// Theme colours the live view.
type Theme struct {
	Name    string
	Canvas  lipgloss.Color
	Title   lipgloss.Color
	Label   lipgloss.Color
	Value   lipgloss.Color
	Running lipgloss.Color
	Paused  lipgloss.Color
	Error   lipgloss.Color
	Graph   lipgloss.Color
}

var (
	ThemeChalk = Theme{
		Name:    "chalk",
		Canvas:  lipgloss.Color("#f0f0f0"),
		Title:   lipgloss.Color("#00ffff"),
		Label:   lipgloss.Color("#888899"),
		Value:   lipgloss.Color("#e0e0e0"),
		Running: lipgloss.Color("#00ff88"),
		Paused:  lipgloss.Color("#ffaa00"),
		Error:   lipgloss.Color("#ff4444"),
		Graph:   lipgloss.Color("#00ccff"),
	}

	ThemeRetro = Theme{
		Name:    "retro",
		Canvas:  lipgloss.Color("#00ff00"),
		Title:   lipgloss.Color("#88ff88"),
		Label:   lipgloss.Color("#005500"),
		Value:   lipgloss.Color("#00cc00"),
		Running: lipgloss.Color("#88ff88"),
		Paused:  lipgloss.Color("#ffff00"),
		Error:   lipgloss.Color("#ff0000"),
		Graph:   lipgloss.Color("#00ff00"),
	}

	ThemeSunset = Theme{
		Name:    "sunset",
		Canvas:  lipgloss.Color("#fff5f5"),
		Title:   lipgloss.Color("#ff6b6b"),
		Label:   lipgloss.Color("#8b6b8c"),
		Value:   lipgloss.Color("#feca57"),
		Running: lipgloss.Color("#5fd068"),
		Paused:  lipgloss.Color("#ffc048"),
		Error:   lipgloss.Color("#ff4757"),
		Graph:   lipgloss.Color("#ff9ff3"),
	}

	Themes = []Theme{ThemeChalk, ThemeRetro, ThemeSunset}
)

func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeChalk
}

// NextTheme cycles through Themes.
func NextTheme(t Theme) Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

// styles derived from a theme
type styles struct {
	canvas, title, label, value, running, paused, err, graph, help lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		canvas:  lipgloss.NewStyle().Foreground(t.Canvas).Padding(1, 2),
		title:   lipgloss.NewStyle().Foreground(t.Title).Bold(true).MarginBottom(1),
		label:   lipgloss.NewStyle().Foreground(t.Label).Width(12),
		value:   lipgloss.NewStyle().Foreground(t.Value),
		running: lipgloss.NewStyle().Foreground(t.Running).Bold(true),
		paused:  lipgloss.NewStyle().Foreground(t.Paused).Bold(true),
		err:     lipgloss.NewStyle().Foreground(t.Error),
		graph:   lipgloss.NewStyle().Foreground(t.Graph).Padding(1, 0),
		help:    lipgloss.NewStyle().Foreground(t.Label).MarginTop(1),
	}
}

var statsPanel = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(lipgloss.Color("240")).
	Padding(1, 2).
	Width(44)

// MaterialColor converts a material to a terminal colour, ignoring alpha.
func MaterialColor(m spawn.MaterialType) lipgloss.Color {
	b := func(v float32) int {
		return int(min(max(v, 0), 1)*255 + 0.5)
	}
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", b(m.Color[0]), b(m.Color[1]), b(m.Color[2])))
}

// ProgressBar renders a fraction in [0, 1] as a bar of width cells.
func ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	filled = min(max(filled, 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// Sparkline renders the last width values as block characters.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var sb strings.Builder
	for _, v := range values {
		idx := int((v - lo) / span * float64(len(chars)-1))
		sb.WriteRune(chars[min(max(idx, 0), len(chars)-1)])
	}
	return sb.String()
}
