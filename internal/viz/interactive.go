package viz

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/san-kum/verlet/internal/config"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var sceneInfo = map[string]string{
	"default": "square under a hanging rope",
	"rope":    "anchored rope swinging free",
	"cloth":   "grid pinned along its top edge",
	"cube":    "braced cube dropped on the floor",
	"square":  "two squares colliding",
	"pile":    "mixed shapes stacking up",
}

const (
	stateMenu = iota
	stateConfig
	stateSim
)

// tunable is a knob on the config screen.
type tunable struct {
	name string
	step float64
	get  func(*config.Config) float64
	set  func(*config.Config, float64)
}

var tunables = []tunable{
	{
		name: "iterations", step: 1,
		get: func(c *config.Config) float64 { return float64(c.Settings.ConvergeIterations) },
		set: func(c *config.Config, v float64) { c.Settings.ConvergeIterations = max(int(v), 0) },
	},
	{
		name: "jerk damping", step: 0.05,
		get: func(c *config.Config) float64 { return c.Settings.JerkDamping },
		set: func(c *config.Config, v float64) { c.Settings.JerkDamping = min(max(v, 0), 1) },
	},
	{
		name: "gravity", step: 0.5,
		get: func(c *config.Config) float64 { return -c.Settings.Gravity.Y() },
		set: func(c *config.Config, v float64) { c.Settings.Gravity[1] = -max(v, 0) },
	},
	{
		name: "restitution", step: 0.05,
		get: func(c *config.Config) float64 { return c.Settings.CoeffRestitution },
		set: func(c *config.Config, v float64) { c.Settings.CoeffRestitution = min(max(v, 0), 1) },
	},
	{
		name: "seed", step: 1,
		get: func(c *config.Config) float64 { return float64(c.Seed) },
		set: func(c *config.Config, v float64) { c.Seed = int64(v) },
	},
}

type menu struct {
	state, cursor int
	scenes        []string
	cfg           *config.Config
	knob          int
	err           error
	opts          []Option
	logger        *log.Logger
	live          Model
}

func NewInteractiveApp(logger *log.Logger, opts ...Option) *menu {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &menu{state: stateMenu, scenes: config.ListPresets(), logger: logger, opts: opts}
}

func (m menu) Init() tea.Cmd { return nil }

func (m menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateSim {
		next, cmd := m.live.Update(msg)
		m.live = next.(Model)
		return m, cmd
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch m.state {
	case stateMenu:
		return m.menuKey(key)
	default:
		return m.configKey(key)
	}
}

func (m menu) menuKey(msg tea.KeyMsg) (menu, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.scenes)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.cfg = config.GetPreset(m.scenes[m.cursor])
		m.state, m.knob, m.err = stateConfig, 0, nil
	}
	return m, nil
}

func (m menu) configKey(msg tea.KeyMsg) (menu, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "q":
		m.state = stateMenu
	case "up", "k":
		if m.knob > 0 {
			m.knob--
		}
	case "down", "j", "tab":
		m.knob = (m.knob + 1) % len(tunables)
	case "left", "h":
		t := tunables[m.knob]
		t.set(m.cfg, t.get(m.cfg)-t.step)
	case "right", "l":
		t := tunables[m.knob]
		t.set(m.cfg, t.get(m.cfg)+t.step)
	case "enter":
		s, err := m.cfg.Simulator(m.logger)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.logger.Info("scene started", "scene", m.cfg.Scene, "seed", m.cfg.Seed)
		m.live = NewModel(s, m.cfg.Dt, m.cfg.Scene, append(m.opts, WithLogger(m.logger))...)
		m.state = stateSim
		return m, m.live.Init()
	}
	return m, nil
}

func (m menu) View() string {
	switch m.state {
	case stateSim:
		return m.live.View()
	case stateConfig:
		return m.configView()
	}

	var b strings.Builder
	b.WriteString(cyan.Render("VERLET") + dim.Render("  particle and stick scenes") + "\n\n")
	for i, name := range m.scenes {
		line := fmt.Sprintf("%-10s %s", name, dim.Render(sceneInfo[name]))
		if i == m.cursor {
			b.WriteString(yellow.Render("> ") + white.Render(line) + "\n")
		} else {
			b.WriteString("  " + dim.Render(line) + "\n")
		}
	}
	b.WriteString("\n" + dim.Render("↑↓ select  enter configure  q quit"))
	return b.String()
}

func (m menu) configView() string {
	var b strings.Builder
	b.WriteString(cyan.Render(strings.ToUpper(m.cfg.Scene)) + "\n\n")
	for i, t := range tunables {
		line := fmt.Sprintf("%-14s %8.2f", t.name, t.get(m.cfg))
		if i == m.knob {
			b.WriteString(yellow.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + white.Render(line) + "\n")
		}
	}
	if m.err != nil {
		b.WriteString("\n" + red.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n" + dim.Render("↑↓ knob  ←→ adjust  enter run  esc back"))
	return b.String()
}

// RunInteractive shows the scene menu and runs the chosen scene live.
func RunInteractive(logger *log.Logger, opts ...Option) error {
	_, err := tea.NewProgram(NewInteractiveApp(logger, opts...), tea.WithAltScreen()).Run()
	return err
}
