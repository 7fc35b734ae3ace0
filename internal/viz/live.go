package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/verlet/internal/audio"
	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/interact"
	"github.com/san-kum/verlet/internal/metrics"
	"github.com/san-kum/verlet/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	graphCapacity   = 120
	errorTicks      = 180
	gifDotScale     = 3
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// targetKeys select what enter does at the cursor.
var targetKeys = map[string]interact.Target{
	"1": interact.Point,
	"2": interact.SpawnRope,
	"3": interact.SpawnSquare,
	"4": interact.SpawnCloth,
	"5": interact.SpawnCube,
	"n": interact.Line,
	"l": interact.Lock,
	"c": interact.Cut,
	"d": interact.Delete,
	"i": interact.PointInfo,
}

// Model drives a simulator from the terminal. The simulator is ticked from
// Update, so all of its calls happen on the program goroutine.
type Model struct {
	sim    *sim.Simulator
	dt     float64
	scene  string
	logger *log.Logger
	sound  *audio.Sonifier

	canvas *Canvas
	camera *Camera
	theme  Theme
	styles styles
	cursor mgl64.Vec3

	frame   *sim.Frame
	kinetic []float64
	strain  []float64

	history      []*sim.Frame
	playHead     int
	replayPaused bool

	recording bool
	frames    []*image.Paletted
	gifPath   string

	lastErr  error
	errTicks int
	showHelp bool
}

type Option func(*Model)

func WithTheme(name string) Option { return func(m *Model) { m.theme = GetTheme(name) } }

// WithSound sonifies the run. The sonifier must already be started.
func WithSound(s *audio.Sonifier) Option { return func(m *Model) { m.sound = s } }

func WithGIFPath(path string) Option { return func(m *Model) { m.gifPath = path } }

func WithLogger(l *log.Logger) Option { return func(m *Model) { m.logger = l } }

// NewModel frames the simulator's bounds and resizes its world to the
// canvas aspect ratio.
func NewModel(s *sim.Simulator, dt float64, scene string, opts ...Option) Model {
	h := s.Settings().Bounds.Y.Half()
	m := Model{
		sim:      s,
		dt:       dt,
		scene:    scene,
		logger:   log.New(io.Discard),
		canvas:   NewCanvas(width, height),
		camera:   NewCamera(mgl64.Vec3{0, h, 0}, dynamo.CameraDistance, h),
		theme:    ThemeChalk,
		cursor:   mgl64.Vec3{0, h, 0},
		playHead: -1,
		gifPath:  "verlet.gif",
	}
	for _, o := range opts {
		o(&m)
	}
	m.styles = newStyles(m.theme)
	sw, sh := m.canvas.Dots()
	s.Resize(float64(sw), float64(sh))
	return m
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		if t, ok := targetKeys[key]; ok {
			m.sim.SubmitTarget(t)
			return m, nil
		}
		switch key {
		case "q", "ctrl+c":
			if m.recording {
				m.stopRecording()
			}
			return m, tea.Quit
		case " ":
			m.togglePlay()
		case "esc":
			m.sim.SubmitTarget(interact.None)
			m.lastErr = nil
		case "enter":
			m.press()
		case "r":
			m.sim.SubmitPlayState(sim.Reset)
			m.kinetic, m.strain, m.history = nil, nil, nil
			m.playHead = -1
		case "up":
			m.moveCursor(0, 1)
		case "down":
			m.moveCursor(0, -1)
		case "left":
			m.moveCursor(-1, 0)
		case "right":
			m.moveCursor(1, 0)
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "g":
			if m.recording {
				m.stopRecording()
			} else {
				m.recording = true
				m.frames = m.frames[:0]
			}
		case "t":
			m.theme = NextTheme(m.theme)
			m.styles = newStyles(m.theme)
		case "v":
			m.camera.RotateX(0.1)
		case "V":
			m.camera.RotateX(-0.1)
		case "y":
			m.camera.RotateY(0.1)
		case "Y":
			m.camera.RotateY(-0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "0":
			m.camera.ResetView()
		case "?":
			m.showHelp = !m.showHelp
		}
		m.draw()
	case TickMsg:
		m.step()
		m.draw()
		if m.recording {
			m.captureFrame()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() {
	if m.playHead >= 0 {
		if !m.replayPaused {
			m.playHead++
			if m.playHead >= len(m.history) {
				m.playHead = -1
			}
		}
		return
	}

	f, err := m.sim.Tick(m.dt)
	if err != nil {
		m.lastErr, m.errTicks = err, errorTicks
	} else if m.errTicks > 0 {
		m.errTicks--
		if m.errTicks == 0 {
			m.lastErr = nil
		}
	}
	m.frame = f

	w := m.sim.World()
	ke, st := metrics.Kinetic(w), metrics.Strain(w)
	if m.sim.PlayState() == sim.Running {
		m.kinetic = appendCapped(m.kinetic, ke, graphCapacity)
		m.strain = appendCapped(m.strain, st, graphCapacity)
	}
	if f.Changed {
		m.history = appendCapped(m.history, f, historyCapacity)
	}
	if m.sound != nil {
		m.sound.Update(ke, st)
	}
}

func appendCapped[T any](s []T, v T, capacity int) []T {
	s = append(s, v)
	if len(s) > capacity {
		s = s[len(s)-capacity:]
	}
	return s
}

func (m *Model) togglePlay() {
	if m.playHead >= 0 {
		m.replayPaused = !m.replayPaused
		return
	}
	if m.sim.PlayState() == sim.Running {
		m.sim.SubmitPlayState(sim.Pause)
		return
	}
	m.sim.SubmitTarget(interact.None)
	m.sim.SubmitPlayState(sim.Play)
}

// cursorRay looks from the camera plane straight through the cursor.
func (m *Model) cursorRay() *interact.Ray {
	from := mgl64.Vec3{m.cursor.X(), m.cursor.Y(), dynamo.CameraDistance}
	r := interact.NewRay(from, m.cursor)
	return &r
}

// press fires the current target at the cursor. A second press ends a cut
// sweep.
func (m *Model) press() {
	kind := interact.Press
	if m.sim.Target() == interact.Cutting {
		kind = interact.Release
	}
	m.sim.SubmitEvent(interact.Event{Kind: kind, Ray: m.cursorRay()})
}

func (m *Model) moveCursor(dx, dy float64) {
	b := m.sim.Settings().Bounds
	step := 0.05 * b.Y.Half()
	x := min(max(m.cursor.X()+dx*step, -b.X.Half()), b.X.Half())
	y := min(max(m.cursor.Y()+dy*step, 0), b.Y.Extent)
	m.cursor = mgl64.Vec3{x, y, 0}
	if m.sim.Target() == interact.Cutting {
		m.sim.SubmitEvent(interact.Event{Kind: interact.Move, Ray: m.cursorRay()})
	}
}

// scrub moves through recorded frames. Entering replay freezes playback.
func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.replayPaused = true
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

// shown is the frame on screen: the replayed one or the live one.
func (m *Model) shown() *sim.Frame {
	if m.playHead >= 0 && m.playHead < len(m.history) {
		return m.history[m.playHead]
	}
	return m.frame
}

func (m *Model) draw() {
	m.canvas.Clear()
	b := m.sim.Settings().Bounds
	RenderBounds(m.canvas, m.camera, b.X.Half(), b.Y.Extent)
	RenderFrame(m.canvas, m.shown(), m.camera)
	sw, sh := m.canvas.Dots()
	if x, y, _, ok := m.camera.Project(m.cursor, sw, sh); ok && m.playHead < 0 {
		m.canvas.DrawDisc(x, y, 1)
	}
}

func (m Model) status() string {
	switch {
	case m.playHead >= 0 && m.replayPaused:
		return m.styles.paused.Render(fmt.Sprintf("REPLAY PAUSED %d/%d", m.playHead+1, len(m.history)))
	case m.playHead >= 0:
		return m.styles.running.Render(fmt.Sprintf("REPLAYING %d/%d", m.playHead+1, len(m.history)))
	case m.sim.PlayState() == sim.Running:
		return m.styles.running.Render("RUNNING")
	default:
		return m.styles.paused.Render("PAUSED")
	}
}

const helpText = `space  pause/play        r  reset          q  quit
1-5    point rope square cloth cube
n line  l lock  c cut  d delete  i info  esc none
enter  apply target at cursor (again to end a cut)
arrows move cursor      [ ]  replay       g  record gif
v/V y/Y rotate  +/- zoom  0 reset view   t  theme`

func (m Model) View() string {
	var s strings.Builder
	row := func(label, value string) {
		s.WriteString(m.styles.label.Render(label) + m.styles.value.Render(value) + "\n")
	}

	s.WriteString(m.styles.title.Render(strings.ToUpper(m.scene)) + "\n")
	s.WriteString(m.status() + "\n\n")
	if len(m.kinetic) > 1 {
		chart := asciigraph.Plot(m.kinetic, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic"))
		s.WriteString(m.styles.graph.Render(chart) + "\n\n")
	}

	if f := m.shown(); f != nil {
		row("Tick", fmt.Sprintf("%d", f.Tick))
		row("Particles", fmt.Sprintf("%d", len(f.Particles)))
		row("Sticks", fmt.Sprintf("%d", len(f.Sticks)))
		row("Max delta", fmt.Sprintf("%.4f", f.MaxDelta))
	}
	row("Target", m.sim.Target().String())
	row("Cursor", fmt.Sprintf("(%.2f, %.2f)", m.cursor.X(), m.cursor.Y()))
	row("Strain", Sparkline(m.strain, 20))
	if info, ok := m.sim.PointInfo(); ok {
		row("Point", fmt.Sprintf("#%d |v| %.4f", info.ID, info.Velocity.Len()))
	}
	if m.sound != nil && m.sound.Active() {
		row("Tone", fmt.Sprintf("%.0f Hz", m.sound.Brightness()))
	}
	if m.playHead >= 0 {
		row("Replay", ProgressBar(float64(m.playHead+1)/float64(len(m.history)), 20))
	}
	if m.recording {
		row("Recording", fmt.Sprintf("%d frames", len(m.frames)))
	}
	if m.lastErr != nil {
		s.WriteString(m.styles.err.Render(m.lastErr.Error()) + "\n")
	}
	s.WriteString(m.styles.help.Render("space pause  enter apply  ? help  q quit"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, m.styles.canvas.Render(m.canvas.String()), statsPanel.Render(s.String()))
	if m.showHelp {
		return m.styles.help.Render(helpText) + "\n\n" + main
	}
	return main
}

// themeRGB parses a "#rrggbb" theme colour.
func themeRGB(c lipgloss.Color) color.RGBA {
	var r, g, b uint8
	if _, err := fmt.Sscanf(string(c), "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{255, 255, 255, 255}
	}
	return color.RGBA{r, g, b, 255}
}

// captureFrame rasterizes the canvas dots into a GIF frame.
func (m *Model) captureFrame() {
	sw, sh := m.canvas.Dots()
	palette := color.Palette{color.Black, themeRGB(m.theme.Canvas)}
	img := image.NewPaletted(image.Rect(0, 0, sw*gifDotScale, sh*gifDotScale), palette)
	for y := 0; y < sh; y++ {
		for x := 0; x < sw; x++ {
			if !m.canvas.IsSet(x, y) {
				continue
			}
			for py := 0; py < gifDotScale; py++ {
				for px := 0; px < gifDotScale; px++ {
					img.SetColorIndex(x*gifDotScale+px, y*gifDotScale+py, 1)
				}
			}
		}
	}
	m.frames = append(m.frames, img)
}

func (m *Model) stopRecording() {
	m.recording = false
	if err := SaveGIF(m.gifPath, m.frames); err != nil {
		m.logger.Error("gif not saved", "path", m.gifPath, "err", err)
		m.lastErr, m.errTicks = err, errorTicks
		return
	}
	m.logger.Info("gif saved", "path", m.gifPath, "frames", len(m.frames))
	m.frames = nil
}

// SaveGIF writes frames as a looping animation at 50 fps.
func SaveGIF(path string, frames []*image.Paletted) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames recorded")
	}
	anim := gif.GIF{LoopCount: 0}
	for _, fr := range frames {
		anim.Image = append(anim.Image, fr)
		anim.Delay = append(anim.Delay, 2)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(f, &anim); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Run blocks until the live view quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
