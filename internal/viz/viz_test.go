package viz

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/interact"
	"github.com/san-kum/verlet/internal/sim"
	"github.com/san-kum/verlet/internal/spawn"
)

func TestCanvasDots(t *testing.T) {
	c := NewCanvas(4, 2)
	if w, h := c.Dots(); w != 8 || h != 8 {
		t.Fatalf("expected 8x8 dots, got %dx%d", w, h)
	}
	c.Set(3, 5)
	if !c.IsSet(3, 5) || c.IsSet(2, 5) {
		t.Fatal("set dot not isolated")
	}
	c.Set(100, 100)
	c.Unset(3, 5)
	if c.IsSet(3, 5) {
		t.Fatal("unset dot still on")
	}
	if got := strings.Count(c.String(), "\n"); got != 2 {
		t.Errorf("expected 2 rows, got %d", got)
	}
}

func TestDrawLineEndpoints(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawLine(1, 2, 17, 15)
	if !c.IsSet(1, 2) || !c.IsSet(17, 15) {
		t.Fatal("line endpoints not drawn")
	}
	c.Clear()
	if c.IsSet(1, 2) {
		t.Fatal("clear left dots on")
	}
}

func TestCameraRoundTrip(t *testing.T) {
	h := dynamo.HalfCameraHeight
	cam := NewCamera(mgl64.Vec3{0, h, 0}, dynamo.CameraDistance, h)
	sw, sh := 160, 96

	x, y, depth, ok := cam.Project(mgl64.Vec3{0, h, 0}, sw, sh)
	if !ok || x != sw/2 || y != sh/2 || depth != dynamo.CameraDistance {
		t.Fatalf("centre projected to (%d, %d) depth %v", x, y, depth)
	}
	if _, y, _, _ := cam.Project(mgl64.Vec3{0, 0, 0}, sw, sh); y != sh {
		t.Errorf("floor should sit on the bottom edge, got y=%d", y)
	}

	p := mgl64.Vec3{0.5, 1.2, 0}
	x, y, _, _ = cam.Project(p, sw, sh)
	back := cam.Unproject(x, y, sw, sh)
	if back.Sub(p).Len() > 2*h/float64(sh) {
		t.Errorf("unproject drifted: %v -> %v", p, back)
	}
}

func TestCameraNearPlane(t *testing.T) {
	cam := NewCamera(mgl64.Vec3{}, 4, 1)
	if _, _, _, ok := cam.Project(mgl64.Vec3{0, 0, 5}, 100, 100); ok {
		t.Fatal("point behind the camera reported visible")
	}
}

func TestRenderFrame(t *testing.T) {
	h := dynamo.HalfCameraHeight
	cam := NewCamera(mgl64.Vec3{0, h, 0}, dynamo.CameraDistance, h)
	cv := NewCanvas(80, 24)
	f := &sim.Frame{
		Particles: []sim.ParticleView{
			{ID: 1, Position: mgl64.Vec3{-1, h, 0}},
			{ID: 2, Position: mgl64.Vec3{1, h, 0}, Locked: true},
		},
		Sticks: []sim.StickView{{ID: 1, P1: 1, P2: 2, Midpoint: mgl64.Vec3{0, h, 0}}},
	}
	RenderFrame(cv, f, cam)

	sw, sh := cv.Dots()
	mid, _, _, _ := cam.Project(mgl64.Vec3{0, h, 0}, sw, sh)
	if !cv.IsSet(mid, sh/2) {
		t.Error("stick not drawn through its midpoint")
	}
	x, y, _, _ := cam.Project(mgl64.Vec3{1, h, 0}, sw, sh)
	if !cv.IsSet(x, y-2) {
		t.Error("locked particle not marked with a cross")
	}
	RenderFrame(cv, nil, cam)
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 1}, 4); got != "▁█" {
		t.Errorf("got %q", got)
	}
	if got := Sparkline(nil, 3); got != "───" {
		t.Errorf("got %q", got)
	}
	if got := len([]rune(Sparkline([]float64{1, 2, 3, 4, 5}, 3))); got != 3 {
		t.Errorf("expected 3 cells, got %d", got)
	}
}

func TestProgressBar(t *testing.T) {
	if got := ProgressBar(0.5, 4); got != "██░░" {
		t.Errorf("got %q", got)
	}
	if got := ProgressBar(2, 3); got != "███" {
		t.Errorf("overfull bar: %q", got)
	}
}

func TestMaterialColor(t *testing.T) {
	if got := MaterialColor(spawn.Red); got != "#ff0000" {
		t.Errorf("got %q", got)
	}
	if got := themeRGB(MaterialColor(spawn.White)); got.R != 255 || got.G != 255 || got.B != 255 {
		t.Errorf("got %v", got)
	}
}

func TestNextThemeCycles(t *testing.T) {
	th := ThemeChalk
	for range Themes {
		th = NextTheme(th)
	}
	if th.Name != ThemeChalk.Name {
		t.Errorf("expected to wrap to chalk, got %s", th.Name)
	}
	if GetTheme("missing").Name != ThemeChalk.Name {
		t.Error("unknown theme should fall back to chalk")
	}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	s, err := sim.New(sim.Options{Settings: dynamo.DefaultSettings()})
	if err != nil {
		t.Fatal(err)
	}
	return NewModel(s, 1.0/60, "test")
}

func send(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestModelSpawnsAtCursor(t *testing.T) {
	m := newTestModel(t)
	m = send(m, runes("1"), TickMsg{}, tea.KeyMsg{Type: tea.KeyEnter}, TickMsg{})

	if m.sim.PlayState() != sim.Paused {
		t.Fatal("selecting a target should pause")
	}
	ps := m.sim.World().Particles()
	if len(ps) != 1 {
		t.Fatalf("expected one particle, got %d", len(ps))
	}
	if ps[0].Position != m.cursor {
		t.Errorf("particle at %v, cursor at %v", ps[0].Position, m.cursor)
	}
	if !strings.Contains(m.View(), "PAUSED") {
		t.Error("view does not show the paused state")
	}
}

func TestModelTogglePlay(t *testing.T) {
	m := newTestModel(t)
	m = send(m, tea.KeyMsg{Type: tea.KeySpace}, TickMsg{})
	if m.sim.PlayState() != sim.Paused {
		t.Fatal("space should pause")
	}
	m = send(m, runes("c"), TickMsg{}, tea.KeyMsg{Type: tea.KeySpace}, TickMsg{})
	if m.sim.PlayState() != sim.Running || m.sim.Target() != interact.None {
		t.Fatalf("space should resume with no target, got %s %s", m.sim.PlayState(), m.sim.Target())
	}
}

func TestModelCursorStaysInBounds(t *testing.T) {
	m := newTestModel(t)
	for range 100 {
		m = send(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyLeft})
	}
	half := m.sim.Settings().Bounds.X.Half()
	if m.cursor.Y() != 0 || m.cursor.X() != -half {
		t.Errorf("cursor escaped to %v", m.cursor)
	}
}

func TestModelReplay(t *testing.T) {
	m := newTestModel(t)
	m.sim.SubmitSpawn(spawn.Request{Nodes: []spawn.Node{{Position: mgl64.Vec3{0, 1, 0}}}})
	for range 5 {
		m = send(m, TickMsg{})
	}
	n := len(m.history)
	if n == 0 {
		t.Fatal("no frames recorded")
	}
	m = send(m, runes("["))
	if m.playHead != n-2 || !m.replayPaused {
		t.Fatalf("expected paused replay at %d, got %d", n-2, m.playHead)
	}
	tick := m.sim.Last().Tick
	m = send(m, TickMsg{})
	if m.sim.Last().Tick != tick {
		t.Error("simulator advanced during replay")
	}
	m = send(m, runes("]"), runes("]"))
	if m.playHead != -1 {
		t.Errorf("expected live view, got head %d", m.playHead)
	}
}
