package gui

import (
	"fmt"
	"io"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/verlet/internal/audio"
	"github.com/san-kum/verlet/internal/config"
	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/interact"
	"github.com/san-kum/verlet/internal/metrics"
	"github.com/san-kum/verlet/internal/sim"
)

// Theme Colors (Monochrome)
var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColGrid    = rl.NewColor(30, 30, 30, 255)
)

const (
	windowWidth  = 1280
	windowHeight = 720
	telemetryLen = 200
)

// targetKeys choose what a left click does.
var targetKeys = []struct {
	key    int32
	target interact.Target
}{
	{rl.KeyOne, interact.Point},
	{rl.KeyTwo, interact.SpawnRope},
	{rl.KeyThree, interact.SpawnSquare},
	{rl.KeyFour, interact.SpawnCloth},
	{rl.KeyFive, interact.SpawnCube},
	{rl.KeyL, interact.Line},
	{rl.KeyK, interact.Lock},
	{rl.KeyC, interact.Cut},
	{rl.KeyD, interact.Delete},
	{rl.KeyI, interact.PointInfo},
	{rl.KeyZero, interact.None},
}

type App struct {
	Sim       *sim.Simulator
	Scene     string
	Dt        float64
	Camera    rl.Camera3D
	InMenu    bool
	Scenes    []string
	Selected  int
	Telemetry []float64
	Logger    *log.Logger
	Audio     *audio.Sonifier

	lastMouse rl.Vector2
	lastErr   error
}

func initWindow() {
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(windowWidth, windowHeight, "verlet")
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

// NewApp opens on the scene menu, or straight into s when it is not nil.
func NewApp(s *sim.Simulator, scene string, dt float64, logger *log.Logger) *App {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	a := &App{
		Scenes:    config.ListPresets(),
		Telemetry: make([]float64, 0, telemetryLen),
		Logger:    logger,
		InMenu:    s == nil,
	}
	a.Audio = audio.NewSonifier(logger)
	if err := a.Audio.Start(); err != nil {
		logger.Warn("audio unavailable", "err", err)
	}
	if s != nil {
		a.attach(s, scene, dt)
	}
	return a
}

// Run blocks until the window is closed.
func Run(s *sim.Simulator, scene string, dt float64, logger *log.Logger) {
	initWindow()
	defer rl.CloseWindow()
	app := NewApp(s, scene, dt, logger)
	defer app.Audio.Stop()
	app.RunLoop()
}

// RunInteractive starts on the scene menu.
func RunInteractive(logger *log.Logger) {
	Run(nil, "", config.DefaultDt, logger)
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() {
		if !a.Update() {
			return
		}
		a.Draw()
	}
}

func (a *App) attach(s *sim.Simulator, scene string, dt float64) {
	a.Sim, a.Scene, a.Dt = s, scene, dt
	h := s.Settings().Bounds.Y.Half()
	a.Camera = rl.NewCamera3D(
		rl.NewVector3(0, float32(h), dynamo.CameraDistance),
		rl.NewVector3(0, float32(h), 0),
		rl.NewVector3(0, 1, 0),
		float32(mgl64.RadToDeg(dynamo.CameraFOV)),
		rl.CameraPerspective,
	)
	s.Resize(float64(rl.GetScreenWidth()), float64(rl.GetScreenHeight()))
	a.Telemetry = a.Telemetry[:0]
	a.InMenu = false
}

func (a *App) load(name string) {
	cfg := config.GetPreset(name)
	s, err := cfg.Simulator(a.Logger)
	if err != nil {
		a.lastErr = err
		return
	}
	a.Logger.Info("scene started", "scene", name)
	a.attach(s, name, cfg.Dt)
}

// Update handles input and ticks the simulator. It returns false to quit.
func (a *App) Update() bool {
	if rl.IsKeyPressed(rl.KeyQ) {
		return false
	}

	if a.InMenu {
		if rl.IsKeyPressed(rl.KeyDown) || rl.IsKeyPressed(rl.KeyJ) {
			a.Selected = (a.Selected + 1) % len(a.Scenes)
		}
		if rl.IsKeyPressed(rl.KeyUp) || rl.IsKeyPressed(rl.KeyK) {
			a.Selected = (a.Selected + len(a.Scenes) - 1) % len(a.Scenes)
		}
		if rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeySpace) {
			a.load(a.Scenes[a.Selected])
		}
		return true
	}

	if rl.IsKeyPressed(rl.KeyEscape) {
		a.InMenu = true
		return true
	}
	if rl.IsWindowResized() {
		a.Sim.Resize(float64(rl.GetScreenWidth()), float64(rl.GetScreenHeight()))
	}
	for _, tk := range targetKeys {
		if rl.IsKeyPressed(tk.key) {
			a.Sim.SubmitTarget(tk.target)
		}
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		if a.Sim.PlayState() == sim.Running {
			a.Sim.SubmitPlayState(sim.Pause)
		} else {
			a.Sim.SubmitTarget(interact.None)
			a.Sim.SubmitPlayState(sim.Play)
		}
	}
	if rl.IsKeyPressed(rl.KeyR) {
		a.Sim.SubmitPlayState(sim.Reset)
		a.Telemetry = a.Telemetry[:0]
	}
	a.pointer()

	if _, err := a.Sim.Tick(a.Dt); err != nil {
		a.lastErr = err
	}
	w := a.Sim.World()
	ke := metrics.Kinetic(w)
	a.Telemetry = append(a.Telemetry, ke)
	if len(a.Telemetry) > telemetryLen {
		a.Telemetry = a.Telemetry[1:]
	}
	a.Audio.Update(ke, metrics.Strain(w))
	return true
}

// pointer turns mouse input into pointer events along the mouse ray.
func (a *App) pointer() {
	mouse := rl.GetMousePosition()
	ray := toRay(rl.GetMouseRay(mouse, a.Camera))
	switch {
	case rl.IsMouseButtonPressed(rl.MouseLeftButton):
		a.Sim.SubmitEvent(interact.Event{Kind: interact.Press, Ray: &ray})
	case rl.IsMouseButtonReleased(rl.MouseLeftButton):
		a.Sim.SubmitEvent(interact.Event{Kind: interact.Release, Ray: &ray})
	case rl.IsMouseButtonDown(rl.MouseLeftButton) && mouse != a.lastMouse:
		a.Sim.SubmitEvent(interact.Event{Kind: interact.Move, Ray: &ray})
	}
	a.lastMouse = mouse
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)
	if a.InMenu {
		a.drawMenu()
	} else {
		a.drawSim()
		a.DrawHUD()
	}
	rl.EndDrawing()
}

func (a *App) DrawHUD() {
	a.drawText("verlet", 30, 30, 24, ColSelect)
	a.drawText(fmt.Sprintf(":: %s", a.Scene), 120, 34, 16, ColText)

	a.DrawTelemetry()

	status, col := "RUNNING", ColSelect
	if a.Sim.PlayState() == sim.Paused {
		status, col = "PAUSED", ColTextDim
	}
	a.drawText(status, int(rl.GetScreenWidth())-130, 30, 16, col)
	a.drawText("target "+a.Sim.Target().String(), int(rl.GetScreenWidth())-220, 52, 14, ColText)

	if f := a.Sim.Last(); f != nil {
		a.drawText(fmt.Sprintf("tick %d  particles %d  sticks %d", f.Tick, len(f.Particles), len(f.Sticks)), 30, 60, 14, ColText)
	}
	if info, ok := a.Sim.PointInfo(); ok {
		a.drawText(fmt.Sprintf("#%d at (%.2f, %.2f, %.2f) |v| %.4f", info.ID,
			info.Position.X(), info.Position.Y(), info.Position.Z(), info.Velocity.Len()), 30, 80, 14, ColAccent)
	}
	if a.lastErr != nil {
		a.drawText(a.lastErr.Error(), 30, 100, 14, rl.Red)
	}

	bottom := int(rl.GetScreenHeight()) - 40
	a.drawText("[1-5] SPAWN [L] LINE [K] LOCK [C] CUT [D] DELETE [I] INFO [0] NONE  [SPACE] PAUSE [R] RESET [ESC] MENU [Q] QUIT", 30, bottom, 14, ColTextDim)
	if a.Audio.Active() {
		a.drawText(fmt.Sprintf("TONE %.0f Hz", a.Audio.Brightness()), 30, bottom-30, 14, ColAccent)
	} else {
		a.drawText("AUDIO [OFF]", 30, bottom-30, 14, ColTextDim)
	}
}

func (a *App) drawText(text string, x, y int, size int, color rl.Color) {
	rl.DrawText(text, int32(x), int32(y), int32(size), color)
}

func (a *App) DrawTelemetry() {
	if len(a.Telemetry) < 2 {
		return
	}
	rectX, rectY := 30, int(rl.GetScreenHeight())-160
	width, height := 400, 60
	points := telemetryStrip(a.Telemetry, float32(rectX), float32(rectY), float32(width), float32(height))
	rl.DrawLineStrip(points, ColAccent)
	a.drawText(fmt.Sprintf("KE: %.2e", a.Telemetry[len(a.Telemetry)-1]), rectX+width+10, rectY+height-10, 14, ColText)
}

// telemetryStrip scales values into a box, min at the bottom.
func telemetryStrip(values []float64, x, y, w, h float32) []rl.Vector2 {
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	points := make([]rl.Vector2, len(values))
	for i, v := range values {
		px := x + float32(i)/float32(len(values))*w
		py := y + h - float32((v-lo)/(hi-lo))*h
		points[i] = rl.NewVector2(px, py)
	}
	return points
}

func (a *App) drawMenu() {
	a.drawText("verlet", 50, 50, 40, ColSelect)
	a.drawText("Select Scene", 50, 100, 16, ColTextDim)
	y := 160
	for i, name := range a.Scenes {
		if i == a.Selected {
			a.drawText("> "+name, 50, y, 20, ColSelect)
		} else {
			a.drawText("  "+name, 50, y, 20, ColText)
		}
		y += 28
	}
	if a.lastErr != nil {
		a.drawText(a.lastErr.Error(), 50, y+20, 14, rl.Red)
	}
	a.drawText("ARROWS: NAVIGATE  ENTER: SELECT  Q: QUIT", 50, int(rl.GetScreenHeight())-40, 14, ColTextDim)
}
