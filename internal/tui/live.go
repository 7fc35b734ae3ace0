// Package tui prints frames to a plain terminal as they are published,
// for headless runs that still want to watch.
package tui

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/sim"
	"github.com/san-kum/verlet/internal/spawn"
	"github.com/san-kum/verlet/internal/viz"
)

const (
	width       = 70
	height      = 20
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

var headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)

// LiveRenderer draws each changed frame as characters, front view only.
// Unchanged frames are skipped.
type LiveRenderer struct {
	out       io.Writer
	scene     string
	frameRate int
	lastFrame time.Time
	halfX     float64
	top       float64
	cache     *spawn.ResourceCache
	canvas    [][]rune
	colors    [][]dynamo.Handle
}

// NewLiveRenderer frames a world halfX wide each side of the origin and top
// high. A frameRate of zero draws every changed frame.
func NewLiveRenderer(out io.Writer, scene string, frameRate int, halfX, top float64, cache *spawn.ResourceCache) *LiveRenderer {
	r := &LiveRenderer{
		out:       out,
		scene:     scene,
		frameRate: frameRate,
		halfX:     halfX,
		top:       top,
		cache:     cache,
		canvas:    make([][]rune, height),
		colors:    make([][]dynamo.Handle, height),
	}
	for i := range r.canvas {
		r.canvas[i] = make([]rune, width)
		r.colors[i] = make([]dynamo.Handle, width)
	}
	return r
}

func (r *LiveRenderer) OnTick(f *sim.Frame) {
	if !f.Changed {
		return
	}
	if r.frameRate > 0 {
		if time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
			return
		}
		r.lastFrame = time.Now()
	}
	r.clear()
	r.draw(f)
	r.render(f)
}

func (r *LiveRenderer) clear() {
	for y := range r.canvas {
		for x := range r.canvas[y] {
			r.canvas[y][x] = ' '
			r.colors[y][x] = 0
		}
	}
}

// cell maps world x, y to a character cell.
func (r *LiveRenderer) cell(x, y float64) (int, int) {
	cx := int(math.Round((x + r.halfX) / (2 * r.halfX) * float64(width-1)))
	cy := int(math.Round((1 - y/r.top) * float64(height-1)))
	return cx, cy
}

func (r *LiveRenderer) set(x, y int, c rune, mat dynamo.Handle) {
	if x >= 0 && x < width && y >= 0 && y < height {
		r.canvas[y][x] = c
		r.colors[y][x] = mat
	}
}

// stroke picks a character for a segment by its slope on screen.
func stroke(dx, dy int) rune {
	switch {
	case dy == 0 || abs(dx) > 2*abs(dy):
		return '-'
	case dx == 0 || abs(dy) > 2*abs(dx):
		return '|'
	case (dx > 0) == (dy > 0):
		return '\\'
	default:
		return '/'
	}
}

func (r *LiveRenderer) line(x1, y1, x2, y2 int, mat dynamo.Handle) {
	c := stroke(x2-x1, y2-y1)
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		r.set(x1, y1, c, mat)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func (r *LiveRenderer) draw(f *sim.Frame) {
	pos := make(map[dynamo.ParticleID][2]int, len(f.Particles))
	for _, p := range f.Particles {
		x, y := r.cell(p.Position.X(), p.Position.Y())
		pos[p.ID] = [2]int{x, y}
	}
	for _, st := range f.Sticks {
		a, b := pos[st.P1], pos[st.P2]
		r.line(a[0], a[1], b[0], b[1], st.Material)
	}
	for _, p := range f.Particles {
		xy := pos[p.ID]
		c := 'o'
		if p.Locked {
			c = '#'
		}
		r.set(xy[0], xy[1], c, p.Material)
	}
}

// paint colours a cell by its material when the cache knows it.
func (r *LiveRenderer) paint(c rune, mat dynamo.Handle) string {
	if r.cache == nil || mat == 0 || c == ' ' {
		return string(c)
	}
	m, ok := r.cache.LookupMaterial(mat)
	if !ok {
		return string(c)
	}
	return lipgloss.NewStyle().Foreground(viz.MaterialColor(m)).Render(string(c))
}

func (r *LiveRenderer) render(f *sim.Frame) {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString("  " + headerStyle.Render(r.scene) + fmt.Sprintf("  tick %d  %s\n", f.Tick, f.State))
	b.WriteString("  " + strings.Repeat("-", width) + "\n")
	for y, row := range r.canvas {
		b.WriteString("  ")
		for x, c := range row {
			b.WriteString(r.paint(c, r.colors[y][x]))
		}
		b.WriteString("\n")
	}
	b.WriteString("  " + strings.Repeat("=", width) + "\n")
	b.WriteString(fmt.Sprintf("  particles=%d sticks=%d max_delta=%.4f\n", len(f.Particles), len(f.Sticks), f.MaxDelta))
	fmt.Fprint(r.out, b.String())
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
