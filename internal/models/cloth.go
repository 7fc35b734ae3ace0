package models

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/spawn"
)

// Cloth is a grid spanning the visible world. The spawn position is
// ignored; the grid is laid out from the current bounds.
type Cloth struct {
	Gap         float64
	TopMargin   float64
	FloorOffset float64
	PinTop      bool
}

func NewCloth() *Cloth {
	return &Cloth{
		Gap:         0.1,
		TopMargin:   0.075,
		FloorOffset: 0.25,
	}
}

func (c *Cloth) Name() string { return "cloth" }

// Grid returns the column and row counts for the given settings.
func (c *Cloth) Grid(s dynamo.Settings) (cols, rows int) {
	cols = int(math.Floor(s.Bounds.X.Extent / c.Gap))
	rows = int(math.Floor((s.Bounds.Y.Extent - c.FloorOffset - c.TopMargin) / c.Gap))
	return cols, rows
}

func (c *Cloth) Request(_ mgl64.Vec3, s dynamo.Settings) spawn.Request {
	cols, rows := c.Grid(s)
	if cols <= 0 || rows <= 0 {
		return spawn.Request{}
	}
	width := s.Bounds.X.Extent

	x0 := (width-c.Gap*float64(cols))/2 - width/2 + c.Gap/2
	y0 := c.Gap*float64(rows) + c.FloorOffset - c.TopMargin

	positions := make([]mgl64.Vec3, 0, cols*rows)
	var edges [][2]int
	for r := 0; r < rows; r++ {
		for col := 0; col < cols; col++ {
			i := r*cols + col
			positions = append(positions, mgl64.Vec3{x0 + float64(col)*c.Gap, y0 - float64(r)*c.Gap, 0})
			if col > 0 {
				edges = append(edges, [2]int{i - 1, i})
			}
			if r > 0 {
				edges = append(edges, [2]int{i - cols, i})
			}
		}
	}

	req := fromEdges(positions, edges, s)
	if c.PinTop {
		for col := 0; col < cols; col += 2 {
			lock(&req, col)
		}
	}
	return req
}
