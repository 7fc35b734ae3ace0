package models

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/spawn"
)

// Cube is eight corners, twelve edges and one diagonal per face. The cube
// sits behind the spawn point so its front face lies on z=0.
type Cube struct {
	HalfSize float64
}

func NewCube() *Cube { return &Cube{HalfSize: 0.225} }

func (c *Cube) Name() string { return "cube" }

var cubeCorners = [8][3]float64{
	{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
	{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
}

var cubeEdges = [][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
	// face diagonals
	{1, 3}, {5, 7}, {3, 4}, {2, 5}, {1, 4}, {2, 7},
}

func (c *Cube) Request(at mgl64.Vec3, s dynamo.Settings) spawn.Request {
	h := c.HalfSize
	positions := make([]mgl64.Vec3, len(cubeCorners))
	for i, o := range cubeCorners {
		positions[i] = at.Add(mgl64.Vec3{o[0] * h, o[1] * h, o[2]*h - h})
	}
	return fromEdges(positions, cubeEdges, s)
}
