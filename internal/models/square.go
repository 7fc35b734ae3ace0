package models

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/spawn"
)

// Square is four corners braced by one diagonal.
type Square struct {
	HalfSize float64
}

func NewSquare() *Square { return &Square{HalfSize: 0.225} }

func (q *Square) Name() string { return "square" }

func (q *Square) Request(at mgl64.Vec3, s dynamo.Settings) spawn.Request {
	h := q.HalfSize
	positions := []mgl64.Vec3{
		at.Add(mgl64.Vec3{-h, -h, 0}),
		at.Add(mgl64.Vec3{h, -h, 0}),
		at.Add(mgl64.Vec3{h, h, 0}),
		at.Add(mgl64.Vec3{-h, h, 0}),
	}
	edges := [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}, {1, 3}}
	return fromEdges(positions, edges, s)
}
