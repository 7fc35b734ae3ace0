package models

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/spawn"
)

// Point is a single free particle.
type Point struct {
	Locked bool
}

func NewPoint() *Point { return &Point{} }

func (p *Point) Name() string { return "point" }

func (p *Point) Request(at mgl64.Vec3, s dynamo.Settings) spawn.Request {
	req := fromEdges([]mgl64.Vec3{at}, nil, s)
	if p.Locked {
		lock(&req, 0)
	}
	return req
}
