package models

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/spawn"
)

// Rope is a chain rooted at a locked particle. Links leave the root at
// DropAngle degrees from vertical, toward -x.
type Rope struct {
	Length     float64
	LinkLength float64
	DropAngle  float64
}

func NewRope() *Rope {
	return &Rope{
		Length:     1.5,
		LinkLength: 0.025,
		DropAngle:  35,
	}
}

func (r *Rope) Name() string { return "rope" }

// Links is the number of sticks in the chain.
func (r *Rope) Links() int {
	return int(math.Floor(r.Length/r.LinkLength + 1e-9))
}

func (r *Rope) Request(at mgl64.Vec3, s dynamo.Settings) spawn.Request {
	n := r.Links()
	theta := mgl64.DegToRad(r.DropAngle)
	step := mgl64.Vec3{-r.LinkLength * math.Sin(theta), r.LinkLength * math.Cos(theta), 0}
	half := s.Bounds.X.Half()

	positions := make([]mgl64.Vec3, 0, n+1)
	positions = append(positions, at)
	edges := make([][2]int, 0, n)
	for i := 0; i < n; i++ {
		next := positions[i].Add(step)
		if s.Bounds.X.Enabled {
			// Fold the overshoot into height so the link keeps its length budget.
			if next[0] <= -half {
				cx := -half + 0.001
				next[1] += cx - next[0]
				next[0] = cx
			} else if next[0] >= half {
				cx := half - 0.001
				next[1] += next[0] - cx
				next[0] = cx
			}
		}
		positions = append(positions, next)
		edges = append(edges, [2]int{i, i + 1})
	}

	req := fromEdges(positions, edges, s)
	lock(&req, 0)
	return req
}
