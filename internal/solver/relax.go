package solver

import (
	"math/rand"

	"github.com/san-kum/verlet/internal/dynamo"
)

// minStickLength guards the projection against coincident endpoints.
const minStickLength = 1e-12

// RelaxSticks performs one Gauss-Seidel sweep over every stick. A free
// endpoint opposite a locked one absorbs the whole correction. Sticks with
// coincident endpoints have no direction and are left alone.
func RelaxSticks(w *dynamo.World, sticks []*dynamo.Stick) float64 {
	var maxDelta float64
	for _, st := range sticks {
		p1, ok1 := w.Particle(st.P1)
		p2, ok2 := w.Particle(st.P2)
		if !ok1 || !ok2 {
			continue
		}
		if p1.Locked && p2.Locked {
			continue
		}

		delta := p2.Position.Sub(p1.Position)
		length := delta.Len()
		if length < minStickLength {
			continue
		}
		offset := delta.Mul((length - st.RestLength) / length / 2)

		var d1, d2 float64
		switch {
		case p1.Locked:
			p2.Position = p2.Position.Sub(offset.Mul(2))
			d2 = 2 * offset.Len()
		case p2.Locked:
			p1.Position = p1.Position.Add(offset.Mul(2))
			d1 = 2 * offset.Len()
		default:
			p1.Position = p1.Position.Add(offset)
			p2.Position = p2.Position.Sub(offset)
			d1 = offset.Len()
			d2 = d1
		}

		if d1 > maxDelta {
			maxDelta = d1
		}
		if d2 > maxDelta {
			maxDelta = d2
		}
	}
	return maxDelta
}

// Converge runs the clamp and relaxation passes for every substep of a tick.
type Converge struct {
	particles []*dynamo.Particle
	sticks    []*dynamo.Stick
}

func NewConverge() *Converge {
	return &Converge{}
}

func (c *Converge) Step(w *dynamo.World, s *dynamo.Settings, frame *dynamo.FrameComparison, rng *rand.Rand) {
	c.particles = append(c.particles[:0], w.Particles()...)
	c.sticks = append(c.sticks[:0], w.Sticks()...)

	for i := 0; i < s.ConvergeIterations; i++ {
		d := ClampBounds(c.particles, s, rng)
		frame.ObserveSubstep(d, s.MinRenderDelta)

		d = RelaxSticks(w, c.sticks)
		frame.ObserveSubstep(d, s.MinRenderDelta)
	}
}
