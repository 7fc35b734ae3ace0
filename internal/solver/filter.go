package solver

import (
	"github.com/san-kum/verlet/internal/dynamo"
)

const filterChunk = 256

// Filter damps the discrete jerk of every unlocked particle and records the
// positions that will be rendered. The damped position is written back to
// the simulation. A JerkDamping of zero leaves positions untouched.
func Filter(particles []*dynamo.Particle, s *dynamo.Settings) {
	k := s.JerkDamping
	dynamo.ParallelFor(len(particles), filterChunk, func(start, end int) {
		for _, p := range particles[start:end] {
			if !p.Locked && k != 0 {
				d2 := p.Position.Sub(p.PrevPosition.Mul(2)).Add(p.PrevRenderedPosition)
				p.Position = p.Position.Sub(d2.Mul(k))
			}
			p.PrevRenderedPosition = p.RenderedPosition
			p.RenderedPosition = p.Position
		}
	})
}
