package integrators

import (
	"math/rand"

	"github.com/san-kum/verlet/internal/dynamo"
)

// Verlet advances particles with position Verlet: velocity is the distance
// travelled during the previous tick.
type Verlet struct {
	particles []*dynamo.Particle
}

func NewVerlet() *Verlet {
	return &Verlet{}
}

// Step integrates every particle in w once and returns the largest
// displacement of the pass. Locked particles only re-sync PrevPosition.
func (v *Verlet) Step(w *dynamo.World, s *dynamo.Settings, dt float64, rng *rand.Rand) float64 {
	v.particles = append(v.particles[:0], w.Particles()...)
	if rng != nil {
		rng.Shuffle(len(v.particles), func(i, j int) {
			v.particles[i], v.particles[j] = v.particles[j], v.particles[i]
		})
	}

	accScale := dt * s.SubstepFraction
	var maxDelta float64
	for _, p := range v.particles {
		if p.Locked {
			p.PrevPosition = p.Position
			continue
		}

		raw := p.Position.Sub(p.PrevPosition)
		vel := raw.Mul(s.AirResistance)
		if p.Position.Y() <= s.FloorEpsilon {
			vel[0] = raw[0] * s.FrictionRestitution
			vel[2] = raw[2] * s.FrictionRestitution
		}

		acc := s.Gravity.Add(p.ExternalForce)
		next := p.Position.Add(vel).Add(acc.Mul(accScale))

		if d := next.Sub(p.Position).Len(); d > maxDelta {
			maxDelta = d
		}
		p.PrevPosition = p.Position
		p.Position = next
	}
	return maxDelta
}
