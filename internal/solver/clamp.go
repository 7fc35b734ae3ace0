package solver

import (
	"math/rand"

	"github.com/san-kum/verlet/internal/dynamo"
)

// ClampBounds pushes unlocked particles back inside the enabled bounds.
// The crossed axis keeps CoeffRestitution of its velocity, reversed.
// Locked particles only re-sync PrevPosition.
func ClampBounds(particles []*dynamo.Particle, s *dynamo.Settings, rng *rand.Rand) float64 {
	if rng != nil {
		rng.Shuffle(len(particles), func(i, j int) {
			particles[i], particles[j] = particles[j], particles[i]
		})
	}

	halfX := s.Bounds.X.Half()
	halfZ := s.Bounds.Z.Half()
	e := s.CoeffRestitution

	var maxDelta float64
	for _, p := range particles {
		if p.Locked {
			p.PrevPosition = p.Position
			continue
		}
		before := p.Position
		vel := p.Velocity()

		if s.Bounds.Y.Enabled && p.Position[1] <= 0 {
			p.Position[1] = 0
			p.PrevPosition[1] = vel[1] * e
		}

		if s.Bounds.X.Enabled {
			if p.Position[0] <= -halfX {
				p.Position[0] = -halfX
				p.PrevPosition[0] = p.Position[0] + vel[0]*e
			} else if p.Position[0] >= halfX {
				p.Position[0] = halfX
				p.PrevPosition[0] = p.Position[0] + vel[0]*e
			}
		}

		if s.Bounds.Z.Enabled {
			if p.Position[2] <= -halfZ {
				p.Position[2] = -halfZ
				p.PrevPosition[2] = p.Position[2] + vel[2]*e
			} else if p.Position[2] > halfZ {
				p.Position[2] = halfZ
				p.PrevPosition[2] = p.Position[2] + vel[2]*e
			}
		}

		if d := p.Position.Sub(before).Len(); d > maxDelta {
			maxDelta = d
		}
	}
	return maxDelta
}
