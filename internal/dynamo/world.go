package dynamo

import (
	"fmt"
	"slices"
)

// World owns every particle and stick. Iteration order follows ascending ID
// so that a fixed seed reproduces a run exactly.
type World struct {
	particles map[ParticleID]*Particle
	sticks    map[StickID]*Stick
	pOrder    []ParticleID
	sOrder    []StickID
	nextP     ParticleID
	nextS     StickID
}

func NewWorld() *World {
	return &World{
		particles: make(map[ParticleID]*Particle),
		sticks:    make(map[StickID]*Stick),
		nextP:     1,
		nextS:     1,
	}
}

// AddParticle stores p under a fresh ID and returns it. Any ID on p is ignored.
func (w *World) AddParticle(p Particle) ParticleID {
	p.ID = w.nextP
	w.nextP++
	w.particles[p.ID] = &p
	w.pOrder = append(w.pOrder, p.ID)
	return p.ID
}

// AddStick links two existing particles.
func (w *World) AddStick(s Stick) (StickID, error) {
	if _, ok := w.particles[s.P1]; !ok {
		return 0, fmt.Errorf("stick endpoint %d: %w", s.P1, ErrUnknownParticle)
	}
	if _, ok := w.particles[s.P2]; !ok {
		return 0, fmt.Errorf("stick endpoint %d: %w", s.P2, ErrUnknownParticle)
	}
	s.ID = w.nextS
	w.nextS++
	w.sticks[s.ID] = &s
	w.sOrder = append(w.sOrder, s.ID)
	return s.ID, nil
}

// RemoveParticle deletes a particle and every stick that touches it.
func (w *World) RemoveParticle(id ParticleID) bool {
	if _, ok := w.particles[id]; !ok {
		return false
	}
	for _, sid := range w.StickIDs() {
		if w.sticks[sid].Touches(id) {
			w.RemoveStick(sid)
		}
	}
	delete(w.particles, id)
	if i, ok := slices.BinarySearch(w.pOrder, id); ok {
		w.pOrder = slices.Delete(w.pOrder, i, i+1)
	}
	return true
}

func (w *World) RemoveStick(id StickID) bool {
	if _, ok := w.sticks[id]; !ok {
		return false
	}
	delete(w.sticks, id)
	if i, ok := slices.BinarySearch(w.sOrder, id); ok {
		w.sOrder = slices.Delete(w.sOrder, i, i+1)
	}
	return true
}

func (w *World) Particle(id ParticleID) (*Particle, bool) {
	p, ok := w.particles[id]
	return p, ok
}

func (w *World) Stick(id StickID) (*Stick, bool) {
	s, ok := w.sticks[id]
	return s, ok
}

// Particles returns the live particles in ID order. The pointers stay owned
// by the world.
func (w *World) Particles() []*Particle {
	out := make([]*Particle, len(w.pOrder))
	for i, id := range w.pOrder {
		out[i] = w.particles[id]
	}
	return out
}

func (w *World) Sticks() []*Stick {
	out := make([]*Stick, len(w.sOrder))
	for i, id := range w.sOrder {
		out[i] = w.sticks[id]
	}
	return out
}

func (w *World) ParticleIDs() []ParticleID { return slices.Clone(w.pOrder) }

func (w *World) StickIDs() []StickID { return slices.Clone(w.sOrder) }

// Clear despawns everything. IDs keep increasing so stale references never
// alias a new particle.
func (w *World) Clear() {
	clear(w.particles)
	clear(w.sticks)
	w.pOrder = w.pOrder[:0]
	w.sOrder = w.sOrder[:0]
}

// Len returns the particle and stick counts.
func (w *World) Len() (particles, sticks int) {
	return len(w.pOrder), len(w.sOrder)
}
