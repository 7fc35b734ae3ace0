package interact

import (
	"fmt"
	"math"

	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/models"
	"github.com/san-kum/verlet/internal/spawn"
)

// Outcome reports what an event did to the world.
type Outcome struct {
	// Spawns are shapes to be built in this tick's spawn flush.
	Spawns []spawn.Request
	// Changed is set when topology or lock state was edited.
	Changed bool
}

// Editor applies pointer events to the world according to the current
// target. It is owned by the pipeline goroutine.
type Editor struct {
	cache    *spawn.ResourceCache
	target   Target
	lineA    dynamo.ParticleID
	lineB    dynamo.ParticleID
	selected dynamo.ParticleID
}

func NewEditor(cache *spawn.ResourceCache) *Editor {
	if cache == nil {
		cache = spawn.NewResourceCache()
	}
	return &Editor{cache: cache}
}

func (e *Editor) Target() Target { return e.target }

// SetTarget switches the target. It reports whether the simulation should
// pause, which is the case for every target except None. Selecting Line
// starts a fresh connection.
func (e *Editor) SetTarget(t Target) (pause bool) {
	if t == Line {
		e.lineA, e.lineB = 0, 0
	}
	e.target = t
	return t != None
}

// Selected returns the particle chosen for telemetry.
func (e *Editor) Selected() (dynamo.ParticleID, bool) {
	return e.selected, e.selected != 0
}

// Forget drops references to particles that no longer exist.
func (e *Editor) Forget(w *dynamo.World) {
	for _, id := range []*dynamo.ParticleID{&e.lineA, &e.lineB, &e.selected} {
		if *id == 0 {
			continue
		}
		if _, ok := w.Particle(*id); !ok {
			*id = 0
		}
	}
}

func (e *Editor) Apply(w *dynamo.World, s *dynamo.Settings, ev Event) (Outcome, error) {
	var out Outcome
	if ev.Ray == nil {
		return out, nil
	}
	ray := *ev.Ray

	switch ev.Kind {
	case Press:
		at, ok := ray.AtZ(0)
		if !ok {
			return out, nil
		}
		switch e.target {
		case Line:
			return e.connect(w, s, ray)
		case Lock:
			out.Changed = e.toggleLocks(w, s, ray)
		case Cut:
			e.target = Cutting
		case Delete:
			out.Changed = e.remove(w, s, ray)
		case PointInfo:
			e.selected = nearest(w, ray, s.InteractionRadius)
		default:
			name, ok := e.target.shape()
			if !ok {
				return out, nil
			}
			shape, err := models.Get(name)
			if err != nil {
				return out, err
			}
			out.Spawns = append(out.Spawns, shape.Request(at, *s))
		}
	case Move:
		if e.target == Cutting {
			out.Changed = cut(w, s, ray)
		}
	case Release:
		if e.target == Cutting {
			e.target = Cut
		}
	}
	return out, nil
}

func (e *Editor) connect(w *dynamo.World, s *dynamo.Settings, ray Ray) (Outcome, error) {
	var out Outcome
	for _, p := range w.Particles() {
		if !ray.Hits(p.Position, s.InteractionRadius) || p.ID == e.lineA || p.ID == e.lineB {
			continue
		}
		switch {
		case e.lineA == 0 && e.lineB == 0:
			e.lineA = p.ID
		case e.lineB == 0:
			e.lineB = p.ID
		case e.lineA == 0:
			e.lineA = p.ID
		default:
			return out, fmt.Errorf("connect particle %d: %w", p.ID, dynamo.ErrLineNotCleared)
		}
		if e.lineA == 0 || e.lineB == 0 {
			continue
		}

		a, okA := w.Particle(e.lineA)
		b, okB := w.Particle(e.lineB)
		if okA && okB {
			_, err := w.AddStick(dynamo.Stick{
				P1:         a.ID,
				P2:         b.ID,
				RestLength: b.Position.Sub(a.Position).Len(),
				Thickness:  s.StickSize,
				Mesh:       e.cache.Mesh(spawn.MeshCuboid),
				Material:   e.cache.Material(spawn.LineWhite),
			})
			if err != nil {
				return out, err
			}
			out.Changed = true
		}
		e.lineA, e.lineB = 0, 0
	}
	return out, nil
}

func (e *Editor) toggleLocks(w *dynamo.World, s *dynamo.Settings, ray Ray) bool {
	changed := false
	for _, p := range w.Particles() {
		if !ray.Hits(p.Position, s.InteractionRadius) {
			continue
		}
		p.Locked = !p.Locked
		if p.Locked {
			p.Material = e.cache.Material(spawn.Red)
		} else {
			p.Material = e.cache.Material(spawn.White)
		}
		changed = true
	}
	return changed
}

func (e *Editor) remove(w *dynamo.World, s *dynamo.Settings, ray Ray) bool {
	var hit []dynamo.ParticleID
	for _, p := range w.Particles() {
		if ray.Hits(p.Position, s.InteractionRadius) {
			hit = append(hit, p.ID)
		}
	}
	for _, id := range hit {
		w.RemoveParticle(id)
	}
	e.Forget(w)
	return len(hit) > 0
}

// cut removes every stick with a sample point on the ray. Endpoints stay.
func cut(w *dynamo.World, s *dynamo.Settings, ray Ray) bool {
	var hit []dynamo.StickID
	for _, st := range w.Sticks() {
		a, okA := w.Particle(st.P1)
		b, okB := w.Particle(st.P2)
		if !okA || !okB {
			continue
		}
		for _, pt := range SampleSegment(a.Position, b.Position, s.InteractionRadius) {
			if ray.Hits(pt, s.InteractionRadius) {
				hit = append(hit, st.ID)
				break
			}
		}
	}
	for _, id := range hit {
		w.RemoveStick(id)
	}
	return len(hit) > 0
}

// nearest returns the hit particle closest to the ray origin, or 0.
func nearest(w *dynamo.World, ray Ray, tol float64) dynamo.ParticleID {
	var (
		best dynamo.ParticleID
		dist = math.Inf(1)
	)
	for _, p := range w.Particles() {
		d, ok := ray.Distance(p.Position, tol)
		if ok && d < dist {
			best, dist = p.ID, d
		}
	}
	return best
}
