package sim

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/verlet/internal/attach"
	"github.com/san-kum/verlet/internal/dynamo"
)

type ParticleView struct {
	ID       dynamo.ParticleID `json:"id"`
	Position mgl64.Vec3        `json:"position"`
	Rotation mgl64.Quat        `json:"rotation"`
	Size     float64           `json:"size"`
	Locked   bool              `json:"locked,omitempty"`
	Mesh     dynamo.Handle     `json:"mesh"`
	Material dynamo.Handle     `json:"material"`
}

type StickView struct {
	ID        dynamo.StickID    `json:"id"`
	P1        dynamo.ParticleID `json:"p1"`
	P2        dynamo.ParticleID `json:"p2"`
	Midpoint  mgl64.Vec3        `json:"midpoint"`
	Rotation  mgl64.Quat        `json:"rotation"`
	Length    float64           `json:"length"`
	Thickness float64           `json:"thickness"`
	Mesh      dynamo.Handle     `json:"mesh"`
	Material  dynamo.Handle     `json:"material"`
}

// Frame is the immutable render snapshot published after every tick.
// When Changed is false the geometry is that of the last changed frame and
// renderers can skip the tick.
type Frame struct {
	Tick        uint64           `json:"tick"`
	Changed     bool             `json:"changed"`
	MaxDelta    float64          `json:"max_delta"`
	State       string           `json:"state"`
	Particles   []ParticleView   `json:"particles"`
	Sticks      []StickView      `json:"sticks"`
	Attachments []attach.Tracked `json:"attachments,omitempty"`
	PointInfo   *PointInfo       `json:"point_info,omitempty"`
}

var xAxis = mgl64.Vec3{1, 0, 0}

// stickRotation turns the unit x axis onto the stick direction.
func stickRotation(d mgl64.Vec3) mgl64.Quat {
	if d.LenSqr() == 0 {
		return mgl64.QuatIdent()
	}
	return mgl64.QuatBetweenVectors(xAxis, d.Normalize())
}

// snapshot copies the world geometry. Each particle takes the rotation of
// the last stick touching it.
func snapshot(w *dynamo.World) ([]ParticleView, []StickView) {
	ps := w.Particles()
	particles := make([]ParticleView, len(ps))
	index := make(map[dynamo.ParticleID]int, len(ps))
	for i, p := range ps {
		index[p.ID] = i
		particles[i] = ParticleView{
			ID:       p.ID,
			Position: p.Position,
			Rotation: mgl64.QuatIdent(),
			Size:     p.Size,
			Locked:   p.Locked,
			Mesh:     p.Mesh,
			Material: p.Material,
		}
	}

	ss := w.Sticks()
	sticks := make([]StickView, 0, len(ss))
	for _, st := range ss {
		i1, ok1 := index[st.P1]
		i2, ok2 := index[st.P2]
		if !ok1 || !ok2 {
			continue
		}
		a, b := particles[i1].Position, particles[i2].Position
		d := b.Sub(a)
		rot := stickRotation(d)
		sticks = append(sticks, StickView{
			ID:        st.ID,
			P1:        st.P1,
			P2:        st.P2,
			Midpoint:  a.Add(b).Mul(0.5),
			Rotation:  rot,
			Length:    d.Len(),
			Thickness: st.Thickness,
			Mesh:      st.Mesh,
			Material:  st.Material,
		})
		particles[i1].Rotation = rot
		particles[i2].Rotation = rot
	}
	return particles, sticks
}
