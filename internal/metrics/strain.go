package metrics

import (
	"math"

	"github.com/san-kum/verlet/internal/dynamo"
)

// Strain returns the largest relative length error |len-rest|/rest over
// all sticks in w. Sticks with a zero rest length are skipped.
func Strain(w *dynamo.World) float64 {
	var worst float64
	for _, st := range w.Sticks() {
		if st.RestLength == 0 {
			continue
		}
		a, ok1 := w.Particle(st.P1)
		b, ok2 := w.Particle(st.P2)
		if !ok1 || !ok2 {
			continue
		}
		l := b.Position.Sub(a.Position).Len()
		worst = math.Max(worst, math.Abs(l-st.RestLength)/st.RestLength)
	}
	return worst
}

type MaxStrain struct {
	name string
	max  float64
}

func NewMaxStrain() *MaxStrain {
	return &MaxStrain{name: "max_strain"}
}

func (m *MaxStrain) Name() string { return m.name }

func (m *MaxStrain) Observe(w *dynamo.World, _ bool) {
	m.max = math.Max(m.max, Strain(w))
}

func (m *MaxStrain) Value() float64 { return m.max }

func (m *MaxStrain) Reset() { m.max = 0 }

// RenderRatio is the fraction of ticks that were marked dirty.
type RenderRatio struct {
	name    string
	changed int
	samples int
}

func NewRenderRatio() *RenderRatio {
	return &RenderRatio{name: "render_ratio"}
}

func (r *RenderRatio) Name() string { return r.name }

func (r *RenderRatio) Observe(_ *dynamo.World, changed bool) {
	r.samples++
	if changed {
		r.changed++
	}
}

func (r *RenderRatio) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return float64(r.changed) / float64(r.samples)
}

func (r *RenderRatio) Reset() {
	r.changed = 0
	r.samples = 0
}
