package metrics

import (
	"github.com/san-kum/verlet/internal/dynamo"
)

// Kinetic sums ½|v|² over the unlocked particles, with v the implicit
// per-tick velocity and unit mass.
func Kinetic(w *dynamo.World) float64 {
	var ke float64
	for _, p := range w.Particles() {
		if p.Locked {
			continue
		}
		ke += 0.5 * p.Velocity().LenSqr()
	}
	return ke
}

// KineticEnergy is the mean kinetic energy over the observed ticks.
type KineticEnergy struct {
	name    string
	total   float64
	last    float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(w *dynamo.World, _ bool) {
	e.last = Kinetic(w)
	e.total += e.last
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

// Last is the energy of the most recent tick.
func (e *KineticEnergy) Last() float64 { return e.last }

func (e *KineticEnergy) Reset() {
	e.total = 0
	e.last = 0
	e.samples = 0
}

// PeakKinetic is the largest kinetic energy seen in any tick.
type PeakKinetic struct {
	name string
	peak float64
}

func NewPeakKinetic() *PeakKinetic {
	return &PeakKinetic{name: "peak_kinetic_energy"}
}

func (e *PeakKinetic) Name() string { return e.name }

func (e *PeakKinetic) Observe(w *dynamo.World, _ bool) {
	if ke := Kinetic(w); ke > e.peak {
		e.peak = ke
	}
}

func (e *PeakKinetic) Value() float64 { return e.peak }

func (e *PeakKinetic) Reset() { e.peak = 0 }
