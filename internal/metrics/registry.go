package metrics

import (
	"fmt"
	"sort"

	"github.com/san-kum/verlet/internal/dynamo"
)

// Metric mirrors sim.Metric so this package stays free of the pipeline.
type Metric interface {
	Name() string
	Observe(w *dynamo.World, changed bool)
	Value() float64
	Reset()
}

var registry = map[string]func() Metric{
	"kinetic_energy":      func() Metric { return NewKineticEnergy() },
	"peak_kinetic_energy": func() Metric { return NewPeakKinetic() },
	"max_strain":          func() Metric { return NewMaxStrain() },
	"render_ratio":        func() Metric { return NewRenderRatio() },
	"stability":           func() Metric { return NewStability(dynamo.DefaultOverflowDistance) },
}

func Get(name string) (Metric, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric %q", name)
	}
	return f(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Default returns one of each metric.
func Default() []Metric {
	out := make([]Metric, 0, len(registry))
	for _, n := range Names() {
		m, _ := Get(n)
		out = append(out, m)
	}
	return out
}
