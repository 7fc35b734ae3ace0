package storage

import (
	"strconv"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/metrics"
	"github.com/san-kum/verlet/internal/sim"
)

// Row is one tick of a recorded run.
type Row struct {
	Tick     uint64     `json:"tick"`
	Changed  bool       `json:"changed"`
	MaxDelta float64    `json:"max_delta"`
	Kinetic  float64    `json:"kinetic"`
	Strain   float64    `json:"strain"`
	Tracked  mgl64.Vec3 `json:"tracked"`
}

func (r Row) record() []string {
	ff := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	return []string{
		strconv.FormatUint(r.Tick, 10),
		strconv.FormatBool(r.Changed),
		ff(r.MaxDelta),
		ff(r.Kinetic),
		ff(r.Strain),
		ff(r.Tracked.X()),
		ff(r.Tracked.Y()),
		ff(r.Tracked.Z()),
	}
}

// Recorder is a sim.Observer that samples the world after every tick. It
// runs on the tick goroutine.
type Recorder struct {
	world *dynamo.World
	track dynamo.ParticleID
	Rows  []Row
}

// NewRecorder follows the particle with id track; zero follows the highest
// id present at each tick.
func NewRecorder(w *dynamo.World, track dynamo.ParticleID) *Recorder {
	return &Recorder{world: w, track: track}
}

func (r *Recorder) OnTick(f *sim.Frame) {
	row := Row{
		Tick:     f.Tick,
		Changed:  f.Changed,
		MaxDelta: f.MaxDelta,
		Kinetic:  metrics.Kinetic(r.world),
		Strain:   metrics.Strain(r.world),
	}
	if p, ok := r.tracked(); ok {
		row.Tracked = p.Position
	}
	r.Rows = append(r.Rows, row)
}

// Tracked returns the id the recorder currently follows.
func (r *Recorder) Tracked() dynamo.ParticleID {
	if p, ok := r.tracked(); ok {
		return p.ID
	}
	return 0
}

func (r *Recorder) tracked() (*dynamo.Particle, bool) {
	if r.track != 0 {
		return r.world.Particle(r.track)
	}
	ids := r.world.ParticleIDs()
	if len(ids) == 0 {
		return nil, false
	}
	return r.world.Particle(ids[len(ids)-1])
}

// Channel extracts one column from rows for analysis.
func Channel(rows []Row, name string) ([]float64, bool) {
	pick := map[string]func(Row) float64{
		"max_delta": func(r Row) float64 { return r.MaxDelta },
		"kinetic":   func(r Row) float64 { return r.Kinetic },
		"strain":    func(r Row) float64 { return r.Strain },
		"x":         func(r Row) float64 { return r.Tracked.X() },
		"y":         func(r Row) float64 { return r.Tracked.Y() },
		"z":         func(r Row) float64 { return r.Tracked.Z() },
	}[name]
	if pick == nil {
		return nil, false
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = pick(r)
	}
	return out, true
}

// Changed extracts the dirty flags of rows.
func Changed(rows []Row) []bool {
	out := make([]bool, len(rows))
	for i, r := range rows {
		out[i] = r.Changed
	}
	return out
}

// Path extracts the tracked particle positions of rows.
func Path(rows []Row) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(rows))
	for i, r := range rows {
		out[i] = r.Tracked
	}
	return out
}
