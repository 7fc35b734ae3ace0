package sim

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/verlet/internal/dynamo"
)

type PlayState int

const (
	Running PlayState = iota
	Paused
)

func (p PlayState) String() string {
	if p == Paused {
		return "paused"
	}
	return "running"
}

// PlayRequest is a play-state transition applied at the start of a tick.
type PlayRequest int

const (
	Pause PlayRequest = iota
	Play
	Reset
)

func (r PlayRequest) String() string {
	switch r {
	case Pause:
		return "pause"
	case Play:
		return "play"
	default:
		return "reset"
	}
}

// PointInfo is the telemetry for the selected particle.
type PointInfo struct {
	ID       dynamo.ParticleID `json:"id"`
	Position mgl64.Vec3        `json:"position"`
	Velocity mgl64.Vec3        `json:"velocity"`
}

// SetPointInfo overrides the selected particle. Nil fields are left alone.
type SetPointInfo struct {
	Position *mgl64.Vec3 `json:"position,omitempty"`
	Velocity *mgl64.Vec3 `json:"velocity,omitempty"`
}

// Metric accumulates a scalar over the ticks of a run.
type Metric interface {
	Name() string
	Observe(w *dynamo.World, changed bool)
	Value() float64
	Reset()
}

type Observer interface {
	OnTick(f *Frame)
}

type Config struct {
	Dt            float64
	Ticks         int
	ValidateState bool
}

type Result struct {
	Ticks        int
	ChangedTicks int
	Metrics      map[string]float64
	Errors       []error
	Elapsed      time.Duration
	Last         *Frame
}
