package dynamo

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	DefaultConvergeIterations  = 15
	DefaultMinRenderDelta      = 0.001
	DefaultMaxUnchangedFrames  = 120
	DefaultPointSize           = 0.025
	DefaultStickSize           = 0.01
	DefaultCoeffRestitution    = 0.9
	DefaultFrictionRestitution = 0.05
	DefaultAirResistance       = 0.995
	DefaultGravity             = 9.8
	DefaultInteractionRadius   = 0.03
	DefaultOverflowDistance    = 5000.0
	DefaultFloorEpsilon        = 0.001
	DefaultSubstepFraction     = 1.0 / 120.0

	// CameraDistance and CameraFOV define the default viewing volume the
	// world bounds are derived from.
	CameraDistance = 4.0
	CameraFOV      = math.Pi / 4
)

// HalfCameraHeight is the half height of the view plane at z=0.
var HalfCameraHeight = CameraDistance * math.Tan(CameraFOV/2)

// Axis bounds one world axis. Extent is the full width; walls sit at
// ±Extent/2. The y axis only has a floor at 0.
type Axis struct {
	Enabled bool
	Extent  float64
}

func (a Axis) Half() float64 { return a.Extent * 0.5 }

type Bounds struct {
	X, Y, Z Axis
}

// Settings are the simulation tunables. They are read-only during a tick.
type Settings struct {
	ConvergeIterations  int
	MinRenderDelta      float64
	MaxUnchangedFrames  uint32
	PointSize           float64
	StickSize           float64
	CoeffRestitution    float64
	FrictionRestitution float64
	AirResistance       float64
	Gravity             mgl64.Vec3
	Bounds              Bounds
	JerkDamping         float64
	InteractionRadius   float64
	OverflowDistance    float64
	FloorEpsilon        float64
	SubstepFraction     float64
}

func DefaultSettings() Settings {
	return Settings{
		ConvergeIterations:  DefaultConvergeIterations,
		MinRenderDelta:      DefaultMinRenderDelta,
		MaxUnchangedFrames:  DefaultMaxUnchangedFrames,
		PointSize:           DefaultPointSize,
		StickSize:           DefaultStickSize,
		CoeffRestitution:    DefaultCoeffRestitution,
		FrictionRestitution: DefaultFrictionRestitution,
		AirResistance:       DefaultAirResistance,
		Gravity:             mgl64.Vec3{0, -DefaultGravity, 0},
		Bounds: Bounds{
			X: Axis{Enabled: true, Extent: HalfCameraHeight * 2},
			Y: Axis{Enabled: true, Extent: HalfCameraHeight * 2},
			Z: Axis{Enabled: true, Extent: CameraDistance * 2},
		},
		JerkDamping:       0,
		InteractionRadius: DefaultInteractionRadius,
		OverflowDistance:  DefaultOverflowDistance,
		FloorEpsilon:      DefaultFloorEpsilon,
		SubstepFraction:   DefaultSubstepFraction,
	}
}

func (s Settings) Validate() error {
	check := func(name string, ok bool, v any) error {
		if ok {
			return nil
		}
		return fmt.Errorf("%s=%v: %w", name, v, ErrParameterBounds)
	}
	for _, err := range []error{
		check("converge_iterations", s.ConvergeIterations >= 0, s.ConvergeIterations),
		check("min_render_delta", s.MinRenderDelta >= 0, s.MinRenderDelta),
		check("coeff_restitution", s.CoeffRestitution >= 0 && s.CoeffRestitution <= 1, s.CoeffRestitution),
		check("friction_restitution", s.FrictionRestitution >= 0 && s.FrictionRestitution <= 1, s.FrictionRestitution),
		check("air_resistance", s.AirResistance >= 0 && s.AirResistance <= 1, s.AirResistance),
		check("jerk_damping", s.JerkDamping >= 0 && s.JerkDamping <= 1, s.JerkDamping),
		check("interaction_radius", s.InteractionRadius > 0, s.InteractionRadius),
		check("overflow_distance", s.OverflowDistance > 0, s.OverflowDistance),
		check("substep_fraction", s.SubstepFraction > 0, s.SubstepFraction),
		check("bounds.x", s.Bounds.X.Extent >= 0, s.Bounds.X.Extent),
		check("bounds.y", s.Bounds.Y.Extent > 0, s.Bounds.Y.Extent),
		check("bounds.z", s.Bounds.Z.Extent >= 0, s.Bounds.Z.Extent),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

// Resize recomputes the x extent from a host viewport so the world keeps the
// viewport's aspect ratio. The y extent is fixed.
func (s *Settings) Resize(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	s.Bounds.X.Extent = s.Bounds.Y.Extent * width / height
}

// SetParam sets a scalar tunable by name. gravity sets the magnitude of a
// downward pull.
func (s *Settings) SetParam(name string, v float64) error {
	switch name {
	case "converge_iterations":
		s.ConvergeIterations = int(v)
	case "min_render_delta":
		s.MinRenderDelta = v
	case "coeff_restitution":
		s.CoeffRestitution = v
	case "friction_restitution":
		s.FrictionRestitution = v
	case "air_resistance":
		s.AirResistance = v
	case "jerk_damping":
		s.JerkDamping = v
	case "gravity":
		s.Gravity = mgl64.Vec3{0, -v, 0}
	case "interaction_radius":
		s.InteractionRadius = v
	default:
		return fmt.Errorf("unknown parameter %q", name)
	}
	return nil
}

// ParamNames lists the names SetParam accepts.
func ParamNames() []string {
	return []string{
		"air_resistance",
		"coeff_restitution",
		"converge_iterations",
		"friction_restitution",
		"gravity",
		"interaction_radius",
		"jerk_damping",
		"min_render_delta",
	}
}
