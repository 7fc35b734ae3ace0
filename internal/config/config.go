package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/verlet/internal/attach"
	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/models"
	"github.com/san-kum/verlet/internal/spawn"
)

const (
	DefaultDt      = 1.0 / 60.0
	DefaultTicks   = 600
	DefaultDataDir = "runs"
)

// Environment overrides, read after the config file.
const (
	EnvIterations  = "VERLET_ITERATIONS"
	EnvJerkDamping = "VERLET_JERK_DAMPING"
	EnvGravity     = "VERLET_GRAVITY"
	EnvDataDir     = "VERLET_DATA_DIR"
)

type Config struct {
	Scene    string         `yaml:"scene"`
	Seed     int64          `yaml:"seed"`
	Dt       float64        `yaml:"dt"`
	Ticks    int            `yaml:"ticks"`
	DataDir  string         `yaml:"data_dir"`
	Settings SettingsConfig `yaml:"settings"`
	Spawns   []SpawnConfig  `yaml:"spawns"`
	// Offsets are asset poses relative to their anchors, keyed by
	// attachment tag.
	Offsets map[string]OffsetConfig `yaml:"offsets,omitempty"`
}

type AxisConfig struct {
	Enabled bool    `yaml:"enabled"`
	Extent  float64 `yaml:"extent"`
}

type SettingsConfig struct {
	ConvergeIterations  int        `yaml:"converge_iterations"`
	MinRenderDelta      float64    `yaml:"min_render_delta"`
	MaxUnchangedFrames  uint32     `yaml:"max_unchanged_frames"`
	PointSize           float64    `yaml:"point_size"`
	StickSize           float64    `yaml:"stick_size"`
	CoeffRestitution    float64    `yaml:"coeff_restitution"`
	FrictionRestitution float64    `yaml:"friction_restitution"`
	AirResistance       float64    `yaml:"air_resistance"`
	Gravity             mgl64.Vec3 `yaml:"gravity"`
	JerkDamping         float64    `yaml:"jerk_damping"`
	InteractionRadius   float64    `yaml:"interaction_radius"`
	BoundsX             AxisConfig `yaml:"bounds_x"`
	BoundsY             AxisConfig `yaml:"bounds_y"`
	BoundsZ             AxisConfig `yaml:"bounds_z"`
}

// SpawnConfig places either a named shape or a raw request. Raw request
// positions are offset by At.
type SpawnConfig struct {
	Shape   string         `yaml:"shape,omitempty"`
	At      mgl64.Vec3     `yaml:"at"`
	Locked  []int          `yaml:"locked,omitempty"`
	Request *spawn.Request `yaml:"request,omitempty"`
}

// OffsetConfig rotates Angle degrees about Axis, then translates.
type OffsetConfig struct {
	Translation mgl64.Vec3 `yaml:"translation"`
	Axis        mgl64.Vec3 `yaml:"axis,omitempty"`
	Angle       float64    `yaml:"angle,omitempty"`
}

func (o OffsetConfig) Pose() attach.Pose {
	p := attach.Identity()
	p.Translation = o.Translation
	if o.Angle != 0 && o.Axis.LenSqr() > 0 {
		p.Rotation = mgl64.QuatRotate(mgl64.DegToRad(o.Angle), o.Axis.Normalize())
	}
	return p
}

func fromSettings(s dynamo.Settings) SettingsConfig {
	return SettingsConfig{
		ConvergeIterations:  s.ConvergeIterations,
		MinRenderDelta:      s.MinRenderDelta,
		MaxUnchangedFrames:  s.MaxUnchangedFrames,
		PointSize:           s.PointSize,
		StickSize:           s.StickSize,
		CoeffRestitution:    s.CoeffRestitution,
		FrictionRestitution: s.FrictionRestitution,
		AirResistance:       s.AirResistance,
		Gravity:             s.Gravity,
		JerkDamping:         s.JerkDamping,
		InteractionRadius:   s.InteractionRadius,
		BoundsX:             AxisConfig(s.Bounds.X),
		BoundsY:             AxisConfig(s.Bounds.Y),
		BoundsZ:             AxisConfig(s.Bounds.Z),
	}
}

func DefaultConfig() *Config {
	return &Config{
		Scene:    "default",
		Dt:       DefaultDt,
		Ticks:    DefaultTicks,
		DataDir:  DefaultDataDir,
		Settings: fromSettings(dynamo.DefaultSettings()),
	}
}

// DynamoSettings converts the file settings, keeping defaults for the knobs
// the file does not expose.
func (c *Config) DynamoSettings() dynamo.Settings {
	s := dynamo.DefaultSettings()
	cs := c.Settings
	s.ConvergeIterations = cs.ConvergeIterations
	s.MinRenderDelta = cs.MinRenderDelta
	s.MaxUnchangedFrames = cs.MaxUnchangedFrames
	s.PointSize = cs.PointSize
	s.StickSize = cs.StickSize
	s.CoeffRestitution = cs.CoeffRestitution
	s.FrictionRestitution = cs.FrictionRestitution
	s.AirResistance = cs.AirResistance
	s.Gravity = cs.Gravity
	s.JerkDamping = cs.JerkDamping
	s.InteractionRadius = cs.InteractionRadius
	s.Bounds = dynamo.Bounds{
		X: dynamo.Axis(cs.BoundsX),
		Y: dynamo.Axis(cs.BoundsY),
		Z: dynamo.Axis(cs.BoundsZ),
	}
	return s
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadEnv reads dotenv files into the process environment. Missing files
// are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides c from VERLET_* variables. VERLET_GRAVITY is the
// magnitude of a downward pull.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvIterations); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvIterations, err)
		}
		c.Settings.ConvergeIterations = n
	}
	if v, ok := os.LookupEnv(EnvJerkDamping); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvJerkDamping, err)
		}
		c.Settings.JerkDamping = f
	}
	if v, ok := os.LookupEnv(EnvGravity); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvGravity, err)
		}
		c.Settings.Gravity = mgl64.Vec3{0, -f, 0}
	}
	if v, ok := os.LookupEnv(EnvDataDir); ok && v != "" {
		c.DataDir = v
	}
	return nil
}

// Requests expands the configured spawns against the given settings.
func (c *Config) Requests(s dynamo.Settings) ([]spawn.Request, error) {
	reqs := make([]spawn.Request, 0, len(c.Spawns))
	for i, sc := range c.Spawns {
		var req spawn.Request
		switch {
		case sc.Request != nil:
			req = offset(*sc.Request, sc.At)
		case sc.Shape != "":
			shape, err := models.Get(sc.Shape)
			if err != nil {
				return nil, fmt.Errorf("spawn %d: %w", i, err)
			}
			req = shape.Request(sc.At, s)
		default:
			return nil, fmt.Errorf("spawn %d: neither shape nor request given", i)
		}
		for _, n := range sc.Locked {
			if n < 0 || n >= len(req.Nodes) {
				return nil, fmt.Errorf("spawn %d: locked node %d out of range", i, n)
			}
			red := spawn.Red
			req.Nodes[n].Locked = true
			req.Nodes[n].PointMaterial = &red
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func offset(r spawn.Request, by mgl64.Vec3) spawn.Request {
	nodes := make([]spawn.Node, len(r.Nodes))
	for i, n := range r.Nodes {
		n.Position = n.Position.Add(by)
		if n.NeighborPositions != nil {
			moved := make([]mgl64.Vec3, len(n.NeighborPositions))
			for j, p := range n.NeighborPositions {
				moved[j] = p.Add(by)
			}
			n.NeighborPositions = moved
		}
		nodes[i] = n
	}
	return spawn.Request{Nodes: nodes}
}
