package automation

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/interact"
	"github.com/san-kum/verlet/internal/models"
	"github.com/san-kum/verlet/internal/sim"
)

// Scenario is a scripted interaction session: actions are submitted to the
// simulator before the tick they are scheduled for.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Dt          float64        `yaml:"dt"`
	Ticks       int            `yaml:"ticks"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one action. Exactly one of the action fields is used, in
// the order Spawn, Target, Event, Play, Resize, SetVelocity.
type ScenarioStep struct {
	Tick int `yaml:"tick"`

	Spawn string     `yaml:"spawn,omitempty"`
	At    mgl64.Vec3 `yaml:"at,omitempty"`

	Target string `yaml:"target,omitempty"`

	// Event presses, moves or releases the pointer over (At.X, At.Y) on the
	// z=0 plane, looking from the camera.
	Event string `yaml:"event,omitempty"`

	Play   string     `yaml:"play,omitempty"`
	Resize [2]float64 `yaml:"resize,omitempty"`

	SetVelocity *mgl64.Vec3 `yaml:"set_velocity,omitempty"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if scenario.Dt <= 0 {
		scenario.Dt = 1.0 / 60
	}
	return &scenario, nil
}

// PointerRay is the ray from the default camera through (x, y, 0).
func PointerRay(x, y float64) *interact.Ray {
	r := interact.NewRay(mgl64.Vec3{x, y, dynamo.CameraDistance}, mgl64.Vec3{x, y, 0})
	return &r
}

// RunScenario plays the scenario against s. Tick errors are collected and
// do not stop the run.
func RunScenario(ctx context.Context, scenario *Scenario, s *sim.Simulator, logger *log.Logger) (*sim.Result, error) {
	steps := append([]ScenarioStep(nil), scenario.Steps...)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Tick < steps[j].Tick })
	for i, st := range steps {
		if err := validate(st); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	ticks := scenario.Ticks
	if n := len(steps); n > 0 && steps[n-1].Tick >= ticks {
		ticks = steps[n-1].Tick + 1
	}

	res := &sim.Result{Metrics: make(map[string]float64)}
	start := time.Now()
	next := 0
	for tick := 0; tick < ticks; tick++ {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		for next < len(steps) && steps[next].Tick == tick {
			if logger != nil {
				logger.Debug("scenario step", "tick", tick, "step", next+1)
			}
			submit(s, steps[next])
			next++
		}

		f, err := s.Tick(scenario.Dt)
		if err != nil {
			res.Errors = append(res.Errors, err)
		}
		res.Ticks++
		if f.Changed {
			res.ChangedTicks++
		}
		res.Last = f
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

func validate(st ScenarioStep) error {
	switch {
	case st.Spawn != "":
		_, err := models.Get(st.Spawn)
		return err
	case st.Target != "":
		_, err := interact.ParseTarget(st.Target)
		return err
	case st.Event != "":
		var k interact.EventKind
		return k.UnmarshalText([]byte(st.Event))
	case st.Play != "":
		_, err := parsePlay(st.Play)
		return err
	}
	return nil
}

func parsePlay(s string) (sim.PlayRequest, error) {
	for _, r := range []sim.PlayRequest{sim.Pause, sim.Play, sim.Reset} {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown play request %q", s)
}

func submit(s *sim.Simulator, st ScenarioStep) {
	switch {
	case st.Spawn != "":
		shape, _ := models.Get(st.Spawn)
		s.SubmitSpawn(shape.Request(st.At, s.Settings()))
	case st.Target != "":
		t, _ := interact.ParseTarget(st.Target)
		s.SubmitTarget(t)
	case st.Event != "":
		var k interact.EventKind
		_ = k.UnmarshalText([]byte(st.Event))
		s.SubmitEvent(interact.Event{Kind: k, Ray: PointerRay(st.At.X(), st.At.Y())})
	case st.Play != "":
		r, _ := parsePlay(st.Play)
		s.SubmitPlayState(r)
	case st.Resize != [2]float64{}:
		s.Resize(st.Resize[0], st.Resize[1])
	case st.SetVelocity != nil:
		s.SetPointInfo(sim.SetPointInfo{Velocity: st.SetVelocity})
	}
}

// MonteCarloConfig drops a shape at random positions across the floor.
type MonteCarloConfig struct {
	Shape     string
	Height    float64
	NumTrials int
	Ticks     int
	Dt        float64
	Seed      int64
}

type MonteCarloResult struct {
	TrialID int
	At      mgl64.Vec3
	Settled int
	Stable  bool
}

// RunMonteCarlo runs independent trials and reports whether each stayed
// finite and inside the world, and the tick it stopped producing dirty
// frames (-1 if it never did).
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, opts sim.Options) ([]MonteCarloResult, error) {
	shape, err := models.Get(cfg.Shape)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	half := opts.Settings.Bounds.X.Half()
	results := make([]MonteCarloResult, 0, cfg.NumTrials)
	for trial := 0; trial < cfg.NumTrials; trial++ {
		at := mgl64.Vec3{(rng.Float64()*2 - 1) * half * 0.8, cfg.Height, 0}

		o := opts
		o.Seed = rng.Int63()
		s, err := sim.New(o)
		if err != nil {
			return nil, err
		}
		s.SubmitSpawn(shape.Request(at, s.Settings()))

		settled := -1
		stable := true
		err = s.RunWithCallback(ctx, sim.Config{Dt: cfg.Dt, Ticks: cfg.Ticks}, func(f *sim.Frame, _ error) bool {
			if f.Changed {
				settled = -1
			} else if settled < 0 {
				settled = int(f.Tick) - 1
			}
			for _, p := range f.Particles {
				if p.Position.Len() > o.Settings.OverflowDistance {
					stable = false
				}
			}
			return true
		})
		if err != nil {
			return nil, err
		}

		n, _ := s.World().Len()
		results = append(results, MonteCarloResult{
			TrialID: trial,
			At:      at,
			Settled: settled,
			Stable:  stable && n > 0,
		})
	}
	return results, nil
}

func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
