package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/interact"
	"github.com/san-kum/verlet/internal/sim"
)

const cutScript = `
name: cut-square
ticks: 10
steps:
  - tick: 0
    spawn: square
    at: [0, 1, 0]
  - tick: 2
    target: cut
  - tick: 2
    event: press
    at: [0, 3, 0]
  - tick: 3
    event: move
    at: [0, 1, 0]
  - tick: 4
    event: release
    at: [0, 1, 0]
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newSim(t *testing.T) *sim.Simulator {
	t.Helper()
	settings := dynamo.DefaultSettings()
	settings.Gravity[1] = 0
	s, err := sim.New(sim.Options{Settings: settings})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRunScenarioCutsSquare(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, cutScript))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sc.Dt != 1.0/60 {
		t.Errorf("expected default dt, got %f", sc.Dt)
	}

	s := newSim(t)
	res, err := RunScenario(context.Background(), sc, s, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Ticks != 10 {
		t.Errorf("expected 10 ticks, got %d", res.Ticks)
	}

	n, sticks := s.World().Len()
	if n != 4 {
		t.Errorf("expected 4 particles, got %d", n)
	}
	if sticks >= 5 {
		t.Errorf("the sweep should have cut at least one stick, %d left", sticks)
	}
	if s.Target() != interact.Cut {
		t.Errorf("release should return to cut, got %v", s.Target())
	}
	if s.PlayState() != sim.Paused {
		t.Error("selecting a target should pause")
	}
}

func TestRunScenarioExtendsTicks(t *testing.T) {
	sc := &Scenario{Dt: 0.01, Ticks: 2, Steps: []ScenarioStep{{Tick: 5, Spawn: "point"}}}
	res, err := RunScenario(context.Background(), sc, newSim(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Ticks != 6 {
		t.Errorf("expected 6 ticks, got %d", res.Ticks)
	}
}

func TestRunScenarioRejectsBadSteps(t *testing.T) {
	tests := []ScenarioStep{
		{Spawn: "torus"},
		{Target: "paint"},
		{Event: "hover"},
		{Play: "rewind"},
	}
	for _, step := range tests {
		sc := &Scenario{Dt: 0.01, Steps: []ScenarioStep{step}}
		if _, err := RunScenario(context.Background(), sc, newSim(t), nil); err == nil {
			t.Errorf("expected error for %+v", step)
		}
	}
}

func TestRunMonteCarlo(t *testing.T) {
	cfg := &MonteCarloConfig{Shape: "square", Height: 1, NumTrials: 3, Ticks: 30, Dt: 1.0 / 60, Seed: 9}
	results, err := RunMonteCarlo(context.Background(), cfg, sim.Options{Settings: dynamo.DefaultSettings()})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	half := dynamo.DefaultSettings().Bounds.X.Half()
	for _, r := range results {
		if r.At.X() < -half || r.At.X() > half {
			t.Errorf("trial %d dropped outside the world at %v", r.TrialID, r.At)
		}
	}
	stable, unstable := MonteCarloStats(results)
	if stable != 3 || unstable != 0 {
		t.Errorf("expected all stable, got %d/%d", stable, unstable)
	}
}

func TestRunMonteCarloUnknownShape(t *testing.T) {
	_, err := RunMonteCarlo(context.Background(), &MonteCarloConfig{Shape: "torus"}, sim.Options{Settings: dynamo.DefaultSettings()})
	if err == nil {
		t.Error("expected error")
	}
}
