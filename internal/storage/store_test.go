package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/sim"
)

var sampleRows = []Row{
	{Tick: 1, Changed: true, MaxDelta: 0.0125, Kinetic: 0.5, Strain: 0.01, Tracked: mgl64.Vec3{0, 1, 0}},
	{Tick: 2, Changed: false, MaxDelta: 0, Kinetic: 0.25, Strain: 0, Tracked: mgl64.Vec3{0.1, 0.9, -0.5}},
}

const goldenFrames = `tick,changed,max_delta,kinetic,strain,x,y,z
1,true,0.012500,0.500000,0.010000,0.000000,1.000000,0.000000
2,false,0.000000,0.250000,0.000000,0.100000,0.900000,-0.500000
`

func assertGolden(t *testing.T, got, want string) {
	t.Helper()
	if got == want {
		return
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "golden",
		ToFile:   "actual",
		Context:  2,
	})
	t.Errorf("output differs from golden:\n%s", diff)
}

func TestWriteFramesGolden(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrames(&buf, sampleRows); err != nil {
		t.Fatal(err)
	}
	assertGolden(t, buf.String(), goldenFrames)
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	meta := RunMetadata{
		Scene:    "test",
		Seed:     42,
		Dt:       1.0 / 60,
		Ticks:    2,
		Settings: dynamo.DefaultSettings(),
		Metrics:  map[string]float64{"kinetic_energy": 1.5},
	}
	runID, err := st.Save(meta, sampleRows)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	loaded, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Scene != "test" || loaded.Seed != 42 {
		t.Errorf("unexpected metadata %+v", loaded)
	}
	if loaded.Metrics["kinetic_energy"] != 1.5 {
		t.Errorf("expected kinetic 1.5, got %f", loaded.Metrics["kinetic_energy"])
	}
	if loaded.Settings != dynamo.DefaultSettings() {
		t.Error("settings did not survive the round trip")
	}

	rows, err := st.LoadFrames(runID)
	if err != nil {
		t.Fatalf("load frames failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1].Tracked != sampleRows[1].Tracked || rows[1].Changed {
		t.Errorf("unexpected row %+v", rows[1])
	}

	data, err := os.ReadFile(filepath.Join(st.baseDir, runID, framesFile))
	if err != nil {
		t.Fatal(err)
	}
	assertGolden(t, string(data), goldenFrames)
}

func TestStoreList(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "runs"))

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	for _, scene := range []string{"a", "b"} {
		if _, err := st.Save(RunMetadata{Scene: scene}, nil); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 || runs[0].Scene != "a" {
		t.Errorf("expected runs a, b in order, got %+v", runs)
	}
}

func TestLoadFramesSkipsMalformed(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	runDir := filepath.Join(dir, "broken")
	if err := os.MkdirAll(runDir, 0755); err != nil {
		t.Fatal(err)
	}
	data := goldenFrames + "3,maybe,0,0,0,0,0,0\n"
	if err := os.WriteFile(filepath.Join(runDir, framesFile), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	rows, err := st.LoadFrames("broken")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 valid rows, got %d", len(rows))
	}
}

func TestRecorderFollowsNewestParticle(t *testing.T) {
	s, err := sim.New(sim.Options{Settings: dynamo.DefaultSettings()})
	if err != nil {
		t.Fatal(err)
	}
	rec := NewRecorder(s.World(), 0)
	s.AddObserver(rec)

	for i := 0; i < 3; i++ {
		if _, err := s.Tick(1.0 / 60); err != nil {
			t.Fatal(err)
		}
	}
	if len(rec.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rec.Rows))
	}
	if rec.Tracked() != 0 {
		t.Error("empty world should track nothing")
	}

	p := dynamo.NewParticle(mgl64.Vec3{0, 1, 0})
	id := s.World().AddParticle(p)
	if _, err := s.Tick(1.0 / 60); err != nil {
		t.Fatal(err)
	}
	if rec.Tracked() != id {
		t.Errorf("expected to track %d, got %d", id, rec.Tracked())
	}
	last := rec.Rows[len(rec.Rows)-1]
	if last.Tracked.Y() >= 1 || last.Kinetic <= 0 {
		t.Errorf("tracked particle should be falling: %+v", last)
	}

	ys, ok := Channel(rec.Rows, "y")
	if !ok || len(ys) != 4 {
		t.Errorf("unexpected channel %v", ys)
	}
	if _, ok := Channel(rec.Rows, "w"); ok {
		t.Error("expected unknown channel to fail")
	}
	if len(Changed(rec.Rows)) != 4 || len(Path(rec.Rows)) != 4 {
		t.Error("helpers should return one entry per row")
	}
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	if err := ExportJSON(path, RunMetadata{ID: "x", Scene: "rope"}, sampleRows); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var back ExportData
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Meta.Scene != "rope" || len(back.Frames) != 2 {
		t.Errorf("unexpected export %+v", back)
	}
}
