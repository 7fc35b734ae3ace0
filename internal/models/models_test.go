package models

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/spawn"
)

func build(t *testing.T, sh Shape, at mgl64.Vec3, s dynamo.Settings) (*dynamo.World, *spawn.Result) {
	t.Helper()
	w := dynamo.NewWorld()
	res, err := spawn.NewBuilder(nil, s).Build(w, sh.Request(at, s))
	if err != nil {
		t.Fatalf("%s: build failed: %v", sh.Name(), err)
	}
	return w, res
}

func TestShapeTopology(t *testing.T) {
	s := dynamo.DefaultSettings()
	tests := []struct {
		shape     Shape
		particles int
		sticks    int
	}{
		{NewPoint(), 1, 0},
		{NewSquare(), 4, 5},
		{NewCube(), 8, 18},
		{NewRope(), 61, 60},
	}

	for _, tt := range tests {
		t.Run(tt.shape.Name(), func(t *testing.T) {
			_, res := build(t, tt.shape, mgl64.Vec3{0, 1, 0}, s)
			if len(res.Particles) != tt.particles {
				t.Errorf("expected %d particles, got %d", tt.particles, len(res.Particles))
			}
			if len(res.Sticks) != tt.sticks {
				t.Errorf("expected %d sticks, got %d", tt.sticks, len(res.Sticks))
			}
		})
	}
}

func TestRopeRootLocked(t *testing.T) {
	s := dynamo.DefaultSettings()
	w, res := build(t, NewRope(), mgl64.Vec3{0.2, 0.5, 0}, s)

	root, _ := w.Particle(res.Particles[0])
	if !root.Locked {
		t.Error("rope root should be locked")
	}
	for _, id := range res.Particles[1:] {
		p, _ := w.Particle(id)
		if p.Locked {
			t.Fatalf("particle %d should be free", id)
		}
	}
	for _, st := range w.Sticks() {
		if math.Abs(st.RestLength-0.025) > 1e-9 {
			t.Errorf("unexpected link length %f", st.RestLength)
		}
	}
}

func TestRopeFoldsAtWall(t *testing.T) {
	s := dynamo.DefaultSettings()
	half := s.Bounds.X.Half()
	req := NewRope().Request(mgl64.Vec3{-half + 0.1, 0.5, 0}, s)

	for i, n := range req.Nodes {
		if n.Position.X() <= -half {
			t.Fatalf("node %d outside the left wall: %v", i, n.Position)
		}
	}
}

func TestCubeFrontFace(t *testing.T) {
	s := dynamo.DefaultSettings()
	req := NewCube().Request(mgl64.Vec3{0, 1, 0}, s)
	maxZ := math.Inf(-1)
	for _, n := range req.Nodes {
		maxZ = math.Max(maxZ, n.Position.Z())
	}
	if math.Abs(maxZ) > 1e-12 {
		t.Errorf("front face should sit on z=0, got %f", maxZ)
	}
}

func TestClothGrid(t *testing.T) {
	s := dynamo.DefaultSettings()
	c := NewCloth()
	cols, rows := c.Grid(s)
	if cols <= 0 || rows <= 0 {
		t.Fatalf("empty grid %dx%d", cols, rows)
	}

	w, res := build(t, c, mgl64.Vec3{}, s)
	if len(res.Particles) != cols*rows {
		t.Errorf("expected %d particles, got %d", cols*rows, len(res.Particles))
	}
	want := rows*(cols-1) + cols*(rows-1)
	if len(res.Sticks) != want {
		t.Errorf("expected %d sticks, got %d", want, len(res.Sticks))
	}

	half := s.Bounds.X.Half()
	for _, p := range w.Particles() {
		if math.Abs(p.Position.X()) > half || p.Position.Y() <= 0 || p.Position.Y() > s.Bounds.Y.Extent {
			t.Fatalf("particle outside the view: %v", p.Position)
		}
	}
}

func TestClothPinTop(t *testing.T) {
	s := dynamo.DefaultSettings()
	c := NewCloth()
	c.PinTop = true
	req := c.Request(mgl64.Vec3{}, s)

	cols, _ := c.Grid(s)
	var pinned int
	for i, n := range req.Nodes {
		if n.Locked {
			if i >= cols {
				t.Fatalf("pinned node %d is not on the top row", i)
			}
			pinned++
		}
	}
	if pinned == 0 {
		t.Error("expected pinned top row")
	}
}

func TestGet(t *testing.T) {
	for _, name := range Names() {
		sh, err := Get(name)
		if err != nil {
			t.Fatalf("get %s: %v", name, err)
		}
		if sh.Name() != name {
			t.Errorf("expected %s, got %s", name, sh.Name())
		}
	}
	if _, err := Get("sphere"); err == nil {
		t.Error("expected error for unknown shape")
	}
}
