package dynamo

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestWorldAddRemove(t *testing.T) {
	w := NewWorld()
	a := w.AddParticle(NewParticle(mgl64.Vec3{0, 1, 0}))
	b := w.AddParticle(NewParticle(mgl64.Vec3{1, 1, 0}))
	c := w.AddParticle(NewParticle(mgl64.Vec3{2, 1, 0}))

	if _, err := w.AddStick(Stick{P1: a, P2: b, RestLength: 1}); err != nil {
		t.Fatalf("add stick: %v", err)
	}
	if _, err := w.AddStick(Stick{P1: b, P2: c, RestLength: 1}); err != nil {
		t.Fatalf("add stick: %v", err)
	}

	if !w.RemoveParticle(b) {
		t.Fatal("expected particle to be removed")
	}
	np, ns := w.Len()
	if np != 2 || ns != 0 {
		t.Errorf("expected 2 particles 0 sticks, got %d %d", np, ns)
	}
	if w.RemoveParticle(b) {
		t.Error("second removal should report false")
	}
}

func TestWorldStickUnknownEndpoint(t *testing.T) {
	w := NewWorld()
	a := w.AddParticle(NewParticle(mgl64.Vec3{}))
	_, err := w.AddStick(Stick{P1: a, P2: 99})
	if !errors.Is(err, ErrUnknownParticle) {
		t.Errorf("expected ErrUnknownParticle, got %v", err)
	}
}

func TestWorldOrderAndClear(t *testing.T) {
	w := NewWorld()
	for i := 0; i < 5; i++ {
		w.AddParticle(NewParticle(mgl64.Vec3{float64(i), 0, 0}))
	}
	w.RemoveParticle(3)

	ps := w.Particles()
	for i := 1; i < len(ps); i++ {
		if ps[i-1].ID >= ps[i].ID {
			t.Fatalf("particles out of order at %d", i)
		}
	}

	w.Clear()
	if np, ns := w.Len(); np != 0 || ns != 0 {
		t.Errorf("expected empty world, got %d %d", np, ns)
	}
	if id := w.AddParticle(NewParticle(mgl64.Vec3{})); id != 6 {
		t.Errorf("ids must not be reused after clear, got %d", id)
	}
}

func TestParticleVelocity(t *testing.T) {
	p := NewParticle(mgl64.Vec3{1, 2, 3})
	p.SetVelocity(mgl64.Vec3{0.1, 0, 0})
	if !p.Velocity().ApproxEqual(mgl64.Vec3{0.1, 0, 0}) {
		t.Errorf("unexpected velocity %v", p.Velocity())
	}

	p.Teleport(mgl64.Vec3{5, 5, 5})
	if !p.Velocity().ApproxEqual(mgl64.Vec3{0.1, 0, 0}) {
		t.Errorf("teleport changed velocity to %v", p.Velocity())
	}
}

func TestHashTag(t *testing.T) {
	if HashTag("") != 0 {
		t.Error("empty tag should map to no attachment")
	}
	if HashTag("hat") != HashTag("hat") {
		t.Error("hash must be stable")
	}
	if HashTag("hat") == HashTag("boot") {
		t.Error("distinct tags collided")
	}
}

func TestParallelFor(t *testing.T) {
	tests := []struct {
		n, chunk int
	}{
		{0, 8},
		{7, 8},
		{100, 8},
		{1000, 64},
	}
	for _, tt := range tests {
		seen := make([]int, tt.n)
		ParallelFor(tt.n, tt.chunk, func(start, end int) {
			for i := start; i < end; i++ {
				seen[i]++
			}
		})
		for i, c := range seen {
			if c != 1 {
				t.Fatalf("n=%d: index %d visited %d times", tt.n, i, c)
			}
		}
	}
}
