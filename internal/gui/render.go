package gui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/interact"
	"github.com/san-kum/verlet/internal/sim"
	"github.com/san-kum/verlet/internal/spawn"
)

func vec3(v mgl64.Vec3) rl.Vector3 {
	return rl.NewVector3(float32(v.X()), float32(v.Y()), float32(v.Z()))
}

func toRay(r rl.Ray) interact.Ray {
	return interact.Ray{
		Origin:    mgl64.Vec3{float64(r.Position.X), float64(r.Position.Y), float64(r.Position.Z)},
		Direction: mgl64.Vec3{float64(r.Direction.X), float64(r.Direction.Y), float64(r.Direction.Z)},
	}
}

func materialColor(m spawn.MaterialType) rl.Color {
	b := func(v float32) uint8 {
		return uint8(min(max(v, 0), 1)*255 + 0.5)
	}
	return rl.NewColor(b(m.Color[0]), b(m.Color[1]), b(m.Color[2]), b(m.Color[3]))
}

// color resolves a material handle, falling back to fallback.
func (a *App) color(h dynamo.Handle, fallback rl.Color) rl.Color {
	if m, ok := a.Sim.Resources().LookupMaterial(h); ok {
		return materialColor(m)
	}
	return fallback
}

func isCuboid(cache *spawn.ResourceCache, h dynamo.Handle) bool {
	m, ok := cache.LookupMesh(h)
	return ok && m == spawn.MeshCuboid
}

func (a *App) drawSim() {
	rl.BeginMode3D(a.Camera)
	a.drawBounds()
	if f := a.Sim.Last(); f != nil {
		a.drawFrame(f)
	}
	rl.EndMode3D()
}

// drawFrame draws sticks as cylinders and particles as spheres or cubes by
// mesh, each in its own material.
func (a *App) drawFrame(f *sim.Frame) {
	pos := make(map[dynamo.ParticleID]rl.Vector3, len(f.Particles))
	for _, p := range f.Particles {
		pos[p.ID] = vec3(p.Position)
	}
	for _, st := range f.Sticks {
		a1, ok1 := pos[st.P1]
		a2, ok2 := pos[st.P2]
		if !ok1 || !ok2 {
			continue
		}
		r := float32(st.Thickness) * 0.5
		rl.DrawCylinderEx(a1, a2, r, r, 6, a.color(st.Material, ColAccent))
	}
	cache := a.Sim.Resources()
	for _, p := range f.Particles {
		c := a.color(p.Material, ColSelect)
		if isCuboid(cache, p.Mesh) {
			side := float32(p.Size) * 2
			rl.DrawCube(pos[p.ID], side, side, side, c)
			continue
		}
		rl.DrawSphere(pos[p.ID], float32(p.Size), c)
	}
}

// drawBounds outlines the floor and walls of the current world.
func (a *App) drawBounds() {
	b := a.Sim.Settings().Bounds
	center := rl.NewVector3(0, float32(b.Y.Half()), 0)
	rl.DrawCubeWires(center, float32(b.X.Extent), float32(b.Y.Extent), float32(b.Z.Extent), ColGrid)
	hx, hz := float32(b.X.Half()), float32(b.Z.Half())
	for i := -4; i <= 4; i++ {
		x := hx * float32(i) / 4
		rl.DrawLine3D(rl.NewVector3(x, 0, -hz), rl.NewVector3(x, 0, hz), ColGrid)
	}
}
