package viz

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/sim"
)

// Camera projects world positions onto a canvas. With no rotation it looks
// down -z at the z=0 plane, so the screen shows the same view as the
// default simulation camera.
type Camera struct {
	Center     mgl64.Vec3
	Distance   float64
	HalfHeight float64
	RotX, RotY float64
	Zoom       float64
}

// NewCamera frames a world whose visible half height is halfHeight,
// centred on center.
func NewCamera(center mgl64.Vec3, distance, halfHeight float64) *Camera {
	return &Camera{Center: center, Distance: distance, HalfHeight: halfHeight, Zoom: 1}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }
func (c *Camera) ResetView()        { c.RotX, c.RotY, c.Zoom = 0, 0, 1 }

// Flat reports whether the camera looks straight down -z.
func (c *Camera) Flat() bool { return c.RotX == 0 && c.RotY == 0 }

func (c *Camera) rotation() mgl64.Quat {
	return mgl64.QuatRotate(c.RotY, mgl64.Vec3{0, 1, 0}).Mul(mgl64.QuatRotate(c.RotX, mgl64.Vec3{1, 0, 0}))
}

// Project maps p to dot coordinates on a sw by sh dot surface. It returns
// the view depth and whether the dot falls on the surface.
func (c *Camera) Project(p mgl64.Vec3, sw, sh int) (int, int, float64, bool) {
	rel := c.rotation().Rotate(p.Sub(c.Center))
	depth := c.Distance - rel.Z()
	if depth <= 1e-3 {
		return 0, 0, depth, false
	}
	persp := c.Distance / depth * c.Zoom
	scale := float64(sh) / (2 * c.HalfHeight)
	sx := int(math.Round(rel.X()*persp*scale)) + sw/2
	sy := sh/2 - int(math.Round(rel.Y()*persp*scale))
	return sx, sy, depth, sx >= 0 && sx < sw && sy >= 0 && sy < sh
}

// Unproject inverts Project for the z=0 plane of a flat camera.
func (c *Camera) Unproject(sx, sy, sw, sh int) mgl64.Vec3 {
	scale := float64(sh) / (2 * c.HalfHeight) * c.Zoom
	return mgl64.Vec3{
		c.Center.X() + float64(sx-sw/2)/scale,
		c.Center.Y() + float64(sh/2-sy)/scale,
		0,
	}
}

type segment struct {
	x1, y1, x2, y2 int
	depth          float64
}

// RenderFrame draws sticks as lines and particles as dots, far to near.
// Locked particles get a cross.
func RenderFrame(cv *Canvas, f *sim.Frame, cam *Camera) {
	if cv == nil || f == nil || cam == nil {
		return
	}
	sw, sh := cv.Dots()

	pos := make(map[dynamo.ParticleID][2]int, len(f.Particles))
	for _, p := range f.Particles {
		x, y, d, _ := cam.Project(p.Position, sw, sh)
		if d > 1e-3 {
			pos[p.ID] = [2]int{x, y}
		}
	}

	segs := make([]segment, 0, len(f.Sticks))
	for _, st := range f.Sticks {
		a, okA := pos[st.P1]
		b, okB := pos[st.P2]
		if !okA || !okB {
			continue
		}
		_, _, d, _ := cam.Project(st.Midpoint, sw, sh)
		segs = append(segs, segment{a[0], a[1], b[0], b[1], d})
	}
	sort.Slice(segs, func(i, j int) bool { return segs[i].depth > segs[j].depth })
	for _, s := range segs {
		cv.DrawLine(s.x1, s.y1, s.x2, s.y2)
	}

	for _, p := range f.Particles {
		xy, ok := pos[p.ID]
		if !ok {
			continue
		}
		if p.Locked {
			cv.DrawCross(xy[0], xy[1], 2)
		} else {
			cv.Set(xy[0], xy[1])
		}
	}
}

// RenderBounds outlines the floor line and side walls of the z=0 plane.
func RenderBounds(cv *Canvas, cam *Camera, halfX, height float64) {
	sw, sh := cv.Dots()
	corners := []mgl64.Vec3{{-halfX, 0, 0}, {halfX, 0, 0}, {halfX, height, 0}, {-halfX, height, 0}}
	pts := make([][2]int, len(corners))
	for i, c := range corners {
		x, y, _, _ := cam.Project(c, sw, sh)
		pts[i] = [2]int{x, y}
	}
	cv.DrawLine(pts[3][0], pts[3][1], pts[0][0], pts[0][1])
	cv.DrawLine(pts[0][0], pts[0][1], pts[1][0], pts[1][1])
	cv.DrawLine(pts[1][0], pts[1][1], pts[2][0], pts[2][1])
}
