package interact

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Ray is a half line. Direction need not be unit length.
type Ray struct {
	Origin    mgl64.Vec3 `json:"origin" yaml:"origin"`
	Direction mgl64.Vec3 `json:"direction" yaml:"direction"`
}

// NewRay returns a ray through from and to.
func NewRay(from, to mgl64.Vec3) Ray {
	return Ray{Origin: from, Direction: to.Sub(from)}
}

func (r Ray) unit() (mgl64.Vec3, bool) {
	l := r.Direction.Len()
	if l == 0 {
		return mgl64.Vec3{}, false
	}
	return r.Direction.Mul(1 / l), true
}

// Hits reports whether p lies within tol of the ray and not behind its origin.
func (r Ray) Hits(p mgl64.Vec3, tol float64) bool {
	_, ok := r.Distance(p, tol)
	return ok
}

// Distance returns how far along the ray p projects, if p is a hit.
func (r Ray) Distance(p mgl64.Vec3, tol float64) (float64, bool) {
	dir, ok := r.unit()
	if !ok {
		return 0, false
	}
	toP := p.Sub(r.Origin)
	along := toP.Dot(dir)
	if along < 0 {
		return 0, false
	}
	closest := r.Origin.Add(dir.Mul(along))
	return along, closest.Sub(p).LenSqr() <= tol*tol
}

// AtZ intersects the ray with the plane z = target.
func (r Ray) AtZ(target float64) (mgl64.Vec3, bool) {
	dz := r.Direction.Z()
	if math.Abs(dz) < 1e-7 {
		return mgl64.Vec3{}, false
	}
	t := (target - r.Origin.Z()) / dz
	return r.Origin.Add(r.Direction.Mul(t)), true
}

// SampleSegment returns points from start to end, spacing apart, always
// including both ends. A zero-length segment yields just start.
func SampleSegment(start, end mgl64.Vec3, spacing float64) []mgl64.Vec3 {
	delta := end.Sub(start)
	length := delta.Len()
	if length == 0 || spacing <= 0 {
		return []mgl64.Vec3{start}
	}
	dir := delta.Mul(1 / length)
	pts := []mgl64.Vec3{start}
	for d := spacing; d < length; d += spacing {
		pts = append(pts, start.Add(dir.Mul(d)))
	}
	return append(pts, end)
}
