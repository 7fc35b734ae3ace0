package attach

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Pose is a rigid transform: rotate, then translate.
type Pose struct {
	Translation mgl64.Vec3 `json:"translation" yaml:"translation"`
	Rotation    mgl64.Quat `json:"rotation" yaml:"rotation"`
}

func Identity() Pose {
	return Pose{Rotation: mgl64.QuatIdent()}
}

// Apply maps a point through the pose.
func (p Pose) Apply(v mgl64.Vec3) mgl64.Vec3 {
	return p.Rotation.Rotate(v).Add(p.Translation)
}

// Compose returns p∘q: q is applied first.
func (p Pose) Compose(q Pose) Pose {
	rot := p.Rotation.Mul(q.Rotation).Normalize()
	return Pose{
		Translation: p.Translation.Add(p.Rotation.Rotate(q.Translation)),
		Rotation:    rot,
	}
}

func (p Pose) ApproxEqual(q Pose, eps float64) bool {
	if !p.Translation.ApproxEqualThreshold(q.Translation, eps) {
		return false
	}
	// q and -q encode the same rotation.
	d := math.Abs(p.Rotation.Dot(q.Rotation))
	return math.Abs(d-1) <= eps
}

// between returns the shortest rotation taking a onto b. Both must be unit
// length.
func between(a, b mgl64.Vec3) mgl64.Quat {
	if a.Dot(b) > -0.99 {
		return mgl64.QuatBetweenVectors(a, b)
	}
	// Nearly opposite: flip about an exact perpendicular first.
	axis := a.Cross(mgl64.Vec3{1, 0, 0})
	if axis.LenSqr() < 1e-6 {
		axis = a.Cross(mgl64.Vec3{0, 1, 0})
	}
	flip := mgl64.QuatRotate(math.Pi, axis.Normalize())
	return mgl64.QuatBetweenVectors(flip.Rotate(a), b).Mul(flip).Normalize()
}
