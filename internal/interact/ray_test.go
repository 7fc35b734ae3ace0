package interact

import (
	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Ray", func() {
	ray := Ray{Origin: mgl64.Vec3{0, 1, 4}, Direction: mgl64.Vec3{0, 0, -1}}

	DescribeTable("proximity",
		func(p mgl64.Vec3, hit bool) {
			Expect(ray.Hits(p, 0.03)).To(Equal(hit))
		},
		Entry("on the ray", mgl64.Vec3{0, 1, 0}, true),
		Entry("within tolerance", mgl64.Vec3{0.02, 1, 0}, true),
		Entry("outside tolerance", mgl64.Vec3{0.05, 1, 0}, false),
		Entry("behind the origin", mgl64.Vec3{0, 1, 5}, false),
	)

	It("intersects the z plane", func() {
		at, ok := ray.AtZ(0)
		Expect(ok).To(BeTrue())
		Expect(at.ApproxEqual(mgl64.Vec3{0, 1, 0})).To(BeTrue())
	})

	It("misses a parallel plane", func() {
		flat := Ray{Origin: mgl64.Vec3{0, 1, 4}, Direction: mgl64.Vec3{1, 0, 0}}
		_, ok := flat.AtZ(0)
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("SampleSegment", func() {
	It("includes both ends", func() {
		pts := SampleSegment(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0.1, 0, 0}, 0.03)
		Expect(pts).To(HaveLen(5))
		Expect(pts[0]).To(Equal(mgl64.Vec3{0, 0, 0}))
		Expect(pts[len(pts)-1]).To(Equal(mgl64.Vec3{0.1, 0, 0}))
	})

	It("returns a single point for a degenerate segment", func() {
		p := mgl64.Vec3{1, 2, 3}
		Expect(SampleSegment(p, p, 0.03)).To(Equal([]mgl64.Vec3{p}))
	})
})
