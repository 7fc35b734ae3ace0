package interact

import (
	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/spawn"
)

// down returns a ray looking at (x, y) on the z=0 plane from the camera.
func down(x, y float64) *Ray {
	r := NewRay(mgl64.Vec3{x, y, 4}, mgl64.Vec3{x, y, 0})
	return &r
}

var _ = Describe("Editor", func() {
	var (
		world    *dynamo.World
		settings dynamo.Settings
		cache    *spawn.ResourceCache
		editor   *Editor
	)

	BeforeEach(func() {
		world = dynamo.NewWorld()
		settings = dynamo.DefaultSettings()
		cache = spawn.NewResourceCache()
		editor = NewEditor(cache)
	})

	press := func(r *Ray) Outcome {
		out, err := editor.Apply(world, &settings, Event{Kind: Press, Ray: r})
		Expect(err).NotTo(HaveOccurred())
		return out
	}

	It("pauses for every target but None", func() {
		Expect(editor.SetTarget(Lock)).To(BeTrue())
		Expect(editor.SetTarget(None)).To(BeFalse())
	})

	It("drops events without a ray", func() {
		editor.SetTarget(Point)
		out := press(nil)
		Expect(out.Spawns).To(BeEmpty())
	})

	It("spawns a point where the ray meets z=0", func() {
		editor.SetTarget(Point)
		out := press(down(0.3, 1))
		Expect(out.Spawns).To(HaveLen(1))
		Expect(out.Spawns[0].Nodes[0].Position.ApproxEqual(mgl64.Vec3{0.3, 1, 0})).To(BeTrue())
	})

	It("spawns a rope at the pointer", func() {
		editor.SetTarget(SpawnRope)
		out := press(down(0, 1))
		Expect(out.Spawns).To(HaveLen(1))
		Expect(out.Spawns[0].Nodes).To(HaveLen(61))
	})

	It("toggles locks and recolours", func() {
		id := world.AddParticle(dynamo.NewParticle(mgl64.Vec3{0.5, 1, 0}))
		editor.SetTarget(Lock)

		Expect(press(down(0.5, 1)).Changed).To(BeTrue())
		p, _ := world.Particle(id)
		Expect(p.Locked).To(BeTrue())
		Expect(p.Material).To(Equal(cache.Material(spawn.Red)))

		press(down(0.5, 1))
		Expect(p.Locked).To(BeFalse())
		Expect(p.Material).To(Equal(cache.Material(spawn.White)))
	})

	It("ignores presses that miss every particle", func() {
		world.AddParticle(dynamo.NewParticle(mgl64.Vec3{0.5, 1, 0}))
		editor.SetTarget(Lock)
		Expect(press(down(-0.5, 1)).Changed).To(BeFalse())
	})

	Describe("line connection", func() {
		var a, b dynamo.ParticleID

		BeforeEach(func() {
			a = world.AddParticle(dynamo.NewParticle(mgl64.Vec3{0, 1, 0}))
			b = world.AddParticle(dynamo.NewParticle(mgl64.Vec3{0.4, 1, 0}))
			editor.SetTarget(Line)
		})

		It("links two clicked particles", func() {
			Expect(press(down(0, 1)).Changed).To(BeFalse())
			Expect(press(down(0.4, 1)).Changed).To(BeTrue())

			sticks := world.Sticks()
			Expect(sticks).To(HaveLen(1))
			Expect(sticks[0].P1).To(Equal(a))
			Expect(sticks[0].P2).To(Equal(b))
			Expect(sticks[0].RestLength).To(BeNumerically("~", 0.4, 1e-12))
		})

		It("rejects a connection that was never cleared", func() {
			editor.lineA, editor.lineB = a, b
			c := world.AddParticle(dynamo.NewParticle(mgl64.Vec3{-0.4, 1, 0}))
			_, err := editor.Apply(world, &settings, Event{Kind: Press, Ray: down(-0.4, 1)})
			Expect(err).To(MatchError(dynamo.ErrLineNotCleared))
			Expect(c).NotTo(BeZero())
		})

		It("starts over when Line is selected again", func() {
			press(down(0, 1))
			editor.SetTarget(Line)
			Expect(editor.lineA).To(BeZero())
		})
	})

	Describe("cut gesture", func() {
		var a, b dynamo.ParticleID

		BeforeEach(func() {
			a = world.AddParticle(dynamo.NewParticle(mgl64.Vec3{-0.2, 1, 0}))
			b = world.AddParticle(dynamo.NewParticle(mgl64.Vec3{0.2, 1, 0}))
			_, err := world.AddStick(dynamo.Stick{P1: a, P2: b, RestLength: 0.4})
			Expect(err).NotTo(HaveOccurred())
			editor.SetTarget(Cut)
		})

		It("removes the crossed stick and keeps its endpoints", func() {
			press(down(0, 1.5))
			Expect(editor.Target()).To(Equal(Cutting))

			out, err := editor.Apply(world, &settings, Event{Kind: Move, Ray: down(0, 1.2)})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Changed).To(BeFalse())

			out, err = editor.Apply(world, &settings, Event{Kind: Move, Ray: down(0.01, 1)})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Changed).To(BeTrue())

			np, ns := world.Len()
			Expect(np).To(Equal(2))
			Expect(ns).To(BeZero())

			_, err = editor.Apply(world, &settings, Event{Kind: Release, Ray: down(0, 0.5)})
			Expect(err).NotTo(HaveOccurred())
			Expect(editor.Target()).To(Equal(Cut))
		})

		It("does nothing on move before the press", func() {
			out, err := editor.Apply(world, &settings, Event{Kind: Move, Ray: down(0, 1)})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Changed).To(BeFalse())
		})
	})

	It("deletes particles on the ray with their sticks", func() {
		a := world.AddParticle(dynamo.NewParticle(mgl64.Vec3{0, 1, 0}))
		b := world.AddParticle(dynamo.NewParticle(mgl64.Vec3{0.3, 1, 0}))
		world.AddStick(dynamo.Stick{P1: a, P2: b, RestLength: 0.3})
		editor.SetTarget(Delete)

		Expect(press(down(0, 1)).Changed).To(BeTrue())
		np, ns := world.Len()
		Expect(np).To(Equal(1))
		Expect(ns).To(BeZero())
	})

	It("selects the nearest particle for telemetry", func() {
		far := dynamo.NewParticle(mgl64.Vec3{0, 1, -1})
		world.AddParticle(far)
		near := world.AddParticle(dynamo.NewParticle(mgl64.Vec3{0, 1, 0}))
		editor.SetTarget(PointInfo)

		press(down(0, 1))
		got, ok := editor.Selected()
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(near))

		world.RemoveParticle(near)
		editor.Forget(world)
		_, ok = editor.Selected()
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Target", func() {
	It("round-trips through text", func() {
		for t := range targetNames {
			b, err := t.MarshalText()
			Expect(err).NotTo(HaveOccurred())
			var back Target
			Expect(back.UnmarshalText(b)).To(Succeed())
			Expect(back).To(Equal(t))
		}
	})
})
