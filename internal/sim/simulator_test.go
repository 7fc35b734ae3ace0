package sim_test

import (
	"context"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/interact"
	"github.com/san-kum/verlet/internal/models"
	"github.com/san-kum/verlet/internal/sim"
	"github.com/san-kum/verlet/internal/spawn"
)

const dt = 1.0 / 60.0

func point(x, y float64) spawn.Request {
	return spawn.Request{Nodes: []spawn.Node{{Position: mgl64.Vec3{x, y, 0}}}}
}

func pair(a, b mgl64.Vec3) spawn.Request {
	return spawn.Request{Nodes: []spawn.Node{
		{Position: a, Neighbors: []int{1}},
		{Position: b, Neighbors: []int{0}},
	}}
}

func down(x, y float64) *interact.Ray {
	r := interact.NewRay(mgl64.Vec3{x, y, 4}, mgl64.Vec3{x, y, 0})
	return &r
}

type countMetric struct{ ticks, changed float64 }

func (c *countMetric) Name() string { return "count" }
func (c *countMetric) Observe(_ *dynamo.World, changed bool) {
	c.ticks++
	if changed {
		c.changed++
	}
}
func (c *countMetric) Value() float64 { return c.ticks }
func (c *countMetric) Reset()         { c.ticks, c.changed = 0, 0 }

var _ = Describe("Simulator", func() {
	var (
		settings dynamo.Settings
		s        *sim.Simulator
	)

	BeforeEach(func() {
		settings = dynamo.DefaultSettings()
	})

	JustBeforeEach(func() {
		var err error
		s, err = sim.New(sim.Options{Settings: settings, Seed: 1})
		Expect(err).NotTo(HaveOccurred())
	})

	tick := func() *sim.Frame {
		f, err := s.Tick(dt)
		Expect(err).NotTo(HaveOccurred())
		return f
	}

	Context("with invalid settings", func() {
		BeforeEach(func() {
			settings.AirResistance = 2
		})

		It("refuses to start", func() {
			_, err := sim.New(sim.Options{Settings: settings})
			Expect(err).To(MatchError(dynamo.ErrParameterBounds))
		})
	})

	It("keeps a hanging rope anchored and inside the walls", func() {
		anchor := mgl64.Vec3{0, 1, 0}
		s.SubmitSpawn(models.NewRope().Request(anchor, settings))
		for i := 0; i < 240; i++ {
			tick()
		}

		n, sticks := s.World().Len()
		Expect(n).To(Equal(61))
		Expect(sticks).To(Equal(60))

		root, ok := s.World().Particle(1)
		Expect(ok).To(BeTrue())
		Expect(root.Position).To(Equal(anchor))

		half := settings.Bounds.X.Half()
		for _, p := range s.World().Particles() {
			Expect(p.IsValid()).To(BeTrue())
			Expect(math.Abs(p.Position.X())).To(BeNumerically("<=", half+0.1))
			Expect(p.Position.Y()).To(BeNumerically(">=", -0.1))
		}
	})

	It("does not integrate while paused", func() {
		s.SubmitSpawn(point(0, 1))
		tick()
		s.SubmitPlayState(sim.Pause)
		f := tick()
		p, _ := s.World().Particle(1)
		before := p.Position

		f = tick()
		Expect(f.State).To(Equal("paused"))
		Expect(f.Changed).To(BeFalse())
		Expect(p.Position).To(Equal(before))

		s.SubmitPlayState(sim.Play)
		f = tick()
		Expect(f.State).To(Equal("running"))
		Expect(p.Position.Y()).To(BeNumerically("<", before.Y()))
	})

	It("clears the world on reset and resumes", func() {
		s.SubmitSpawn(models.NewSquare().Request(mgl64.Vec3{0, 1, 0}, settings))
		tick()
		s.SubmitPlayState(sim.Pause)
		tick()

		s.SubmitPlayState(sim.Reset)
		f := tick()
		n, sticks := s.World().Len()
		Expect(n).To(BeZero())
		Expect(sticks).To(BeZero())
		Expect(f.Changed).To(BeTrue())
		Expect(f.State).To(Equal("running"))
		Expect(f.Particles).To(BeEmpty())
	})

	It("follows the viewport aspect ratio", func() {
		s.Resize(1600, 800)
		f := tick()
		b := s.Settings().Bounds
		Expect(b.X.Extent).To(BeNumerically("~", 2*b.Y.Extent, 1e-12))
		Expect(f.Changed).To(BeTrue())
	})

	It("despawns networks that leave the world", func() {
		s.SubmitSpawn(pair(mgl64.Vec3{6000, 1, 0}, mgl64.Vec3{0, 1, 0}))
		s.SubmitSpawn(point(0.5, 1))
		tick()
		n, sticks := s.World().Len()
		Expect(n).To(Equal(1))
		Expect(sticks).To(BeZero())
		_, ok := s.World().Particle(3)
		Expect(ok).To(BeTrue())
	})

	It("applies a failing batch atomically and reports it", func() {
		s.SubmitSpawn(spawn.Request{Nodes: []spawn.Node{{Neighbors: []int{5}}}})
		s.SubmitSpawn(point(0, 1))
		_, err := s.Tick(dt)
		Expect(err).To(MatchError(dynamo.ErrUnknownNeighbor))

		n, _ := s.World().Len()
		Expect(n).To(Equal(1))
	})

	It("cuts sticks through pointer events", func() {
		s.SubmitSpawn(pair(mgl64.Vec3{-0.2, 1, 0}, mgl64.Vec3{0.2, 1, 0}))
		tick()

		s.SubmitTarget(interact.Cut)
		s.SubmitEvent(interact.Event{Kind: interact.Press, Ray: down(0, 5)})
		s.SubmitEvent(interact.Event{Kind: interact.Move, Ray: down(0, 1)})
		f := tick()

		Expect(f.State).To(Equal("paused"))
		Expect(f.Changed).To(BeTrue())
		Expect(f.Sticks).To(BeEmpty())
		n, sticks := s.World().Len()
		Expect(n).To(Equal(2))
		Expect(sticks).To(BeZero())
		Expect(s.Target()).To(Equal(interact.Cutting))
	})

	Context("resting on the floor", func() {
		const fine = 1.0 / 120.0

		for _, shape := range []string{"point", "square"} {
			It("only forces renders once a dropped "+shape+" settles", func() {
				Expect(s.SpawnShape(shape, mgl64.Vec3{0, 1, 0})).To(Succeed())

				changed := 0
				for i := 0; i < 3000; i++ {
					f, err := s.Tick(fine)
					Expect(err).NotTo(HaveOccurred())
					if i >= 2500 && f.Changed {
						changed++
					}
				}
				forced := 500/int(settings.MaxUnchangedFrames+1) + 1
				Expect(changed).To(BeNumerically("<=", forced))

				lowest := math.Inf(1)
				for _, p := range s.World().Particles() {
					lowest = math.Min(lowest, p.Position.Y())
				}
				Expect(lowest).To(BeNumerically("<", settings.FloorEpsilon*10))
			})
		}
	})

	Context("without gravity", func() {
		BeforeEach(func() {
			settings.Gravity = mgl64.Vec3{}
		})

		It("stops publishing geometry once the world is at rest", func() {
			s.SubmitSpawn(point(0, 1))
			first := tick()
			Expect(first.Changed).To(BeTrue())

			for i := 0; i < 50; i++ {
				f := tick()
				Expect(f.Changed).To(BeFalse())
				Expect(f.Particles).To(Equal(first.Particles))
			}
		})

		It("reports and overrides the selected particle", func() {
			s.SubmitSpawn(point(0, 1))
			tick()

			s.SubmitTarget(interact.PointInfo)
			s.SubmitEvent(interact.Event{Kind: interact.Press, Ray: down(0, 1)})
			f := tick()
			Expect(f.PointInfo).NotTo(BeNil())
			info, ok := s.PointInfo()
			Expect(ok).To(BeTrue())
			Expect(info.ID).To(Equal(dynamo.ParticleID(1)))
			Expect(info.Position.ApproxEqual(mgl64.Vec3{0, 1, 0})).To(BeTrue())

			v := mgl64.Vec3{0.01, 0, 0}
			s.SetPointInfo(sim.SetPointInfo{Velocity: &v})
			s.SubmitPlayState(sim.Play)
			tick()
			info, _ = s.PointInfo()
			Expect(info.Velocity.X()).To(BeNumerically("~", 0.01*settings.AirResistance, 1e-9))

			moving := info.Velocity
			to := mgl64.Vec3{0.5, 1, 0}
			s.SubmitPlayState(sim.Pause)
			s.SetPointInfo(sim.SetPointInfo{Position: &to})
			f = tick()
			Expect(f.Changed).To(BeTrue())
			info, _ = s.PointInfo()
			Expect(info.Position.ApproxEqual(to)).To(BeTrue())
			Expect(info.Velocity.ApproxEqual(moving)).To(BeTrue())
		})

		Context("with a short render timeout", func() {
			BeforeEach(func() {
				settings.MaxUnchangedFrames = 3
			})

			It("forces a render after enough quiet ticks", func() {
				s.SubmitSpawn(point(0, 1))
				tick()
				changed := 0
				for i := 0; i < 10; i++ {
					if tick().Changed {
						changed++
					}
				}
				Expect(changed).To(Equal(2))
			})
		})
	})

	Describe("Run", func() {
		It("runs the configured number of ticks and reports metrics", func() {
			m := &countMetric{}
			s.AddMetric(m)
			s.SubmitSpawn(point(0, 1))

			res, err := s.Run(context.Background(), sim.Config{Dt: dt, Ticks: 10, ValidateState: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Ticks).To(Equal(10))
			Expect(res.Metrics).To(HaveKeyWithValue("count", 10.0))
			Expect(res.ChangedTicks).To(BeNumerically(">", 0))
			Expect(res.Last.Tick).To(Equal(uint64(10)))
		})

		It("stops when the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := s.Run(ctx, sim.Config{Dt: dt, Ticks: 10})
			Expect(err).To(MatchError(context.Canceled))
		})

		It("rejects a non-positive dt", func() {
			_, err := s.Run(context.Background(), sim.Config{Ticks: 1})
			Expect(err).To(HaveOccurred())
		})

		It("stops when the callback declines", func() {
			seen := 0
			err := s.RunWithCallback(context.Background(), sim.Config{Dt: dt}, func(*sim.Frame, error) bool {
				seen++
				return seen < 5
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(seen).To(Equal(5))
		})
	})

	It("spawns registered shapes by name", func() {
		Expect(s.SpawnShape("square", mgl64.Vec3{0, 1, 0})).To(Succeed())
		Expect(s.SpawnShape("torus", mgl64.Vec3{})).NotTo(Succeed())
		tick()
		n, sticks := s.World().Len()
		Expect(n).To(Equal(4))
		Expect(sticks).To(Equal(5))
	})
})

var _ = Describe("Ensemble", func() {
	It("runs independent seeded copies", func() {
		opts := sim.Options{Settings: dynamo.DefaultSettings()}
		e := sim.NewEnsemble(opts, 3, 7, func(s *sim.Simulator) {
			s.SubmitSpawn(models.NewCloth().Request(mgl64.Vec3{}, s.Settings()))
			s.AddMetric(&countMetric{})
		})
		results, err := e.Run(context.Background(), sim.Config{Dt: dt, Ticks: 5})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))
		for _, r := range results {
			Expect(r.Ticks).To(Equal(5))
			Expect(r.Metrics["count"]).To(Equal(5.0))
		}
	})

	It("fails fast on invalid settings", func() {
		opts := sim.Options{Settings: dynamo.DefaultSettings()}
		opts.Settings.AirResistance = -1
		e := sim.NewEnsemble(opts, 4, 0, nil)
		e.SetWorkers(1)
		_, err := e.Run(context.Background(), sim.Config{Dt: dt, Ticks: 5})
		Expect(err).To(MatchError(dynamo.ErrParameterBounds))
	})
})
