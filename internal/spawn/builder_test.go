package spawn_test

import (
	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/spawn"
)

func square(symmetric bool) spawn.Request {
	corners := []mgl64.Vec3{{0, 1, 0}, {0.5, 1, 0}, {0.5, 0.5, 0}, {0, 0.5, 0}}
	req := spawn.Request{Nodes: make([]spawn.Node, 4)}
	for i, c := range corners {
		next := (i + 1) % 4
		prev := (i + 3) % 4
		req.Nodes[i] = spawn.Node{Position: c, Neighbors: []int{next}}
		if symmetric {
			req.Nodes[i].Neighbors = []int{next, prev}
		}
	}
	return req
}

var _ = Describe("Builder", func() {
	var (
		world   *dynamo.World
		cache   *spawn.ResourceCache
		builder *spawn.Builder
	)

	BeforeEach(func() {
		world = dynamo.NewWorld()
		cache = spawn.NewResourceCache()
		builder = spawn.NewBuilder(cache, dynamo.DefaultSettings())
	})

	It("creates one stick per edge of a symmetric square", func() {
		res, err := builder.Build(world, square(true))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Particles).To(HaveLen(4))
		Expect(res.Sticks).To(HaveLen(4))
	})

	It("still creates every edge when declared from one side only", func() {
		res, err := builder.Build(world, square(false))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Sticks).To(HaveLen(4))
	})

	It("sets rest length from the declared positions", func() {
		_, err := builder.Build(world, square(true))
		Expect(err).NotTo(HaveOccurred())
		for _, st := range world.Sticks() {
			Expect(st.RestLength).To(BeNumerically("~", 0.5, 1e-12))
			Expect(st.Thickness).To(Equal(dynamo.DefaultStickSize))
		}
	})

	It("shares one resource per distinct descriptor", func() {
		req := spawn.Request{}
		for i := 0; i < 10; i++ {
			req.Nodes = append(req.Nodes, spawn.Node{Position: mgl64.Vec3{float64(i) * 0.1, 1, 0}})
		}
		_, err := builder.Build(world, req)
		Expect(err).NotTo(HaveOccurred())
		_, err = builder.Build(world, req)
		Expect(err).NotTo(HaveOccurred())

		meshes, materials := cache.Counts()
		Expect(meshes).To(Equal(1))
		Expect(materials).To(Equal(1))

		handles := map[dynamo.Handle]bool{}
		for _, p := range world.Particles() {
			handles[p.Material] = true
		}
		Expect(handles).To(HaveLen(1))
	})

	It("allocates only the descriptors a batch declares", func() {
		red := spawn.Red
		req := square(true)
		for i := range req.Nodes {
			req.Nodes[i].PointMesh = spawn.MeshSphere
			req.Nodes[i].PointMaterial = &red
			req.Nodes[i].ConnectionMesh = []spawn.MeshType{spawn.MeshSphere, spawn.MeshSphere}
			req.Nodes[i].ConnectionMat = []spawn.MaterialType{spawn.Red, spawn.Red}
		}
		res, err := builder.Build(world, req)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Sticks).To(HaveLen(4))

		meshes, materials := cache.Counts()
		Expect(meshes).To(Equal(1))
		Expect(materials).To(Equal(1))
		for _, st := range world.Sticks() {
			Expect(st.Mesh).To(Equal(cache.Mesh(spawn.MeshSphere)))
			Expect(st.Material).To(Equal(cache.Material(spawn.Red)))
		}
	})

	It("resolves neighbors given by position", func() {
		req := spawn.Request{Nodes: []spawn.Node{
			{Position: mgl64.Vec3{0, 1, 0}, NeighborPositions: []mgl64.Vec3{{0.2, 1, 0}}},
			{Position: mgl64.Vec3{0.2, 1, 0}, NeighborPositions: []mgl64.Vec3{{0, 1, 0}}},
		}}
		res, err := builder.Build(world, req)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Sticks).To(HaveLen(1))
	})

	It("hashes attachment tags to stable ids", func() {
		req := spawn.Request{Nodes: []spawn.Node{
			{Position: mgl64.Vec3{0, 1, 0}, Attachment: "hat"},
			{Position: mgl64.Vec3{1, 1, 0}},
		}}
		res, err := builder.Build(world, req)
		Expect(err).NotTo(HaveOccurred())

		tagged, _ := world.Particle(res.Particles[0])
		plain, _ := world.Particle(res.Particles[1])
		Expect(tagged.Attachment).To(Equal(dynamo.HashTag("hat")))
		Expect(plain.Attachment).To(BeZero())
	})

	It("carries the declared initial velocity", func() {
		req := spawn.Request{Nodes: []spawn.Node{
			{Position: mgl64.Vec3{0, 1, 0}, Velocity: mgl64.Vec3{0.01, 0, 0}},
		}}
		res, err := builder.Build(world, req)
		Expect(err).NotTo(HaveOccurred())
		p, _ := world.Particle(res.Particles[0])
		Expect(p.Velocity().ApproxEqual(mgl64.Vec3{0.01, 0, 0})).To(BeTrue())
	})

	Describe("malformed requests", func() {
		It("rejects an unknown neighbor index without touching the world", func() {
			req := square(true)
			req.Nodes[2].Neighbors = append(req.Nodes[2].Neighbors, 9)

			_, err := builder.Build(world, req)
			Expect(err).To(MatchError(dynamo.ErrUnknownNeighbor))

			var spawnErr *dynamo.SpawnError
			Expect(err).To(BeAssignableToTypeOf(spawnErr))
			np, ns := world.Len()
			Expect(np).To(BeZero())
			Expect(ns).To(BeZero())
		})

		It("rejects an unmatched neighbor position", func() {
			req := spawn.Request{Nodes: []spawn.Node{
				{Position: mgl64.Vec3{0, 1, 0}, NeighborPositions: []mgl64.Vec3{{0.3, 1, 0}}},
			}}
			_, err := builder.Build(world, req)
			Expect(err).To(MatchError(dynamo.ErrUnknownNeighbor))
		})

		It("rejects descriptor arrays of the wrong length", func() {
			req := square(true)
			req.Nodes[1].ConnectionSize = []float64{0.01}

			_, err := builder.Build(world, req)
			Expect(err).To(MatchError(dynamo.ErrDescriptorMismatch))
			np, _ := world.Len()
			Expect(np).To(BeZero())
		})
	})
})

var _ = Describe("Buffer", func() {
	It("drains in FIFO order", func() {
		var b spawn.Buffer
		b.Push(spawn.Request{Nodes: make([]spawn.Node, 1)})
		b.Push(spawn.Request{Nodes: make([]spawn.Node, 2)})
		Expect(b.Len()).To(Equal(2))

		out := b.Drain()
		Expect(out).To(HaveLen(2))
		Expect(out[0].Len()).To(Equal(1))
		Expect(out[1].Len()).To(Equal(2))
		Expect(b.Drain()).To(BeEmpty())
	})
})
