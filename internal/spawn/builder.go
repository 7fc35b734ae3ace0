package spawn

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/verlet/internal/dynamo"
)

type Result struct {
	Particles []dynamo.ParticleID
	Sticks    []dynamo.StickID
}

// Builder turns requests into particles and sticks.
type Builder struct {
	Cache     *ResourceCache
	PointSize float64
	StickSize float64
}

func NewBuilder(cache *ResourceCache, s dynamo.Settings) *Builder {
	if cache == nil {
		cache = NewResourceCache()
	}
	return &Builder{Cache: cache, PointSize: s.PointSize, StickSize: s.StickSize}
}

type edge struct {
	a, b int
	conn int // index into the declaring node's connection slices
}

type plan struct {
	edges []edge
}

// Build validates the whole request and then instantiates it. A request with
// a bad neighbor reference or mismatched descriptors leaves w untouched.
func (b *Builder) Build(w *dynamo.World, req Request) (*Result, error) {
	p, err := b.plan(req)
	if err != nil {
		return nil, err
	}

	res := &Result{Particles: make([]dynamo.ParticleID, len(req.Nodes))}
	for i, n := range req.Nodes {
		pt := dynamo.NewParticle(n.Position)
		pt.SetVelocity(n.Velocity)
		pt.Locked = n.Locked
		pt.Size = n.PointSize
		if pt.Size == 0 {
			pt.Size = b.PointSize
		}
		mat := White
		if n.PointMaterial != nil {
			mat = *n.PointMaterial
		}
		pt.Mesh = b.Cache.Mesh(n.PointMesh)
		pt.Material = b.Cache.Material(mat)
		pt.Attachment = dynamo.HashTag(n.Attachment)
		res.Particles[i] = w.AddParticle(pt)
	}

	for _, e := range p.edges {
		n := req.Nodes[e.a]
		st := dynamo.Stick{
			P1:         res.Particles[e.a],
			P2:         res.Particles[e.b],
			RestLength: req.Nodes[e.b].Position.Sub(n.Position).Len(),
			Thickness:  b.StickSize,
		}
		if n.ConnectionSize != nil {
			st.Thickness = n.ConnectionSize[e.conn]
		}
		mesh, mat := MeshCuboid, White
		if n.ConnectionMesh != nil {
			mesh = n.ConnectionMesh[e.conn]
		}
		if n.ConnectionMat != nil {
			mat = n.ConnectionMat[e.conn]
		}
		st.Mesh = b.Cache.Mesh(mesh)
		st.Material = b.Cache.Material(mat)
		id, err := w.AddStick(st)
		if err != nil {
			return res, err
		}
		res.Sticks = append(res.Sticks, id)
	}
	return res, nil
}

// plan resolves every reference and collects one edge per unordered pair.
// When both endpoints declare a connection the lower index wins, so its
// descriptors are used.
func (b *Builder) plan(req Request) (*plan, error) {
	byPos := make(map[mgl64.Vec3]int, len(req.Nodes))
	for i, n := range req.Nodes {
		if _, ok := byPos[n.Position]; !ok {
			byPos[n.Position] = i
		}
	}

	p := &plan{}
	seen := make(map[[2]int]struct{})
	for i, n := range req.Nodes {
		count := len(n.Neighbors) + len(n.NeighborPositions)
		if !descriptorsMatch(n, count) {
			return nil, &dynamo.SpawnError{Node: i, Neighbor: -1, Wrapped: dynamo.ErrDescriptorMismatch}
		}

		targets := make([]int, 0, count)
		for k, j := range n.Neighbors {
			if j < 0 || j >= len(req.Nodes) {
				return nil, &dynamo.SpawnError{Node: i, Neighbor: k, Wrapped: dynamo.ErrUnknownNeighbor}
			}
			targets = append(targets, j)
		}
		for k, pos := range n.NeighborPositions {
			j, ok := byPos[pos]
			if !ok {
				return nil, &dynamo.SpawnError{Node: i, Neighbor: len(n.Neighbors) + k, Wrapped: dynamo.ErrUnknownNeighbor}
			}
			targets = append(targets, j)
		}

		for k, j := range targets {
			if j == i {
				continue
			}
			key := [2]int{min(i, j), max(i, j)}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			p.edges = append(p.edges, edge{a: i, b: j, conn: k})
		}
	}
	return p, nil
}

func descriptorsMatch(n Node, count int) bool {
	if n.ConnectionMesh != nil && len(n.ConnectionMesh) != count {
		return false
	}
	if n.ConnectionMat != nil && len(n.ConnectionMat) != count {
		return false
	}
	if n.ConnectionSize != nil && len(n.ConnectionSize) != count {
		return false
	}
	return true
}
