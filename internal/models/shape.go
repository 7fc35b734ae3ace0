package models

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/spawn"
)

// Shape builds a mesh network around a world position.
type Shape interface {
	Name() string
	Request(at mgl64.Vec3, s dynamo.Settings) spawn.Request
}

var registry = map[string]func() Shape{
	"point":  func() Shape { return NewPoint() },
	"rope":   func() Shape { return NewRope() },
	"square": func() Shape { return NewSquare() },
	"cube":   func() Shape { return NewCube() },
	"cloth":  func() Shape { return NewCloth() },
}

func Get(name string) (Shape, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown shape %q", name)
	}
	return f(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// fromEdges turns a position list and undirected edge list into a request
// with symmetric neighbor declarations.
func fromEdges(positions []mgl64.Vec3, edges [][2]int, s dynamo.Settings) spawn.Request {
	adj := make([][]int, len(positions))
	for _, e := range edges {
		adj[e[0]] = append(adj[e[0]], e[1])
		adj[e[1]] = append(adj[e[1]], e[0])
	}

	req := spawn.Request{Nodes: make([]spawn.Node, len(positions))}
	for i, pos := range positions {
		n := len(adj[i])
		mat := spawn.White
		req.Nodes[i] = spawn.Node{
			Position:       pos,
			Neighbors:      adj[i],
			ConnectionMesh: repeat(spawn.MeshCuboid, n),
			ConnectionMat:  repeat(spawn.LineWhite, n),
			ConnectionSize: repeat(s.StickSize, n),
			PointMesh:      spawn.MeshSphere,
			PointMaterial:  &mat,
			PointSize:      s.PointSize,
		}
	}
	return req
}

func repeat[T any](v T, n int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// lock pins node i and paints it red.
func lock(req *spawn.Request, i int) {
	red := spawn.Red
	req.Nodes[i].Locked = true
	req.Nodes[i].PointMaterial = &red
}
