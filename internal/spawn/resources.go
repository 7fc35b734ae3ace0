package spawn

import (
	"fmt"
	"sync"

	"github.com/san-kum/verlet/internal/dynamo"
)

type MeshType int

const (
	MeshSphere MeshType = iota
	MeshCuboid
)

func (m MeshType) String() string {
	switch m {
	case MeshSphere:
		return "sphere"
	case MeshCuboid:
		return "cuboid"
	default:
		return fmt.Sprintf("mesh(%d)", int(m))
	}
}

func (m MeshType) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MeshType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "sphere", "":
		*m = MeshSphere
	case "cuboid":
		*m = MeshCuboid
	default:
		return fmt.Errorf("unknown mesh type %q", b)
	}
	return nil
}

// MaterialType describes a flat RGBA material.
type MaterialType struct {
	Color [4]float32 `json:"color" yaml:"color"`
}

func Color(r, g, b, a float32) MaterialType {
	return MaterialType{Color: [4]float32{r, g, b, a}}
}

var (
	White     = Color(1, 1, 1, 1)
	Red       = Color(1, 0, 0, 1)
	LineWhite = Color(1, 1, 1, 0.5)
)

// ResourceCache hands out one shared handle per distinct descriptor. It
// outlives individual batches so a shape spawned twice reuses its resources.
type ResourceCache struct {
	mu        sync.Mutex
	meshes    map[MeshType]dynamo.Handle
	materials map[MaterialType]dynamo.Handle
	meshByH   map[dynamo.Handle]MeshType
	matByH    map[dynamo.Handle]MaterialType
	next      dynamo.Handle
}

func NewResourceCache() *ResourceCache {
	return &ResourceCache{
		meshes:    make(map[MeshType]dynamo.Handle),
		materials: make(map[MaterialType]dynamo.Handle),
		meshByH:   make(map[dynamo.Handle]MeshType),
		matByH:    make(map[dynamo.Handle]MaterialType),
		next:      1,
	}
}

func (c *ResourceCache) Mesh(m MeshType) dynamo.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.meshes[m]; ok {
		return h
	}
	h := c.next
	c.next++
	c.meshes[m] = h
	c.meshByH[h] = m
	return h
}

func (c *ResourceCache) Material(m MaterialType) dynamo.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.materials[m]; ok {
		return h
	}
	h := c.next
	c.next++
	c.materials[m] = h
	c.matByH[h] = m
	return h
}

// LookupMaterial resolves a handle back to its descriptor for renderers.
func (c *ResourceCache) LookupMaterial(h dynamo.Handle) (MaterialType, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.matByH[h]
	return m, ok
}

func (c *ResourceCache) LookupMesh(h dynamo.Handle) (MeshType, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.meshByH[h]
	return m, ok
}

// Counts returns how many distinct meshes and materials were allocated.
func (c *ResourceCache) Counts() (meshes, materials int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.meshes), len(c.materials)
}
