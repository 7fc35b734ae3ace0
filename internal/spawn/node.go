package spawn

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Node declares one particle of a mesh network and the connections it
// wants. Neighbors are indices into the same request. NeighborPositions is
// an alternative for callers that describe topology by coordinates; each
// entry must equal the Position of a node in the request exactly.
//
// The Connection* slices run parallel to Neighbors followed by
// NeighborPositions. A nil slice selects the default for every connection.
type Node struct {
	Position          mgl64.Vec3     `json:"position" yaml:"position"`
	Velocity          mgl64.Vec3     `json:"velocity,omitempty" yaml:"velocity,omitempty"`
	Locked            bool           `json:"locked,omitempty" yaml:"locked,omitempty"`
	Neighbors         []int          `json:"neighbors,omitempty" yaml:"neighbors,omitempty"`
	NeighborPositions []mgl64.Vec3   `json:"neighbor_positions,omitempty" yaml:"neighbor_positions,omitempty"`
	ConnectionMesh    []MeshType     `json:"connection_mesh,omitempty" yaml:"connection_mesh,omitempty"`
	ConnectionMat     []MaterialType `json:"connection_material,omitempty" yaml:"connection_material,omitempty"`
	ConnectionSize    []float64      `json:"connection_size,omitempty" yaml:"connection_size,omitempty"`
	PointMesh         MeshType       `json:"point_mesh,omitempty" yaml:"point_mesh,omitempty"`
	PointMaterial     *MaterialType  `json:"point_material,omitempty" yaml:"point_material,omitempty"`
	PointSize         float64        `json:"point_size,omitempty" yaml:"point_size,omitempty"`
	Attachment        string         `json:"attachment,omitempty" yaml:"attachment,omitempty"`
}

// Request is one mesh network, spawned atomically.
type Request struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
}

func (r Request) Len() int { return len(r.Nodes) }

// Buffer collects requests from any goroutine until the pipeline drains
// them at the start of a tick.
type Buffer struct {
	mu      sync.Mutex
	pending []Request
}

func (b *Buffer) Push(r Request) {
	b.mu.Lock()
	b.pending = append(b.pending, r)
	b.mu.Unlock()
}

// Drain returns the queued requests in FIFO order and empties the buffer.
func (b *Buffer) Drain() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.pending
	b.pending = nil
	return out
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
