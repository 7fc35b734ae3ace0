package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrUnknownNeighbor indicates a spawn node references a neighbor that is
	// not part of the same batch.
	ErrUnknownNeighbor = errors.New("dynamo: neighbor does not exist in spawn batch")

	// ErrDescriptorMismatch indicates per-connection descriptor arrays whose
	// length differs from the node's neighbor list.
	ErrDescriptorMismatch = errors.New("dynamo: connection descriptors do not match neighbor count")

	// ErrLineNotCleared indicates a two-point line connection was already
	// full when a new endpoint arrived.
	ErrLineNotCleared = errors.New("dynamo: line connection was not cleared")

	// ErrParameterBounds indicates a setting is outside its valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownParticle indicates a lookup for a particle that is not in the world.
	ErrUnknownParticle = errors.New("dynamo: unknown particle")

	// ErrInvalidState indicates a particle position became NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")
)

// SpawnError wraps a topology error with the offending node and connection.
type SpawnError struct {
	Node     int
	Neighbor int
	Wrapped  error
}

func (e *SpawnError) Error() string {
	if e.Neighbor < 0 {
		return fmt.Sprintf("spawn node %d: %v", e.Node, e.Wrapped)
	}
	return fmt.Sprintf("spawn node %d connection %d: %v", e.Node, e.Neighbor, e.Wrapped)
}

func (e *SpawnError) Unwrap() error {
	return e.Wrapped
}

// SimulationError reports the tick and particle at which a run failed.
type SimulationError struct {
	Tick     uint64
	Particle ParticleID
	Wrapped  error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("tick %d particle %d: %v", e.Tick, e.Particle, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
