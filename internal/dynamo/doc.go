// Package dynamo provides the core data model for position-based particle
// simulation.
//
// The package defines the state every pipeline stage operates on:
//
//   - [Particle]: a point mass with implicit (Verlet) velocity
//   - [Stick]: a fixed rest-length link between two particles
//   - [World]: the particle and stick store with stable identities
//   - [Settings]: tunables read by every stage during a tick
//   - [FrameComparison]: the dirty-frame bookkeeping used to skip renders
//
// Velocity is never stored. It is the difference between Position and
// PrevPosition, so moving a particle also changes its velocity unless
// PrevPosition moves with it.
//
// # Example
//
//	w := dynamo.NewWorld()
//	anchor := dynamo.NewParticle(mgl64.Vec3{0, 1, 0})
//	anchor.Locked = true
//	a := w.AddParticle(anchor)
//	b := w.AddParticle(dynamo.NewParticle(mgl64.Vec3{0.1, 1, 0}))
//	w.AddStick(dynamo.Stick{P1: a, P2: b, RestLength: 0.1})
//
// # Thread Safety
//
// World, Settings and FrameComparison are NOT thread-safe. They are owned by
// the simulation pipeline for the duration of a tick; producers on other
// goroutines hand work to the pipeline through queues instead.
package dynamo
