// Package sim runs the per-tick pipeline: pending edits and spawns are
// applied, particles are integrated, constraints are converged, and an
// immutable Frame is published for renderers.
//
//	s, _ := sim.New(sim.Options{Settings: dynamo.DefaultSettings()})
//	s.SubmitSpawn(models.NewRope().Request(mgl64.Vec3{0, 1, 0}, s.Settings()))
//	frame, err := s.Tick(1.0 / 60)
package sim
