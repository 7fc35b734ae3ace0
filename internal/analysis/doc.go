// Package analysis inspects recorded or live runs.
//
//   - [Spectrum] and [DominantFrequency]: oscillation content of a channel
//     such as kinetic energy, via go-dsp's FFT
//   - [SettleTick]: when a scene stopped producing dirty frames
//   - [ShuffleDivergence]: sensitivity of a scene to the solver's visit order
//   - [Sweep]: a metric as a function of one settings parameter
//   - [Trajectory] and [FloorContacts]: 2D projections of a particle path
//
// A scene that keeps oscillating shows a clear dominant frequency in its
// kinetic energy:
//
//	f, ok := analysis.DominantFrequency(energy, dt)
package analysis
