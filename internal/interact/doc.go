// Package interact turns pointer rays into world edits.
//
// Front-ends project the pointer into a world-space [Ray] and submit an
// [Event]. The [Editor] applies it according to the active [Target]:
// spawning shapes where the ray meets z=0, connecting two particles with a
// stick, toggling locks, cutting sticks along a drag, deleting particles or
// selecting one for telemetry. A particle is affected when it lies within
// the interaction radius of the ray and in front of its origin.
package interact
