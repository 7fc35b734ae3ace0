// Package viz renders a running simulation in the terminal.
//
// Frames are projected through a [Camera] onto a braille [Canvas] and shown
// next to a stats panel by a Bubble Tea [Model]. [RunInteractive] starts
// from a scene menu; [Run] drives an already built simulator.
//
// # Key Bindings
//
//	Space  - Pause/Resume simulation
//	R      - Reset the world
//	1-5    - Point, rope, square, cloth and cube targets
//	N L C  - Line, lock and cut targets
//	Enter  - Apply the target at the cursor
//	Arrows - Move the cursor
//	T      - Cycle color themes
//	G      - Toggle GIF recording
//	[]     - Replay recorded frames
//
// # Recording
//
// GIF recordings rasterize the canvas dots and are written when recording
// stops or the view quits.
package viz
