// Package solver projects particles back onto their constraints.
//
// A tick runs [Converge], which repeats two passes ConvergeIterations times:
// [ClampBounds] keeps particles inside the world box and reflects their
// velocity off the walls, then [RelaxSticks] pulls every stick toward its
// rest length with one Gauss-Seidel sweep. Each pass reports its largest
// displacement to the frame tracker.
//
// [Filter] runs once after convergence and shaves the second difference of
// each particle's trajectory, then records what will be rendered.
package solver
