package dynamo

// FrameComparison decides whether a tick changed the geometry enough to be
// pushed to the render layer.
type FrameComparison struct {
	// FramesSince counts ticks since the last render.
	FramesSince uint32
	// Changed reports whether this tick needs to be rendered.
	Changed bool
	// MaxUnchanged forces a render after this many quiet ticks.
	MaxUnchanged uint32
}

func NewFrameComparison(maxUnchanged uint32) *FrameComparison {
	return &FrameComparison{Changed: true, MaxUnchanged: maxUnchanged}
}

// ObservePass records the integration pass of a tick. It is the decision
// that resets or advances the quiet-frame counter.
func (f *FrameComparison) ObservePass(maxDelta, minRenderDelta float64) {
	switch {
	case maxDelta > minRenderDelta:
		f.FramesSince = 0
		f.Changed = true
	case f.FramesSince > f.MaxUnchanged:
		f.FramesSince = 0
		f.Changed = true
	default:
		f.FramesSince++
		f.Changed = false
	}
}

// ObserveSubstep records a clamp or relaxation pass. Once the tick is
// dirty no further passes are considered.
func (f *FrameComparison) ObserveSubstep(maxDelta, minRenderDelta float64) {
	if f.Changed {
		return
	}
	if maxDelta > minRenderDelta {
		f.FramesSince = 0
		f.Changed = true
	}
}

// MarkDirty forces the current tick to render, e.g. after a topology edit.
func (f *FrameComparison) MarkDirty() {
	f.FramesSince = 0
	f.Changed = true
}

func (f *FrameComparison) Reset() {
	f.FramesSince = 0
	f.Changed = true
}
