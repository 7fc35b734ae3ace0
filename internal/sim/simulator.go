package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/verlet/internal/attach"
	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/integrators"
	"github.com/san-kum/verlet/internal/interact"
	"github.com/san-kum/verlet/internal/models"
	"github.com/san-kum/verlet/internal/solver"
	"github.com/san-kum/verlet/internal/spawn"
)

type Options struct {
	Settings dynamo.Settings
	Seed     int64
	Logger   *log.Logger
	Cache    *spawn.ResourceCache
}

// Simulator runs the tick pipeline. Tick must be called from a single
// goroutine; the Submit methods are safe from any goroutine.
type Simulator struct {
	settings dynamo.Settings
	world    *dynamo.World
	frame    *dynamo.FrameComparison
	rng      *rand.Rand
	logger   *log.Logger

	verlet   *integrators.Verlet
	converge *solver.Converge
	cache    *spawn.ResourceCache
	builder  *spawn.Builder
	editor   *interact.Editor
	tracker  *attach.Tracker

	play PlayState
	tick uint64

	spawns  spawn.Buffer
	mu      sync.Mutex
	targets []interact.Target
	events  []interact.Event
	plays   []PlayRequest
	resizes [][2]float64
	infos   []SetPointInfo

	metrics   []Metric
	observers []Observer

	last     atomic.Pointer[Frame]
	lastGeom *Frame
}

func New(opts Options) (*Simulator, error) {
	if err := opts.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	cache := opts.Cache
	if cache == nil {
		cache = spawn.NewResourceCache()
	}

	s := &Simulator{
		settings: opts.Settings,
		world:    dynamo.NewWorld(),
		frame:    dynamo.NewFrameComparison(opts.Settings.MaxUnchangedFrames),
		rng:      rand.New(rand.NewSource(opts.Seed)),
		logger:   logger,
		verlet:   integrators.NewVerlet(),
		converge: solver.NewConverge(),
		cache:    cache,
		builder:  spawn.NewBuilder(cache, opts.Settings),
		editor:   interact.NewEditor(cache),
		tracker:  attach.NewTracker(),
	}
	return s, nil
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// World exposes the particle store. Only the tick goroutine may touch it.
func (s *Simulator) World() *dynamo.World { return s.world }

func (s *Simulator) Settings() dynamo.Settings { return s.settings }

func (s *Simulator) Resources() *spawn.ResourceCache { return s.cache }

func (s *Simulator) Tracker() *attach.Tracker { return s.tracker }

func (s *Simulator) PlayState() PlayState { return s.play }

func (s *Simulator) Target() interact.Target { return s.editor.Target() }

// SubmitSpawn queues a mesh network for the next tick.
func (s *Simulator) SubmitSpawn(r spawn.Request) { s.spawns.Push(r) }

func (s *Simulator) SubmitTarget(t interact.Target) {
	s.mu.Lock()
	s.targets = append(s.targets, t)
	s.mu.Unlock()
}

func (s *Simulator) SubmitEvent(ev interact.Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *Simulator) SubmitPlayState(r PlayRequest) {
	s.mu.Lock()
	s.plays = append(s.plays, r)
	s.mu.Unlock()
}

// Resize queues a viewport change; the x extent follows the aspect ratio.
func (s *Simulator) Resize(width, height float64) {
	s.mu.Lock()
	s.resizes = append(s.resizes, [2]float64{width, height})
	s.mu.Unlock()
}

func (s *Simulator) SetPointInfo(p SetPointInfo) {
	s.mu.Lock()
	s.infos = append(s.infos, p)
	s.mu.Unlock()
}

// PointInfo returns the telemetry of the selected particle as of the last
// published frame.
func (s *Simulator) PointInfo() (PointInfo, bool) {
	f := s.last.Load()
	if f == nil || f.PointInfo == nil {
		return PointInfo{}, false
	}
	return *f.PointInfo, true
}

// Last returns the most recently published frame, or nil before the first
// tick.
func (s *Simulator) Last() *Frame { return s.last.Load() }

type pending struct {
	targets []interact.Target
	events  []interact.Event
	plays   []PlayRequest
	resizes [][2]float64
	infos   []SetPointInfo
}

func (s *Simulator) drain() pending {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := pending{s.targets, s.events, s.plays, s.resizes, s.infos}
	s.targets, s.events, s.plays, s.resizes, s.infos = nil, nil, nil, nil, nil
	return p
}

// Tick runs one pass of the pipeline and publishes its frame. Rejected
// spawn batches and edits are reported in the returned error; the
// simulation itself keeps going.
func (s *Simulator) Tick(dt float64) (*Frame, error) {
	var errs []error
	edited := false
	q := s.drain()

	for _, r := range q.plays {
		if s.applyPlay(r) {
			edited = true
		}
	}
	for _, wh := range q.resizes {
		s.settings.Resize(wh[0], wh[1])
		edited = true
	}
	for _, t := range q.targets {
		if s.editor.SetTarget(t) && s.play == Running {
			s.play = Paused
			s.logger.Info("paused for edit", "target", t)
		}
	}

	batches := s.spawns.Drain()
	for _, ev := range q.events {
		out, err := s.editor.Apply(s.world, &s.settings, ev)
		if err != nil {
			s.logger.Error("edit rejected", "target", s.editor.Target(), "err", err)
			errs = append(errs, err)
			continue
		}
		batches = append(batches, out.Spawns...)
		edited = edited || out.Changed
	}
	for _, info := range q.infos {
		if s.applyPointInfo(info) {
			edited = true
		}
	}

	for _, req := range batches {
		res, err := s.builder.Build(s.world, req)
		if err != nil {
			s.logger.Error("spawn batch rejected", "nodes", req.Len(), "err", err)
			errs = append(errs, err)
			continue
		}
		s.logger.Debug("spawned", "particles", len(res.Particles), "sticks", len(res.Sticks))
		edited = true
	}

	var maxDelta float64
	if s.play == Running {
		if s.despawnOverflows() {
			edited = true
		}
		maxDelta = s.verlet.Step(s.world, &s.settings, dt, s.rng)
		s.frame.ObservePass(maxDelta, s.settings.MinRenderDelta)
		s.converge.Step(s.world, &s.settings, s.frame, s.rng)
		solver.Filter(s.world.Particles(), &s.settings)
	} else {
		s.frame.Changed = false
	}
	if edited {
		s.frame.MarkDirty()
	}
	s.editor.Forget(s.world)

	f := s.publish(maxDelta)
	for _, m := range s.metrics {
		m.Observe(s.world, f.Changed)
	}
	for _, o := range s.observers {
		o.OnTick(f)
	}
	return f, errors.Join(errs...)
}

func (s *Simulator) applyPlay(r PlayRequest) bool {
	switch r {
	case Pause:
		if s.play == Running {
			s.play = Paused
			s.logger.Info("simulation paused")
		}
	case Play:
		if s.play == Paused {
			s.play = Running
			s.logger.Info("simulation resumed")
		}
	case Reset:
		s.world.Clear()
		s.tracker.Reset()
		s.editor.Forget(s.world)
		s.frame.Reset()
		s.play = Running
		s.logger.Info("simulation reset")
		return true
	}
	return false
}

func (s *Simulator) applyPointInfo(info SetPointInfo) bool {
	id, ok := s.editor.Selected()
	if !ok {
		return false
	}
	p, ok := s.world.Particle(id)
	if !ok {
		return false
	}
	if info.Position != nil {
		p.Teleport(*info.Position)
	}
	if info.Velocity != nil {
		p.SetVelocity(*info.Velocity)
	}
	return info.Position != nil || info.Velocity != nil
}

// despawnOverflows removes particles that have left the world entirely,
// together with both endpoints of any stick touching one.
func (s *Simulator) despawnOverflows() bool {
	limit := s.settings.OverflowDistance
	out := func(p *dynamo.Particle) bool {
		return p.Position.Len() >= limit || !p.IsValid()
	}

	doomed := make(map[dynamo.ParticleID]struct{})
	for _, st := range s.world.Sticks() {
		p1, ok1 := s.world.Particle(st.P1)
		p2, ok2 := s.world.Particle(st.P2)
		if !ok1 || !ok2 {
			continue
		}
		if out(p1) || out(p2) {
			doomed[p1.ID] = struct{}{}
			doomed[p2.ID] = struct{}{}
		}
	}
	for _, p := range s.world.Particles() {
		if out(p) {
			doomed[p.ID] = struct{}{}
		}
	}
	for id := range doomed {
		s.world.RemoveParticle(id)
	}
	if len(doomed) > 0 {
		s.logger.Debug("despawned overflow", "particles", len(doomed))
	}
	return len(doomed) > 0
}

func (s *Simulator) publish(maxDelta float64) *Frame {
	s.tick++
	f := &Frame{
		Tick:     s.tick,
		Changed:  s.frame.Changed,
		MaxDelta: maxDelta,
		State:    s.play.String(),
	}
	if f.Changed || s.lastGeom == nil {
		f.Particles, f.Sticks = snapshot(s.world)
		s.lastGeom = f
	} else {
		f.Particles, f.Sticks = s.lastGeom.Particles, s.lastGeom.Sticks
	}
	f.Attachments = s.tracker.Update(s.world, f.Changed)

	if id, ok := s.editor.Selected(); ok {
		if p, ok := s.world.Particle(id); ok {
			f.PointInfo = &PointInfo{ID: id, Position: p.Position, Velocity: p.Velocity()}
		}
	}
	s.last.Store(f)
	return f
}

// Run ticks cfg.Ticks times with a fixed dt.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	res := &Result{Metrics: make(map[string]float64)}
	start := time.Now()
	err := s.RunWithCallback(ctx, cfg, func(f *Frame, tickErr error) bool {
		if tickErr != nil {
			res.Errors = append(res.Errors, tickErr)
		}
		res.Ticks++
		if f.Changed {
			res.ChangedTicks++
		}
		res.Last = f
		return true
	})
	res.Elapsed = time.Since(start)
	for _, m := range s.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	return res, err
}

// RunWithCallback ticks until cfg.Ticks is reached, ctx is done or the
// callback returns false. Ticks <= 0 runs until cancelled.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg Config, callback func(*Frame, error) bool) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	start := time.Now()
	for i := 0; cfg.Ticks <= 0 || i < cfg.Ticks; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		f, err := s.Tick(cfg.Dt)
		if cfg.ValidateState {
			if bad := s.invalidParticle(); bad != 0 {
				return &dynamo.SimulationError{Tick: f.Tick, Particle: bad, Wrapped: dynamo.ErrInvalidState}
			}
		}
		if !callback(f, err) {
			break
		}
	}
	s.logger.Debug("run finished", "ticks", s.tick, "elapsed", time.Since(start))
	return nil
}

func (s *Simulator) invalidParticle() dynamo.ParticleID {
	for _, p := range s.world.Particles() {
		if !p.IsValid() {
			return p.ID
		}
	}
	return 0
}

// SpawnAt queues r translated by offset. Positional neighbor references
// move with their nodes.
func (s *Simulator) SpawnAt(r spawn.Request, offset mgl64.Vec3) {
	nodes := make([]spawn.Node, len(r.Nodes))
	for i, n := range r.Nodes {
		n.Position = n.Position.Add(offset)
		if n.NeighborPositions != nil {
			moved := make([]mgl64.Vec3, len(n.NeighborPositions))
			for j, np := range n.NeighborPositions {
				moved[j] = np.Add(offset)
			}
			n.NeighborPositions = moved
		}
		nodes[i] = n
	}
	s.SubmitSpawn(spawn.Request{Nodes: nodes})
}

// SpawnShape queues a registered shape built against the current settings.
// Call it from the goroutine that ticks.
func (s *Simulator) SpawnShape(name string, at mgl64.Vec3) error {
	shape, err := models.Get(name)
	if err != nil {
		return err
	}
	s.SubmitSpawn(shape.Request(at, s.settings))
	return nil
}
