package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/verlet/internal/analysis"
	"github.com/san-kum/verlet/internal/audio"
	"github.com/san-kum/verlet/internal/automation"
	"github.com/san-kum/verlet/internal/config"
	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/export"
	"github.com/san-kum/verlet/internal/gui"
	"github.com/san-kum/verlet/internal/metrics"
	"github.com/san-kum/verlet/internal/models"
	"github.com/san-kum/verlet/internal/server"
	"github.com/san-kum/verlet/internal/sim"
	"github.com/san-kum/verlet/internal/storage"
	"github.com/san-kum/verlet/internal/tui"
	"github.com/san-kum/verlet/internal/viz"
)

var (
	dataDir    string
	logLevel   string
	envFile    string
	configFile string

	dt          float64
	ticks       int
	seed        int64
	iterations  int
	jerkDamping float64
	track       uint64
	validate    bool

	live      bool
	frameRate int
	theme     string
	sound     bool
	gifPath   string

	addr        string
	tickHz      int
	broadcastHz int

	runs    int
	workers int

	param      string
	paramMin   float64
	paramMax   float64
	paramSteps int
	metricName string

	seedB int64

	trials int
	height float64

	svgOut   string
	svgScale float64

	logger *log.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "verlet",
		Short: "particle and stick physics sandbox",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger = log.NewWithOptions(os.Stderr, log.Options{
				Level:           level,
				ReportTimestamp: true,
				TimeFormat:      time.Kitchen,
				Prefix:          "verlet",
			})
			return config.LoadEnv(envFile)
		},
		Run: func(cmd *cobra.Command, args []string) {
			gui.RunInteractive(logger)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default from config or "+config.EnvDataDir+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file read before the config")

	runCmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "run a scene headless and store the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScene,
	}
	sceneFlags(runCmd)
	runCmd.Flags().Uint64Var(&track, "track", 0, "particle id to record (0 follows the newest)")
	runCmd.Flags().BoolVar(&validate, "validate", false, "stop on the first non-finite particle")
	runCmd.Flags().BoolVar(&live, "live", false, "draw frames to the terminal while running")
	runCmd.Flags().IntVar(&frameRate, "fps", 30, "terminal frame rate with --live (0 draws every frame)")

	liveCmd := &cobra.Command{
		Use:   "live [scene]",
		Short: "interactive terminal view (scene menu without a scene)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	sceneFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", "chalk", "color theme")
	liveCmd.Flags().BoolVar(&sound, "sound", false, "sonify kinetic energy and strain")
	liveCmd.Flags().StringVar(&gifPath, "gif", "verlet.gif", "recording output path")

	guiCmd := &cobra.Command{
		Use:   "gui [scene]",
		Short: "3D window (scene menu without a scene)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && configFile == "" {
				gui.RunInteractive(logger)
				return nil
			}
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}
			s, err := cfg.Simulator(logger)
			if err != nil {
				return err
			}
			gui.Run(s, cfg.Scene, cfg.Dt, logger)
			return nil
		},
	}
	sceneFlags(guiCmd)

	serveCmd := &cobra.Command{
		Use:   "serve [scene]",
		Short: "serve a scene over a websocket",
		Args:  cobra.MaximumNArgs(1),
		RunE:  serve,
	}
	sceneFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().IntVar(&tickHz, "tick-hz", server.DefaultTickHz, "simulation ticks per second")
	serveCmd.Flags().IntVar(&broadcastHz, "broadcast-hz", server.DefaultBroadcastHz, "frame broadcasts per second")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [scene]",
		Short: "run a scene and write its last frame as SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE:  snapshot,
	}
	sceneFlags(snapshotCmd)
	snapshotCmd.Flags().StringVarP(&svgOut, "out", "o", "frame.svg", "output path")
	snapshotCmd.Flags().Float64Var(&svgScale, "scale", 200, "pixels per world unit")

	benchCmd := &cobra.Command{
		Use:   "bench [scene]",
		Short: "run copies of a scene in parallel and time them",
		Args:  cobra.MaximumNArgs(1),
		RunE:  bench,
	}
	sceneFlags(benchCmd)
	benchCmd.Flags().IntVar(&runs, "runs", 8, "number of copies")
	benchCmd.Flags().IntVar(&workers, "workers", 0, "copies run at once (0 uses every cpu)")

	sweepCmd := &cobra.Command{
		Use:   "sweep [scene]",
		Short: "sweep a settings parameter and plot a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweep,
	}
	sceneFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&param, "param", "converge_iterations", "parameter: "+strings.Join(dynamo.ParamNames(), ", "))
	sweepCmd.Flags().Float64Var(&paramMin, "min", 1, "first value")
	sweepCmd.Flags().Float64Var(&paramMax, "max", 30, "last value")
	sweepCmd.Flags().IntVar(&paramSteps, "steps", 10, "number of values")
	sweepCmd.Flags().StringVar(&metricName, "metric", "max_strain", "metric: "+strings.Join(metrics.Names(), ", "))

	divergeCmd := &cobra.Command{
		Use:   "diverge [scene]",
		Short: "compare two shuffle seeds of the same scene",
		Args:  cobra.MaximumNArgs(1),
		RunE:  diverge,
	}
	sceneFlags(divergeCmd)
	divergeCmd.Flags().Int64Var(&seedB, "seed-b", 2, "seed of the second run")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "play a scripted interaction file",
		Args:  cobra.ExactArgs(1),
		RunE:  scenario,
	}
	sceneFlags(scenarioCmd)

	montecarloCmd := &cobra.Command{
		Use:   "montecarlo [shape]",
		Short: "drop a shape at random spots and count stable trials",
		Args:  cobra.ExactArgs(1),
		RunE:  montecarlo,
	}
	sceneFlags(montecarloCmd)
	montecarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	montecarloCmd.Flags().Float64Var(&height, "height", dynamo.HalfCameraHeight*1.5, "drop height")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list scenes and shapes",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SCENE\tTICKS\tSPAWNS")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				shapes := make([]string, len(cfg.Spawns))
				for i, sc := range cfg.Spawns {
					shapes[i] = sc.Shape
				}
				fmt.Fprintf(w, "%s\t%d\t%s\n", name, cfg.Ticks, strings.Join(shapes, " "))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("\nshapes: %s\n", strings.Join(models.Names(), ", "))
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a scene as a config file to edit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			logger.Info("config written", "path", args[0], "scene", cfg.Scene)
			return nil
		},
	}
	sceneFlags(initCmd)

	rootCmd.AddCommand(runCmd, liveCmd, guiCmd, serveCmd, snapshotCmd, benchCmd, sweepCmd, divergeCmd,
		scenarioCmd, montecarloCmd, presetsCmd, initCmd)
	rootCmd.AddCommand(runCommands()...)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// sceneFlags are shared by every command that builds a simulator.
func sceneFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scene config file (yaml)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().IntVar(&ticks, "ticks", config.DefaultTicks, "ticks to run")
	cmd.Flags().Int64Var(&seed, "seed", 1, "shuffle seed")
	cmd.Flags().IntVar(&iterations, "iterations", dynamo.DefaultConvergeIterations, "constraint iterations per tick")
	cmd.Flags().Float64Var(&jerkDamping, "jerk-damping", 0, "jerk filter strength in [0, 1]")
}

// loadConfig layers preset or file, then environment, then changed flags.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	case len(args) > 0:
		cfg = config.GetPreset(args[0])
		if cfg == nil {
			return nil, fmt.Errorf("unknown scene %q (available: %s)", args[0], strings.Join(config.ListPresets(), ", "))
		}
	default:
		cfg = config.GetPreset("default")
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("ticks") {
		cfg.Ticks = ticks
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("iterations") {
		cfg.Settings.ConvergeIterations = iterations
	}
	if flags.Changed("jerk-damping") {
		cfg.Settings.JerkDamping = jerkDamping
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if cfg.DataDir == "" {
		cfg.DataDir = config.DefaultDataDir
	}
	logger.Debug("config loaded", "scene", cfg.Scene, "dt", cfg.Dt, "ticks", cfg.Ticks, "seed", cfg.Seed)
	return cfg, nil
}

func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	s, err := cfg.Simulator(logger)
	if err != nil {
		return err
	}
	for _, m := range metrics.Default() {
		s.AddMetric(m)
	}
	rec := storage.NewRecorder(s.World(), dynamo.ParticleID(track))
	s.AddObserver(rec)

	if live {
		b := s.Settings().Bounds
		r := tui.NewLiveRenderer(os.Stdout, cfg.Scene, frameRate, b.X.Half(), b.Y.Extent, s.Resources())
		r.Start()
		defer r.Stop()
		s.AddObserver(r)
	} else {
		fmt.Printf("running %s for %d ticks...\n", cfg.Scene, cfg.Ticks)
	}

	ctx, stop := interruptible()
	defer stop()
	res, err := s.Run(ctx, sim.Config{Dt: cfg.Dt, Ticks: cfg.Ticks, ValidateState: validate})
	if err != nil && ctx.Err() == nil {
		return err
	}
	for _, e := range res.Errors {
		logger.Warn("edit rejected", "err", e)
	}

	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	particles, sticks := s.World().Len()
	runID, err := st.Save(storage.RunMetadata{
		Scene:     cfg.Scene,
		Seed:      cfg.Seed,
		Dt:        cfg.Dt,
		Ticks:     res.Ticks,
		Particles: particles,
		Sticks:    sticks,
		Tracked:   rec.Tracked(),
		Settings:  s.Settings(),
		Metrics:   res.Metrics,
	}, rec.Rows)
	if err != nil {
		return err
	}

	fmt.Printf("completed %d ticks in %v (%d changed)\n", res.Ticks, res.Elapsed, res.ChangedTicks)
	fmt.Printf("run id: %s\n", runID)
	fmt.Println("\nmetrics:")
	for _, name := range metrics.Names() {
		if v, ok := res.Metrics[name]; ok {
			fmt.Printf("  %s: %.6f\n", name, v)
		}
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	opts := []viz.Option{viz.WithTheme(theme), viz.WithGIFPath(gifPath), viz.WithLogger(logger)}
	if sound {
		son := audio.NewSonifier(logger)
		if err := son.Start(); err != nil {
			logger.Warn("audio unavailable", "err", err)
		} else {
			defer son.Stop()
			opts = append(opts, viz.WithSound(son))
		}
	}

	if len(args) == 0 && configFile == "" {
		return viz.RunInteractive(logger, opts...)
	}
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	s, err := cfg.Simulator(logger)
	if err != nil {
		return err
	}
	return viz.Run(viz.NewModel(s, cfg.Dt, cfg.Scene, opts...))
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	s, err := cfg.Simulator(logger)
	if err != nil {
		return err
	}
	srv := server.New(s, server.Options{
		Scene:       cfg.Scene,
		Dt:          cfg.Dt,
		TickHz:      tickHz,
		BroadcastHz: broadcastHz,
		Logger:      logger,
	})
	ctx, stop := interruptible()
	defer stop()
	return srv.ListenAndServe(ctx, addr)
}

func snapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	s, err := cfg.Simulator(logger)
	if err != nil {
		return err
	}
	res, err := s.Run(context.Background(), sim.Config{Dt: cfg.Dt, Ticks: max(cfg.Ticks, 1)})
	if err != nil {
		return err
	}
	svg := export.FrameToSVG(res.Last, s.Settings().Bounds, s.Resources(), svgScale)
	if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (tick %d, %d particles)\n", svgOut, res.Last.Tick, len(res.Last.Particles))
	return nil
}

func bench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	opts := cfg.Options(logger)
	reqs, err := cfg.Requests(opts.Settings)
	if err != nil {
		return err
	}

	ens := sim.NewEnsemble(opts, runs, cfg.Seed, func(s *sim.Simulator) {
		for _, r := range reqs {
			s.SubmitSpawn(r)
		}
		s.AddMetric(metrics.NewMaxStrain())
		s.AddMetric(metrics.NewRenderRatio())
	})
	ens.SetWorkers(workers)

	fmt.Printf("benchmarking %s: %d copies of %d ticks\n\n", cfg.Scene, runs, cfg.Ticks)
	start := time.Now()
	results, err := ens.Run(context.Background(), sim.Config{Dt: cfg.Dt, Ticks: cfg.Ticks})
	if err != nil {
		return err
	}
	wall := time.Since(start)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tTICKS\tTIME\tTICKS/SEC\tMAX_STRAIN\tRENDER_RATIO")
	total := 0
	for i, r := range results {
		total += r.Ticks
		fmt.Fprintf(w, "%d\t%d\t%v\t%.0f\t%.4f\t%.3f\n",
			cfg.Seed+int64(i), r.Ticks, r.Elapsed.Round(time.Microsecond),
			float64(r.Ticks)/r.Elapsed.Seconds(), r.Metrics["max_strain"], r.Metrics["render_ratio"])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nwall %v, %.0f ticks/sec overall\n", wall.Round(time.Millisecond), float64(total)/wall.Seconds())
	return nil
}

func sweep(cmd *cobra.Command, args []string) error {
	if _, err := metrics.Get(metricName); err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	opts := cfg.Options(logger)
	reqs, err := cfg.Requests(opts.Settings)
	if err != nil {
		return err
	}

	newMetric := func() sim.Metric {
		m, _ := metrics.Get(metricName)
		return m
	}
	points, err := analysis.Sweep(context.Background(), opts, reqs, param, paramMin, paramMax, paramSteps,
		newMetric, sim.Config{Dt: cfg.Dt, Ticks: cfg.Ticks})
	if err != nil {
		return err
	}

	fmt.Printf("sweep %s over %s on %s\n\n", metricName, param, cfg.Scene)
	fmt.Print(analysis.SweepToASCII(points, 60, 15))
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(param), strings.ToUpper(metricName))
	for _, p := range points {
		fmt.Fprintf(w, "%.4f\t%.6f\n", p.Param, p.Value)
	}
	return w.Flush()
}

func diverge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	opts := cfg.Options(logger)
	reqs, err := cfg.Requests(opts.Settings)
	if err != nil {
		return err
	}

	div, err := analysis.ShuffleDivergence(context.Background(), opts, reqs, cfg.Seed, seedB, cfg.Dt, cfg.Ticks)
	if err != nil {
		return err
	}
	if len(div.Separation) == 0 {
		return fmt.Errorf("no ticks to compare")
	}
	if len(div.Separation) > 1 {
		fmt.Println(asciigraph.Plot(div.Separation,
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("rms separation, seeds %d and %d", cfg.Seed, seedB)),
		))
		fmt.Println()
	}
	fmt.Printf("final separation: %.6f\n", div.Separation[len(div.Separation)-1])
	fmt.Printf("growth rate: %.4f /s\n", div.Rate)
	return nil
}

func scenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	cfg := config.DefaultConfig()
	cfg.Scene = sc.Name
	if configFile != "" {
		if cfg, err = config.Load(configFile); err != nil {
			return err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	s, err := cfg.Simulator(logger)
	if err != nil {
		return err
	}
	for _, m := range metrics.Default() {
		s.AddMetric(m)
	}

	ctx, stop := interruptible()
	defer stop()
	logger.Info("scenario started", "name", sc.Name, "steps", len(sc.Steps), "ticks", sc.Ticks)
	res, err := automation.RunScenario(ctx, sc, s, logger)
	if err != nil {
		return err
	}
	for _, e := range res.Errors {
		logger.Warn("edit rejected", "err", e)
	}
	particles, sticks := s.World().Len()
	fmt.Printf("%s: %d ticks, %d changed, %d particles, %d sticks\n",
		sc.Name, res.Ticks, res.ChangedTicks, particles, sticks)
	if len(res.Errors) > 0 {
		return fmt.Errorf("%d edits rejected", len(res.Errors))
	}
	return nil
}

func montecarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	mc := &automation.MonteCarloConfig{
		Shape:     args[0],
		Height:    height,
		NumTrials: trials,
		Ticks:     cfg.Ticks,
		Dt:        cfg.Dt,
		Seed:      cfg.Seed,
	}
	results, err := automation.RunMonteCarlo(context.Background(), mc, cfg.Options(logger))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tX\tSETTLED\tSTABLE")
	for _, r := range results {
		settled := "never"
		if r.Settled >= 0 {
			settled = fmt.Sprint(r.Settled)
		}
		fmt.Fprintf(w, "%d\t%.3f\t%s\t%v\n", r.TrialID, r.At.X(), settled, r.Stable)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("\nstable %d, unstable %d\n", stable, unstable)
	return nil
}
