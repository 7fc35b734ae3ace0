package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/verlet/internal/analysis"
	"github.com/san-kum/verlet/internal/config"
	"github.com/san-kum/verlet/internal/export"
	"github.com/san-kum/verlet/internal/storage"
)

var (
	channels []string
	channel  string
	xAxis    int
	yAxis    int
	format   string
)

// runCommands inspect runs saved by "run".
func runCommands() []*cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print run metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := store().Load(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(meta)
		},
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot recorded channels",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&channels, "channel", []string{"kinetic", "strain", "y"}, "channels: max_delta, kinetic, strain, x, y, z")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency, settling and floor contacts of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&channel, "channel", "y", "channel to analyze")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "plot the tracked particle path on two axes",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", 0, "axis for x (0=x, 1=y, 2=z)")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", 1, "axis for y (0=x, 1=y, 2=z)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&format, "format", "json", "json, csv or svg")
	exportCmd.Flags().IntVar(&xAxis, "x-axis", 0, "svg path axis for x")
	exportCmd.Flags().IntVar(&yAxis, "y-axis", 1, "svg path axis for y")

	return []*cobra.Command{listCmd, showCmd, plotCmd, analyzeCmd, phaseCmd, exportCmd}
}

func store() *storage.Store {
	dir := dataDir
	if dir == "" {
		cfg := config.DefaultConfig()
		if err := cfg.ApplyEnv(); err == nil {
			dir = cfg.DataDir
		}
	}
	if dir == "" {
		dir = config.DefaultDataDir
	}
	return storage.New(dir)
}

func loadRun(runID string) (*storage.RunMetadata, []storage.Row, error) {
	st := store()
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	rows, err := st.LoadFrames(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("run %s has no frames", runID)
	}
	return meta, rows, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := store().List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tTICKS\tDT\tSEED\tPARTICLES\tSTICKS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4fs\t%d\t%d\t%d\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ticks,
			run.Dt,
			run.Seed,
			run.Particles,
			run.Sticks,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, rows, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("ticks: %d, tracked particle %d\n\n", len(rows), meta.Tracked)

	for _, name := range channels {
		data, ok := storage.Channel(rows, name)
		if !ok {
			return fmt.Errorf("unknown channel %q", name)
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name),
		))
		fmt.Println()
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, rows, err := loadRun(args[0])
	if err != nil {
		return err
	}
	data, ok := storage.Channel(rows, channel)
	if !ok {
		return fmt.Errorf("unknown channel %q", channel)
	}

	fmt.Printf("analysis: %s\n", meta.ID)
	fmt.Printf("scene: %s\n\n", meta.Scene)

	if bins := analysis.Spectrum(data, meta.Dt); len(bins) > 2 {
		power := make([]float64, 0, len(bins)/4)
		for _, b := range bins[1:max(len(bins)/4, 2)] {
			power = append(power, b.Power)
		}
		fmt.Println(asciigraph.Plot(power,
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("spectrum (%s)", channel)),
		))
		fmt.Println()
	}

	if freq, ok := analysis.DominantFrequency(data, meta.Dt); ok {
		fmt.Printf("dominant frequency: %.3f hz\n", freq)
		fmt.Printf("period: %.3f s\n", 1/freq)
	} else {
		fmt.Println("dominant frequency: none")
	}

	if settle := analysis.SettleTick(storage.Changed(rows)); settle >= 0 {
		fmt.Printf("settled at tick %d (%.2f s)\n", settle, float64(settle)*meta.Dt)
	} else {
		fmt.Println("never settled")
	}

	contacts := analysis.FloorContacts(storage.Path(rows), meta.Settings.PointSize)
	fmt.Printf("floor contacts: %d\n", len(contacts))
	for i, c := range contacts {
		if i == 5 {
			fmt.Printf("  ... %d more\n", len(contacts)-i)
			break
		}
		fmt.Printf("  x=%.3f z=%.3f\n", c.X(), c.Z())
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	meta, rows, err := loadRun(args[0])
	if err != nil {
		return err
	}
	points := analysis.Trajectory(storage.Path(rows), xAxis, yAxis)
	if points == nil {
		return fmt.Errorf("axes must be 0, 1 or 2")
	}

	axes := "xyz"
	fmt.Printf("path of particle %d: %s\n", meta.Tracked, meta.ID)
	fmt.Printf("x-axis: %c, y-axis: %c\n\n", axes[xAxis], axes[yAxis])
	fmt.Print(analysis.TrajectoryToASCII(points, 70, 20))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, rows, err := loadRun(args[0])
	if err != nil {
		return err
	}
	switch strings.ToLower(format) {
	case "json":
		return storage.ExportJSONStdout(*meta, rows)
	case "csv":
		return storage.WriteFrames(os.Stdout, rows)
	case "svg":
		points := analysis.Trajectory(storage.Path(rows), xAxis, yAxis)
		if points == nil {
			return fmt.Errorf("axes must be 0, 1 or 2")
		}
		_, err := fmt.Fprintln(os.Stdout, export.TrajectoryToSVG(points, 640, 480, "#56b6c2"))
		return err
	}
	return fmt.Errorf("unknown format %q", format)
}
