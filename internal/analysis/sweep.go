package analysis

import (
	"context"
	"strings"

	"github.com/san-kum/verlet/internal/sim"
	"github.com/san-kum/verlet/internal/spawn"
)

// SweepPoint is the metric a scene reached for one parameter value.
type SweepPoint struct {
	Param float64
	Value float64
}

// Sweep runs the scene once per evenly spaced value of a settings
// parameter and records the final value of the metric built by newMetric.
func Sweep(
	ctx context.Context,
	opts sim.Options,
	reqs []spawn.Request,
	param string,
	paramMin, paramMax float64,
	paramSteps int,
	newMetric func() sim.Metric,
	cfg sim.Config,
) ([]SweepPoint, error) {
	if paramSteps <= 1 {
		paramSteps = 2
	}
	step := (paramMax - paramMin) / float64(paramSteps-1)

	results := make([]SweepPoint, 0, paramSteps)
	for i := 0; i < paramSteps; i++ {
		v := paramMin + float64(i)*step
		o := opts
		if err := o.Settings.SetParam(param, v); err != nil {
			return nil, err
		}
		s, err := seeded(o, opts.Seed, reqs)
		if err != nil {
			return nil, err
		}
		m := newMetric()
		s.AddMetric(m)
		if _, err := s.Run(ctx, cfg); err != nil {
			return nil, err
		}
		results = append(results, SweepPoint{Param: v, Value: m.Value()})
	}
	return results, nil
}

// SweepToASCII plots sweep results, one column per point.
func SweepToASCII(data []SweepPoint, width, height int) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minVal, maxVal := data[0].Value, data[0].Value
	for _, p := range data {
		minVal = min(minVal, p.Value)
		maxVal = max(maxVal, p.Value)
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	canvas := blank(width, height)
	for i, p := range data {
		col := i * width / len(data)
		row := height - 1 - int((p.Value-minVal)/(maxVal-minVal)*float64(height-1))
		if row >= 0 && row < height && col < width {
			canvas[row][col] = '•'
		}
	}
	return render(canvas)
}

func blank(width, height int) [][]rune {
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}
	return canvas
}

func render(canvas [][]rune) string {
	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
