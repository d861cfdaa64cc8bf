package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/hardsphere/internal/config"
	"github.com/san-kum/hardsphere/internal/dynamo"
	"github.com/san-kum/hardsphere/internal/experiment"
	"github.com/san-kum/hardsphere/internal/sim"
)

// SweepPoint holds the metric of every seed run at one parameter value.
type SweepPoint struct {
	Param  float64
	Values []float64
}

func (p SweepPoint) Mean() float64 {
	if len(p.Values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range p.Values {
		sum += v
	}
	return sum / float64(len(p.Values))
}

var sweepParams = map[string]func(c *config.Config, v float64){
	"restitution":       func(c *config.Config, v float64) { c.Restitution = v },
	"fusion_threshold":  func(c *config.Config, v float64) { c.FusionThreshold = v },
	"fission_threshold": func(c *config.Config, v float64) { c.FissionThreshold = v },
	"max_time":          func(c *config.Config, v float64) { c.MaxTime = v },
	"speed":             func(c *config.Config, v float64) { c.Particles.Speed = v },
	"radius":            func(c *config.Config, v float64) { c.Particles.Radius = v },
	"num_particles":     func(c *config.Config, v float64) { c.NumParticles = int(math.Round(v)) },
}

func SweepParams() []string {
	names := make([]string, 0, len(sweepParams))
	for name := range sweepParams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SweepOptions configures Sweep. Metric names either a metric reported in
// sim.Result.Metrics or one of final_particles, final_time, steps.
type SweepOptions struct {
	Param    string
	Min, Max float64
	Steps    int
	Seeds    int
	Metric   string
}

// Sweep runs base once per seed at Steps evenly spaced values of Param and
// records Metric for each run. A run ending with dynamo.ErrNoEvent is kept:
// its final state is valid. Explicit particle lists in base are ignored when
// sweeping num_particles.
func Sweep(ctx context.Context, base *config.Config, opts SweepOptions) ([]SweepPoint, error) {
	set, ok := sweepParams[opts.Param]
	if !ok {
		return nil, fmt.Errorf("%w: cannot sweep %q (available: %v)", dynamo.ErrInvalidConfig, opts.Param, SweepParams())
	}
	steps := opts.Steps
	if steps <= 1 {
		steps = 2
	}
	seeds := opts.Seeds
	if seeds < 1 {
		seeds = 1
	}
	metric := opts.Metric
	if metric == "" {
		metric = "kinetic_energy"
	}
	stride := (opts.Max - opts.Min) / float64(steps-1)

	points := make([]SweepPoint, steps)
	for i := range points {
		points[i] = SweepPoint{Param: opts.Min + float64(i)*stride, Values: make([]float64, seeds)}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i := range points {
		for k := 0; k < seeds; k++ {
			i, k := i, k
			g.Go(func() error {
				cfg := base.Clone()
				set(cfg, points[i].Param)
				if opts.Param == "num_particles" {
					cfg.Particles.Positions = nil
					cfg.Particles.Velocities = nil
					cfg.Particles.Masses = nil
					cfg.Particles.Radii = nil
				}
				cfg.Seed = base.Seed + int64(k)

				v, err := runMetric(ctx, cfg, metric)
				if err != nil {
					return fmt.Errorf("%s=%g seed %d: %w", opts.Param, points[i].Param, cfg.Seed, err)
				}
				points[i].Values[k] = v
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

func runMetric(ctx context.Context, cfg *config.Config, metric string) (float64, error) {
	exp := experiment.New(cfg)
	if err := exp.Setup(); err != nil {
		return 0, err
	}
	result, err := exp.Run(ctx)
	if err != nil && !errors.Is(err, dynamo.ErrNoEvent) {
		return 0, err
	}
	return resultValue(result, metric)
}

func resultValue(r *sim.Result, metric string) (float64, error) {
	switch metric {
	case "final_particles":
		return float64(r.Final.Len()), nil
	case "final_time":
		return r.FinalTime, nil
	case "steps":
		return float64(r.Steps), nil
	}
	v, ok := r.Metrics[metric]
	if !ok {
		return 0, fmt.Errorf("unknown metric %q", metric)
	}
	return v, nil
}

// SweepToASCII plots every value of every point, one column per point.
func SweepToASCII(data []SweepPoint, width, height int) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minVal, maxVal := math.Inf(1), math.Inf(-1)
	for _, p := range data {
		for _, v := range p.Values {
			minVal = math.Min(minVal, v)
			maxVal = math.Max(maxVal, v)
		}
	}
	if math.IsInf(minVal, 1) {
		return ""
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for i, p := range data {
		col := i * width / len(data)
		if col >= width {
			col = width - 1
		}
		for _, v := range p.Values {
			row := height - 1 - int((v-minVal)/(maxVal-minVal)*float64(height-1))
			if row >= 0 && row < height {
				canvas[row][col] = '•'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
