package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/hardsphere/internal/config"
	"github.com/san-kum/hardsphere/internal/dynamo"
	"github.com/san-kum/hardsphere/internal/experiment"
	"github.com/san-kum/hardsphere/internal/sim"
	"github.com/san-kum/hardsphere/internal/trace"
)

// saturation is the fraction of the enclosure diagonal past which
// separations are excluded from the exponent fit.
const saturation = 0.1

// DivergenceResult tracks the distance between a run and a copy whose first
// particle starts Delta away along x.
type DivergenceResult struct {
	Delta      float64
	Times      []float64
	Separation []float64
	// Exponent is the least-squares slope of ln(separation) over time,
	// fitted before separations saturate.
	Exponent float64
	// Fitted is the number of samples used for Exponent.
	Fitted int
}

// Divergence runs cfg and a perturbed copy side by side and samples their
// separation at samples evenly spaced times. Sampling stops early if the
// particle counts of the two runs differ.
func Divergence(ctx context.Context, cfg *config.Config, delta float64, samples int) (*DivergenceResult, error) {
	if !(delta > 0) {
		return nil, fmt.Errorf("%w: perturbation must be positive, got %g", dynamo.ErrInvalidConfig, delta)
	}
	if samples < 2 {
		return nil, fmt.Errorf("%w: need at least 2 samples, got %d", dynamo.ErrInvalidConfig, samples)
	}

	base, err := recordRun(cfg, 0)
	if err != nil {
		return nil, err
	}
	perturbed, err := recordRun(cfg, delta)
	if err != nil {
		return nil, err
	}

	var resA, resB *sim.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		resA, err = base.run(gctx)
		return err
	})
	g.Go(func() (err error) {
		resB, err = perturbed.run(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	horizon := math.Min(resA.FinalTime, resB.FinalTime)
	out := &DivergenceResult{Delta: delta}
	for k := 1; k <= samples; k++ {
		t := horizon * float64(k) / float64(samples)
		a, b := frameAt(base.rec.Frames, t), frameAt(perturbed.rec.Frames, t)
		if a == nil || b == nil || a.Len() != b.Len() {
			break
		}
		out.Times = append(out.Times, t)
		out.Separation = append(out.Separation, separation(a.At(t), b.At(t)))
	}

	w := cfg.WallBounds()
	diag := dynamo.Vec3{w[0][1] - w[0][0], w[1][1] - w[1][0], w[2][1] - w[2][0]}.Norm()
	out.Exponent, out.Fitted = fitExponent(out.Times, out.Separation, saturation*diag)
	return out, nil
}

type recordedRun struct {
	exp *experiment.Experiment
	rec *trace.Recorder
}

func recordRun(cfg *config.Config, delta float64) (*recordedRun, error) {
	exp := experiment.New(cfg.Clone())
	if err := exp.Setup(); err != nil {
		return nil, err
	}
	if delta != 0 {
		initial := exp.Initial()
		p := initial.Pos[0]
		hi := cfg.WallBounds()[0][1]
		if p[0]+delta+initial.Radius[0] > hi {
			delta = -delta
		}
		initial.Pos[0][0] += delta
	}
	rec := trace.NewRecorder()
	exp.GetSimulator().AddSink(rec)
	return &recordedRun{exp: exp, rec: rec}, nil
}

func (r *recordedRun) run(ctx context.Context) (*sim.Result, error) {
	result, err := r.exp.Run(ctx)
	if err != nil && !errors.Is(err, dynamo.ErrNoEvent) {
		return nil, err
	}
	return result, nil
}

func frameAt(frames []*trace.Frame, t float64) *trace.Frame {
	i := trace.Locate(frames, t)
	if i < 0 {
		return nil
	}
	return frames[i]
}

func separation(a, b []dynamo.Vec3) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i].Sub(b[i]).Norm2()
	}
	return math.Sqrt(sum)
}

// fitExponent regresses ln(sep) on t over samples with 0 < sep < limit.
func fitExponent(times, seps []float64, limit float64) (float64, int) {
	var n, sx, sy, sxx, sxy float64
	for i, s := range seps {
		if !(s > 0) || s >= limit {
			continue
		}
		y := math.Log(s)
		n++
		sx += times[i]
		sy += y
		sxx += times[i] * times[i]
		sxy += times[i] * y
	}
	den := n*sxx - sx*sx
	if n < 2 || den == 0 {
		return 0, int(n)
	}
	return (n*sxy - sx*sy) / den, int(n)
}
