package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/hardsphere/internal/analysis"
	"github.com/san-kum/hardsphere/internal/dynamo"
	"github.com/san-kum/hardsphere/internal/experiment"
	"github.com/san-kum/hardsphere/internal/sim"
	"github.com/san-kum/hardsphere/internal/stream"
)

var (
	listenAddr  string
	frameDelay  time.Duration
	startPaused bool

	ensembleRuns int
	benchPasses  int

	sweepMin    float64
	sweepMax    float64
	sweepSteps  int
	sweepSeeds  int
	sweepMetric string

	delta   float64
	samples int
)

func serveRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	exp := experiment.New(cfg)
	if err := exp.Setup(); err != nil {
		return err
	}

	hub := stream.NewHub(exp.Header())
	hub.SetDelay(frameDelay)
	hub.SetPaused(startPaused)
	exp.GetSimulator().AddSink(hub)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- stream.Serve(ctx, listenAddr, hub) }()

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	go func() {
		<-runCtx.Done()
		hub.SetPaused(false)
	}()

	var result *sim.Result
	var runErr error
	done := make(chan struct{})
	go func() {
		result, runErr = exp.Run(runCtx)
		hub.Close(runErr)
		close(done)
	}()

	fmt.Printf("streaming %s simulation with %d particles\n", cfg.Model, cfg.NumParticles)
	if startPaused {
		fmt.Println("paused until a client resumes")
	}

	select {
	case err := <-errc:
		cancelRun()
		<-done
		return err
	case <-done:
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		fmt.Printf("run failed: %v\n", runErr)
	}
	if result != nil && result.Final != nil {
		fmt.Printf("steps: %d  frames: %d  final time: %.6g  particles: %d\n",
			result.Steps, hub.Frames(), result.FinalTime, result.Final.Len())
	}
	if ctx.Err() == nil {
		fmt.Println("run finished, serving until interrupted")
	}
	return <-errc
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if ensembleRuns < 1 {
		return fmt.Errorf("%w: need at least one run", dynamo.ErrInvalidConfig)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %d seeds of %s from seed %d...\n", ensembleRuns, cfg.Model, cfg.Seed)
	start := time.Now()
	results, err := experiment.NewEnsemble(cfg, ensembleRuns).Run(ctx, experiment.SimConfig(cfg))
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tSTEPS\tFINAL_T\tN\tKE\tDRIFT\tFUSIONS\tFISSIONS")
	ke := make([]float64, len(results))
	for i, r := range results {
		ke[i] = r.Metrics["kinetic_energy"]
		fmt.Fprintf(w, "%d\t%d\t%.4g\t%d\t%.6g\t%.2e\t%d\t%d\n",
			cfg.Seed+int64(i), r.Steps, r.FinalTime, r.Final.Len(),
			ke[i], r.Metrics["energy_drift"], r.Fusions, r.Fissions)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	mean, std := meanStd(ke)
	fmt.Printf("\nkinetic energy: %.6g ± %.2g\n", mean, std)
	return nil
}

func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	v := 0.0
	for _, x := range xs {
		v += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(v / float64(len(xs)))
}

func benchBackends(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sys, err := cfg.Build()
	if err != nil {
		return err
	}
	walls := cfg.WallBounds()
	pairs := sys.Len() * (sys.Len() - 1) / 2

	fmt.Printf("benchmarking %d particles (%d pairs), %d passes\n\n", sys.Len(), pairs, benchPasses)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BACKEND\tPASS\tPAIRS/S\tADVANCE")
	reg := experiment.NewRegistry()
	for _, name := range reg.ListBackends() {
		b, err := reg.GetBackend(name)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\t\t\n", name, err)
			continue
		}
		if !b.Available() {
			fmt.Fprintf(w, "%s\tunavailable\t\t\n", name)
			b.Cleanup()
			continue
		}

		start := time.Now()
		for i := 0; i < benchPasses; i++ {
			times, err := b.CollisionTimes(sys, walls)
			if err != nil {
				b.Cleanup()
				return err
			}
			times.Release()
		}
		pass := time.Since(start) / time.Duration(max(benchPasses, 1))

		start = time.Now()
		for i := 0; i < benchPasses; i++ {
			if _, err := b.Advance(sys.Pos, sys.Vel, 1e-3); err != nil {
				b.Cleanup()
				return err
			}
		}
		advance := time.Since(start) / time.Duration(max(benchPasses, 1))
		b.Cleanup()

		rate := 0.0
		if pass > 0 {
			rate = float64(pairs) / pass.Seconds()
		}
		fmt.Fprintf(w, "%s\t%v\t%.3g\t%v\n", b.Name(), pass, rate, advance)
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("sweeping %s from %g to %g (%d steps, %d seeds)...\n", args[0], sweepMin, sweepMax, sweepSteps, sweepSeeds)
	start := time.Now()
	points, err := analysis.Sweep(ctx, cfg, analysis.SweepOptions{
		Param:  args[0],
		Min:    sweepMin,
		Max:    sweepMax,
		Steps:  sweepSteps,
		Seeds:  sweepSeeds,
		Metric: sweepMetric,
	})
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", args[0], sweepMetric)
	for _, p := range points {
		fmt.Fprintf(w, "%.4g\t%.6g\n", p.Param, p.Mean())
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(analysis.SweepToASCII(points, 60, 15))
	return nil
}

func runDivergence(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := analysis.Divergence(ctx, cfg, delta, samples)
	if err != nil {
		return err
	}
	if len(res.Separation) == 0 {
		return fmt.Errorf("runs diverged in particle count before the first sample")
	}

	logSep := make([]float64, len(res.Separation))
	for i, s := range res.Separation {
		logSep[i] = math.Log10(math.Max(s, 1e-300))
	}
	fmt.Println(asciigraph.Plot(logSep,
		asciigraph.Height(12),
		asciigraph.Width(70),
		asciigraph.Caption("log10 separation vs time"),
	))
	fmt.Printf("\ndelta: %g  samples: %d  horizon: %.4g\n", res.Delta, len(res.Times), res.Times[len(res.Times)-1])
	fmt.Printf("final separation: %.4g\n", res.Separation[len(res.Separation)-1])
	if res.Fitted >= 2 {
		fmt.Printf("exponent: %.4g (fitted on %d samples)\n", res.Exponent, res.Fitted)
	} else {
		fmt.Println("exponent: not enough unsaturated samples")
	}
	return nil
}
