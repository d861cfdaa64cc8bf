package main

import (
	"fmt"
	"math/bits"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/hardsphere/internal/analysis"
	"github.com/san-kum/hardsphere/internal/gui"
	"github.com/san-kum/hardsphere/internal/storage"
	"github.com/san-kum/hardsphere/internal/trace"
	"github.com/san-kum/hardsphere/internal/viz"
)

func sortedNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func loadTrace(runID string) (*storage.RunMetadata, trace.Header, []*trace.Frame, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, trace.Header{}, nil, err
	}
	h, frames, err := trace.Load(st.TracePath(runID))
	if err != nil {
		return nil, trace.Header{}, nil, err
	}
	if len(frames) == 0 {
		return nil, trace.Header{}, nil, fmt.Errorf("run %s has no frames", runID)
	}
	return meta, h, frames, nil
}

// frameAt returns the state at t, or the last frame when t is negative.
func frameAt(frames []*trace.Frame, t float64) *trace.Frame {
	if t < 0 {
		return frames[len(frames)-1]
	}
	i := trace.Locate(frames, t)
	if i < 0 {
		i = 0
		t = frames[0].Time
	}
	f := frames[i]
	return &trace.Frame{Time: t, Radius: f.Radius, Pos: f.At(t), Vel: f.Vel}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tN\tE\tT\tSTEPS\tSTATUS")

	for _, run := range runs {
		status := "ok"
		if run.Error != "" {
			status = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d->%d\t%.2f\t%.3g\t%d\t%s\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Particles,
			run.FinalParticles,
			run.Restitution,
			run.FinalTime,
			run.Steps,
			status,
		)
	}

	return w.Flush()
}

func runInfo(cmd *cobra.Command, args []string) error {
	meta, h, frames, err := loadTrace(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s  backend: %s  seed: %d\n", meta.Model, meta.Backend, meta.Seed)
	fmt.Printf("restitution: %g  max time: %g\n", h.Restitution, h.MaxTime)
	fmt.Printf("walls: x%v y%v z%v\n", h.Walls[0], h.Walls[1], h.Walls[2])
	fmt.Printf("elapsed: %.3fs\n", meta.Elapsed)
	if meta.Error != "" {
		fmt.Printf("error: %s\n", meta.Error)
	}
	fmt.Printf("frames: %d (t=%.6g .. %.6g)\n", len(frames), frames[0].Time, frames[len(frames)-1].Time)
	printSummary(meta)
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, h, frames, err := loadTrace(args[0])
	if err != nil {
		return err
	}
	if len(frames) < 2 {
		return fmt.Errorf("no data to plot")
	}

	series := analysis.ComputeSeries(h, frames)
	names := series.Names()
	if plotColumn != "" {
		names = []string{plotColumn}
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("frames: %d\n\n", len(frames))

	for _, name := range names {
		data, err := series.Column(name)
		if err != nil {
			return err
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" vs frame"),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, h, frames, err := loadTrace(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("analysis: %s\n", meta.ID)
	fmt.Printf("model: %s\n\n", meta.Model)

	iv := analysis.FrameIntervals(frames)
	fmt.Println("time between events:")
	fmt.Printf("  events: %d  rate: %.4g per unit time\n", iv.Count, iv.EventsPerTime)
	fmt.Printf("  mean: %.4g  std: %.4g  min: %.4g  max: %.4g\n\n", iv.Mean, iv.Std, iv.Min, iv.Max)

	last := frames[len(frames)-1]
	fmt.Printf("speed distribution at t=%.4g:\n", last.Time)
	fmt.Println(analysis.SpeedHistogram(last, bins).ToASCII(50))

	series := analysis.ComputeSeries(h, frames)
	values, err := series.Column(spectrumColumn)
	if err != nil {
		return err
	}
	if len(frames) < 8 {
		fmt.Println("not enough frames for a spectrum")
		return nil
	}
	n := 1 << (bits.Len(uint(len(frames))) - 1)
	spectrum, err := analysis.PowerSpectrum(series.Times, values, n)
	if err != nil {
		return err
	}

	span := series.Times[len(series.Times)-1] - series.Times[0]
	peak, maxPower := 0, 0.0
	for i := 1; i < len(spectrum); i++ {
		if spectrum[i] > maxPower {
			maxPower = spectrum[i]
			peak = i
		}
	}

	fmt.Printf("\nspectrum of %s (%d points):\n", spectrumColumn, n)
	fmt.Println(asciigraph.Plot(spectrum[1:], asciigraph.Height(8), asciigraph.Width(64)))
	if peak > 0 && span > 0 {
		freq := float64(peak) / span
		fmt.Printf("dominant frequency: %.4g\n", freq)
		fmt.Printf("period: %.4g\n", 1/freq)
	}
	return nil
}

func projectRun(cmd *cobra.Command, args []string) error {
	meta, h, frames, err := loadTrace(args[0])
	if err != nil {
		return err
	}
	ax, err := analysis.AxisIndex(xAxis)
	if err != nil {
		return err
	}
	ay, err := analysis.AxisIndex(yAxis)
	if err != nil {
		return err
	}

	f := frameAt(frames, atTime)
	out, err := analysis.ProjectionToASCII(f, h.Walls, ax, ay, projWidth, projHeight)
	if err != nil {
		return err
	}

	fmt.Printf("projection: %s\n", meta.ID)
	fmt.Printf("t=%.6g  particles: %d  axes: %s/%s\n\n", f.Time, f.Len(), xAxis, yAxis)
	fmt.Println(out)
	fmt.Printf("\nLegend: • = one particle, ● = several\n")
	return nil
}

func viewRun(cmd *cobra.Command, args []string) error {
	meta, h, frames, err := loadTrace(args[0])
	if err != nil {
		return err
	}
	title := fmt.Sprintf("%s (%s)", meta.ID, meta.Model)
	if useGUI {
		gui.Replay(h, frames, title)
		return nil
	}
	return viz.RunReplay(h, frames, title)
}
