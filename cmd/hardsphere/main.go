package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/san-kum/hardsphere/internal/automation"
	"github.com/san-kum/hardsphere/internal/config"
	"github.com/san-kum/hardsphere/internal/experiment"
	"github.com/san-kum/hardsphere/internal/gui"
	"github.com/san-kum/hardsphere/internal/sim"
	"github.com/san-kum/hardsphere/internal/storage"
	"github.com/san-kum/hardsphere/internal/viz"
)

var (
	dataDir string

	configFile   string
	preset       string
	runName      string
	model        string
	numParticles int
	restitution  float64
	maxTime      float64
	seed         int64
	backend      string
	fusion       float64
	fission      float64
	maxZeroSteps int

	live   bool
	useGUI bool

	xAxis   string
	yAxis   string
	atTime  float64
	bins    int
	outPath string

	plotColumn     string
	spectrumColumn string
	svgColumn      string
	svgSize        int
	projWidth      int
	projHeight     int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hardsphere",
		Short: "event-driven hard-sphere collision simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			return viz.RunInteractive(ctx)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".hardsphere", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run simulation and store its trace",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd.Flags())
	runCmd.Flags().BoolVar(&live, "live", false, "show the run in the terminal")
	runCmd.Flags().BoolVar(&useGUI, "gui", false, "show the run in a 3D window")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	infoCmd := &cobra.Command{
		Use:   "info [run_id]",
		Short: "show run metadata and trace summary",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a per-frame quantity",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotColumn, "column", "", "series to plot (default: all)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "event statistics, speed distribution and spectrum",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&bins, "bins", 12, "speed histogram bins")
	analyzeCmd.Flags().StringVar(&spectrumColumn, "column", "rms_speed", "series for the spectrum")

	projectCmd := &cobra.Command{
		Use:   "project [run_id]",
		Short: "ascii projection of the particles at a time",
		Args:  cobra.ExactArgs(1),
		RunE:  projectRun,
	}
	addProjectionFlags(projectCmd.Flags())
	projectCmd.Flags().IntVar(&projWidth, "width", 60, "columns")
	projectCmd.Flags().IntVar(&projHeight, "height", 30, "rows")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run trace to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export per-frame series to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export a frame projection or a series to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	addProjectionFlags(exportSVGCmd.Flags())
	exportSVGCmd.Flags().StringVar(&svgColumn, "column", "", "plot this series instead of a frame")
	exportSVGCmd.Flags().IntVar(&svgSize, "size", 600, "image size in pixels")
	exportSVGCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: stdout)")

	viewCmd := &cobra.Command{
		Use:   "view [run_id]",
		Short: "replay a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  viewRun,
	}
	viewCmd.Flags().BoolVar(&useGUI, "gui", false, "replay in a 3D window")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run simulation and stream it over websocket",
		Args:  cobra.NoArgs,
		RunE:  serveRun,
	}
	addConfigFlags(serveCmd.Flags())
	serveCmd.Flags().StringVar(&listenAddr, "addr", "localhost:8080", "listen address")
	serveCmd.Flags().DurationVar(&frameDelay, "delay", 20*time.Millisecond, "delay between frames")
	serveCmd.Flags().BoolVar(&startPaused, "paused", false, "wait for a client to resume the run")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("presets:")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("  %-8s  %-9s  n=%-4d  e=%.2f  t=%g\n", name, p.Model, p.NumParticles, p.Restitution, p.MaxTime)
			}
			return nil
		},
	}

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run consecutive seeds of one configuration in parallel",
		Args:  cobra.NoArgs,
		RunE:  runEnsemble,
	}
	addConfigFlags(ensembleCmd.Flags())
	ensembleCmd.Flags().IntVar(&ensembleRuns, "runs", 8, "number of seeds")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark collision time computation per backend",
		Args:  cobra.NoArgs,
		RunE:  benchBackends,
	}
	addConfigFlags(benchCmd.Flags())
	benchCmd.Flags().IntVar(&benchPasses, "passes", 50, "scheduling passes per backend")

	sweepCmd := &cobra.Command{
		Use:   "sweep [param]",
		Short: "run a configuration across a parameter range",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd.Flags())
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 11, "number of values")
	sweepCmd.Flags().IntVar(&sweepSeeds, "seeds", 1, "seeds per value")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "kinetic_energy", "metric to record")

	divergenceCmd := &cobra.Command{
		Use:   "divergence",
		Short: "separation growth between a run and a perturbed copy",
		Args:  cobra.NoArgs,
		RunE:  runDivergence,
	}
	addConfigFlags(divergenceCmd.Flags())
	divergenceCmd.Flags().Float64Var(&delta, "delta", 1e-6, "initial displacement of particle 0")
	divergenceCmd.Flags().IntVar(&samples, "samples", 50, "sample times")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the steps of a yaml scenario and store each run",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "interactive terminal mode",
		RunE:  rootCmd.RunE,
	}

	rootCmd.AddCommand(runCmd, listCmd, infoCmd, plotCmd, analyzeCmd, projectCmd,
		exportJSONCmd, exportCSVCmd, exportSVGCmd, viewCmd, serveCmd, presetsCmd,
		ensembleCmd, benchCmd, sweepCmd, divergenceCmd, scenarioCmd, tuiCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(fs *pflag.FlagSet) {
	fs.StringVar(&configFile, "config", "", "config file path (yaml or ini)")
	fs.StringVar(&preset, "preset", "", "use preset configuration")
	fs.StringVar(&runName, "name", "", "run name")
	fs.StringVar(&model, "model", config.DefaultModel, "inelastic, fusion or fission")
	fs.IntVarP(&numParticles, "particles", "n", config.DefaultParticles, "number of particles")
	fs.Float64VarP(&restitution, "restitution", "e", config.DefaultRestitution, "coefficient of restitution")
	fs.Float64Var(&maxTime, "time", config.DefaultMaxTime, "simulated time horizon")
	fs.Int64Var(&seed, "seed", 1, "random seed")
	fs.StringVar(&backend, "backend", config.DefaultBackend, "compute backend")
	fs.Float64Var(&fusion, "fusion-threshold", 0, "impact speed above which particles fuse (default 0: every collision fuses)")
	fs.Float64Var(&fission, "fission-threshold", 0, "impact speed above which particles split (default 0: every collision splits)")
	fs.IntVar(&maxZeroSteps, "max-zero-steps", config.DefaultMaxZeroSteps, "consecutive zero-time events allowed")
}

func addProjectionFlags(fs *pflag.FlagSet) {
	fs.StringVar(&xAxis, "x-axis", "x", "horizontal axis")
	fs.StringVar(&yAxis, "y-axis", "y", "vertical axis")
	fs.Float64Var(&atTime, "at", -1, "time to show (default: last frame)")
}

// loadConfig starts from the defaults, a preset or a config file and then
// applies the flags that were set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("name") {
		cfg.Name = runName
	}
	if flags.Changed("model") {
		cfg.Model = model
	}
	if flags.Changed("particles") && numParticles != cfg.NumParticles {
		cfg.NumParticles = numParticles
		cfg.Particles.Positions = nil
		cfg.Particles.Velocities = nil
		cfg.Particles.Masses = nil
		cfg.Particles.Radii = nil
	}
	if flags.Changed("restitution") {
		cfg.Restitution = restitution
	}
	if flags.Changed("time") {
		cfg.MaxTime = maxTime
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("backend") {
		cfg.Backend = backend
	}
	if flags.Changed("fusion-threshold") {
		cfg.FusionThreshold = fusion
	}
	if flags.Changed("fission-threshold") {
		cfg.FissionThreshold = fission
	}
	if flags.Changed("max-zero-steps") {
		cfg.MaxZeroSteps = maxZeroSteps
	}
	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(); err != nil {
		return err
	}
	runID, err := st.Create(cfg)
	if err != nil {
		return err
	}
	if err := exp.Record(st.TracePath(runID)); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	title := fmt.Sprintf("%s (%s)", runID, cfg.Model)
	if !live && !useGUI {
		fmt.Printf("running %s simulation with %d particles on %s backend...\n",
			cfg.Model, cfg.NumParticles, exp.Backend().Name())
	}
	start := time.Now()

	var result *sim.Result
	switch {
	case useGUI:
		result, err = gui.Live(ctx, exp, title)
	case live:
		result, err = viz.RunLive(ctx, exp, title)
	default:
		result, err = exp.Run(ctx)
	}
	elapsed := time.Since(start)

	meta, ferr := st.Finish(runID, cfg, result, elapsed, err)
	if ferr != nil {
		return ferr
	}
	if err != nil {
		fmt.Printf("run id: %s (failed after %v)\n", runID, elapsed)
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	printSummary(meta)
	return nil
}

func printSummary(meta *storage.RunMetadata) {
	fmt.Printf("steps: %d  frames: %d  final time: %.6g\n", meta.Steps, meta.Frames, meta.FinalTime)
	fmt.Printf("particles: %d -> %d\n", meta.Particles, meta.FinalParticles)
	fmt.Println("\nmetrics:")
	for _, name := range sortedNames(meta.Metrics) {
		fmt.Printf("  %-16s %.6g\n", name+":", meta.Metrics[name])
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if sc.Description != "" {
		fmt.Printf("%s: %s\n", sc.Name, sc.Description)
	}
	results, err := automation.RunScenario(ctx, sc, storage.New(dataDir), os.Stdout)
	fmt.Printf("\ncompleted %d/%d steps\n", len(results), len(sc.Steps))
	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("  %s: %v\n", r.RunID, r.Err)
		}
	}
	return err
}
