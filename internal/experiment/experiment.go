package experiment

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/san-kum/hardsphere/internal/compute"
	"github.com/san-kum/hardsphere/internal/config"
	"github.com/san-kum/hardsphere/internal/dynamo"
	"github.com/san-kum/hardsphere/internal/sim"
	"github.com/san-kum/hardsphere/internal/trace"
)

// Experiment is one configured run: the initial System, its backend handle,
// resolver, simulator and optional trace file.
type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	model     dynamo.Model
	initial   *dynamo.System
	backend   compute.Backend
	simulator *sim.Simulator
	metrics   []dynamo.Metric
	writer    *trace.Writer
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg, registry: NewRegistry()}
}

// Setup validates the configuration and builds every collaborator. It must
// be called before Run.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	if e.cfg.NumParticles > compute.MaxParticles {
		return fmt.Errorf("%w: %d particles exceeds the limit of %d",
			dynamo.ErrResource, e.cfg.NumParticles, compute.MaxParticles)
	}

	model, err := e.cfg.ParsedModel()
	if err != nil {
		return err
	}
	initial, err := e.cfg.Build()
	if err != nil {
		return err
	}
	backend, err := e.registry.GetBackend(e.cfg.Backend)
	if err != nil {
		return err
	}
	resolver, err := e.registry.GetResolver(e.cfg, rand.New(rand.NewSource(e.cfg.Seed)))
	if err != nil {
		backend.Cleanup()
		return err
	}

	e.model = model
	e.initial = initial
	e.backend = backend
	e.simulator = sim.New(backend, resolver, e.cfg.WallBounds())
	e.metrics = e.registry.DefaultMetrics()
	for _, m := range e.metrics {
		e.simulator.AddMetric(m)
	}
	return nil
}

// Record writes the trace of the run to path.
func (e *Experiment) Record(path string) error {
	if e.simulator == nil {
		return fmt.Errorf("experiment not setup")
	}
	w, err := trace.Create(path, e.Header())
	if err != nil {
		return err
	}
	e.writer = w
	e.simulator.AddSink(w)
	return nil
}

func (e *Experiment) Header() trace.Header {
	return trace.HeaderFor(e.model, e.initial, e.cfg.Restitution, e.cfg.MaxTime, e.cfg.WallBounds())
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	defer e.backend.Cleanup()

	result, err := e.simulator.Run(ctx, e.initial, SimConfig(e.cfg))
	if e.writer != nil {
		if cerr := e.writer.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close trace: %w", cerr)
		}
	}
	return result, err
}

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

func (e *Experiment) Initial() *dynamo.System { return e.initial }

func (e *Experiment) Model() dynamo.Model { return e.model }

func (e *Experiment) Backend() compute.Backend { return e.backend }

func SimConfig(cfg *config.Config) sim.Config {
	return sim.Config{MaxTime: cfg.MaxTime, MaxZeroSteps: cfg.MaxZeroSteps}
}

// NewEnsemble runs cfg for numRuns consecutive seeds starting at cfg.Seed.
// Each run gets its own backend, resolver and initial System.
func NewEnsemble(cfg *config.Config, numRuns int) *sim.Ensemble {
	factory := func(seed int64) (*sim.Simulator, *dynamo.System, error) {
		runCfg := cfg.Clone()
		runCfg.Seed = seed
		exp := New(runCfg)
		if err := exp.Setup(); err != nil {
			return nil, nil, err
		}
		return exp.simulator, exp.initial, nil
	}
	return sim.NewEnsemble(factory, numRuns, cfg.Seed)
}
