// Package automation runs scripted sequences of stored simulations.
package automation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/hardsphere/internal/config"
	"github.com/san-kum/hardsphere/internal/dynamo"
	"github.com/san-kum/hardsphere/internal/experiment"
	"github.com/san-kum/hardsphere/internal/sim"
	"github.com/san-kum/hardsphere/internal/storage"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run. It starts from Preset or ConfigFile (or the
// defaults) and applies every override that is set.
type ScenarioStep struct {
	Preset     string `yaml:"preset"`
	ConfigFile string `yaml:"config"`

	Name             string   `yaml:"name"`
	Model            string   `yaml:"model"`
	NumParticles     int      `yaml:"num_particles"`
	Restitution      *float64 `yaml:"restitution"`
	MaxTime          float64  `yaml:"max_time"`
	Seed             *int64   `yaml:"seed"`
	Backend          string   `yaml:"backend"`
	FusionThreshold  *float64 `yaml:"fusion_threshold"`
	FissionThreshold *float64 `yaml:"fission_threshold"`
}

// StepResult is the stored outcome of one step. Err is set for a run that
// ended with dynamo.ErrNoEvent, which does not stop the scenario.
type StepResult struct {
	RunID  string
	Result *sim.Result
	Meta   *storage.RunMetadata
	Err    error
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrInvalidConfig, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%w: scenario %q has no steps", dynamo.ErrInvalidConfig, scenario.Name)
	}
	return &scenario, nil
}

// Build returns the validated configuration of the step.
func (s ScenarioStep) Build() (*config.Config, error) {
	cfg := config.DefaultConfig()
	switch {
	case s.Preset != "" && s.ConfigFile != "":
		return nil, fmt.Errorf("%w: preset and config are exclusive", dynamo.ErrInvalidConfig)
	case s.Preset != "":
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("%w: unknown preset %q", dynamo.ErrInvalidConfig, s.Preset)
		}
	case s.ConfigFile != "":
		loaded, err := config.Load(s.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if s.Name != "" {
		cfg.Name = s.Name
	}
	if s.Model != "" {
		cfg.Model = s.Model
	}
	if s.NumParticles > 0 && s.NumParticles != cfg.NumParticles {
		cfg.NumParticles = s.NumParticles
		cfg.Particles.Positions = nil
		cfg.Particles.Velocities = nil
		cfg.Particles.Masses = nil
		cfg.Particles.Radii = nil
	}
	if s.Restitution != nil {
		cfg.Restitution = *s.Restitution
	}
	if s.MaxTime > 0 {
		cfg.MaxTime = s.MaxTime
	}
	if s.Seed != nil {
		cfg.Seed = *s.Seed
	}
	if s.Backend != "" {
		cfg.Backend = s.Backend
	}
	if s.FusionThreshold != nil {
		cfg.FusionThreshold = *s.FusionThreshold
	}
	if s.FissionThreshold != nil {
		cfg.FissionThreshold = *s.FissionThreshold
	}
	return cfg, cfg.Validate()
}

// RunScenario executes all steps in order, storing each run in st. Progress
// lines go to out when it is not nil. On failure the results of the steps
// completed so far are returned with the error.
func RunScenario(ctx context.Context, scenario *Scenario, st *storage.Store, out io.Writer) ([]StepResult, error) {
	if out == nil {
		out = io.Discard
	}
	if err := st.Init(); err != nil {
		return nil, err
	}

	results := make([]StepResult, 0, len(scenario.Steps))
	for i, step := range scenario.Steps {
		cfg, err := step.Build()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		fmt.Fprintf(out, "running step %d/%d: %s with %d particles\n", i+1, len(scenario.Steps), cfg.Model, cfg.NumParticles)

		res, err := runStep(ctx, cfg, st)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		fmt.Fprintf(out, "  run id: %s  steps: %d  final time: %.6g\n", res.RunID, res.Result.Steps, res.Result.FinalTime)
		results = append(results, res)
	}
	return results, nil
}

func runStep(ctx context.Context, cfg *config.Config, st *storage.Store) (StepResult, error) {
	exp := experiment.New(cfg)
	if err := exp.Setup(); err != nil {
		return StepResult{}, fmt.Errorf("setup: %w", err)
	}
	runID, err := st.Create(cfg)
	if err != nil {
		return StepResult{}, err
	}
	if err := exp.Record(st.TracePath(runID)); err != nil {
		return StepResult{}, err
	}

	start := time.Now()
	result, runErr := exp.Run(ctx)
	meta, err := st.Finish(runID, cfg, result, time.Since(start), runErr)
	if err != nil {
		return StepResult{}, err
	}
	if runErr != nil && !errors.Is(runErr, dynamo.ErrNoEvent) {
		return StepResult{}, fmt.Errorf("run %s: %w", runID, runErr)
	}
	return StepResult{RunID: runID, Result: result, Meta: meta, Err: runErr}, nil
}
