package automation

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/hardsphere/internal/dynamo"
	"github.com/san-kum/hardsphere/internal/storage"
	"github.com/san-kum/hardsphere/internal/trace"
)

const twoSteps = `
name: restitution
description: elastic then half-elastic head-on
steps:
  - preset: headon
    max_time: 0.5
    backend: serial
  - preset: headon
    name: half
    restitution: 0.5
    max_time: 0.5
    backend: serial
`

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(twoSteps), 0644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "restitution", sc.Name)
	require.Len(t, sc.Steps, 2)
	assert.Nil(t, sc.Steps[0].Restitution)
	require.NotNil(t, sc.Steps[1].Restitution)
	assert.Equal(t, 0.5, *sc.Steps[1].Restitution)
}

func TestParseScenarioErrors(t *testing.T) {
	_, err := ParseScenario([]byte("name: empty\n"))
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)

	_, err = ParseScenario([]byte("steps: [1, 2"))
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
}

func TestStepBuild(t *testing.T) {
	zero := 0.0
	seed := int64(42)
	cfg, err := ScenarioStep{Preset: "headon", Restitution: &zero, Seed: &seed, MaxTime: 1}.Build()
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.Restitution)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 1.0, cfg.MaxTime)
	assert.Len(t, cfg.Particles.Positions, 2)

	cfg, err = ScenarioStep{Preset: "headon", NumParticles: 5}.Build()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.NumParticles)
	assert.Nil(t, cfg.Particles.Positions)

	threshold := 0.4
	cfg, err = ScenarioStep{Model: "fusion", FusionThreshold: &threshold}.Build()
	require.NoError(t, err)
	assert.Equal(t, "fusion", cfg.Model)
	assert.Equal(t, 0.4, cfg.Threshold())

	cfg, err = ScenarioStep{Model: "fission"}.Build()
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.Threshold(), "thresholds default to 0")

	_, err = ScenarioStep{Preset: "nope"}.Build()
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)

	_, err = ScenarioStep{Preset: "headon", ConfigFile: "x.yaml"}.Build()
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)

	_, err = ScenarioStep{Model: "quantum"}.Build()
	assert.Error(t, err)
}

func TestRunScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(twoSteps))
	require.NoError(t, err)

	st := storage.New(t.TempDir())
	var out bytes.Buffer
	results, err := RunScenario(context.Background(), sc, st, &out)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Contains(t, out.String(), "running step 2/2")

	assert.NotEqual(t, results[0].RunID, results[1].RunID)
	assert.InDelta(t, 1.0, results[0].Result.Metrics["kinetic_energy"], 1e-9)
	assert.InDelta(t, 0.25, results[1].Result.Metrics["kinetic_energy"], 1e-9)

	runs, err := st.List()
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	h, frames, err := trace.Load(st.TracePath(results[1].RunID))
	require.NoError(t, err)
	assert.Equal(t, 0.5, h.Restitution)
	assert.NotEmpty(t, frames)
	assert.Equal(t, results[1].Result.Frames, len(frames))
}

func TestRunScenarioStopsOnError(t *testing.T) {
	sc := &Scenario{Steps: []ScenarioStep{
		{Preset: "headon", MaxTime: 0.2, Backend: "serial"},
		{Preset: "headon", Backend: "gpu"},
	}}
	results, err := RunScenario(context.Background(), sc, storage.New(t.TempDir()), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 2")
	assert.Len(t, results, 1)
}

func TestRunScenarioCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sc := &Scenario{Steps: []ScenarioStep{{Preset: "headon"}}}
	_, err := RunScenario(ctx, sc, storage.New(t.TempDir()), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
