package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/hardsphere/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model != "inelastic" {
		t.Errorf("expected model inelastic, got %s", cfg.Model)
	}
	if cfg.MaxTime <= 0 {
		t.Error("max time should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
	if cfg.WallBounds() != dynamo.UnitBox {
		t.Errorf("expected unit box, got %v", cfg.WallBounds())
	}

	s, err := cfg.Build()
	if err != nil {
		t.Fatalf("default config should build: %v", err)
	}
	for i, p := range s.Pos {
		for k := 0; k < 3; k++ {
			if p[k] < DefaultRadius-1e-12 || p[k] > 1-DefaultRadius+1e-12 {
				t.Errorf("particle %d starts through a wall: %v", i, p)
			}
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown model", func(c *Config) { c.Model = "plasma" }},
		{"no particles", func(c *Config) { c.NumParticles = 0 }},
		{"restitution above one", func(c *Config) { c.Restitution = 1.01 }},
		{"negative restitution", func(c *Config) { c.Restitution = -0.1 }},
		{"zero horizon", func(c *Config) { c.MaxTime = 0 }},
		{"negative threshold", func(c *Config) { c.Model = "fusion"; c.FusionThreshold = -1 }},
		{"inverted walls", func(c *Config) { c.Walls.Y = []float64{1, 0} }},
		{"short walls", func(c *Config) { c.Walls.Z = []float64{1} }},
		{"position count", func(c *Config) { c.Particles.Positions = [][]float64{{0, 0, 0}} }},
		{"short position", func(c *Config) { c.Particles.Positions = [][]float64{{0, 0, 0}, {1, 1}} }},
		{"zero mass", func(c *Config) { c.Particles.Masses = []float64{1, 0} }},
		{"negative radius", func(c *Config) { c.Particles.Radii = []float64{-0.1, 0.1} }},
		{"negative uniform radius", func(c *Config) { c.Particles.Radius = -1 }},
		{"uniform radius spans the box", func(c *Config) { c.Particles.Radius = 0.5 }},
		{"given radius spans the box", func(c *Config) { c.Particles.Radii = []float64{0.1, 0.6} }},
		{"random radii in the unit box", func(c *Config) { c.Particles.Radius = 0 }},
		{"position outside walls", func(c *Config) {
			c.Particles.Positions = [][]float64{{0.5, 0.5, 0.5}, {0.5, 1.2, 0.5}}
		}},
		{"sphere through a wall", func(c *Config) {
			c.Particles.Positions = [][]float64{{0.02, 0.5, 0.5}, {0.5, 0.5, 0.5}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.ErrorIs(t, cfg.Validate(), dynamo.ErrInvalidConfig)
		})
	}
}

func TestThresholdDefaultsToZero(t *testing.T) {
	for _, model := range []string{"fusion", "fission"} {
		cfg := DefaultConfig()
		cfg.Model = model
		require.NoError(t, cfg.Validate(), model)
		assert.Equal(t, 0.0, cfg.Threshold(), model)
	}
	assert.Contains(t, ExampleINI, "default 0")
}

func TestValidateFit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Model = "fusion"
	cfg.FusionThreshold = 0.5
	cfg.Particles.Positions = [][]float64{{0.05, 0.5, 0.5}, {0.9, 0.5, 0.5}}
	assert.NoError(t, cfg.Validate(), "spheres touching the walls fit")

	cfg = DefaultConfig()
	cfg.Walls = WallsConfig{X: []float64{-2, 2}, Y: []float64{-2, 2}, Z: []float64{0, 2}}
	cfg.Particles.Radius = 0
	assert.NoError(t, cfg.Validate(), "random radii fit a box two units wide")

	cfg.Particles.Positions = [][]float64{{0, 0, 1}, {1, 1, 1}}
	cfg.Particles.Radii = []float64{0.5, 0.9}
	assert.NoError(t, cfg.Validate())
	cfg.Particles.Radii = []float64{0.5, 1.1}
	assert.ErrorIs(t, cfg.Validate(), dynamo.ErrInvalidConfig)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	text := `
model: fission
num_particles: 3
restitution: 0.5
max_time: 4
fission_threshold: 0.25
walls:
  x: [-1, 1]
particles:
  radius: 0.05
`
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fission", cfg.Model)
	assert.Equal(t, 3, cfg.NumParticles)
	assert.Equal(t, 0.25, cfg.Threshold())
	assert.Equal(t, 0.0, cfg.FusionThreshold)
	assert.Equal(t, dynamo.Walls{{-1, 1}, {0, 1}, {0, 1}}, cfg.WallBounds())
	assert.Equal(t, "auto", cfg.Backend, "defaults survive partial files")
	require.NoError(t, cfg.Validate())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	orig := GetPreset("sticky")
	require.NoError(t, Save(path, orig))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, orig, loaded)
}

func TestLoadINI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.ini")
	require.NoError(t, os.WriteFile(path, []byte(ExampleINI), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Name)
	assert.Equal(t, "fusion", cfg.Model)
	assert.Equal(t, 2, cfg.NumParticles)
	assert.Equal(t, 0.9, cfg.Restitution)
	assert.Equal(t, 0.5, cfg.FusionThreshold)
	assert.Equal(t, 0.5, cfg.FissionThreshold)
	assert.Equal(t, [][]float64{{0.25, 0.5, 0.5}, {0.75, 0.5, 0.5}}, cfg.Particles.Positions)
	assert.Equal(t, []float64{-1, 0, 0}, cfg.Particles.Velocities[1])
	require.NoError(t, cfg.Validate())
}

func TestParseINIOverridesAndErrors(t *testing.T) {
	cfg, err := ParseINI("[Simulation]\nSimType = FISSION\nThreshold = 1\nFissionThreshold = 2\nXWall = -5, 5\n")
	require.NoError(t, err)
	assert.Equal(t, 1.0, cfg.FusionThreshold)
	assert.Equal(t, 2.0, cfg.FissionThreshold)
	assert.Equal(t, []float64{-5, 5}, cfg.Walls.X)

	bad := []string{
		"[Simulation]\nXWall = 0\n",
		"[Simulation]\nElasticCoeff = high\n",
		"[Simulation]\nNumParts = 3\n[Particle \"0\"]\nPosition = 0, 0, 0\nVelocity = 0, 0, 0\nMass = 1\nRadius = 1\n",
		"[Particle \"1\"]\nPosition = 0, 0, 0\nVelocity = 0, 0, 0\nMass = 1\nRadius = 1\n",
		"[Particle \"first\"]\nPosition = 0, 0, 0\n",
		"[Simulation]\nUnknownKey = 1\n",
	}
	for _, text := range bad {
		_, err := ParseINI(text)
		assert.ErrorIs(t, err, dynamo.ErrInvalidConfig, text)
	}
}

func TestBuildRandom(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumParticles = 500
	cfg.Seed = 42
	cfg.Walls = WallsConfig{X: []float64{-2, 2}, Y: []float64{0, 2}, Z: []float64{1, 4}}
	cfg.Particles.Radius = 0

	s, err := cfg.Build()
	require.NoError(t, err)
	require.Equal(t, 500, s.Len())
	require.NoError(t, s.Validate())

	w := cfg.WallBounds()
	for i := 0; i < s.Len(); i++ {
		r := s.Radius[i]
		for k := 0; k < 3; k++ {
			if s.Pos[i][k]-r < w[k][0]-1e-12 || s.Pos[i][k]+r > w[k][1]+1e-12 {
				t.Fatalf("particle %d crosses the %c walls: pos=%v r=%g", i, "xyz"[k], s.Pos[i], r)
			}
			if s.Vel[i][k] < 0 || s.Vel[i][k] >= 1 {
				t.Fatalf("particle %d velocity outside [0,1): %v", i, s.Vel[i])
			}
		}
		if s.Mass[i] < 0.1 || s.Mass[i] >= 1 || r < 0.1 || r >= 1 {
			t.Fatalf("particle %d mass/radius out of range: %g %g", i, s.Mass[i], r)
		}
	}

	again, err := cfg.Build()
	require.NoError(t, err)
	assert.Equal(t, s, again, "same seed builds the same system")
}

func TestBuildGiven(t *testing.T) {
	cfg := GetPreset("sticky")
	s, err := cfg.Build()
	require.NoError(t, err)
	assert.Equal(t, dynamo.Vec3{0.6, 0.52, 0.5}, s.Pos[1])
	assert.Equal(t, []float64{1, 2}, s.Mass)
	assert.Equal(t, []float64{0.1, 0.1}, s.Radius)
}

func TestPresets(t *testing.T) {
	names := ListPresets()
	assert.Equal(t, []string{"gas", "headon", "merge", "shatter", "sticky"}, names)

	for _, name := range names {
		cfg := GetPreset(name)
		require.NotNil(t, cfg, name)
		_, err := cfg.Build()
		assert.NoError(t, err, name)
	}

	cfg := GetPreset("headon")
	cfg.Particles.Positions[0][0] = 99
	cfg.Walls.X[1] = 99
	assert.Equal(t, 0.25, Presets["headon"].Particles.Positions[0][0], "presets are copied")
	assert.Equal(t, 1.0, Presets["headon"].Walls.X[1])

	assert.Nil(t, GetPreset("nonexistent"))
}
