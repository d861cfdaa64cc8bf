package config

import "sort"

var unitWalls = WallsConfig{X: []float64{0, 1}, Y: []float64{0, 1}, Z: []float64{0, 1}}

var Presets = map[string]*Config{
	"headon": {
		Name: "headon", Model: "inelastic", NumParticles: 2, Restitution: 1, MaxTime: 5,
		Backend: DefaultBackend, Seed: 1, Walls: unitWalls, MaxZeroSteps: DefaultMaxZeroSteps,
		Particles: ParticlesConfig{
			Positions:  [][]float64{{0.25, 0.5, 0.5}, {0.75, 0.5, 0.5}},
			Velocities: [][]float64{{1, 0, 0}, {-1, 0, 0}},
			Mass:       1,
			Radius:     0.1,
		},
	},
	"sticky": {
		Name: "sticky", Model: "inelastic", NumParticles: 2, Restitution: 0, MaxTime: 5,
		Backend: DefaultBackend, Seed: 1, Walls: unitWalls, MaxZeroSteps: DefaultMaxZeroSteps,
		Particles: ParticlesConfig{
			Positions:  [][]float64{{0.2, 0.5, 0.5}, {0.6, 0.52, 0.5}},
			Velocities: [][]float64{{1, 0.3, 0}, {0, 0, 0.2}},
			Masses:     []float64{1, 2},
			Radius:     0.1,
		},
	},
	"gas": {
		Name: "gas", Model: "inelastic", NumParticles: 200, Restitution: 1, MaxTime: 5,
		Backend: DefaultBackend, Seed: 7, Walls: unitWalls, MaxZeroSteps: DefaultMaxZeroSteps,
		Particles: ParticlesConfig{Radius: 0.01, Speed: 2},
	},
	"merge": {
		Name: "merge", Model: "fusion", NumParticles: 60, Restitution: 0.8, MaxTime: 10,
		Backend: DefaultBackend, Seed: 3, Walls: unitWalls, MaxZeroSteps: DefaultMaxZeroSteps,
		FusionThreshold: 0.6,
		Particles:       ParticlesConfig{Radius: 0.03, Mass: 1},
	},
	"shatter": {
		Name: "shatter", Model: "fission", NumParticles: 20, Restitution: 1, MaxTime: 2,
		Backend: DefaultBackend, Seed: 5, Walls: unitWalls, MaxZeroSteps: DefaultMaxZeroSteps,
		FissionThreshold: 1.2,
		Particles:        ParticlesConfig{Radius: 0.04, Speed: 1.5},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
