package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/san-kum/hardsphere/internal/dynamo"
)

// ExampleINI documents the INI layout read by LoadINI.
const ExampleINI = `[Simulation]
Name = demo
# INELASTIC, FUSION or FISSION.
SimType = FUSION
NumParts = 2
StopTime = 10
ElasticCoeff = 0.9
XWall = 0, 1
YWall = 0, 1
ZWall = 0, 1
# Threshold sets both thresholds; FusionThreshold and FissionThreshold
# override it. Both default 0, at which every collision fuses or splits.
Threshold = 0.5
Seed = 1
Backend = auto

# One section per particle, in index order. Without any, particles are
# random.
[Particle "0"]
Position = 0.25, 0.5, 0.5
Velocity = 1, 0, 0
Mass = 1
Radius = 0.1

[Particle "1"]
Position = 0.75, 0.5, 0.5
Velocity = -1, 0, 0
Mass = 1
Radius = 0.1
`

type iniFile struct {
	Simulation iniSimulation
	Particle   map[string]*iniParticle
}

type iniSimulation struct {
	Name             string
	SimType          string
	NumParts         int
	StopTime         float64
	ElasticCoeff     string
	XWall            string
	YWall            string
	ZWall            string
	Threshold        string
	FusionThreshold  string
	FissionThreshold string
	Seed             int64
	Backend          string
	MaxZeroSteps     int
}

type iniParticle struct {
	Position string
	Velocity string
	Mass     float64
	Radius   float64
}

// LoadINI reads the key = value layout shown in ExampleINI.
func LoadINI(path string) (*Config, error) {
	var f iniFile
	if err := gcfg.ReadFileInto(&f, path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", dynamo.ErrInvalidConfig, path, err)
	}
	return f.config()
}

// ParseINI is LoadINI for in-memory text.
func ParseINI(text string) (*Config, error) {
	var f iniFile
	if err := gcfg.ReadStringInto(&f, text); err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrInvalidConfig, err)
	}
	return f.config()
}

func (f *iniFile) config() (*Config, error) {
	s := f.Simulation
	cfg := DefaultConfig()

	if s.Name != "" {
		cfg.Name = s.Name
	}
	if s.SimType != "" {
		cfg.Model = strings.ToLower(s.SimType)
	}
	if s.NumParts != 0 {
		cfg.NumParticles = s.NumParts
	}
	if s.StopTime != 0 {
		cfg.MaxTime = s.StopTime
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	if s.Backend != "" {
		cfg.Backend = s.Backend
	}
	if s.MaxZeroSteps != 0 {
		cfg.MaxZeroSteps = s.MaxZeroSteps
	}

	var err error
	if s.ElasticCoeff != "" {
		if cfg.Restitution, err = parseFloat("ElasticCoeff", s.ElasticCoeff); err != nil {
			return nil, err
		}
	}
	if s.Threshold != "" {
		th, err := parseFloat("Threshold", s.Threshold)
		if err != nil {
			return nil, err
		}
		cfg.FusionThreshold, cfg.FissionThreshold = th, th
	}
	if s.FusionThreshold != "" {
		if cfg.FusionThreshold, err = parseFloat("FusionThreshold", s.FusionThreshold); err != nil {
			return nil, err
		}
	}
	if s.FissionThreshold != "" {
		if cfg.FissionThreshold, err = parseFloat("FissionThreshold", s.FissionThreshold); err != nil {
			return nil, err
		}
	}

	walls := []*[]float64{&cfg.Walls.X, &cfg.Walls.Y, &cfg.Walls.Z}
	for k, text := range []string{s.XWall, s.YWall, s.ZWall} {
		if text == "" {
			continue
		}
		v, err := parseList(fmt.Sprintf("%cWall", "XYZ"[k]), text, 2)
		if err != nil {
			return nil, err
		}
		*walls[k] = v
	}

	if len(f.Particle) > 0 {
		if err := f.particles(cfg, s.NumParts); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (f *iniFile) particles(cfg *Config, numParts int) error {
	type indexed struct {
		idx int
		p   *iniParticle
	}
	list := make([]indexed, 0, len(f.Particle))
	for name, p := range f.Particle {
		idx, err := strconv.Atoi(name)
		if err != nil {
			return invalid("particle section %q must be named by its index", name)
		}
		list = append(list, indexed{idx, p})
	}
	sort.Slice(list, func(a, b int) bool { return list[a].idx < list[b].idx })

	n := len(list)
	if numParts != 0 && numParts != n {
		return invalid("NumParts is %d but %d particle sections are given", numParts, n)
	}
	cfg.NumParticles = n

	ps := ParticlesConfig{
		Positions:  make([][]float64, n),
		Velocities: make([][]float64, n),
		Masses:     make([]float64, n),
		Radii:      make([]float64, n),
	}
	for i, e := range list {
		if e.idx != i {
			return invalid("particle sections must be numbered 0..%d, missing %d", n-1, i)
		}
		var err error
		name := fmt.Sprintf("Particle %d", i)
		if ps.Positions[i], err = parseList(name+" Position", e.p.Position, 3); err != nil {
			return err
		}
		if ps.Velocities[i], err = parseList(name+" Velocity", e.p.Velocity, 3); err != nil {
			return err
		}
		ps.Masses[i] = e.p.Mass
		ps.Radii[i] = e.p.Radius
	}
	cfg.Particles = ps
	return nil
}

func parseFloat(name, text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, invalid("%s: %q is not a number", name, text)
	}
	return v, nil
}

func parseList(name, text string, n int) ([]float64, error) {
	fields := strings.Split(text, ",")
	if len(fields) != n {
		return nil, invalid("%s needs %d comma-separated values, got %q", name, n, text)
	}
	out := make([]float64, n)
	for i, f := range fields {
		v, err := parseFloat(name, f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
