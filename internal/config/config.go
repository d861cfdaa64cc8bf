package config

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/hardsphere/internal/dynamo"
)

const (
	DefaultModel        = "inelastic"
	DefaultParticles    = 2
	DefaultRestitution  = 1.0
	DefaultMaxTime      = 10.0
	DefaultBackend      = "auto"
	DefaultMaxZeroSteps = 10000
	DefaultRadius       = 0.05
)

// Random masses and radii are drawn from [minRandom, minRandom+spanRandom).
const (
	minRandom  = 0.1
	spanRandom = 0.9
)

type Config struct {
	Name             string          `yaml:"name"`
	Model            string          `yaml:"model"`
	NumParticles     int             `yaml:"num_particles"`
	Restitution      float64         `yaml:"restitution"`
	MaxTime          float64         `yaml:"max_time"`
	Seed             int64           `yaml:"seed"`
	Backend          string          `yaml:"backend"`
	Walls            WallsConfig     `yaml:"walls"`
	FusionThreshold  float64         `yaml:"fusion_threshold"`
	FissionThreshold float64         `yaml:"fission_threshold"`
	MaxZeroSteps     int             `yaml:"max_zero_steps"`
	Particles        ParticlesConfig `yaml:"particles"`
}

// WallsConfig holds the (low, high) bounds per axis.
type WallsConfig struct {
	X []float64 `yaml:"x,flow"`
	Y []float64 `yaml:"y,flow"`
	Z []float64 `yaml:"z,flow"`
}

// ParticlesConfig lists explicit initial values. An empty list is filled
// with random values; Mass and Radius, when positive, apply to every
// particle without an explicit value. Random positions keep every sphere
// inside the walls.
type ParticlesConfig struct {
	Positions  [][]float64 `yaml:"positions,omitempty"`
	Velocities [][]float64 `yaml:"velocities,omitempty"`
	Masses     []float64   `yaml:"masses,omitempty,flow"`
	Radii      []float64   `yaml:"radii,omitempty,flow"`
	Mass       float64     `yaml:"mass,omitempty"`
	Radius     float64     `yaml:"radius,omitempty"`
	// Speed scales random velocities, which are otherwise drawn from [0,1)^3.
	Speed float64 `yaml:"speed,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:        DefaultModel,
		NumParticles: DefaultParticles,
		Restitution:  DefaultRestitution,
		MaxTime:      DefaultMaxTime,
		Backend:      DefaultBackend,
		Seed:         1,
		Walls: WallsConfig{
			X: []float64{0, 1},
			Y: []float64{0, 1},
			Z: []float64{0, 1},
		},
		MaxZeroSteps: DefaultMaxZeroSteps,
		Particles:    ParticlesConfig{Radius: DefaultRadius},
	}
}

// Load reads a YAML file, or an INI file when the extension is .ini or
// .gcfg, on top of DefaultConfig.
func Load(path string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini", ".gcfg", ".cfg":
		return LoadINI(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", dynamo.ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Clone() *Config {
	out := *c
	out.Walls = WallsConfig{
		X: append([]float64(nil), c.Walls.X...),
		Y: append([]float64(nil), c.Walls.Y...),
		Z: append([]float64(nil), c.Walls.Z...),
	}
	out.Particles.Positions = cloneVectors(c.Particles.Positions)
	out.Particles.Velocities = cloneVectors(c.Particles.Velocities)
	out.Particles.Masses = append([]float64(nil), c.Particles.Masses...)
	out.Particles.Radii = append([]float64(nil), c.Particles.Radii...)
	return &out
}

func cloneVectors(vs [][]float64) [][]float64 {
	if vs == nil {
		return nil
	}
	out := make([][]float64, len(vs))
	for i, v := range vs {
		out[i] = append([]float64(nil), v...)
	}
	return out
}

func (c *Config) ParsedModel() (dynamo.Model, error) {
	return dynamo.ParseModel(c.Model)
}

// Threshold returns the threshold of the configured model. Both default to
// 0, at which every approaching contact fuses or splits.
func (c *Config) Threshold() float64 {
	m, _ := c.ParsedModel()
	switch m {
	case dynamo.ModelFusion:
		return c.FusionThreshold
	case dynamo.ModelFission:
		return c.FissionThreshold
	}
	return 0
}

func (c *Config) WallBounds() dynamo.Walls {
	var w dynamo.Walls
	for k, b := range [][]float64{c.Walls.X, c.Walls.Y, c.Walls.Z} {
		if len(b) == 2 {
			w[k] = [2]float64{b[0], b[1]}
		}
	}
	return w
}

func (c *Config) Validate() error {
	if _, err := c.ParsedModel(); err != nil {
		return err
	}
	if c.NumParticles <= 0 {
		return invalid("num_particles must be positive, got %d", c.NumParticles)
	}
	if !(c.Restitution >= 0 && c.Restitution <= 1) {
		return invalid("restitution must be in [0, 1], got %g", c.Restitution)
	}
	if !(c.MaxTime > 0) || math.IsInf(c.MaxTime, 0) {
		return invalid("max_time must be positive and finite, got %g", c.MaxTime)
	}
	if !(c.FusionThreshold >= 0) || !(c.FissionThreshold >= 0) {
		return invalid("thresholds must be >= 0, got fusion=%g fission=%g", c.FusionThreshold, c.FissionThreshold)
	}
	for k, b := range [][]float64{c.Walls.X, c.Walls.Y, c.Walls.Z} {
		if len(b) != 2 {
			return invalid("walls.%c needs two values, got %d", "xyz"[k], len(b))
		}
	}
	if err := c.WallBounds().Validate(); err != nil {
		return err
	}

	p := c.Particles
	if err := checkVectors("positions", p.Positions, c.NumParticles); err != nil {
		return err
	}
	if err := checkVectors("velocities", p.Velocities, c.NumParticles); err != nil {
		return err
	}
	if err := checkPositive("masses", p.Masses, c.NumParticles); err != nil {
		return err
	}
	if err := checkPositive("radii", p.Radii, c.NumParticles); err != nil {
		return err
	}
	if p.Mass < 0 || p.Radius < 0 || p.Speed < 0 {
		return invalid("particles.mass, particles.radius and particles.speed must not be negative")
	}
	return c.checkFit()
}

// checkFit rejects spheres too large for the walls and given positions
// that put a sphere through a wall.
func (c *Config) checkFit() error {
	w := c.WallBounds()
	span := w.MinSpan()
	p := c.Particles

	if len(p.Radii) == 0 && p.Radius == 0 && 2*(minRandom+spanRandom) > span {
		return invalid("random radii up to %g do not fit walls %g apart, set particles.radius", minRandom+spanRandom, span)
	}
	for i := 0; i < c.NumParticles; i++ {
		r := p.Radius
		if len(p.Radii) > 0 {
			r = p.Radii[i]
		}
		if 2*r >= span {
			return invalid("particle %d radius %g does not fit walls %g apart", i, r, span)
		}
		if len(p.Positions) == 0 {
			continue
		}
		for k, x := range p.Positions[i] {
			if x-r < w[k][0] || x+r > w[k][1] {
				return invalid("particle %d starts outside the %c walls at %g", i, "xyz"[k], x)
			}
		}
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{dynamo.ErrInvalidConfig}, args...)...)
}

func checkVectors(name string, vs [][]float64, n int) error {
	if len(vs) == 0 {
		return nil
	}
	if len(vs) != n {
		return invalid("particles.%s has %d entries for %d particles", name, len(vs), n)
	}
	for i, v := range vs {
		if len(v) != 3 {
			return invalid("particles.%s[%d] needs 3 components, got %d", name, i, len(v))
		}
		for _, x := range v {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return invalid("particles.%s[%d] is not finite", name, i)
			}
		}
	}
	return nil
}

func checkPositive(name string, xs []float64, n int) error {
	if len(xs) == 0 {
		return nil
	}
	if len(xs) != n {
		return invalid("particles.%s has %d entries for %d particles", name, len(xs), n)
	}
	for i, x := range xs {
		if !(x > 0) || math.IsInf(x, 0) {
			return invalid("particles.%s[%d] must be positive, got %g", name, i, x)
		}
	}
	return nil
}

// Build validates c and generates the initial System, drawing unspecified
// values from a generator seeded with c.Seed.
func (c *Config) Build() (*dynamo.System, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(c.Seed))
	n := c.NumParticles
	p := c.Particles
	s := dynamo.NewSystem(n)

	speed := 1.0
	if p.Speed > 0 {
		speed = p.Speed
	}

	fillVectors(s.Pos, p.Positions, 1, rng)
	fillVectors(s.Vel, p.Velocities, speed, rng)
	fillScalars(s.Mass, p.Masses, p.Mass, rng)
	fillScalars(s.Radius, p.Radii, p.Radius, rng)
	if len(p.Positions) == 0 {
		placeInside(s, c.WallBounds())
	}
	return s, nil
}

// placeInside maps unit-cube positions into the walls, inset by each radius.
func placeInside(s *dynamo.System, w dynamo.Walls) {
	for i, r := range s.Radius {
		for k := 0; k < 3; k++ {
			lo, hi := w[k][0]+r, w[k][1]-r
			s.Pos[i][k] = lo + s.Pos[i][k]*(hi-lo)
		}
	}
}

func fillVectors(dst []dynamo.Vec3, given [][]float64, scale float64, rng *rand.Rand) {
	if len(given) > 0 {
		for i, v := range given {
			dst[i] = dynamo.Vec3{v[0], v[1], v[2]}
		}
		return
	}
	for i := range dst {
		dst[i] = dynamo.Vec3{rng.Float64(), rng.Float64(), rng.Float64()}.Scale(scale)
	}
}

func fillScalars(dst, given []float64, uniform float64, rng *rand.Rand) {
	switch {
	case len(given) > 0:
		copy(dst, given)
	case uniform > 0:
		for i := range dst {
			dst[i] = uniform
		}
	default:
		for i := range dst {
			dst[i] = rng.Float64()*spanRandom + minRandom
		}
	}
}
