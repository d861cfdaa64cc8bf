package dynamo

import (
	"fmt"
	"math"
)

// Particle is one row of a System.
type Particle struct {
	Pos    Vec3
	Vel    Vec3
	Mass   float64
	Radius float64
}

// System stores particles as parallel arrays. A particle is identified only
// by its index, which is not stable across fusion or fission.
type System struct {
	Pos    []Vec3
	Vel    []Vec3
	Mass   []float64
	Radius []float64
}

func NewSystem(n int) *System {
	return &System{
		Pos:    make([]Vec3, n),
		Vel:    make([]Vec3, n),
		Mass:   make([]float64, n),
		Radius: make([]float64, n),
	}
}

// FromParticles builds a System holding a copy of ps in order.
func FromParticles(ps []Particle) *System {
	s := NewSystem(len(ps))
	for i, p := range ps {
		s.Set(i, p)
	}
	return s
}

func (s *System) Len() int { return len(s.Pos) }

func (s *System) At(i int) Particle {
	return Particle{Pos: s.Pos[i], Vel: s.Vel[i], Mass: s.Mass[i], Radius: s.Radius[i]}
}

func (s *System) Set(i int, p Particle) {
	s.Pos[i] = p.Pos
	s.Vel[i] = p.Vel
	s.Mass[i] = p.Mass
	s.Radius[i] = p.Radius
}

func (s *System) Clone() *System {
	c := NewSystem(s.Len())
	copy(c.Pos, s.Pos)
	copy(c.Vel, s.Vel)
	copy(c.Mass, s.Mass)
	copy(c.Radius, s.Radius)
	return c
}

// WithPositions returns a System sharing velocities, masses and radii with s
// but using pos as its positions.
func (s *System) WithPositions(pos []Vec3) *System {
	return &System{Pos: pos, Vel: s.Vel, Mass: s.Mass, Radius: s.Radius}
}

// Without returns a copy of s with particles i and j removed, preserving the
// relative order of the rest. Capacity for one extra particle is reserved.
func (s *System) Without(i, j int) *System {
	n := s.Len()
	out := &System{
		Pos:    make([]Vec3, 0, n-1),
		Vel:    make([]Vec3, 0, n-1),
		Mass:   make([]float64, 0, n-1),
		Radius: make([]float64, 0, n-1),
	}
	for k := 0; k < n; k++ {
		if k == i || k == j {
			continue
		}
		out.Append(s.At(k))
	}
	return out
}

// Grow returns a copy of s with room for extra appended particles.
func (s *System) Grow(extra int) *System {
	n := s.Len()
	out := &System{
		Pos:    make([]Vec3, n, n+extra),
		Vel:    make([]Vec3, n, n+extra),
		Mass:   make([]float64, n, n+extra),
		Radius: make([]float64, n, n+extra),
	}
	copy(out.Pos, s.Pos)
	copy(out.Vel, s.Vel)
	copy(out.Mass, s.Mass)
	copy(out.Radius, s.Radius)
	return out
}

func (s *System) Append(p Particle) {
	s.Pos = append(s.Pos, p.Pos)
	s.Vel = append(s.Vel, p.Vel)
	s.Mass = append(s.Mass, p.Mass)
	s.Radius = append(s.Radius, p.Radius)
}

// Validate checks array lengths, positive masses and radii and finite vectors.
func (s *System) Validate() error {
	n := len(s.Pos)
	if len(s.Vel) != n || len(s.Mass) != n || len(s.Radius) != n {
		return fmt.Errorf("%w: array lengths differ (pos=%d vel=%d mass=%d radius=%d)",
			ErrInvalidParticle, n, len(s.Vel), len(s.Mass), len(s.Radius))
	}
	for i := 0; i < n; i++ {
		if !(s.Mass[i] > 0) || math.IsInf(s.Mass[i], 0) {
			return fmt.Errorf("%w: particle %d has mass %g", ErrInvalidParticle, i, s.Mass[i])
		}
		if !(s.Radius[i] > 0) || math.IsInf(s.Radius[i], 0) {
			return fmt.Errorf("%w: particle %d has radius %g", ErrInvalidParticle, i, s.Radius[i])
		}
		if !s.Pos[i].IsValid() || !s.Vel[i].IsValid() {
			return fmt.Errorf("%w: particle %d has non-finite state", ErrInvalidParticle, i)
		}
	}
	return nil
}

func (s *System) KineticEnergy() float64 {
	ke := 0.0
	for i := range s.Vel {
		ke += 0.5 * s.Mass[i] * s.Vel[i].Norm2()
	}
	return ke
}

func (s *System) Momentum() Vec3 {
	var p Vec3
	for i := range s.Vel {
		p = p.Add(s.Vel[i].Scale(s.Mass[i]))
	}
	return p
}

func (s *System) TotalMass() float64 {
	m := 0.0
	for _, v := range s.Mass {
		m += v
	}
	return m
}

// Walls holds the (low, high) bounds of the box along x, y and z.
type Walls [3][2]float64

func (w Walls) Validate() error {
	for k, names := 0, "xyz"; k < 3; k++ {
		lo, hi := w[k][0], w[k][1]
		if math.IsNaN(lo) || math.IsNaN(hi) || !(lo < hi) {
			return fmt.Errorf("%w: %c wall bounds must satisfy low < high, got [%g, %g]",
				ErrInvalidConfig, names[k], lo, hi)
		}
	}
	return nil
}

// MinSpan is the shortest distance between two opposite walls.
func (w Walls) MinSpan() float64 {
	return math.Min(w[0][1]-w[0][0], math.Min(w[1][1]-w[1][0], w[2][1]-w[2][0]))
}

func (w Walls) Volume() float64 {
	return (w[0][1] - w[0][0]) * (w[1][1] - w[1][0]) * (w[2][1] - w[2][0])
}

// UnitBox is the [0,1]^3 enclosure.
var UnitBox = Walls{{0, 1}, {0, 1}, {0, 1}}
