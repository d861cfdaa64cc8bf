package physics

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/hardsphere/internal/dynamo"
)

// fragmentScale is the radius ratio of a fragment holding half the volume.
var fragmentScale = math.Cbrt(0.5)

// Fission breaks one member of a colliding pair into two equal fragments
// when their closing speed exceeds Threshold, and otherwise bounces them
// like Inelastic.
type Fission struct {
	E         float64
	Threshold float64

	rng *rand.Rand
}

func NewFission(e, threshold float64, rng *rand.Rand) *Fission {
	return &Fission{E: e, Threshold: threshold, rng: rng}
}

func (r *Fission) Model() dynamo.Model { return dynamo.ModelFission }

func (r *Fission) Resolve(s *dynamo.System, ev dynamo.Event) (*dynamo.System, dynamo.Outcome, error) {
	if ev.Kind == dynamo.EventWall {
		return resolveWall(s, ev)
	}

	c, err := NewContact(s, ev.I, ev.J, r.E)
	if err != nil {
		return nil, dynamo.OutcomeBounced, err
	}
	if c.ClosingSpeed() <= r.Threshold {
		if err := c.apply(s); err != nil {
			return nil, dynamo.OutcomeBounced, err
		}
		return s, dynamo.OutcomeBounced, nil
	}

	out, err := r.Split(s, c)
	if err != nil {
		return nil, dynamo.OutcomeSplit, err
	}
	return out, dynamo.OutcomeSplit, nil
}

// Broken picks which member of the contact pair breaks: the one slower along
// the line of centers, then the one with the smaller volume-to-mass ratio,
// then the larger one, then a coin flip.
func (r *Fission) Broken(s *dynamo.System, c Contact) int {
	i, j := c.I, c.J

	si := math.Abs(c.Dp.Dot(s.Vel[i]))
	sj := math.Abs(c.Dp.Dot(s.Vel[j]))
	switch {
	case si < sj:
		return i
	case si > sj:
		return j
	}

	ri, rj := s.Radius[i], s.Radius[j]
	di := ri * ri * ri / s.Mass[i]
	dj := rj * rj * rj / s.Mass[j]
	switch {
	case di < dj:
		return i
	case di > dj:
		return j
	}

	switch {
	case ri > rj:
		return i
	case ri < rj:
		return j
	}

	if r.rng.Intn(2) == 0 {
		return i
	}
	return j
}

// Split returns a new System of length n+1: the pair velocities are updated
// as in Inelastic, the broken particle keeps its slot as one fragment and
// the second fragment is appended. Fragments have half the mass and volume
// and separate along cross(v_other, Δp).
func (r *Fission) Split(s *dynamo.System, c Contact) (*dynamo.System, error) {
	brok := r.Broken(s, c)
	other := c.I
	if brok == c.I {
		other = c.J
	}

	out := s.Grow(1)
	if err := c.apply(out); err != nil {
		return nil, err
	}

	radius := fragmentScale * s.Radius[brok]
	mass := s.Mass[brok] / 2

	n := s.Vel[other].Cross(c.Dp).Unit()
	if n == (dynamo.Vec3{}) {
		n = RandomUnit(r.rng)
	}

	// Kick speed accounts for the kinetic energy the broken particle gained
	// or lost in the exchange.
	vNext := out.Vel[brok]
	kick := math.Sqrt(math.Abs(s.Vel[brok].Norm2() - vNext.Norm2()))

	p := s.Pos[brok]
	out.Set(brok, dynamo.Particle{
		Pos:    p.Sub(n.Scale(radius)),
		Vel:    vNext.Sub(n.Scale(kick)),
		Mass:   mass,
		Radius: radius,
	})
	out.Append(dynamo.Particle{
		Pos:    p.Add(n.Scale(radius)),
		Vel:    vNext.Add(n.Scale(kick)),
		Mass:   mass,
		Radius: radius,
	})

	last := out.Len() - 1
	if !out.Vel[brok].IsValid() || !out.Vel[last].IsValid() {
		return nil, fmt.Errorf("%w: non-finite fragment velocity splitting particle %d", dynamo.ErrDegenerateGeometry, brok)
	}
	return out, nil
}

// RandomUnit returns a unit vector uniformly distributed on the sphere.
func RandomUnit(rng *rand.Rand) dynamo.Vec3 {
	for {
		v := dynamo.Vec3{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
		if n := v.Norm(); n > 1e-12 {
			return v.Scale(1 / n)
		}
	}
}
