package physics

import (
	"math"

	"github.com/san-kum/hardsphere/internal/dynamo"
)

// Fusion merges a colliding pair into one particle when their closing speed
// exceeds Threshold, and otherwise bounces them like Inelastic.
type Fusion struct {
	E         float64
	Threshold float64
}

func NewFusion(e, threshold float64) *Fusion {
	return &Fusion{E: e, Threshold: threshold}
}

func (r *Fusion) Model() dynamo.Model { return dynamo.ModelFusion }

func (r *Fusion) Resolve(s *dynamo.System, ev dynamo.Event) (*dynamo.System, dynamo.Outcome, error) {
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

	return Merge(s, c), dynamo.OutcomeFused, nil
}

// Merge returns a new System without the contact pair and with their merger
// appended last: midpoint position, center-of-mass velocity, summed mass and
// volume-additive radius.
func Merge(s *dynamo.System, c Contact) *dynamo.System {
	i, j := c.I, c.J
	ri, rj := s.Radius[i], s.Radius[j]
	merged := dynamo.Particle{
		Pos:    s.Pos[i].Add(s.Pos[j]).Scale(0.5),
		Vel:    c.CM,
		Mass:   s.Mass[i] + s.Mass[j],
		Radius: math.Cbrt(ri*ri*ri + rj*rj*rj),
	}

	out := s.Without(i, j)
	out.Append(merged)
	return out
}
