package physics

import "github.com/san-kum/hardsphere/internal/dynamo"

// Inelastic resolves pair contacts with the restitution-blended exchange and
// never changes the particle count.
type Inelastic struct {
	E float64
}

func NewInelastic(e float64) *Inelastic {
	return &Inelastic{E: e}
}

func (r *Inelastic) Model() dynamo.Model { return dynamo.ModelInelastic }

func (r *Inelastic) Resolve(s *dynamo.System, ev dynamo.Event) (*dynamo.System, dynamo.Outcome, error) {
	if ev.Kind == dynamo.EventWall {
		return resolveWall(s, ev)
	}
	if err := Bounce(s, ev.I, ev.J, r.E); err != nil {
		return nil, dynamo.OutcomeBounced, err
	}
	return s, dynamo.OutcomeBounced, nil
}
