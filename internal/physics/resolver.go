package physics

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/hardsphere/internal/dynamo"
)

// Resolver applies the response to one event. The returned System is either
// s, updated in place, or a new System when the particle count changed; in
// the latter case s must be discarded by the caller.
type Resolver interface {
	Model() dynamo.Model
	Resolve(s *dynamo.System, ev dynamo.Event) (*dynamo.System, dynamo.Outcome, error)
}

type Params struct {
	Restitution      float64
	FusionThreshold  float64
	FissionThreshold float64
	// Rand drives fission tie-breaks and degenerate split directions.
	Rand *rand.Rand
}

func New(model dynamo.Model, p Params) (Resolver, error) {
	if p.Restitution < 0 || p.Restitution > 1 {
		return nil, fmt.Errorf("%w: restitution must be in [0, 1], got %g", dynamo.ErrInvalidConfig, p.Restitution)
	}
	switch model {
	case dynamo.ModelInelastic:
		return NewInelastic(p.Restitution), nil
	case dynamo.ModelFusion:
		if p.FusionThreshold < 0 {
			return nil, fmt.Errorf("%w: fusion threshold must be >= 0, got %g", dynamo.ErrInvalidConfig, p.FusionThreshold)
		}
		return NewFusion(p.Restitution, p.FusionThreshold), nil
	case dynamo.ModelFission:
		if p.FissionThreshold < 0 {
			return nil, fmt.Errorf("%w: fission threshold must be >= 0, got %g", dynamo.ErrInvalidConfig, p.FissionThreshold)
		}
		rng := p.Rand
		if rng == nil {
			rng = rand.New(rand.NewSource(1))
		}
		return NewFission(p.Restitution, p.FissionThreshold, rng), nil
	}
	return nil, fmt.Errorf("%w: unknown model %v", dynamo.ErrInvalidConfig, model)
}

func resolveWall(s *dynamo.System, ev dynamo.Event) (*dynamo.System, dynamo.Outcome, error) {
	if err := ReflectWall(s, ev.Particle, ev.Axis); err != nil {
		return nil, dynamo.OutcomeReflected, err
	}
	return s, dynamo.OutcomeReflected, nil
}
