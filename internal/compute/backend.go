package compute

import (
	"fmt"
	"strings"

	"github.com/san-kum/hardsphere/internal/dynamo"
)

// MaxParticles bounds the particle count a backend accepts. The pair matrix
// for this many particles takes 128 MiB.
const MaxParticles = 4096

type Backend interface {
	Name() string
	Available() bool
	// CollisionTimes returns the earliest wall contact of every particle and
	// the contact time of every unordered pair. Results must be released.
	CollisionTimes(s *dynamo.System, walls dynamo.Walls) (*Times, error)
	// Advance returns pos[i] + dt·vel[i] for every particle.
	Advance(pos, vel []dynamo.Vec3, dt float64) ([]dynamo.Vec3, error)
	Cleanup()
}

var backendNames = []string{"auto", "cpu", "serial"}

func Names() []string { return append([]string(nil), backendNames...) }

// New returns the backend with the given name. "auto" and "" pick the best
// available one.
func New(name string) (Backend, error) {
	switch strings.ToLower(name) {
	case "", "auto":
		return AutoSelect(), nil
	case "cpu":
		return NewCPUBackend(), nil
	case "serial":
		return NewSerialBackend(), nil
	}
	return nil, fmt.Errorf("%w: unknown backend %q (available: %s)",
		dynamo.ErrBackend, name, strings.Join(backendNames, ", "))
}

func AutoSelect() Backend {
	cpu := NewCPUBackend()
	if cpu.Available() {
		return cpu
	}
	return NewSerialBackend()
}

func checkSystem(s *dynamo.System) error {
	n := len(s.Pos)
	if len(s.Vel) != n || len(s.Radius) != n {
		return fmt.Errorf("%w: mismatched state arrays (pos=%d vel=%d radius=%d)",
			dynamo.ErrBackend, n, len(s.Vel), len(s.Radius))
	}
	if n > MaxParticles {
		return fmt.Errorf("%w: %d particles exceeds the limit of %d", dynamo.ErrResource, n, MaxParticles)
	}
	return nil
}

func checkAdvance(pos, vel []dynamo.Vec3) error {
	if len(pos) != len(vel) {
		return fmt.Errorf("%w: advance with %d positions and %d velocities", dynamo.ErrBackend, len(pos), len(vel))
	}
	return nil
}
