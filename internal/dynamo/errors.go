package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidConfig indicates malformed or out-of-range run parameters.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrInvalidParticle indicates a particle with non-positive mass or radius,
	// non-finite state, or mismatched array lengths.
	ErrInvalidParticle = errors.New("dynamo: invalid particle state")

	// ErrResource indicates the state buffers would exceed the allowed size.
	ErrResource = errors.New("dynamo: resource limit exceeded")

	// ErrBackend indicates the compute backend failed or is unavailable.
	ErrBackend = errors.New("dynamo: compute backend failure")

	// ErrDegenerateGeometry indicates a contact with no defined response
	// (coincident centers, or a response that is not finite).
	ErrDegenerateGeometry = errors.New("dynamo: degenerate collision geometry")

	// ErrNoEvent indicates no wall or pair contact will ever occur.
	ErrNoEvent = errors.New("dynamo: no collision event found")

	// ErrStalled indicates too many consecutive zero-time events.
	ErrStalled = errors.New("dynamo: simulation stalled on zero-time events")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Event   *Event
	Wrapped error
}

func (e *SimulationError) Error() string {
	if e.Event != nil {
		return fmt.Sprintf("step %d (t=%.6f, %s): %v", e.Step, e.Time, e.Event, e.Wrapped)
	}
	return fmt.Sprintf("step %d (t=%.6f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
