package dynamo

import (
	"fmt"
	"math"
	"strings"
)

// Model selects how pair collisions are resolved.
type Model int

const (
	ModelInelastic Model = iota
	ModelFusion
	ModelFission
)

var modelNames = [...]string{"inelastic", "fusion", "fission"}

func (m Model) String() string {
	if m < 0 || int(m) >= len(modelNames) {
		return fmt.Sprintf("model(%d)", int(m))
	}
	return modelNames[m]
}

// VariableCount reports whether the model can change the particle count.
func (m Model) VariableCount() bool { return m == ModelFusion || m == ModelFission }

func ParseModel(name string) (Model, error) {
	for i, n := range modelNames {
		if strings.EqualFold(name, n) {
			return Model(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown model %q (available: %s)",
		ErrInvalidConfig, name, strings.Join(modelNames[:], ", "))
}

func Models() []string { return append([]string(nil), modelNames[:]...) }

type EventKind int

const (
	EventWall EventKind = iota
	EventPair
)

func (k EventKind) String() string {
	if k == EventWall {
		return "wall"
	}
	return "pair"
}

// Event is the earliest upcoming contact.
//
// For wall events Particle and Axis are set; Axis is ±1, ±2 or ±3 for x, y
// and z, with the sign giving the direction of travel toward the wall.
// For pair events I < J name the two particles.
type Event struct {
	Kind     EventKind
	Time     float64
	Particle int
	Axis     int
	I, J     int
}

func WallEvent(p, axis int, t float64) Event {
	return Event{Kind: EventWall, Time: t, Particle: p, Axis: axis}
}

func PairEvent(i, j int, t float64) Event {
	if j < i {
		i, j = j, i
	}
	return Event{Kind: EventPair, Time: t, I: i, J: j}
}

// AxisIndex returns the 0-based axis of a wall event.
func (e Event) AxisIndex() int {
	if e.Axis < 0 {
		return -e.Axis - 1
	}
	return e.Axis - 1
}

func (e Event) String() string {
	if e.Kind == EventWall {
		return fmt.Sprintf("wall{p=%d axis=%+d dt=%g}", e.Particle, e.Axis, e.Time)
	}
	return fmt.Sprintf("pair{i=%d j=%d dt=%g}", e.I, e.J, e.Time)
}

// Advance returns the time the system moves forward for this event.
func (e Event) Advance() float64 { return math.Max(0, e.Time) }

// Outcome describes what a resolution did to the System.
type Outcome int

const (
	OutcomeReflected Outcome = iota
	OutcomeBounced
	OutcomeFused
	OutcomeSplit
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReflected:
		return "reflected"
	case OutcomeBounced:
		return "bounced"
	case OutcomeFused:
		return "fused"
	case OutcomeSplit:
		return "split"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Step is one resolved iteration of the event loop. Time is the simulated
// time after the step; System is the state after resolution.
type Step struct {
	Index   int
	Time    float64
	Event   Event
	Outcome Outcome
	System  *System
}
