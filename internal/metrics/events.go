package metrics

import "github.com/san-kum/hardsphere/internal/dynamo"

// EventKind selects what an EventCounter counts.
type EventKind int

const (
	CountWall EventKind = iota
	CountPair
	CountFusion
	CountFission
	CountZeroTime
)

var eventNames = map[EventKind]string{
	CountWall:     "wall_events",
	CountPair:     "pair_events",
	CountFusion:   "fusions",
	CountFission:  "fissions",
	CountZeroTime: "zero_time_events",
}

type EventCounter struct {
	kind  EventKind
	count int
}

func NewEventCounter(kind EventKind) *EventCounter {
	return &EventCounter{kind: kind}
}

func (c *EventCounter) Name() string { return eventNames[c.kind] }

func (c *EventCounter) Observe(step dynamo.Step) {
	if c.matches(step) {
		c.count++
	}
}

func (c *EventCounter) matches(step dynamo.Step) bool {
	switch c.kind {
	case CountWall:
		return step.Event.Kind == dynamo.EventWall
	case CountPair:
		return step.Event.Kind == dynamo.EventPair
	case CountFusion:
		return step.Outcome == dynamo.OutcomeFused
	case CountFission:
		return step.Outcome == dynamo.OutcomeSplit
	case CountZeroTime:
		return step.Event.Time <= 0
	}
	return false
}

func (c *EventCounter) Value() float64 { return float64(c.count) }

func (c *EventCounter) Reset() { c.count = 0 }

// MeanFreeTime reports the average simulated time between consecutive events.
type MeanFreeTime struct {
	name    string
	sum     float64
	samples int
}

func NewMeanFreeTime() *MeanFreeTime {
	return &MeanFreeTime{name: "mean_free_time"}
}

func (m *MeanFreeTime) Name() string { return m.name }

func (m *MeanFreeTime) Observe(step dynamo.Step) {
	m.sum += step.Event.Advance()
	m.samples++
}

func (m *MeanFreeTime) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanFreeTime) Reset() {
	m.sum = 0
	m.samples = 0
}

// Default returns a fresh set of the standard run metrics.
func Default() []dynamo.Metric {
	return []dynamo.Metric{
		NewKineticEnergy(),
		NewEnergyDrift(),
		NewMassDrift(),
		NewParticleCount(),
		NewMeanFreeTime(),
		NewEventCounter(CountWall),
		NewEventCounter(CountPair),
		NewEventCounter(CountFusion),
		NewEventCounter(CountFission),
		NewEventCounter(CountZeroTime),
	}
}
