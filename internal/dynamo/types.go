package dynamo

// Metric accumulates a scalar over the steps of a run.
type Metric interface {
	Name() string
	Observe(step Step)
	Value() float64
	Reset()
}

// Observer is notified after every resolved step.
type Observer interface {
	OnStep(step Step)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(step Step)

func (f ObserverFunc) OnStep(step Step) { f(step) }

// FrameSink records the state of the system at a time instant at which
// simulated time strictly advanced.
type FrameSink interface {
	WriteFrame(t float64, s *System) error
}

// Starter is implemented by metrics and observers that need the state the
// run starts from.
type Starter interface {
	Start(s *System)
}
