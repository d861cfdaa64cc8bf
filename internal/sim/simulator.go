package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/hardsphere/internal/compute"
	"github.com/san-kum/hardsphere/internal/dynamo"
	"github.com/san-kum/hardsphere/internal/physics"
)

// DefaultMaxZeroSteps caps consecutive zero-time events when Config leaves
// MaxZeroSteps unset.
const DefaultMaxZeroSteps = 10000

type Config struct {
	MaxTime float64
	// MaxZeroSteps is the number of consecutive zero-time events tolerated
	// before the run fails with ErrStalled. Zero selects the default and a
	// negative value disables the check.
	MaxZeroSteps int
}

type Result struct {
	Steps     int
	Frames    int
	FinalTime float64
	Final     *dynamo.System

	WallEvents int
	PairEvents int
	Fusions    int
	Fissions   int
	ZeroSteps  int

	Metrics map[string]float64
}

// Simulator is the event loop. It owns the live System for the duration of
// Run; sinks and observers must copy whatever they keep.
type Simulator struct {
	backend   compute.Backend
	scheduler *Scheduler
	resolver  physics.Resolver
	sinks     []dynamo.FrameSink
	metrics   []dynamo.Metric
	observers []dynamo.Observer
}

func New(backend compute.Backend, resolver physics.Resolver, walls dynamo.Walls) *Simulator {
	return &Simulator{
		backend:   backend,
		scheduler: NewScheduler(backend, walls),
		resolver:  resolver,
		sinks:     make([]dynamo.FrameSink, 0),
		metrics:   make([]dynamo.Metric, 0),
		observers: make([]dynamo.Observer, 0),
	}
}

func (s *Simulator) AddSink(f dynamo.FrameSink)    { s.sinks = append(s.sinks, f) }
func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Run(ctx context.Context, initial *dynamo.System, cfg Config) (*Result, error) {
	if err := s.validate(initial, cfg); err != nil {
		return nil, err
	}

	maxZero := cfg.MaxZeroSteps
	if maxZero == 0 {
		maxZero = DefaultMaxZeroSteps
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	sys := initial.Clone()
	s.start(sys)

	result := &Result{Metrics: make(map[string]float64)}
	t := 0.0
	zeroRun := 0

	fail := func(ev *dynamo.Event, err error) (*Result, error) {
		result.FinalTime = t
		result.Final = sys
		s.collect(result)
		return result, &dynamo.SimulationError{Step: result.Steps, Time: t, Event: ev, Wrapped: err}
	}

	for t < cfg.MaxTime {
		select {
		case <-ctx.Done():
			result.FinalTime = t
			result.Final = sys
			s.collect(result)
			return result, ctx.Err()
		default:
		}

		ev, err := s.scheduler.Next(sys)
		if err != nil {
			return fail(nil, err)
		}

		dt := ev.Advance()
		pos, err := s.backend.Advance(sys.Pos, sys.Vel, dt)
		if err != nil {
			return fail(&ev, err)
		}

		if ev.Time > 0 {
			for _, sink := range s.sinks {
				if err := sink.WriteFrame(t, sys); err != nil {
					return fail(&ev, err)
				}
			}
			result.Frames++
			zeroRun = 0
		} else {
			zeroRun++
			result.ZeroSteps++
			if maxZero > 0 && zeroRun > maxZero {
				return fail(&ev, fmt.Errorf("%w: %d consecutive events at t=%g", dynamo.ErrStalled, zeroRun, t))
			}
		}

		next, outcome, err := s.resolver.Resolve(sys.WithPositions(pos), ev)
		if err != nil {
			return fail(&ev, err)
		}
		sys = next
		t += dt
		result.Steps++
		countOutcome(result, ev, outcome)

		step := dynamo.Step{Index: result.Steps, Time: t, Event: ev, Outcome: outcome, System: sys}
		for _, m := range s.metrics {
			m.Observe(step)
		}
		for _, obs := range s.observers {
			obs.OnStep(step)
		}
	}

	result.FinalTime = t
	result.Final = sys
	s.collect(result)
	return result, nil
}

func (s *Simulator) validate(initial *dynamo.System, cfg Config) error {
	if !(cfg.MaxTime > 0) || math.IsInf(cfg.MaxTime, 0) {
		return fmt.Errorf("%w: max time must be positive and finite, got %g", dynamo.ErrInvalidConfig, cfg.MaxTime)
	}
	if err := s.scheduler.Walls().Validate(); err != nil {
		return err
	}
	if initial == nil || initial.Len() == 0 {
		return fmt.Errorf("%w: no particles", dynamo.ErrInvalidConfig)
	}
	return initial.Validate()
}

func (s *Simulator) start(sys *dynamo.System) {
	for _, m := range s.metrics {
		if st, ok := m.(dynamo.Starter); ok {
			st.Start(sys)
		}
	}
	for _, o := range s.observers {
		if st, ok := o.(dynamo.Starter); ok {
			st.Start(sys)
		}
	}
}

func (s *Simulator) collect(result *Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func countOutcome(r *Result, ev dynamo.Event, o dynamo.Outcome) {
	if ev.Kind == dynamo.EventWall {
		r.WallEvents++
	} else {
		r.PairEvents++
	}
	switch o {
	case dynamo.OutcomeFused:
		r.Fusions++
	case dynamo.OutcomeSplit:
		r.Fissions++
	}
}
