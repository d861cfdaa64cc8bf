package metrics

import (
	"math"

	"github.com/san-kum/hardsphere/internal/dynamo"
)

// MassDrift reports the largest relative deviation of total mass from its
// initial value. Fusion and fission conserve mass, so anything above
// rounding level indicates a defect.
type MassDrift struct {
	name     string
	initial  float64
	maxDrift float64
}

func NewMassDrift() *MassDrift {
	return &MassDrift{name: "mass_drift"}
}

func (m *MassDrift) Name() string { return m.name }

func (m *MassDrift) Start(s *dynamo.System) { m.initial = s.TotalMass() }

func (m *MassDrift) Observe(step dynamo.Step) {
	if m.initial == 0 {
		m.initial = step.System.TotalMass()
		return
	}
	drift := math.Abs(step.System.TotalMass()-m.initial) / m.initial
	m.maxDrift = math.Max(m.maxDrift, drift)
}

func (m *MassDrift) Value() float64 { return m.maxDrift }

func (m *MassDrift) Reset() {
	m.initial = 0
	m.maxDrift = 0
}

// ParticleCount reports the particle count after the last step and keeps
// the extremes seen during the run.
type ParticleCount struct {
	name        string
	current     int
	Min, Max    int
	initialized bool
}

func NewParticleCount() *ParticleCount {
	return &ParticleCount{name: "particle_count"}
}

func (p *ParticleCount) Name() string { return p.name }

func (p *ParticleCount) Start(s *dynamo.System) { p.record(s.Len()) }

func (p *ParticleCount) Observe(step dynamo.Step) { p.record(step.System.Len()) }

func (p *ParticleCount) record(n int) {
	p.current = n
	if !p.initialized {
		p.Min, p.Max, p.initialized = n, n, true
		return
	}
	if n < p.Min {
		p.Min = n
	}
	if n > p.Max {
		p.Max = n
	}
}

func (p *ParticleCount) Value() float64 { return float64(p.current) }

func (p *ParticleCount) Reset() {
	p.current, p.Min, p.Max = 0, 0, 0
	p.initialized = false
}
