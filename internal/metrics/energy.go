package metrics

import (
	"math"

	"github.com/san-kum/hardsphere/internal/dynamo"
)

// KineticEnergy reports the kinetic energy after the last step.
type KineticEnergy struct {
	name    string
	current float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Start(s *dynamo.System) { k.current = s.KineticEnergy() }

func (k *KineticEnergy) Observe(step dynamo.Step) {
	k.current = step.System.KineticEnergy()
}

func (k *KineticEnergy) Value() float64 { return k.current }

func (k *KineticEnergy) Reset() { k.current = 0 }

// EnergyDrift reports the largest relative deviation of kinetic energy from
// its initial value. It stays at zero for elastic runs without fission.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Start(s *dynamo.System) {
	e.initialEnergy = s.KineticEnergy()
	e.samples = 1
}

func (e *EnergyDrift) Observe(step dynamo.Step) {
	energy := step.System.KineticEnergy()

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
