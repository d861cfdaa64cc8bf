package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/hardsphere/internal/compute"
	"github.com/san-kum/hardsphere/internal/dynamo"
)

// TieEpsilon is the relative gap under which a wall event is considered
// simultaneous with the earliest pair event and wins.
const TieEpsilon = 1e-12

// Scheduler finds the earliest event of a System using a backend handle
// owned by the caller.
type Scheduler struct {
	backend compute.Backend
	walls   dynamo.Walls
}

func NewScheduler(backend compute.Backend, walls dynamo.Walls) *Scheduler {
	return &Scheduler{backend: backend, walls: walls}
}

func (s *Scheduler) Walls() dynamo.Walls { return s.walls }

func (s *Scheduler) Next(sys *dynamo.System) (dynamo.Event, error) {
	times, err := s.backend.CollisionTimes(sys, s.walls)
	if err != nil {
		return dynamo.Event{}, err
	}
	defer times.Release()
	return Earliest(times)
}

// Earliest reduces batch collision times to one event. Each category keeps
// its strict minimum, so the lowest index wins within a category; across
// categories the wall event wins ties.
func Earliest(t *compute.Times) (dynamo.Event, error) {
	n := t.N
	inf := math.Inf(1)

	wallT, wallP := inf, -1
	for i := 0; i < n; i++ {
		v := t.Wall[i]
		if math.IsNaN(v) {
			return dynamo.Event{}, fmt.Errorf("%w: NaN wall time for particle %d", dynamo.ErrBackend, i)
		}
		if v < wallT {
			wallT, wallP = v, i
		}
	}

	pairT, pi, pj := inf, -1, -1
	for i := 0; i < n; i++ {
		row := t.Pair[i*n : (i+1)*n]
		for j := i + 1; j < n; j++ {
			v := row[j]
			if math.IsNaN(v) {
				return dynamo.Event{}, fmt.Errorf("%w: NaN pair time for (%d, %d)", dynamo.ErrBackend, i, j)
			}
			if v < pairT {
				pairT, pi, pj = v, i, j
			}
		}
	}

	if math.IsInf(wallT, 1) && math.IsInf(pairT, 1) {
		return dynamo.Event{}, dynamo.ErrNoEvent
	}

	if wallP >= 0 && (wallT <= pairT || wallT-pairT <= TieEpsilon*math.Max(1, math.Abs(pairT))) {
		if t.Axis[wallP] == 0 {
			return dynamo.Event{}, fmt.Errorf("%w: finite wall time without axis for particle %d", dynamo.ErrBackend, wallP)
		}
		return dynamo.WallEvent(wallP, t.Axis[wallP], wallT), nil
	}
	return dynamo.PairEvent(pi, pj, pairT), nil
}
