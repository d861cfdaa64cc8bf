package compute

import (
	"runtime"

	"github.com/san-kum/hardsphere/internal/dynamo"
)

// Below this many particles the goroutine overhead outweighs the work.
const parallelThreshold = 16

// CPUBackend spreads the kernels over all cores. Pair rows are assigned to
// workers in stride so the triangular workload stays balanced.
type CPUBackend struct {
	workers int
	pool    *timesPool
}

func NewCPUBackend() *CPUBackend {
	return &CPUBackend{
		workers: runtime.NumCPU(),
		pool:    newTimesPool(),
	}
}

// NewCPUBackendWorkers is NewCPUBackend with an explicit worker count.
func NewCPUBackendWorkers(workers int) *CPUBackend {
	if workers < 1 {
		workers = 1
	}
	return &CPUBackend{workers: workers, pool: newTimesPool()}
}

func (c *CPUBackend) Name() string    { return "cpu" }
func (c *CPUBackend) Available() bool { return c.workers > 1 }
func (c *CPUBackend) Cleanup()        {}

func (c *CPUBackend) CollisionTimes(s *dynamo.System, walls dynamo.Walls) (*Times, error) {
	if err := checkSystem(s); err != nil {
		return nil, err
	}
	n := s.Len()
	t := c.pool.get(n)

	if n < parallelThreshold {
		for i := 0; i < n; i++ {
			wallRow(t, s, walls, i)
			pairRow(t, s, i)
		}
		return t, nil
	}

	dynamo.ParallelStrided(n, c.workers, func(i int) {
		wallRow(t, s, walls, i)
		pairRow(t, s, i)
	})
	return t, nil
}

func (c *CPUBackend) Advance(pos, vel []dynamo.Vec3, dt float64) ([]dynamo.Vec3, error) {
	if err := checkAdvance(pos, vel); err != nil {
		return nil, err
	}
	out := make([]dynamo.Vec3, len(pos))
	dynamo.ParallelForWorkers(len(pos), 1024, c.workers, func(start, end int) {
		advanceRange(out, pos, vel, dt, start, end)
	})
	return out, nil
}
