package compute

import (
	"math"
	"sync"
)

// Times is the result of one CollisionTimes call. Pair is a row-major n×n
// matrix where only entries with j > i are meaningful; all others are +Inf.
type Times struct {
	N    int
	Wall []float64
	Axis []int
	Pair []float64

	pool *timesPool
}

func (t *Times) PairAt(i, j int) float64 {
	if i > j {
		i, j = j, i
	}
	return t.Pair[i*t.N+j]
}

// Release returns the buffers for reuse. t must not be used afterwards.
func (t *Times) Release() {
	if t.pool != nil {
		t.pool.put(t)
	}
}

type timesPool struct {
	pool sync.Pool
}

func newTimesPool() *timesPool {
	return &timesPool{
		pool: sync.Pool{
			New: func() interface{} {
				return &Times{}
			},
		},
	}
}

func (p *timesPool) get(n int) *Times {
	t := p.pool.Get().(*Times)
	t.pool = p
	t.N = n
	if cap(t.Wall) < n {
		t.Wall = make([]float64, n)
		t.Axis = make([]int, n)
	}
	t.Wall = t.Wall[:n]
	t.Axis = t.Axis[:n]
	if cap(t.Pair) < n*n {
		t.Pair = make([]float64, n*n)
	}
	t.Pair = t.Pair[:n*n]

	inf := math.Inf(1)
	for i := range t.Pair {
		t.Pair[i] = inf
	}
	return t
}

func (p *timesPool) put(t *Times) {
	t.N = 0
	t.pool = nil
	p.pool.Put(t)
}
