package compute

import (
	"github.com/san-kum/hardsphere/internal/dynamo"
	"github.com/san-kum/hardsphere/internal/physics"
)

// SerialBackend evaluates every kernel in a single goroutine.
type SerialBackend struct {
	pool *timesPool
}

func NewSerialBackend() *SerialBackend {
	return &SerialBackend{pool: newTimesPool()}
}

func (b *SerialBackend) Name() string    { return "serial" }
func (b *SerialBackend) Available() bool { return true }
func (b *SerialBackend) Cleanup()        {}

func (b *SerialBackend) CollisionTimes(s *dynamo.System, walls dynamo.Walls) (*Times, error) {
	if err := checkSystem(s); err != nil {
		return nil, err
	}
	n := s.Len()
	t := b.pool.get(n)
	for i := 0; i < n; i++ {
		wallRow(t, s, walls, i)
		pairRow(t, s, i)
	}
	return t, nil
}

func (b *SerialBackend) Advance(pos, vel []dynamo.Vec3, dt float64) ([]dynamo.Vec3, error) {
	if err := checkAdvance(pos, vel); err != nil {
		return nil, err
	}
	out := make([]dynamo.Vec3, len(pos))
	advanceRange(out, pos, vel, dt, 0, len(pos))
	return out, nil
}

func wallRow(t *Times, s *dynamo.System, walls dynamo.Walls, i int) {
	t.Wall[i], t.Axis[i] = physics.TimeToWall(s.Pos[i], s.Vel[i], s.Radius[i], walls)
}

func pairRow(t *Times, s *dynamo.System, i int) {
	n := t.N
	row := t.Pair[i*n : (i+1)*n]
	pi, vi, ri := s.Pos[i], s.Vel[i], s.Radius[i]
	for j := i + 1; j < n; j++ {
		row[j] = physics.TimeToPair(pi, vi, ri, s.Pos[j], s.Vel[j], s.Radius[j])
	}
}

func advanceRange(out, pos, vel []dynamo.Vec3, dt float64, start, end int) {
	for i := start; i < end; i++ {
		out[i] = pos[i].Add(vel[i].Scale(dt))
	}
}
