package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/hardsphere/internal/compute"
	"github.com/san-kum/hardsphere/internal/dynamo"
)

func newTimes(n int) *compute.Times {
	t := &compute.Times{
		N:    n,
		Wall: make([]float64, n),
		Axis: make([]int, n),
		Pair: make([]float64, n*n),
	}
	for i := range t.Wall {
		t.Wall[i] = math.Inf(1)
	}
	for i := range t.Pair {
		t.Pair[i] = math.Inf(1)
	}
	return t
}

func TestEarliest(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*compute.Times)
		want  dynamo.Event
	}{
		{
			name: "wall wins exact tie",
			setup: func(ts *compute.Times) {
				ts.Wall[2], ts.Axis[2] = 0.5, -3
				ts.Pair[0*3+1] = 0.5
			},
			want: dynamo.WallEvent(2, -3, 0.5),
		},
		{
			name: "wall wins within epsilon",
			setup: func(ts *compute.Times) {
				ts.Wall[0], ts.Axis[0] = 0.5+1e-15, 1
				ts.Pair[1*3+2] = 0.5
			},
			want: dynamo.WallEvent(0, 1, 0.5+1e-15),
		},
		{
			name: "earlier pair",
			setup: func(ts *compute.Times) {
				ts.Wall[0], ts.Axis[0] = 0.5, 1
				ts.Pair[1*3+2] = 0.25
			},
			want: dynamo.PairEvent(1, 2, 0.25),
		},
		{
			name: "zero-time pair",
			setup: func(ts *compute.Times) {
				ts.Wall[1], ts.Axis[1] = 0.1, 2
				ts.Pair[0*3+2] = 0
			},
			want: dynamo.PairEvent(0, 2, 0),
		},
		{
			name: "lowest index wins within walls",
			setup: func(ts *compute.Times) {
				ts.Wall[1], ts.Axis[1] = 0.3, 2
				ts.Wall[2], ts.Axis[2] = 0.3, -1
			},
			want: dynamo.WallEvent(1, 2, 0.3),
		},
		{
			name: "lower triangle ignored",
			setup: func(ts *compute.Times) {
				ts.Pair[2*3+0] = 0.01
				ts.Pair[0*3+1] = 0.2
			},
			want: dynamo.PairEvent(0, 1, 0.2),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTimes(3)
			tt.setup(ts)
			got, err := Earliest(ts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Earliest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEarliestErrors(t *testing.T) {
	if _, err := Earliest(newTimes(4)); !errors.Is(err, dynamo.ErrNoEvent) {
		t.Errorf("all infinite: got %v, want ErrNoEvent", err)
	}

	ts := newTimes(2)
	ts.Pair[1] = math.NaN()
	if _, err := Earliest(ts); !errors.Is(err, dynamo.ErrBackend) {
		t.Errorf("NaN pair: got %v, want ErrBackend", err)
	}

	ts = newTimes(2)
	ts.Wall[0] = 1
	if _, err := Earliest(ts); !errors.Is(err, dynamo.ErrBackend) {
		t.Errorf("missing axis: got %v, want ErrBackend", err)
	}
}

func TestSchedulerNext(t *testing.T) {
	sys := dynamo.FromParticles([]dynamo.Particle{
		{Pos: dynamo.Vec3{0.5, 0.5, 0.5}, Vel: dynamo.Vec3{1, 0, 0}, Mass: 1, Radius: 0.1},
		{Pos: dynamo.Vec3{0.2, 0.2, 0.2}, Mass: 1, Radius: 0.1},
	})
	sched := NewScheduler(compute.NewSerialBackend(), dynamo.UnitBox)

	ev, err := sched.Next(sys)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Kind != dynamo.EventWall || ev.Particle != 0 || ev.Axis != 1 {
		t.Errorf("got %v, want wall event for particle 0 on +x", ev)
	}
	if math.Abs(ev.Time-0.4) > 1e-12 {
		t.Errorf("time = %g, want 0.4", ev.Time)
	}

	sys.Vel[0] = dynamo.Vec3{}
	if _, err := sched.Next(sys); !errors.Is(err, dynamo.ErrNoEvent) {
		t.Errorf("system at rest: got %v, want ErrNoEvent", err)
	}
}
