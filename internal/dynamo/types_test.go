package dynamo

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"
)

func TestVec3_Arithmetic(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}

	if got := a.Add(b); got != (Vec3{5, 7, 9}) {
		t.Errorf("Add failed: got %v", got)
	}
	if got := b.Sub(a); got != (Vec3{3, 3, 3}) {
		t.Errorf("Sub failed: got %v", got)
	}
	if got := a.Scale(2); got != (Vec3{2, 4, 6}) {
		t.Errorf("Scale failed: got %v", got)
	}
	if got := a.Dot(b); got != 32 {
		t.Errorf("Dot = %v, want 32", got)
	}
	if got := (Vec3{1, 0, 0}).Cross(Vec3{0, 1, 0}); got != (Vec3{0, 0, 1}) {
		t.Errorf("Cross = %v, want z axis", got)
	}
}

func TestVec3_Unit(t *testing.T) {
	u := Vec3{3, 4, 0}.Unit()
	if math.Abs(u.Norm()-1) > 1e-12 {
		t.Errorf("Unit norm = %v", u.Norm())
	}
	if (Vec3{}).Unit() != (Vec3{}) {
		t.Error("Unit of zero vector should be zero")
	}
}

func TestVec3_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		v     Vec3
		valid bool
	}{
		{"zero", Vec3{}, true},
		{"normal", Vec3{1, -2, 3}, true},
		{"with NaN", Vec3{1, math.NaN(), 0}, false},
		{"with +Inf", Vec3{math.Inf(1), 0, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func testSystem() *System {
	return FromParticles([]Particle{
		{Pos: Vec3{0, 0, 0}, Vel: Vec3{1, 0, 0}, Mass: 1, Radius: 0.1},
		{Pos: Vec3{1, 0, 0}, Vel: Vec3{0, 1, 0}, Mass: 2, Radius: 0.2},
		{Pos: Vec3{2, 0, 0}, Vel: Vec3{0, 0, 1}, Mass: 3, Radius: 0.3},
		{Pos: Vec3{3, 0, 0}, Vel: Vec3{1, 1, 1}, Mass: 4, Radius: 0.4},
	})
}

func TestSystem_Without(t *testing.T) {
	s := testSystem()
	out := s.Without(3, 1)

	if out.Len() != 2 {
		t.Fatalf("expected 2 particles, got %d", out.Len())
	}
	if out.Mass[0] != 1 || out.Mass[1] != 3 {
		t.Errorf("order not preserved: masses %v", out.Mass)
	}
	if s.Len() != 4 {
		t.Error("source system was modified")
	}
}

func TestSystem_GrowDoesNotAlias(t *testing.T) {
	s := testSystem()
	g := s.Grow(1)
	g.Append(Particle{Mass: 5, Radius: 0.5})
	g.Vel[0] = Vec3{9, 9, 9}

	if s.Len() != 4 || g.Len() != 5 {
		t.Fatalf("lengths: src %d grown %d", s.Len(), g.Len())
	}
	if s.Vel[0] == g.Vel[0] {
		t.Error("grown system shares velocity storage with source")
	}
}

func TestSystem_Validate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(s *System)
		valid bool
	}{
		{"ok", func(s *System) {}, true},
		{"zero mass", func(s *System) { s.Mass[1] = 0 }, false},
		{"negative radius", func(s *System) { s.Radius[2] = -1 }, false},
		{"NaN velocity", func(s *System) { s.Vel[0][1] = math.NaN() }, false},
		{"length mismatch", func(s *System) { s.Mass = s.Mass[:2] }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSystem()
			tt.edit(s)
			err := s.Validate()
			if tt.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidParticle) {
				t.Errorf("expected ErrInvalidParticle, got %v", err)
			}
		})
	}
}

func TestSystem_Invariants(t *testing.T) {
	s := testSystem()

	if got := s.TotalMass(); got != 10 {
		t.Errorf("TotalMass = %v, want 10", got)
	}
	if got := s.Momentum(); got != (Vec3{5, 6, 7}) {
		t.Errorf("Momentum = %v", got)
	}
	want := 0.5*1 + 0.5*2 + 0.5*3 + 0.5*4*3
	if got := s.KineticEnergy(); math.Abs(got-want) > 1e-12 {
		t.Errorf("KineticEnergy = %v, want %v", got, want)
	}
}

func TestWalls_Validate(t *testing.T) {
	if err := UnitBox.Validate(); err != nil {
		t.Errorf("unit box: %v", err)
	}
	if got := (Walls{{0, 4}, {-1, 1}, {0, 3}}).MinSpan(); got != 2 {
		t.Errorf("MinSpan = %v, want 2", got)
	}
	bad := Walls{{0, 1}, {1, 1}, {0, 1}}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestParseModel(t *testing.T) {
	for i, name := range Models() {
		m, err := ParseModel(name)
		if err != nil || int(m) != i {
			t.Errorf("ParseModel(%q) = %v, %v", name, m, err)
		}
	}
	if m, err := ParseModel("FUSION"); err != nil || m != ModelFusion {
		t.Errorf("case-insensitive parse failed: %v %v", m, err)
	}
	if _, err := ParseModel("plasma"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestEvent_AxisIndex(t *testing.T) {
	for axis, want := range map[int]int{1: 0, -1: 0, 2: 1, -2: 1, 3: 2, -3: 2} {
		if got := WallEvent(0, axis, 1).AxisIndex(); got != want {
			t.Errorf("axis %+d: index %d, want %d", axis, got, want)
		}
	}
	if e := PairEvent(5, 2, 0); e.I != 2 || e.J != 5 {
		t.Errorf("PairEvent should order indices, got %d,%d", e.I, e.J)
	}
}

func TestParallelStrided(t *testing.T) {
	var sum int64
	ParallelStrided(1000, 7, func(i int) {
		atomic.AddInt64(&sum, int64(i))
	})
	if sum != 999*1000/2 {
		t.Errorf("sum = %d", sum)
	}
}

func TestParallelForWorkers_Covers(t *testing.T) {
	seen := make([]int32, 257)
	ParallelForWorkers(len(seen), 8, 4, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&seen[i], 1)
		}
	})
	for i, c := range seen {
		if c != 1 {
			t.Fatalf("index %d visited %d times", i, c)
		}
	}
}
