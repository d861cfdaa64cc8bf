// Package trace reads and writes the binary collision trace.
//
// All values are little-endian. The header is
//
//	uint64 model, uint64 count, float64 restitution, float64 max time,
//	6 × float64 walls (x low, x high, y low, y high, z low, z high)
//
// followed, for the inelastic model only, by count float64 radii. Each frame
// is a float64 time; for fusion and fission the uint64 current count and
// count float64 radii; then count positions and count velocities as
// 3 × float64 each.
package trace

import (
	"errors"

	"github.com/san-kum/hardsphere/internal/dynamo"
)

// ErrFormat indicates a trace that cannot be decoded.
var ErrFormat = errors.New("trace: malformed trace")

// maxCount bounds particle counts read from a trace before allocating.
const maxCount = 1 << 24

type Header struct {
	Model       dynamo.Model
	Count       int
	Restitution float64
	MaxTime     float64
	Walls       dynamo.Walls
	// Radii is only stored for the inelastic model, whose radii are fixed.
	Radii []float64
}

type rawHeader struct {
	Model       uint64
	Count       uint64
	Restitution float64
	MaxTime     float64
	Walls       [3][2]float64
}

// Frame is the state recorded at Time, just before the system jumped to the
// next event.
type Frame struct {
	Time   float64
	Radius []float64
	Pos    []dynamo.Vec3
	Vel    []dynamo.Vec3
}

func (f *Frame) Len() int { return len(f.Pos) }

// Speeds returns |v| for every particle.
func (f *Frame) Speeds() []float64 {
	out := make([]float64, len(f.Vel))
	for i, v := range f.Vel {
		out[i] = v.Norm()
	}
	return out
}
