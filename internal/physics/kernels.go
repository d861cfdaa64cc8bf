package physics

import (
	"math"

	"github.com/san-kum/hardsphere/internal/dynamo"
)

// approachTol is the relative closing speed below which a pair is treated as
// not approaching.
const approachTol = 1e-10

// TimeToWall returns the time until the sphere surface reaches a wall it is
// moving toward, and the signed axis (±1, ±2, ±3) of that wall. A particle
// already past its contact position reports zero. If no wall is approached
// the time is +Inf and the axis is 0.
func TimeToWall(pos, vel dynamo.Vec3, radius float64, walls dynamo.Walls) (float64, int) {
	best, axis := math.Inf(1), 0
	for k := 0; k < 3; k++ {
		v := vel[k]
		var t float64
		var sign int
		switch {
		case v > 0:
			t, sign = (walls[k][1]-radius-pos[k])/v, 1
		case v < 0:
			t, sign = (walls[k][0]+radius-pos[k])/v, -1
		default:
			continue
		}
		if t < 0 {
			t = 0
		}
		if t < best {
			best, axis = t, sign*(k+1)
		}
	}
	return best, axis
}

// TimeToPair returns the smallest non-negative t with |Δp + tΔv| = ri + rj,
// where Δp = pi − pj and Δv = vi − vj. Pairs that are not closing in on each
// other return +Inf, including touching or overlapping pairs that separate.
// Touching or overlapping pairs that still approach return exactly zero.
func TimeToPair(pi, vi dynamo.Vec3, ri float64, pj, vj dynamo.Vec3, rj float64) float64 {
	dp := pi.Sub(pj)
	dv := vi.Sub(vj)

	a := dv.Norm2()
	if a == 0 {
		return math.Inf(1)
	}
	dp2 := dp.Norm2()
	b := 2 * dp.Dot(dv)
	if b >= -2*approachTol*math.Sqrt(a*dp2) {
		return math.Inf(1)
	}

	sum := ri + rj
	c := dp2 - sum*sum
	if c <= 0 {
		return 0
	}

	disc := b*b - 4*a*c
	if disc < 0 {
		return math.Inf(1)
	}
	// b < 0 and c > 0: both roots are positive; this form of the smaller
	// root avoids cancellation.
	return 2 * c / (-b + math.Sqrt(disc))
}
