package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/hardsphere/internal/dynamo"
)

// Contact holds the shared quantities of a pair collision between particles
// I and J.
type Contact struct {
	I, J int
	// Dp and Dv are position and velocity of I relative to J.
	Dp, Dv dynamo.Vec3
	// PV is Dp·Dv and Dp2 is |Dp|².
	PV, Dp2 float64
	// CM is the center-of-mass velocity of the pair.
	CM dynamo.Vec3
	// Correction is the restitution-weighted elastic term per unit mass.
	Correction dynamo.Vec3

	mi, mj float64
}

// NewContact computes the contact quantities for particles i and j with
// restitution coefficient e.
func NewContact(s *dynamo.System, i, j int, e float64) (Contact, error) {
	n := s.Len()
	if i < 0 || j < 0 || i >= n || j >= n || i == j {
		return Contact{}, fmt.Errorf("%w: pair (%d, %d) with %d particles", dynamo.ErrInvalidParticle, i, j, n)
	}

	dp := s.Pos[i].Sub(s.Pos[j])
	dv := s.Vel[i].Sub(s.Vel[j])
	dp2 := dp.Norm2()
	if dp2 == 0 {
		return Contact{}, fmt.Errorf("%w: particles %d and %d share a center", dynamo.ErrDegenerateGeometry, i, j)
	}

	mi, mj := s.Mass[i], s.Mass[j]
	m := mi + mj
	pv := dp.Dot(dv)

	return Contact{
		I: i, J: j,
		Dp: dp, Dv: dv,
		PV: pv, Dp2: dp2,
		CM:         s.Vel[i].Scale(mi).Add(s.Vel[j].Scale(mj)).Scale(1 / m),
		Correction: dp.Scale(2 * pv / dp2).Sub(dv).Scale(e / m),
		mi:         mi,
		mj:         mj,
	}, nil
}

// ClosingSpeed is the magnitude of the relative velocity along the line of centers.
func (c Contact) ClosingSpeed() float64 {
	return math.Abs(c.PV) / math.Sqrt(c.Dp2)
}

// Velocities returns the post-collision velocities of I and J. Total
// momentum of the pair is preserved; for e = 1 so is kinetic energy and for
// e = 0 both leave with the center-of-mass velocity. Each correction is
// weighted by the partner's mass (u - mj·c, u + mi·c), which for unequal
// masses intentionally differs from the u - mi·c, u + mj·c pairing.
func (c Contact) Velocities() (vi, vj dynamo.Vec3) {
	vi = c.CM.Sub(c.Correction.Scale(c.mj))
	vj = c.CM.Add(c.Correction.Scale(c.mi))
	return vi, vj
}

// Bounce applies the pair velocity exchange of i and j to s in place.
func Bounce(s *dynamo.System, i, j int, e float64) error {
	c, err := NewContact(s, i, j, e)
	if err != nil {
		return err
	}
	return c.apply(s)
}

func (c Contact) apply(s *dynamo.System) error {
	vi, vj := c.Velocities()
	if !vi.IsValid() || !vj.IsValid() {
		return fmt.Errorf("%w: non-finite velocity after collision of %d and %d", dynamo.ErrDegenerateGeometry, c.I, c.J)
	}
	s.Vel[c.I], s.Vel[c.J] = vi, vj
	return nil
}

// ReflectWall reflects the velocity component of particle p along the normal
// of the wall named by axis. Positions are left untouched.
func ReflectWall(s *dynamo.System, p, axis int) error {
	if p < 0 || p >= s.Len() {
		return fmt.Errorf("%w: wall event for particle %d with %d particles", dynamo.ErrInvalidParticle, p, s.Len())
	}
	if axis == 0 || axis < -3 || axis > 3 {
		return fmt.Errorf("%w: wall event with axis %d", dynamo.ErrBackend, axis)
	}
	k := axis - 1
	if axis < 0 {
		k = -axis - 1
	}
	n := dynamo.Axis(k)
	v := s.Vel[p]
	s.Vel[p] = v.Sub(n.Scale(2 * v.Dot(n)))
	return nil
}
