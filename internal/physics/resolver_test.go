package physics_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/hardsphere/internal/dynamo"
	"github.com/san-kum/hardsphere/internal/physics"
)

func headOn() *dynamo.System {
	return dynamo.FromParticles([]dynamo.Particle{
		{Pos: dynamo.Vec3{0, 0, 0}, Vel: dynamo.Vec3{1, 0, 0}, Mass: 1, Radius: 1},
		{Pos: dynamo.Vec3{2, 0, 0}, Vel: dynamo.Vec3{-1, 0, 0}, Mass: 1, Radius: 1},
	})
}

func withSpectator(s *dynamo.System) *dynamo.System {
	out := dynamo.FromParticles([]dynamo.Particle{
		{Pos: dynamo.Vec3{-5, -5, -5}, Vel: dynamo.Vec3{0.1, 0.2, 0.3}, Mass: 7, Radius: 0.5},
	})
	for i := 0; i < s.Len(); i++ {
		out.Append(s.At(i))
	}
	return out
}

func pairMomentum(s *dynamo.System, idx ...int) dynamo.Vec3 {
	var p dynamo.Vec3
	for _, i := range idx {
		p = p.Add(s.Vel[i].Scale(s.Mass[i]))
	}
	return p
}

func pairEnergy(s *dynamo.System, idx ...int) float64 {
	e := 0.0
	for _, i := range idx {
		e += 0.5 * s.Mass[i] * s.Vel[i].Norm2()
	}
	return e
}

func expectVecClose(got, want dynamo.Vec3, tol float64) {
	for k := 0; k < 3; k++ {
		ExpectWithOffset(1, got[k]).To(BeNumerically("~", want[k], tol))
	}
}

var _ = Describe("Inelastic", func() {
	It("conserves pair momentum and energy when e = 1 for unequal masses", func() {
		rng := rand.New(rand.NewSource(7))
		r := physics.NewInelastic(1)
		for trial := 0; trial < 50; trial++ {
			s := dynamo.NewSystem(2)
			for i := 0; i < 2; i++ {
				s.Set(i, dynamo.Particle{
					Pos:    dynamo.Vec3{rng.Float64(), rng.Float64(), rng.Float64()},
					Vel:    dynamo.Vec3{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()},
					Mass:   0.5 + rng.Float64()*2,
					Radius: 0.1,
				})
			}
			p0, e0 := pairMomentum(s, 0, 1), pairEnergy(s, 0, 1)

			out, outcome, err := r.Resolve(s, dynamo.PairEvent(0, 1, 0))
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome).To(Equal(dynamo.OutcomeBounced))
			Expect(out.Len()).To(Equal(2))
			expectVecClose(pairMomentum(out, 0, 1), p0, 1e-12)
			Expect(pairEnergy(out, 0, 1)).To(BeNumerically("~", e0, 1e-12))
		}
	})

	It("reverses the head-on approach when e = 1", func() {
		out, _, err := physics.NewInelastic(1).Resolve(headOn(), dynamo.PairEvent(0, 1, 0))
		Expect(err).NotTo(HaveOccurred())
		expectVecClose(out.Vel[0], dynamo.Vec3{-1, 0, 0}, 1e-12)
		expectVecClose(out.Vel[1], dynamo.Vec3{1, 0, 0}, 1e-12)
	})

	It("leaves both particles at the center-of-mass velocity when e = 0", func() {
		s := headOn()
		s.Mass[1] = 3
		out, _, err := physics.NewInelastic(0).Resolve(s, dynamo.PairEvent(0, 1, 0))
		Expect(err).NotTo(HaveOccurred())
		expectVecClose(out.Vel[0], dynamo.Vec3{-0.5, 0, 0}, 1e-12)
		expectVecClose(out.Vel[1], dynamo.Vec3{-0.5, 0, 0}, 1e-12)
	})

	It("reflects only the normal velocity component at walls", func() {
		s := headOn()
		s.Vel[0] = dynamo.Vec3{1, 2, 3}
		before := s.Momentum()
		out, outcome, err := physics.NewInelastic(1).Resolve(s, dynamo.WallEvent(0, 2, 0))
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(dynamo.OutcomeReflected))
		Expect(out.Vel[0]).To(Equal(dynamo.Vec3{1, -2, 3}))
		Expect(out.Momentum()).NotTo(Equal(before))
	})

	It("rejects coincident centers", func() {
		s := headOn()
		s.Pos[1] = s.Pos[0]
		_, _, err := physics.NewInelastic(1).Resolve(s, dynamo.PairEvent(0, 1, 0))
		Expect(err).To(MatchError(dynamo.ErrDegenerateGeometry))
	})
})

var _ = Describe("Fusion", func() {
	It("merges a fast pair into one particle appended last", func() {
		s := withSpectator(headOn())
		s.Mass[2] = 3
		s.Radius[2] = 0.5
		total := s.TotalMass()

		out, outcome, err := physics.NewFusion(1, 1.5).Resolve(s, dynamo.PairEvent(1, 2, 0))
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(dynamo.OutcomeFused))
		Expect(out.Len()).To(Equal(s.Len() - 1))

		Expect(out.At(0)).To(Equal(s.At(0)))
		merged := out.At(1)
		Expect(merged.Mass).To(Equal(s.Mass[1] + s.Mass[2]))
		Expect(merged.Radius).To(BeNumerically("~", math.Cbrt(1+0.125), 1e-12))
		expectVecClose(merged.Pos, dynamo.Vec3{1, 0, 0}, 1e-12)
		expectVecClose(merged.Vel, dynamo.Vec3{-0.5, 0, 0}, 1e-12)
		Expect(out.TotalMass()).To(Equal(total))
	})

	It("does not alias the source arrays", func() {
		s := headOn()
		out, _, err := physics.NewFusion(0.5, 0).Resolve(s, dynamo.PairEvent(0, 1, 0))
		Expect(err).NotTo(HaveOccurred())
		out.Vel[0] = dynamo.Vec3{42, 0, 0}
		Expect(s.Vel[0]).To(Equal(dynamo.Vec3{1, 0, 0}))
	})

	It("bounces when the closing speed is at or below the threshold", func() {
		out, outcome, err := physics.NewFusion(1, 2).Resolve(headOn(), dynamo.PairEvent(0, 1, 0))
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(dynamo.OutcomeBounced))
		Expect(out.Len()).To(Equal(2))
		expectVecClose(out.Vel[0], dynamo.Vec3{-1, 0, 0}, 1e-12)
	})
	It("reports a bounce when the contact is degenerate", func() {
		s := headOn()
		s.Pos[1] = s.Pos[0]
		out, outcome, err := physics.NewFusion(1, 0.5).Resolve(s, dynamo.PairEvent(0, 1, 0))
		Expect(err).To(MatchError(dynamo.ErrDegenerateGeometry))
		Expect(outcome).To(Equal(dynamo.OutcomeBounced))
		Expect(out).To(BeNil())
	})
})

var _ = Describe("Fission", func() {
	var rng *rand.Rand

	BeforeEach(func() {
		rng = rand.New(rand.NewSource(11))
	})

	It("breaks the particle slower along the line of centers", func() {
		s := dynamo.FromParticles([]dynamo.Particle{
			{Pos: dynamo.Vec3{0, 0, 0}, Vel: dynamo.Vec3{2, 0, 1}, Mass: 1, Radius: 1},
			{Pos: dynamo.Vec3{2, 0, 0}, Vel: dynamo.Vec3{0, 1, 0}, Mass: 2, Radius: 1},
		})
		before := s.Clone()
		p0 := s.Momentum()

		out, outcome, err := physics.NewFission(1, 1, rng).Resolve(s, dynamo.PairEvent(0, 1, 0))
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(dynamo.OutcomeSplit))
		Expect(out.Len()).To(Equal(3))

		Expect(out.Mass[1] + out.Mass[2]).To(Equal(before.Mass[1]))
		Expect(out.Mass[1]).To(Equal(out.Mass[2]))
		Expect(2 * math.Pow(out.Radius[2], 3)).To(BeNumerically("~", math.Pow(before.Radius[1], 3), 1e-12))
		Expect(out.Mass[0]).To(Equal(before.Mass[0]))
		expectVecClose(out.Momentum(), p0, 1e-12)

		// fragments separate along cross(v_other, Δp) = -y
		Expect(out.Pos[2][1]).To(BeNumerically("<", out.Pos[1][1]))
		dist := out.Pos[2].Sub(out.Pos[1]).Norm()
		Expect(dist).To(BeNumerically("~", 2*out.Radius[2], 1e-12))
	})

	It("uses the volume-to-mass ratio and then size to break ties", func() {
		f := physics.NewFission(1, 0, rng)
		s := headOn()
		s.Mass[1] = 2
		c, err := physics.NewContact(s, 0, 1, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Broken(s, c)).To(Equal(1))

		s = headOn()
		s.Radius[0], s.Mass[0] = 2, 8
		c, err = physics.NewContact(s, 0, 1, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Broken(s, c)).To(Equal(0))
	})

	It("picks a random separation direction for colinear contacts", func() {
		s := headOn()
		out, outcome, err := physics.NewFission(0.5, 1, rng).Resolve(s, dynamo.PairEvent(0, 1, 0))
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(dynamo.OutcomeSplit))
		Expect(out.Validate()).To(Succeed())
		Expect(out.TotalMass()).To(Equal(2.0))
	})

	It("bounces below the threshold", func() {
		out, outcome, err := physics.NewFission(1, 5, rng).Resolve(headOn(), dynamo.PairEvent(0, 1, 0))
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(dynamo.OutcomeBounced))
		Expect(out.Len()).To(Equal(2))
	})

	It("reports a bounce when the contact is degenerate", func() {
		s := headOn()
		s.Pos[1] = s.Pos[0]
		out, outcome, err := physics.NewFission(1, 0.5, rng).Resolve(s, dynamo.PairEvent(0, 1, 0))
		Expect(err).To(MatchError(dynamo.ErrDegenerateGeometry))
		Expect(outcome).To(Equal(dynamo.OutcomeBounced))
		Expect(out).To(BeNil())
	})
})

var _ = Describe("New", func() {
	It("builds a resolver per model", func() {
		for _, m := range []dynamo.Model{dynamo.ModelInelastic, dynamo.ModelFusion, dynamo.ModelFission} {
			r, err := physics.New(m, physics.Params{Restitution: 0.5, FusionThreshold: 1, FissionThreshold: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Model()).To(Equal(m))
		}
	})

	It("rejects out-of-range parameters", func() {
		_, err := physics.New(dynamo.ModelInelastic, physics.Params{Restitution: 1.5})
		Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		_, err = physics.New(dynamo.ModelFission, physics.Params{Restitution: 1, FissionThreshold: -1})
		Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
	})

	It("keeps unit vectors on the sphere", func() {
		rng := rand.New(rand.NewSource(3))
		for i := 0; i < 100; i++ {
			Expect(physics.RandomUnit(rng).Norm()).To(BeNumerically("~", 1, 1e-12))
		}
	})
})
