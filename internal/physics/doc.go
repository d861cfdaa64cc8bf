// Package physics provides the collision geometry and collision response of
// the hard-sphere simulator.
//
// Prediction kernels are pure functions:
//
//   - [TimeToWall]: time until a sphere touches one of the six box walls
//   - [TimeToPair]: time until two moving spheres touch
//
// Response is provided by a [Resolver] per model:
//
//   - [Inelastic]: restitution-blended velocity exchange, count unchanged
//   - [Fusion]: merges a pair whose closing speed exceeds the threshold
//   - [Fission]: halves one member of a pair whose closing speed exceeds the threshold
//
// All three share the wall reflection of [ReflectWall] and the velocity
// exchange computed by [Contact].
//
// # Example
//
//	r, _ := physics.New(dynamo.ModelFusion, physics.Params{Restitution: 1, FusionThreshold: 0.5})
//	next, outcome, err := r.Resolve(sys, ev)
package physics
