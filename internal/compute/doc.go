// Package compute provides the batch collision-time backends.
//
// A Backend evaluates the geometry kernels for every particle and every
// unordered pair of a System and extrapolates positions:
//
//   - serial: a plain loop over the kernels, used as the reference
//   - cpu: the same kernels spread over all cores
//
// Backends are created explicitly and handed to the scheduler:
//
//	backend, err := compute.New("auto")
//	times, err := backend.CollisionTimes(sys, walls)
//	defer times.Release()
//
// Pair times are stored as a dense n×n matrix, so the particle count is
// bounded by MaxParticles.
package compute
