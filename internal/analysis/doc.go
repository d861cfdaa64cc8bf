// Package analysis summarizes recorded collision traces and compares runs.
//
//   - [ComputeSeries]: per-frame particle count, speed statistics and packing fraction
//   - [SpeedHistogram]: distribution of particle speeds in one frame
//   - [FrameIntervals]: statistics of the simulated time between frames
//   - [PowerSpectrum]: spectrum of a series resampled onto a uniform grid
//   - [Sweep]: final metric values over a range of one configuration parameter
//   - [Divergence]: separation growth between a run and a perturbed copy
//   - [ProjectionToASCII]: particles of one frame projected onto two axes
//
// A positive divergence exponent indicates the sensitivity to initial
// conditions expected of a hard-sphere gas:
//
//	res, err := analysis.Divergence(ctx, cfg, 1e-9, 32)
//	fmt.Printf("lambda = %.3f\n", res.Exponent)
package analysis
