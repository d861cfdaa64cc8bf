package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
)

func FFT(data []float64) ([]complex128, error) {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result, nil
	}

	if n&(n-1) != 0 {
		return nil, fmt.Errorf("fft requires power of 2 length, got %d", n)
	}
	return fft(data), nil
}

func fft(data []float64) []complex128 {
	n := len(data)
	if n == 1 {
		return []complex128{complex(data[0], 0)}
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := fft(even)
	fodd := fft(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}
	return result
}

// PowerSpectrum resamples values onto n uniform points (n a power of two)
// between the first and last time and returns the magnitude of the first
// n/2 frequency bins with the mean removed.
func PowerSpectrum(times, values []float64, n int) ([]float64, error) {
	grid, err := Resample(times, values, n)
	if err != nil {
		return nil, err
	}

	mean := 0.0
	for _, v := range grid {
		mean += v
	}
	mean /= float64(len(grid))
	for i := range grid {
		grid[i] -= mean
	}

	coeffs, err := FFT(grid)
	if err != nil {
		return nil, err
	}
	ps := make([]float64, len(coeffs)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(coeffs[i])
	}
	return ps, nil
}

// Resample holds each value until the next sample time, matching the
// piecewise-constant nature of per-frame quantities.
func Resample(times, values []float64, n int) ([]float64, error) {
	if len(times) != len(values) || len(times) == 0 {
		return nil, fmt.Errorf("resample: %d times for %d values", len(times), len(values))
	}
	if n < 1 {
		return nil, fmt.Errorf("resample: need at least one point, got %d", n)
	}

	out := make([]float64, n)
	t0, t1 := times[0], times[len(times)-1]
	step := 0.0
	if n > 1 {
		step = (t1 - t0) / float64(n-1)
	}

	j := 0
	for i := range out {
		t := t0 + float64(i)*step
		for j+1 < len(times) && times[j+1] <= t {
			j++
		}
		out[i] = values[j]
	}
	return out, nil
}
