package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/hardsphere/internal/trace"
)

// Histogram has len(Edges) == len(Counts)+1.
type Histogram struct {
	Edges  []float64
	Counts []int
}

// SpeedHistogram bins the particle speeds of f into bins equal-width bins
// spanning [0, max speed].
func SpeedHistogram(f *trace.Frame, bins int) Histogram {
	if bins < 1 {
		bins = 1
	}
	speeds := f.Speeds()
	max := 0.0
	for _, s := range speeds {
		max = math.Max(max, s)
	}
	if max == 0 {
		max = 1
	}

	h := Histogram{Edges: make([]float64, bins+1), Counts: make([]int, bins)}
	width := max / float64(bins)
	for i := range h.Edges {
		h.Edges[i] = float64(i) * width
	}
	for _, s := range speeds {
		b := int(s / width)
		if b >= bins {
			b = bins - 1
		}
		h.Counts[b]++
	}
	return h
}

func (h Histogram) Total() int {
	n := 0
	for _, c := range h.Counts {
		n += c
	}
	return n
}

// ToASCII renders one bar per bin, scaled to width characters.
func (h Histogram) ToASCII(width int) string {
	if len(h.Counts) == 0 || width <= 0 {
		return ""
	}
	peak := 0
	for _, c := range h.Counts {
		if c > peak {
			peak = c
		}
	}

	var sb strings.Builder
	for i, c := range h.Counts {
		bar := 0
		if peak > 0 {
			bar = c * width / peak
		}
		fmt.Fprintf(&sb, "%8.3f-%-8.3f │%s %d\n", h.Edges[i], h.Edges[i+1], strings.Repeat("█", bar), c)
	}
	return sb.String()
}
