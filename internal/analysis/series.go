package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/san-kum/hardsphere/internal/trace"
)

// Series holds one value per frame.
type Series struct {
	Times     []float64
	Count     []float64
	MeanSpeed []float64
	RMSSpeed  []float64
	MaxSpeed  []float64
	// Packing is the fraction of the enclosure volume covered by particles.
	Packing []float64
}

func ComputeSeries(h trace.Header, frames []*trace.Frame) *Series {
	n := len(frames)
	s := &Series{
		Times:     make([]float64, n),
		Count:     make([]float64, n),
		MeanSpeed: make([]float64, n),
		RMSSpeed:  make([]float64, n),
		MaxSpeed:  make([]float64, n),
		Packing:   make([]float64, n),
	}

	volume := h.Walls.Volume()
	for i, f := range frames {
		s.Times[i] = f.Time
		s.Count[i] = float64(f.Len())

		var sum, sumSq, max float64
		for _, v := range f.Vel {
			speed := v.Norm()
			sum += speed
			sumSq += speed * speed
			max = math.Max(max, speed)
		}
		if f.Len() > 0 {
			s.MeanSpeed[i] = sum / float64(f.Len())
			s.RMSSpeed[i] = math.Sqrt(sumSq / float64(f.Len()))
		}
		s.MaxSpeed[i] = max

		occupied := 0.0
		for _, r := range f.Radius {
			occupied += 4.0 / 3.0 * math.Pi * r * r * r
		}
		if volume > 0 {
			s.Packing[i] = occupied / volume
		}
	}
	return s
}

func (s *Series) columns() map[string][]float64 {
	return map[string][]float64{
		"count":      s.Count,
		"mean_speed": s.MeanSpeed,
		"rms_speed":  s.RMSSpeed,
		"max_speed":  s.MaxSpeed,
		"packing":    s.Packing,
	}
}

// Column returns the series with the given name.
func (s *Series) Column(name string) ([]float64, error) {
	col, ok := s.columns()[name]
	if !ok {
		return nil, fmt.Errorf("unknown series %q (available: %v)", name, s.Names())
	}
	return col, nil
}

func (s *Series) Names() []string {
	names := make([]string, 0, 5)
	for name := range s.columns() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteCSV writes a header row followed by one row per frame.
func (s *Series) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	names := s.Names()
	if err := cw.Write(append([]string{"time"}, names...)); err != nil {
		return err
	}
	cols := s.columns()
	row := make([]string, len(names)+1)
	for i, t := range s.Times {
		row[0] = strconv.FormatFloat(t, 'g', -1, 64)
		for j, name := range names {
			row[j+1] = strconv.FormatFloat(cols[name][i], 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// IntervalStats describes the simulated time between consecutive frames.
type IntervalStats struct {
	Count         int
	Mean, Std     float64
	Min, Max      float64
	EventsPerTime float64
}

func FrameIntervals(frames []*trace.Frame) IntervalStats {
	if len(frames) < 2 {
		return IntervalStats{}
	}
	st := IntervalStats{Count: len(frames) - 1, Min: math.Inf(1)}

	sum, sumSq := 0.0, 0.0
	for i := 1; i < len(frames); i++ {
		d := frames[i].Time - frames[i-1].Time
		sum += d
		sumSq += d * d
		st.Min = math.Min(st.Min, d)
		st.Max = math.Max(st.Max, d)
	}
	n := float64(st.Count)
	st.Mean = sum / n
	st.Std = math.Sqrt(math.Max(0, sumSq/n-st.Mean*st.Mean))
	if sum > 0 {
		st.EventsPerTime = n / sum
	}
	return st
}
