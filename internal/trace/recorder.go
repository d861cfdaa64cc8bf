package trace

import (
	"sort"

	"github.com/san-kum/hardsphere/internal/dynamo"
)

// Recorder keeps frames in memory. It implements dynamo.FrameSink.
type Recorder struct {
	Frames []*Frame
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) WriteFrame(t float64, s *dynamo.System) error {
	r.Frames = append(r.Frames, &Frame{
		Time:   t,
		Radius: append([]float64(nil), s.Radius...),
		Pos:    append([]dynamo.Vec3(nil), s.Pos...),
		Vel:    append([]dynamo.Vec3(nil), s.Vel...),
	})
	return nil
}

// At returns the positions of frame f extrapolated to time t. Frames hold
// the state that stays valid until the next frame, so for t between f and
// its successor this is the exact state of the run.
func (f *Frame) At(t float64) []dynamo.Vec3 {
	dt := t - f.Time
	out := make([]dynamo.Vec3, len(f.Pos))
	for i := range f.Pos {
		out[i] = f.Pos[i].Add(f.Vel[i].Scale(dt))
	}
	return out
}

// Locate returns the index of the last frame with Time <= t, or -1.
func Locate(frames []*Frame, t float64) int {
	return sort.Search(len(frames), func(i int) bool { return frames[i].Time > t }) - 1
}
