package trace

import (
	"math"

	"github.com/san-kum/hardsphere/internal/dynamo"
)

// Playback walks a growing list of frames at Speed units of simulated time
// per second of wall time. While Done is false the last frame may still be
// followed by others, so playback does not move past it.
type Playback struct {
	Frames  []*Frame
	MaxTime float64
	Done    bool

	T       float64
	Speed   float64
	Running bool
}

// NewPlayback returns a running playback that covers maxTime in about ten
// seconds.
func NewPlayback(maxTime float64) *Playback {
	speed := 0.1
	if maxTime > 0 && !math.IsInf(maxTime, 0) {
		speed = maxTime / 10
	}
	return &Playback{MaxTime: maxTime, Speed: speed, Running: true}
}

func (p *Playback) Append(frames ...*Frame) { p.Frames = append(p.Frames, frames...) }

// Horizon is the latest time that can be shown.
func (p *Playback) Horizon() float64 {
	if len(p.Frames) == 0 {
		return 0
	}
	last := p.Frames[len(p.Frames)-1].Time
	if p.Done && p.MaxTime > last {
		return p.MaxTime
	}
	return last
}

// Tick advances by wall seconds when running. Playback pauses at the end of
// a finished run.
func (p *Playback) Tick(seconds float64) {
	if !p.Running {
		return
	}
	p.T = math.Min(p.T+p.Speed*seconds, p.Horizon())
	if p.Done && p.T >= p.Horizon() {
		p.Running = false
	}
}

// Step pauses and jumps to the previous (dir < 0) or next frame.
func (p *Playback) Step(dir int) {
	p.Running = false
	if len(p.Frames) == 0 {
		return
	}
	i := Locate(p.Frames, p.T)
	if dir < 0 && i >= 0 && p.Frames[i].Time == p.T {
		i--
	} else if dir > 0 {
		i++
	}
	i = max(0, min(i, len(p.Frames)-1))
	p.T = p.Frames[i].Time
}

func (p *Playback) Restart() {
	p.T = 0
	p.Running = true
}

func (p *Playback) Toggle() { p.Running = !p.Running }

// Current returns the frame in effect at T, or nil.
func (p *Playback) Current() *Frame {
	i := Locate(p.Frames, p.T)
	if i < 0 {
		return nil
	}
	return p.Frames[i]
}

// Positions returns the particle positions at T.
func (p *Playback) Positions() []dynamo.Vec3 {
	f := p.Current()
	if f == nil {
		return nil
	}
	return f.At(p.T)
}

// Progress is T as a fraction of MaxTime.
func (p *Playback) Progress() float64 {
	if !(p.MaxTime > 0) {
		return 0
	}
	return p.T / p.MaxTime
}
