package viz

import (
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/hardsphere/internal/dynamo"
	"github.com/san-kum/hardsphere/internal/trace"
)

// ErrFeedStopped is returned by WriteFrame once the viewer has gone away.
var ErrFeedStopped = errors.New("viz: viewer stopped")

// maxBatch bounds how many queued frames one FramesMsg carries.
const maxBatch = 256

// Feed carries frames from a running simulation to the live view. It
// implements dynamo.FrameSink; WriteFrame blocks while the buffer is full.
type Feed struct {
	frames   chan *trace.Frame
	stop     chan struct{}
	stopOnce sync.Once

	mu  sync.Mutex
	err error
}

func NewFeed(buffer int) *Feed {
	return &Feed{
		frames: make(chan *trace.Frame, buffer),
		stop:   make(chan struct{}),
	}
}

func (f *Feed) WriteFrame(t float64, s *dynamo.System) error {
	frame := &trace.Frame{
		Time:   t,
		Radius: append([]float64(nil), s.Radius...),
		Pos:    append([]dynamo.Vec3(nil), s.Pos...),
		Vel:    append([]dynamo.Vec3(nil), s.Vel...),
	}
	select {
	case f.frames <- frame:
		return nil
	case <-f.stop:
		return ErrFeedStopped
	}
}

// Close marks the end of the run. err is the run's error, if any.
func (f *Feed) Close(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
	close(f.frames)
}

// Stop releases a simulation blocked in WriteFrame.
func (f *Feed) Stop() {
	f.stopOnce.Do(func() { close(f.stop) })
}

func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Poll returns up to limit queued frames without blocking. done reports
// that the feed is closed and drained.
func (f *Feed) Poll(limit int) (frames []*trace.Frame, done bool) {
	for len(frames) < limit {
		select {
		case fr, ok := <-f.frames:
			if !ok {
				return frames, true
			}
			frames = append(frames, fr)
		default:
			return frames, false
		}
	}
	return frames, false
}

type FramesMsg []*trace.Frame

type DoneMsg struct{ Err error }

// Wait returns a command delivering the next batch of frames, or DoneMsg
// once the feed is closed and drained.
func (f *Feed) Wait() tea.Cmd {
	return func() tea.Msg {
		first, ok := <-f.frames
		if !ok {
			return DoneMsg{Err: f.Err()}
		}
		batch := FramesMsg{first}
		for len(batch) < maxBatch {
			select {
			case fr, ok := <-f.frames:
				if !ok {
					return batch
				}
				batch = append(batch, fr)
			default:
				return batch
			}
		}
		return batch
	}
}
