package trace

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/san-kum/hardsphere/internal/dynamo"
)

var order = binary.LittleEndian

// Writer appends frames to a trace. It implements dynamo.FrameSink.
type Writer struct {
	w      *bufio.Writer
	closer io.Closer
	header Header
	frames int
}

// HeaderFor describes a run of model starting from s.
func HeaderFor(model dynamo.Model, s *dynamo.System, e, maxTime float64, walls dynamo.Walls) Header {
	h := Header{
		Model:       model,
		Count:       s.Len(),
		Restitution: e,
		MaxTime:     maxTime,
		Walls:       walls,
	}
	if !model.VariableCount() {
		h.Radii = append([]float64(nil), s.Radius...)
	}
	return h
}

func NewWriter(w io.Writer, h Header) (*Writer, error) {
	tw := &Writer{w: bufio.NewWriterSize(w, 1<<16), header: h}
	if err := tw.writeHeader(); err != nil {
		return nil, err
	}
	return tw, nil
}

// Create truncates or creates path and writes the header.
func Create(path string, h Header) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create trace: %w", err)
	}
	tw, err := NewWriter(f, h)
	if err != nil {
		f.Close()
		return nil, err
	}
	tw.closer = f
	return tw, nil
}

func (w *Writer) writeHeader() error {
	h := w.header
	if !h.Model.VariableCount() && len(h.Radii) != h.Count {
		return fmt.Errorf("%w: %d radii for %d particles", dynamo.ErrInvalidConfig, len(h.Radii), h.Count)
	}
	raw := rawHeader{
		Model:       uint64(h.Model),
		Count:       uint64(h.Count),
		Restitution: h.Restitution,
		MaxTime:     h.MaxTime,
		Walls:       h.Walls,
	}
	if err := binary.Write(w.w, order, &raw); err != nil {
		return fmt.Errorf("write trace header: %w", err)
	}
	if !h.Model.VariableCount() {
		if err := binary.Write(w.w, order, h.Radii); err != nil {
			return fmt.Errorf("write trace radii: %w", err)
		}
	}
	return nil
}

func (w *Writer) WriteFrame(t float64, s *dynamo.System) error {
	n := s.Len()
	variable := w.header.Model.VariableCount()
	if !variable && n != w.header.Count {
		return fmt.Errorf("%w: %s trace holds %d particles, frame has %d",
			dynamo.ErrInvalidParticle, w.header.Model, w.header.Count, n)
	}

	if err := binary.Write(w.w, order, t); err != nil {
		return fmt.Errorf("write frame %d: %w", w.frames, err)
	}
	if variable {
		if err := binary.Write(w.w, order, uint64(n)); err != nil {
			return fmt.Errorf("write frame %d: %w", w.frames, err)
		}
		if err := binary.Write(w.w, order, s.Radius); err != nil {
			return fmt.Errorf("write frame %d: %w", w.frames, err)
		}
	}
	if err := binary.Write(w.w, order, s.Pos); err != nil {
		return fmt.Errorf("write frame %d: %w", w.frames, err)
	}
	if err := binary.Write(w.w, order, s.Vel); err != nil {
		return fmt.Errorf("write frame %d: %w", w.frames, err)
	}
	w.frames++
	return nil
}

func (w *Writer) Frames() int { return w.frames }

func (w *Writer) Flush() error { return w.w.Flush() }

// Close flushes buffered frames and closes the file opened by Create.
func (w *Writer) Close() error {
	err := w.w.Flush()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
