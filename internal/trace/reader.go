package trace

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/san-kum/hardsphere/internal/dynamo"
)

type Reader struct {
	r      *bufio.Reader
	closer io.Closer
	header Header
	frames int
}

func NewReader(r io.Reader) (*Reader, error) {
	tr := &Reader{r: bufio.NewReaderSize(r, 1<<16)}
	if err := tr.readHeader(); err != nil {
		return nil, err
	}
	return tr, nil
}

func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	tr, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	tr.closer = f
	return tr, nil
}

func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

func (r *Reader) Header() Header { return r.header }

func (r *Reader) readHeader() error {
	var raw rawHeader
	if err := binary.Read(r.r, order, &raw); err != nil {
		return fmt.Errorf("%w: header: %v", ErrFormat, err)
	}
	if raw.Model > uint64(dynamo.ModelFission) {
		return fmt.Errorf("%w: unknown model tag %d", ErrFormat, raw.Model)
	}
	if raw.Count > maxCount {
		return fmt.Errorf("%w: particle count %d", ErrFormat, raw.Count)
	}

	h := Header{
		Model:       dynamo.Model(raw.Model),
		Count:       int(raw.Count),
		Restitution: raw.Restitution,
		MaxTime:     raw.MaxTime,
		Walls:       raw.Walls,
	}
	if !h.Model.VariableCount() {
		h.Radii = make([]float64, h.Count)
		if err := binary.Read(r.r, order, h.Radii); err != nil {
			return fmt.Errorf("%w: header radii: %v", ErrFormat, err)
		}
	}
	r.header = h
	return nil
}

// Next decodes the next frame. It returns io.EOF after the last complete
// frame and io.ErrUnexpectedEOF if the trace ends inside a frame.
func (r *Reader) Next() (*Frame, error) {
	f := &Frame{}
	if err := binary.Read(r.r, order, &f.Time); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, r.frameErr(err)
	}

	n := r.header.Count
	if r.header.Model.VariableCount() {
		var count uint64
		if err := binary.Read(r.r, order, &count); err != nil {
			return nil, r.frameErr(err)
		}
		if count > maxCount {
			return nil, fmt.Errorf("%w: frame %d has %d particles", ErrFormat, r.frames, count)
		}
		n = int(count)
		f.Radius = make([]float64, n)
		if err := binary.Read(r.r, order, f.Radius); err != nil {
			return nil, r.frameErr(err)
		}
	} else {
		f.Radius = r.header.Radii
	}

	f.Pos = make([]dynamo.Vec3, n)
	f.Vel = make([]dynamo.Vec3, n)
	if err := binary.Read(r.r, order, f.Pos); err != nil {
		return nil, r.frameErr(err)
	}
	if err := binary.Read(r.r, order, f.Vel); err != nil {
		return nil, r.frameErr(err)
	}
	r.frames++
	return f, nil
}

func (r *Reader) frameErr(err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("frame %d: %w", r.frames, err)
}

// ReadAll decodes every remaining frame.
func (r *Reader) ReadAll() ([]*Frame, error) {
	var frames []*Frame
	for {
		f, err := r.Next()
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, f)
	}
}

// Load reads the header and every frame of the trace at path.
func Load(path string) (Header, []*Frame, error) {
	r, err := Open(path)
	if err != nil {
		return Header{}, nil, err
	}
	defer r.Close()
	frames, err := r.ReadAll()
	return r.Header(), frames, err
}
