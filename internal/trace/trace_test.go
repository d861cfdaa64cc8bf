package trace

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/hardsphere/internal/dynamo"
)

func pair() *dynamo.System {
	return dynamo.FromParticles([]dynamo.Particle{
		{Pos: dynamo.Vec3{0.1, 0.2, 0.3}, Vel: dynamo.Vec3{1, 0, -1}, Mass: 1, Radius: 0.05},
		{Pos: dynamo.Vec3{0.7, 0.8, 0.9}, Vel: dynamo.Vec3{0, 2, 0}, Mass: 2, Radius: 0.07},
	})
}

func TestInelasticLayout(t *testing.T) {
	s := pair()
	var buf bytes.Buffer
	w, err := NewWriter(&buf, HeaderFor(dynamo.ModelInelastic, s, 0.9, 5, dynamo.UnitBox))
	require.NoError(t, err)
	require.NoError(t, w.WriteFrame(0.25, s))
	require.NoError(t, w.Flush())

	n := s.Len()
	headerSize := 8*4 + 8*6 + 8*n
	frameSize := 8 + 2*3*8*n
	require.Equal(t, headerSize+frameSize, buf.Len())

	b := buf.Bytes()
	assert.Equal(t, uint64(0), binary.LittleEndian.Uint64(b[0:]))
	assert.Equal(t, uint64(2), binary.LittleEndian.Uint64(b[8:]))
	assert.Equal(t, 0.9, math.Float64frombits(binary.LittleEndian.Uint64(b[16:])))
	assert.Equal(t, 5.0, math.Float64frombits(binary.LittleEndian.Uint64(b[24:])))
	assert.Equal(t, 1.0, math.Float64frombits(binary.LittleEndian.Uint64(b[40:])), "x high wall")
	assert.Equal(t, 0.07, math.Float64frombits(binary.LittleEndian.Uint64(b[88:])), "second radius")
	assert.Equal(t, 0.25, math.Float64frombits(binary.LittleEndian.Uint64(b[headerSize:])), "frame time")
	assert.Equal(t, 0.1, math.Float64frombits(binary.LittleEndian.Uint64(b[headerSize+8:])), "first position")
}

func TestVariableCountLayout(t *testing.T) {
	s := pair()
	var buf bytes.Buffer
	w, err := NewWriter(&buf, HeaderFor(dynamo.ModelFission, s, 1, 5, dynamo.UnitBox))
	require.NoError(t, err)
	require.NoError(t, w.WriteFrame(0, s))
	require.NoError(t, w.Flush())

	headerSize := 8*4 + 8*6
	assert.Equal(t, headerSize+8+8+8*2+2*3*8*2, buf.Len())
	assert.Equal(t, uint64(2), binary.LittleEndian.Uint64(buf.Bytes()[headerSize+8:]), "frame count")
}

func TestRoundTripVariableCount(t *testing.T) {
	s := pair()
	var buf bytes.Buffer
	w, err := NewWriter(&buf, HeaderFor(dynamo.ModelFusion, s, 0.5, 10, dynamo.Walls{{-1, 1}, {-2, 2}, {-3, 3}}))
	require.NoError(t, err)

	require.NoError(t, w.WriteFrame(0, s))
	merged := dynamo.FromParticles([]dynamo.Particle{
		{Pos: dynamo.Vec3{0.4, 0.5, 0.6}, Vel: dynamo.Vec3{0.5, 1, -0.5}, Mass: 3, Radius: 0.08},
	})
	require.NoError(t, w.WriteFrame(1.5, merged))
	require.NoError(t, w.Flush())
	assert.Equal(t, 2, w.Frames())

	r, err := NewReader(&buf)
	require.NoError(t, err)
	h := r.Header()
	assert.Equal(t, dynamo.ModelFusion, h.Model)
	assert.Equal(t, 2, h.Count)
	assert.Equal(t, 0.5, h.Restitution)
	assert.Equal(t, 10.0, h.MaxTime)
	assert.Equal(t, dynamo.Walls{{-1, 1}, {-2, 2}, {-3, 3}}, h.Walls)
	assert.Nil(t, h.Radii)

	frames, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, frames, 2)

	assert.Equal(t, 0.0, frames[0].Time)
	assert.Equal(t, s.Pos, frames[0].Pos)
	assert.Equal(t, s.Vel, frames[0].Vel)
	assert.Equal(t, s.Radius, frames[0].Radius)

	assert.Equal(t, 1.5, frames[1].Time)
	assert.Equal(t, 1, frames[1].Len())
	assert.Equal(t, merged.Radius, frames[1].Radius)
	assert.InDelta(t, math.Sqrt(1.5), frames[1].Speeds()[0], 1e-12)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.bin")
	s := pair()

	w, err := Create(path, HeaderFor(dynamo.ModelInelastic, s, 1, 2, dynamo.UnitBox))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, w.WriteFrame(float64(i), s))
	}
	require.NoError(t, w.Close())

	h, frames, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s.Radius, h.Radii)
	require.Len(t, frames, 3)
	for i, f := range frames {
		assert.Equal(t, float64(i), f.Time)
		assert.Equal(t, h.Radii, f.Radius)
	}
}

func TestWriterRejectsCountChange(t *testing.T) {
	s := pair()
	w, err := NewWriter(io.Discard, HeaderFor(dynamo.ModelInelastic, s, 1, 1, dynamo.UnitBox))
	require.NoError(t, err)

	err = w.WriteFrame(0, dynamo.FromParticles([]dynamo.Particle{s.At(0)}))
	assert.ErrorIs(t, err, dynamo.ErrInvalidParticle)
	assert.Equal(t, 0, w.Frames())

	_, err = NewWriter(io.Discard, Header{Model: dynamo.ModelInelastic, Count: 3})
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
}

func TestTruncatedTrace(t *testing.T) {
	s := pair()
	var buf bytes.Buffer
	w, err := NewWriter(&buf, HeaderFor(dynamo.ModelFission, s, 1, 1, dynamo.UnitBox))
	require.NoError(t, err)
	require.NoError(t, w.WriteFrame(0, s))
	require.NoError(t, w.WriteFrame(0.5, s))
	require.NoError(t, w.Flush())

	data := buf.Bytes()[:buf.Len()-10]
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	frames, err := r.ReadAll()
	assert.Len(t, frames, 1)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestBadHeader(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte{1, 2, 3}))
	assert.ErrorIs(t, err, ErrFormat)

	raw := make([]byte, 80)
	binary.LittleEndian.PutUint64(raw, 7)
	_, err = NewReader(bytes.NewReader(raw))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestRecorderCopiesState(t *testing.T) {
	s := pair()
	rec := NewRecorder()
	require.NoError(t, rec.WriteFrame(0.5, s))

	s.Pos[0] = dynamo.Vec3{9, 9, 9}
	s.Radius[1] = 1

	require.Len(t, rec.Frames, 1)
	f := rec.Frames[0]
	assert.Equal(t, 0.5, f.Time)
	assert.Equal(t, dynamo.Vec3{0.1, 0.2, 0.3}, f.Pos[0])
	assert.Equal(t, 0.07, f.Radius[1])
}

func TestFrameAt(t *testing.T) {
	f := &Frame{
		Time: 1,
		Pos:  []dynamo.Vec3{{0, 0, 0}, {1, 1, 1}},
		Vel:  []dynamo.Vec3{{1, 0, 0}, {0, -2, 0}},
	}
	pos := f.At(1.5)
	assert.InDelta(t, 0.5, pos[0][0], 1e-12)
	assert.InDelta(t, 0.0, pos[1][1], 1e-12)
	assert.Equal(t, dynamo.Vec3{0, 0, 0}, f.Pos[0], "frame must not change")
}

func TestLocate(t *testing.T) {
	frames := []*Frame{{Time: 0}, {Time: 1}, {Time: 1}, {Time: 2.5}}
	tests := []struct {
		t    float64
		want int
	}{
		{-1, -1},
		{0, 0},
		{0.5, 0},
		{1, 2},
		{2, 2},
		{2.5, 3},
		{10, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Locate(frames, tt.t), "t=%g", tt.t)
	}
	assert.Equal(t, -1, Locate(nil, 1))
}

func TestPlayback(t *testing.T) {
	p := NewPlayback(4)
	assert.Equal(t, 0.4, p.Speed)
	assert.Nil(t, p.Current())

	p.Append(&Frame{Time: 0, Pos: []dynamo.Vec3{{0, 0, 0}}, Vel: []dynamo.Vec3{{1, 0, 0}}},
		&Frame{Time: 1, Pos: []dynamo.Vec3{{1, 0, 0}}, Vel: []dynamo.Vec3{{-1, 0, 0}}})

	p.Tick(100)
	assert.Equal(t, 1.0, p.T, "live playback waits at the last frame")
	assert.True(t, p.Running)

	p.Done = true
	p.Tick(1)
	assert.InDelta(t, 1.4, p.T, 1e-12)
	assert.InDelta(t, 0.6, p.Positions()[0][0], 1e-12)
	p.Tick(100)
	assert.Equal(t, 4.0, p.T)
	assert.False(t, p.Running)
	assert.Equal(t, 1.0, p.Progress())

	p.Step(-1)
	assert.Equal(t, 1.0, p.T)
	p.Step(-1)
	assert.Equal(t, 0.0, p.T)
	p.Step(-1)
	assert.Equal(t, 0.0, p.T)
	p.Step(1)
	p.Step(1)
	assert.Equal(t, 1.0, p.T)

	p.Restart()
	assert.Equal(t, 0.0, p.T)
	assert.True(t, p.Running)
	p.Toggle()
	p.Tick(1)
	assert.Equal(t, 0.0, p.T)
}
