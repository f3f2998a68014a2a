package gcode

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paulhankin/spiral/paths"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func emitSample(s Sink) {
	s.Emit(Home{})
	s.Emit(SetAbsoluteFeed{Value: 0})
	s.Emit(Travel{To: paths.Vec3{1, 2, 3}, Feedrate: 2000})
	s.Emit(Extrude{To: paths.Vec3{4, 2, 3}, E: 0.1, Delta: 0.1, Feedrate: 1000})
}

func TestWriter(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out, nil)
	emitSample(w)
	assert.Zero(t, out.Len(), "output is buffered until Flush")
	require.NoError(t, w.Flush())

	want := "G28\nG92 E0\nG0 X1 Y2 Z3 F2000\nG1 X4 Y2 Z3 E0.1 F1000\n"
	assert.Equal(t, want, out.String())
	assert.Equal(t, 4, w.Lines())
}

func TestWriterSumIsDeterministic(t *testing.T) {
	var a, b bytes.Buffer
	wa := NewWriter(&a, &Config{Precision: 3})
	wb := NewWriter(&b, &Config{Precision: 3})
	emitSample(wa)
	emitSample(wb)
	assert.Equal(t, wa.Sum64(), wb.Sum64())

	wb.Emit(Comment{Text: "extra"})
	assert.NotEqual(t, wa.Sum64(), wb.Sum64())
}

func TestWriterFlushError(t *testing.T) {
	w := NewWriter(failingWriter{}, nil)
	emitSample(w)
	err := w.Flush()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIO)
	assert.Contains(t, err.Error(), "disk full")

	// The error sticks.
	w.Emit(Home{})
	assert.ErrorIs(t, w.Flush(), ErrIO)
}

func TestBufferAndTee(t *testing.T) {
	var b1, b2 Buffer
	emitSample(Tee(&b1, &b2))
	require.Equal(t, 4, b1.Len())
	assert.Equal(t, b1.Commands(), b2.Commands())
	assert.Equal(t, Home{}, b1.Commands()[0])
}
