package gcode

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
)

// ErrIO is wrapped by errors from writing G-code to its destination.
var ErrIO = errors.New("gcode: write failed")

// Config controls how a Writer renders commands.
type Config struct {
	Precision int // decimals for coordinates, DefaultPrecision if zero
}

// Writer is a Sink that renders commands as text. Output is
// buffered until Flush; a write error is remembered and reported by
// Flush, and later commands are dropped.
type Writer struct {
	w     *bufio.Writer
	prec  int
	err   error
	lines int
	sum   *xxhash.Digest
}

// NewWriter returns a Writer rendering to w.
func NewWriter(w io.Writer, cfg *Config) *Writer {
	prec := DefaultPrecision
	if cfg != nil && cfg.Precision > 0 {
		prec = cfg.Precision
	}
	return &Writer{
		w:    bufio.NewWriter(w),
		prec: prec,
		sum:  xxhash.New(),
	}
}

// Emit renders c as one line.
func (gw *Writer) Emit(c Command) {
	if gw.err != nil {
		return
	}
	line := Format(c, gw.prec) + "\n"
	gw.sum.WriteString(line)
	if _, err := gw.w.WriteString(line); err != nil {
		gw.err = err
		return
	}
	gw.lines++
}

// Flush writes any buffered text, and returns the first error
// encountered since the Writer was created.
func (gw *Writer) Flush() error {
	if gw.err == nil {
		gw.err = gw.w.Flush()
	}
	if gw.err != nil {
		return fmt.Errorf("%w: %w", ErrIO, gw.err)
	}
	return nil
}

// Lines returns the number of lines rendered so far.
func (gw *Writer) Lines() int {
	return gw.lines
}

// Sum64 returns the xxhash of all text rendered so far. Two runs
// producing the same G-code produce the same sum.
func (gw *Writer) Sum64() uint64 {
	return gw.sum.Sum64()
}
