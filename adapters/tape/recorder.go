package tape

import (
	"encoding/binary"
	"fmt"
	"io"

	"namedprng/ports"
)

// Recorder tees a draw source onto a tape writer. Every value drawn
// through it is appended in emission order before being returned, and a
// failed append fails the draw so the tape never silently falls behind.
type Recorder struct {
	src ports.DrawSource
	w   io.Writer
}

// NewRecorder wraps src so that its draws land on w.
func NewRecorder(src ports.DrawSource, w io.Writer) *Recorder {
	return &Recorder{src: src, w: w}
}

// Draw records and returns the next value from the wrapped source.
func (r *Recorder) Draw() (float64, error) {
	var buf [1]float64
	if err := r.DrawMany(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// DrawMany fills dst from the wrapped source and records every value.
func (r *Recorder) DrawMany(dst []float64) error {
	if err := r.src.DrawMany(dst); err != nil {
		return err
	}
	return r.Append(dst)
}

// Advance draws and records the next n values without returning them.
// Skipped draws still reach the tape: it is the full emission record.
func (r *Recorder) Advance(n int) error {
	if n <= 0 {
		return nil
	}
	return r.DrawMany(make([]float64, n))
}

// Append persists values that were drawn elsewhere.
func (r *Recorder) Append(values []float64) error {
	if len(values) == 0 {
		return nil
	}
	if err := binary.Write(r.w, binary.LittleEndian, values); err != nil {
		return fmt.Errorf("failed to append %d records to tape: %w", len(values), err)
	}
	return nil
}

var _ ports.TapeRecorder = (*Recorder)(nil)
