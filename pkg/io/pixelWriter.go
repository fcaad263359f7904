package io

import (
	"errors"

	"github.com/vilmos-lang/vasm/pkg/vm/color"
)

// ErrDrained is set on a PixelWriter after its colors were taken.
var ErrDrained = errors.New("buffer already drained")

// PixelWriter accumulates an ordered color sequence and carries the first
// error that happened while producing it. Once Err is set all writes are
// ignored, so emitters can write unconditionally and check Err once.
type PixelWriter struct {
	pix []color.Color
	Err error
}

// NewPixelWriter makes an empty PixelWriter.
func NewPixelWriter() *PixelWriter {
	return &PixelWriter{}
}

// WriteColor appends c to the sequence.
func (w *PixelWriter) WriteColor(c color.Color) {
	if w.Err != nil {
		return
	}
	w.pix = append(w.pix, c)
}

// WriteColors appends all of cs to the sequence.
func (w *PixelWriter) WriteColors(cs []color.Color) {
	if w.Err != nil {
		return
	}
	w.pix = append(w.pix, cs...)
}

// Len returns the number of colors written so far.
func (w *PixelWriter) Len() int {
	return len(w.pix)
}

// Colors returns the resulting sequence and makes future writes fail. It
// returns nil if there was an error.
func (w *PixelWriter) Colors() []color.Color {
	if w.Err != nil {
		return nil
	}
	w.Err = ErrDrained
	return w.pix
}
