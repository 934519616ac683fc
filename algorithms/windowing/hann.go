// Package windowing provides analysis windows for framed spectral work.
package windowing

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
)

// Hann is a precomputed Hann window for frames of one fixed length.
type Hann struct {
	coefficients []float64
}

// NewHann builds a Hann window of size samples. The periodic form
// (symmetric=false) is the DFT-even window used for STFT frames; it is the
// symmetric window of size+1 with the last point dropped.
func NewHann(size int, symmetric bool) *Hann {
	if size <= 1 {
		return &Hann{coefficients: ones(max(size, 0))}
	}

	n := size
	if !symmetric {
		n++
	}
	return &Hann{coefficients: window.Hann(ones(n))[:size]}
}

func ones(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = 1
	}
	return s
}

// ApplyInPlace multiplies frame by the window.
func (h *Hann) ApplyInPlace(frame []float64) error {
	if len(frame) != len(h.coefficients) {
		return fmt.Errorf("frame length (%d) doesn't match window size (%d)", len(frame), len(h.coefficients))
	}
	floats.Mul(frame, h.coefficients)
	return nil
}

// Coefficients returns a copy of the window.
func (h *Hann) Coefficients() []float64 {
	return append([]float64(nil), h.coefficients...)
}

// Size is the frame length the window applies to.
func (h *Hann) Size() int { return len(h.coefficients) }
