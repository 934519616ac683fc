package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps the go-dsp real FFT.
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the FFT of a real signal.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	// go-dsp handles non-power-of-2 sizes too
	return fft.FFTReal(x)
}

// Magnitude returns |X[k]| for the non-negative frequency bins 0..N/2.
func (f *FFT) Magnitude(x []float64) []float64 {
	spectrum := f.Compute(x)
	bins := len(spectrum)/2 + 1
	if len(spectrum) == 0 {
		return []float64{}
	}

	mags := make([]float64, bins)
	for i := range bins {
		mags[i] = cmplx.Abs(spectrum[i])
	}
	return mags
}
