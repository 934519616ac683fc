package filters

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

// Normalized edges are clamped into this open interval so the bilinear
// pre-warp stays finite.
const (
	MinNormalizedEdge = 1e-6
	MaxNormalizedEdge = 0.999999
)

// ErrDegenerateBand is returned when a band collapses after clamping, e.g. a
// band lying entirely above Nyquist.
var ErrDegenerateBand = errors.New("band is empty after clamping to the valid range")

// Section is one second-order section normalized so that a0 == 1.
type Section struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// BandpassFilter is a Butterworth bandpass built from a 2nd-order lowpass
// prototype. The lowpass-to-bandpass transform doubles the order, so the
// digital filter has four poles and runs as two cascaded sections.
//
// The design follows the usual analog route: prototype poles, pre-warp of
// both edges, lowpass-to-bandpass, bilinear transform. Edges are given in Hz
// and normalized against Nyquist.
type BandpassFilter struct {
	sampleRate int
	lowHz      float64
	highHz     float64
	lowNorm    float64
	highNorm   float64
	sections   []Section
}

// NormalizeBand maps Hz edges to Nyquist-relative edges and applies the clamps.
// ok is false when the clamped band is empty.
func NormalizeBand(sampleRate int, lowHz, highHz float64) (lowNorm, highNorm float64, ok bool) {
	nyquist := 0.5 * float64(sampleRate)
	lowNorm = math.Max(lowHz/nyquist, MinNormalizedEdge)
	highNorm = math.Min(highHz/nyquist, MaxNormalizedEdge)
	return lowNorm, highNorm, lowNorm < highNorm
}

// NewBandpassFilter designs a bandpass filter passing lowHz..highHz.
func NewBandpassFilter(sampleRate int, lowHz, highHz float64) (*BandpassFilter, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive: %d", sampleRate)
	}

	lowNorm, highNorm, ok := NormalizeBand(sampleRate, lowHz, highHz)
	if !ok {
		return nil, fmt.Errorf("%w: %.1f-%.1f Hz at %d Hz", ErrDegenerateBand, lowHz, highHz, sampleRate)
	}

	return &BandpassFilter{
		sampleRate: sampleRate,
		lowHz:      lowHz,
		highHz:     highHz,
		lowNorm:    lowNorm,
		highNorm:   highNorm,
		sections:   designButterworthBandpass(lowNorm, highNorm),
	}, nil
}

// designButterworthBandpass returns the two sections for normalized edges.
func designButterworthBandpass(lowNorm, highNorm float64) []Section {
	// bilinear transform at fs = 2, i.e. edges normalized to Nyquist
	const fs2 = 4.0

	w1 := fs2 * math.Tan(math.Pi*lowNorm/2)
	w2 := fs2 * math.Tan(math.Pi*highNorm/2)
	bw := w2 - w1
	w0 := math.Sqrt(w1 * w2)

	// Upper-half-plane pole of the 2nd-order prototype; the other one is its
	// conjugate, and the transform keeps conjugate symmetry.
	proto := -cmplx.Exp(complex(0, -math.Pi/4))

	scaled := proto * complex(bw/2, 0)
	root := cmplx.Sqrt(scaled*scaled - complex(w0*w0, 0))
	analog := [2]complex128{scaled + root, scaled - root}

	// Both analog zeros sit at s = 0 and map to z = 1; the two zeros at
	// infinity map to z = -1. Each section gets one of each.
	gain := bw * bw * fs2 * fs2
	sections := make([]Section, 0, len(analog))
	for _, p := range analog {
		d := cmplx.Abs(complex(fs2, 0) - p)
		gain /= d * d

		pz := (complex(fs2, 0) + p) / (complex(fs2, 0) - p)
		sections = append(sections, Section{
			B0: 1, B1: 0, B2: -1,
			A1: -2 * real(pz),
			A2: real(pz)*real(pz) + imag(pz)*imag(pz),
		})
	}

	sections[0].B0 *= gain
	sections[0].B2 *= gain
	return sections
}

// ProcessBuffer filters input in a single forward pass from zero state and
// returns a new slice. Each section runs in transposed direct form II.
func (bf *BandpassFilter) ProcessBuffer(input []float64) []float64 {
	output := make([]float64, len(input))
	copy(output, input)

	for _, s := range bf.sections {
		var z1, z2 float64
		for i, x := range output {
			y := s.B0*x + z1
			z1 = s.B1*x - s.A1*y + z2
			z2 = s.B2*x - s.A2*y
			output[i] = y
		}
	}
	return output
}

// GetFrequencyResponse returns the linear magnitude response at frequency Hz.
func (bf *BandpassFilter) GetFrequencyResponse(frequency float64) float64 {
	w := 2.0 * math.Pi * frequency / float64(bf.sampleRate)
	z1 := cmplx.Exp(complex(0, -w))
	z2 := z1 * z1

	h := complex(1, 0)
	for _, s := range bf.sections {
		num := complex(s.B0, 0) + complex(s.B1, 0)*z1 + complex(s.B2, 0)*z2
		den := 1 + complex(s.A1, 0)*z1 + complex(s.A2, 0)*z2
		h *= num / den
	}
	return cmplx.Abs(h)
}

// GetSections returns a copy of the second-order sections.
func (bf *BandpassFilter) GetSections() []Section {
	out := make([]Section, len(bf.sections))
	copy(out, bf.sections)
	return out
}
