package filters

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(freq, amp float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func TestBandpassEdgesAreHalfPower(t *testing.T) {
	bands := [][2]float64{{20, 60}, {60, 250}, {250, 1000}, {1000, 4000}, {4000, 12000}}
	for _, b := range bands {
		bf, err := NewBandpassFilter(44100, b[0], b[1])
		require.NoError(t, err)

		assert.InDelta(t, 1/math.Sqrt2, bf.GetFrequencyResponse(b[0]), 1e-6, "low edge %v", b)
		assert.InDelta(t, 1/math.Sqrt2, bf.GetFrequencyResponse(b[1]), 1e-6, "high edge %v", b)
		assert.Len(t, bf.GetSections(), 2)
	}
}

func TestBandpassPolesInsideUnitCircle(t *testing.T) {
	bf, err := NewBandpassFilter(44100, 20, 60)
	require.NoError(t, err)
	for _, s := range bf.GetSections() {
		// a2 is the squared pole radius of the conjugate pair
		assert.Less(t, s.A2, 1.0)
		assert.Greater(t, s.A2, 0.0)
	}
}

func TestNewBandpassFilterDegenerate(t *testing.T) {
	_, err := NewBandpassFilter(8000, 4000, 12000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDegenerateBand))

	_, err = NewBandpassFilter(0, 20, 60)
	require.Error(t, err)
}

func TestNormalizeBandClamps(t *testing.T) {
	lo, hi, ok := NormalizeBand(44100, 0, 30000)
	assert.True(t, ok)
	assert.Equal(t, MinNormalizedEdge, lo)
	assert.Equal(t, MaxNormalizedEdge, hi)
}

func TestBandEnergyDegenerateBandIsZero(t *testing.T) {
	x := sine(1000, 1, 8000, 8000)
	assert.Equal(t, 0.0, BandEnergy(x, 8000, 4000, 12000))
}

func TestBandEnergyDeterministicAndNonNegative(t *testing.T) {
	x := sine(440, 0.8, 44100, 22050)
	x[100] = -3 // a spike so every band sees something

	bands := [][2]float64{{20, 60}, {60, 250}, {250, 1000}, {1000, 4000}, {4000, 12000}}
	for _, b := range bands {
		first := BandEnergy(x, 44100, b[0], b[1])
		second := BandEnergy(x, 44100, b[0], b[1])
		assert.GreaterOrEqual(t, first, 0.0)
		assert.Equal(t, math.Float64bits(first), math.Float64bits(second), "band %v", b)
	}
}

func TestBandEnergySelectsInBandSine(t *testing.T) {
	inBand := BandEnergy(sine(2000, 1, 44100, 44100), 44100, 1000, 4000)
	outBand := BandEnergy(sine(100, 1, 44100, 44100), 44100, 1000, 4000)

	// a unit sine carries 0.5 power at the passband center
	assert.InDelta(t, 0.5, inBand, 0.01)
	assert.Less(t, outBand, 1e-3)
}

func TestBandEnergyDoesNotMutateInput(t *testing.T) {
	x := sine(300, 1, 44100, 4096)
	orig := append([]float64(nil), x...)
	BandEnergy(x, 44100, 250, 1000)
	assert.Equal(t, orig, x)
}

func TestBandEnergyEmpty(t *testing.T) {
	assert.Equal(t, 0.0, BandEnergy(nil, 44100, 20, 60))
}
