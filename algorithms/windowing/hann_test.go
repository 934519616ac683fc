package windowing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHannPeriodic(t *testing.T) {
	h := NewHann(4, false)
	assert.Equal(t, 4, h.Size())
	assert.InDeltaSlice(t, []float64{0, 0.5, 1, 0.5}, h.Coefficients(), 1e-12)
}

func TestHannSymmetricEndpoints(t *testing.T) {
	c := NewHann(5, true).Coefficients()
	require.Len(t, c, 5)
	assert.InDelta(t, 0, c[0], 1e-12)
	assert.InDelta(t, 0, c[4], 1e-12)
	assert.InDelta(t, 1, c[2], 1e-12)
}

func TestHannDegenerateSizes(t *testing.T) {
	assert.Equal(t, []float64{1}, NewHann(1, false).Coefficients())
	assert.Empty(t, NewHann(0, true).Coefficients())
}

func TestHannApplyInPlace(t *testing.T) {
	h := NewHann(8, false)
	require.Error(t, h.ApplyInPlace(make([]float64, 7)))

	buf := []float64{1, 1, 1, 1, 1, 1, 1, 1}
	require.NoError(t, h.ApplyInPlace(buf))
	assert.Equal(t, 0.0, buf[0])
	assert.InDelta(t, 1.0, buf[4], 1e-12)

	// the window itself is not modified
	assert.InDelta(t, 1.0, h.Coefficients()[4], 1e-12)
}
