package filters

import (
	"github.com/RyanBlaney/sonido-mix/algorithms/common"
)

// BandEnergy returns the mean squared amplitude of samples after bandpass
// filtering to lowHz..highHz. The result is band power, not RMS.
//
// A band that is empty after clamping (for instance 4-12 kHz at an 8 kHz
// sample rate) has zero energy rather than being an error.
func BandEnergy(samples []float64, sampleRate int, lowHz, highHz float64) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	bf, err := NewBandpassFilter(sampleRate, lowHz, highHz)
	if err != nil {
		return 0.0
	}

	return common.MeanSquare(bf.ProcessBuffer(samples))
}
