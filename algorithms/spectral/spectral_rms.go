package spectral

import "math"

// SpectralRMS estimates the time-domain RMS of a windowed frame from its
// one-sided magnitude spectrum via Parseval's theorem.
type SpectralRMS struct {
	frameLength int
}

// NewSpectralRMS creates a calculator for frames of frameLength samples.
func NewSpectralRMS(frameLength int) *SpectralRMS {
	return &SpectralRMS{frameLength: frameLength}
}

// Compute returns sqrt(2 * sum(w_k |X_k|^2) / N^2) where the DC bin (and the
// Nyquist bin for even N) carry half weight since they are not mirrored.
func (sr *SpectralRMS) Compute(spectrum []float64) float64 {
	if len(spectrum) == 0 || sr.frameLength <= 0 {
		return 0.0
	}

	power := 0.0
	for i, mag := range spectrum {
		p := mag * mag
		if i == 0 || (i == len(spectrum)-1 && sr.frameLength%2 == 0) {
			p *= 0.5
		}
		power += p
	}

	n := float64(sr.frameLength)
	return math.Sqrt(2 * power / (n * n))
}

// ComputeFrames processes multiple frames efficiently
func (sr *SpectralRMS) ComputeFrames(spectrogram [][]float64) []float64 {
	out := make([]float64, len(spectrogram))
	for t, spectrum := range spectrogram {
		out[t] = sr.Compute(spectrum)
	}
	return out
}
