package spectral

// DefaultRolloffPercent is the conventional 85% rolloff point.
const DefaultRolloffPercent = 0.85

// SpectralRolloff computes the frequency below which a given fraction of the
// frame's cumulative magnitude lies.
type SpectralRolloff struct {
	sampleRate int
	freqBins   []float64
}

// NewSpectralRolloff creates a new spectral rolloff calculator
func NewSpectralRolloff(sampleRate int) *SpectralRolloff {
	return &SpectralRolloff{
		sampleRate: sampleRate,
	}
}

// Compute returns the lowest bin frequency whose cumulative magnitude reaches
// threshold (0..1) of the frame total. A silent frame rolls off at 0 Hz.
func (sr *SpectralRolloff) Compute(spectrum []float64, threshold float64) float64 {
	if len(spectrum) == 0 {
		return 0.0
	}

	if len(sr.freqBins) != len(spectrum) {
		sr.freqBins = frequencyBins(sr.sampleRate, len(spectrum))
	}

	total := 0.0
	for _, mag := range spectrum {
		total += mag
	}

	target := threshold * total
	cumulative := 0.0
	for i, mag := range spectrum {
		cumulative += mag
		if cumulative >= target {
			return sr.freqBins[i]
		}
	}

	// rounding can leave the running sum a hair under target
	return sr.freqBins[len(sr.freqBins)-1]
}

// ComputeFrames processes multiple frames efficiently
func (sr *SpectralRolloff) ComputeFrames(spectrogram [][]float64, threshold float64) []float64 {
	rolloffs := make([]float64, len(spectrogram))
	for t, spectrum := range spectrogram {
		rolloffs[t] = sr.Compute(spectrum, threshold)
	}
	return rolloffs
}
