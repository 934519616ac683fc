package analyzers

import (
	"fmt"

	"github.com/RyanBlaney/sonido-mix/algorithms/common"
	"github.com/RyanBlaney/sonido-mix/algorithms/spectral"
	"github.com/RyanBlaney/sonido-mix/algorithms/windowing"
	"github.com/RyanBlaney/sonido-mix/logging"
	"github.com/RyanBlaney/sonido-mix/mixfit/config"
)

// Features are the frame-averaged spectral summary statistics of a signal.
type Features struct {
	Centroid float64 `json:"centroid"` // Hz
	Rolloff  float64 `json:"rolloff"`  // Hz
	RMS      float64 `json:"rms"`
}

// FeatureExtractor computes centroid, rolloff and RMS from a magnitude STFT.
type FeatureExtractor struct {
	windowSize     int
	hopSize        int
	rolloffPercent float64
	stft           *spectral.STFT
	window         *windowing.Hann
	logger         logging.Logger
}

// NewFeatureExtractor creates an extractor for the analysis settings.
func NewFeatureExtractor(cfg config.AnalysisConfig) *FeatureExtractor {
	return &FeatureExtractor{
		windowSize:     cfg.WindowSize,
		hopSize:        cfg.HopSize,
		rolloffPercent: cfg.RolloffPercent,
		stft:           spectral.NewSTFT(),
		window:         windowing.NewHann(cfg.WindowSize, false),
		logger: logging.WithFields(logging.Fields{
			"component": "feature_extractor",
		}),
	}
}

// Extract runs a centred STFT over samples and averages the per-frame
// features. Samples shorter than one window still produce frames.
func (fe *FeatureExtractor) Extract(samples []float64, sampleRate int) (Features, error) {
	if len(samples) == 0 {
		return Features{}, fmt.Errorf("extract features: empty signal")
	}

	result, err := fe.stft.Compute(samples, fe.windowSize, fe.hopSize, sampleRate, fe.window, true)
	if err != nil {
		return Features{}, fmt.Errorf("extract features: %w", err)
	}

	centroids := spectral.NewSpectralCentroid(sampleRate).ComputeFrames(result.Magnitude)
	rolloffs := spectral.NewSpectralRolloff(sampleRate).ComputeFrames(result.Magnitude, fe.rolloffPercent)
	rms := spectral.NewSpectralRMS(fe.windowSize).ComputeFrames(result.Magnitude)

	features := Features{
		Centroid: common.Mean(centroids),
		Rolloff:  common.Mean(rolloffs),
		RMS:      common.Mean(rms),
	}

	fe.logger.Debug("Extracted spectral features", logging.Fields{
		"function": "Extract",
		"frames":   result.TimeFrames,
		"centroid": features.Centroid,
		"rolloff":  features.Rolloff,
		"rms":      features.RMS,
	})

	return features, nil
}
