package analyzers

import (
	"fmt"

	"github.com/RyanBlaney/sonido-mix/algorithms/filters"
	"github.com/RyanBlaney/sonido-mix/logging"
	"github.com/RyanBlaney/sonido-mix/mixfit/config"
	"github.com/RyanBlaney/sonido-mix/mixfit/model"
)

// Analyzer turns one stem signal into its spectral analysis.
type Analyzer interface {
	Analyze(name string, sig model.AudioSignal) (model.SpectralAnalysis, error)
}

// StemAnalyzer produces a SpectralAnalysis for a single stem. It is safe for
// concurrent use; every call works on its own copies of the samples.
type StemAnalyzer struct {
	sampleRate int
	bands      []config.Band
	extractor  *FeatureExtractor
	logger     logging.Logger
}

// NewStemAnalyzer creates a stem analyzer for the analysis settings.
func NewStemAnalyzer(cfg config.AnalysisConfig) *StemAnalyzer {
	bands := make([]config.Band, len(cfg.Bands))
	copy(bands, cfg.Bands)

	return &StemAnalyzer{
		sampleRate: cfg.SampleRate,
		bands:      bands,
		extractor:  NewFeatureExtractor(cfg),
		logger: logging.WithFields(logging.Fields{
			"component": "stem_analyzer",
		}),
	}
}

// Bands returns the band layout the analyzer measures.
func (sa *StemAnalyzer) Bands() []config.Band {
	return sa.bands
}

// Analyze validates the signal, downmixes it to mono at the canonical sample
// rate and measures spectral features plus energy per configured band.
// Failures are returned as *model.StemError.
func (sa *StemAnalyzer) Analyze(name string, sig model.AudioSignal) (model.SpectralAnalysis, error) {
	logger := sa.logger.WithFields(logging.Fields{
		"function": "Analyze",
		"stem":     name,
	})

	if err := sig.Validate(); err != nil {
		logger.Error(err, "Rejected stem signal")
		return model.SpectralAnalysis{}, model.NewStemError(name, err)
	}

	mono, err := resampleMono(sig.Mono(), sig.SampleRate, sa.sampleRate)
	if err != nil {
		logger.Error(err, "Failed to resample stem", logging.Fields{
			"input_sample_rate": sig.SampleRate,
		})
		return model.SpectralAnalysis{}, model.NewStemError(name, err)
	}

	if len(mono) == 0 {
		err := fmt.Errorf("%w: resampling produced no samples", model.ErrDecodeOrAnalysis)
		return model.SpectralAnalysis{}, model.NewStemError(name, err)
	}

	features, err := sa.extractor.Extract(mono, sa.sampleRate)
	if err != nil {
		logger.Error(err, "Failed to extract spectral features")
		return model.SpectralAnalysis{}, model.NewStemError(name, err)
	}

	energies := make([]float64, len(sa.bands))
	for i, band := range sa.bands {
		energies[i] = filters.BandEnergy(mono, sa.sampleRate, band.Low, band.High)
	}

	logger.Debug("Stem analysed", logging.Fields{
		"samples":       len(mono),
		"band_energies": energies,
	})

	return model.SpectralAnalysis{
		Name:         name,
		Centroid:     features.Centroid,
		Rolloff:      features.Rolloff,
		RMS:          features.RMS,
		BandEnergies: energies,
	}, nil
}
