package analyzers

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-mix/mixfit/config"
	"github.com/RyanBlaney/sonido-mix/mixfit/model"
)

func sine(freq, amp float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

func TestExtractSine(t *testing.T) {
	fe := NewFeatureExtractor(config.DefaultAnalysisConfig())

	f, err := fe.Extract(sine(2000, 1, 44100, 44100), 44100)
	require.NoError(t, err)

	assert.InDelta(t, 2000, f.Centroid, 200)
	assert.Greater(t, f.Rolloff, 1900.0)
	assert.Less(t, f.Rolloff, 4000.0)
	// unit sine under a Hann window: sqrt(0.5 * 0.375)
	assert.InDelta(t, 0.433, f.RMS, 0.03)
}

func TestExtractSilenceAndShortInput(t *testing.T) {
	fe := NewFeatureExtractor(config.DefaultAnalysisConfig())

	f, err := fe.Extract(make([]float64, 4096), 44100)
	require.NoError(t, err)
	assert.Equal(t, Features{}, f)

	f, err = fe.Extract(sine(1000, 0.5, 44100, 100), 44100)
	require.NoError(t, err)
	assert.Greater(t, f.RMS, 0.0)

	_, err = fe.Extract(nil, 44100)
	assert.Error(t, err)
}

func TestAnalyzeInBandSine(t *testing.T) {
	sa := NewStemAnalyzer(config.DefaultAnalysisConfig())

	a, err := sa.Analyze("other", model.AudioSignal{Samples: sine(2000, 1, 44100, 44100), SampleRate: 44100})
	require.NoError(t, err)

	assert.Equal(t, "other", a.Name)
	require.Len(t, a.BandEnergies, len(sa.Bands()))
	assert.Equal(t, 3, argmax(a.BandEnergies))
	assert.InDelta(t, 0.5, a.BandEnergies[3], 0.01)
	for _, e := range a.BandEnergies {
		assert.GreaterOrEqual(t, e, 0.0)
	}
}

func TestAnalyzeResamplesToCanonicalRate(t *testing.T) {
	sa := NewStemAnalyzer(config.DefaultAnalysisConfig())

	a, err := sa.Analyze("vocals", model.AudioSignal{Samples: sine(2000, 1, 48000, 48000), SampleRate: 48000})
	require.NoError(t, err)

	assert.Equal(t, 3, argmax(a.BandEnergies))
	assert.InDelta(t, 2000, a.Centroid, 200)
}

func TestAnalyzeDownmixesStereo(t *testing.T) {
	sa := NewStemAnalyzer(config.DefaultAnalysisConfig())

	left := sine(440, 1, 44100, 8192)
	stereo := make([]float64, 0, 2*len(left))
	for _, v := range left {
		stereo = append(stereo, v, -v)
	}

	a, err := sa.Analyze("drums", model.AudioSignal{Samples: stereo, SampleRate: 44100, Channels: 2})
	require.NoError(t, err)

	// opposite-phase channels cancel
	assert.Equal(t, 0.0, a.RMS)
	assert.Equal(t, 0.0, a.Centroid)
	for _, e := range a.BandEnergies {
		assert.Equal(t, 0.0, e)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	sa := NewStemAnalyzer(config.DefaultAnalysisConfig())
	sig := model.AudioSignal{Samples: sine(150, 0.8, 44100, 22050), SampleRate: 44100}

	first, err := sa.Analyze("bass", sig)
	require.NoError(t, err)
	second, err := sa.Analyze("bass", sig)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAnalyzeRejectsInvalidSignals(t *testing.T) {
	sa := NewStemAnalyzer(config.DefaultAnalysisConfig())

	for name, sig := range map[string]model.AudioSignal{
		"empty":   {SampleRate: 44100},
		"nan":     {Samples: []float64{0, math.NaN()}, SampleRate: 44100},
		"no rate": {Samples: []float64{0, 1}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := sa.Analyze(name, sig)
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrDecodeOrAnalysis)

			var se *model.StemError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, name, se.Stem)
		})
	}
}

func meanSquare(s []float64) float64 {
	var sum float64
	for _, v := range s {
		sum += v * v
	}
	return sum / float64(len(s))
}

func TestResampleMonoLength(t *testing.T) {
	tests := []struct {
		name string
		rate int
		n    int
		want int
	}{
		{name: "10ms at 8k", rate: 8000, n: 80, want: 441},
		{name: "10ms at 16k", rate: 16000, n: 160, want: 441},
		{name: "1s at 8k", rate: 8000, n: 8000, want: 44100},
		{name: "1s at 48k", rate: 48000, n: 48000, want: 44100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := resampleMono(sine(500, 1, tt.rate, tt.n), tt.rate, 44100)
			require.NoError(t, err)
			require.Len(t, out, tt.want)
			assert.Greater(t, meanSquare(out), 0.1)
		})
	}
}

func TestAnalyzeShortLowRateStem(t *testing.T) {
	sa := NewStemAnalyzer(config.DefaultAnalysisConfig())

	for _, rate := range []int{8000, 16000} {
		a, err := sa.Analyze("vocals", model.AudioSignal{Samples: sine(500, 1, rate, 100), SampleRate: rate})
		require.NoError(t, err)
		assert.Greater(t, a.RMS, 0.0, "rate %d", rate)

		var total float64
		for _, e := range a.BandEnergies {
			total += e
		}
		assert.Greater(t, total, 0.0, "rate %d", rate)
	}
}
