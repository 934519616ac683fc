package suggest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-mix/mixfit/config"
	"github.com/RyanBlaney/sonido-mix/mixfit/model"
)

func newEngine() *Engine {
	return NewEngine(config.DefaultBands(), config.DefaultThresholds())
}

func kinds(suggestions []model.Suggestion) []model.SuggestionKind {
	out := make([]model.SuggestionKind, len(suggestions))
	for i, s := range suggestions {
		out[i] = s.Kind
	}
	return out
}

func profile(name string) config.StemProfile {
	return config.DefaultRoleClassifier().Classify(name)
}

func TestHighPassExemptsLowEndStems(t *testing.T) {
	e := newEngine()
	analysis := model.SpectralAnalysis{BandEnergies: []float64{1e-3, 1e-3, 1e-3, 1e-3, 1e-3}}
	mix := model.MixBandProfile{1e-3, 1e-3, 1e-3, 1e-3, 1e-3}

	bass := e.Suggest(profile("Lead_Bass"), analysis, mix)
	assert.NotContains(t, kinds(bass), model.HighPassFilter)

	kick := e.Suggest(profile("kick"), analysis, mix)
	assert.NotContains(t, kinds(kick), model.HighPassFilter)

	pad := e.Suggest(profile("Synth_Pad"), analysis, mix)
	require.Equal(t, []model.SuggestionKind{model.HighPassFilter}, kinds(pad))
	assert.Equal(t, 60, pad[0].FrequencyHz)
	assert.Equal(t, "energy under 60Hz; consider HPF", pad[0].Reason)
	assert.Nil(t, pad[0].Q)
	assert.Nil(t, pad[0].GainDB)
}

func TestHighPassFloorIsStrict(t *testing.T) {
	e := newEngine()
	at := model.SpectralAnalysis{BandEnergies: []float64{1e-6, 1, 1, 1, 1}}
	assert.Empty(t, e.Suggest(profile("other"), at, model.MixBandProfile{1e-6, 1, 1, 1, 1}))
}

func TestMudCut(t *testing.T) {
	e := newEngine()

	muddy := model.SpectralAnalysis{BandEnergies: []float64{0, 1.5, 1, 0.5, 0.2}}
	got := e.Suggest(profile("other"), muddy, model.MixBandProfile{0, 1.5, 1, 0.5, 0.2})
	require.Equal(t, []model.SuggestionKind{model.Cut}, kinds(got))
	assert.Equal(t, 200, got[0].FrequencyHz)
	assert.Equal(t, 1.0, *got[0].Q)
	assert.Equal(t, -3.0, *got[0].GainDB)
	assert.Equal(t, "mud 60-250Hz", got[0].Reason)

	// exactly at the ratio does not fire
	edge := model.SpectralAnalysis{BandEnergies: []float64{0, 1.4, 1, 0.5, 0.2}}
	assert.Empty(t, e.Suggest(profile("other"), edge, model.MixBandProfile{0, 1.4, 1, 0.5, 0.2}))

	silent := model.SpectralAnalysis{BandEnergies: make([]float64, 5)}
	assert.Empty(t, e.Suggest(profile("other"), silent, make(model.MixBandProfile, 5)))
}

func TestVocalPresence(t *testing.T) {
	e := newEngine()
	energies := []float64{0, 0, 1, 1, 1}
	mix := model.MixBandProfile{0, 0, 1, 1, 1}

	dull := model.SpectralAnalysis{Centroid: 1200, BandEnergies: energies}
	got := e.Suggest(profile("vocals"), dull, mix)
	require.Equal(t, []model.SuggestionKind{model.Boost}, kinds(got))
	assert.Equal(t, 4000, got[0].FrequencyHz)
	assert.Equal(t, 1.2, *got[0].Q)
	assert.Equal(t, 2.0, *got[0].GainDB)
	assert.Equal(t, "voice centroid low; add presence at 4k", got[0].Reason)

	bright := model.SpectralAnalysis{Centroid: 1600, BandEnergies: energies}
	assert.Empty(t, e.Suggest(profile("vocals"), bright, mix))

	// a dull non-vocal stem is left alone
	assert.Empty(t, e.Suggest(profile("guitar"), dull, mix))
}

func TestUnmaskBoundary(t *testing.T) {
	e := newEngine()
	stem := 1e-3
	energies := []float64{0, 0, 0, stem, 0}

	atThreshold := model.MixBandProfile{0, 0, 0, stem * math.Pow(10, 0.6), 0}
	got := e.Suggest(profile("other"), model.SpectralAnalysis{BandEnergies: energies}, atThreshold)
	assert.Empty(t, got, "a 6.0 dB gap is not masking")

	above := model.MixBandProfile{0, 0, 0, stem * math.Pow(10, 0.6001), 0}
	got = e.Suggest(profile("other"), model.SpectralAnalysis{BandEnergies: energies}, above)
	require.Equal(t, []model.SuggestionKind{model.Unmask}, kinds(got))
	assert.Equal(t, 2500, got[0].FrequencyHz)
	assert.Equal(t, 1.2, *got[0].Q)
	assert.Equal(t, 2.0, *got[0].GainDB)
	assert.Equal(t, "mix louder than stem by 6.0 dB in 1000-4000Hz", got[0].Reason)
}

func TestUnmaskUsesEnergyFloor(t *testing.T) {
	e := newEngine()

	// silent stem in a silent band: both floor to -120 dB
	silent := e.Suggest(profile("other"), model.SpectralAnalysis{BandEnergies: make([]float64, 5)}, make(model.MixBandProfile, 5))
	assert.Empty(t, silent)

	// silent stem in a band the mix fills
	mix := model.MixBandProfile{0, 0, 0, 0, 1e-6}
	got := e.Suggest(profile("other"), model.SpectralAnalysis{BandEnergies: make([]float64, 5)}, mix)
	require.Len(t, got, 1)
	assert.Equal(t, 8000, got[0].FrequencyHz)
	assert.Equal(t, "mix louder than stem by 60.0 dB in 4000-12000Hz", got[0].Reason)
}

func TestRuleOrder(t *testing.T) {
	e := newEngine()
	analysis := model.SpectralAnalysis{
		Centroid:     300,
		BandEnergies: []float64{1e-2, 1, 1e-3, 1e-3, 1e-3},
	}
	mix := model.MixBandProfile{1e-2, 1, 1, 1, 1}

	got := e.Suggest(profile("vocals"), analysis, mix)
	assert.Equal(t, []model.SuggestionKind{
		model.HighPassFilter, model.Cut, model.Boost,
		model.Unmask, model.Unmask, model.Unmask,
	}, kinds(got))
	assert.Equal(t, []int{60, 200, 4000, 625, 2500, 8000}, []int{
		got[0].FrequencyHz, got[1].FrequencyHz, got[2].FrequencyHz,
		got[3].FrequencyHz, got[4].FrequencyHz, got[5].FrequencyHz,
	})
}
