// Package suggest turns a stem's spectral analysis into EQ suggestions.
//
// Every rule looks only at the stem itself and the estimated mix profile,
// never at another stem, so suggestions for different stems can be computed
// in parallel.
package suggest

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/sonido-mix/algorithms/common"
	"github.com/RyanBlaney/sonido-mix/mixfit/config"
	"github.com/RyanBlaney/sonido-mix/mixfit/model"
)

// Fixed suggestion targets.
const (
	HighPassHz = 60
	MudCutHz   = 200
	MudCutQ    = 1.0
	MudCutDB   = -3.0
	PresenceHz = 4000
	PresenceQ  = 1.2
	PresenceDB = 2.0
	UnmaskQ    = 1.2
	UnmaskDB   = 2.0
)

// gapTolerance absorbs float noise when a gap lands on the unmask threshold.
const gapTolerance = 1e-9

// Engine applies the suggestion rules in a fixed order.
type Engine struct {
	bands      []config.Band
	thresholds config.Thresholds
}

// NewEngine creates a rule engine for the band layout and thresholds.
func NewEngine(bands []config.Band, thresholds config.Thresholds) *Engine {
	return &Engine{bands: bands, thresholds: thresholds}
}

// Suggest returns the suggestions for one stem: high-pass, mud cut, vocal
// presence, then one unmask per band in band order. The analysis and mix
// must carry one energy per configured band.
func (e *Engine) Suggest(stem config.StemProfile, analysis model.SpectralAnalysis, mix model.MixBandProfile) []model.Suggestion {
	energies := analysis.BandEnergies
	suggestions := make([]model.Suggestion, 0, 4)

	if len(energies) > 0 && energies[0] > e.thresholds.HighPassFloor && !stem.LowEnd {
		suggestions = append(suggestions, model.Suggestion{
			Kind:        model.HighPassFilter,
			FrequencyHz: HighPassHz,
			Reason:      "energy under 60Hz; consider HPF",
		})
	}

	if len(energies) > 2 && energies[1] > floats.Max(energies[2:])*e.thresholds.MudRatio {
		suggestions = append(suggestions, model.Suggestion{
			Kind:        model.Cut,
			FrequencyHz: MudCutHz,
			Reason:      "mud 60-250Hz",
			Q:           model.Float(MudCutQ),
			GainDB:      model.Float(MudCutDB),
		})
	}

	if stem.Role == config.RoleVocal && analysis.Centroid < e.thresholds.VocalCentroidHz {
		suggestions = append(suggestions, model.Suggestion{
			Kind:        model.Boost,
			FrequencyHz: PresenceHz,
			Reason:      "voice centroid low; add presence at 4k",
			Q:           model.Float(PresenceQ),
			GainDB:      model.Float(PresenceDB),
		})
	}

	for i, energy := range energies {
		if i >= len(mix) || i >= len(e.bands) {
			break
		}

		gap := common.PowerToDB(mix[i]) - common.PowerToDB(energy)
		if gap-e.thresholds.UnmaskGapDB <= gapTolerance {
			continue
		}

		band := e.bands[i]
		suggestions = append(suggestions, model.Suggestion{
			Kind:        model.Unmask,
			FrequencyHz: band.Midpoint(),
			Reason:      fmt.Sprintf("mix louder than stem by %.1f dB in %d-%dHz", gap, int(band.Low), int(band.High)),
			Q:           model.Float(UnmaskQ),
			GainDB:      model.Float(UnmaskDB),
		})
	}

	return suggestions
}
