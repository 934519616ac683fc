package mixfit

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/sonido-mix/mixfit/model"
)

// Aggregate estimates the mix band profile as the element-wise sum of the
// stems' band energies.
//
// Summing energies ignores phase between stems, so correlated content such
// as a bass and kick playing the same note is under- or over-counted. This
// is an accepted simplification: separated stems are treated as
// uncorrelated.
func Aggregate(analyses []model.SpectralAnalysis, bandCount int) (model.MixBandProfile, error) {
	if bandCount < 0 {
		return nil, fmt.Errorf("%w: negative band count %d", model.ErrContractViolation, bandCount)
	}

	profile := make(model.MixBandProfile, bandCount)
	for _, a := range analyses {
		if err := a.CheckBands(bandCount); err != nil {
			return nil, err
		}
		floats.Add(profile, a.BandEnergies)
	}

	return profile, nil
}
