package model

import "fmt"

// SpectralAnalysis is the per-stem summary produced once per run.
type SpectralAnalysis struct {
	Name         string    `json:"name" msgpack:"name"`
	Path         string    `json:"path,omitempty" msgpack:"path"`
	Centroid     float64   `json:"centroid" msgpack:"centroid"` // Hz
	Rolloff      float64   `json:"rolloff" msgpack:"rolloff"`   // Hz
	RMS          float64   `json:"rms" msgpack:"rms"`
	BandEnergies []float64 `json:"band_energies" msgpack:"band_energies"` // mean squared amplitude per band
}

// CheckBands returns ErrContractViolation when the band vector is not bandCount long.
func (a SpectralAnalysis) CheckBands(bandCount int) error {
	if len(a.BandEnergies) != bandCount {
		return fmt.Errorf("%w: stem %q has %d band energies, want %d",
			ErrContractViolation, a.Name, len(a.BandEnergies), bandCount)
	}
	return nil
}

// MixBandProfile estimates the mix's energy per band as the sum over stems.
type MixBandProfile []float64
