package analyzers

import (
	"fmt"
	"math"

	resampling "github.com/tphakala/go-audio-resampling"
)

// maxTailBlocks bounds how much zero padding is fed to drain the filter.
const maxTailBlocks = 16

// resampleMono converts mono samples from inRate to outRate with the high
// quality soxr preset. Equal rates return the input unchanged. The output is
// exactly round(len(samples)*outRate/inRate) samples long.
func resampleMono(samples []float64, inRate, outRate int) ([]float64, error) {
	if inRate == outRate {
		return samples, nil
	}

	want := resampledLength(len(samples), inRate, outRate)

	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(inRate),
		OutputRate: float64(outRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	out, err := rs.Process(samples)
	if err != nil {
		return nil, fmt.Errorf("resample %d -> %d Hz: %w", inRate, outRate, err)
	}

	// The filter holds back its group delay until more input arrives, so a
	// short stem needs trailing silence before Flush to come out whole.
	zeros := make([]float64, max(inRate/20, 64))
	for i := 0; len(out) < want && i < maxTailBlocks; i++ {
		more, err := rs.Process(zeros)
		if err != nil {
			return nil, fmt.Errorf("resample %d -> %d Hz: %w", inRate, outRate, err)
		}
		out = append(out, more...)
	}

	tail, err := rs.Flush()
	if err != nil {
		return nil, fmt.Errorf("flush resampler: %w", err)
	}
	out = append(out, tail...)

	if len(out) >= want {
		return out[:want], nil
	}
	return append(out, make([]float64, want-len(out))...), nil
}

func resampledLength(n, inRate, outRate int) int {
	return int(math.Round(float64(n) * float64(outRate) / float64(inRate)))
}
