package separation

import (
	"context"
	"path/filepath"
	"time"

	"github.com/RyanBlaney/sonido-mix/logging"
)

// Spleeter runs `spleeter separate` with a four-stem model.
type Spleeter struct {
	Bin     string        // defaults to "spleeter"
	Model   string        // defaults to "spleeter:4stems"
	Timeout time.Duration // 0 means no limit
}

// Separate writes stems to <outDir>/<mix base name>/<stem>.wav.
func (s *Spleeter) Separate(ctx context.Context, mixPath, outDir string) (map[string]string, error) {
	bin := s.Bin
	if bin == "" {
		bin = "spleeter"
	}
	model := s.Model
	if model == "" {
		model = "spleeter:4stems"
	}

	logger := logging.WithContext(ctx).WithFields(logging.Fields{
		"component": "spleeter",
		"function":  "Separate",
		"mix":       mixPath,
	})

	if err := run(ctx, s.Timeout, logger, bin, "separate", "-p", model, "-o", outDir, mixPath); err != nil {
		logger.Error(err, "Spleeter separation failed")
		return nil, err
	}

	return collect(logger, filepath.Join(outDir, baseNoExt(mixPath)))
}
