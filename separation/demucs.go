package separation

import (
	"context"
	"path/filepath"
	"time"

	"github.com/RyanBlaney/sonido-mix/logging"
)

// Demucs runs demucs, which writes <out>/<model>/<track>/<stem>.wav.
type Demucs struct {
	Bin     string        // defaults to "demucs"
	Model   string        // defaults to "htdemucs"
	Timeout time.Duration // 0 means no limit
}

// Separate runs demucs on mixPath and returns the stem files it wrote.
func (d *Demucs) Separate(ctx context.Context, mixPath, outDir string) (map[string]string, error) {
	bin := d.Bin
	if bin == "" {
		bin = "demucs"
	}
	model := d.Model
	if model == "" {
		model = "htdemucs"
	}

	logger := logging.WithContext(ctx).WithFields(logging.Fields{
		"component": "demucs",
		"function":  "Separate",
		"mix":       mixPath,
		"model":     model,
	})

	if err := run(ctx, d.Timeout, logger, bin, "-n", model, "-o", outDir, mixPath); err != nil {
		logger.Error(err, "Demucs separation failed")
		return nil, err
	}

	return collect(logger, filepath.Join(outDir, model, baseNoExt(mixPath)))
}
