// Package separation splits a mixed track into stems with an external
// source separation tool.
package separation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-mix/logging"
	"github.com/RyanBlaney/sonido-mix/mixfit/config"
)

// Taxonomy is the fixed four-stem layout, in the order stems are reported.
var Taxonomy = []string{"vocals", "drums", "bass", "other"}

// ErrNoStems is returned when the tool ran but produced none of the expected stems.
var ErrNoStems = errors.New("separation produced no stems")

// Separator splits mixPath into stems under outDir and returns stem name to
// file path for every stem that was produced.
type Separator interface {
	Separate(ctx context.Context, mixPath, outDir string) (map[string]string, error)
}

// New returns the separator selected by cfg.Engine.
func New(cfg config.SeparationConfig) (Separator, error) {
	switch strings.ToLower(cfg.Engine) {
	case "", "spleeter":
		return &Spleeter{Bin: cfg.Bin, Model: cfg.Model, Timeout: cfg.Timeout}, nil
	case "demucs":
		return &Demucs{Bin: cfg.Bin, Model: cfg.Model, Timeout: cfg.Timeout}, nil
	default:
		return nil, fmt.Errorf("unknown separation engine %q", cfg.Engine)
	}
}

// run executes a separation tool under the timeout, capturing its output
// for the error message.
func run(ctx context.Context, timeout time.Duration, logger logging.Logger, bin string, args ...string) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	path, err := exec.LookPath(bin)
	if err != nil {
		return fmt.Errorf("%s not found in PATH: %w", bin, err)
	}

	logger.Debug("Running separation command", logging.Fields{
		"command": path + " " + strings.Join(args, " "),
	})

	cmd := exec.CommandContext(ctx, path, args...)
	// don't hang on pipes held open by children of a killed tool
	cmd.WaitDelay = 5 * time.Second

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", bin, ctxErr)
		}
		return fmt.Errorf("%s failed: %w, output: %s", bin, err, strings.TrimSpace(string(output)))
	}

	return nil
}

// collect returns the taxonomy stems present as <dir>/<stem>.wav. Missing
// stems are skipped.
func collect(logger logging.Logger, dir string) (map[string]string, error) {
	stems := make(map[string]string, len(Taxonomy))
	for _, name := range Taxonomy {
		p := filepath.Join(dir, name+".wav")
		if _, err := os.Stat(p); err != nil {
			logger.Warn("Missing stem", logging.Fields{"stem": name, "dir": dir})
			continue
		}
		stems[name] = p
	}

	if len(stems) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoStems, dir)
	}
	return stems, nil
}

func baseNoExt(p string) string {
	return strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
}
