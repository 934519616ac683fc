package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math"

	"github.com/RyanBlaney/sonido-mix/logging"
	"github.com/RyanBlaney/sonido-mix/mixfit/analyzers"
	"github.com/RyanBlaney/sonido-mix/mixfit/config"
	"github.com/RyanBlaney/sonido-mix/mixfit/model"
	"github.com/RyanBlaney/sonido-mix/store"
)

// AnalysisCache is the subset of store.Cache the pipeline needs.
type AnalysisCache interface {
	Get(ctx context.Context, key string) (model.SpectralAnalysis, error)
	Put(ctx context.Context, key string, analysis model.SpectralAnalysis) error
}

// CachedAnalyzer serves stem analyses from a cache keyed by the signal
// content and the analysis settings, falling back to the wrapped analyzer.
// Cache failures are logged and never fail the analysis.
type CachedAnalyzer struct {
	inner    analyzers.Analyzer
	cache    AnalysisCache
	settings []byte
	logger   logging.Logger
}

// NewCachedAnalyzer wraps inner with cache.
func NewCachedAnalyzer(inner analyzers.Analyzer, cache AnalysisCache, cfg config.AnalysisConfig) *CachedAnalyzer {
	return &CachedAnalyzer{
		inner:    inner,
		cache:    cache,
		settings: settingsFingerprint(cfg),
		logger: logging.WithFields(logging.Fields{
			"component": "cached_analyzer",
		}),
	}
}

// Analyze returns the cached analysis for sig when present, else runs the
// wrapped analyzer and stores a successful result.
func (c *CachedAnalyzer) Analyze(name string, sig model.AudioSignal) (model.SpectralAnalysis, error) {
	ctx := context.Background()
	key := c.Key(sig)

	cached, err := c.cache.Get(ctx, key)
	if err == nil {
		c.logger.Debug("Analysis cache hit", logging.Fields{"stem": name, "key": key})
		cached.Name = name
		return cached, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		c.logger.Warn("Analysis cache read failed", logging.Fields{"stem": name, "error": err.Error()})
	}

	analysis, err := c.inner.Analyze(name, sig)
	if err != nil {
		return analysis, err
	}

	if err := c.cache.Put(ctx, key, analysis); err != nil {
		c.logger.Warn("Analysis cache write failed", logging.Fields{"stem": name, "error": err.Error()})
	}

	return analysis, nil
}

// Key hashes the signal samples and format together with the settings
// that affect the analysis result.
func (c *CachedAnalyzer) Key(sig model.AudioSignal) string {
	h := sha256.New()
	h.Write(c.settings)

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(sig.SampleRate))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(sig.ChannelCount()))
	h.Write(buf[:])

	for _, v := range sig.Samples {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}

	return hex.EncodeToString(h.Sum(nil))
}

// settingsFingerprint serialises the analysis settings that change results.
func settingsFingerprint(cfg config.AnalysisConfig) []byte {
	out := make([]byte, 0, 32+16*len(cfg.Bands))
	out = binary.LittleEndian.AppendUint64(out, uint64(cfg.SampleRate))
	out = binary.LittleEndian.AppendUint64(out, uint64(cfg.WindowSize))
	out = binary.LittleEndian.AppendUint64(out, uint64(cfg.HopSize))
	out = binary.LittleEndian.AppendUint64(out, math.Float64bits(cfg.RolloffPercent))
	for _, b := range cfg.Bands {
		out = binary.LittleEndian.AppendUint64(out, math.Float64bits(b.Low))
		out = binary.LittleEndian.AppendUint64(out, math.Float64bits(b.High))
	}
	return out
}
