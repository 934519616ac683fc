// Package mixfit estimates how well a set of stems fit together spectrally
// and produces per-stem EQ suggestions.
//
// Stems are analysed in parallel, their band energies are summed into an
// estimated mix profile, and the rule engine then compares each stem
// against that profile.
package mixfit

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/RyanBlaney/sonido-mix/logging"
	"github.com/RyanBlaney/sonido-mix/mixfit/analyzers"
	"github.com/RyanBlaney/sonido-mix/mixfit/config"
	"github.com/RyanBlaney/sonido-mix/mixfit/model"
	"github.com/RyanBlaney/sonido-mix/mixfit/suggest"
)

// Engine runs the stem analysis pipeline.
type Engine struct {
	cfg      config.AnalysisConfig
	analyzer analyzers.Analyzer
	rules    *suggest.Engine
	logger   logging.Logger
}

// Option customises an Engine.
type Option func(*Engine)

// WithAnalyzer replaces the default StemAnalyzer, for example with a cached one.
func WithAnalyzer(a analyzers.Analyzer) Option {
	return func(e *Engine) {
		e.analyzer = a
	}
}

// NewEngine creates an engine for the analysis settings.
func NewEngine(cfg config.AnalysisConfig, opts ...Option) *Engine {
	e := &Engine{
		cfg:   cfg,
		rules: suggest.NewEngine(cfg.Bands, cfg.Thresholds),
		logger: logging.WithFields(logging.Fields{
			"component": "mixfit_engine",
		}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.analyzer == nil {
		e.analyzer = analyzers.NewStemAnalyzer(cfg)
	}
	return e
}

// FailFast reports whether the first failing stem aborts a run.
func (e *Engine) FailFast() bool { return e.cfg.FailFast }

type stemOutcome struct {
	profile  config.StemProfile
	analysis model.SpectralAnalysis
	err      error
}

// Analyze analyses every stem, aggregates the mix profile and assembles the
// report with stems in input order. The report's ID and CreatedAt are left
// for the caller to assign.
//
// With FailFast set the first failing stem (in input order) aborts the run;
// otherwise failed stems are listed in Report.Failures and excluded from
// the mix profile.
func (e *Engine) Analyze(ctx context.Context, source string, stems []model.NamedSignal) (*model.Report, error) {
	logger := e.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "Analyze",
		"source":   source,
		"stems":    len(stems),
	})

	if len(stems) == 0 {
		return nil, model.ErrEmptyInput
	}

	seen := make(map[string]struct{}, len(stems))
	for _, s := range stems {
		if _, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate stem name %q", model.ErrDecodeOrAnalysis, s.Name)
		}
		seen[s.Name] = struct{}{}
	}

	outcomes := make([]stemOutcome, len(stems))
	e.forEach(ctx, len(stems), func(i int) {
		s := stems[i]
		outcomes[i].profile = e.cfg.Roles.Classify(s.Name)
		outcomes[i].analysis, outcomes[i].err = e.analyzer.Analyze(s.Name, s.Signal)
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		ok       []stemOutcome
		failures []model.StemFailure
		errs     []error
	)
	for i, o := range outcomes {
		if o.err == nil {
			ok = append(ok, o)
			continue
		}

		if e.cfg.FailFast {
			logger.Error(o.err, "Stem failed, aborting run", logging.Fields{"stem": stems[i].Name})
			return nil, o.err
		}

		logger.Warn("Skipping failed stem", logging.Fields{
			"stem":  stems[i].Name,
			"error": o.err.Error(),
		})
		failures = append(failures, model.StemFailure{Name: stems[i].Name, Error: o.err.Error()})
		errs = append(errs, o.err)
	}

	if len(ok) == 0 {
		return nil, fmt.Errorf("%w: all %d stems failed: %w", model.ErrEmptyInput, len(stems), errors.Join(errs...))
	}

	analyses := make([]model.SpectralAnalysis, len(ok))
	for i, o := range ok {
		analyses[i] = o.analysis
	}

	profile, err := Aggregate(analyses, len(e.cfg.Bands))
	if err != nil {
		logger.Error(err, "Failed to aggregate mix profile")
		return nil, err
	}

	results := make([]model.StemResult, len(ok))
	e.forEach(ctx, len(ok), func(i int) {
		o := ok[i]
		results[i] = model.StemResult{
			Name:        o.profile.Name,
			Role:        o.profile.Role,
			Analysis:    o.analysis,
			Suggestions: e.rules.Suggest(o.profile, o.analysis, profile),
		}
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &model.Report{
		SourceFileName: source,
		MixProfile:     profile,
		Stems:          results,
		Failures:       failures,
	}

	logger.Info("Mix analysis completed", logging.Fields{
		"analysed":    len(results),
		"failed":      len(failures),
		"suggestions": report.SuggestionCount(),
	})

	return report, nil
}

// forEach runs fn for every index in [0, n) on at most EffectiveWorkers
// goroutines and returns once all have finished. Each fn writes only its
// own slot, so no locking is needed. Indices not yet started when ctx is
// cancelled are skipped.
func (e *Engine) forEach(ctx context.Context, n int, fn func(i int)) {
	sem := make(chan struct{}, e.cfg.EffectiveWorkers())

	var wg sync.WaitGroup
	for i := range n {
		if ctx.Err() != nil {
			break
		}

		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			fn(i)
		}()
	}
	wg.Wait()
}
