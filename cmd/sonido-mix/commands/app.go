package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-mix/logging"
	"github.com/RyanBlaney/sonido-mix/mixfit"
	"github.com/RyanBlaney/sonido-mix/mixfit/analyzers"
	"github.com/RyanBlaney/sonido-mix/mixfit/config"
	"github.com/RyanBlaney/sonido-mix/mixfit/model"
	"github.com/RyanBlaney/sonido-mix/pipeline"
	"github.com/RyanBlaney/sonido-mix/render"
	"github.com/RyanBlaney/sonido-mix/separation"
	"github.com/RyanBlaney/sonido-mix/store"
	"github.com/RyanBlaney/sonido-mix/transcode"
)

// app holds the wired collaborators for one command run.
type app struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	history  *store.History
	cache    *store.Cache
}

// newApp opens the configured stores and builds the pipeline. The caller
// must Close it.
func newApp(cfg *config.Config, useCache bool) (*app, error) {
	a := &app{cfg: cfg}

	var opts []mixfit.Option
	if useCache && cfg.Store.CacheDir != "" {
		cache, err := store.OpenCache(store.CacheOptions{Dir: cfg.Store.CacheDir})
		if err != nil {
			return nil, err
		}
		a.cache = cache
		opts = append(opts, mixfit.WithAnalyzer(
			pipeline.NewCachedAnalyzer(analyzers.NewStemAnalyzer(cfg.Analysis), cache, cfg.Analysis)))
	}

	var saver pipeline.ReportSaver
	if cfg.Store.HistoryPath != "" {
		history, err := store.OpenHistory(cfg.Store.HistoryPath)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.history = history
		saver = history
	}

	separator, err := separation.New(cfg.Separation)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.pipeline = pipeline.New(
		transcode.NewDecoder(cfg.Decoder, cfg.Analysis.SampleRate),
		separator,
		mixfit.NewEngine(cfg.Analysis, opts...),
		saver,
	)

	return a, nil
}

// Close releases the stores.
func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logging.Warn("Failed to close analysis cache", logging.Fields{"error": err.Error()})
		}
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			logging.Warn("Failed to close report history", logging.Fields{"error": err.Error()})
		}
	}
}

// openHistory opens the report history for the history commands.
func openHistory(cfg *config.Config) (*store.History, error) {
	if cfg.Store.HistoryPath == "" {
		return nil, errors.New("report history is disabled; set store.history_path in the config file")
	}
	return store.OpenHistory(cfg.Store.HistoryPath)
}

func renderOptions(cfg *config.Config) render.Options {
	return render.Options{
		Bands:   cfg.Analysis.Bands,
		NoColor: !cfg.Log.Colors,
	}
}

// outputReport prints report as JSON or text depending on --json.
func outputReport(cmd *cobra.Command, cfg *config.Config, report *model.Report) error {
	w := cmd.OutOrStdout()
	if outputJSON {
		return render.JSON(w, report)
	}
	if err := render.Text(w, report, renderOptions(cfg)); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}
