// Package pipeline wires decoding, separation, analysis and persistence
// into the end-to-end operations used by the CLI and the HTTP server.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/RyanBlaney/sonido-mix/logging"
	"github.com/RyanBlaney/sonido-mix/mixfit"
	"github.com/RyanBlaney/sonido-mix/mixfit/model"
	"github.com/RyanBlaney/sonido-mix/separation"
	"github.com/RyanBlaney/sonido-mix/transcode"
)

// StemFile names a stem audio file.
type StemFile struct {
	Name string
	Path string
}

// Decoder turns a stem file into PCM.
type Decoder interface {
	DecodeFile(ctx context.Context, path string) (*transcode.AudioData, error)
}

// ReportSaver persists finished reports.
type ReportSaver interface {
	Save(ctx context.Context, report *model.Report) error
}

// Pipeline runs complete analyses.
type Pipeline struct {
	Decoder   Decoder
	Separator separation.Separator // required by AnalyzeMix only
	Engine    *mixfit.Engine
	History   ReportSaver // optional
	TempDir   string      // parent for separation output; os.TempDir when empty

	logger logging.Logger
}

// New creates a pipeline. history may be nil.
func New(decoder Decoder, separator separation.Separator, engine *mixfit.Engine, history ReportSaver) *Pipeline {
	return &Pipeline{
		Decoder:   decoder,
		Separator: separator,
		Engine:    engine,
		History:   history,
		logger: logging.WithFields(logging.Fields{
			"component": "pipeline",
		}),
	}
}

// AnalyzeMix separates the mix into stems in a temporary directory, which
// is removed afterwards, and analyses the stems found.
func (p *Pipeline) AnalyzeMix(ctx context.Context, mixPath string) (*model.Report, error) {
	logger := p.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "AnalyzeMix",
		"mix":      mixPath,
	})

	if p.Separator == nil {
		return nil, fmt.Errorf("no separator configured")
	}

	tmp, err := os.MkdirTemp(p.TempDir, "sep_")
	if err != nil {
		return nil, fmt.Errorf("create separation dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmp); err != nil {
			logger.Warn("Failed to remove separation dir", logging.Fields{"dir": tmp, "error": err.Error()})
		}
	}()

	logger.Info("Separating mix into stems")

	found, err := p.Separator.Separate(ctx, mixPath, tmp)
	if err != nil {
		logger.Error(err, "Separation failed")
		return nil, fmt.Errorf("separate %s: %w", filepath.Base(mixPath), err)
	}

	stems := make([]StemFile, 0, len(found))
	for _, name := range separation.Taxonomy {
		if path, ok := found[name]; ok {
			stems = append(stems, StemFile{Name: name, Path: path})
		}
	}
	if len(stems) == 0 {
		return nil, separation.ErrNoStems
	}

	return p.AnalyzeStems(ctx, filepath.Base(mixPath), stems)
}

// AnalyzeStems decodes the given stem files in order and analyses them.
// The report gets a fresh ID and timestamp and is saved to the history when
// one is configured.
func (p *Pipeline) AnalyzeStems(ctx context.Context, source string, stems []StemFile) (*model.Report, error) {
	logger := p.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "AnalyzeStems",
		"source":   source,
	})

	if len(stems) == 0 {
		return nil, model.ErrEmptyInput
	}

	signals := make([]model.NamedSignal, 0, len(stems))
	paths := make(map[string]string, len(stems))
	var failures []model.StemFailure
	var decodeErrs []error

	for _, s := range stems {
		data, err := p.Decoder.DecodeFile(ctx, s.Path)
		if err != nil {
			stemErr := model.NewStemError(s.Name, err)
			if p.Engine.FailFast() {
				logger.Error(err, "Failed to decode stem", logging.Fields{"stem": s.Name})
				return nil, stemErr
			}
			logger.Warn("Skipping undecodable stem", logging.Fields{"stem": s.Name, "error": err.Error()})
			failures = append(failures, model.StemFailure{Name: s.Name, Error: stemErr.Error()})
			decodeErrs = append(decodeErrs, stemErr)
			continue
		}

		signals = append(signals, model.NamedSignal{Name: s.Name, Signal: data.Signal()})
		paths[s.Name] = s.Path
	}

	if len(signals) == 0 {
		return nil, fmt.Errorf("%w: no stem could be decoded", model.ErrEmptyInput)
	}

	report, err := p.Engine.Analyze(ctx, source, signals)
	if err != nil {
		if len(decodeErrs) > 0 {
			return nil, errors.Join(err, errors.Join(decodeErrs...))
		}
		return nil, err
	}

	report.ID = uuid.NewString()
	report.CreatedAt = time.Now().UTC()
	report.Failures = append(failures, report.Failures...)
	for i := range report.Stems {
		report.Stems[i].Analysis.Path = paths[report.Stems[i].Name]
	}

	if p.History != nil {
		if err := p.History.Save(ctx, report); err != nil {
			logger.Error(err, "Failed to save report", logging.Fields{"report_id": report.ID})
			return nil, fmt.Errorf("save report: %w", err)
		}
	}

	logger.Info("Analysis finished", logging.Fields{
		"report_id": report.ID,
		"stems":     len(report.Stems),
	})

	return report, nil
}
