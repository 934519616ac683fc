package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-mix/pipeline"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <mix>",
	Short: "Separate a mix into stems and analyse them",
	Long: `Separate a mix with the configured engine (spleeter or demucs), then
analyse the vocals, drums, bass and other stems it produced.

The separation output lives in a temporary directory that is removed when
the command finishes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(globalConfig, !noCache)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.pipeline.AnalyzeMix(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return outputReport(cmd, globalConfig, report)
	},
}

var stemsSource string

var stemsCmd = &cobra.Command{
	Use:   "stems name=path [name=path ...]",
	Short: "Analyse stems you already have",
	Long: `Analyse the given stem files in the order given. Each argument is
name=path; a bare path uses the file name without extension as the stem
name. Stem names drive role detection, so "lead_vocals" is treated as a
vocal and "kick" as a low-end drum.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stems, err := parseStemArgs(args)
		if err != nil {
			return err
		}

		a, err := newApp(globalConfig, !noCache)
		if err != nil {
			return err
		}
		defer a.Close()

		source := stemsSource
		if source == "" {
			source = filepath.Base(filepath.Dir(stems[0].Path))
		}

		report, err := a.pipeline.AnalyzeStems(cmd.Context(), source, stems)
		if err != nil {
			return err
		}
		return outputReport(cmd, globalConfig, report)
	},
}

func init() {
	stemsCmd.Flags().StringVar(&stemsSource, "source", "", "name recorded as the report's mix file (default: the stems' directory)")
}

// parseStemArgs turns name=path arguments into stem files, keeping order.
func parseStemArgs(args []string) ([]pipeline.StemFile, error) {
	stems := make([]pipeline.StemFile, 0, len(args))
	seen := make(map[string]bool, len(args))

	for _, arg := range args {
		name, path, ok := strings.Cut(arg, "=")
		if !ok {
			path = arg
			name = strings.TrimSuffix(filepath.Base(arg), filepath.Ext(arg))
		}
		name = strings.TrimSpace(name)
		if name == "" || path == "" {
			return nil, fmt.Errorf("invalid stem argument %q, want name=path", arg)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate stem name %q", name)
		}
		seen[name] = true

		stems = append(stems, pipeline.StemFile{Name: name, Path: path})
	}

	return stems, nil
}
