package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-mix/logging"
	"github.com/RyanBlaney/sonido-mix/mixfit/config"
)

var (
	// Global flags
	cfgFile    string
	outputJSON bool
	verbose    bool
	noCache    bool

	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sonido-mix",
	Short: "Stem-based mix analysis and EQ suggestions",
	Long: `sonido-mix separates a mix into stems (or takes the stems you have),
measures each stem's spectrum, estimates how the stems sum in the mix and
suggests EQ moves: high-pass filters, mud cuts, presence and unmasking boosts.

Examples:
  # Separate and analyse a mix with spleeter
  sonido-mix analyze song.wav

  # Analyse existing stems, in this order
  sonido-mix stems vocals=vox.wav bass=bass.wav drums=drums.flac

  # Machine-readable output
  sonido-mix stems --json vocals=vox.wav bass=bass.wav | jq '.stems'
`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (default: built-in defaults)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output as JSON (for piping)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "bypass the analysis cache")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(stemsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
}

func initConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	globalConfig = cfg

	return setupLogging(cfg.Log, verbose)
}

// setupLogging installs the global logger. Logs go to stderr so stdout
// carries only the report.
func setupLogging(cfg config.LogConfig, debug bool) error {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if debug {
		level = logging.DebugLevel
	}

	logger := logging.NewWriterLogger(os.Stderr, os.Stderr, cfg.Colors)
	logger.SetLevel(level)
	logging.SetGlobalLogger(logger)
	return nil
}
