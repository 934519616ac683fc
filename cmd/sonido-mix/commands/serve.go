package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-mix/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP upload service",
	Long: `Serve the analysis API:

  POST /analyze        multipart upload, field "mix"
  GET  /reports        stored report summaries, newest first
  GET  /reports/{id}   one stored report
  GET  /healthz        liveness`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := globalConfig
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		a, err := newApp(cfg, !noCache)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var history server.HistoryReader
		if a.history != nil {
			history = a.history
		}

		return server.New(cfg.Server, a.pipeline, history).ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :5000)")
}
