// Package server exposes mix analysis over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/RyanBlaney/sonido-mix/logging"
	"github.com/RyanBlaney/sonido-mix/mixfit/config"
	"github.com/RyanBlaney/sonido-mix/mixfit/model"
	"github.com/RyanBlaney/sonido-mix/store"
)

// MixAnalyzer runs separation and analysis for an uploaded mix.
type MixAnalyzer interface {
	AnalyzeMix(ctx context.Context, mixPath string) (*model.Report, error)
}

// HistoryReader serves stored reports.
type HistoryReader interface {
	Get(ctx context.Context, id string) (*model.Report, error)
	List(ctx context.Context, limit int) ([]store.ReportSummary, error)
}

// Server handles the HTTP API.
type Server struct {
	cfg      config.ServerConfig
	analyzer MixAnalyzer
	history  HistoryReader
	logger   logging.Logger
}

// New creates a server. history may be nil, in which case the report
// endpoints answer 404.
func New(cfg config.ServerConfig, analyzer MixAnalyzer, history HistoryReader) *Server {
	return &Server{
		cfg:      cfg,
		analyzer: analyzer,
		history:  history,
		logger: logging.WithFields(logging.Fields{
			"component": "http_server",
		}),
	}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("GET /reports", s.handleListReports)
	mux.HandleFunc("GET /reports/{id}", s.handleGetReport)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", logging.Fields{"addr": s.cfg.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.WithContext(r.Context()).WithFields(logging.Fields{
		"function": "handleAnalyze",
	})

	if s.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	}

	file, header, err := r.FormFile("mix")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "no mix file uploaded")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		filename = "mix_" + uuid.NewString() + ".wav"
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		logger.Error(err, "Failed to create upload dir")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	savePath := filepath.Join(s.cfg.UploadDir, filename)
	if err := saveUpload(savePath, file); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		logger.Error(err, "Failed to save upload", logging.Fields{"path": savePath})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("Mix uploaded", logging.Fields{"path": savePath, "bytes": header.Size})

	report, err := s.analyzer.AnalyzeMix(r.Context(), savePath)
	if err != nil {
		logger.Error(err, "Mix analysis failed", logging.Fields{"path": savePath})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "report history is disabled")
		return
	}

	summaries, err := s.history.List(r.Context(), 0)
	if err != nil {
		s.logger.Error(err, "Failed to list reports")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "report history is disabled")
		return
	}

	id := r.PathValue("id")
	report, err := s.history.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		s.logger.Error(err, "Failed to load report", logging.Fields{"report_id": id})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func saveUpload(path string, src io.Reader) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	return out.Close()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
