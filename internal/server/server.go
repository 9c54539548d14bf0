// Package server exposes the manual import trigger over HTTP for the
// back-office UI.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/relocato/leadimport/internal/importer"
)

// Server handles manual import and retry requests.
type Server struct {
	importer *importer.Importer
	log      *slog.Logger

	// runMu serializes import runs; the IMAP session and watermark
	// belong to a single run at a time.
	runMu sync.Mutex
}

// New returns a Server driving the given importer.
func New(imp *importer.Importer, log *slog.Logger) *Server {
	return &Server{importer: imp, log: log}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/import", s.handleImport)
	mux.HandleFunc("POST /api/retry", s.handleRetry)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// ListenAndServe runs the HTTP server until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.Info("http server listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

type importRequest struct {
	Folder      string `json:"folder"`
	Limit       int    `json:"limit"`
	LenientMode bool   `json:"lenientMode"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	if !s.runMu.TryLock() {
		s.writeError(w, http.StatusConflict, "an import run is already in progress")
		return
	}
	defer s.runMu.Unlock()

	stats, err := s.importer.Run(r.Context(), importer.Options{
		Folder:  req.Folder,
		Limit:   req.Limit,
		Lenient: req.LenientMode,
	})
	if err != nil {
		s.log.Error("manual import failed", "error", err)
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, stats)
}

type retryRequest struct {
	FailedImportIDs []string `json:"failedImportIds"`
	LenientMode     bool     `json:"lenientMode"`
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	var req retryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.FailedImportIDs) == 0 {
		s.writeError(w, http.StatusBadRequest, "failedImportIds is required")
		return
	}

	result, err := s.importer.Retry(r.Context(), req.FailedImportIDs, req.LenientMode)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.log.Error("retry failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encoding response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
