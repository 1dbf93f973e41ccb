// Package server exposes a completed simulation report to the
// reporting/visualization collaborator as a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/levenlabs/go-lflag"
	"github.com/rs/cors"

	"github.com/zonnecheck/zonnecheck/pkg/controller"
	"github.com/zonnecheck/zonnecheck/pkg/log"
	"github.com/zonnecheck/zonnecheck/pkg/types"
)

// Server serves one report. The report is immutable once set, so handlers
// need no locking.
type Server struct {
	report *controller.Report

	listenAddr string
	httpServer *http.Server
}

// Configured initializes the Server and registers its flags. The report is
// attached with SetReport once the run has completed.
func Configured() *Server {
	srv := &Server{}

	listenAddr := lflag.String("http-listen", ":8080", "HTTP server listen address")
	lflag.Do(func() {
		srv.listenAddr = *listenAddr
	})
	return srv
}

// SetReport attaches the completed report. It must be called before Run.
func (s *Server) SetReport(report *controller.Report) {
	s.report = report
}

// New creates a server without flag wiring, for tests and embedding.
func New(report *controller.Report, listenAddr string) *Server {
	return &Server{report: report, listenAddr: listenAddr}
}

func (s *Server) setupHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/warnings", s.handleWarnings)
	mux.HandleFunc("GET /api/results/{variant}", s.handleResults)
	mux.HandleFunc("GET /api/aggregates/{variant}", s.handleAggregates)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	// The visualization frontend may be served from another origin.
	return gziphandler.GzipHandler(cors.Default().Handler(mux))
}

// Run starts the HTTP server and blocks until the context is canceled or an
// error occurs. It shuts down gracefully when the context is done.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.setupHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

func (s *Server) variant(r *http.Request) (*controller.VariantResult, error) {
	switch r.PathValue("variant") {
	case "boiler":
		return s.report.Boiler, nil
	case "battery":
		return s.report.Battery, nil
	}
	return nil, fmt.Errorf("unknown variant %q", r.PathValue("variant"))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, struct {
		GeneratedAt time.Time             `json:"generatedAt"`
		Records     int                   `json:"records"`
		Boiler      types.EconomicSummary `json:"boiler"`
		Battery     types.EconomicSummary `json:"battery"`
	}{
		GeneratedAt: s.report.GeneratedAt,
		Records:     s.report.Records,
		Boiler:      s.report.Boiler.Summary,
		Battery:     s.report.Battery.Summary,
	})
}

func (s *Server) handleWarnings(w http.ResponseWriter, r *http.Request) {
	warnings := make([]types.Warning, 0, len(s.report.Warnings))
	warnings = append(warnings, s.report.Warnings...)
	for _, v := range []*controller.VariantResult{s.report.Boiler, s.report.Battery} {
		warnings = append(warnings, v.Run.Warnings...)
	}
	writeJSON(w, r, warnings)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	v, err := s.variant(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, r, v.Run)
}

func (s *Server) handleAggregates(w http.ResponseWriter, r *http.Request) {
	v, err := s.variant(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusNotFound)
		return
	}
	g := types.Granularity(r.URL.Query().Get("granularity"))
	if g == "" {
		g = types.GranularityDay
	}
	periods, ok := v.Aggregates[g]
	if !ok {
		writeJSONError(w, fmt.Sprintf("unknown granularity %q", g), http.StatusBadRequest)
		return
	}
	writeJSON(w, r, periods)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Ctx(r.Context()).WarnContext(r.Context(), "failed to write response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg}); err != nil {
		slog.Warn("failed to write error response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}
