// Package api exposes analysis runs over a JSON HTTP API.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	feed "perfpulse/adapters/api"
	"perfpulse/adapters/report"
	"perfpulse/app"
	"perfpulse/domain/core"
	"perfpulse/domain/insight"
	"perfpulse/internal"
	"perfpulse/internal/errors"
	"perfpulse/internal/metrics"
	"perfpulse/ports"
)

// maxRequestBytes bounds an inline batch posted for analysis
const maxRequestBytes = 32 << 20

// Config holds API server settings
type Config struct {
	MaxConcurrentAnalyses int64
	ListLimit             int
}

// Server routes API requests to the analysis service
type Server struct {
	router    *chi.Mux
	service   *app.AnalysisService
	store     ports.ReportStore
	collector *metrics.Collector
	logger    *internal.Logger
	admission *semaphore.Weighted
	config    Config
	now       func() time.Time
}

// NewServer creates an API server. collector may be nil.
func NewServer(config Config, service *app.AnalysisService, store ports.ReportStore, collector *metrics.Collector, logger *internal.Logger) *Server {
	if config.MaxConcurrentAnalyses <= 0 {
		config.MaxConcurrentAnalyses = 4
	}
	if config.ListLimit <= 0 {
		config.ListLimit = 20
	}
	if logger == nil {
		logger = internal.NewNopLogger()
	}

	s := &Server{
		router:    chi.NewRouter(),
		service:   service,
		store:     store,
		collector: collector,
		logger:    logger,
		admission: semaphore.NewWeighted(config.MaxConcurrentAnalyses),
		config:    config,
		now:       time.Now,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// WithClock replaces the clock used when a request names no analysis time
func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.observe)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	if s.collector != nil {
		s.router.Handle("/metrics", s.collector.Handler())
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyses", s.handleCreateAnalysis)
		r.Get("/analyses", s.handleListAnalyses)
		r.Get("/analyses/{id}", s.handleGetAnalysis)
		r.Get("/patterns", s.handleListPatterns)
	})
}

// observe logs each request and records it in the metrics collector under
// its route pattern
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(started)

		if s.collector != nil {
			s.collector.ObserveRequest(route, strconv.Itoa(status), elapsed)
		}
		s.logger.Zap().Debug("request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCreateAnalysis runs one analysis. An empty body analyzes the
// configured sources up to now; a body may carry "now" (RFC 3339) and an
// inline feed document (events, tasks, energy, energy_series).
func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	if !s.admission.TryAcquire(1) {
		s.writeError(w, errors.Busy("too many analyses in progress"))
		return
	}
	defer s.admission.Release(1)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		s.writeError(w, errors.InvalidInput("failed to read request body"))
		return
	}

	now, inline, batchBody, err := s.parseAnalysisRequest(body)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var result *insight.Report
	if inline {
		batch, stats, perr := feed.ParseFeed(batchBody)
		if perr != nil {
			s.writeError(w, perr)
			return
		}
		if stats.SkippedNonObjects > 0 || stats.SkippedEnergyItems > 0 {
			s.logger.Warn("inline batch: skipped %d non-object items and %d energy items", stats.SkippedNonObjects, stats.SkippedEnergyItems)
		}
		result, err = s.service.RunBatch(r.Context(), now, batch)
	} else {
		result, err = s.service.Run(r.Context(), now)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/analyses/"+result.RunID.String())
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) parseAnalysisRequest(body []byte) (time.Time, bool, []byte, error) {
	now := s.now()
	if len(strings.TrimSpace(string(body))) == 0 {
		return now, false, nil, nil
	}
	if !gjson.ValidBytes(body) {
		return time.Time{}, false, nil, errors.InvalidInput("request body is not valid JSON")
	}

	root := gjson.ParseBytes(body)
	if v := root.Get("now"); v.Exists() {
		parsed, err := time.Parse(time.RFC3339, v.String())
		if err != nil {
			return time.Time{}, false, nil, errors.InvalidInput("now must be an RFC 3339 timestamp")
		}
		now = parsed
	}

	for _, key := range []string{"events", "tasks", "energy", "energy_series"} {
		if root.Get(key).Exists() {
			return now, true, body, nil
		}
	}
	return now, false, nil, nil
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := s.config.ListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, errors.InvalidInput("limit must be a positive integer"))
			return
		}
		limit = n
	}

	summaries, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"analyses": summaries})
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, errors.InvalidInput(err.Error()))
		return
	}
	stored, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, stored)
	case "markdown":
		md, err := report.Markdown(*stored)
		if err != nil {
			s.writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(md)
	case "html":
		page, err := report.HTMLPage(*stored)
		if err != nil {
			s.writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(page)
	default:
		s.writeError(w, errors.InvalidInput("format must be json, markdown or html"))
	}
}

func (s *Server) handleListPatterns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"patterns": s.service.Engine().Patterns()})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed: %v", err)
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}
