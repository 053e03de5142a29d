// Package ui serves the browser report viewer.
package ui

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"perfpulse/adapters/report"
	"perfpulse/app"
	"perfpulse/domain/core"
	"perfpulse/internal"
	"perfpulse/internal/errors"
	"perfpulse/ports"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Server renders stored reports as HTML pages
type Server struct {
	router    *gin.Engine
	service   *app.AnalysisService
	store     ports.ReportStore
	hub       *ReportHub
	templates *template.Template
	logger    *internal.Logger
	now       func() time.Time
}

// NewServer creates the report viewer. store should be the same store the
// service writes to, so new runs show up in the listing.
func NewServer(service *app.AnalysisService, store ports.ReportStore, hub *ReportHub, logger *internal.Logger) (*Server, error) {
	if logger == nil {
		logger = internal.NewNopLogger()
	}

	funcMap := template.FuncMap{
		"date":     func(t time.Time) string { return t.Format("2006-01-02") },
		"datetime": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
		"pct": func(f float64) string {
			return strconv.FormatFloat(f*100, 'f', 0, 64) + "%"
		},
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse templates")
	}

	s := &Server{
		router:    gin.New(),
		service:   service,
		store:     store,
		hub:       hub,
		templates: templates,
		logger:    logger,
		now:       time.Now,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(func(c *gin.Context) {
		started := time.Now()
		c.Next()
		s.logger.Zap().Debug("ui request",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(started)),
		)
	})
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/reports/:id", s.handleReport)
	s.router.GET("/reports/:id/markdown", s.handleMarkdown)
	s.router.POST("/analyses", s.handleRunAnalysis)
	if s.hub != nil {
		s.router.GET("/events", s.hub.HandleSSE)
	}
}

type indexPage struct {
	Title   string
	Reports []ports.ReportSummary
	Live    bool
}

func (s *Server) handleIndex(c *gin.Context) {
	summaries, err := s.store.List(c.Request.Context(), 50)
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.renderTemplate(c, http.StatusOK, "index.html", indexPage{
		Title:   "Performance reports",
		Reports: summaries,
		Live:    s.hub != nil,
	})
}

type reportPage struct {
	Title string
	RunID core.RunID
	Body  template.HTML
}

func (s *Server) handleReport(c *gin.Context) {
	stored, err := s.store.Get(c.Request.Context(), core.RunID(c.Param("id")))
	if err != nil {
		s.renderError(c, err)
		return
	}

	// The fragment is rendered from our own markdown, with table cells
	// escaped, so it is trusted here.
	body, err := report.HTMLFragment(*stored)
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.renderTemplate(c, http.StatusOK, "report.html", reportPage{
		Title: "Report " + stored.RunID.String(),
		RunID: stored.RunID,
		Body:  template.HTML(body),
	})
}

func (s *Server) handleMarkdown(c *gin.Context) {
	stored, err := s.store.Get(c.Request.Context(), core.RunID(c.Param("id")))
	if err != nil {
		s.renderError(c, err)
		return
	}
	md, err := report.Markdown(*stored)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="report-%s.md"`, stored.RunID))
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", md)
}

func (s *Server) handleRunAnalysis(c *gin.Context) {
	result, err := s.service.Run(c.Request.Context(), s.now())
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/reports/"+result.RunID.String())
}

func (s *Server) renderTemplate(c *gin.Context, status int, name string, data interface{}) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := s.templates.ExecuteTemplate(c.Writer, name, data); err != nil {
		s.logger.Error("template %s: %v", name, err)
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}

type errorPage struct {
	Title   string
	Message string
}

func (s *Server) renderError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("ui request failed: %v", err)
	}
	s.renderTemplate(c, status, "error.html", errorPage{
		Title:   http.StatusText(status),
		Message: err.Error(),
	})
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
		s.logger.Info("Report viewer on http://%s", addr)
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
