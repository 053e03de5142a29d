package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfpulse/adapters/memory"
	"perfpulse/adapters/stats/engine"
	"perfpulse/app"
	"perfpulse/domain/insight"
	"perfpulse/internal/session"
	"perfpulse/internal/testkit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, *ReportHub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := testkit.DefaultGeneratorConfig()
	cfg.Days = 10
	batch := testkit.NewPerformanceGenerator(cfg).Generate()

	opts := engine.Options{}
	opts.Normalizer.WindowDays = 10
	hub := NewReportHub(ctx, nil)
	store := NewNotifyingStore(session.NewRegistry(0), hub)
	svc := app.NewAnalysisService(memory.NewSource(batch), engine.NewPerformanceEngine(opts), store, nil, nil)

	server, err := NewServer(svc, store, hub, nil)
	require.NoError(t, err)
	server.now = func() time.Time { return cfg.End }
	return server, hub
}

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestServer_IndexEmpty(t *testing.T) {
	s, _ := newTestServer(t)
	rec := serve(s, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No reports yet.")
	assert.Contains(t, rec.Body.String(), `new EventSource("/events")`)
}

func TestServer_RunAndView(t *testing.T) {
	s, _ := newTestServer(t)

	rec := serve(s, http.MethodPost, "/analyses")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	location := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "/reports/"))

	rec = serve(s, http.MethodGet, location)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<h1")
	assert.Contains(t, body, "Key insights")
	assert.Contains(t, body, location+"/markdown")

	rec = serve(s, http.MethodGet, location+"/markdown")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "# Performance report"))

	rec = serve(s, http.MethodGet, "/")
	assert.Contains(t, rec.Body.String(), `href="`+location+`"`)
}

func TestServer_MissingReport(t *testing.T) {
	s, _ := newTestServer(t)
	rec := serve(s, http.MethodGet, "/reports/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "report nope not found")
}

func TestNotifyingStore_Broadcasts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewReportHub(ctx, nil)
	store := NewNotifyingStore(session.NewRegistry(0), hub)

	events, unsubscribe := hub.Subscribe()
	defer unsubscribe()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	report := insight.Report{RunID: "run-7", GeneratedAt: time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)}
	require.NoError(t, store.Put(ctx, report))

	select {
	case event := <-events:
		assert.Equal(t, "report_ready", event.EventType)
		assert.Equal(t, report.RunID, event.RunID)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestReportHub_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewReportHub(ctx, nil)

	events, _ := hub.Subscribe()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscriber channel not closed")
	}

	late, unsubscribe := hub.Subscribe()
	unsubscribe()
	_, ok := <-late
	assert.False(t, ok)
}
