package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfpulse/adapters/memory"
	"perfpulse/adapters/stats/engine"
	"perfpulse/app"
	"perfpulse/domain/core"
	"perfpulse/domain/insight"
	"perfpulse/internal"
	"perfpulse/internal/errors"
	"perfpulse/internal/metrics"
	"perfpulse/internal/session"
	"perfpulse/internal/testkit"
	"perfpulse/ports"
)

type fixture struct {
	server    *Server
	store     *session.Registry
	collector *metrics.Collector
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testkit.DefaultGeneratorConfig()
	cfg.Days = 14
	batch := testkit.NewPerformanceGenerator(cfg).Generate()

	opts := engine.Options{}
	opts.Normalizer.WindowDays = 14
	store := session.NewRegistry(0)
	collector := metrics.NewCollector()
	svc := app.NewAnalysisService(memory.NewSource(batch), engine.NewPerformanceEngine(opts), store, collector, internal.NewNopLogger())

	server := NewServer(Config{MaxConcurrentAnalyses: 1}, svc, store, collector, nil).
		WithClock(func() time.Time { return cfg.End })
	return &fixture{server: server, store: store, collector: collector, now: cfg.End}
}

func (f *fixture) do(method, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestServer_Health(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_CreateAnalysisFromSource(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/analyses", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var report insight.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 14, report.Window.Days)
	assert.Equal(t, "/api/v1/analyses/"+report.RunID.String(), rec.Header().Get("Location"))

	stored, err := f.store.Get(context.Background(), report.RunID)
	require.NoError(t, err)
	assert.Equal(t, report.RunID, stored.RunID)
}

func TestServer_CreateAnalysisInline(t *testing.T) {
	f := newFixture(t)
	body := `{
		"now": "2024-03-10T18:00:00Z",
		"events": [
			{"timestamp": "2024-03-09T09:00:00Z", "action_kind": "edit", "entity_kind": "task", "entity_id": "t1"},
			{"timestamp": "2024-03-10T10:00:00Z", "action_kind": "navigate"}
		],
		"tasks": [{"id": "t1", "status": "done", "start_date": "2024-03-08", "end_date": "2024-03-09"}]
	}`

	rec := f.do(http.MethodPost, "/api/v1/analyses", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var report insight.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), report.Window.End)
	assert.Equal(t, 2, report.Normalization.EventsAccepted)
	assert.Equal(t, 1, report.Normalization.TasksAccepted)
}

func TestServer_CreateAnalysisErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"invalid json", `{"events": [`, errors.CodeInvalidInput},
		{"bad now", `{"now": "yesterday"}`, errors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.do(http.MethodPost, "/api/v1/analyses", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec)["code"])
		})
	}
}

func TestServer_RejectsWhenBusy(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.server.admission.TryAcquire(1))
	defer f.server.admission.Release(1)

	rec := f.do(http.MethodPost, "/api/v1/analyses", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, errors.CodeBusy, decodeError(t, rec)["code"])
}

func TestServer_ListAndGet(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/api/v1/analyses", "").Code)
	}

	rec := f.do(http.MethodGet, "/api/v1/analyses?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Analyses []ports.ReportSummary `json:"analyses"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing.Analyses, 2)

	id := listing.Analyses[0].RunID.String()

	rec = f.do(http.MethodGet, "/api/v1/analyses/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	rec = f.do(http.MethodGet, "/api/v1/analyses/"+id+"?format=markdown", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("# Performance report")))

	rec = f.do(http.MethodGet, "/api/v1/analyses/"+id+"?format=html", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "</html>")

	rec = f.do(http.MethodGet, "/api/v1/analyses/"+id+"?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/analyses/"+core.NewRunID().String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.CodeNotFound, decodeError(t, rec)["code"])

	rec = f.do(http.MethodGet, "/api/v1/analyses/missing", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/analyses?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Patterns(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/api/v1/patterns", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Patterns []insight.PatternDefinition `json:"patterns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Patterns)
}

func TestServer_MetricsByRoutePattern(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodGet, "/api/v1/analyses/a", "")
	f.do(http.MethodGet, "/api/v1/analyses/b", "")

	count, err := testutil.GatherAndCount(f.collector.Registry(), "perfpulse_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	rec := f.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/api/v1/analyses/{id}"`)
}
