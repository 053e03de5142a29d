package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfpulse/internal/errors"
	"perfpulse/ports"
)

func newFeedServer(t *testing.T, handler http.HandlerFunc) *FeedReader {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultFeedSource(srv.URL + "/")
	cfg.AuthMethod = "bearer"
	cfg.AuthToken = "secret"
	cfg.DataPath = "data"
	cfg.RateLimit = 6000
	return NewFeedReader(cfg, nil)
}

var testRange = ports.TimeRange{
	Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
}

func TestFeedReader_FetchEvents(t *testing.T) {
	reader := newFeedServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "2024-03-01T00:00:00Z", r.URL.Query().Get("start"))
		assert.Equal(t, "2024-03-31T00:00:00Z", r.URL.Query().Get("end"))
		w.Write([]byte(`{"data":[{"timestamp":"2024-03-10T09:00:00Z","action_kind":"edit"}]}`))
	})

	events, err := reader.FetchEvents(context.Background(), testRange)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC), events[0].Timestamp)
}

func TestFeedReader_MissingEnergyEndpoint(t *testing.T) {
	reader := newFeedServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	energy, err := reader.FetchEnergy(context.Background(), testRange)
	require.NoError(t, err)
	assert.Empty(t, energy)

	_, err = reader.FetchTasks(context.Background(), testRange)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestFeedReader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server error", http.StatusBadGateway, `oops`, "status 502"},
		{"invalid json", http.StatusOK, `{"data": [`, "not valid JSON"},
		{"not an array", http.StatusOK, `{"data": {"id": 1}}`, "not an array"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := newFeedServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := reader.FetchTasks(context.Background(), testRange)
			require.Error(t, err)
			assert.Equal(t, errors.CodeExternalService, errors.GetCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFeedReader_BuildURL(t *testing.T) {
	cfg := DefaultFeedSource("https://tasks.example.com/api/")
	cfg.QueryParams = map[string]string{"user": "42"}
	reader := NewFeedReader(cfg, nil)

	got := reader.buildURL("tasks", testRange)
	assert.Equal(t, "https://tasks.example.com/api/tasks?end=2024-03-31T00%3A00%3A00Z&start=2024-03-01T00%3A00%3A00Z&user=42", got)
}
