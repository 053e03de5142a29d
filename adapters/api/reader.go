package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"perfpulse/domain/activity"
	"perfpulse/internal"
	"perfpulse/internal/errors"
	"perfpulse/ports"
)

// maxBodyBytes bounds a single feed response
const maxBodyBytes = 64 << 20

// FeedReader fetches activity from a task-management service's HTTP feed
type FeedReader struct {
	config     *FeedSource
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *internal.Logger
}

// NewFeedReader creates a new feed reader for a source
func NewFeedReader(config *FeedSource, logger *internal.Logger) *FeedReader {
	if config.RateLimit <= 0 {
		config.RateLimit = 60
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &FeedReader{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RateLimit)), 3),
		logger:  logger,
	}
}

// FetchEvents reads the events endpoint
func (r *FeedReader) FetchEvents(ctx context.Context, tr ports.TimeRange) ([]activity.Event, error) {
	arr, err := r.fetch(ctx, "events", tr)
	if err != nil {
		return nil, err
	}
	var stats ParseStats
	events := ParseEvents(arr, &stats)
	if stats.InvalidTimestamps > 0 || stats.SkippedNonObjects > 0 {
		r.logger.Warn("%s events: %d invalid timestamps, %d non-object items", r.config.Name, stats.InvalidTimestamps, stats.SkippedNonObjects)
	}
	return events, nil
}

// FetchTasks reads the tasks endpoint
func (r *FeedReader) FetchTasks(ctx context.Context, tr ports.TimeRange) ([]activity.Task, error) {
	arr, err := r.fetch(ctx, "tasks", tr)
	if err != nil {
		return nil, err
	}
	var stats ParseStats
	return ParseTasks(arr, &stats), nil
}

// FetchEnergy reads the energy endpoint. A feed without one (404) has no
// energy data.
func (r *FeedReader) FetchEnergy(ctx context.Context, tr ports.TimeRange) ([]activity.EnergyEstimate, error) {
	arr, err := r.fetch(ctx, "energy", tr)
	if err != nil {
		if errors.GetCode(err) == errors.CodeNotFound {
			return []activity.EnergyEstimate{}, nil
		}
		return nil, err
	}
	var stats ParseStats
	return ParseEnergy(arr, &stats), nil
}

// fetch performs one rate-limited GET and extracts the record array
func (r *FeedReader) fetch(ctx context.Context, resource string, tr ports.TimeRange) (gjson.Result, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return gjson.Result{}, errors.Wrap(err, "rate limit wait aborted")
	}

	endpoint := r.buildURL(resource, tr)
	req, err := r.buildRequest(ctx, endpoint)
	if err != nil {
		return gjson.Result{}, errors.Wrap(err, "failed to build request")
	}

	started := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, errors.ExternalServiceError(r.config.Name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return gjson.Result{}, errors.ExternalServiceError(r.config.Name, err)
	}
	r.logger.Debug("GET %s -> %d in %s (%d bytes)", endpoint, resp.StatusCode, time.Since(started), len(body))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return gjson.Result{}, errors.NotFound(r.config.Name + " " + resource)
	case resp.StatusCode != http.StatusOK:
		return gjson.Result{}, errors.ExternalServiceError(r.config.Name,
			fmt.Errorf("%s returned status %d: %s", resource, resp.StatusCode, truncate(string(body), 200)))
	}

	if !gjson.ValidBytes(body) {
		return gjson.Result{}, errors.ExternalServiceError(r.config.Name, fmt.Errorf("%s response is not valid JSON", resource))
	}
	data := gjson.ParseBytes(body)
	if r.config.DataPath != "" {
		data = data.Get(r.config.DataPath)
	}
	if !data.IsArray() {
		return gjson.Result{}, errors.ExternalServiceError(r.config.Name, fmt.Errorf("data path %q in %s response is not an array", r.config.DataPath, resource))
	}
	return data, nil
}

// buildURL constructs the request URL with the range parameters
func (r *FeedReader) buildURL(resource string, tr ports.TimeRange) string {
	params := url.Values{}
	for k, v := range r.config.QueryParams {
		params.Set(k, v)
	}
	params.Set("start", tr.Start.UTC().Format(time.RFC3339))
	params.Set("end", tr.End.UTC().Format(time.RFC3339))

	return strings.TrimRight(r.config.BaseURL, "/") + "/" + resource + "?" + params.Encode()
}

// buildRequest creates an HTTP request with authentication
func (r *FeedReader) buildRequest(ctx context.Context, endpoint string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	for k, v := range r.config.Headers {
		req.Header.Set(k, v)
	}

	switch r.config.AuthMethod {
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+r.config.AuthToken)
	case "api_key":
		req.Header.Set("X-API-Key", r.config.AuthToken)
	case "basic":
		req.SetBasicAuth(r.config.Username, r.config.Password)
	}

	return req, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ ports.ActivitySource = (*FeedReader)(nil)
