package api

import (
	"time"
)

// FeedSource configures the HTTP activity feed of a task-management
// service. Events, tasks and energy estimates are read from
// BaseURL/events, BaseURL/tasks and BaseURL/energy, each called with
// RFC 3339 start and end query parameters.
type FeedSource struct {
	Name        string            `json:"name"`
	BaseURL     string            `json:"base_url"`
	Headers     map[string]string `json:"headers,omitempty"`
	QueryParams map[string]string `json:"query_params,omitempty"`

	// Authentication
	AuthMethod string `json:"auth_method"` // "none", "bearer", "api_key", "basic"
	AuthToken  string `json:"auth_token,omitempty"`
	Username   string `json:"username,omitempty"`
	Password   string `json:"password,omitempty"`

	// DataPath is the gjson path of the record array in each response;
	// empty means the response body is the array
	DataPath string `json:"data_path"`

	RateLimit int           `json:"rate_limit"` // requests per minute
	Timeout   time.Duration `json:"timeout"`
}

// DefaultFeedSource returns a feed configuration with sensible limits
func DefaultFeedSource(baseURL string) *FeedSource {
	return &FeedSource{
		Name:       "activity-feed",
		BaseURL:    baseURL,
		AuthMethod: "none",
		RateLimit:  60,
		Timeout:    30 * time.Second,
	}
}

// ParseStats counts records read from a feed document
type ParseStats struct {
	Records            int `json:"records"`
	InvalidTimestamps  int `json:"invalid_timestamps"`
	SkippedNonObjects  int `json:"skipped_non_objects"`
	SkippedEnergyItems int `json:"skipped_energy_items"`
}
