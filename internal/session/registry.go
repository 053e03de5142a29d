package session

import (
	"context"
	"sort"
	"sync"

	"perfpulse/domain/core"
	"perfpulse/domain/insight"
	"perfpulse/internal/errors"
	"perfpulse/ports"
)

// DefaultRegistryCapacity bounds the number of reports kept in memory
const DefaultRegistryCapacity = 50

// Registry is an in-memory, bounded ports.ReportStore. When full, the
// oldest inserted report is evicted.
type Registry struct {
	mu       sync.RWMutex
	capacity int
	reports  map[core.RunID]insight.Report
	order    []core.RunID
}

// NewRegistry creates a registry; capacity <= 0 uses DefaultRegistryCapacity
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultRegistryCapacity
	}
	return &Registry{
		capacity: capacity,
		reports:  make(map[core.RunID]insight.Report),
	}
}

// Put stores a report, replacing any report with the same run ID
func (r *Registry) Put(ctx context.Context, report insight.Report) error {
	if report.RunID == "" {
		return errors.InvalidInput("report has no run ID")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.reports[report.RunID]; !exists {
		r.order = append(r.order, report.RunID)
	}
	r.reports[report.RunID] = report

	for len(r.order) > r.capacity {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.reports, oldest)
	}
	return nil
}

// Get returns a stored report
func (r *Registry) Get(ctx context.Context, id core.RunID) (*insight.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report, ok := r.reports[id]
	if !ok {
		return nil, errors.NotFound("report " + id.String())
	}
	return &report, nil
}

// List returns summaries newest first by generation time, then run ID
func (r *Registry) List(ctx context.Context, limit int) ([]ports.ReportSummary, error) {
	r.mu.RLock()
	summaries := make([]ports.ReportSummary, 0, len(r.reports))
	for _, report := range r.reports {
		summaries = append(summaries, ports.Summarize(report))
	}
	r.mu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].GeneratedAt.Equal(summaries[j].GeneratedAt) {
			return summaries[i].GeneratedAt.After(summaries[j].GeneratedAt)
		}
		return summaries[i].RunID > summaries[j].RunID
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

var _ ports.ReportStore = (*Registry)(nil)
