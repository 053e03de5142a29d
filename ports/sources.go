package ports

import (
	"context"
	"time"

	"perfpulse/domain/activity"
)

// TimeRange is a half-open interval [Start, End)
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// EventSource supplies timestamped user actions
type EventSource interface {
	FetchEvents(ctx context.Context, r TimeRange) ([]activity.Event, error)
}

// TaskSource supplies task records. Implementations return every task that
// could affect the range, including tasks started earlier and still open.
type TaskSource interface {
	FetchTasks(ctx context.Context, r TimeRange) ([]activity.Task, error)
}

// EnergySource supplies precomputed daily energy estimates. A source with no
// energy data returns an empty slice, not an error.
type EnergySource interface {
	FetchEnergy(ctx context.Context, r TimeRange) ([]activity.EnergyEstimate, error)
}

// ActivitySource bundles all three sources, as most adapters provide them
// together
type ActivitySource interface {
	EventSource
	TaskSource
	EnergySource
}
