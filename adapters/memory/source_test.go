package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfpulse/domain/activity"
	"perfpulse/ports"
)

func ptrTime(t time.Time) *time.Time { return &t }

func TestSource_FiltersByRange(t *testing.T) {
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	r := ports.TimeRange{Start: day, End: day.AddDate(0, 0, 1)}

	src := NewSource(activity.Batch{
		Events: []activity.Event{
			{Timestamp: day.Add(14 * time.Hour), ActionKind: activity.ActionEdit},
			{Timestamp: day.Add(9 * time.Hour), ActionKind: activity.ActionSearch},
			{Timestamp: day.AddDate(0, 0, 1), ActionKind: activity.ActionEdit},
			{ActionKind: activity.ActionEdit},
		},
		Energy: []activity.EnergyEstimate{
			{Day: day.Add(12 * time.Hour), Level: 60},
			{Day: day.AddDate(0, 0, -1), Level: 30},
		},
	})

	events, err := src.FetchEvents(context.Background(), r)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.True(t, events[0].Timestamp.IsZero())
	assert.Equal(t, activity.ActionSearch, events[1].ActionKind)

	energy, err := src.FetchEnergy(context.Background(), r)
	require.NoError(t, err)
	assert.Len(t, energy, 1)
}

func TestOverlaps(t *testing.T) {
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	r := ports.TimeRange{Start: day, End: day.AddDate(0, 0, 7)}

	tests := []struct {
		name string
		task activity.Task
		want bool
	}{
		{"no dates", activity.Task{ID: "a", Status: activity.StatusTodo}, true},
		{"starts after range", activity.Task{ID: "b", StartDate: ptrTime(r.End)}, false},
		{"done before range", activity.Task{ID: "c", Status: activity.StatusDone, StartDate: ptrTime(day.AddDate(0, 0, -9)), EndDate: ptrTime(day.AddDate(0, 0, -2))}, false},
		{"done inside range", activity.Task{ID: "d", Status: activity.StatusDone, StartDate: ptrTime(day.AddDate(0, 0, -9)), EndDate: ptrTime(day.AddDate(0, 0, 2))}, true},
		{"open since before", activity.Task{ID: "e", Status: activity.StatusInProgress, StartDate: ptrTime(day.AddDate(0, 0, -30))}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.task, r))
		})
	}
}

func TestSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSource(activity.Batch{}).FetchTasks(ctx, ports.TimeRange{})
	assert.ErrorIs(t, err, context.Canceled)
}
