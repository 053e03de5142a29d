// Package memory serves an already loaded activity batch through the source
// ports. File adapters and the synthetic generator hand their batches to it.
package memory

import (
	"context"
	"sort"

	"perfpulse/domain/activity"
	"perfpulse/ports"
)

// Source answers range queries over a fixed batch
type Source struct {
	batch activity.Batch
}

// NewSource creates a source over batch. Events are sorted by timestamp.
func NewSource(batch activity.Batch) *Source {
	events := append([]activity.Event(nil), batch.Events...)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	batch.Events = events
	return &Source{batch: batch}
}

// FetchEvents returns the events inside the range. Events without a
// timestamp are passed through so the normalizer can count them.
func (s *Source) FetchEvents(ctx context.Context, r ports.TimeRange) ([]activity.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	events := []activity.Event{}
	for _, ev := range s.batch.Events {
		if ev.Timestamp.IsZero() || r.Contains(ev.Timestamp) {
			events = append(events, ev)
		}
	}
	return events, nil
}

// FetchTasks returns the tasks that could touch the range
func (s *Source) FetchTasks(ctx context.Context, r ports.TimeRange) ([]activity.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tasks := []activity.Task{}
	for _, task := range s.batch.Tasks {
		if Overlaps(task, r) {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

// FetchEnergy returns the energy estimates inside the range
func (s *Source) FetchEnergy(ctx context.Context, r ports.TimeRange) ([]activity.EnergyEstimate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	energy := []activity.EnergyEstimate{}
	for _, e := range s.batch.Energy {
		if r.Contains(e.Day) {
			energy = append(energy, e)
		}
	}
	return energy, nil
}

// Overlaps reports whether a task may affect any day of the range: it
// started before the range ends and was still open when it began.
func Overlaps(task activity.Task, r ports.TimeRange) bool {
	if task.StartDate != nil && !task.StartDate.Before(r.End) {
		return false
	}
	if task.EndDate != nil && task.EndDate.Before(r.Start) && task.Status == activity.StatusDone {
		return false
	}
	return true
}

var _ ports.ActivitySource = (*Source)(nil)
