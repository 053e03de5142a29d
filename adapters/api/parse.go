package api

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"perfpulse/domain/activity"
	"perfpulse/domain/core"
	"perfpulse/internal/errors"
)

// Alternative keys accepted for each field, first match wins
var (
	timestampKeys  = []string{"timestamp", "ts", "time", "created_at"}
	actionKeys     = []string{"action_kind", "action", "type"}
	entityKindKeys = []string{"entity_kind", "entity_type"}
	entityIDKeys   = []string{"entity_id", "entityId"}
	durationKeys   = []string{"duration_seconds", "duration"}
	dayKeys        = []string{"day", "date"}
	levelKeys      = []string{"level", "energy", "value"}
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// first returns the first present, non-null field of obj
func first(obj gjson.Result, keys []string) gjson.Result {
	for _, k := range keys {
		if v := obj.Get(k); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

// parseTime accepts strings in the supported layouts and unix epochs in
// seconds or milliseconds
func parseTime(v gjson.Result) (time.Time, bool) {
	switch v.Type {
	case gjson.Number:
		n := v.Int()
		if n <= 0 {
			return time.Time{}, false
		}
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), true
		}
		return time.Unix(n, 0).UTC(), true
	case gjson.String:
		s := strings.TrimSpace(v.String())
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func timePtr(v gjson.Result) *time.Time {
	if t, ok := parseTime(v); ok {
		return &t
	}
	return nil
}

// floatPtr reads numbers and numeric strings
func floatPtr(v gjson.Result) *float64 {
	switch v.Type {
	case gjson.Number:
		f := v.Float()
		return &f
	case gjson.String:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v.String()), 64); err == nil {
			return &f
		}
	}
	return nil
}

func stringPtr(v gjson.Result) *string {
	if !v.Exists() || v.String() == "" {
		return nil
	}
	s := v.String()
	return &s
}

// ParseEvents reads an array of event objects. Events whose timestamp
// cannot be read keep a zero timestamp so normalization counts the drop.
func ParseEvents(arr gjson.Result, stats *ParseStats) []activity.Event {
	events := []activity.Event{}
	arr.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			stats.SkippedNonObjects++
			return true
		}
		stats.Records++
		ts, ok := parseTime(first(item, timestampKeys))
		if !ok {
			stats.InvalidTimestamps++
		}
		events = append(events, activity.Event{
			Timestamp:       ts,
			ActionKind:      activity.ActionKind(first(item, actionKeys).String()),
			EntityKind:      activity.EntityKind(first(item, entityKindKeys).String()),
			EntityID:        core.EntityID(first(item, entityIDKeys).String()),
			DurationSeconds: floatPtr(first(item, durationKeys)),
		})
		return true
	})
	return events
}

// ParseTasks reads an array of task objects
func ParseTasks(arr gjson.Result, stats *ParseStats) []activity.Task {
	tasks := []activity.Task{}
	arr.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			stats.SkippedNonObjects++
			return true
		}
		stats.Records++
		tasks = append(tasks, activity.Task{
			ID:                   core.TaskID(item.Get("id").String()),
			Name:                 item.Get("name").String(),
			Status:               activity.TaskStatus(strings.ToLower(item.Get("status").String())),
			StartDate:            timePtr(item.Get("start_date")),
			EndDate:              timePtr(item.Get("end_date")),
			Deadline:             timePtr(item.Get("deadline")),
			DurationEstimateDays: floatPtr(item.Get("duration_estimate_days")),
			CategoryID:           stringPtr(item.Get("category_id")),
		})
		return true
	})
	return tasks
}

// ParseEnergy reads an array of {day, level} objects, skipping entries
// without a readable day or level
func ParseEnergy(arr gjson.Result, stats *ParseStats) []activity.EnergyEstimate {
	energy := []activity.EnergyEstimate{}
	arr.ForEach(func(_, item gjson.Result) bool {
		day, ok := parseTime(first(item, dayKeys))
		level := floatPtr(first(item, levelKeys))
		if !ok || level == nil {
			stats.SkippedEnergyItems++
			return true
		}
		stats.Records++
		energy = append(energy, activity.EnergyEstimate{Day: day, Level: *level})
		return true
	})
	return energy
}

// ParseFeed reads a feed document: either an object with events, tasks,
// energy and energy_series arrays, or a bare array of events
func ParseFeed(body []byte) (activity.Batch, ParseStats, error) {
	var stats ParseStats
	if !gjson.ValidBytes(body) {
		return activity.Batch{}, stats, errors.InvalidInput("feed is not valid JSON")
	}

	root := gjson.ParseBytes(body)
	if root.IsArray() {
		return activity.Batch{Events: ParseEvents(root, &stats), Tasks: []activity.Task{}}, stats, nil
	}
	if !root.IsObject() {
		return activity.Batch{}, stats, errors.InvalidInput("feed must be a JSON object or array")
	}

	batch := activity.Batch{
		Events: ParseEvents(root.Get("events"), &stats),
		Tasks:  ParseTasks(root.Get("tasks"), &stats),
		Energy: ParseEnergy(root.Get("energy"), &stats),
	}
	root.Get("energy_series").ForEach(func(_, v gjson.Result) bool {
		if f := floatPtr(v); f != nil {
			batch.EnergySeries = append(batch.EnergySeries, *f)
		}
		return true
	})
	return batch, stats, nil
}

// LoadFile parses a feed document from disk
func LoadFile(path string) (activity.Batch, ParseStats, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return activity.Batch{}, ParseStats{}, errors.WithCode(errors.CodeInvalidInput, errors.Wrapf(err, "failed to read feed %s", path))
	}
	return ParseFeed(body)
}
