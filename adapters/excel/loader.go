package excel

import (
	"strconv"
	"strings"
	"time"

	"perfpulse/domain/activity"
	"perfpulse/domain/core"
	"perfpulse/internal"
	"perfpulse/internal/errors"
)

// timeLayouts are tried in order when parsing a timestamp cell
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
}

// parseTime parses a cell in any supported layout. Naive values are read
// in loc.
func parseTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseTimePtr(s string, loc *time.Location) *time.Time {
	if t, ok := parseTime(s, loc); ok {
		return &t
	}
	return nil
}

func parseFloatPtr(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseStringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Load reads an activity export. A workbook carries events, tasks and
// energy sheets; a CSV file carries one of those tables, recognised by its
// header. Event rows with an unparsable timestamp are kept with a zero
// timestamp so normalization counts them; energy rows that cannot be read
// are skipped.
func Load(path string, loc *time.Location, logger *internal.Logger) (activity.Batch, LoadStats, error) {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	reader := NewDataReader(path, logger)

	var events, tasks, energy *ExcelData
	switch reader.FileType() {
	case "csv":
		table, err := reader.ReadCSV()
		if err != nil {
			return activity.Batch{}, LoadStats{}, err
		}
		switch {
		case table.HasColumns("timestamp", "action_kind"):
			events = table
		case table.HasColumns("id", "status"):
			tasks = table
		case table.HasColumns("day", "level"):
			energy = table
		default:
			return activity.Batch{}, LoadStats{}, errors.InvalidInput("csv header matches no known table: " + strings.Join(table.Headers, ","))
		}
	default:
		tables, err := reader.ReadSheets(SheetEvents, SheetTasks, SheetEnergy)
		if err != nil {
			return activity.Batch{}, LoadStats{}, err
		}
		events, tasks, energy = tables[SheetEvents], tables[SheetTasks], tables[SheetEnergy]
	}

	var stats LoadStats
	batch := activity.Batch{
		Events: []activity.Event{},
		Tasks:  []activity.Task{},
		Energy: []activity.EnergyEstimate{},
	}

	if events != nil {
		for _, row := range events.Rows {
			stats.Rows++
			ts, _ := parseTime(row["timestamp"], loc)
			batch.Events = append(batch.Events, activity.Event{
				Timestamp:       ts,
				ActionKind:      activity.ActionKind(row["action_kind"]),
				EntityKind:      activity.EntityKind(row["entity_kind"]),
				EntityID:        core.EntityID(row["entity_id"]),
				DurationSeconds: parseFloatPtr(row["duration_seconds"]),
			})
		}
	}

	if tasks != nil {
		for _, row := range tasks.Rows {
			stats.Rows++
			batch.Tasks = append(batch.Tasks, activity.Task{
				ID:                   core.TaskID(row["id"]),
				Name:                 row["name"],
				Status:               activity.TaskStatus(strings.ToLower(row["status"])),
				StartDate:            parseTimePtr(row["start_date"], loc),
				EndDate:              parseTimePtr(row["end_date"], loc),
				Deadline:             parseTimePtr(row["deadline"], loc),
				DurationEstimateDays: parseFloatPtr(row["duration_estimate_days"]),
				CategoryID:           parseStringPtr(row["category_id"]),
			})
		}
	}

	if energy != nil {
		for _, row := range energy.Rows {
			stats.Rows++
			day, ok := parseTime(row["day"], loc)
			level := parseFloatPtr(row["level"])
			if !ok || level == nil {
				stats.Skipped++
				continue
			}
			batch.Energy = append(batch.Energy, activity.EnergyEstimate{Day: day, Level: *level})
		}
	}

	logger.Info("loaded %s: %d events, %d tasks, %d energy estimates (%d rows skipped)",
		path, len(batch.Events), len(batch.Tasks), len(batch.Energy), stats.Skipped)
	return batch, stats, nil
}
