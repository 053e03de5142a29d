package temporal

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"perfpulse/domain/activity"
	"perfpulse/domain/core"
	"perfpulse/domain/insight"
	"perfpulse/internal/session"
)

// Drop reasons recorded in NormalizationStats
const (
	DropZeroTimestamp     = "event_zero_timestamp"
	DropMissingAction     = "event_missing_action"
	DropUnknownAction     = "event_unknown_action"
	DropOutsideWindow     = "event_outside_window"
	DropInvalidDuration   = "event_invalid_duration"
	DropTaskMissingID     = "task_missing_id"
	DropTaskInvalidStatus = "task_invalid_status"
	DropTaskInvertedDates = "task_inverted_dates"
	DropEnergyOutOfRange  = "energy_out_of_range"
	DropEnergyOutside     = "energy_outside_window"
)

// NormalizerConfig holds the fixed constants of the normalization step
type NormalizerConfig struct {
	WindowDays         int
	FocusInactivity    time.Duration
	ActivePerAction    time.Duration
	EnergyBaseline     float64
	Location           *time.Location
	WorkActions        map[activity.ActionKind]bool
	DistractionActions map[activity.ActionKind]bool
	NeutralActions     map[activity.ActionKind]bool
}

// DefaultNormalizerConfig returns the standard 30-day configuration
func DefaultNormalizerConfig() NormalizerConfig {
	return NormalizerConfig{
		WindowDays:      30,
		FocusInactivity: 15 * time.Minute,
		ActivePerAction: 2 * time.Minute,
		EnergyBaseline:  50,
		Location:        time.UTC,
		WorkActions: map[activity.ActionKind]bool{
			activity.ActionTaskCreate:   true,
			activity.ActionTaskUpdate:   true,
			activity.ActionTaskComplete: true,
			activity.ActionTaskComment:  true,
			activity.ActionQuoteCreate:  true,
			activity.ActionQuoteUpdate:  true,
			activity.ActionClientUpdate: true,
			activity.ActionEdit:         true,
		},
		DistractionActions: map[activity.ActionKind]bool{
			activity.ActionNavigate:   true,
			activity.ActionViewSwitch: true,
			activity.ActionSearch:     true,
		},
		NeutralActions: map[activity.ActionKind]bool{
			activity.ActionChatMessage: true,
			activity.ActionLogin:       true,
		},
	}
}

// Normalizer aligns events, tasks and energy estimates into a MetricSet
type Normalizer struct {
	config NormalizerConfig
}

// NewNormalizer creates a normalizer, filling zero config fields with defaults
func NewNormalizer(config NormalizerConfig) *Normalizer {
	def := DefaultNormalizerConfig()
	if config.WindowDays <= 0 {
		config.WindowDays = def.WindowDays
	}
	if config.FocusInactivity <= 0 {
		config.FocusInactivity = def.FocusInactivity
	}
	if config.ActivePerAction <= 0 {
		config.ActivePerAction = def.ActivePerAction
	}
	if config.EnergyBaseline <= 0 {
		config.EnergyBaseline = def.EnergyBaseline
	}
	if config.Location == nil {
		config.Location = def.Location
	}
	if config.WorkActions == nil {
		config.WorkActions = def.WorkActions
	}
	if config.DistractionActions == nil {
		config.DistractionActions = def.DistractionActions
	}
	if config.NeutralActions == nil {
		config.NeutralActions = def.NeutralActions
	}
	return &Normalizer{config: config}
}

// Config returns the effective configuration
func (n *Normalizer) Config() NormalizerConfig {
	return n.config
}

// dayBucket collects the accepted events of one calendar day
type dayBucket struct {
	all         int
	morning     int
	distraction int
	work        []activity.Event
}

// Normalize produces one value per calendar day for every metric over the
// window ending on the day of end. Malformed records are dropped and
// counted, never fatal. energy_level is present only when the batch carries
// energy data. Per-day productivity scores are memoized in the session cache.
func (n *Normalizer) Normalize(sess *session.Session, batch activity.Batch, end time.Time) (insight.MetricSet, insight.NormalizationStats) {
	grid := NewGrid(end, n.config.WindowDays, n.config.Location)
	size := grid.Len()
	normStats := insight.NormalizationStats{Dropped: map[string]int{}}

	series := make(map[insight.MetricName][]float64, len(DefaultFill)+1)
	for name, strategy := range DefaultFill {
		if name == insight.MetricEnergy {
			continue
		}
		series[name] = filled(size, strategy, n.config.EnergyBaseline)
	}

	buckets := make([]dayBucket, size)
	for _, ev := range batch.Events {
		reason, kind := n.classify(ev)
		if reason != "" {
			normStats.Dropped[reason]++
			continue
		}
		idx, ok := grid.IndexOf(ev.Timestamp)
		if !ok {
			normStats.Dropped[DropOutsideWindow]++
			continue
		}
		normStats.EventsAccepted++
		b := &buckets[idx]
		b.all++
		if ev.Timestamp.In(grid.Location).Hour() < 12 {
			b.morning++
		}
		switch kind {
		case kindWork:
			b.work = append(b.work, ev)
		case kindDistraction:
			b.distraction++
		}
	}

	for i, b := range buckets {
		series[insight.MetricActions][i] = float64(b.all)
		series[insight.MetricDistractions][i] = float64(b.distraction)
		if b.all > 0 {
			series[insight.MetricMorning][i] = float64(b.morning) / float64(b.all) * 100
		}
		if len(b.work) > 0 {
			work := ClipToDay(b.work, grid.Days[i].AddDate(0, 0, 1))
			spans := DetectFocusSpans(work, n.config.FocusInactivity)
			series[insight.MetricFocusTime][i] = FocusMinutes(spans)
			series[insight.MetricBreakTime][i] = BreakMinutes(work, n.config.ActivePerAction)
		}
	}

	n.applyTasks(grid, batch.Tasks, series, &normStats)

	if energy, ok := n.energySeries(grid, batch, &normStats); ok {
		series[insight.MetricEnergy] = energy
	}

	productivity := make([]float64, size)
	cache := sess.Cache()
	for i, day := range grid.Days {
		productivity[i] = cache.Memo("productivity:"+core.DayKey(day), func() float64 {
			return ProductivityScore(
				series[insight.MetricTasksDone][i],
				series[insight.MetricFocusTime][i],
				series[insight.MetricActions][i],
				series[insight.MetricDistractions][i],
			)
		})
	}
	series[insight.MetricProductivity] = productivity

	return insight.MetricSet{Days: grid.Days, Series: series}, normStats
}

// ProductivityScore derives a 0-100 daily score from completed tasks, focus
// minutes, total actions and distraction events.
func ProductivityScore(completed, focusMinutes, actions, distractions float64) float64 {
	score := 25*completed + focusMinutes/4 + actions/2 - 2*distractions
	return math.Max(0, math.Min(100, score))
}

type actionClass int

const (
	kindNeutral actionClass = iota
	kindWork
	kindDistraction
)

// classify returns a drop reason, or the action class of an accepted event
func (n *Normalizer) classify(ev activity.Event) (string, actionClass) {
	if ev.Timestamp.IsZero() {
		return DropZeroTimestamp, kindNeutral
	}
	if ev.ActionKind == "" {
		return DropMissingAction, kindNeutral
	}
	if !ev.DurationValid() {
		return DropInvalidDuration, kindNeutral
	}
	switch {
	case n.config.WorkActions[ev.ActionKind]:
		return "", kindWork
	case n.config.DistractionActions[ev.ActionKind]:
		return "", kindDistraction
	case n.config.NeutralActions[ev.ActionKind]:
		return "", kindNeutral
	}
	return DropUnknownAction, kindNeutral
}

// applyTasks fills the task-derived metrics
func (n *Normalizer) applyTasks(grid *Grid, tasks []activity.Task, series map[insight.MetricName][]float64, normStats *insight.NormalizationStats) {
	complexity := make([][]float64, grid.Len())
	loc := grid.Location

	for _, task := range tasks {
		switch {
		case task.ID.String() == "":
			normStats.Dropped[DropTaskMissingID]++
			continue
		case !task.Status.Valid():
			normStats.Dropped[DropTaskInvalidStatus]++
			continue
		case task.StartDate != nil && task.EndDate != nil && task.EndDate.Before(*task.StartDate):
			normStats.Dropped[DropTaskInvertedDates]++
			continue
		}
		normStats.TasksAccepted++

		if task.StartDate != nil {
			if idx, ok := grid.IndexOf(*task.StartDate); ok {
				series[insight.MetricTasksStarted][idx]++
			}
		}
		if task.Status == activity.StatusDone && task.EndDate != nil {
			if idx, ok := grid.IndexOf(*task.EndDate); ok {
				series[insight.MetricTasksDone][idx]++
			}
		}

		for i, day := range grid.Days {
			if task.StartDate != nil && task.DurationEstimateDays != nil && activeOn(task, day, loc) {
				complexity[i] = append(complexity[i], *task.DurationEstimateDays)
			}
			if overdueOn(task, day, loc) {
				series[insight.MetricOverdue][i]++
			}
		}
	}

	for i, values := range complexity {
		if len(values) == 0 {
			continue
		}
		mean, err := stats.Mean(values)
		if err == nil {
			series[insight.MetricComplexity][i] = mean
		}
	}
}

// activeOn reports whether the task spans day: started on or before it and
// not finished before it
func activeOn(task activity.Task, day time.Time, loc *time.Location) bool {
	if core.Day(*task.StartDate, loc).After(day) {
		return false
	}
	if task.EndDate != nil && core.Day(*task.EndDate, loc).Before(day) {
		return false
	}
	return true
}

// overdueOn reports whether the deadline passed before day while the task
// was still open. Done tasks without an end date are never overdue.
func overdueOn(task activity.Task, day time.Time, loc *time.Location) bool {
	if task.Deadline == nil || !core.Day(*task.Deadline, loc).Before(day) {
		return false
	}
	if task.Status != activity.StatusDone {
		return true
	}
	if task.EndDate == nil {
		return false
	}
	return core.Day(*task.EndDate, loc).After(day)
}

// energySeries aligns energy estimates to the grid. Days without an
// estimate get the baseline; several estimates on one day are averaged.
func (n *Normalizer) energySeries(grid *Grid, batch activity.Batch, normStats *insight.NormalizationStats) ([]float64, bool) {
	if len(batch.Energy) == 0 {
		if len(batch.EnergySeries) == 0 {
			return nil, false
		}
		return AlignSeries(batch.EnergySeries, grid.Len(), n.config.EnergyBaseline), true
	}

	perDay := make([][]float64, grid.Len())
	for _, est := range batch.Energy {
		if math.IsNaN(est.Level) || est.Level < 0 || est.Level > 100 {
			normStats.Dropped[DropEnergyOutOfRange]++
			continue
		}
		idx, ok := grid.IndexOf(est.Day)
		if !ok {
			normStats.Dropped[DropEnergyOutside]++
			continue
		}
		perDay[idx] = append(perDay[idx], est.Level)
	}

	out := filled(grid.Len(), FillBaseline, n.config.EnergyBaseline)
	for i, values := range perDay {
		if len(values) == 0 {
			continue
		}
		if mean, err := stats.Mean(values); err == nil {
			out[i] = mean
		}
	}
	return out, true
}
