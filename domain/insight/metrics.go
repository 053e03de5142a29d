package insight

import (
	"sort"
	"time"
)

// MetricName identifies one daily series
type MetricName string

const (
	MetricActions      MetricName = "actions_count"
	MetricFocusTime    MetricName = "focus_time"
	MetricBreakTime    MetricName = "break_time"
	MetricDistractions MetricName = "distraction_events"
	MetricMorning      MetricName = "morning_activity"
	MetricTasksStarted MetricName = "tasks_started"
	MetricTasksDone    MetricName = "tasks_completed"
	MetricComplexity   MetricName = "task_complexity"
	MetricOverdue      MetricName = "overdue_tasks"
	MetricProductivity MetricName = "productivity_score"
	MetricEnergy       MetricName = "energy_level"
)

// MetricSet is the normalizer's output: one value per calendar day for every
// metric, all series sharing len(Days).
type MetricSet struct {
	Days   []time.Time              `json:"days"`
	Series map[MetricName][]float64 `json:"series"`
}

// Len returns the number of days in the analysis window
func (m MetricSet) Len() int {
	return len(m.Days)
}

// Has reports whether the metric is present
func (m MetricSet) Has(name MetricName) bool {
	_, ok := m.Series[name]
	return ok
}

// Get returns the series for a metric
func (m MetricSet) Get(name MetricName) ([]float64, bool) {
	s, ok := m.Series[name]
	return s, ok
}

// Names returns the metric names sorted lexicographically
func (m MetricSet) Names() []MetricName {
	names := make([]MetricName, 0, len(m.Series))
	for name := range m.Series {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Value returns the value of a metric on a day index
func (m MetricSet) Value(name MetricName, day int) (float64, bool) {
	s, ok := m.Series[name]
	if !ok || day < 0 || day >= len(s) {
		return 0, false
	}
	return s[day], true
}
