package temporal

import (
	"time"

	"perfpulse/domain/core"
	"perfpulse/domain/insight"
)

// ============================================================================
// CALENDAR-DAY ALIGNMENT
// ============================================================================
// Every source (events, tasks, energy estimates) is joined onto one grid of
// calendar days. A day with no observations receives the metric's default
// from DefaultFill; it is never omitted.
// ============================================================================

// FillStrategy defines how to handle days without observations
type FillStrategy string

const (
	FillZero     FillStrategy = "zero"     // counts and durations
	FillBaseline FillStrategy = "baseline" // energy: the configured baseline
	FillForward  FillStrategy = "forward"  // raw series: repeat the last known value
)

// DefaultFill is the documented default-fill policy per metric
var DefaultFill = map[insight.MetricName]FillStrategy{
	insight.MetricActions:      FillZero,
	insight.MetricFocusTime:    FillZero,
	insight.MetricBreakTime:    FillZero,
	insight.MetricDistractions: FillZero,
	insight.MetricMorning:      FillZero,
	insight.MetricTasksStarted: FillZero,
	insight.MetricTasksDone:    FillZero,
	insight.MetricComplexity:   FillZero,
	insight.MetricOverdue:      FillZero,
	insight.MetricEnergy:       FillBaseline,
}

// Grid is the ascending list of calendar days in an analysis window
type Grid struct {
	Days     []time.Time
	Location *time.Location
	index    map[string]int
}

// NewGrid builds the day grid ending on the calendar day of end
func NewGrid(end time.Time, days int, loc *time.Location) *Grid {
	if loc == nil {
		loc = time.UTC
	}
	grid := &Grid{
		Days:     core.DayRange(end, days, loc),
		Location: loc,
	}
	grid.index = make(map[string]int, len(grid.Days))
	for i, d := range grid.Days {
		grid.index[core.DayKey(d)] = i
	}
	return grid
}

// Len returns the number of days
func (g *Grid) Len() int {
	return len(g.Days)
}

// IndexOf returns the grid slot of t's calendar day
func (g *Grid) IndexOf(t time.Time) (int, bool) {
	i, ok := g.index[core.DayKey(core.Day(t, g.Location))]
	return i, ok
}

// Window describes the grid's span
func (g *Grid) Window() insight.Window {
	if len(g.Days) == 0 {
		return insight.Window{}
	}
	return insight.Window{
		Start: g.Days[0],
		End:   g.Days[len(g.Days)-1],
		Days:  len(g.Days),
	}
}

// AlignSeries reconciles a raw chronological series with the canonical
// length n. A shorter series is taken to start on the first day and is
// extended by forward-repeating its last value (def when empty). A longer
// series is taken to end on the last day and keeps its most recent n
// values. The result always has length n.
func AlignSeries(raw []float64, n int, def float64) []float64 {
	if n <= 0 {
		return []float64{}
	}
	out := make([]float64, n)
	if len(raw) >= n {
		copy(out, raw[len(raw)-n:])
		return out
	}
	copy(out, raw)
	last := def
	if len(raw) > 0 {
		last = raw[len(raw)-1]
	}
	for i := len(raw); i < n; i++ {
		out[i] = last
	}
	return out
}

// filled returns a series of length n holding the fill value for strategy
func filled(n int, strategy FillStrategy, baseline float64) []float64 {
	out := make([]float64, n)
	if strategy == FillBaseline {
		for i := range out {
			out[i] = baseline
		}
	}
	return out
}
