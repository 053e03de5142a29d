package temporal

import (
	"math"
	"sort"
	"time"

	"perfpulse/domain/activity"
)

// FocusSpan is a run of work events with no gap above the inactivity threshold
type FocusSpan struct {
	Start  time.Time
	End    time.Time
	Events int
}

// Minutes returns the span length in minutes
func (s FocusSpan) Minutes() float64 {
	return s.End.Sub(s.Start).Minutes()
}

// DetectFocusSpans walks work events chronologically, keeping one open span
// and closing it whenever the gap from the span's end to the next event
// exceeds inactivity. The last open span is closed at the end of input.
func DetectFocusSpans(events []activity.Event, inactivity time.Duration) []FocusSpan {
	if len(events) == 0 {
		return nil
	}
	sorted := make([]activity.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var spans []FocusSpan
	open := FocusSpan{Start: sorted[0].Timestamp, End: sorted[0].End(), Events: 1}
	for _, ev := range sorted[1:] {
		if ev.Timestamp.Sub(open.End) > inactivity {
			spans = append(spans, open)
			open = FocusSpan{Start: ev.Timestamp, End: ev.End(), Events: 1}
			continue
		}
		if ev.End().After(open.End) {
			open.End = ev.End()
		}
		open.Events++
	}
	return append(spans, open)
}

// ClipToDay returns copies of events whose declared durations are cut at
// dayEnd, so spans and elapsed time never run into the next day.
func ClipToDay(events []activity.Event, dayEnd time.Time) []activity.Event {
	clipped := make([]activity.Event, len(events))
	for i, ev := range events {
		if ev.End().After(dayEnd) {
			secs := math.Max(0, dayEnd.Sub(ev.Timestamp).Seconds())
			ev.DurationSeconds = &secs
		}
		clipped[i] = ev
	}
	return clipped
}

// FocusMinutes sums the length of every closed span
func FocusMinutes(spans []FocusSpan) float64 {
	total := 0.0
	for _, s := range spans {
		total += s.Minutes()
	}
	return total
}

// BreakMinutes is the elapsed wall time from the first to the last work
// event minus a fixed active-time estimate per action, floored at zero.
func BreakMinutes(events []activity.Event, activePerAction time.Duration) float64 {
	if len(events) == 0 {
		return 0
	}
	first := events[0].Timestamp
	last := events[0].End()
	for _, ev := range events[1:] {
		if ev.Timestamp.Before(first) {
			first = ev.Timestamp
		}
		if ev.End().After(last) {
			last = ev.End()
		}
	}
	elapsed := last.Sub(first).Minutes()
	active := float64(len(events)) * activePerAction.Minutes()
	if elapsed-active < 0 {
		return 0
	}
	return elapsed - active
}
