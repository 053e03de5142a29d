// Package segments partitions the analysis window into possibly overlapping
// groups of days that satisfy a single threshold criterion.
package segments

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"perfpulse/domain/insight"
)

// BuiltIn returns the default segment definitions
func BuiltIn() []insight.SegmentDefinition {
	return []insight.SegmentDefinition{
		{ID: "high_performers", Name: "High Performance Days",
			Criterion: insight.Condition{Metric: insight.MetricProductivity, Operator: insight.OpGreaterThan, Threshold: 80}},
		{ID: "low_performers", Name: "Low Performance Days",
			Criterion: insight.Condition{Metric: insight.MetricProductivity, Operator: insight.OpLessThan, Threshold: 50}},
		{ID: "deep_focus_days", Name: "Deep Focus Days",
			Criterion: insight.Condition{Metric: insight.MetricFocusTime, Operator: insight.OpGreaterThan, Threshold: 120}},
		{ID: "high_energy_days", Name: "High Energy Days",
			Criterion: insight.Condition{Metric: insight.MetricEnergy, Operator: insight.OpGreaterThan, Threshold: 70}},
		{ID: "low_energy_days", Name: "Low Energy Days",
			Criterion: insight.Condition{Metric: insight.MetricEnergy, Operator: insight.OpLessThan, Threshold: 40}},
		{ID: "distracted_days", Name: "Distracted Days",
			Criterion: insight.Condition{Metric: insight.MetricDistractions, Operator: insight.OpGreaterThan, Threshold: 5}},
	}
}

// trait is a secondary threshold on a member average that yields a
// human-readable characteristic
type trait struct {
	label  string
	metric insight.MetricName
	holds  func(avg float64) bool
}

var traits = []trait{
	{"Extended focus sessions", insight.MetricFocusTime, func(v float64) bool { return v > 120 }},
	{"High energy levels", insight.MetricEnergy, func(v float64) bool { return v > 70 }},
	{"Low distraction environment", insight.MetricDistractions, func(v float64) bool { return v < 3 }},
	{"Strong task throughput", insight.MetricTasksDone, func(v float64) bool { return v >= 3 }},
	{"Healthy break rhythm", insight.MetricBreakTime, func(v float64) bool { return v >= 30 && v <= 90 }},
	{"Low energy", insight.MetricEnergy, func(v float64) bool { return v < 40 }},
	{"Frequent interruptions", insight.MetricDistractions, func(v float64) bool { return v > 5 }},
}

// Segmenter evaluates segment definitions over a metric set
type Segmenter struct {
	definitions []insight.SegmentDefinition
}

// NewSegmenter creates a segmenter; nil definitions selects BuiltIn()
func NewSegmenter(definitions []insight.SegmentDefinition) *Segmenter {
	if definitions == nil {
		definitions = BuiltIn()
	}
	return &Segmenter{definitions: definitions}
}

// Members returns exactly the day indices whose criterion metric satisfies
// the criterion. ok is false when the metric is absent.
func Members(def insight.SegmentDefinition, metrics insight.MetricSet) (days []int, ok bool) {
	series, ok := metrics.Get(def.Criterion.Metric)
	if !ok {
		return nil, false
	}
	days = []int{}
	for i, v := range series {
		if def.Criterion.Evaluate(v) {
			days = append(days, i)
		}
	}
	return days, true
}

// Segment evaluates every definition in declaration order. Segments with no
// members or an absent criterion metric are omitted.
func (s *Segmenter) Segment(metrics insight.MetricSet) []insight.Segment {
	out := []insight.Segment{}
	total := metrics.Len()
	if total == 0 {
		return out
	}

	for _, def := range s.definitions {
		days, ok := Members(def, metrics)
		if !ok || len(days) == 0 {
			continue
		}
		averages := memberAverages(days, metrics)
		out = append(out, insight.Segment{
			ID:              def.ID,
			Name:            def.Name,
			Criterion:       def.Criterion,
			MemberDays:      days,
			Fraction:        float64(len(days)) / float64(total),
			MetricAverages:  averages,
			Characteristics: characteristics(def, averages),
		})
	}
	return out
}

func memberAverages(days []int, metrics insight.MetricSet) map[insight.MetricName]float64 {
	averages := make(map[insight.MetricName]float64, len(metrics.Series))
	values := make([]float64, len(days))
	for _, name := range metrics.Names() {
		for i, d := range days {
			values[i], _ = metrics.Value(name, d)
		}
		mean, err := stats.Mean(values)
		if err != nil {
			continue
		}
		averages[name] = mean
	}
	return averages
}

// characteristics lists the traits whose thresholds hold on member averages,
// falling back to the criterion metric's average when none do
func characteristics(def insight.SegmentDefinition, averages map[insight.MetricName]float64) []string {
	out := []string{}
	for _, t := range traits {
		avg, ok := averages[t.metric]
		if !ok || !t.holds(avg) {
			continue
		}
		out = append(out, t.label)
	}
	if len(out) == 0 {
		if avg, ok := averages[def.Criterion.Metric]; ok {
			out = append(out, fmt.Sprintf("Average %s of %.1f", def.Criterion.Metric, avg))
		}
	}
	return out
}
