package patterns

import "perfpulse/domain/insight"

// Canonical returns the built-in pattern definitions. Every call returns a
// fresh slice so callers can never mutate a shared catalog.
func Canonical() []insight.PatternDefinition {
	return []insight.PatternDefinition{
		{
			ID:          "peak_performance_state",
			Name:        "Peak Performance State",
			Description: "High energy combined with long focus sessions",
			Conditions: []insight.Condition{
				{Metric: insight.MetricEnergy, Operator: insight.OpGreaterThan, Threshold: 70, Weight: 0.4},
				{Metric: insight.MetricFocusTime, Operator: insight.OpGreaterThan, Threshold: 120, Weight: 0.6},
			},
			ExpectedOutcomes: []insight.ExpectedOutcome{
				{Metric: insight.MetricProductivity, ExpectedValue: 80, Variance: 10, Impact: insight.ImpactHigh},
			},
		},
		{
			ID:          "break_sweet_spot",
			Name:        "Break-Time Sweet Spot",
			Description: "Between 30 and 90 minutes of breaks across the working day",
			Conditions: []insight.Condition{
				{Metric: insight.MetricBreakTime, Operator: insight.OpBetween, Min: 30, Max: 90, Weight: 1},
			},
			ExpectedOutcomes: []insight.ExpectedOutcome{
				{Metric: insight.MetricProductivity, ExpectedValue: 75, Variance: 12, Impact: insight.ImpactMedium},
				{Metric: insight.MetricEnergy, ExpectedValue: 70, Variance: 10, Impact: insight.ImpactMedium},
			},
		},
		{
			ID:          "morning_peak",
			Name:        "Morning Peak Performance",
			Description: "Most of the day's activity happens before noon",
			Conditions: []insight.Condition{
				{Metric: insight.MetricMorning, Operator: insight.OpGreaterThan, Threshold: 60, Weight: 0.7},
				{Metric: insight.MetricActions, Operator: insight.OpGreaterThan, Threshold: 5, Weight: 0.3},
			},
			ExpectedOutcomes: []insight.ExpectedOutcome{
				{Metric: insight.MetricProductivity, ExpectedValue: 75, Variance: 10, Impact: insight.ImpactMedium},
			},
		},
		{
			ID:          "task_complexity_balance",
			Name:        "Task Complexity Balance",
			Description: "Moderately sized active tasks while still closing work",
			Conditions: []insight.Condition{
				{Metric: insight.MetricComplexity, Operator: insight.OpBetween, Min: 1, Max: 3, Weight: 0.5},
				{Metric: insight.MetricTasksDone, Operator: insight.OpGreaterThan, Threshold: 0, Weight: 0.5},
			},
			ExpectedOutcomes: []insight.ExpectedOutcome{
				{Metric: insight.MetricProductivity, ExpectedValue: 70, Variance: 15, Impact: insight.ImpactMedium},
				{Metric: insight.MetricTasksDone, ExpectedValue: 2, Variance: 1, Impact: insight.ImpactLow},
			},
		},
		{
			ID:          "low_distraction_focus",
			Name:        "Low-Distraction Focus",
			Description: "Few interruptions and sustained focus",
			Conditions: []insight.Condition{
				{Metric: insight.MetricDistractions, Operator: insight.OpLessThan, Threshold: 3, Weight: 0.5},
				{Metric: insight.MetricFocusTime, Operator: insight.OpGreaterThan, Threshold: 90, Weight: 0.5},
			},
			ExpectedOutcomes: []insight.ExpectedOutcome{
				{Metric: insight.MetricProductivity, ExpectedValue: 80, Variance: 10, Impact: insight.ImpactHigh},
				{Metric: insight.MetricFocusTime, ExpectedValue: 150, Variance: 30, Impact: insight.ImpactMedium},
			},
		},
	}
}
