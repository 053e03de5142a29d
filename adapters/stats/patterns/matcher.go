// Package patterns evaluates named conjunctions of threshold conditions over
// the daily metric series and scores how well their expected outcomes hold.
package patterns

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/montanaflynn/stats"

	"perfpulse/domain/insight"
)

// MinFrequency is the share of days below which a pattern is discarded
const MinFrequency = 0.05

// Matcher evaluates a list of pattern definitions
type Matcher struct {
	definitions []insight.PatternDefinition
}

// NewMatcher creates a matcher; nil definitions selects Canonical()
func NewMatcher(definitions []insight.PatternDefinition) *Matcher {
	if definitions == nil {
		definitions = Canonical()
	}
	return &Matcher{definitions: definitions}
}

// Definitions returns the patterns this matcher evaluates
func (m *Matcher) Definitions() []insight.PatternDefinition {
	return m.definitions
}

// MatchDays returns the indices of days on which every condition holds.
// Condition weights never influence the decision. ok is false when a
// referenced metric is absent.
func MatchDays(def insight.PatternDefinition, metrics insight.MetricSet) (days []int, ok bool) {
	for _, c := range def.Conditions {
		if !metrics.Has(c.Metric) {
			return nil, false
		}
	}
	days = []int{}
	for day := 0; day < metrics.Len(); day++ {
		if matchesDay(def.Conditions, metrics, day) {
			days = append(days, day)
		}
	}
	return days, true
}

func matchesDay(conditions []insight.Condition, metrics insight.MetricSet, day int) bool {
	if len(conditions) == 0 {
		return false
	}
	for _, c := range conditions {
		v, ok := metrics.Value(c.Metric, day)
		if !ok || !c.Evaluate(v) {
			return false
		}
	}
	return true
}

// Match evaluates every definition and returns those occurring on at least
// MinFrequency of days, ordered by frequency descending then pattern ID
func (m *Matcher) Match(metrics insight.MetricSet) []insight.PatternMatch {
	matches := []insight.PatternMatch{}
	total := metrics.Len()
	if total == 0 {
		return matches
	}

	for _, def := range m.definitions {
		days, ok := MatchDays(def, metrics)
		if !ok || len(days) == 0 {
			continue
		}
		frequency := float64(len(days)) / float64(total)
		if frequency < MinFrequency {
			continue
		}
		matches = append(matches, buildMatch(def, days, frequency, metrics))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Frequency != matches[j].Frequency {
			return matches[i].Frequency > matches[j].Frequency
		}
		return matches[i].PatternID < matches[j].PatternID
	})
	return matches
}

func buildMatch(def insight.PatternDefinition, days []int, frequency float64, metrics insight.MetricSet) insight.PatternMatch {
	dates := make([]time.Time, len(days))
	for i, d := range days {
		dates[i] = metrics.Days[d]
	}

	weights := make([]insight.ConditionWeight, len(def.Conditions))
	for i, c := range def.Conditions {
		weights[i] = insight.ConditionWeight{Condition: c.String(), Weight: c.Weight}
	}

	outcomes := scoreOutcomes(def.ExpectedOutcomes, days, metrics)
	accuracy := 0.0
	if len(outcomes) > 0 {
		values := make([]float64, len(outcomes))
		for i, o := range outcomes {
			values[i] = o.Accuracy
		}
		accuracy, _ = stats.Mean(values)
	}

	match := insight.PatternMatch{
		PatternID:          def.ID,
		Name:               def.Name,
		Description:        describe(def),
		MatchedDays:        days,
		MatchedDates:       dates,
		Frequency:          frequency,
		PredictiveAccuracy: accuracy,
		Outcomes:           outcomes,
		ConditionWeights:   weights,
	}
	match.Insights = insights(def, match, metrics.Len())
	return match
}

// scoreOutcomes compares the mean of each outcome metric over matched days
// with its expected value. Outcomes over absent metrics are skipped.
func scoreOutcomes(expected []insight.ExpectedOutcome, days []int, metrics insight.MetricSet) []insight.OutcomeAccuracy {
	outcomes := []insight.OutcomeAccuracy{}
	for _, exp := range expected {
		if !metrics.Has(exp.Metric) {
			continue
		}
		values := make([]float64, len(days))
		for i, d := range days {
			values[i], _ = metrics.Value(exp.Metric, d)
		}
		mean, err := stats.Mean(values)
		if err != nil {
			continue
		}
		outcomes = append(outcomes, insight.OutcomeAccuracy{
			Metric:     exp.Metric,
			Expected:   exp.ExpectedValue,
			ActualMean: mean,
			Accuracy:   OutcomeAccuracy(mean, exp),
		})
	}
	return outcomes
}

// OutcomeAccuracy is max(0, 100 − |mean−expected|/|expected|·100). With an
// expected value of zero it is 100 when |mean| lies within the declared
// variance and 0 otherwise.
func OutcomeAccuracy(mean float64, exp insight.ExpectedOutcome) float64 {
	if exp.ExpectedValue == 0 {
		if math.Abs(mean) <= exp.Variance {
			return 100
		}
		return 0
	}
	acc := 100 - math.Abs(mean-exp.ExpectedValue)/math.Abs(exp.ExpectedValue)*100
	return math.Max(0, acc)
}

// describe renders the human-readable pattern description
func describe(def insight.PatternDefinition) string {
	parts := make([]string, len(def.Conditions))
	for i, c := range def.Conditions {
		parts[i] = c.String()
	}
	rule := strings.Join(parts, " AND ")
	if def.Description == "" {
		return rule
	}
	return fmt.Sprintf("%s (%s)", def.Description, rule)
}

func insights(def insight.PatternDefinition, match insight.PatternMatch, total int) []string {
	out := []string{
		fmt.Sprintf("%s occurred on %d of %d days (%.0f%%)",
			def.Name, len(match.MatchedDays), total, match.Frequency*100),
	}
	for _, o := range match.Outcomes {
		out = append(out, fmt.Sprintf("On matching days %s averaged %.1f against an expected %.1f (%.0f%% accurate)",
			o.Metric, o.ActualMean, o.Expected, o.Accuracy))
	}
	switch {
	case match.PredictiveAccuracy > 70 && match.Frequency > 0.3:
		out = append(out, "Reliable recurring state worth protecting in your schedule")
	case match.PredictiveAccuracy > 70:
		out = append(out, "Strong outcomes when it happens; try to recreate it more often")
	case len(match.Outcomes) > 0 && match.PredictiveAccuracy < 40:
		out = append(out, "Outcomes differ from expectations; the pattern may not drive results for you")
	}
	return out
}
