// Package planner merges analyzer outputs into a bucketed optimization plan
// and a ranked list of key insights. Every ordering uses an explicit
// secondary key so identical inputs always yield identical plans.
package planner

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"perfpulse/adapters/stats/correlation"
	"perfpulse/domain/insight"
)

// Bucket caps
const (
	MaxQuickWins   = 5
	MaxLongTerm    = 5
	MaxExperiments = 3
	MaxKeyInsights = 10
)

// Candidate thresholds
const (
	minCorrelation         = 0.3
	topCorrelations        = 3
	minPatternFrequency    = 0.3
	minPatternAccuracy     = 70.0
	minCausalStrength      = 60.0
	surprisingMagnitude    = 0.6
	surprisingSignificance = 0.05
	keyCorrelation         = 0.5
)

// Inputs bundles everything the planner consumes
type Inputs struct {
	Correlations []insight.CorrelationResult
	Multivariate []insight.MultivariateAnalysis
	Patterns     []insight.PatternMatch
	Segments     []insight.Segment
	CausalLinks  []insight.CausalLink
	TotalDays    int
}

// Planner builds optimization plans
type Planner struct{}

// NewPlanner creates a planner
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan merges candidates, deduplicates them by ID and buckets them by
// timeframe
func (p *Planner) Plan(in Inputs) insight.OptimizationPlan {
	candidates := dedupe(Candidates(in))

	plan := insight.OptimizationPlan{
		QuickWins:          []insight.Recommendation{},
		LongTermStrategy:   []insight.Recommendation{},
		ExperimentsToTry:   []insight.Recommendation{},
		SurprisingFindings: SurprisingFindings(in.Correlations),
		KeyInsights:        KeyInsights(in),
	}
	for _, rec := range candidates {
		switch rec.Timeframe {
		case insight.TimeframeImmediate, insight.TimeframeShortTerm:
			plan.QuickWins = append(plan.QuickWins, rec)
		case insight.TimeframeLongTerm:
			plan.LongTermStrategy = append(plan.LongTermStrategy, rec)
		case insight.TimeframeExperimental:
			plan.ExperimentsToTry = append(plan.ExperimentsToTry, rec)
		}
	}

	plan.QuickWins = rank(plan.QuickWins, MaxQuickWins)
	plan.LongTermStrategy = rank(plan.LongTermStrategy, MaxLongTerm)
	plan.ExperimentsToTry = rank(plan.ExperimentsToTry, MaxExperiments)
	return plan
}

// Candidates collects recommendations from every analyzer in a fixed source
// order: multivariate, correlation, pattern, causal
func Candidates(in Inputs) []insight.Recommendation {
	out := []insight.Recommendation{}
	for _, analysis := range in.Multivariate {
		out = append(out, analysis.Recommendations...)
	}
	out = append(out, fromCorrelations(in.Correlations)...)
	out = append(out, fromPatterns(in.Patterns)...)
	out = append(out, fromCausal(in.CausalLinks)...)
	return out
}

// ============================================================================
// Candidate sources
// ============================================================================

func fromCorrelations(results []insight.CorrelationResult) []insight.Recommendation {
	sorted := append([]insight.CorrelationResult(nil), results...)
	correlation.SortByMagnitude(sorted)

	out := []insight.Recommendation{}
	positive, negative := 0, 0
	for _, res := range sorted {
		if math.Abs(res.Coefficient) < minCorrelation {
			continue
		}
		var action string
		switch {
		case res.Coefficient > 0 && positive < topCorrelations:
			positive++
			action = fmt.Sprintf("Build routines that raise %s and %s together (r=%.2f)",
				humanize(res.Factor1), humanize(res.Factor2), res.Coefficient)
		case res.Coefficient < 0 && negative < topCorrelations:
			negative++
			action = fmt.Sprintf("Limit %s on days that depend on %s (r=%.2f)",
				humanize(res.Factor1), humanize(res.Factor2), res.Coefficient)
		default:
			continue
		}
		out = append(out, insight.Recommendation{
			ID:                  fmt.Sprintf("correlation:%s:%s", res.Factor1, res.Factor2),
			Action:              action,
			Source:              insight.SourceCorrelation,
			ExpectedImprovement: math.Abs(res.Coefficient) * 50,
			Confidence:          res.HeuristicConfidence,
			Timeframe:           insight.TimeframeLongTerm,
			Difficulty:          insight.DifficultyModerate,
		})
	}
	return out
}

func fromPatterns(matches []insight.PatternMatch) []insight.Recommendation {
	out := []insight.Recommendation{}
	for _, m := range matches {
		if m.Frequency <= minPatternFrequency || m.PredictiveAccuracy <= minPatternAccuracy {
			continue
		}
		out = append(out, insight.Recommendation{
			ID:                  "pattern:" + m.PatternID,
			Action:              fmt.Sprintf("Recreate %s more often: %s", m.Name, m.Description),
			Source:              insight.SourcePattern,
			ExpectedImprovement: (1 - m.Frequency) * m.PredictiveAccuracy / 2,
			Confidence:          m.PredictiveAccuracy,
			Timeframe:           insight.TimeframeLongTerm,
			Difficulty:          insight.DifficultyModerate,
		})
	}
	return out
}

func fromCausal(links []insight.CausalLink) []insight.Recommendation {
	out := []insight.Recommendation{}
	for _, link := range links {
		if link.Strength <= minCausalStrength {
			continue
		}
		verb := "Raise"
		if link.Coefficient < 0 {
			verb = "Lower"
		}
		action := fmt.Sprintf("%s %s for a week and track %s %s",
			verb, humanize(link.Cause), humanize(link.Effect), lagPhrase(link.LagDays))
		out = append(out, insight.Recommendation{
			ID:                  fmt.Sprintf("causal:%s:%s:%d", link.Cause, link.Effect, link.LagDays),
			Action:              action,
			Source:              insight.SourceCausal,
			ExpectedImprovement: link.Strength / 2,
			Confidence:          link.HeuristicConfidence,
			Timeframe:           insight.TimeframeExperimental,
			Difficulty:          insight.DifficultyModerate,
		})
	}
	return out
}

func lagPhrase(lag int) string {
	switch lag {
	case 0:
		return "the same day"
	case 1:
		return "the next day"
	}
	return fmt.Sprintf("%d days later", lag)
}

// ============================================================================
// Ordering
// ============================================================================

func dedupe(recs []insight.Recommendation) []insight.Recommendation {
	seen := make(map[string]bool, len(recs))
	out := make([]insight.Recommendation, 0, len(recs))
	for _, rec := range recs {
		if seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		out = append(out, rec)
	}
	return out
}

// rank orders by expected improvement, then confidence, then ID, and caps
func rank(recs []insight.Recommendation, limit int) []insight.Recommendation {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].ExpectedImprovement != recs[j].ExpectedImprovement {
			return recs[i].ExpectedImprovement > recs[j].ExpectedImprovement
		}
		if recs[i].Confidence != recs[j].Confidence {
			return recs[i].Confidence > recs[j].Confidence
		}
		return recs[i].ID < recs[j].ID
	})
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

// SurprisingFindings returns correlations with |r| > 0.6 and heuristic
// significance below 0.05, strongest first
func SurprisingFindings(results []insight.CorrelationResult) []insight.CorrelationResult {
	out := []insight.CorrelationResult{}
	for _, res := range results {
		if math.Abs(res.Coefficient) > surprisingMagnitude && res.HeuristicSignificance < surprisingSignificance {
			out = append(out, res)
		}
	}
	correlation.SortByMagnitude(out)
	return out
}

// ============================================================================
// Key insights
// ============================================================================

// KeyInsights scores headline findings from every analyzer and returns the
// top MaxKeyInsights by score then ID
func KeyInsights(in Inputs) []insight.KeyInsight {
	out := []insight.KeyInsight{}

	for _, res := range in.Correlations {
		if math.Abs(res.Coefficient) < keyCorrelation {
			continue
		}
		relation := "rise and fall together"
		if res.Coefficient < 0 {
			relation = "move in opposite directions"
		}
		detail := fmt.Sprintf("r=%.2f (%s) over %d days, heuristic confidence %.0f",
			res.Coefficient, strings.ReplaceAll(string(res.Strength), "_", " "), res.SampleSize, res.HeuristicConfidence)
		out = append(out, insight.KeyInsight{
			ID:     fmt.Sprintf("correlation:%s:%s", res.Factor1, res.Factor2),
			Kind:   insight.InsightCorrelation,
			Title:  fmt.Sprintf("%s and %s %s", capitalize(humanize(res.Factor1)), humanize(res.Factor2), relation),
			Detail: detail,
			Score:  math.Abs(res.Coefficient) * 100,
		})
	}

	for _, m := range in.Patterns {
		out = append(out, insight.KeyInsight{
			ID:     "pattern:" + m.PatternID,
			Kind:   insight.InsightPattern,
			Title:  fmt.Sprintf("%s on %.0f%% of days", m.Name, m.Frequency*100),
			Detail: m.Description,
			Score:  m.PredictiveAccuracy * math.Sqrt(m.Frequency),
		})
	}

	for _, link := range in.CausalLinks {
		out = append(out, insight.KeyInsight{
			ID:     fmt.Sprintf("causal:%s:%s:%d", link.Cause, link.Effect, link.LagDays),
			Kind:   insight.InsightCausal,
			Title:  capitalize(link.Mechanism),
			Detail: fmt.Sprintf("strength %.0f at a lag of %d day(s), heuristic confidence %.0f", link.Strength, link.LagDays, link.HeuristicConfidence),
			Score:  link.Strength * link.HeuristicConfidence / 100,
		})
	}

	for _, seg := range in.Segments {
		detail := strings.Join(seg.Characteristics, "; ")
		out = append(out, insight.KeyInsight{
			ID:     "segment:" + seg.ID,
			Kind:   insight.InsightSegment,
			Title:  fmt.Sprintf("%s: %d of %d days", seg.Name, seg.Size(), in.TotalDays),
			Detail: detail,
			Score:  seg.Fraction * 50,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > MaxKeyInsights {
		out = out[:MaxKeyInsights]
	}
	return out
}

func humanize(name insight.MetricName) string {
	return strings.ReplaceAll(string(name), "_", " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
