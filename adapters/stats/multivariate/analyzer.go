// Package multivariate decomposes each target metric into ranked
// contributing factors. ModelAccuracy is a rough explained-variance proxy
// (sum of contributions), not a fitted R².
package multivariate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"perfpulse/adapters/stats/correlation"
	"perfpulse/domain/insight"
)

const (
	minContribution       = 5.0
	recommendContribution = 10.0
	immediateContribution = 20.0
	easyImportance        = 70.0
	interactionThreshold  = 0.3
	maxInteractions       = 3
)

// DefaultTargets are the metrics decomposed when present
var DefaultTargets = []insight.MetricName{
	insight.MetricProductivity,
	insight.MetricFocusTime,
	insight.MetricEnergy,
	insight.MetricTasksDone,
}

// Analyzer runs contributor analysis over a fixed target list
type Analyzer struct {
	targets []insight.MetricName
}

// NewAnalyzer creates an analyzer; nil targets selects DefaultTargets
func NewAnalyzer(targets []insight.MetricName) *Analyzer {
	if targets == nil {
		targets = DefaultTargets
	}
	return &Analyzer{targets: targets}
}

// Analyze returns one analysis per target present in the metric set, in
// target-list order
func (a *Analyzer) Analyze(metrics insight.MetricSet) []insight.MultivariateAnalysis {
	analyses := []insight.MultivariateAnalysis{}
	if metrics.Len() <= 2 {
		return analyses
	}

	matrix := correlation.NewMatrix(metrics)
	n := metrics.Len()
	for _, target := range a.targets {
		if !metrics.Has(target) {
			continue
		}
		analyses = append(analyses, analyzeTarget(target, metrics, matrix, n))
	}
	return analyses
}

func analyzeTarget(target insight.MetricName, metrics insight.MetricSet, matrix correlation.Matrix, n int) insight.MultivariateAnalysis {
	contributors := []insight.Contributor{}
	for _, predictor := range metrics.Names() {
		if predictor == target {
			continue
		}
		r := matrix.Get(target, predictor)
		contribution := math.Abs(r) * 100
		if contribution < minContribution {
			continue
		}
		contributors = append(contributors, insight.Contributor{
			Predictor:       predictor,
			Coefficient:     r,
			ContributionPct: contribution,
			Direction:       correlation.ClassifyDirection(r),
			Importance:      math.Min(100, math.Abs(r)*100+math.Min(20, float64(n))),
		})
	}

	sort.SliceStable(contributors, func(i, j int) bool {
		if contributors[i].ContributionPct != contributors[j].ContributionPct {
			return contributors[i].ContributionPct > contributors[j].ContributionPct
		}
		return contributors[i].Predictor < contributors[j].Predictor
	})

	for i := range contributors {
		contributors[i].InteractingFactors = interactions(contributors[i].Predictor, target, contributors, matrix)
	}

	total := 0.0
	for _, c := range contributors {
		total += c.ContributionPct
	}

	return insight.MultivariateAnalysis{
		TargetMetric:    target,
		Contributors:    contributors,
		ModelAccuracy:   math.Min(100, total),
		Explanation:     explain(target, contributors),
		Recommendations: recommend(target, contributors),
	}
}

// interactions lists other retained predictors whose pairwise |r| with the
// predictor exceeds the interaction threshold, strongest first
func interactions(predictor, target insight.MetricName, contributors []insight.Contributor, matrix correlation.Matrix) []insight.MetricName {
	type pair struct {
		name insight.MetricName
		abs  float64
	}
	var found []pair
	for _, other := range contributors {
		if other.Predictor == predictor || other.Predictor == target {
			continue
		}
		abs := math.Abs(matrix.Get(predictor, other.Predictor))
		if abs > interactionThreshold {
			found = append(found, pair{name: other.Predictor, abs: abs})
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].abs != found[j].abs {
			return found[i].abs > found[j].abs
		}
		return found[i].name < found[j].name
	})
	if len(found) > maxInteractions {
		found = found[:maxInteractions]
	}
	names := make([]insight.MetricName, len(found))
	for i, p := range found {
		names[i] = p.name
	}
	return names
}

func recommend(target insight.MetricName, contributors []insight.Contributor) []insight.Recommendation {
	recs := []insight.Recommendation{}
	for _, c := range contributors {
		if c.ContributionPct <= recommendContribution {
			continue
		}
		verb := "Increase"
		if c.Coefficient < 0 {
			verb = "Reduce"
		}
		timeframe := insight.TimeframeShortTerm
		if c.ContributionPct > immediateContribution {
			timeframe = insight.TimeframeImmediate
		}
		difficulty := insight.DifficultyModerate
		if c.Importance > easyImportance {
			difficulty = insight.DifficultyEasy
		}
		recs = append(recs, insight.Recommendation{
			ID:                  fmt.Sprintf("multivariate:%s:%s", target, c.Predictor),
			Action:              fmt.Sprintf("%s %s to improve %s", verb, humanize(c.Predictor), humanize(target)),
			Source:              insight.SourceMultivariate,
			ExpectedImprovement: c.ContributionPct,
			Confidence:          c.Importance,
			Timeframe:           timeframe,
			Difficulty:          difficulty,
		})
	}
	return recs
}

func explain(target insight.MetricName, contributors []insight.Contributor) string {
	if len(contributors) == 0 {
		return fmt.Sprintf("No factor explains more than %.0f%% of %s.", minContribution, humanize(target))
	}
	limit := len(contributors)
	if limit > 3 {
		limit = 3
	}
	parts := make([]string, limit)
	for i := 0; i < limit; i++ {
		c := contributors[i]
		parts[i] = fmt.Sprintf("%s (%.0f%%, %s)", humanize(c.Predictor), c.ContributionPct, c.Direction)
	}
	return fmt.Sprintf("%s is most associated with %s.", capitalize(humanize(target)), strings.Join(parts, ", "))
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
