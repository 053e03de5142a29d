// Package correlation computes pairwise Pearson associations between every
// metric series of an analysis window.
package correlation

import (
	"math"
	"sort"

	"perfpulse/domain/insight"
)

// Analyzer computes pairwise correlations
type Analyzer struct{}

// NewAnalyzer creates a correlation analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Compute builds the result for one pair of equal-length series
func Compute(f1, f2 insight.MetricName, x, y []float64) insight.CorrelationResult {
	r := Pearson(x, y)
	n := len(x)
	return insight.CorrelationResult{
		Factor1:               f1,
		Factor2:               f2,
		Coefficient:           r,
		Strength:              ClassifyStrength(r),
		Direction:             ClassifyDirection(r),
		HeuristicConfidence:   HeuristicConfidence(r, n),
		SampleSize:            n,
		HeuristicSignificance: HeuristicSignificance(r, n),
		ReferencePValue:       ReferencePValue(r, n),
		RankCoefficient:       Spearman(x, y),
	}
}

// Analyze correlates every unordered pair of metrics. Windows of two days or
// fewer yield an empty slice. Results are ordered by |r| descending, then by
// factor names.
func (a *Analyzer) Analyze(metrics insight.MetricSet) []insight.CorrelationResult {
	results := []insight.CorrelationResult{}
	if metrics.Len() <= 2 {
		return results
	}

	names := metrics.Names()
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			x, _ := metrics.Get(names[i])
			y, _ := metrics.Get(names[j])
			if len(x) != len(y) {
				continue
			}
			results = append(results, Compute(names[i], names[j], x, y))
		}
	}

	SortByMagnitude(results)
	return results
}

// SortByMagnitude orders results by |r| descending with factor names as
// the tie-breakers
func SortByMagnitude(results []insight.CorrelationResult) {
	sort.SliceStable(results, func(i, j int) bool {
		ai, aj := math.Abs(results[i].Coefficient), math.Abs(results[j].Coefficient)
		if ai != aj {
			return ai > aj
		}
		if results[i].Factor1 != results[j].Factor1 {
			return results[i].Factor1 < results[j].Factor1
		}
		return results[i].Factor2 < results[j].Factor2
	})
}

// Matrix is a symmetric lookup of pairwise coefficients
type Matrix map[insight.MetricName]map[insight.MetricName]float64

// NewMatrix computes r for every ordered pair of metrics (r(a,a) is not stored)
func NewMatrix(metrics insight.MetricSet) Matrix {
	m := Matrix{}
	names := metrics.Names()
	for _, name := range names {
		m[name] = map[insight.MetricName]float64{}
	}
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			x, _ := metrics.Get(names[i])
			y, _ := metrics.Get(names[j])
			r := Pearson(x, y)
			m[names[i]][names[j]] = r
			m[names[j]][names[i]] = r
		}
	}
	return m
}

// Get returns r(a, b), or 0 for unknown metrics
func (m Matrix) Get(a, b insight.MetricName) float64 {
	if row, ok := m[a]; ok {
		return row[b]
	}
	return 0
}
