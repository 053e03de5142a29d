// Package causal screens curated cause/effect pairs for lagged correlation.
// A link here is a heuristic association over time, not a causal proof.
package causal

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"perfpulse/adapters/stats/correlation"
	"perfpulse/domain/insight"
)

const (
	// MinPairStrength drops a pair before it becomes a link
	MinPairStrength = 20.0
	// MinReportedStrength filters the aggregate output
	MinReportedStrength = 30.0
	// MaxEvidence bounds the samples attached to each link
	MaxEvidence = 3
	minSamples  = 3
)

// Hypothesis is a candidate cause/effect pair with the lag in days at which
// the effect is expected to show
type Hypothesis struct {
	Cause  insight.MetricName
	Effect insight.MetricName
	Lag    int
}

// DefaultHypotheses returns the curated candidate pairs
func DefaultHypotheses() []Hypothesis {
	return []Hypothesis{
		{insight.MetricFocusTime, insight.MetricProductivity, 0},
		{insight.MetricEnergy, insight.MetricProductivity, 0},
		{insight.MetricEnergy, insight.MetricFocusTime, 0},
		{insight.MetricBreakTime, insight.MetricEnergy, 1},
		{insight.MetricDistractions, insight.MetricFocusTime, 0},
		{insight.MetricFocusTime, insight.MetricEnergy, 1},
		{insight.MetricTasksDone, insight.MetricEnergy, 1},
		{insight.MetricOverdue, insight.MetricDistractions, 1},
		{insight.MetricComplexity, insight.MetricBreakTime, 1},
	}
}

// Analyzer evaluates hypotheses over a metric set
type Analyzer struct {
	hypotheses []Hypothesis
}

// NewAnalyzer creates an analyzer; nil hypotheses selects DefaultHypotheses()
func NewAnalyzer(hypotheses []Hypothesis) *Analyzer {
	if hypotheses == nil {
		hypotheses = DefaultHypotheses()
	}
	return &Analyzer{hypotheses: hypotheses}
}

// Link evaluates one hypothesis. ok is false when a metric is absent, fewer
// than three shifted samples remain, or the strength is below
// MinPairStrength.
func Link(h Hypothesis, metrics insight.MetricSet) (insight.CausalLink, bool) {
	cause, okC := metrics.Get(h.Cause)
	effect, okE := metrics.Get(h.Effect)
	if !okC || !okE || h.Lag < 0 {
		return insight.CausalLink{}, false
	}

	x, y := shift(cause, effect, h.Lag)
	if len(x) < minSamples {
		return insight.CausalLink{}, false
	}

	r := correlation.Pearson(x, y)
	strength := math.Abs(r) * 100
	if strength < MinPairStrength {
		return insight.CausalLink{}, false
	}

	return insight.CausalLink{
		Cause:               h.Cause,
		Effect:              h.Effect,
		LagDays:             h.Lag,
		Coefficient:         r,
		Strength:            strength,
		HeuristicConfidence: correlation.HeuristicConfidence(r, len(x)),
		Mechanism:           mechanism(h.Cause, h.Effect, r),
		Evidence:            evidence(x, y, h.Lag, metrics),
	}, true
}

// Analyze returns links with strength of at least MinReportedStrength,
// ordered by strength descending then cause and effect
func (a *Analyzer) Analyze(metrics insight.MetricSet) []insight.CausalLink {
	links := []insight.CausalLink{}
	for _, h := range a.hypotheses {
		link, ok := Link(h, metrics)
		if !ok || link.Strength < MinReportedStrength {
			continue
		}
		links = append(links, link)
	}

	sort.SliceStable(links, func(i, j int) bool {
		if links[i].Strength != links[j].Strength {
			return links[i].Strength > links[j].Strength
		}
		if links[i].Cause != links[j].Cause {
			return links[i].Cause < links[j].Cause
		}
		return links[i].Effect < links[j].Effect
	})
	return links
}

// shift pairs cause[t] with effect[t+lag]
func shift(cause, effect []float64, lag int) ([]float64, []float64) {
	n := len(cause)
	if len(effect) < n {
		n = len(effect)
	}
	if lag >= n {
		return nil, nil
	}
	return cause[:n-lag], effect[lag:n]
}

// evidence returns the most recent shifted samples first, stamped with the
// effect day
func evidence(x, y []float64, lag int, metrics insight.MetricSet) []insight.EvidenceSample {
	samples := []insight.EvidenceSample{}
	for i := len(x) - 1; i >= 0 && len(samples) < MaxEvidence; i-- {
		sample := insight.EvidenceSample{CauseValue: x[i], EffectValue: y[i]}
		if day := i + lag; day < len(metrics.Days) {
			sample.Timestamp = metrics.Days[day]
		}
		samples = append(samples, sample)
	}
	return samples
}

func mechanism(cause, effect insight.MetricName, r float64) string {
	verb := "increases"
	if r < 0 {
		verb = "decreases"
	}
	return fmt.Sprintf("higher %s %s %s through direct performance impact",
		humanize(cause), verb, humanize(effect))
}

func humanize(name insight.MetricName) string {
	return strings.ReplaceAll(string(name), "_", " ")
}
