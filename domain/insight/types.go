// Package insight defines the analysis outputs handed to report and UI
// collaborators. Percentages are 0-100 floats, coefficients -1..1, durations
// in minutes. Confidence and significance fields are heuristics, not
// inferential statistics, and are named accordingly.
package insight

import (
	"time"

	"perfpulse/domain/core"
)

// Strength buckets a correlation magnitude
type Strength string

const (
	StrengthWeak       Strength = "weak"
	StrengthModerate   Strength = "moderate"
	StrengthStrong     Strength = "strong"
	StrengthVeryStrong Strength = "very_strong"
)

// Direction is the sign of an association
type Direction string

const (
	DirectionPositive Direction = "positive"
	DirectionNegative Direction = "negative"
	DirectionNeutral  Direction = "neutral"
)

// CorrelationResult is the pairwise association between two metrics
type CorrelationResult struct {
	Factor1               MetricName `json:"factor1"`
	Factor2               MetricName `json:"factor2"`
	Coefficient           float64    `json:"coefficient"`
	Strength              Strength   `json:"strength"`
	Direction             Direction  `json:"direction"`
	HeuristicConfidence   float64    `json:"heuristic_confidence"`
	SampleSize            int        `json:"sample_size"`
	HeuristicSignificance float64    `json:"heuristic_significance"`
	// ReferencePValue is a two-sided Student-t p-value reported for
	// comparison only; nothing filters on it.
	ReferencePValue float64 `json:"reference_p_value"`
	// RankCoefficient is Spearman's rho over the same days
	RankCoefficient float64 `json:"rank_coefficient"`
}

// Timeframe is the horizon of a recommendation
type Timeframe string

const (
	TimeframeImmediate    Timeframe = "immediate"
	TimeframeShortTerm    Timeframe = "short_term"
	TimeframeLongTerm     Timeframe = "long_term"
	TimeframeExperimental Timeframe = "experimental"
)

// Difficulty estimates the effort of a recommendation
type Difficulty string

const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyModerate Difficulty = "moderate"
	DifficultyHard     Difficulty = "hard"
)

// RecommendationSource names the analyzer that produced a recommendation
type RecommendationSource string

const (
	SourceCorrelation  RecommendationSource = "correlation"
	SourceMultivariate RecommendationSource = "multivariate"
	SourcePattern      RecommendationSource = "pattern"
	SourceCausal       RecommendationSource = "causal"
)

// Recommendation is a single suggested action
type Recommendation struct {
	ID                  string               `json:"id"`
	Action              string               `json:"action"`
	Source              RecommendationSource `json:"source"`
	ExpectedImprovement float64              `json:"expected_improvement"`
	Confidence          float64              `json:"confidence"`
	Timeframe           Timeframe            `json:"timeframe"`
	Difficulty          Difficulty           `json:"difficulty"`
}

// Contributor is one predictor's share in explaining a target metric
type Contributor struct {
	Predictor          MetricName   `json:"predictor"`
	Coefficient        float64      `json:"coefficient"`
	ContributionPct    float64      `json:"contribution_pct"`
	Direction          Direction    `json:"direction"`
	Importance         float64      `json:"importance"`
	InteractingFactors []MetricName `json:"interacting_factors"`
}

// MultivariateAnalysis decomposes the factors behind one target metric
type MultivariateAnalysis struct {
	TargetMetric    MetricName       `json:"target_metric"`
	Contributors    []Contributor    `json:"contributors"`
	ModelAccuracy   float64          `json:"model_accuracy"`
	Explanation     string           `json:"explanation"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Impact grades how much an expected outcome matters
type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// ExpectedOutcome is what a pattern predicts on matching days
type ExpectedOutcome struct {
	Metric        MetricName `json:"metric" yaml:"metric"`
	ExpectedValue float64    `json:"expected_value" yaml:"expected_value"`
	Variance      float64    `json:"variance" yaml:"variance"`
	Impact        Impact     `json:"impact" yaml:"impact"`
}

// PatternDefinition is a named conjunction of weighted conditions
type PatternDefinition struct {
	ID               string            `json:"id" yaml:"id"`
	Name             string            `json:"name" yaml:"name"`
	Description      string            `json:"description" yaml:"description"`
	Conditions       []Condition       `json:"conditions" yaml:"conditions"`
	ExpectedOutcomes []ExpectedOutcome `json:"expected_outcomes" yaml:"expected_outcomes"`
}

// OutcomeAccuracy records how close matching days came to one outcome
type OutcomeAccuracy struct {
	Metric     MetricName `json:"metric"`
	Expected   float64    `json:"expected"`
	ActualMean float64    `json:"actual_mean"`
	Accuracy   float64    `json:"accuracy"`
}

// PatternMatch is a pattern that recurred often enough to report
type PatternMatch struct {
	PatternID          string             `json:"pattern_id"`
	Name               string             `json:"name"`
	Description        string             `json:"description"`
	MatchedDays        []int              `json:"matched_days"`
	MatchedDates       []time.Time        `json:"matched_dates"`
	Frequency          float64            `json:"frequency"`
	PredictiveAccuracy float64            `json:"predictive_accuracy"`
	Outcomes           []OutcomeAccuracy  `json:"outcomes"`
	ConditionWeights   []ConditionWeight  `json:"condition_weights"`
	Insights           []string           `json:"insights"`
}

// ConditionWeight is the display weight of one pattern condition, listed in
// declaration order
type ConditionWeight struct {
	Condition string  `json:"condition"`
	Weight    float64 `json:"weight"`
}

// SegmentDefinition declares a threshold partition of days
type SegmentDefinition struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Criterion Condition `json:"criterion" yaml:"criterion"`
}

// Segment is the set of days satisfying one criterion
type Segment struct {
	ID              string                 `json:"id"`
	Name            string                 `json:"name"`
	Criterion       Condition              `json:"criterion"`
	MemberDays      []int                  `json:"member_days"`
	Fraction        float64                `json:"fraction"`
	MetricAverages  map[MetricName]float64 `json:"metric_averages"`
	Characteristics []string               `json:"characteristics"`
}

// Size returns the number of member days
func (s Segment) Size() int {
	return len(s.MemberDays)
}

// EvidenceSample is one observed (cause, lagged effect) pair
type EvidenceSample struct {
	CauseValue  float64   `json:"cause_value"`
	EffectValue float64   `json:"effect_value"`
	Timestamp   time.Time `json:"timestamp"`
}

// CausalLink is a lag-aware correlation between a candidate cause and
// effect. Mechanism is templated text, not a validated causal claim.
type CausalLink struct {
	Cause               MetricName       `json:"cause"`
	Effect              MetricName       `json:"effect"`
	LagDays             int              `json:"lag_days"`
	Coefficient         float64          `json:"coefficient"`
	Strength            float64          `json:"strength"`
	HeuristicConfidence float64          `json:"heuristic_confidence"`
	Mechanism           string           `json:"mechanism"`
	Evidence            []EvidenceSample `json:"evidence"`
}

// InsightKind classifies a key insight
type InsightKind string

const (
	InsightCorrelation InsightKind = "correlation"
	InsightPattern     InsightKind = "pattern"
	InsightCausal      InsightKind = "causal"
	InsightSegment     InsightKind = "segment"
)

// KeyInsight is a ranked headline finding
type KeyInsight struct {
	ID     string      `json:"id"`
	Kind   InsightKind `json:"kind"`
	Title  string      `json:"title"`
	Detail string      `json:"detail"`
	Score  float64     `json:"score"`
}

// OptimizationPlan is the bucketed set of recommended actions
type OptimizationPlan struct {
	QuickWins          []Recommendation    `json:"quick_wins"`
	LongTermStrategy   []Recommendation    `json:"long_term_strategy"`
	ExperimentsToTry   []Recommendation    `json:"experiments_to_try"`
	SurprisingFindings []CorrelationResult `json:"surprising_findings"`
	KeyInsights        []KeyInsight        `json:"key_insights"`
}

// NormalizationStats counts records dropped at the normalization boundary
type NormalizationStats struct {
	EventsAccepted int            `json:"events_accepted"`
	TasksAccepted  int            `json:"tasks_accepted"`
	Dropped        map[string]int `json:"dropped"`
}

// TotalDropped sums every drop reason
func (s NormalizationStats) TotalDropped() int {
	total := 0
	for _, n := range s.Dropped {
		total += n
	}
	return total
}

// Window is the calendar span an analysis covers
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days"`
}

// MetricProfile describes the distribution of one metric over the window
type MetricProfile struct {
	Metric    MetricName `json:"metric"`
	Mean      float64    `json:"mean"`
	StdDev    float64    `json:"std_dev"`
	Min       float64    `json:"min"`
	Max       float64    `json:"max"`
	Median    float64    `json:"median"`
	Q25       float64    `json:"q25"`
	Q75       float64    `json:"q75"`
	Skewness  float64    `json:"skewness"`
	Kurtosis  float64    `json:"kurtosis"`
	Outliers  int        `json:"outliers"`
	ZeroDays  int        `json:"zero_days"`
	Variation float64    `json:"variation"`
	// NormalityPValue is the Jarque-Bera p-value; small values mean the
	// daily values are unlikely to be normally distributed
	NormalityPValue float64 `json:"normality_p_value"`
}

// Report is the full output of one analysis run
type Report struct {
	RunID         core.RunID             `json:"run_id"`
	GeneratedAt   time.Time              `json:"generated_at"`
	Window        Window                 `json:"window"`
	Metrics       MetricSet              `json:"metrics"`
	Correlations  []CorrelationResult    `json:"correlations"`
	Multivariate  []MultivariateAnalysis `json:"multivariate"`
	Patterns      []PatternMatch         `json:"patterns"`
	Segments      []Segment              `json:"segments"`
	CausalLinks   []CausalLink           `json:"causal_links"`
	Plan          OptimizationPlan       `json:"plan"`
	Normalization NormalizationStats     `json:"normalization"`
	Profiles      []MetricProfile        `json:"profiles"`
}
