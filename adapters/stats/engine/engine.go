// Package engine runs the analysis pipeline: normalize, then every analyzer
// over the same metric set, then the planner. It is synchronous and pure;
// all I/O happens in the callers.
package engine

import (
	"perfpulse/adapters/stats/causal"
	"perfpulse/adapters/stats/correlation"
	"perfpulse/adapters/stats/multivariate"
	"perfpulse/adapters/stats/patterns"
	"perfpulse/adapters/stats/planner"
	"perfpulse/adapters/stats/profiling"
	"perfpulse/adapters/stats/segments"
	"perfpulse/adapters/stats/temporal"
	"perfpulse/domain/activity"
	"perfpulse/domain/insight"
	"perfpulse/internal/session"
)

// Options configures the engine. Nil slices select the built-in defaults.
type Options struct {
	Normalizer    temporal.NormalizerConfig
	Patterns      []insight.PatternDefinition
	Segments      []insight.SegmentDefinition
	Hypotheses    []causal.Hypothesis
	TargetMetrics []insight.MetricName
}

// PerformanceEngine owns one instance of every pipeline stage
type PerformanceEngine struct {
	normalizer   *temporal.Normalizer
	correlations *correlation.Analyzer
	multivariate *multivariate.Analyzer
	matcher      *patterns.Matcher
	segmenter    *segments.Segmenter
	causal       *causal.Analyzer
	planner      *planner.Planner
	profiler     *profiling.Profiler
}

// NewPerformanceEngine creates an engine
func NewPerformanceEngine(opts Options) *PerformanceEngine {
	return &PerformanceEngine{
		normalizer:   temporal.NewNormalizer(opts.Normalizer),
		correlations: correlation.NewAnalyzer(),
		multivariate: multivariate.NewAnalyzer(opts.TargetMetrics),
		matcher:      patterns.NewMatcher(opts.Patterns),
		segmenter:    segments.NewSegmenter(opts.Segments),
		causal:       causal.NewAnalyzer(opts.Hypotheses),
		planner:      planner.NewPlanner(),
		profiler:     profiling.NewProfiler(),
	}
}

// Config returns the effective normalizer configuration
func (e *PerformanceEngine) Config() temporal.NormalizerConfig {
	return e.normalizer.Config()
}

// Patterns returns the pattern definitions the engine evaluates
func (e *PerformanceEngine) Patterns() []insight.PatternDefinition {
	return e.matcher.Definitions()
}

// Analyze runs one full analysis. The window ends on the day of sess.Now
// and the session cache is cleared before normalization.
func (e *PerformanceEngine) Analyze(sess *session.Session, batch activity.Batch) insight.Report {
	sess.Begin()

	metrics, normStats := e.normalizer.Normalize(sess, batch, sess.Now)
	cfg := e.normalizer.Config()
	window := temporal.NewGrid(sess.Now, cfg.WindowDays, cfg.Location).Window()

	return e.analyzeMetrics(sess, window, metrics, normStats)
}

// AnalyzeMetrics runs the analyzers over an already aligned metric set
func (e *PerformanceEngine) AnalyzeMetrics(sess *session.Session, metrics insight.MetricSet) insight.Report {
	window := insight.Window{Days: metrics.Len()}
	if n := metrics.Len(); n > 0 {
		window.Start = metrics.Days[0]
		window.End = metrics.Days[n-1]
	}
	return e.analyzeMetrics(sess, window, metrics, insight.NormalizationStats{Dropped: map[string]int{}})
}

func (e *PerformanceEngine) analyzeMetrics(sess *session.Session, window insight.Window, metrics insight.MetricSet, normStats insight.NormalizationStats) insight.Report {
	correlations := e.correlations.Analyze(metrics)
	analyses := e.multivariate.Analyze(metrics)
	matches := e.matcher.Match(metrics)
	segs := e.segmenter.Segment(metrics)
	links := e.causal.Analyze(metrics)

	plan := e.planner.Plan(planner.Inputs{
		Correlations: correlations,
		Multivariate: analyses,
		Patterns:     matches,
		Segments:     segs,
		CausalLinks:  links,
		TotalDays:    metrics.Len(),
	})

	return insight.Report{
		RunID:         sess.ID,
		GeneratedAt:   sess.Now,
		Window:        window,
		Metrics:       metrics,
		Correlations:  correlations,
		Multivariate:  analyses,
		Patterns:      matches,
		Segments:      segs,
		CausalLinks:   links,
		Plan:          plan,
		Normalization: normStats,
		Profiles:      e.profiler.Profile(metrics),
	}
}
