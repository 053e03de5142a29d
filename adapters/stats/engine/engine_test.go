package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfpulse/adapters/stats/planner"
	"perfpulse/adapters/stats/temporal"
	"perfpulse/domain/activity"
	"perfpulse/domain/core"
	"perfpulse/domain/insight"
	"perfpulse/internal/session"
	"perfpulse/internal/testkit"
)

func generated(t *testing.T) (activity.Batch, time.Time) {
	t.Helper()
	cfg := testkit.DefaultGeneratorConfig()
	return testkit.NewPerformanceGenerator(cfg).Generate(), cfg.End
}

func TestAnalyze_FullPipelineOnSyntheticData(t *testing.T) {
	batch, end := generated(t)
	eng := NewPerformanceEngine(Options{})
	sess := session.New(end)

	report := eng.Analyze(sess, batch)

	assert.Equal(t, sess.ID, report.RunID)
	assert.Equal(t, end, report.GeneratedAt)
	assert.Equal(t, 30, report.Window.Days)
	assert.Equal(t, core.Day(end, time.UTC), report.Window.End)
	require.Equal(t, 30, report.Metrics.Len())
	for _, name := range report.Metrics.Names() {
		series, _ := report.Metrics.Get(name)
		assert.Len(t, series, 30, "metric %s", name)
	}

	require.NotEmpty(t, report.Correlations)
	for _, c := range report.Correlations {
		assert.False(t, math.IsNaN(c.Coefficient))
		assert.LessOrEqual(t, math.Abs(c.Coefficient), 1.0)
	}

	// the generator drives focus from energy
	var energyFocus *insight.CorrelationResult
	for i := range report.Correlations {
		c := report.Correlations[i]
		if c.Factor1 == insight.MetricEnergy && c.Factor2 == insight.MetricFocusTime {
			energyFocus = &c
		}
	}
	require.NotNil(t, energyFocus)
	assert.Equal(t, insight.DirectionPositive, energyFocus.Direction)

	for _, m := range report.Patterns {
		assert.GreaterOrEqual(t, m.Frequency, 0.05)
	}
	for _, l := range report.CausalLinks {
		assert.GreaterOrEqual(t, l.Strength, 30.0)
	}
	assert.LessOrEqual(t, len(report.Plan.QuickWins), planner.MaxQuickWins)
	assert.LessOrEqual(t, len(report.Plan.LongTermStrategy), planner.MaxLongTerm)
	assert.LessOrEqual(t, len(report.Plan.ExperimentsToTry), planner.MaxExperiments)
	assert.Greater(t, report.Normalization.EventsAccepted, 0)

	require.Len(t, report.Profiles, len(report.Metrics.Names()))
	for i, p := range report.Profiles {
		assert.Equal(t, report.Metrics.Names()[i], p.Metric)
		assert.False(t, math.IsNaN(p.Skewness))
		assert.LessOrEqual(t, p.Min, p.Max)
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	batch, end := generated(t)
	eng := NewPerformanceEngine(Options{})
	id := core.NewRunID()

	first := eng.Analyze(session.WithID(id, end), batch)
	second := eng.Analyze(session.WithID(id, end), batch)
	assert.Equal(t, first, second)
}

func TestAnalyze_FreshSessionsDifferOnlyInRunID(t *testing.T) {
	batch, end := generated(t)
	eng := NewPerformanceEngine(Options{})

	first := eng.Analyze(session.New(end), batch)
	second := eng.Analyze(session.New(end), batch)
	assert.NotEqual(t, first.RunID, second.RunID)

	second.RunID = first.RunID
	assert.Equal(t, first, second)
}

func TestAnalyze_ReusedSessionStartsClean(t *testing.T) {
	batch, end := generated(t)
	eng := NewPerformanceEngine(Options{})
	sess := session.New(end)

	first := eng.Analyze(sess, batch)
	second := eng.Analyze(sess, activity.Batch{})

	prod, _ := second.Metrics.Get(insight.MetricProductivity)
	for _, v := range prod {
		assert.Equal(t, 0.0, v, "productivity must not leak from the previous run")
	}
	assert.NotEqual(t, first.Metrics, second.Metrics)
}

func TestAnalyze_EmptyBatch(t *testing.T) {
	end := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	cfg := temporal.DefaultNormalizerConfig()
	cfg.WindowDays = 7
	report := NewPerformanceEngine(Options{Normalizer: cfg}).Analyze(session.New(end), activity.Batch{})

	assert.Equal(t, 7, report.Metrics.Len())
	assert.False(t, report.Metrics.Has(insight.MetricEnergy))
	assert.NotNil(t, report.Correlations)
	assert.Empty(t, report.Patterns)
	assert.Empty(t, report.CausalLinks)
	assert.Empty(t, report.Plan.QuickWins)
}

func TestAnalyzeMetrics_ScenarioSeries(t *testing.T) {
	days := core.DayRange(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), 5, time.UTC)
	metrics := insight.MetricSet{Days: days, Series: map[insight.MetricName][]float64{
		insight.MetricProductivity: {85, 90, 60, 95, 70},
		insight.MetricFocusTime:    {150, 160, 60, 170, 90},
	}}

	report := NewPerformanceEngine(Options{}).AnalyzeMetrics(session.New(days[4]), metrics)
	assert.Equal(t, days[0], report.Window.Start)
	assert.Equal(t, 5, report.Window.Days)

	var high *insight.Segment
	for i := range report.Segments {
		if report.Segments[i].ID == "high_performers" {
			high = &report.Segments[i]
		}
	}
	require.NotNil(t, high)
	assert.Equal(t, []int{0, 1, 3}, high.MemberDays)
}
