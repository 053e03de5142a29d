package segments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfpulse/domain/insight"
)

func metricSet(series map[insight.MetricName][]float64) insight.MetricSet {
	n := 0
	for _, s := range series {
		n = len(s)
		break
	}
	days := make([]time.Time, n)
	for i := range days {
		days[i] = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
	}
	return insight.MetricSet{Days: days, Series: series}
}

func find(segments []insight.Segment, id string) (insight.Segment, bool) {
	for _, s := range segments {
		if s.ID == id {
			return s, true
		}
	}
	return insight.Segment{}, false
}

// Scenario D: three of five days exceed 80 productivity
func TestSegment_HighPerformers(t *testing.T) {
	metrics := metricSet(map[insight.MetricName][]float64{
		insight.MetricProductivity: {85, 90, 60, 95, 70},
		insight.MetricFocusTime:    {150, 130, 40, 140, 60},
	})

	segments := NewSegmenter(nil).Segment(metrics)
	high, ok := find(segments, "high_performers")
	require.True(t, ok)
	assert.Equal(t, []int{0, 1, 3}, high.MemberDays)
	assert.Equal(t, 3, high.Size())
	assert.InDelta(t, 0.6, high.Fraction, 1e-12)
	assert.InDelta(t, 90.0, high.MetricAverages[insight.MetricProductivity], 1e-9)
	assert.InDelta(t, 140.0, high.MetricAverages[insight.MetricFocusTime], 1e-9)
	assert.Contains(t, high.Characteristics, "Extended focus sessions")

	// no day below 50, so low_performers is omitted
	_, ok = find(segments, "low_performers")
	assert.False(t, ok)

	// energy is absent so energy segments are skipped
	_, ok = find(segments, "high_energy_days")
	assert.False(t, ok)
}

func TestMembers_ExactlyTheSatisfyingDays(t *testing.T) {
	cases := []struct {
		name      string
		criterion insight.Condition
		values    []float64
	}{
		{"greater", insight.Condition{Metric: "m", Operator: insight.OpGreaterThan, Threshold: 5}, []float64{1, 5, 6, 10, 4.99}},
		{"less", insight.Condition{Metric: "m", Operator: insight.OpLessThan, Threshold: 3}, []float64{3, 2, 1, 7}},
		{"between", insight.Condition{Metric: "m", Operator: insight.OpBetween, Min: 2, Max: 4}, []float64{1, 2, 3, 4, 5}},
		{"equals", insight.Condition{Metric: "m", Operator: insight.OpEquals, Threshold: 2}, []float64{2, 2.001, 2.5}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			def := insight.SegmentDefinition{ID: tc.name, Criterion: tc.criterion}
			days, ok := Members(def, metricSet(map[insight.MetricName][]float64{"m": tc.values}))
			require.True(t, ok)

			in := map[int]bool{}
			for _, d := range days {
				in[d] = true
			}
			for i, v := range tc.values {
				assert.Equal(t, tc.criterion.Evaluate(v), in[i], "day %d value %v", i, v)
			}
		})
	}
}

func TestSegment_OverlapAllowed(t *testing.T) {
	metrics := metricSet(map[insight.MetricName][]float64{
		insight.MetricProductivity: {90, 85, 30},
		insight.MetricFocusTime:    {200, 180, 10},
		insight.MetricEnergy:       {80, 75, 20},
	})

	segments := NewSegmenter(nil).Segment(metrics)
	high, _ := find(segments, "high_performers")
	focus, _ := find(segments, "deep_focus_days")
	energy, _ := find(segments, "high_energy_days")
	low, _ := find(segments, "low_energy_days")

	assert.Equal(t, high.MemberDays, focus.MemberDays)
	assert.Equal(t, high.MemberDays, energy.MemberDays)
	assert.Equal(t, []int{2}, low.MemberDays)
	assert.Contains(t, low.Characteristics, "Low energy")
	assert.Contains(t, energy.Characteristics, "High energy levels")
}

func TestSegment_DeclarationOrder(t *testing.T) {
	defs := []insight.SegmentDefinition{
		{ID: "z", Criterion: insight.Condition{Metric: "m", Operator: insight.OpGreaterThan, Threshold: 0}},
		{ID: "a", Criterion: insight.Condition{Metric: "m", Operator: insight.OpGreaterThan, Threshold: 1}},
	}
	segments := NewSegmenter(defs).Segment(metricSet(map[insight.MetricName][]float64{"m": {1, 2, 3}}))
	require.Len(t, segments, 2)
	assert.Equal(t, "z", segments[0].ID)
	assert.Equal(t, "a", segments[1].ID)
	assert.Equal(t, []string{"Average m of 2.5"}, segments[1].Characteristics)
}

func TestSegment_EmptyWindow(t *testing.T) {
	segments := NewSegmenter(nil).Segment(insight.MetricSet{})
	assert.NotNil(t, segments)
	assert.Empty(t, segments)
}
