package correlation

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"perfpulse/domain/insight"
)

func metricSet(series map[insight.MetricName][]float64) insight.MetricSet {
	n := 0
	for _, s := range series {
		n = len(s)
		break
	}
	days := make([]time.Time, n)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return insight.MetricSet{Days: days, Series: series}
}

// Scenario A: identical series correlate perfectly
func TestAnalyze_IdenticalSeriesAreVeryStrongPositive(t *testing.T) {
	energy := []float64{90, 85, 80, 75, 70, 65, 60, 55, 50, 45}
	productivity := append([]float64(nil), energy...)

	results := NewAnalyzer().Analyze(metricSet(map[insight.MetricName][]float64{
		insight.MetricEnergy:       energy,
		insight.MetricProductivity: productivity,
	}))

	require.Len(t, results, 1)
	res := results[0]
	assert.Equal(t, insight.MetricEnergy, res.Factor1)
	assert.Equal(t, insight.MetricProductivity, res.Factor2)
	assert.InDelta(t, 1.0, res.Coefficient, 1e-12)
	assert.Equal(t, insight.StrengthVeryStrong, res.Strength)
	assert.Equal(t, insight.DirectionPositive, res.Direction)
	assert.Equal(t, 10, res.SampleSize)
	assert.Equal(t, 70.0, res.HeuristicConfidence)
	assert.Equal(t, 0.001, res.HeuristicSignificance)
}

// Scenario B: focus collapses while distractions climb
func TestAnalyze_FocusVersusDistractionsIsNegative(t *testing.T) {
	results := NewAnalyzer().Analyze(metricSet(map[insight.MetricName][]float64{
		insight.MetricFocusTime:    {200, 210, 190, 0, 0, 0, 0, 0, 0, 0},
		insight.MetricDistractions: {1, 1, 2, 10, 10, 10, 10, 10, 10, 10},
	}))

	require.Len(t, results, 1)
	assert.Equal(t, insight.DirectionNegative, results[0].Direction)
	assert.Greater(t, math.Abs(results[0].Coefficient), 0.7)
	assert.Equal(t, insight.StrengthVeryStrong, results[0].Strength)
}

func TestPearson_Symmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		x := make([]float64, 15)
		y := make([]float64, 15)
		for i := range x {
			x[i] = rng.Float64() * 100
			y[i] = x[i]*0.3 + rng.Float64()*50
		}
		assert.Equal(t, Pearson(x, y), Pearson(y, x))
	}
}

func TestPearson_SelfCorrelationIsOne(t *testing.T) {
	x := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	assert.InDelta(t, 1.0, Pearson(x, x), 1e-12)
}

func TestPearson_ZeroVarianceIsZeroNotNaN(t *testing.T) {
	flat := []float64{5, 5, 5, 5, 5}
	other := []float64{1, 2, 3, 4, 5}

	r := Pearson(flat, other)
	assert.False(t, math.IsNaN(r))
	assert.Equal(t, 0.0, r)
	assert.Equal(t, 0.0, Pearson(flat, flat))
}

func TestPearson_FractionalConstantsAreZero(t *testing.T) {
	repeat := func(v float64, n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = v
		}
		return out
	}

	tests := []struct {
		name string
		x, y []float64
	}{
		{"energy against morning", repeat(72.3, 10), repeat(200.0/3, 10)},
		{"tenths", repeat(0.1, 7), repeat(1.1, 7)},
		{"self", repeat(72.3, 10), repeat(72.3, 10)},
		{"constant against trend", repeat(0.1, 5), []float64{1, 2, 3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, 0.0, Pearson(tt.x, tt.y))

			result := Compute(insight.MetricEnergy, insight.MetricMorning, tt.x, tt.y)
			assert.Equal(t, 0.0, result.Coefficient)
			assert.Equal(t, insight.StrengthWeak, result.Strength)
			assert.Equal(t, insight.DirectionNeutral, result.Direction)
			assert.Equal(t, 0.0, result.RankCoefficient)
		})
	}
}

func TestPearson_DegenerateInputs(t *testing.T) {
	assert.Equal(t, 0.0, Pearson([]float64{1, 2}, []float64{2, 4}))
	assert.Equal(t, 0.0, Pearson([]float64{1, 2, 3}, []float64{1, 2}))
	assert.Equal(t, 0.0, Pearson(nil, nil))
}

func TestPearson_MatchesGonum(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	x := make([]float64, 30)
	y := make([]float64, 30)
	for i := range x {
		x[i] = rng.NormFloat64()*10 + 50
		y[i] = 0.6*x[i] + rng.NormFloat64()*5
	}
	assert.InDelta(t, stat.Correlation(x, y, nil), Pearson(x, y), 1e-9)
}

func TestAnalyze_ShortWindowIsEmpty(t *testing.T) {
	results := NewAnalyzer().Analyze(metricSet(map[insight.MetricName][]float64{
		insight.MetricFocusTime: {1, 2},
		insight.MetricEnergy:    {2, 1},
	}))
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestAnalyze_SortedByMagnitudeWithNameTieBreak(t *testing.T) {
	base := []float64{1, 2, 3, 4, 5, 6}
	results := NewAnalyzer().Analyze(metricSet(map[insight.MetricName][]float64{
		"a": base,
		"b": {6, 5, 4, 3, 2, 1},
		"c": {1, 3, 2, 5, 4, 6},
		"d": {2, 2, 2, 2, 2, 2},
	}))

	require.Len(t, results, 6)
	for i := 1; i < len(results); i++ {
		prev, cur := math.Abs(results[i-1].Coefficient), math.Abs(results[i].Coefficient)
		assert.GreaterOrEqual(t, prev, cur)
		if prev == cur {
			assert.True(t, results[i-1].Factor1 < results[i].Factor1 ||
				(results[i-1].Factor1 == results[i].Factor1 && results[i-1].Factor2 < results[i].Factor2))
		}
	}
	assert.Equal(t, insight.MetricName("a"), results[0].Factor1)
	assert.Equal(t, insight.MetricName("b"), results[0].Factor2)
}

func TestClassifyStrength_Boundaries(t *testing.T) {
	cases := []struct {
		r    float64
		want insight.Strength
	}{
		{0.29, insight.StrengthWeak},
		{0.3, insight.StrengthModerate},
		{-0.49, insight.StrengthModerate},
		{0.5, insight.StrengthStrong},
		{-0.69, insight.StrengthStrong},
		{0.7, insight.StrengthVeryStrong},
		{-1, insight.StrengthVeryStrong},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyStrength(tc.r), "r=%v", tc.r)
	}
}

func TestClassifyDirection_NeutralBand(t *testing.T) {
	assert.Equal(t, insight.DirectionNeutral, ClassifyDirection(0.05))
	assert.Equal(t, insight.DirectionNeutral, ClassifyDirection(-0.05))
	assert.Equal(t, insight.DirectionPositive, ClassifyDirection(0.051))
	assert.Equal(t, insight.DirectionNegative, ClassifyDirection(-0.051))
}

func TestHeuristics(t *testing.T) {
	assert.Equal(t, 100.0, HeuristicConfidence(0.9, 30))
	assert.InDelta(t, 25+0.5*20, HeuristicConfidence(-0.5, 5), 1e-9)

	assert.Equal(t, 1.0, HeuristicSignificance(0, 10))
	assert.Equal(t, 1.0, HeuristicSignificance(0.5, 2))
	assert.Equal(t, 0.001, HeuristicSignificance(1, 10))

	// t² = 0.25·8/0.75
	assert.InDelta(t, 1/(1+0.25*8/0.75), HeuristicSignificance(0.5, 10), 1e-12)

	sig := HeuristicSignificance(0.3, 100)
	assert.GreaterOrEqual(t, sig, 0.001)
	assert.LessOrEqual(t, sig, 1.0)
}

func TestReferencePValue(t *testing.T) {
	assert.Equal(t, 1.0, ReferencePValue(0.9, 2))
	assert.Equal(t, 0.0, ReferencePValue(1, 10))
	assert.InDelta(t, 1.0, ReferencePValue(0, 10), 1e-9)
	assert.Less(t, ReferencePValue(0.8, 30), 0.001)
}

func TestMatrix_Symmetric(t *testing.T) {
	m := NewMatrix(metricSet(map[insight.MetricName][]float64{
		"a": {1, 2, 3, 4},
		"b": {2, 4, 5, 9},
	}))
	assert.Equal(t, m.Get("a", "b"), m.Get("b", "a"))
	assert.Equal(t, 0.0, m.Get("a", "missing"))
}
