package correlation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"perfpulse/domain/insight"
)

func TestRanks_AveragesTies(t *testing.T) {
	assert.Equal(t, []float64{1, 2.5, 2.5, 4}, Ranks([]float64{10, 20, 20, 30}))
	assert.Equal(t, []float64{3, 1, 2}, Ranks([]float64{9, 1, 5}))
	assert.Empty(t, Ranks(nil))
}

func TestSpearman(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6}
	squares := []float64{1, 4, 9, 16, 25, 36}

	assert.InDelta(t, 1.0, Spearman(x, squares), 1e-12)
	assert.Less(t, Pearson(x, squares), 1.0)
	assert.InDelta(t, -1.0, Spearman(x, []float64{60, 50, 40, 30, 20, 10}), 1e-12)
	assert.Equal(t, 0.0, Spearman(x, []float64{7, 7, 7, 7, 7, 7}))
	assert.Equal(t, 0.0, Spearman([]float64{1, 2}, []float64{2, 1}))
}

func TestCompute_CarriesRankCoefficient(t *testing.T) {
	res := Compute(insight.MetricFocusTime, insight.MetricProductivity, []float64{1, 2, 3, 4, 5}, []float64{1, 8, 27, 64, 125})
	assert.InDelta(t, 1.0, res.RankCoefficient, 1e-12)
	assert.Greater(t, res.RankCoefficient, res.Coefficient)
}
