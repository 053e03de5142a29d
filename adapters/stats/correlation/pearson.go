package correlation

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"perfpulse/domain/insight"
)

// Pearson computes the Pearson correlation coefficient with the raw-sums
// formula (N·ΣXY−ΣX·ΣY)/√((N·ΣX²−(ΣX)²)(N·ΣY²−(ΣY)²)). Unequal lengths,
// N ≤ 2, a constant series and a zero denominator all yield 0. The result
// is clamped to [-1, 1].
func Pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) <= 2 {
		return 0
	}
	if isConstant(x) || isConstant(y) {
		return 0
	}

	n := float64(len(x))
	sumX, sumY := 0.0, 0.0
	sumXY, sumX2, sumY2 := 0.0, 0.0, 0.0

	for i := 0; i < len(x); i++ {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}

	numerator := n*sumXY - sumX*sumY
	varX := n*sumX2 - sumX*sumX
	varY := n*sumY2 - sumY*sumY
	if varX <= 0 || varY <= 0 {
		return 0
	}
	denominator := math.Sqrt(varX * varY)
	if denominator == 0 || math.IsNaN(denominator) || math.IsInf(denominator, 0) {
		return 0
	}

	r := numerator / denominator
	if math.IsNaN(r) {
		return 0
	}
	return math.Max(-1, math.Min(1, r))
}

// isConstant reports whether every value equals the first. The raw-sums
// variance of a fractional constant leaves a rounding residue instead of 0,
// so constant input is detected before the formula runs.
func isConstant(v []float64) bool {
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}

// ClassifyStrength buckets |r|
func ClassifyStrength(r float64) insight.Strength {
	abs := math.Abs(r)
	switch {
	case abs < 0.3:
		return insight.StrengthWeak
	case abs < 0.5:
		return insight.StrengthModerate
	case abs < 0.7:
		return insight.StrengthStrong
	}
	return insight.StrengthVeryStrong
}

// ClassifyDirection applies the ±0.05 neutral band
func ClassifyDirection(r float64) insight.Direction {
	switch {
	case r > 0.05:
		return insight.DirectionPositive
	case r < -0.05:
		return insight.DirectionNegative
	}
	return insight.DirectionNeutral
}

// HeuristicConfidence is min(90, 5N) + 20|r|, capped at 100. It grows with
// sample size and magnitude; it is not a statistical confidence level.
func HeuristicConfidence(r float64, n int) float64 {
	base := math.Min(90, float64(n)*5)
	return math.Min(100, base+math.Abs(r)*20)
}

// HeuristicSignificance approximates significance as 1/(1+t²) with
// t = |r|·√((N−2)/(1−r²)), clamped to [0.001, 1]. Smaller means "more
// significant"; it is not a p-value.
func HeuristicSignificance(r float64, n int) float64 {
	if n <= 2 {
		return 1
	}
	r2 := r * r
	if r2 >= 1 {
		return 0.001
	}
	t := math.Abs(r) * math.Sqrt(float64(n-2)/(1-r2))
	sig := 1 / (1 + t*t)
	return math.Max(0.001, math.Min(1, sig))
}

// ReferencePValue is the two-sided Student-t p-value for r with N−2
// degrees of freedom. Undefined cases return 1; perfect correlation 0.
func ReferencePValue(r float64, n int) float64 {
	if n <= 2 {
		return 1
	}
	r2 := r * r
	if r2 >= 1 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r2))
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * (1 - tDist.CDF(math.Abs(t)))
	if math.IsNaN(p) {
		return 1
	}
	return math.Max(0, math.Min(1, p))
}
