// Package profiling summarizes the distribution of each daily metric.
package profiling

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"perfpulse/domain/insight"
)

// Profiler computes distribution profiles for every metric of a window
type Profiler struct{}

// NewProfiler creates a profiler
func NewProfiler() *Profiler {
	return &Profiler{}
}

// Profile returns one profile per metric in name order. Empty series are
// skipped.
func (p *Profiler) Profile(metrics insight.MetricSet) []insight.MetricProfile {
	profiles := []insight.MetricProfile{}
	for _, name := range metrics.Names() {
		values, _ := metrics.Get(name)
		if len(values) == 0 {
			continue
		}
		profiles = append(profiles, Describe(name, values))
	}
	return profiles
}

// Describe profiles one non-empty series. Shape statistics of a constant
// series are 0 and its normality p-value is 1.
func Describe(name insight.MetricName, data []float64) insight.MetricProfile {
	profile := insight.MetricProfile{Metric: name, NormalityPValue: 1}

	mean, _ := stats.Mean(data)
	stdDev, _ := stats.StandardDeviation(data)
	min, _ := stats.Min(data)
	max, _ := stats.Max(data)
	median, _ := stats.Median(data)
	q25, _ := stats.Percentile(data, 25)
	q75, _ := stats.Percentile(data, 75)

	profile.Mean = mean
	profile.StdDev = stdDev
	profile.Min = min
	profile.Max = max
	profile.Median = median
	profile.Q25 = q25
	profile.Q75 = q75
	profile.Outliers = countOutliers(data, q25, q75)

	for _, v := range data {
		if v == 0 {
			profile.ZeroDays++
		}
	}
	if mean != 0 {
		profile.Variation = stdDev / math.Abs(mean)
	}

	if stdDev > 0 && len(data) >= 3 {
		profile.Skewness, profile.Kurtosis = moments(data, mean, stdDev)
		profile.NormalityPValue = jarqueBera(len(data), profile.Skewness, profile.Kurtosis)
	}
	return profile
}

// moments returns the population skewness and excess kurtosis
func moments(data []float64, mean, stdDev float64) (float64, float64) {
	n := float64(len(data))
	var m3, m4 float64
	for _, x := range data {
		z := (x - mean) / stdDev
		m3 += z * z * z
		m4 += z * z * z * z
	}
	return m3 / n, m4/n - 3
}

// jarqueBera is the p-value of the Jarque-Bera statistic against a
// chi-squared distribution with two degrees of freedom
func jarqueBera(n int, skewness, excessKurtosis float64) float64 {
	jb := float64(n) / 6 * (skewness*skewness + excessKurtosis*excessKurtosis/4)
	chi := distuv.ChiSquared{K: 2}
	p := 1 - chi.CDF(jb)
	if math.IsNaN(p) {
		return 1
	}
	return math.Max(0, math.Min(1, p))
}

// countOutliers applies the 1.5·IQR fence
func countOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lower := q25 - 1.5*iqr
	upper := q75 + 1.5*iqr

	count := 0
	for _, x := range data {
		if x < lower || x > upper {
			count++
		}
	}
	return count
}
