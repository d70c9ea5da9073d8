// internal/stats/stats.go
// Package: stats
package stats

import (
	"math"
	"slices"
)

// Quantile returns the q-quantile (0..1) of values using linear interpolation
// between closest ranks. values is not modified.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	cp := slices.Clone(values)
	slices.Sort(cp)
	return sortedQuantile(cp, q)
}

func sortedQuantile(sorted []float64, q float64) float64 {
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	l := int(math.Floor(pos))
	r := int(math.Ceil(pos))
	if l == r {
		return sorted[l]
	}
	frac := pos - float64(l)
	return sorted[l]*(1-frac) + sorted[r]*frac
}

// MeanStd returns the mean and the population standard deviation.
func MeanStd(values []float64) (mean, std float64) {
	n := float64(len(values))
	if n == 0 {
		return 0, 0
	}
	mean = Mean(values)
	var varsum float64
	for _, v := range values {
		d := v - mean
		varsum += d * d
	}
	std = math.Sqrt(varsum / n)
	return
}

// Mean returns the arithmetic mean, 0 for no values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Description is the count/mean/std/quartile summary of a sample.
type Description struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	P25   float64 `json:"p25"`
	P50   float64 `json:"p50"`
	P75   float64 `json:"p75"`
	Max   float64 `json:"max"`
}

// Describe summarises values. Std is the sample standard deviation (n-1) and
// is 0 when fewer than two values are given.
func Describe(values []float64) Description {
	if len(values) == 0 {
		return Description{}
	}
	cp := slices.Clone(values)
	slices.Sort(cp)

	d := Description{
		Count: len(cp),
		Mean:  Mean(cp),
		Min:   cp[0],
		P25:   sortedQuantile(cp, 0.25),
		P50:   sortedQuantile(cp, 0.50),
		P75:   sortedQuantile(cp, 0.75),
		Max:   cp[len(cp)-1],
	}
	if len(cp) > 1 {
		var varsum float64
		for _, v := range cp {
			diff := v - d.Mean
			varsum += diff * diff
		}
		d.Std = math.Sqrt(varsum / float64(len(cp)-1))
	}
	return d
}
