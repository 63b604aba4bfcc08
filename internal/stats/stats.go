// Package stats holds the numeric helpers shared by the feature calculators.
//
// Every helper is total: an empty input yields 0 rather than NaN or ±Inf so
// that emitted vectors always encode as finite JSON numbers.
package stats

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean of values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	return Sum(values) / float64(len(values))
}

// Sum returns the sum of values.
func Sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}

	return total
}

// Variance returns the population variance of values.
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	mean := Mean(values)
	var acc float64
	for _, v := range values {
		d := v - mean
		acc += d * d
	}

	return acc / float64(len(values))
}

// StdDev returns the population standard deviation of values.
func StdDev(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// Min returns the smallest of values.
func Min(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}

	return m
}

// Max returns the largest of values.
func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}

	return m
}

// Median returns the middle value, averaging the two central values when the
// length is even.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := Sorted(values)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}

	return sorted[mid]
}

// Percentile returns the element at index floor(n*p/100) of the sorted
// values, clamped to the valid range. p is in [0, 100].
func Percentile(values []float64, p int) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := Sorted(values)
	idx := len(sorted) * p / 100
	if idx < 0 {
		idx = 0
	}
	if idx > len(sorted)-1 {
		idx = len(sorted) - 1
	}

	return sorted[idx]
}

// Sorted returns an ascending copy of values.
func Sorted(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return sorted
}

// Abs returns a copy of values with every element replaced by its magnitude.
func Abs(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Abs(v)
	}

	return out
}

// Ratio divides num by den, flooring den at floor. It keeps ratio features
// finite when a sub-population is empty.
func Ratio(num, den, floor float64) float64 {
	if den < floor {
		den = floor
	}

	return num / den
}

// Summary is the eight-value distribution description used for timing groups.
type Summary struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	Median float64
	Q25    float64
	Q75    float64
	Range  float64
}

// Summarize computes the Summary of values; an empty input yields all zeros.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	lo, hi := Min(values), Max(values)

	return Summary{
		Mean:   Mean(values),
		StdDev: StdDev(values),
		Min:    lo,
		Max:    hi,
		Median: Median(values),
		Q25:    Percentile(values, 25),
		Q75:    Percentile(values, 75),
		Range:  hi - lo,
	}
}
