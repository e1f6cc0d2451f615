package common

import "math"

// Clip bounds v to [lo, hi].
func Clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Missing is the sentinel for a metric a source never reported in a bucket.
// NaN comparisons are false, so missing values fall through ordered
// classification rules without matching any threshold.
func Missing() float64 {
	return math.NaN()
}

func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// RoundTo rounds v to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func MaxOf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func MinOf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
