/*
 * MIT License
 *
 * Copyright (c) 2023 EASL and the vHive community
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package metrics

import (
	"fmt"
	"math"
	"sort"

	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/common"
)

type NormalizationMethod string

const (
	// MinMax scales each value into [0, 1] by the observed range.
	MinMax NormalizationMethod = "minmax"
	// Percentile maps each value to its fractional rank in the series.
	Percentile NormalizationMethod = "percentile"
)

// Normalize scales a series to [0, 1].
//
// With MinMax and window == 0, the range is taken over the full series; with
// window > 0, over a trailing window ending at each element. A constant
// series normalizes to all zeros - a degenerate but defined case, never NaN.
// Missing elements pass through untouched and never contribute to a range or
// rank pool.
//
// An unrecognized method is a configuration error.
func Normalize(series []float64, method NormalizationMethod, window int) ([]float64, error) {
	switch method {
	case MinMax:
		if window > 0 {
			return normalizeRolling(series, window), nil
		}
		return normalizeMinMax(series), nil
	case Percentile:
		return normalizePercentile(series), nil
	default:
		return nil, fmt.Errorf("%w: unknown normalization method %q", common.ErrConfig, method)
	}
}

func normalizeMinMax(series []float64) []float64 {
	min, max, any := observedRange(series)

	result := make([]float64, len(series))
	for i, v := range series {
		if common.IsMissing(v) || !any {
			result[i] = v
			continue
		}
		result[i] = scale(v, min, max)
	}

	return result
}

func normalizeRolling(series []float64, window int) []float64 {
	result := make([]float64, len(series))

	for i, v := range series {
		if common.IsMissing(v) {
			result[i] = v
			continue
		}

		start := i - window + 1
		if start < 0 {
			start = 0
		}

		min, max, _ := observedRange(series[start : i+1])
		result[i] = scale(v, min, max)
	}

	return result
}

func normalizePercentile(series []float64) []float64 {
	sorted := make([]float64, 0, len(series))
	for _, v := range series {
		if !common.IsMissing(v) {
			sorted = append(sorted, v)
		}
	}
	sort.Float64s(sorted)

	result := make([]float64, len(series))
	for i, v := range series {
		if common.IsMissing(v) {
			result[i] = v
			continue
		}

		// Fractional rank with ties averaged, matching ordinary
		// percentile-rank semantics.
		first := sort.SearchFloat64s(sorted, v)
		last := sort.Search(len(sorted), func(j int) bool { return sorted[j] > v })
		avgRank := float64(first+1+last) / 2
		result[i] = avgRank / float64(len(sorted))
	}

	return result
}

func scale(v, min, max float64) float64 {
	if max-min == 0 {
		return 0
	}
	return (v - min) / (max - min)
}

func observedRange(series []float64) (min, max float64, any bool) {
	min, max = math.Inf(1), math.Inf(-1)

	for _, v := range series {
		if common.IsMissing(v) {
			continue
		}
		any = true
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	return min, max, any
}
