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
	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/common"
)

// Calculator derives per-sample productivity metrics from raw DCGM telemetry
// and a GPU model spec table. It is a pure function of its inputs: the spec
// table is passed in, never read from ambient state.
type Calculator struct {
	specs *ModelSpecTable
}

func NewCalculator(specs *ModelSpecTable) *Calculator {
	return &Calculator{specs: specs}
}

// PowerIntensityFactor is the fraction of the model's rated max power the
// GPU currently draws, clipped to [0, 1]. Proxy for computational intensity.
func (c *Calculator) PowerIntensityFactor(powerWatts float64, model string) float64 {
	spec := c.specs.Lookup(model)
	return common.Clip(powerWatts/spec.MaxPowerWatts, 0, 1)
}

// RealizedTflops is the throughput attributed to the GPU at the given power
// intensity.
func (c *Calculator) RealizedTflops(pif float64, model string) float64 {
	return c.specs.Lookup(model).AchievableTflops * pif
}

// RealizedUtilization converts realized throughput into a percentage of the
// model's achievable throughput, clipped to [0, 100].
func (c *Calculator) RealizedUtilization(realizedTflops float64, model string) float64 {
	spec := c.specs.Lookup(model)
	return common.Clip(realizedTflops/spec.AchievableTflops*100, 0, 100)
}

// EfficiencyGap is reported utilization minus realized utilization.
// A positive gap means the GPU is busy but not computationally productive.
// A negative gap is a data anomaly worth surfacing, so it is not clipped.
func EfficiencyGap(utilizationPct, rfuPct float64) float64 {
	return utilizationPct - rfuPct
}

// MemoryPressure is used / (used + free) as a percentage. Both zero yields 0.
func MemoryPressure(usedMb, freeMb float64) float64 {
	total := usedMb + freeMb
	if total == 0 {
		return 0
	}
	return usedMb / total * 100
}

// efficiencyRule pairs a predicate on (utilization, PIF) with the class it
// assigns. Rules are evaluated top-down and the first match wins; the ranges
// deliberately overlap, so the order is part of the semantics.
type efficiencyRule struct {
	match func(utilPct, pif float64) bool
	class string
}

var efficiencyRules = []efficiencyRule{
	{func(u, p float64) bool { return u < 10 }, common.ClassIdle},
	{func(u, p float64) bool { return u >= 70 && p >= 0.75 }, common.ClassEfficient},
	{func(u, p float64) bool { return u >= 70 && p < 0.60 }, common.ClassBottlenecked},
	{func(u, p float64) bool { return u >= 40 && p >= 0.50 }, common.ClassModerate},
}

// ClassifyEfficiency maps a (utilization, PIF) pair to one of the five
// efficiency classes. Total over the input domain: anything no rule claims
// is Inefficient.
func ClassifyEfficiency(utilPct, pif float64) string {
	for _, rule := range efficiencyRules {
		if rule.match(utilPct, pif) {
			return rule.class
		}
	}
	return common.ClassInefficient
}

// Annotate computes the full set of derived metrics for every sample. The
// input slice is not modified.
func (c *Calculator) Annotate(samples []common.GPUSample) []common.EfficiencySample {
	result := make([]common.EfficiencySample, 0, len(samples))

	for _, s := range samples {
		pif := c.PowerIntensityFactor(s.PowerUsageWatts, s.GpuModel)
		realized := c.RealizedTflops(pif, s.GpuModel)
		rfu := c.RealizedUtilization(realized, s.GpuModel)

		result = append(result, common.EfficiencySample{
			GPUSample:            s,
			PowerIntensityFactor: pif,
			RealizedTflops:       realized,
			RfuPct:               rfu,
			EfficiencyGap:        EfficiencyGap(s.GpuUtilizationPct, rfu),
			MemoryPressurePct:    MemoryPressure(s.MemoryUsedMb, s.MemoryFreeMb),
			EfficiencyClass:      ClassifyEfficiency(s.GpuUtilizationPct, pif),
		})
	}

	return result
}
