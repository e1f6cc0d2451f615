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

// Package aggregate reshapes raw telemetry into hourly (bucket, nodegroup)
// aggregates and joins the three sources into unified records. Every
// operation here is a stateless function of its inputs.
package aggregate

import (
	"github.com/montanaflynn/stats"

	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/common"
)

// Reduction names the function collapsing one column of a bucket's rows into
// a single value. The zero value means "use the default", which is Mean for
// every numeric column.
type Reduction string

const (
	ReduceDefault Reduction = ""
	ReduceSum     Reduction = "sum"
	ReduceMean    Reduction = "mean"
	ReduceMax     Reduction = "max"
	ReduceFirst   Reduction = "first"
)

// Reduce collapses values with the named reduction. Callers guarantee at
// least one value per bucket; grouping never produces an empty bucket.
func Reduce(values []float64, r Reduction) float64 {
	data := stats.LoadRawData(values)

	var result float64
	switch r {
	case ReduceSum:
		result, _ = stats.Sum(data)
	case ReduceMax:
		result, _ = stats.Max(data)
	case ReduceFirst:
		result = values[0]
	default: // ReduceMean
		result, _ = stats.Mean(data)
	}

	return result
}

// DemandReductions selects the reduction per demand column. Counts sum,
// rates average, cumulative counters take the in-bucket max.
type DemandReductions struct {
	PendingWorkloads         Reduction
	AdmissionWaitTimeSeconds Reduction
	AdmittedActiveWorkloads  Reduction
	EvictedWorkloadsTotal    Reduction
	ResourceUsage            Reduction
}

func DefaultDemandReductions() DemandReductions {
	return DemandReductions{
		PendingWorkloads:         ReduceSum,
		AdmissionWaitTimeSeconds: ReduceMean,
		AdmittedActiveWorkloads:  ReduceSum,
		EvictedWorkloadsTotal:    ReduceMax,
		ResourceUsage:            ReduceSum,
	}
}

type CapacityReductions struct {
	CapacityGpuCount    Reduction
	AllocatableGpuCount Reduction
}

func DefaultCapacityReductions() CapacityReductions {
	return CapacityReductions{
		CapacityGpuCount:    ReduceMean,
		AllocatableGpuCount: ReduceMean,
	}
}

type EfficiencyReductions struct {
	GpuUtilizationPct    Reduction
	PowerUsageWatts      Reduction
	PowerIntensityFactor Reduction
	RfuPct               Reduction
	EfficiencyGap        Reduction
	MemoryPressurePct    Reduction
	GpuTempCelsius       Reduction
}

func DefaultEfficiencyReductions() EfficiencyReductions {
	return EfficiencyReductions{}
}

// grouping collects per-bucket column values in first-seen key order.
type grouping struct {
	keys    []common.BucketKey
	columns map[common.BucketKey]map[string][]float64
}

func newGrouping() *grouping {
	return &grouping{columns: map[common.BucketKey]map[string][]float64{}}
}

func (g *grouping) add(key common.BucketKey, values map[string]float64) {
	bucket, ok := g.columns[key]
	if !ok {
		bucket = map[string][]float64{}
		g.columns[key] = bucket
		g.keys = append(g.keys, key)
	}

	for column, v := range values {
		bucket[column] = append(bucket[column], v)
	}
}

func (g *grouping) sortedKeys() []common.BucketKey {
	keys := make([]common.BucketKey, len(g.keys))
	copy(keys, g.keys)
	sortKeys(keys)
	return keys
}

// AggregateDemandHourly floors demand records to the hour and reduces them
// per (hour, nodegroup).
func AggregateDemandHourly(records []common.DemandRecord, reductions DemandReductions) []common.DemandAggregate {
	g := newGrouping()
	for _, r := range records {
		g.add(bucketOf(r.Timestamp, r.Nodegroup), map[string]float64{
			"pending": r.PendingWorkloads,
			"wait":    r.AdmissionWaitTimeSeconds,
			"active":  r.AdmittedActiveWorkloads,
			"evicted": r.EvictedWorkloadsTotal,
			"usage":   r.ResourceUsage,
		})
	}

	result := make([]common.DemandAggregate, 0, len(g.columns))
	for _, key := range g.sortedKeys() {
		bucket := g.columns[key]
		result = append(result, common.DemandAggregate{
			Hour:                     common.NewTimestamp(key.Hour),
			Nodegroup:                key.Nodegroup,
			PendingWorkloads:         Reduce(bucket["pending"], reductions.PendingWorkloads),
			AdmissionWaitTimeSeconds: Reduce(bucket["wait"], reductions.AdmissionWaitTimeSeconds),
			AdmittedActiveWorkloads:  Reduce(bucket["active"], reductions.AdmittedActiveWorkloads),
			EvictedWorkloadsTotal:    Reduce(bucket["evicted"], reductions.EvictedWorkloadsTotal),
			ResourceUsage:            Reduce(bucket["usage"], reductions.ResourceUsage),
		})
	}

	return result
}

// AggregateCapacityHourly floors capacity records to the hour and reduces
// them per (hour, nodegroup).
func AggregateCapacityHourly(records []common.CapacityRecord, reductions CapacityReductions) []common.CapacityAggregate {
	g := newGrouping()
	for _, r := range records {
		g.add(bucketOf(r.Timestamp, r.Nodegroup), map[string]float64{
			"capacity":    r.CapacityGpuCount,
			"allocatable": r.AllocatableGpuCount,
		})
	}

	result := make([]common.CapacityAggregate, 0, len(g.columns))
	for _, key := range g.sortedKeys() {
		bucket := g.columns[key]
		result = append(result, common.CapacityAggregate{
			Hour:                common.NewTimestamp(key.Hour),
			Nodegroup:           key.Nodegroup,
			CapacityGpuCount:    Reduce(bucket["capacity"], reductions.CapacityGpuCount),
			AllocatableGpuCount: Reduce(bucket["allocatable"], reductions.AllocatableGpuCount),
		})
	}

	return result
}

// AggregateEfficiencyHourly floors annotated GPU samples to the hour and
// reduces them per (hour, nodegroup), collapsing across all GPUs in the
// group.
func AggregateEfficiencyHourly(samples []common.EfficiencySample, reductions EfficiencyReductions) []common.EfficiencyAggregate {
	g := newGrouping()
	for _, s := range samples {
		g.add(bucketOf(s.Timestamp, s.Nodegroup), map[string]float64{
			"util":     s.GpuUtilizationPct,
			"power":    s.PowerUsageWatts,
			"pif":      s.PowerIntensityFactor,
			"rfu":      s.RfuPct,
			"gap":      s.EfficiencyGap,
			"pressure": s.MemoryPressurePct,
			"temp":     s.GpuTempCelsius,
		})
	}

	result := make([]common.EfficiencyAggregate, 0, len(g.columns))
	for _, key := range g.sortedKeys() {
		bucket := g.columns[key]
		result = append(result, common.EfficiencyAggregate{
			Hour:                 common.NewTimestamp(key.Hour),
			Nodegroup:            key.Nodegroup,
			GpuUtilizationPct:    Reduce(bucket["util"], reductions.GpuUtilizationPct),
			PowerUsageWatts:      Reduce(bucket["power"], reductions.PowerUsageWatts),
			PowerIntensityFactor: Reduce(bucket["pif"], reductions.PowerIntensityFactor),
			RfuPct:               Reduce(bucket["rfu"], reductions.RfuPct),
			EfficiencyGap:        Reduce(bucket["gap"], reductions.EfficiencyGap),
			MemoryPressurePct:    Reduce(bucket["pressure"], reductions.MemoryPressurePct),
			GpuTempCelsius:       Reduce(bucket["temp"], reductions.GpuTempCelsius),
		})
	}

	return result
}
