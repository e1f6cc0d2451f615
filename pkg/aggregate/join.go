package aggregate

import (
	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/common"
)

// BuildUnified full-outer-joins the three aggregated tables on
// (hour, nodegroup): demand with capacity first, then the result with
// efficiency.
//
// Demand columns are zero-filled where missing - a bucket with no admitted
// or pending activity. The cumulative eviction counter is the exception: a
// zero there would claim "no evictions ever", so it stays NaN like the
// capacity and efficiency columns, which remain NaN where that source
// produced nothing so "no GPUs reporting" stays distinguishable from "GPUs
// reporting zero utilization". Output is ordered by (hour, nodegroup).
func BuildUnified(
	demand []common.DemandAggregate,
	capacity []common.CapacityAggregate,
	efficiency []common.EfficiencyAggregate,
) []common.UnifiedRecord {
	demandByKey := make(map[common.BucketKey]common.DemandAggregate, len(demand))
	for _, d := range demand {
		demandByKey[bucketOf(d.Hour, d.Nodegroup)] = d
	}

	capacityByKey := make(map[common.BucketKey]common.CapacityAggregate, len(capacity))
	for _, c := range capacity {
		capacityByKey[bucketOf(c.Hour, c.Nodegroup)] = c
	}

	efficiencyByKey := make(map[common.BucketKey]common.EfficiencyAggregate, len(efficiency))
	for _, e := range efficiency {
		efficiencyByKey[bucketOf(e.Hour, e.Nodegroup)] = e
	}

	var keys []common.BucketKey
	seen := map[common.BucketKey]bool{}
	collect := func(key common.BucketKey) {
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	for key := range demandByKey {
		collect(key)
	}
	for key := range capacityByKey {
		collect(key)
	}
	for key := range efficiencyByKey {
		collect(key)
	}
	sortKeys(keys)

	result := make([]common.UnifiedRecord, 0, len(keys))
	for _, key := range keys {
		u := common.UnifiedRecord{
			Hour:      common.NewTimestamp(key.Hour),
			Nodegroup: key.Nodegroup,

			EvictedWorkloadsTotal: common.Missing(),

			CapacityGpuCount:    common.Missing(),
			AllocatableGpuCount: common.Missing(),

			GpuUtilizationPct:    common.Missing(),
			PowerUsageWatts:      common.Missing(),
			PowerIntensityFactor: common.Missing(),
			RfuPct:               common.Missing(),
			EfficiencyGap:        common.Missing(),
			MemoryPressurePct:    common.Missing(),
			GpuTempCelsius:       common.Missing(),
		}

		if d, ok := demandByKey[key]; ok {
			u.PendingWorkloads = d.PendingWorkloads
			u.AdmissionWaitTimeSeconds = d.AdmissionWaitTimeSeconds
			u.AdmittedActiveWorkloads = d.AdmittedActiveWorkloads
			u.EvictedWorkloadsTotal = d.EvictedWorkloadsTotal
			u.ResourceUsage = d.ResourceUsage
		}

		if c, ok := capacityByKey[key]; ok {
			u.CapacityGpuCount = c.CapacityGpuCount
			u.AllocatableGpuCount = c.AllocatableGpuCount
		}

		if e, ok := efficiencyByKey[key]; ok {
			u.GpuUtilizationPct = e.GpuUtilizationPct
			u.PowerUsageWatts = e.PowerUsageWatts
			u.PowerIntensityFactor = e.PowerIntensityFactor
			u.RfuPct = e.RfuPct
			u.EfficiencyGap = e.EfficiencyGap
			u.MemoryPressurePct = e.MemoryPressurePct
			u.GpuTempCelsius = e.GpuTempCelsius
		}

		result = append(result, u)
	}

	return result
}
