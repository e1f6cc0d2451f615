package aggregate

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/common"
)

// FleetSummary is one fleet-wide row per hour, aggregated across all
// nodegroups to show overall trends.
type FleetSummary struct {
	Hour common.Timestamp `csv:"timestamp_hour"`

	PendingWorkloads         float64 `csv:"pending_workloads"`
	AdmissionWaitTimeSeconds float64 `csv:"admission_wait_time_seconds"`
	AdmittedActiveWorkloads  float64 `csv:"admitted_active_workloads"`
	ResourceUsage            float64 `csv:"resource_usage"`
	CapacityGpuCount         float64 `csv:"capacity_gpu_count"`
	AllocatableGpuCount      float64 `csv:"allocatable_gpu_count"`
	GpuUtilizationPct        float64 `csv:"gpu_utilization_pct"`
	PowerIntensityFactor     float64 `csv:"power_intensity_factor"`
	RfuPct                   float64 `csv:"rfu_pct"`
	EfficiencyGap            float64 `csv:"efficiency_gap"`
}

// SummarizeFleet collapses unified records across nodegroups into one row
// per hour. Counts sum and rates average; missing capacity or efficiency
// values are skipped rather than treated as zero.
func SummarizeFleet(records []common.UnifiedRecord) []FleetSummary {
	byHour := map[time.Time][]common.UnifiedRecord{}
	var hours []time.Time
	for _, r := range records {
		hour := r.Hour.UTC()
		if _, ok := byHour[hour]; !ok {
			hours = append(hours, hour)
		}
		byHour[hour] = append(byHour[hour], r)
	}
	sort.Slice(hours, func(i, j int) bool { return hours[i].Before(hours[j]) })

	result := make([]FleetSummary, 0, len(hours))
	for _, hour := range hours {
		rows := byHour[hour]
		summary := FleetSummary{Hour: common.NewTimestamp(hour)}

		for _, r := range rows {
			summary.PendingWorkloads += r.PendingWorkloads
			summary.AdmittedActiveWorkloads += r.AdmittedActiveWorkloads
			summary.ResourceUsage += r.ResourceUsage
		}

		summary.AdmissionWaitTimeSeconds = meanPresent(rows, func(r common.UnifiedRecord) float64 { return r.AdmissionWaitTimeSeconds })
		summary.CapacityGpuCount = sumPresent(rows, func(r common.UnifiedRecord) float64 { return r.CapacityGpuCount })
		summary.AllocatableGpuCount = sumPresent(rows, func(r common.UnifiedRecord) float64 { return r.AllocatableGpuCount })
		summary.GpuUtilizationPct = meanPresent(rows, func(r common.UnifiedRecord) float64 { return r.GpuUtilizationPct })
		summary.PowerIntensityFactor = meanPresent(rows, func(r common.UnifiedRecord) float64 { return r.PowerIntensityFactor })
		summary.RfuPct = meanPresent(rows, func(r common.UnifiedRecord) float64 { return r.RfuPct })
		summary.EfficiencyGap = meanPresent(rows, func(r common.UnifiedRecord) float64 { return r.EfficiencyGap })

		result = append(result, summary)
	}

	return result
}

// RollingMeanStd computes the trailing-window mean and sample standard
// deviation at each position. Windows shorter than two elements yield a NaN
// deviation.
func RollingMeanStd(values []float64, window int) (means, stds []float64) {
	means = make([]float64, len(values))
	stds = make([]float64, len(values))

	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}

		slice := present(values[start : i+1])
		if len(slice) == 0 {
			means[i] = common.Missing()
			stds[i] = common.Missing()
			continue
		}

		mean, std := stat.MeanStdDev(slice, nil)
		means[i] = mean
		stds[i] = std
	}

	return means, stds
}

func present(values []float64) []float64 {
	result := make([]float64, 0, len(values))
	for _, v := range values {
		if !common.IsMissing(v) {
			result = append(result, v)
		}
	}
	return result
}

func sumPresent(rows []common.UnifiedRecord, field func(common.UnifiedRecord) float64) float64 {
	values := make([]float64, 0, len(rows))
	for _, r := range rows {
		values = append(values, field(r))
	}

	kept := present(values)
	if len(kept) == 0 {
		return common.Missing()
	}
	return Reduce(kept, ReduceSum)
}

func meanPresent(rows []common.UnifiedRecord, field func(common.UnifiedRecord) float64) float64 {
	values := make([]float64, 0, len(rows))
	for _, r := range rows {
		values = append(values, field(r))
	}

	kept := present(values)
	if len(kept) == 0 {
		return common.Missing()
	}
	return Reduce(kept, ReduceMean)
}
