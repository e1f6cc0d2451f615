package common

import "time"

// BucketKey is the composite key every aggregation and join operates on.
type BucketKey struct {
	Hour      time.Time
	Nodegroup string
}

// DemandAggregate holds the demand signal reduced to one (hour, nodegroup) bucket.
type DemandAggregate struct {
	Hour                     Timestamp `csv:"timestamp_hour"`
	Nodegroup                string    `csv:"nodegroup"`
	PendingWorkloads         float64   `csv:"pending_workloads"`
	AdmissionWaitTimeSeconds float64   `csv:"admission_wait_time_seconds"`
	AdmittedActiveWorkloads  float64   `csv:"admitted_active_workloads"`
	EvictedWorkloadsTotal    float64   `csv:"evicted_workloads_total"`
	ResourceUsage            float64   `csv:"resource_usage"`
}

// CapacityAggregate holds the inventory signal reduced to one bucket.
type CapacityAggregate struct {
	Hour                Timestamp `csv:"timestamp_hour"`
	Nodegroup           string    `csv:"nodegroup"`
	CapacityGpuCount    float64   `csv:"capacity_gpu_count"`
	AllocatableGpuCount float64   `csv:"allocatable_gpu_count"`
}

// EfficiencyAggregate holds the derived GPU productivity metrics reduced to
// one bucket.
type EfficiencyAggregate struct {
	Hour                 Timestamp `csv:"timestamp_hour"`
	Nodegroup            string    `csv:"nodegroup"`
	GpuUtilizationPct    float64   `csv:"gpu_utilization_pct"`
	PowerUsageWatts      float64   `csv:"power_usage_watts"`
	PowerIntensityFactor float64   `csv:"power_intensity_factor"`
	RfuPct               float64   `csv:"rfu_pct"`
	EfficiencyGap        float64   `csv:"efficiency_gap"`
	MemoryPressurePct    float64   `csv:"memory_pressure_pct"`
	GpuTempCelsius       float64   `csv:"gpu_temp_celsius"`
}

// UnifiedRecord is the full outer join of the three aggregates on BucketKey.
//
// Demand columns are zero-filled where the bucket saw no admitted or pending
// activity. Capacity and efficiency columns are NaN when that source produced
// no rows for the bucket, so consumers can tell "no GPUs reporting" apart
// from "GPUs reporting zero".
type UnifiedRecord struct {
	Hour      Timestamp `csv:"timestamp_hour"`
	Nodegroup string    `csv:"nodegroup"`

	PendingWorkloads         float64 `csv:"pending_workloads"`
	AdmissionWaitTimeSeconds float64 `csv:"admission_wait_time_seconds"`
	AdmittedActiveWorkloads  float64 `csv:"admitted_active_workloads"`
	EvictedWorkloadsTotal    float64 `csv:"evicted_workloads_total"`
	ResourceUsage            float64 `csv:"resource_usage"`

	CapacityGpuCount    float64 `csv:"capacity_gpu_count"`
	AllocatableGpuCount float64 `csv:"allocatable_gpu_count"`

	GpuUtilizationPct    float64 `csv:"gpu_utilization_pct"`
	PowerUsageWatts      float64 `csv:"power_usage_watts"`
	PowerIntensityFactor float64 `csv:"power_intensity_factor"`
	RfuPct               float64 `csv:"rfu_pct"`
	EfficiencyGap        float64 `csv:"efficiency_gap"`
	MemoryPressurePct    float64 `csv:"memory_pressure_pct"`
	GpuTempCelsius       float64 `csv:"gpu_temp_celsius"`
}

func (u UnifiedRecord) Key() BucketKey {
	return BucketKey{Hour: u.Hour.UTC(), Nodegroup: u.Nodegroup}
}

// ImbalanceRecord is a UnifiedRecord extended with the imbalance scores and
// the severity label. It is the terminal output of the scoring stage.
type ImbalanceRecord struct {
	UnifiedRecord

	AvailableCapacity       float64 `csv:"available_capacity"`
	DemandCapacityRatio     float64 `csv:"demand_capacity_ratio"`
	QueuePressureScore      float64 `csv:"queue_pressure_score"`
	CompositeImbalanceScore float64 `csv:"composite_imbalance_score"`
	ImbalanceSeverity       string  `csv:"imbalance_severity"`
}
