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

package common

import "fmt"

// Table validation is fail-fast and all-or-nothing: the first violation
// aborts the table before any metric is derived from it.

func ValidateDemandTable(records []DemandRecord) error {
	for i, r := range records {
		if err := checkTimestamp("kueue_metrics", i, r.Timestamp); err != nil {
			return err
		}
		if r.PendingWorkloads < 0 {
			return rowError("kueue_metrics", i, "pending_workloads is negative")
		}
		if r.AdmissionWaitTimeSeconds < 0 {
			return rowError("kueue_metrics", i, "admission_wait_time_seconds is negative")
		}
		if r.AdmittedActiveWorkloads < 0 {
			return rowError("kueue_metrics", i, "admitted_active_workloads is negative")
		}
		if r.EvictedWorkloadsTotal < 0 {
			return rowError("kueue_metrics", i, "evicted_workloads_total is negative")
		}
		if r.ResourceUsage < 0 {
			return rowError("kueue_metrics", i, "resource_usage is negative")
		}
	}

	return nil
}

func ValidateCapacityTable(records []CapacityRecord) error {
	for i, r := range records {
		if err := checkTimestamp("nodepool_state", i, r.Timestamp); err != nil {
			return err
		}
		if r.CapacityGpuCount < 0 {
			return rowError("nodepool_state", i, "capacity_gpu_count is negative")
		}
		if r.AllocatableGpuCount < 0 {
			return rowError("nodepool_state", i, "allocatable_gpu_count is negative")
		}
		if r.AllocatableGpuCount > r.CapacityGpuCount {
			return rowError("nodepool_state", i, "allocatable_gpu_count exceeds capacity_gpu_count")
		}
	}

	return nil
}

func ValidateEfficiencyTable(records []GPUSample) error {
	for i, r := range records {
		if err := checkTimestamp("dcgm_metrics", i, r.Timestamp); err != nil {
			return err
		}
		if r.GpuUtilizationPct < 0 || r.GpuUtilizationPct > 100 {
			return rowError("dcgm_metrics", i, "gpu_utilization_pct out of range [0, 100]")
		}
		if r.TensorActivePct < 0 || r.TensorActivePct > 100 {
			return rowError("dcgm_metrics", i, "tensor_active_pct out of range [0, 100]")
		}
		if r.PowerUsageWatts < 0 {
			return rowError("dcgm_metrics", i, "power_usage_watts is negative")
		}
		if r.MemoryUsedMb < 0 {
			return rowError("dcgm_metrics", i, "memory_used_mb is negative")
		}
		if r.MemoryFreeMb < 0 {
			return rowError("dcgm_metrics", i, "memory_free_mb is negative")
		}
		if r.GpuTempCelsius < 0 || r.GpuTempCelsius > MaxGpuTempCelsius {
			return rowError("dcgm_metrics", i, "gpu_temp_celsius out of range [0, 120]")
		}
	}

	return nil
}

func checkTimestamp(table string, row int, ts Timestamp) error {
	if ts.IsZero() {
		return rowError(table, row, "timestamp is null")
	}
	return nil
}

func rowError(table string, row int, msg string) error {
	return fmt.Errorf("%w: %s row %d: %s", ErrValidation, table, row, msg)
}
