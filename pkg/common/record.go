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

import (
	"fmt"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05"

// Timestamp wraps time.Time so that the telemetry CSV timestamp format
// round-trips through gocsv.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.UTC()}
}

func (t *Timestamp) UnmarshalCSV(field string) error {
	if field == "" {
		// Left as the zero value; the validators reject it.
		t.Time = time.Time{}
		return nil
	}

	for _, layout := range []string{timestampLayout, time.RFC3339} {
		parsed, err := time.Parse(layout, field)
		if err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}

	return fmt.Errorf("%w: unparseable timestamp %q", ErrValidation, field)
}

func (t Timestamp) MarshalCSV() (string, error) {
	return t.UTC().Format(timestampLayout), nil
}

// DemandRecord is one scrape of Kueue queue state - the demand signal.
type DemandRecord struct {
	Timestamp                Timestamp `csv:"timestamp"`
	Cluster                  string    `csv:"cluster"`
	Region                   string    `csv:"region"`
	Namespace                string    `csv:"namespace"`
	QueueName                string    `csv:"queue_name"`
	Nodegroup                string    `csv:"nodegroup"`
	PendingWorkloads         float64   `csv:"pending_workloads"`
	AdmissionWaitTimeSeconds float64   `csv:"admission_wait_time_seconds"`
	AdmittedActiveWorkloads  float64   `csv:"admitted_active_workloads"`
	EvictedWorkloadsTotal    float64   `csv:"evicted_workloads_total"`
	ResourceUsage            float64   `csv:"resource_usage"`
}

// CapacityRecord is one scrape of nodepool inventory - the capacity signal.
type CapacityRecord struct {
	Timestamp           Timestamp `csv:"timestamp"`
	Nodegroup           string    `csv:"nodegroup"`
	Cluster             string    `csv:"cluster"`
	Region              string    `csv:"region"`
	GpuModel            string    `csv:"gpu_model"`
	CapacityGpuCount    float64   `csv:"capacity_gpu_count"`
	AllocatableGpuCount float64   `csv:"allocatable_gpu_count"`
}

// GPUSample is one DCGM observation of a single GPU - the efficiency signal.
type GPUSample struct {
	Timestamp         Timestamp `csv:"timestamp"`
	Hostname          string    `csv:"hostname"`
	Cluster           string    `csv:"cluster"`
	Region            string    `csv:"region"`
	Nodegroup         string    `csv:"nodegroup"`
	GpuModel          string    `csv:"gpu_model"`
	GpuUUID           string    `csv:"gpu_uuid"`
	Namespace         string    `csv:"namespace"`
	GpuUtilizationPct float64   `csv:"gpu_utilization_pct"`
	PowerUsageWatts   float64   `csv:"power_usage_watts"`
	MemoryUsedMb      float64   `csv:"memory_used_mb"`
	MemoryFreeMb      float64   `csv:"memory_free_mb"`
	GpuTempCelsius    float64   `csv:"gpu_temp_celsius"`
	TensorActivePct   float64   `csv:"tensor_active_pct"`
}

// EfficiencySample is a GPUSample annotated with the derived productivity
// metrics. The appended columns are part of the reporting contract.
type EfficiencySample struct {
	GPUSample

	PowerIntensityFactor float64 `csv:"power_intensity_factor"`
	RealizedTflops       float64 `csv:"realized_tflops"`
	RfuPct               float64 `csv:"rfu_pct"`
	EfficiencyGap        float64 `csv:"efficiency_gap"`
	MemoryPressurePct    float64 `csv:"memory_pressure_pct"`
	EfficiencyClass      string  `csv:"efficiency_class"`
}
