package common

import (
	"errors"
	"testing"
	"time"
)

func sampleTime() Timestamp {
	return NewTimestamp(time.Date(2026, 1, 20, 9, 30, 0, 0, time.UTC))
}

func validDemandRecord() DemandRecord {
	return DemandRecord{
		Timestamp:                sampleTime(),
		Cluster:                  "prod-us-east-1",
		Region:                   "us-east-1",
		Namespace:                "team-nlp",
		QueueName:                "training-queue",
		Nodegroup:                "ml-training-a100",
		PendingWorkloads:         4,
		AdmissionWaitTimeSeconds: 120,
		AdmittedActiveWorkloads:  10,
		EvictedWorkloadsTotal:    1,
		ResourceUsage:            16,
	}
}

func validCapacityRecord() CapacityRecord {
	return CapacityRecord{
		Timestamp:           sampleTime(),
		Nodegroup:           "ml-training-a100",
		Cluster:             "prod-us-east-1",
		Region:              "us-east-1",
		GpuModel:            "NVIDIA A100-SXM4-40GB",
		CapacityGpuCount:    32,
		AllocatableGpuCount: 30,
	}
}

func validGPUSample() GPUSample {
	return GPUSample{
		Timestamp:         sampleTime(),
		Hostname:          "ip-10-0-1-17.us-east-1.compute.internal",
		Cluster:           "prod-us-east-1",
		Region:            "us-east-1",
		Nodegroup:         "ml-training-a100",
		GpuModel:          "NVIDIA A100-SXM4-40GB",
		GpuUUID:           "GPU-deadbeef-0001-0",
		Namespace:         "team-nlp",
		GpuUtilizationPct: 85,
		PowerUsageWatts:   320,
		MemoryUsedMb:      30000,
		MemoryFreeMb:      10960,
		GpuTempCelsius:    64,
		TensorActivePct:   52,
	}
}

func TestValidateDemandTable(t *testing.T) {
	tests := []struct {
		testName string
		mutate   func(*DemandRecord)
		wantErr  bool
	}{
		{"valid_record", func(r *DemandRecord) {}, false},
		{"null_timestamp", func(r *DemandRecord) { r.Timestamp = Timestamp{} }, true},
		{"negative_pending", func(r *DemandRecord) { r.PendingWorkloads = -1 }, true},
		{"negative_wait", func(r *DemandRecord) { r.AdmissionWaitTimeSeconds = -0.5 }, true},
		{"negative_active", func(r *DemandRecord) { r.AdmittedActiveWorkloads = -3 }, true},
		{"negative_evicted", func(r *DemandRecord) { r.EvictedWorkloadsTotal = -1 }, true},
		{"negative_usage", func(r *DemandRecord) { r.ResourceUsage = -8 }, true},
		{"zero_counts_are_valid", func(r *DemandRecord) {
			r.PendingWorkloads = 0
			r.AdmissionWaitTimeSeconds = 0
			r.ResourceUsage = 0
		}, false},
	}

	for _, test := range tests {
		t.Run(test.testName, func(t *testing.T) {
			record := validDemandRecord()
			test.mutate(&record)

			err := ValidateDemandTable([]DemandRecord{record})
			if test.wantErr && !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
			if !test.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateCapacityTable(t *testing.T) {
	tests := []struct {
		testName string
		mutate   func(*CapacityRecord)
		wantErr  bool
	}{
		{"valid_record", func(r *CapacityRecord) {}, false},
		{"null_timestamp", func(r *CapacityRecord) { r.Timestamp = Timestamp{} }, true},
		{"negative_capacity", func(r *CapacityRecord) { r.CapacityGpuCount = -1 }, true},
		{"negative_allocatable", func(r *CapacityRecord) { r.AllocatableGpuCount = -1 }, true},
		{"allocatable_above_capacity", func(r *CapacityRecord) {
			r.CapacityGpuCount = 8
			r.AllocatableGpuCount = 9
		}, true},
		{"allocatable_equals_capacity", func(r *CapacityRecord) {
			r.CapacityGpuCount = 8
			r.AllocatableGpuCount = 8
		}, false},
	}

	for _, test := range tests {
		t.Run(test.testName, func(t *testing.T) {
			record := validCapacityRecord()
			test.mutate(&record)

			err := ValidateCapacityTable([]CapacityRecord{record})
			if test.wantErr && !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
			if !test.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateEfficiencyTable(t *testing.T) {
	tests := []struct {
		testName string
		mutate   func(*GPUSample)
		wantErr  bool
	}{
		{"valid_record", func(r *GPUSample) {}, false},
		{"null_timestamp", func(r *GPUSample) { r.Timestamp = Timestamp{} }, true},
		{"utilization_above_100", func(r *GPUSample) { r.GpuUtilizationPct = 100.5 }, true},
		{"utilization_negative", func(r *GPUSample) { r.GpuUtilizationPct = -0.1 }, true},
		{"utilization_at_bounds", func(r *GPUSample) { r.GpuUtilizationPct = 100 }, false},
		{"tensor_above_100", func(r *GPUSample) { r.TensorActivePct = 101 }, true},
		{"negative_power", func(r *GPUSample) { r.PowerUsageWatts = -10 }, true},
		{"negative_memory_used", func(r *GPUSample) { r.MemoryUsedMb = -1 }, true},
		{"negative_memory_free", func(r *GPUSample) { r.MemoryFreeMb = -1 }, true},
		{"temperature_above_max", func(r *GPUSample) { r.GpuTempCelsius = 121 }, true},
		{"temperature_at_max", func(r *GPUSample) { r.GpuTempCelsius = 120 }, false},
	}

	for _, test := range tests {
		t.Run(test.testName, func(t *testing.T) {
			record := validGPUSample()
			test.mutate(&record)

			err := ValidateEfficiencyTable([]GPUSample{record})
			if test.wantErr && !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
			if !test.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidationStopsAtFirstViolation(t *testing.T) {
	bad := validDemandRecord()
	bad.PendingWorkloads = -1

	err := ValidateDemandTable([]DemandRecord{validDemandRecord(), bad, validDemandRecord()})
	if err == nil {
		t.Fatal("expected error for corrupt row")
	}
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	var ts Timestamp
	if err := ts.UnmarshalCSV("2026-01-20 09:30:00"); err != nil {
		t.Fatal(err)
	}

	out, err := ts.MarshalCSV()
	if err != nil {
		t.Fatal(err)
	}
	if out != "2026-01-20 09:30:00" {
		t.Errorf("round trip mismatch: %s", out)
	}
}

func TestTimestampUnmarshalRejectsGarbage(t *testing.T) {
	var ts Timestamp
	err := ts.UnmarshalCSV("not-a-timestamp")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}
