package imbalance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/common"
)

func TestDemandCapacityRatio(t *testing.T) {
	eps := common.CapacityEpsilon

	assert.InDelta(t, 2.0, DemandCapacityRatio(20, 10, eps), 1e-6)
	assert.InDelta(t, 0.0, DemandCapacityRatio(0, 10, eps), 1e-9)

	// Monotonic in pending.
	low := DemandCapacityRatio(5, 10, eps)
	high := DemandCapacityRatio(15, 10, eps)
	assert.Greater(t, high, low)

	// Zero available capacity under nonzero demand registers as extreme.
	extreme := DemandCapacityRatio(1, 0, eps)
	assert.Greater(t, extreme, 1e5)
}

func TestQueuePressureBounds(t *testing.T) {
	pending := []float64{0, 5, 10, 3, 8}
	waitTime := []float64{0, 60, 600, 30, 120}

	qps, err := QueuePressure(pending, waitTime, DefaultScoreOptions())
	require.NoError(t, err)

	for i, v := range qps {
		if v < 0 || v > 1 {
			t.Errorf("element %d: pressure %f out of [0, 1]", i, v)
		}
	}

	// Element 2 holds both maxima, so it hits exactly 1.
	assert.InDelta(t, 1.0, qps[2], 1e-9)
	assert.InDelta(t, 0.0, qps[0], 1e-9)
}

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		testName string
		cis      float64
		dcr      float64
		expected string
	}{
		{"critical_by_score", 0.8, 0.5, common.SeverityCritical},
		{"critical_by_ratio", 0.3, 2.5, common.SeverityCritical},
		{"warning_by_score", 0.6, 0.5, common.SeverityWarning},
		{"warning_by_ratio", 0.2, 1.5, common.SeverityWarning},
		{"moderate", 0.4, 0.2, common.SeverityModerate},
		{"healthy", 0.2, 0.3, common.SeverityHealthy},
		{"boundaries_are_exclusive", 0.3, 1.0, common.SeverityHealthy},
		{"missing_score_defers_to_ratio", common.Missing(), 2.5, common.SeverityCritical},
		{"missing_score_and_low_ratio", common.Missing(), 0.5, common.SeverityHealthy},
	}

	for _, test := range tests {
		t.Run(test.testName, func(t *testing.T) {
			severity := ClassifySeverity(test.cis, test.dcr)
			if severity != test.expected {
				t.Errorf("expected %s, got %s", test.expected, severity)
			}
		})
	}
}

func TestScore(t *testing.T) {
	records := []common.UnifiedRecord{
		{
			Hour: hourTs(9), Nodegroup: "idle-group",
			PendingWorkloads: 0, AdmissionWaitTimeSeconds: 0,
			AllocatableGpuCount: 10, ResourceUsage: 0,
			EfficiencyGap: 0,
		},
		{
			Hour: hourTs(9), Nodegroup: "hot-group",
			PendingWorkloads: 20, AdmissionWaitTimeSeconds: 100,
			AllocatableGpuCount: 10, ResourceUsage: 5,
			EfficiencyGap: 10,
		},
	}

	scored, err := Score(records, DefaultScoreOptions())
	require.NoError(t, err)
	require.Len(t, scored, 2)

	idle, hot := scored[0], scored[1]

	assert.InDelta(t, 10.0, idle.AvailableCapacity, 1e-9)
	assert.InDelta(t, 5.0, hot.AvailableCapacity, 1e-9)
	assert.InDelta(t, 4.0, hot.DemandCapacityRatio, 1e-6)

	// The hot bucket dominates every normalized component.
	assert.InDelta(t, 1.0, hot.CompositeImbalanceScore, 1e-6)
	assert.InDelta(t, 0.0, idle.CompositeImbalanceScore, 1e-6)

	assert.Equal(t, common.SeverityCritical, hot.ImbalanceSeverity)
	assert.Equal(t, common.SeverityHealthy, idle.ImbalanceSeverity)
}

func TestScoreClampsAvailableCapacityAtZero(t *testing.T) {
	records := []common.UnifiedRecord{
		{
			Hour: hourTs(9), Nodegroup: "oversubscribed",
			PendingWorkloads:    3,
			AllocatableGpuCount: 4, ResourceUsage: 10,
			EfficiencyGap: 0,
		},
	}

	scored, err := Score(records, DefaultScoreOptions())
	require.NoError(t, err)

	assert.Zero(t, scored[0].AvailableCapacity)
	assert.Greater(t, scored[0].DemandCapacityRatio, 1e5)
	assert.Equal(t, common.SeverityCritical, scored[0].ImbalanceSeverity)
}

func TestScoreNegativeGapDoesNotReduceScore(t *testing.T) {
	base := common.UnifiedRecord{
		Hour: hourTs(9), Nodegroup: "g",
		PendingWorkloads: 5, AdmissionWaitTimeSeconds: 50,
		AllocatableGpuCount: 10, ResourceUsage: 0,
	}

	anomalous := base
	anomalous.EfficiencyGap = -20
	zeroGap := base
	zeroGap.EfficiencyGap = 0

	other := base
	other.Nodegroup = "other"
	other.PendingWorkloads = 10
	other.EfficiencyGap = 15

	scoredAnomalous, err := Score([]common.UnifiedRecord{anomalous, other}, DefaultScoreOptions())
	require.NoError(t, err)
	scoredZero, err := Score([]common.UnifiedRecord{zeroGap, other}, DefaultScoreOptions())
	require.NoError(t, err)

	// A negative gap contributes exactly as much as a zero gap.
	assert.InDelta(t, scoredZero[0].CompositeImbalanceScore, scoredAnomalous[0].CompositeImbalanceScore, 1e-9)
}

func TestScoreMissingEfficiencyStaysMissing(t *testing.T) {
	records := []common.UnifiedRecord{
		{
			Hour: hourTs(9), Nodegroup: "dark-group",
			PendingWorkloads: 25, AdmissionWaitTimeSeconds: 300,
			AllocatableGpuCount: 10, ResourceUsage: 0,
			EfficiencyGap: common.Missing(),
		},
		{
			Hour: hourTs(9), Nodegroup: "lit-group",
			PendingWorkloads: 1, AdmissionWaitTimeSeconds: 10,
			AllocatableGpuCount: 10, ResourceUsage: 0,
			EfficiencyGap: 5,
		},
	}

	scored, err := Score(records, DefaultScoreOptions())
	require.NoError(t, err)

	dark := scored[0]
	assert.True(t, common.IsMissing(dark.CompositeImbalanceScore))

	// Severity still escalates on the raw ratio alone.
	assert.Equal(t, common.SeverityCritical, dark.ImbalanceSeverity)
}

func TestScoreMissingCapacityPropagates(t *testing.T) {
	records := []common.UnifiedRecord{
		{
			Hour: hourTs(9), Nodegroup: "no-inventory",
			PendingWorkloads:    2,
			AllocatableGpuCount: common.Missing(), ResourceUsage: 0,
			EfficiencyGap: common.Missing(),
		},
	}

	scored, err := Score(records, DefaultScoreOptions())
	require.NoError(t, err)

	r := scored[0]
	assert.True(t, common.IsMissing(r.AvailableCapacity))
	assert.True(t, common.IsMissing(r.DemandCapacityRatio))
	assert.True(t, common.IsMissing(r.CompositeImbalanceScore))
	assert.Equal(t, common.SeverityHealthy, r.ImbalanceSeverity)
}

func TestScoreUnknownNormalizationMethod(t *testing.T) {
	opts := DefaultScoreOptions()
	opts.Method = "zscore"

	_, err := Score([]common.UnifiedRecord{{Hour: hourTs(9)}}, opts)
	assert.ErrorIs(t, err, common.ErrConfig)
}
