package imbalance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/common"
)

func hourTs(hour int) common.Timestamp {
	return common.NewTimestamp(time.Date(2026, 1, 20, hour, 0, 0, 0, time.UTC))
}

func scoredRecord(hour int, nodegroup string, cis, pending, gap float64) common.ImbalanceRecord {
	return common.ImbalanceRecord{
		UnifiedRecord: common.UnifiedRecord{
			Hour:             hourTs(hour),
			Nodegroup:        nodegroup,
			PendingWorkloads: pending,
			EfficiencyGap:    gap,
		},
		CompositeImbalanceScore: cis,
	}
}

func demandRecord(hour int, queue, namespace string, pending, wait, active, usage float64) common.DemandRecord {
	return common.DemandRecord{
		Timestamp:                hourTs(hour),
		QueueName:                queue,
		Namespace:                namespace,
		Nodegroup:                "ml-training-a100",
		PendingWorkloads:         pending,
		AdmissionWaitTimeSeconds: wait,
		AdmittedActiveWorkloads:  active,
		ResourceUsage:            usage,
	}
}

func TestTopContributorsRanksNodegroupsByMeanScore(t *testing.T) {
	scored := []common.ImbalanceRecord{
		scoredRecord(9, "calm-group", 0.1, 2, 1),
		scoredRecord(10, "calm-group", 0.3, 2, 1),
		scoredRecord(9, "hot-group", 0.8, 10, 20),
		scoredRecord(10, "hot-group", 0.6, 12, 22),
		scoredRecord(9, "warm-group", 0.4, 5, 8),
	}

	result, err := TopContributors(scored, nil, 2, DefaultScoreOptions())
	require.NoError(t, err)
	require.Len(t, result.ByNodegroup, 2)

	hot := result.ByNodegroup[0]
	assert.Equal(t, "hot-group", hot.Nodegroup)
	assert.InDelta(t, 0.7, hot.MeanImbalanceScore, 1e-9)
	assert.InDelta(t, 22.0, hot.TotalPending, 1e-9)
	assert.InDelta(t, 21.0, hot.MeanEfficiencyGap, 1e-9)

	assert.Equal(t, "warm-group", result.ByNodegroup[1].Nodegroup)
}

func TestTopContributorsRanksQueues(t *testing.T) {
	demand := []common.DemandRecord{
		demandRecord(9, "batch-queue", "team-a", 2, 30, 4, 8),
		demandRecord(9, "training-queue", "team-b", 20, 600, 10, 40),
		demandRecord(10, "training-queue", "team-b", 10, 400, 8, 40),
		demandRecord(9, "dev-queue", "team-c", 0, 5, 1, 2),
	}

	result, err := TopContributors(nil, demand, 3, DefaultScoreOptions())
	require.NoError(t, err)
	require.Len(t, result.ByQueue, 3)

	top := result.ByQueue[0]
	assert.Equal(t, "training-queue", top.QueueName)
	assert.InDelta(t, 30.0, top.TotalPending, 1e-9)
	assert.InDelta(t, 500.0, top.MeanWaitSeconds, 1e-9)
	assert.InDelta(t, 18.0, top.TotalActive, 1e-9)

	// The queue holding both maxima scores exactly 1.
	assert.InDelta(t, 1.0, top.PressureScore, 1e-9)
}

func TestTopContributorsRanksNamespaces(t *testing.T) {
	demand := []common.DemandRecord{
		demandRecord(9, "q1", "team-nlp", 15, 300, 5, 60),
		demandRecord(9, "q2", "team-vision", 3, 50, 2, 10),
		demandRecord(10, "q3", "team-nlp", 5, 100, 3, 20),
	}

	result, err := TopContributors(nil, demand, 5, DefaultScoreOptions())
	require.NoError(t, err)
	require.Len(t, result.ByNamespace, 2)

	top := result.ByNamespace[0]
	assert.Equal(t, "team-nlp", top.Namespace)
	assert.InDelta(t, 20.0, top.TotalPending, 1e-9)
	assert.InDelta(t, 80.0, top.TotalUsage, 1e-9)
}

func TestTopContributorsDimensionsAreIndependent(t *testing.T) {
	// The noisiest nodegroup and the noisiest queue belong to different
	// workloads; each list ranks on its own dimension only.
	scored := []common.ImbalanceRecord{
		scoredRecord(9, "gpu-heavy", 0.9, 1, 30),
	}
	demand := []common.DemandRecord{
		demandRecord(9, "busy-queue", "busy-team", 50, 900, 20, 100),
	}

	result, err := TopContributors(scored, demand, 1, DefaultScoreOptions())
	require.NoError(t, err)

	assert.Equal(t, "gpu-heavy", result.ByNodegroup[0].Nodegroup)
	assert.Equal(t, "busy-queue", result.ByQueue[0].QueueName)
	assert.Equal(t, "busy-team", result.ByNamespace[0].Namespace)
}

func TestTopContributorsTruncatesToN(t *testing.T) {
	var scored []common.ImbalanceRecord
	var demand []common.DemandRecord
	for i := 0; i < 10; i++ {
		group := string(rune('a' + i))
		scored = append(scored, scoredRecord(9, group, float64(i)/10, 1, 0))
		demand = append(demand, demandRecord(9, "queue-"+group, "ns-"+group, float64(i), float64(i*10), 1, 1))
	}

	result, err := TopContributors(scored, demand, 3, DefaultScoreOptions())
	require.NoError(t, err)

	assert.Len(t, result.ByNodegroup, 3)
	assert.Len(t, result.ByQueue, 3)
	assert.Len(t, result.ByNamespace, 3)
}

func TestTopContributorsTiesKeepSourceOrder(t *testing.T) {
	scored := []common.ImbalanceRecord{
		scoredRecord(9, "first-seen", 0.5, 1, 0),
		scoredRecord(9, "second-seen", 0.5, 1, 0),
	}

	result, err := TopContributors(scored, nil, 2, DefaultScoreOptions())
	require.NoError(t, err)

	assert.Equal(t, "first-seen", result.ByNodegroup[0].Nodegroup)
	assert.Equal(t, "second-seen", result.ByNodegroup[1].Nodegroup)
}

func TestTopContributorsMissingScoresSinkToEnd(t *testing.T) {
	scored := []common.ImbalanceRecord{
		scoredRecord(9, "dark-group", common.Missing(), 5, common.Missing()),
		scoredRecord(9, "lit-group", 0.2, 1, 3),
	}

	result, err := TopContributors(scored, nil, 2, DefaultScoreOptions())
	require.NoError(t, err)
	require.Len(t, result.ByNodegroup, 2)

	assert.Equal(t, "lit-group", result.ByNodegroup[0].Nodegroup)
	assert.Equal(t, "dark-group", result.ByNodegroup[1].Nodegroup)
	assert.True(t, common.IsMissing(result.ByNodegroup[1].MeanImbalanceScore))
}
