package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/common"
	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/config"
)

func smallConfig() config.AnalysisConfiguration {
	cfg := config.DefaultConfiguration()
	cfg.Days = 1
	cfg.SamplesPerHour = 2
	return cfg
}

func TestRunProducesAllTables(t *testing.T) {
	result, err := Run(smallConfig())
	require.NoError(t, err)

	assert.NotEmpty(t, result.Demand)
	assert.NotEmpty(t, result.Capacity)
	assert.NotEmpty(t, result.Samples)
	assert.NotEmpty(t, result.Unified)
	assert.NotEmpty(t, result.Imbalance)
	assert.NotEmpty(t, result.Summary)
	assert.NotEmpty(t, result.Contributors.ByNodegroup)
	assert.NotEmpty(t, result.Contributors.ByQueue)
	assert.NotEmpty(t, result.Contributors.ByNamespace)

	// One scored row per unified bucket, in the same order.
	require.Len(t, result.Imbalance, len(result.Unified))
	for i := range result.Unified {
		assert.Equal(t, result.Unified[i].Nodegroup, result.Imbalance[i].Nodegroup)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	first, err := Run(smallConfig())
	require.NoError(t, err)
	second, err := Run(smallConfig())
	require.NoError(t, err)

	assert.Equal(t, first.Unified, second.Unified)
	assert.Equal(t, first.Imbalance, second.Imbalance)
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.Contributors, second.Contributors)
}

func TestRunAnnotatesEverySample(t *testing.T) {
	result, err := Run(smallConfig())
	require.NoError(t, err)

	for _, s := range result.Samples {
		if s.PowerIntensityFactor < 0 || s.PowerIntensityFactor > 1 {
			t.Fatalf("PIF %f out of [0, 1]", s.PowerIntensityFactor)
		}
		if s.RfuPct < 0 || s.RfuPct > 100 {
			t.Fatalf("RFU %f out of [0, 100]", s.RfuPct)
		}
		if s.EfficiencyClass == "" {
			t.Fatal("sample missing efficiency class")
		}
	}
}

func TestRunEverySeverityIsLabeled(t *testing.T) {
	result, err := Run(smallConfig())
	require.NoError(t, err)

	valid := map[string]bool{
		common.SeverityCritical: true,
		common.SeverityWarning:  true,
		common.SeverityModerate: true,
		common.SeverityHealthy:  true,
	}
	for _, r := range result.Imbalance {
		if !valid[r.ImbalanceSeverity] {
			t.Fatalf("unexpected severity label %q", r.ImbalanceSeverity)
		}
	}
}

func TestRunRejectsUnknownScenario(t *testing.T) {
	cfg := smallConfig()
	cfg.Scenario = "does-not-exist"

	_, err := Run(cfg)
	assert.ErrorIs(t, err, common.ErrConfig)
}

func TestRunRejectsUnknownNormalizationMethod(t *testing.T) {
	cfg := smallConfig()
	cfg.NormalizationMethod = "zscore"

	_, err := Run(cfg)
	assert.ErrorIs(t, err, common.ErrConfig)
}

func TestWriteOutputsAndReanalyzeFromDisk(t *testing.T) {
	cfg := smallConfig()
	result, err := Run(cfg)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, WriteOutputs(dir, cfg, result))

	for _, name := range []string{
		"kueue_metrics.csv", "nodepool_state.csv", "dcgm_metrics.csv",
		"imbalance_metrics.csv", "fleet_summary.csv",
		"top_nodegroups.csv", "top_queues.csv", "top_namespaces.csv",
		"manifest.json",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected output %s: %v", name, err)
		}
	}

	// A second run fed from the written tables reproduces the analysis.
	fromDisk := cfg
	fromDisk.DataPath = dir
	replayed, err := Run(fromDisk)
	require.NoError(t, err)

	assert.Equal(t, result.Unified, replayed.Unified)
	assert.Equal(t, result.Imbalance, replayed.Imbalance)
}

func TestWriteOutputsSkipsManifestForExternalData(t *testing.T) {
	cfg := smallConfig()
	result, err := Run(cfg)
	require.NoError(t, err)

	sourceDir := t.TempDir()
	require.NoError(t, WriteOutputs(sourceDir, cfg, result))

	external := cfg
	external.DataPath = sourceDir
	replayed, err := Run(external)
	require.NoError(t, err)

	outDir := t.TempDir()
	require.NoError(t, WriteOutputs(outDir, external, replayed))

	_, err = os.Stat(filepath.Join(outDir, "manifest.json"))
	assert.True(t, os.IsNotExist(err))
}
