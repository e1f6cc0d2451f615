package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/common"
)

// Manifest records the provenance of one generated dataset so downstream
// consumers can tell runs apart.
type Manifest struct {
	RunID       string `json:"run_id"`
	GeneratedAt string `json:"generated_at"`
	Scenario    string `json:"scenario"`
	Seed        int64  `json:"seed"`
	Days        int    `json:"days"`

	DateRange struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"date_range"`

	RowCounts struct {
		Demand     int `json:"kueue_metrics"`
		Capacity   int `json:"nodepool_state"`
		Efficiency int `json:"dcgm_metrics"`
	} `json:"row_counts"`

	UniqueCounts struct {
		Nodegroups int `json:"nodegroups"`
		Queues     int `json:"queues"`
		Gpus       int `json:"gpus"`
	} `json:"unique_counts"`

	GpuModels []string `json:"gpu_models"`
}

// BuildManifest summarizes a generated dataset.
func BuildManifest(scenario string, seed int64, days int,
	demand []common.DemandRecord, capacity []common.CapacityRecord, samples []common.GPUSample) Manifest {

	m := Manifest{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Scenario:    scenario,
		Seed:        seed,
		Days:        days,
	}

	m.RowCounts.Demand = len(demand)
	m.RowCounts.Capacity = len(capacity)
	m.RowCounts.Efficiency = len(samples)

	if len(capacity) > 0 {
		m.DateRange.Start = capacity[0].Timestamp.UTC().Format(time.RFC3339)
		m.DateRange.End = capacity[len(capacity)-1].Timestamp.UTC().Format(time.RFC3339)
	}

	nodegroups := map[string]bool{}
	for _, r := range capacity {
		nodegroups[r.Nodegroup] = true
	}
	queues := map[string]bool{}
	for _, r := range demand {
		queues[r.QueueName] = true
	}
	gpus := map[string]bool{}
	models := map[string]bool{}
	for _, r := range samples {
		gpus[r.GpuUUID] = true
		models[r.GpuModel] = true
	}

	m.UniqueCounts.Nodegroups = len(nodegroups)
	m.UniqueCounts.Queues = len(queues)
	m.UniqueCounts.Gpus = len(gpus)

	for model := range models {
		m.GpuModels = append(m.GpuModels, model)
	}
	sort.Strings(m.GpuModels)

	return m
}

// WriteManifest writes the manifest as indented JSON.
func WriteManifest(path string, m Manifest) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
