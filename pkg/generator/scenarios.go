package generator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/common"
)

// WorkloadProfile shapes the relationship between reported utilization and
// power draw in generated GPU telemetry.
type WorkloadProfile string

const (
	ProfileBalanced     WorkloadProfile = "balanced"
	ProfileEfficient    WorkloadProfile = "efficient"
	ProfileBottlenecked WorkloadProfile = "bottlenecked"
	ProfileFragmented   WorkloadProfile = "fragmented"
)

// ScenarioConfig shapes one synthetic dataset to illustrate a particular
// demand-versus-capacity condition.
type ScenarioConfig struct {
	Description string

	DemandCapacityRatio float64
	BaseWaitSeconds     float64
	ActiveRatio         float64
	EvictionRate        float64
	AutoscaleVariance   float64
	WorkloadProfile     WorkloadProfile

	// HighDemandGroups get an extra demand multiplier; empty means demand
	// is spread evenly.
	HighDemandGroups []string
}

var scenarios = map[string]ScenarioConfig{
	"balanced": {
		Description:         "Demand roughly matches capacity. Healthy queue dynamics with moderate utilization.",
		DemandCapacityRatio: 0.7,
		BaseWaitSeconds:     45,
		ActiveRatio:         0.75,
		EvictionRate:        0.01,
		AutoscaleVariance:   0.05,
		WorkloadProfile:     ProfileBalanced,
	},
	"demand_exceeds_capacity": {
		Description:         "More workloads submitted than can be scheduled. Growing queues and long wait times.",
		DemandCapacityRatio: 1.8,
		BaseWaitSeconds:     300,
		ActiveRatio:         0.95,
		EvictionRate:        0.05,
		AutoscaleVariance:   0.02,
		WorkloadProfile:     ProfileEfficient,
		HighDemandGroups:    []string{"ml-training-h100", "ml-training-a100"},
	},
	"capacity_fragmentation": {
		Description:         "GPUs exist but cannot be effectively scheduled due to fragmentation or constraints.",
		DemandCapacityRatio: 0.9,
		BaseWaitSeconds:     180,
		ActiveRatio:         0.45,
		EvictionRate:        0.08,
		AutoscaleVariance:   0.1,
		WorkloadProfile:     ProfileFragmented,
	},
	"io_bottleneck": {
		Description:         "GPUs report high utilization but low power draw. Data-starved or I/O bound workloads.",
		DemandCapacityRatio: 0.6,
		BaseWaitSeconds:     30,
		ActiveRatio:         0.85,
		EvictionRate:        0.02,
		AutoscaleVariance:   0.03,
		WorkloadProfile:     ProfileBottlenecked,
	},
}

// GetScenario resolves a scenario by name. Unknown names are a configuration
// error, reported with the list of valid choices.
func GetScenario(name string) (ScenarioConfig, error) {
	config, ok := scenarios[name]
	if !ok {
		return ScenarioConfig{}, fmt.Errorf("%w: unknown scenario %q, available: %s",
			common.ErrConfig, name, strings.Join(ScenarioNames(), ", "))
	}

	return config, nil
}

// ScenarioNames lists the known scenarios in a stable order.
func ScenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListScenarios maps scenario name to its human-readable description.
func ListScenarios() map[string]string {
	result := make(map[string]string, len(scenarios))
	for name, config := range scenarios {
		result[name] = config.Description
	}
	return result
}
