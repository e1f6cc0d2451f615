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

// Package generator produces synthetic demand, capacity and GPU telemetry
// tables for a named scenario. All data is synthetic; generation is
// deterministic for a fixed seed.
package generator

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/common"
)

// gpuHardware extends the published model specs with the envelope details
// only generation needs (idle power, total memory).
type gpuHardware struct {
	MaxPowerWatts  float64
	IdlePowerWatts float64
	MemoryTotalMb  float64
}

var gpuHardwareSpecs = map[string]gpuHardware{
	"NVIDIA A10G":           {MaxPowerWatts: 300, IdlePowerWatts: 40, MemoryTotalMb: 24576},
	"NVIDIA A100-SXM4-40GB": {MaxPowerWatts: 400, IdlePowerWatts: 50, MemoryTotalMb: 40960},
	"NVIDIA H100 80GB HBM3": {MaxPowerWatts: 700, IdlePowerWatts: 70, MemoryTotalMb: 81920},
}

// NodegroupConfig describes one homogeneous pool of GPUs.
type NodegroupConfig struct {
	Name     string
	GpuModel string
	GpuCount int
	Cluster  string
	Region   string
}

// QueueBinding maps a Kueue local queue onto the nodegroup serving it.
// A slice, not a map: generation iterates it and must be order-stable.
type QueueBinding struct {
	Queue     string
	Nodegroup string
}

var DefaultNodegroups = []NodegroupConfig{
	{Name: "ml-training-h100", GpuModel: "NVIDIA H100 80GB HBM3", GpuCount: 32, Cluster: "gen-ai-cluster-1", Region: "us-west-2"},
	{Name: "ml-training-a100", GpuModel: "NVIDIA A100-SXM4-40GB", GpuCount: 48, Cluster: "gen-ai-cluster-1", Region: "us-west-2"},
	{Name: "ml-inference-a10g", GpuModel: "NVIDIA A10G", GpuCount: 64, Cluster: "gen-ai-cluster-1", Region: "us-west-2"},
	{Name: "research-a100", GpuModel: "NVIDIA A100-SXM4-40GB", GpuCount: 24, Cluster: "gen-ai-cluster-2", Region: "us-east-1"},
	{Name: "research-h100", GpuModel: "NVIDIA H100 80GB HBM3", GpuCount: 16, Cluster: "gen-ai-cluster-2", Region: "us-east-1"},
}

var DefaultQueueBindings = []QueueBinding{
	{Queue: "training-h100-queue", Nodegroup: "ml-training-h100"},
	{Queue: "training-a100-queue", Nodegroup: "ml-training-a100"},
	{Queue: "inference-a10g-queue", Nodegroup: "ml-inference-a10g"},
	{Queue: "research-a100-queue", Nodegroup: "research-a100"},
	{Queue: "research-h100-queue", Nodegroup: "research-h100"},
	{Queue: "batch-training-queue", Nodegroup: "ml-training-a100"},
}

var namespaces = []string{"ml-training", "ml-inference", "research", "fraud-detection", "recommendations", "nlp-platform"}

var trainingNamespaces = []string{"ml-training", "nlp-platform"}
var inferenceNamespaces = []string{"ml-inference", "fraud-detection", "recommendations"}

// Options configures one generation run.
type Options struct {
	Scenario       string
	Seed           int64
	Days           int
	SamplesPerHour int
	StartTime      time.Time

	Nodegroups    []NodegroupConfig
	QueueBindings []QueueBinding
}

func DefaultOptions() Options {
	return Options{
		Scenario:       "balanced",
		Seed:           42,
		Days:           7,
		SamplesPerHour: 60,
		StartTime:      time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC),
		Nodegroups:     DefaultNodegroups,
		QueueBindings:  DefaultQueueBindings,
	}
}

// Dataset holds the three generated tables, already validated.
type Dataset struct {
	Demand   []common.DemandRecord
	Capacity []common.CapacityRecord
	Samples  []common.GPUSample

	Scenario ScenarioConfig
}

type synthesizer struct {
	rng      *rand.Rand
	scenario ScenarioConfig
	opts     Options

	// Per (hour, nodegroup) carries generated capacity into demand and
	// generated demand into GPU activity.
	capacityFirst map[common.BucketKey]float64
	activeSum     map[common.BucketKey]float64
}

// Generate produces demand, capacity and GPU telemetry tables for the named
// scenario. The three tables are validated before being returned; a
// violation aborts the run.
func Generate(opts Options) (*Dataset, error) {
	scenario, err := GetScenario(opts.Scenario)
	if err != nil {
		return nil, err
	}

	if opts.Days <= 0 || opts.SamplesPerHour <= 0 || opts.SamplesPerHour > 60 {
		return nil, fmt.Errorf("%w: days and samples per hour must be positive, at most 60 samples per hour", common.ErrConfig)
	}
	if len(opts.Nodegroups) == 0 {
		opts.Nodegroups = DefaultNodegroups
	}
	if len(opts.QueueBindings) == 0 {
		opts.QueueBindings = DefaultQueueBindings
	}

	log.Infof("Generating synthetic data: scenario=%s, seed=%d, days=%d", opts.Scenario, opts.Seed, opts.Days)

	s := &synthesizer{
		rng:           rand.New(rand.NewSource(opts.Seed)),
		scenario:      scenario,
		opts:          opts,
		capacityFirst: map[common.BucketKey]float64{},
		activeSum:     map[common.BucketKey]float64{},
	}

	timestamps := s.timestamps()

	capacity := s.generateCapacity(timestamps)
	demand := s.generateDemand(timestamps)
	samples := s.generateSamples(timestamps)

	if err := common.ValidateCapacityTable(capacity); err != nil {
		return nil, err
	}
	if err := common.ValidateDemandTable(demand); err != nil {
		return nil, err
	}
	if err := common.ValidateEfficiencyTable(samples); err != nil {
		return nil, err
	}

	return &Dataset{Demand: demand, Capacity: capacity, Samples: samples, Scenario: scenario}, nil
}

func (s *synthesizer) timestamps() []time.Time {
	total := s.opts.Days * 24 * s.opts.SamplesPerHour
	step := time.Hour / time.Duration(s.opts.SamplesPerHour)

	result := make([]time.Time, total)
	for i := range result {
		result[i] = s.opts.StartTime.UTC().Add(time.Duration(i) * step)
	}

	return result
}

func hourKey(ts time.Time, nodegroup string) common.BucketKey {
	return common.BucketKey{Hour: ts.UTC().Truncate(time.Hour), Nodegroup: nodegroup}
}

func (s *synthesizer) generateCapacity(timestamps []time.Time) []common.CapacityRecord {
	variance := s.scenario.AutoscaleVariance

	var records []common.CapacityRecord
	for _, ts := range timestamps {
		for _, ng := range s.opts.Nodegroups {
			scale := 1 + (s.rng.Float64()*2-1)*variance
			actual := math.Max(1, math.Floor(float64(ng.GpuCount)*scale))

			key := hourKey(ts, ng.Name)
			if _, ok := s.capacityFirst[key]; !ok {
				s.capacityFirst[key] = actual
			}

			records = append(records, common.CapacityRecord{
				Timestamp:           common.NewTimestamp(ts),
				Nodegroup:           ng.Name,
				Cluster:             ng.Cluster,
				Region:              ng.Region,
				GpuModel:            ng.GpuModel,
				CapacityGpuCount:    actual,
				AllocatableGpuCount: math.Floor(actual * common.AllocatableRatio),
			})
		}
	}

	return records
}

// businessHoursMultiplier boosts demand during working hours with a sinusoid
// peaking mid-day, and drops to 0.6 overnight.
func businessHoursMultiplier(hour int) float64 {
	if hour >= 9 && hour <= 18 {
		return 1.2 + 0.3*math.Sin(float64(hour-9)*math.Pi/9)
	}
	return 0.6
}

func (s *synthesizer) pickNamespace(queue string) string {
	switch {
	case strings.Contains(queue, "training"):
		return trainingNamespaces[s.rng.Intn(len(trainingNamespaces))]
	case strings.Contains(queue, "inference"):
		return inferenceNamespaces[s.rng.Intn(len(inferenceNamespaces))]
	default:
		return namespaces[s.rng.Intn(len(namespaces))]
	}
}

func (s *synthesizer) generateDemand(timestamps []time.Time) []common.DemandRecord {
	clusterOf := map[string]string{}
	regionOf := map[string]string{}
	for _, ng := range s.opts.Nodegroups {
		clusterOf[ng.Name] = ng.Cluster
		regionOf[ng.Name] = ng.Region
	}

	var records []common.DemandRecord
	for _, ts := range timestamps {
		multiplier := businessHoursMultiplier(ts.Hour())

		for _, binding := range s.opts.QueueBindings {
			capacity, ok := s.capacityFirst[hourKey(ts, binding.Nodegroup)]
			if !ok {
				capacity = 32
			}

			basePending := capacity * s.scenario.DemandCapacityRatio * multiplier
			if s.isHighDemand(binding.Nodegroup) {
				basePending *= 1.8
			}

			pending := math.Max(0, math.Floor(basePending+s.rng.NormFloat64()*basePending*0.2))
			wait := math.Max(0, math.Floor(s.scenario.BaseWaitSeconds*(1+pending/capacity)+s.rng.NormFloat64()*30))

			maxActive := math.Floor(capacity * s.scenario.ActiveRatio)
			active := math.Min(maxActive, math.Max(0, math.Floor(capacity-pending*0.3+s.rng.NormFloat64()*3)))

			hoursSinceEpoch := float64(ts.Unix() / 3600)
			evicted := math.Floor(hoursSinceEpoch * float64(5+s.rng.Intn(10)) * s.scenario.EvictionRate)

			records = append(records, common.DemandRecord{
				Timestamp:                common.NewTimestamp(ts),
				Cluster:                  clusterOf[binding.Nodegroup],
				Region:                   regionOf[binding.Nodegroup],
				Namespace:                s.pickNamespace(binding.Queue),
				QueueName:                binding.Queue,
				Nodegroup:                binding.Nodegroup,
				PendingWorkloads:         pending,
				AdmissionWaitTimeSeconds: wait,
				AdmittedActiveWorkloads:  active,
				EvictedWorkloadsTotal:    evicted,
				ResourceUsage:            active,
			})

			s.activeSum[hourKey(ts, binding.Nodegroup)] += active
		}
	}

	return records
}

func (s *synthesizer) isHighDemand(nodegroup string) bool {
	for _, name := range s.scenario.HighDemandGroups {
		if name == nodegroup {
			return true
		}
	}
	return false
}

// utilAndPowerRatio draws reported utilization and the fraction of the power
// envelope for one sample, shaped by the scenario's workload profile. The
// bottlenecked profile is the interesting one: busy GPUs at low power,
// which the efficiency gap is designed to expose.
func (s *synthesizer) utilAndPowerRatio(utilizationBase float64) (util, powerRatio float64) {
	switch s.scenario.WorkloadProfile {
	case ProfileEfficient:
		util = common.Clip(utilizationBase+s.rng.NormFloat64()*5+10, 0, 100)
		powerRatio = 0.75 + s.rng.Float64()*0.2
	case ProfileBottlenecked:
		util = common.Clip(utilizationBase+s.rng.NormFloat64()*5+15, 0, 100)
		powerRatio = 0.35 + s.rng.Float64()*0.15
	case ProfileFragmented:
		util = math.Max(0, utilizationBase*0.5+s.rng.NormFloat64()*10)
		powerRatio = 0.4 + s.rng.Float64()*0.2
	default: // balanced
		util = common.Clip(utilizationBase+s.rng.NormFloat64()*8, 0, 100)
		powerRatio = 0.5 + util/100*0.4 + (s.rng.Float64()*0.1 - 0.05)
	}

	return util, powerRatio
}

func (s *synthesizer) generateSamples(timestamps []time.Time) []common.GPUSample {
	var records []common.GPUSample

	for _, ng := range s.opts.Nodegroups {
		hardware, ok := gpuHardwareSpecs[ng.GpuModel]
		if !ok {
			log.Warnf("No hardware envelope for model %s, skipping nodegroup %s", ng.GpuModel, ng.Name)
			continue
		}

		training := strings.Contains(ng.Name, "training")

		for gpuIdx := 0; gpuIdx < ng.GpuCount; gpuIdx++ {
			gpuUUID := fmt.Sprintf("GPU-%.8s-%04d-%d", ng.Name, gpuIdx, 1000+s.rng.Intn(9000))
			hostname := fmt.Sprintf("ip-10-%d-%d-%d.%s.compute.internal",
				s.rng.Intn(256), s.rng.Intn(256), s.rng.Intn(256), ng.Region)

			for _, ts := range timestamps {
				active, ok := s.activeSum[hourKey(ts, ng.Name)]
				if !ok {
					active = float64(ng.GpuCount) * 0.5
				}
				utilizationBase := math.Min(100, active/float64(ng.GpuCount)*100)

				util, powerRatio := s.utilAndPowerRatio(utilizationBase)

				powerRange := hardware.MaxPowerWatts - hardware.IdlePowerWatts
				power := common.Clip(hardware.IdlePowerWatts+powerRange*powerRatio,
					hardware.IdlePowerWatts, hardware.MaxPowerWatts)

				memRatio := common.Clip(0.3+util/100*0.5+(s.rng.Float64()*0.2-0.1), 0.05, 0.95)
				memUsed := math.Floor(hardware.MemoryTotalMb * memRatio)

				temp := common.Clip(math.Floor(30+power/hardware.MaxPowerWatts*45+s.rng.NormFloat64()*2), 25, 85)

				tensorShare := 0.3
				tensorNoise := 3.0
				if training && util > 50 {
					tensorShare = 0.85
					tensorNoise = 5.0
				}
				tensor := common.Clip(math.Floor(util*tensorShare+s.rng.NormFloat64()*tensorNoise), 0, 100)

				records = append(records, common.GPUSample{
					Timestamp:         common.NewTimestamp(ts),
					Hostname:          hostname,
					Cluster:           ng.Cluster,
					Region:            ng.Region,
					Nodegroup:         ng.Name,
					GpuModel:          ng.GpuModel,
					GpuUUID:           gpuUUID,
					Namespace:         namespaces[s.rng.Intn(len(namespaces))],
					GpuUtilizationPct: common.RoundTo(util, 1),
					PowerUsageWatts:   common.RoundTo(power, 2),
					MemoryUsedMb:      memUsed,
					MemoryFreeMb:      hardware.MemoryTotalMb - memUsed,
					GpuTempCelsius:    temp,
					TensorActivePct:   tensor,
				})
			}
		}
	}

	return records
}
