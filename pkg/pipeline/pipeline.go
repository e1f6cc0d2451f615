// Package pipeline wires the analysis stages end to end: ingest or
// generate, validate, derive efficiency, aggregate, join, score, classify,
// rank. Re-running with identical inputs yields identical outputs.
package pipeline

import (
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/aggregate"
	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/common"
	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/config"
	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/export"
	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/generator"
	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/imbalance"
	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/metrics"
)

// Result carries every table the pipeline produces for one run.
type Result struct {
	Demand   []common.DemandRecord
	Capacity []common.CapacityRecord
	Samples  []common.EfficiencySample

	Unified      []common.UnifiedRecord
	Imbalance    []common.ImbalanceRecord
	Contributors imbalance.Contributors
	Summary      []aggregate.FleetSummary
}

// Run executes the full pipeline for one configuration.
func Run(cfg config.AnalysisConfiguration) (*Result, error) {
	demand, capacity, samples, err := obtainInputs(cfg)
	if err != nil {
		return nil, err
	}

	log.Infof("Input tables: %d demand, %d capacity, %d GPU sample rows",
		len(demand), len(capacity), len(samples))

	calculator := metrics.NewCalculator(metrics.DefaultModelSpecTable())
	annotated := calculator.Annotate(samples)

	demandHourly := aggregate.AggregateDemandHourly(demand, aggregate.DefaultDemandReductions())
	capacityHourly := aggregate.AggregateCapacityHourly(capacity, aggregate.DefaultCapacityReductions())
	efficiencyHourly := aggregate.AggregateEfficiencyHourly(annotated, aggregate.DefaultEfficiencyReductions())

	unified := aggregate.BuildUnified(demandHourly, capacityHourly, efficiencyHourly)
	log.Infof("Unified model: %d (hour, nodegroup) buckets", len(unified))

	opts := imbalance.DefaultScoreOptions()
	opts.Method = metrics.NormalizationMethod(cfg.NormalizationMethod)
	opts.Window = cfg.NormalizationWindow

	scored, err := imbalance.Score(unified, opts)
	if err != nil {
		return nil, err
	}

	contributors, err := imbalance.TopContributors(scored, demand, cfg.TopContributors, opts)
	if err != nil {
		return nil, err
	}

	return &Result{
		Demand:       demand,
		Capacity:     capacity,
		Samples:      annotated,
		Unified:      unified,
		Imbalance:    scored,
		Contributors: contributors,
		Summary:      aggregate.SummarizeFleet(unified),
	}, nil
}

// obtainInputs loads pre-generated tables when DataPath is set, otherwise
// synthesizes them. Either way, every table is validated before any metric
// is derived from it.
func obtainInputs(cfg config.AnalysisConfiguration) ([]common.DemandRecord, []common.CapacityRecord, []common.GPUSample, error) {
	if cfg.DataPath != "" {
		log.Infof("Loading input tables from %s", cfg.DataPath)

		demand, err := export.LoadDemandTable(filepath.Join(cfg.DataPath, export.DemandFileName))
		if err != nil {
			return nil, nil, nil, err
		}
		capacity, err := export.LoadCapacityTable(filepath.Join(cfg.DataPath, export.CapacityFileName))
		if err != nil {
			return nil, nil, nil, err
		}
		samples, err := export.LoadEfficiencyTable(filepath.Join(cfg.DataPath, export.EfficiencyFileName))
		if err != nil {
			return nil, nil, nil, err
		}

		if err := common.ValidateDemandTable(demand); err != nil {
			return nil, nil, nil, err
		}
		if err := common.ValidateCapacityTable(capacity); err != nil {
			return nil, nil, nil, err
		}
		if err := common.ValidateEfficiencyTable(samples); err != nil {
			return nil, nil, nil, err
		}

		return demand, capacity, samples, nil
	}

	dataset, err := generator.Generate(generator.Options{
		Scenario:       cfg.Scenario,
		Seed:           cfg.Seed,
		Days:           cfg.Days,
		SamplesPerHour: cfg.SamplesPerHour,
		StartTime:      generator.DefaultOptions().StartTime,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	return dataset.Demand, dataset.Capacity, dataset.Samples, nil
}

// WriteOutputs persists every result table under dir, plus a manifest when
// the inputs were generated in-process.
func WriteOutputs(dir string, cfg config.AnalysisConfiguration, result *Result) error {
	raw := make([]common.GPUSample, 0, len(result.Samples))
	for _, s := range result.Samples {
		raw = append(raw, s.GPUSample)
	}

	if err := export.WriteInputTables(dir, result.Demand, result.Capacity, raw); err != nil {
		return err
	}
	if err := export.WriteImbalanceTable(filepath.Join(dir, "imbalance_metrics.csv"), result.Imbalance); err != nil {
		return err
	}
	if err := export.WriteFleetSummary(filepath.Join(dir, "fleet_summary.csv"), result.Summary); err != nil {
		return err
	}
	if err := export.WriteContributors(dir, result.Contributors); err != nil {
		return err
	}

	if cfg.DataPath == "" {
		manifest := export.BuildManifest(cfg.Scenario, cfg.Seed, cfg.Days, result.Demand, result.Capacity, raw)
		if err := export.WriteManifest(filepath.Join(dir, "manifest.json"), manifest); err != nil {
			return err
		}
	}

	return nil
}
