package main

import (
	"flag"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/common"
	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/config"
	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/pipeline"
)

var (
	configPath = flag.String("config", "cmd/config_analysis.json", "Path to analysis configuration file")
	scenario   = flag.String("scenario", "", "Override the configured scenario")
	seed       = flag.Int64("seed", -1, "Override the configured random seed")
	verbosity  = flag.String("verbosity", "info", "Logging verbosity - choose from [info, debug, trace]")
)

func init() {
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: time.StampMilli,
		FullTimestamp:   true,
	})
	log.SetOutput(os.Stdout)

	switch *verbosity {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "trace":
		log.SetLevel(log.TraceLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

func main() {
	cfg := config.ReadConfigurationFile(*configPath)

	if *scenario != "" {
		cfg.Scenario = *scenario
	}
	if *seed >= 0 {
		cfg.Seed = *seed
	}

	result, err := pipeline.Run(cfg)
	if err != nil {
		log.Fatal(err)
	}

	reportEfficiency(result)
	reportImbalance(result)
	reportContributors(result)
	reportRecommendations(result)

	if err := pipeline.WriteOutputs(cfg.OutputPathPrefix, cfg, result); err != nil {
		log.Fatal(err)
	}

	log.Infof("Analysis complete, outputs written to %s", cfg.OutputPathPrefix)
}

func reportEfficiency(result *pipeline.Result) {
	if len(result.Samples) == 0 {
		return
	}

	classCounts := map[string]int{}
	var gapSum float64
	for _, s := range result.Samples {
		classCounts[s.EfficiencyClass]++
		gapSum += s.EfficiencyGap
	}

	log.Infof("Average efficiency gap: %.1f pp", gapSum/float64(len(result.Samples)))
	for _, class := range []string{common.ClassEfficient, common.ClassModerate, common.ClassInefficient, common.ClassBottlenecked, common.ClassIdle} {
		if count := classCounts[class]; count > 0 {
			log.Infof("Efficiency class %s: %d samples (%.1f%%)", class, count, pct(count, len(result.Samples)))
		}
	}
}

func reportImbalance(result *pipeline.Result) {
	if len(result.Imbalance) == 0 {
		return
	}

	severityCounts := map[string]int{}
	for _, r := range result.Imbalance {
		severityCounts[r.ImbalanceSeverity]++
	}

	for _, severity := range []string{common.SeverityCritical, common.SeverityWarning, common.SeverityModerate, common.SeverityHealthy} {
		if count := severityCounts[severity]; count > 0 {
			log.Infof("Imbalance severity %s: %d buckets (%.1f%%)", severity, count, pct(count, len(result.Imbalance)))
		}
	}
}

func reportContributors(result *pipeline.Result) {
	for _, c := range result.Contributors.ByNodegroup {
		log.Infof("Top nodegroup %s: mean imbalance %.3f, pending %.0f", c.Nodegroup, c.MeanImbalanceScore, c.TotalPending)
	}
	for _, c := range result.Contributors.ByQueue {
		log.Infof("Top queue %s: pressure %.3f, pending %.0f", c.QueueName, c.PressureScore, c.TotalPending)
	}
	for _, c := range result.Contributors.ByNamespace {
		log.Infof("Top namespace %s: pressure %.3f, pending %.0f", c.Namespace, c.PressureScore, c.TotalPending)
	}
}

func reportRecommendations(result *pipeline.Result) {
	avgDcr := meanPresent(result.Imbalance, func(r common.ImbalanceRecord) float64 { return r.DemandCapacityRatio })

	switch {
	case avgDcr > 1.0:
		log.Warn("Demand exceeds capacity. Consider scaling up GPU resources or prioritizing workloads.")
	case avgDcr > 0.7:
		log.Warn("Approaching capacity limits. Monitor queue growth closely.")
	default:
		log.Info("Capacity comfortably exceeds current demand.")
	}

	var gapSum float64
	bottlenecked := 0
	for _, s := range result.Samples {
		gapSum += s.EfficiencyGap
		if s.EfficiencyClass == common.ClassBottlenecked {
			bottlenecked++
		}
	}

	if len(result.Samples) > 0 {
		avgGap := gapSum / float64(len(result.Samples))
		switch {
		case avgGap > 15:
			log.Warn("High efficiency gap: significant hidden waste. Investigate I/O bottlenecks and data pipelines.")
		case avgGap > 8:
			log.Warn("Moderate efficiency gap: some workloads may be data-starved. Review data loading patterns.")
		}

		bottleneckPct := pct(bottlenecked, len(result.Samples))
		if bottleneckPct > 20 {
			log.Warnf("%.1f%% of samples are bottlenecked. Prioritize optimization.", bottleneckPct)
		} else if bottleneckPct > 10 {
			log.Warnf("%.1f%% of samples are bottlenecked. Review specific workloads.", bottleneckPct)
		}
	}
}

func meanPresent(records []common.ImbalanceRecord, field func(common.ImbalanceRecord) float64) float64 {
	sum, count := 0.0, 0
	for _, r := range records {
		v := field(r)
		if !common.IsMissing(v) {
			sum += v
			count++
		}
	}

	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func pct(count, total int) float64 {
	return float64(count) / float64(total) * 100
}
