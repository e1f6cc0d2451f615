package main

import (
	"flag"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/config"
	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/generator"
	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/pipeline"
)

var (
	sweepConfigPath = flag.String("sweepConfigPath", "tools/scenario_sweep/sweep_config.yaml", "Path to sweep configuration file")
	verbosity       = flag.String("verbosity", "info", "Logging verbosity - choose from [info, debug, trace]")
	failFast        = flag.Bool("failFast", false, "Stop the sweep on the first scenario that fails")
)

// SweepConfiguration runs the full pipeline once per scenario, each into its
// own subdirectory of OutputDir. An empty Scenarios list sweeps everything
// the generator knows about.
type SweepConfiguration struct {
	Scenarios           []string `yaml:"scenarios"`
	Seed                int64    `yaml:"seed"`
	Days                int      `yaml:"days"`
	SamplesPerHour      int      `yaml:"samplesPerHour"`
	TopContributors     int      `yaml:"topContributors"`
	NormalizationMethod string   `yaml:"normalizationMethod"`
	NormalizationWindow int      `yaml:"normalizationWindow"`
	OutputDir           string   `yaml:"outputDir"`
}

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
	sweep := readSweepConfiguration(*sweepConfigPath)

	scenarios := sweep.Scenarios
	if len(scenarios) == 0 {
		scenarios = generator.ScenarioNames()
	}

	log.Infof("Starting sweep over %d scenarios", len(scenarios))

	failures := 0
	for _, scenario := range scenarios {
		if err := runScenario(sweep, scenario); err != nil {
			failures++
			if *failFast {
				log.Fatalf("Scenario %s failed: %v", scenario, err)
			}
			log.Errorf("Scenario %s failed: %v", scenario, err)
		}
	}

	if failures > 0 {
		log.Fatalf("Sweep finished with %d failed scenarios", failures)
	}
	log.Info("All scenarios completed")
}

func runScenario(sweep SweepConfiguration, scenario string) error {
	log.Infof("Running scenario %s", scenario)

	cfg := config.DefaultConfiguration()
	cfg.Scenario = scenario
	cfg.Seed = sweep.Seed
	if sweep.Days > 0 {
		cfg.Days = sweep.Days
	}
	if sweep.SamplesPerHour > 0 {
		cfg.SamplesPerHour = sweep.SamplesPerHour
	}
	if sweep.TopContributors > 0 {
		cfg.TopContributors = sweep.TopContributors
	}
	if sweep.NormalizationMethod != "" {
		cfg.NormalizationMethod = sweep.NormalizationMethod
	}
	cfg.NormalizationWindow = sweep.NormalizationWindow
	cfg.OutputPathPrefix = filepath.Join(sweep.OutputDir, scenario)

	result, err := pipeline.Run(cfg)
	if err != nil {
		return err
	}

	return pipeline.WriteOutputs(cfg.OutputPathPrefix, cfg, result)
}

func readSweepConfiguration(path string) SweepConfiguration {
	sweep := SweepConfiguration{
		Seed:      42,
		OutputDir: "data/sweep",
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}
	if err := yaml.Unmarshal(contents, &sweep); err != nil {
		log.Fatal(err)
	}

	return sweep
}
