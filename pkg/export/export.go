// Package export handles the CSV and JSON surfaces of the pipeline: loading
// the three raw tables, writing generated inputs, and writing the scored
// outputs for the reporting consumer.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	log "github.com/sirupsen/logrus"

	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/aggregate"
	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/common"
	"github.com/brent-segner/gpu-demand-capacity-analytics/pkg/imbalance"
)

// Canonical file names of the three input tables inside a data directory.
const (
	DemandFileName     = "kueue_metrics.csv"
	CapacityFileName   = "nodepool_state.csv"
	EfficiencyFileName = "dcgm_metrics.csv"
)

var requiredDemandColumns = []string{
	"timestamp", "cluster", "region", "namespace", "queue_name", "nodegroup",
	"pending_workloads", "admission_wait_time_seconds", "admitted_active_workloads", "resource_usage",
}

var requiredCapacityColumns = []string{
	"timestamp", "nodegroup", "cluster", "region", "gpu_model",
	"capacity_gpu_count", "allocatable_gpu_count",
}

var requiredEfficiencyColumns = []string{
	"timestamp", "hostname", "nodegroup", "gpu_model", "gpu_uuid",
	"gpu_utilization_pct", "power_usage_watts", "memory_used_mb", "memory_free_mb", "gpu_temp_celsius",
}

// LoadDemandTable reads and schema-checks the demand CSV. A missing required
// column aborts before a single row is decoded.
func LoadDemandTable(path string) ([]common.DemandRecord, error) {
	var records []common.DemandRecord
	if err := loadTable(path, requiredDemandColumns, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func LoadCapacityTable(path string) ([]common.CapacityRecord, error) {
	var records []common.CapacityRecord
	if err := loadTable(path, requiredCapacityColumns, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func LoadEfficiencyTable(path string) ([]common.GPUSample, error) {
	var records []common.GPUSample
	if err := loadTable(path, requiredEfficiencyColumns, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func loadTable(path string, required []string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := checkHeader(f, path, required); err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	if err := gocsv.UnmarshalFile(f, out); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	return nil
}

func checkHeader(f *os.File, path string, required []string) error {
	header, err := csv.NewReader(f).Read()
	if err != nil {
		return fmt.Errorf("%w: %s: cannot read header: %v", common.ErrValidation, path, err)
	}

	columns := make(map[string]bool, len(header))
	for _, name := range header {
		columns[name] = true
	}

	var missing []string
	for _, name := range required {
		if !columns[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s: missing required columns: %v", common.ErrValidation, path, missing)
	}

	return nil
}

func writeCSV(path string, records interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := gocsv.MarshalFile(records, f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	log.Debugf("Wrote %s", path)
	return nil
}

// WriteInputTables writes the three raw tables into dir under their
// canonical names.
func WriteInputTables(dir string, demand []common.DemandRecord, capacity []common.CapacityRecord, samples []common.GPUSample) error {
	if err := writeCSV(filepath.Join(dir, DemandFileName), &demand); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(dir, CapacityFileName), &capacity); err != nil {
		return err
	}
	return writeCSV(filepath.Join(dir, EfficiencyFileName), &samples)
}

// WriteImbalanceTable writes the scored per-bucket table.
func WriteImbalanceTable(path string, records []common.ImbalanceRecord) error {
	return writeCSV(path, &records)
}

// WriteFleetSummary writes the fleet-wide hourly summary.
func WriteFleetSummary(path string, records []aggregate.FleetSummary) error {
	return writeCSV(path, &records)
}

// WriteContributors writes the three ranked lists as one file per dimension
// under dir.
func WriteContributors(dir string, contributors imbalance.Contributors) error {
	if err := writeCSV(filepath.Join(dir, "top_nodegroups.csv"), &contributors.ByNodegroup); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(dir, "top_queues.csv"), &contributors.ByQueue); err != nil {
		return err
	}
	return writeCSV(filepath.Join(dir, "top_namespaces.csv"), &contributors.ByNamespace)
}
