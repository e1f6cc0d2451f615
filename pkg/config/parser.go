package config

import (
	"encoding/json"
	"os"

	log "github.com/sirupsen/logrus"
)

// ReadConfigurationFile loads an analysis configuration, layering the file's
// values over the defaults. An unreadable or malformed file is fatal: there
// is nothing sensible to analyze without a configuration.
func ReadConfigurationFile(path string) AnalysisConfiguration {
	byteValue, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}

	config := DefaultConfiguration()
	err = json.Unmarshal(byteValue, &config)
	if err != nil {
		log.Fatal(err)
	}

	return config
}
