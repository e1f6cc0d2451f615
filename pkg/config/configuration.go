package config

// AnalysisConfiguration drives one end-to-end analysis run. Field names
// match the JSON configuration file keys.
type AnalysisConfiguration struct {
	Seed int64 `json:"Seed"`

	Scenario       string `json:"Scenario"`
	Days           int    `json:"Days"`
	SamplesPerHour int    `json:"SamplesPerHour"`

	// DataPath points at a directory with pre-generated input CSVs. When
	// set, the synthetic generator is skipped.
	DataPath string `json:"DataPath"`

	TopContributors     int    `json:"TopContributors"`
	NormalizationMethod string `json:"NormalizationMethod"`
	NormalizationWindow int    `json:"NormalizationWindow"`

	OutputPathPrefix string `json:"OutputPathPrefix"`
}

func DefaultConfiguration() AnalysisConfiguration {
	return AnalysisConfiguration{
		Seed:                42,
		Scenario:            "balanced",
		Days:                7,
		SamplesPerHour:      60,
		TopContributors:     5,
		NormalizationMethod: "minmax",
		OutputPathPrefix:    "data/out",
	}
}
