package metrics

// ModelSpec holds the published power and throughput envelope of one GPU
// model, used to translate raw power draw into realized throughput.
type ModelSpec struct {
	MaxPowerWatts    float64
	AchievableTflops float64
}

// ModelSpecTable is an immutable lookup from GPU model name to its spec.
// Unknown models resolve to a conservative fallback instead of failing, so
// telemetry from uncatalogued hardware still flows through the pipeline.
type ModelSpecTable struct {
	specs    map[string]ModelSpec
	fallback ModelSpec
}

// FallbackSpec is applied to GPU models missing from the spec table.
var FallbackSpec = ModelSpec{MaxPowerWatts: 400, AchievableTflops: 100}

// NewModelSpecTable copies the given specs so later mutation of the argument
// cannot leak into the table.
func NewModelSpecTable(specs map[string]ModelSpec) *ModelSpecTable {
	copied := make(map[string]ModelSpec, len(specs))
	for model, spec := range specs {
		copied[model] = spec
	}

	return &ModelSpecTable{specs: copied, fallback: FallbackSpec}
}

// DefaultModelSpecTable lists the fleet's catalogued models with achievable
// (not theoretical) FP16 throughput.
func DefaultModelSpecTable() *ModelSpecTable {
	return NewModelSpecTable(map[string]ModelSpec{
		"NVIDIA A10G":           {MaxPowerWatts: 300, AchievableTflops: 35},
		"NVIDIA A100-SXM4-40GB": {MaxPowerWatts: 400, AchievableTflops: 102},
		"NVIDIA H100 80GB HBM3": {MaxPowerWatts: 700, AchievableTflops: 646},
	})
}

func (t *ModelSpecTable) Lookup(model string) ModelSpec {
	if spec, ok := t.specs[model]; ok {
		return spec
	}
	return t.fallback
}
