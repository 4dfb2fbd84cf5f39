package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() AppConfig {
	return AppConfig{
		Params: DefaultParameters(1, 1),
		Run:    DefaultRunConfig(),
	}
}

func TestDefaultParameters(t *testing.T) {
	p := DefaultParameters(3, 2)

	if p.NInputs != 3 || p.NOutputs != 2 {
		t.Errorf("topology %d/%d, expected 3/2", p.NInputs, p.NOutputs)
	}
	if p.CompatibilityThreshold != 3.0 {
		t.Errorf("CompatibilityThreshold = %v, expected 3.0", p.CompatibilityThreshold)
	}
	if p.DistanceDisjointCoef != 1.0 || p.DistanceWeightCoef != 0.5 {
		t.Errorf("distance coefficients %v/%v, expected 1.0/0.5",
			p.DistanceDisjointCoef, p.DistanceWeightCoef)
	}
	if p.MutateAddConnPr != 0.5 || p.MutateAddNeuronPr != 0.1 {
		t.Errorf("structural add rates %v/%v, expected 0.5/0.1",
			p.MutateAddConnPr, p.MutateAddNeuronPr)
	}
	if p.MutateDelConnPr != 0.1 || p.MutateDelNeuronPr != 0.05 {
		t.Errorf("structural del rates %v/%v, expected 0.1/0.05",
			p.MutateDelConnPr, p.MutateDelNeuronPr)
	}
	if p.WeightMutatePr != 0.8 || p.WeightReplacePr != 0.1 || p.WeightMutateVar != 0.5 {
		t.Errorf("weight mutation %v/%v/%v, expected 0.8/0.1/0.5",
			p.WeightMutatePr, p.WeightReplacePr, p.WeightMutateVar)
	}
	if p.BiasMutatePr != 0.7 || p.BiasReplacePr != 0.1 || p.BiasMutateVar != 0.5 {
		t.Errorf("bias mutation %v/%v/%v, expected 0.7/0.1/0.5",
			p.BiasMutatePr, p.BiasReplacePr, p.BiasMutateVar)
	}
	if p.SurvivalRatio != 0.2 || p.MatePr != 0.75 || p.StagnationThreshold != 15 {
		t.Errorf("selection %v/%v/%d, expected 0.2/0.75/15",
			p.SurvivalRatio, p.MatePr, p.StagnationThreshold)
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config rejected: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"zero inputs", func(c *AppConfig) { c.Params.NInputs = 0 }},
		{"zero outputs", func(c *AppConfig) { c.Params.NOutputs = 0 }},
		{"negative threshold", func(c *AppConfig) { c.Params.CompatibilityThreshold = -1 }},
		{"negative coefficient", func(c *AppConfig) { c.Params.DistanceWeightCoef = -0.5 }},
		{"probability above one", func(c *AppConfig) { c.Params.MatePr = 1.5 }},
		{"negative probability", func(c *AppConfig) { c.Params.WeightMutatePr = -0.1 }},
		{"negative variance", func(c *AppConfig) { c.Params.BiasMutateVar = -1 }},
		{"zero survival ratio", func(c *AppConfig) { c.Params.SurvivalRatio = 0 }},
		{"survival ratio above one", func(c *AppConfig) { c.Params.SurvivalRatio = 1.1 }},
		{"zero stagnation threshold", func(c *AppConfig) { c.Params.StagnationThreshold = 0 }},
		{"zero population", func(c *AppConfig) { c.Run.PopulationSize = 0 }},
		{"negative generations", func(c *AppConfig) { c.Run.MaxGenerations = -1 }},
		{"negative target", func(c *AppConfig) { c.Run.TargetFitness = -1 }},
		{"negative parallelism", func(c *AppConfig) { c.Run.Parallelism = -1 }},
	}
	for _, tc := range testCases {
		cfg := validConfig()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestLoadTOMLMergesOverDefaults(t *testing.T) {
	content := `
[params]
n_inputs = 4
compatibility_threshold = 2.5
mate_pr = 0.5

[run]
population_size = 42
db_path = "./runs/../runs/out.db"
`
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg := validConfig()
	if err := cfg.LoadTOML(path); err != nil {
		t.Fatalf("LoadTOML failed: %v", err)
	}

	if cfg.Params.NInputs != 4 {
		t.Errorf("NInputs = %d, expected 4 from file", cfg.Params.NInputs)
	}
	if cfg.Params.CompatibilityThreshold != 2.5 {
		t.Errorf("CompatibilityThreshold = %v, expected 2.5 from file", cfg.Params.CompatibilityThreshold)
	}
	if cfg.Params.MatePr != 0.5 {
		t.Errorf("MatePr = %v, expected 0.5 from file", cfg.Params.MatePr)
	}
	// Untouched fields keep their defaults.
	if cfg.Params.NOutputs != 1 {
		t.Errorf("NOutputs = %d, expected default 1", cfg.Params.NOutputs)
	}
	if cfg.Params.WeightMutatePr != 0.8 {
		t.Errorf("WeightMutatePr = %v, expected default 0.8", cfg.Params.WeightMutatePr)
	}
	if cfg.Run.PopulationSize != 42 {
		t.Errorf("PopulationSize = %d, expected 42 from file", cfg.Run.PopulationSize)
	}
	// Paths are cleaned.
	if cfg.Run.DbPath != filepath.Clean("./runs/../runs/out.db") {
		t.Errorf("DbPath = %q, expected cleaned path", cfg.Run.DbPath)
	}
}

func TestLoadTOMLMissingFile(t *testing.T) {
	cfg := validConfig()
	if err := cfg.LoadTOML(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestResolveSeed(t *testing.T) {
	rc := DefaultRunConfig()
	if got := rc.ResolveSeed(); got == 0 {
		t.Error("zero seed was not resolved to a time-based value")
	}

	rc = RunConfig{Seed: 12345}
	if got := rc.ResolveSeed(); got != 12345 {
		t.Errorf("explicit seed changed to %d", got)
	}
}
