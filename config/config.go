// Package config provides types and functions for managing application
// configuration: the evolution parameters driving mutation, selection and
// speciation, plus helpers for loading defaults, merging TOML files, and
// validating the overall configuration.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"ctrneat/common"
)

// Parameters defines the tunable coefficients that govern the behavior of the
// evolutionary search. These parameters control everything from the topology
// of the initial genomes to mutation rates, the compatibility distance, and
// species selection pressure.
type Parameters struct {
	// Topology

	// NInputs is the number of sensor neurons every genome starts with.
	NInputs int `toml:"n_inputs"`
	// NOutputs is the number of output neurons every genome starts with.
	// Together with NInputs these form the sacred neuron range: the first
	// NInputs+NOutputs neurons of a genome are never deleted by mutation.
	NOutputs int `toml:"n_outputs"`

	// Compatibility distance

	// CompatibilityThreshold is the maximum genome distance at which two
	// genomes are considered members of the same species.
	CompatibilityThreshold float64 `toml:"compatibility_threshold"`
	// DistanceDisjointCoef weights the count of disjoint/excess genes in the
	// compatibility distance.
	DistanceDisjointCoef common.Coefficient `toml:"distance_disjoint_coef"`
	// DistanceWeightCoef weights the parameter difference of homologous genes
	// in the compatibility distance.
	DistanceWeightCoef common.Coefficient `toml:"distance_weight_coef"`

	// Structural mutation

	MutateAddConnPr   common.Probability `toml:"mutate_add_conn_pr"`   // add a random connection
	MutateAddNeuronPr common.Probability `toml:"mutate_add_neuron_pr"` // split a connection with a new neuron
	MutateDelConnPr   common.Probability `toml:"mutate_del_conn_pr"`   // delete a random connection
	MutateDelNeuronPr common.Probability `toml:"mutate_del_neuron_pr"` // delete a random non-sacred neuron

	// Parametric mutation

	WeightMutatePr   common.Probability `toml:"weight_mutate_pr"`  // perturb a connection weight
	WeightReplacePr  common.Probability `toml:"weight_replace_pr"` // replace a connection weight
	WeightMutateVar  float64            `toml:"weight_mutate_var"` // stddev of the weight perturbation
	BiasMutatePr     common.Probability `toml:"bias_mutate_pr"`    // perturb a neuron bias
	BiasReplacePr    common.Probability `toml:"bias_replace_pr"`   // replace a neuron bias
	BiasMutateVar    float64            `toml:"bias_mutate_var"`   // stddev of the bias perturbation

	// Selection

	// SurvivalRatio is the fraction of each species (sorted by fitness) that
	// is eligible to reproduce. At least one organism always survives.
	SurvivalRatio float64 `toml:"survival_ratio"`
	// MatePr is the probability that an offspring is produced by crossover of
	// two distinct survivors rather than by cloning a single one.
	MatePr common.Probability `toml:"mate_pr"`
	// StagnationThreshold is the number of generations a species may go
	// without improving its best fitness before it is removed.
	StagnationThreshold common.Generation `toml:"stagnation_threshold"`
}

// RunConfig holds configuration that is typically set or overridden via
// command-line flags: run identity and the experiment loop bounds, as opposed
// to the evolution parameters themselves.
type RunConfig struct {
	// Seed for the random number generator (0 means time-based).
	Seed int64 `toml:"seed"`
	// PopulationSize is the number of organisms per generation.
	PopulationSize int `toml:"population_size"`
	// MaxGenerations bounds the experiment loop (0 means unbounded).
	MaxGenerations int `toml:"max_generations"`
	// TargetFitness stops the experiment once the champion reaches it
	// (0 disables the check).
	TargetFitness float64 `toml:"target_fitness"`
	// DbPath is the SQLite database file for generation logging ("" disables).
	DbPath string `toml:"db_path"`
	// CsvPath is the generation-stats CSV file ("" disables).
	CsvPath string `toml:"csv_path"`
	// ChampionFile is where the champion genome JSON is written ("" disables).
	ChampionFile string `toml:"champion_file"`
	// Parallelism is the number of evaluation workers (<=1 means sequential).
	Parallelism int `toml:"parallelism"`
}

// AppConfig is the top-level configuration structure, aggregating the
// evolution Parameters and the RunConfig.
type AppConfig struct {
	Params Parameters `toml:"params"`
	Run    RunConfig  `toml:"run"`
}

// DefaultParameters returns a Parameters struct populated with the default
// values for the given topology.
func DefaultParameters(nInputs, nOutputs int) Parameters {
	return Parameters{
		NInputs:  nInputs,
		NOutputs: nOutputs,

		CompatibilityThreshold: 3.0,
		DistanceDisjointCoef:   1.0,
		DistanceWeightCoef:     0.5,

		MutateAddConnPr:   0.5,
		MutateAddNeuronPr: 0.1,
		MutateDelConnPr:   0.1,
		MutateDelNeuronPr: 0.05,

		WeightMutatePr:  0.8,
		WeightReplacePr: 0.1,
		WeightMutateVar: 0.5,
		BiasMutatePr:    0.7,
		BiasReplacePr:   0.1,
		BiasMutateVar:   0.5,

		SurvivalRatio:       0.2,
		MatePr:              0.75,
		StagnationThreshold: 15,
	}
}

// DefaultRunConfig returns a RunConfig with defaults suitable for the bundled
// experiments. The seed is left at 0 here and resolved to the current time by
// ResolveSeed when a run starts, so that an explicit 0 in a TOML file keeps
// its meaning.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Seed:           0,
		PopulationSize: 150,
		MaxGenerations: 0,
		TargetFitness:  0,
		Parallelism:    1,
	}
}

// LoadTOML merges the TOML file at path over the receiver. Fields absent from
// the file keep their current values. Paths in the result are cleaned.
func (ac *AppConfig) LoadTOML(path string) error {
	if _, err := toml.DecodeFile(path, ac); err != nil {
		return fmt.Errorf("failed to decode TOML config %s: %w", path, err)
	}
	if ac.Run.DbPath != "" {
		ac.Run.DbPath = filepath.Clean(ac.Run.DbPath)
	}
	if ac.Run.CsvPath != "" {
		ac.Run.CsvPath = filepath.Clean(ac.Run.CsvPath)
	}
	if ac.Run.ChampionFile != "" {
		ac.Run.ChampionFile = filepath.Clean(ac.Run.ChampionFile)
	}
	return nil
}

// ResolveSeed replaces a zero seed with the current time in nanoseconds and
// returns the resolved value.
func (rc *RunConfig) ResolveSeed() int64 {
	if rc.Seed == 0 {
		rc.Seed = time.Now().UnixNano()
	}
	return rc.Seed
}

// Validate checks the AppConfig for consistency and valid values across
// Parameters and RunConfig. It ensures that parameters meet their required
// constraints (positivity, probability ranges, interdependencies).
//
// Returns an error if any validation rule is violated, nil otherwise.
func (ac *AppConfig) Validate() error {
	p := &ac.Params

	if p.NInputs <= 0 {
		return fmt.Errorf("n_inputs must be positive, got %d", p.NInputs)
	}
	if p.NOutputs <= 0 {
		return fmt.Errorf("n_outputs must be positive, got %d", p.NOutputs)
	}
	if p.CompatibilityThreshold < 0 {
		return fmt.Errorf("compatibility_threshold must be non-negative, got %f", p.CompatibilityThreshold)
	}
	if p.DistanceDisjointCoef < 0 || p.DistanceWeightCoef < 0 {
		return fmt.Errorf("distance coefficients must be non-negative, got disjoint=%f weight=%f",
			p.DistanceDisjointCoef, p.DistanceWeightCoef)
	}

	probabilities := map[string]common.Probability{
		"mutate_add_conn_pr":   p.MutateAddConnPr,
		"mutate_add_neuron_pr": p.MutateAddNeuronPr,
		"mutate_del_conn_pr":   p.MutateDelConnPr,
		"mutate_del_neuron_pr": p.MutateDelNeuronPr,
		"weight_mutate_pr":     p.WeightMutatePr,
		"weight_replace_pr":    p.WeightReplacePr,
		"bias_mutate_pr":       p.BiasMutatePr,
		"bias_replace_pr":      p.BiasReplacePr,
		"mate_pr":              p.MatePr,
	}
	for name, pr := range probabilities {
		if pr < 0 || pr > 1 {
			return fmt.Errorf("%s must be between 0.0 and 1.0, got %f", name, pr)
		}
	}

	if p.WeightMutateVar < 0 {
		return fmt.Errorf("weight_mutate_var must be non-negative, got %f", p.WeightMutateVar)
	}
	if p.BiasMutateVar < 0 {
		return fmt.Errorf("bias_mutate_var must be non-negative, got %f", p.BiasMutateVar)
	}
	if p.SurvivalRatio <= 0 || p.SurvivalRatio > 1 {
		return fmt.Errorf("survival_ratio must be in (0.0, 1.0], got %f", p.SurvivalRatio)
	}
	if p.StagnationThreshold <= 0 {
		return fmt.Errorf("stagnation_threshold must be positive, got %d", p.StagnationThreshold)
	}

	rc := &ac.Run
	if rc.PopulationSize <= 0 {
		return fmt.Errorf("population_size must be positive, got %d", rc.PopulationSize)
	}
	if rc.MaxGenerations < 0 {
		return fmt.Errorf("max_generations must be non-negative, got %d", rc.MaxGenerations)
	}
	if rc.TargetFitness < 0 {
		return fmt.Errorf("target_fitness must be non-negative, got %f", rc.TargetFitness)
	}
	if rc.Parallelism < 0 {
		return fmt.Errorf("parallelism must be non-negative, got %d", rc.Parallelism)
	}
	return nil
}
