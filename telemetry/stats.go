// Package telemetry collects per-generation summary statistics of an
// evolution run, keeps an archive of the best organisms ever seen, and writes
// generation records to CSV for offline analysis.
package telemetry

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"ctrneat/population"
)

// GenerationStats is one generation's summary record.
type GenerationStats struct {
	Generation          int     `csv:"generation"`
	BestFitness         float64 `csv:"best_fitness"`
	MeanFitness         float64 `csv:"mean_fitness"`
	SpeciesCount        int     `csv:"species_count"`
	OrganismCount       int     `csv:"organism_count"`
	ChampionNeurons     int     `csv:"champion_neurons"`
	ChampionConnections int     `csv:"champion_connections"`
	InnovationID        int     `csv:"innovation_id"`
}

// Collect computes the summary record for the population's current
// generation. Unevaluated (NaN) organisms are excluded from the mean; with no
// evaluated organisms both fitness fields are NaN.
func Collect(generation int, pop *population.Population) GenerationStats {
	stats := GenerationStats{
		Generation:   generation,
		BestFitness:  math.NaN(),
		MeanFitness:  math.NaN(),
		SpeciesCount: len(pop.Species()),
		InnovationID: int(pop.InnovationID()),
	}

	var fitnesses []float64
	for _, o := range pop.Organisms() {
		stats.OrganismCount++
		if f := float64(o.Fitness); !math.IsNaN(f) {
			fitnesses = append(fitnesses, f)
		}
	}
	if len(fitnesses) > 0 {
		stats.MeanFitness = stat.Mean(fitnesses, nil)
	}

	if champ := pop.Champion(); champ != nil {
		stats.BestFitness = float64(champ.Fitness)
		stats.ChampionNeurons = champ.Genome.NNeurons()
		stats.ChampionConnections = champ.Genome.NConnections()
	}
	return stats
}
