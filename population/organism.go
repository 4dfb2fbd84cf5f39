// Package population implements the evolutionary engine on top of the genome
// encoding: organisms pairing a genome with a fitness, species grouping
// compatible organisms with fitness sharing, and the population orchestrating
// evaluation, speciation and generational replacement.
package population

import (
	"math"
	"math/rand"

	"ctrneat/common"
	"ctrneat/config"
	"ctrneat/ctrnn"
	"ctrneat/genome"
)

// Organism pairs a genome with the fitness assigned by an evaluator. The
// activatable network is materialized lazily from the genome and cached; the
// cache is dropped by Mutate. Changes made directly to Genome do not drop it.
type Organism struct {
	Genome *genome.NeuralNetwork
	// Fitness is the raw evaluator output: NaN before the first evaluation,
	// and NaN counts as worst in every comparison.
	Fitness common.Fitness

	network *ctrnn.CTRNN
}

// NewOrganism wraps a genome into an unevaluated organism.
func NewOrganism(g *genome.NeuralNetwork) *Organism {
	return &Organism{Genome: g, Fitness: common.Fitness(math.NaN())}
}

// Copy returns a deep copy of the organism carrying the same fitness. The
// network cache is not copied.
func (o *Organism) Copy() *Organism {
	return &Organism{Genome: o.Genome.Copy(), Fitness: o.Fitness}
}

// Activate runs the organism's network on the sensor values and writes the
// results into outputs. The network is built from the genome on first use.
func (o *Organism) Activate(sensors []float64, outputs []float64) {
	if o.network == nil {
		o.network = o.Genome.MakeNetwork()
	}
	o.network.Activate(sensors, outputs)
}

// Mutate applies the genome mutation protocol and invalidates the cached
// network.
func (o *Organism) Mutate(innovationID *common.NeuronID, rng *rand.Rand, p *config.Parameters) {
	o.Genome.Mutate(innovationID, rng, p)
	o.network = nil
}

// betterFitness reports whether a is strictly better than b. NaN never wins:
// a NaN a loses to everything, a NaN b loses to any finite a.
func betterFitness(a, b common.Fitness) bool {
	if math.IsNaN(float64(a)) {
		return false
	}
	if math.IsNaN(float64(b)) {
		return true
	}
	return a > b
}
