package population

import (
	"math"
	"math/rand"
	"sort"

	"ctrneat/common"
	"ctrneat/config"
	"ctrneat/genome"
)

// Species groups organisms whose genomes are within the compatibility
// threshold of a representative genome. The representative is set at species
// birth and replaced by a random member's genome after each reproduction. A species
// tracks the best fitness it has ever observed and the number of generations
// since that best improved; a species stagnant past the configured threshold
// is removed unless it holds the population champion.
type Species struct {
	representative *genome.NeuralNetwork
	organisms      []*Organism

	bestFitness common.Fitness
	stagnation  common.Generation
	offspring   int
}

// NewSpecies creates a species around a representative genome. The
// representative is not a member; membership starts empty.
func NewSpecies(representative *genome.NeuralNetwork) *Species {
	return &Species{
		representative: representative,
		bestFitness:    common.Fitness(math.NaN()),
	}
}

// Match reports whether the genome is compatible with this species, i.e.
// within the compatibility threshold of the representative.
func (s *Species) Match(g *genome.NeuralNetwork, p *config.Parameters) bool {
	return s.representative.SameSpecies(g, p)
}

// Add appends an organism without any compatibility check.
func (s *Species) Add(o *Organism) {
	s.organisms = append(s.organisms, o)
}

// Organisms returns the current members.
func (s *Species) Organisms() []*Organism {
	return s.organisms
}

// Len returns the number of members.
func (s *Species) Len() int {
	return len(s.organisms)
}

// Representative returns the genome currently used for compatibility
// matching: the birth genome until refreshRepresentative replaces it.
func (s *Species) Representative() *genome.NeuralNetwork {
	return s.representative
}

// BestFitness returns the best fitness ever observed in this species.
func (s *Species) BestFitness() common.Fitness {
	return s.bestFitness
}

// Stagnation returns the number of generations since the best fitness
// improved.
func (s *Species) Stagnation() common.Generation {
	return s.stagnation
}

// Champion returns the fittest current member, or nil for an empty species.
func (s *Species) Champion() *Organism {
	var champ *Organism
	for _, o := range s.organisms {
		if champ == nil || betterFitness(o.Fitness, champ.Fitness) {
			champ = o
		}
	}
	return champ
}

// AdjustedFitnessSum returns the sum of each member's fitness divided by the
// member count: explicit fitness sharing, so a large species does not crowd
// out the rest of the population. NaN fitness contributes nothing.
func (s *Species) AdjustedFitnessSum() float64 {
	if len(s.organisms) == 0 {
		return 0
	}
	sum := 0.0
	for _, o := range s.organisms {
		if f := float64(o.Fitness); !math.IsNaN(f) {
			sum += f / float64(len(s.organisms))
		}
	}
	return sum
}

// updateStagnation folds the current generation's best member fitness into
// the best-ever record, resetting the stagnation counter on improvement and
// incrementing it otherwise.
func (s *Species) updateStagnation() {
	champ := s.Champion()
	if champ != nil && betterFitness(champ.Fitness, s.bestFitness) {
		s.bestFitness = champ.Fitness
		s.stagnation = 0
		return
	}
	s.stagnation++
}

// survivors returns the members eligible to reproduce: the top survivalRatio
// fraction by fitness, never fewer than one. The returned slice is sorted
// fittest-first.
func (s *Species) survivors(p *config.Parameters) []*Organism {
	sorted := append([]*Organism(nil), s.organisms...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return betterFitness(sorted[i].Fitness, sorted[j].Fitness)
	})
	n := int(math.Ceil(p.SurvivalRatio * float64(len(sorted))))
	if n < 1 {
		n = 1
	}
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// Reproduce produces count offspring for the next generation. The fittest
// member is copied unchanged (elitism) when at least one slot is available;
// the remaining slots are filled from the surviving fraction, each offspring
// either a mutated clone of one survivor or a mutated crossover of two
// distinct survivors, chosen by the mating probability. innovationID is the
// population's shared counter for naming new hidden neurons.
func (s *Species) Reproduce(count int, innovationID *common.NeuronID, rng *rand.Rand, p *config.Parameters) []*Organism {
	if count <= 0 || len(s.organisms) == 0 {
		return nil
	}

	offspring := make([]*Organism, 0, count)
	offspring = append(offspring, s.Champion().Copy())

	survivors := s.survivors(p)
	for len(offspring) < count {
		var child *Organism
		if len(survivors) >= 2 && rng.Float64() < float64(p.MatePr) {
			i := rng.Intn(len(survivors))
			j := rng.Intn(len(survivors) - 1)
			if j >= i {
				j++
			}
			a, b := survivors[i], survivors[j]
			child = NewOrganism(a.Genome.Mate(b.Genome, betterFitness(a.Fitness, b.Fitness) || a.Fitness == b.Fitness, rng))
		} else {
			parent := survivors[rng.Intn(len(survivors))]
			child = NewOrganism(parent.Genome.Copy())
		}
		child.Mutate(innovationID, rng, p)
		offspring = append(offspring, child)
	}
	return offspring
}

// replaceMembers installs the next generation's members, dropping the old
// ones.
func (s *Species) replaceMembers(organisms []*Organism) {
	s.organisms = organisms
}

// clearMembers empties the member list, keeping the representative and the
// stagnation record.
func (s *Species) clearMembers() {
	s.organisms = s.organisms[:0]
}

// refreshRepresentative picks a random member's genome as the representative
// for the next generation's compatibility matching. No-op on an empty
// species.
func (s *Species) refreshRepresentative(rng *rand.Rand) {
	if len(s.organisms) == 0 {
		return
	}
	s.representative = s.organisms[rng.Intn(len(s.organisms))].Genome
}
