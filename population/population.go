package population

import (
	"math"
	"math/rand"
	"sync"

	"ctrneat/common"
	"ctrneat/config"
	"ctrneat/genome"
)

// Environment is the evaluator contract: the host scores one organism at a
// time, activating it as often as it likes, and returns a non-negative
// fitness where higher is better. NaN is treated as worst.
type Environment interface {
	Test(o *Organism) common.Fitness
}

// Population owns the species of a run, the shared innovation counter naming
// new hidden neurons, and the random source driving mutation and selection.
// A generation is advanced with Evolve and scored with EvaluateIn; the host
// loop alternates the two.
type Population struct {
	species      []*Species
	innovationID common.NeuronID
	size         int
	params       *config.Parameters
	rng          *rand.Rand
}

// New creates a population of size organisms, each wrapping a genome with
// n_inputs+n_outputs neurons and no connections. All organisms start in a
// single seed species; the innovation counter starts just past the sacred
// neuron range.
func New(size int, rng *rand.Rand, p *config.Parameters) *Population {
	pop := &Population{
		innovationID: common.NeuronID(p.NInputs + p.NOutputs),
		size:         size,
		params:       p,
		rng:          rng,
	}
	seed := NewSpecies(genome.WithNeurons(p.NInputs + p.NOutputs))
	for i := 0; i < size; i++ {
		seed.Add(NewOrganism(genome.WithNeurons(p.NInputs + p.NOutputs)))
	}
	pop.species = []*Species{seed}
	return pop
}

// Size returns the configured number of organisms per generation.
func (pop *Population) Size() int {
	return pop.size
}

// Species returns the current species list.
func (pop *Population) Species() []*Species {
	return pop.species
}

// InnovationID returns the current value of the innovation counter.
func (pop *Population) InnovationID() common.NeuronID {
	return pop.innovationID
}

// Organisms returns all organisms across species as a flat list.
func (pop *Population) Organisms() []*Organism {
	var all []*Organism
	for _, s := range pop.species {
		all = append(all, s.Organisms()...)
	}
	return all
}

// Champion returns the fittest organism of the population, or nil if the
// population is empty.
func (pop *Population) Champion() *Organism {
	var champ *Organism
	for _, s := range pop.species {
		if c := s.Champion(); c != nil {
			if champ == nil || betterFitness(c.Fitness, champ.Fitness) {
				champ = c
			}
		}
	}
	return champ
}

// EvaluateIn scores every organism sequentially through the environment.
// The evaluator writes each organism's fitness via its return value.
func (pop *Population) EvaluateIn(env Environment) {
	for _, s := range pop.species {
		for _, o := range s.Organisms() {
			o.Fitness = env.Test(o)
		}
	}
}

// EvaluateInParallel scores all organisms with the given number of workers,
// each processing a contiguous chunk. The environment must be safe to invoke
// concurrently; with fewer than two workers this falls back to EvaluateIn.
// Evolution itself remains strictly sequential either way.
func (pop *Population) EvaluateInParallel(env Environment, workers int) {
	if workers < 2 {
		pop.EvaluateIn(env)
		return
	}
	orgs := pop.Organisms()
	if len(orgs) == 0 {
		return
	}
	if workers > len(orgs) {
		workers = len(orgs)
	}
	chunk := (len(orgs) + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > len(orgs) {
			end = len(orgs)
		}
		if start >= end {
			break
		}
		wg.Add(1)
		go func(batch []*Organism) {
			defer wg.Done()
			for _, o := range batch {
				o.Fitness = env.Test(o)
			}
		}(orgs[start:end])
	}
	wg.Wait()
}

// Evolve advances the population one generation: organisms are regrouped
// into species by compatibility with the previous generation's
// representatives, stagnant species are culled, offspring slots are shared
// out by adjusted fitness, each species reproduces and mutates its children,
// and every surviving species picks a fresh representative. The innovation
// counter persists across generations.
func (pop *Population) Evolve() {
	pop.speciate()
	pop.cullStagnant()
	pop.reproduce(pop.allocateOffspring())

	for _, s := range pop.species {
		s.refreshRepresentative(pop.rng)
	}
}

// speciate redistributes all organisms: each goes to the first species whose
// representative it matches, and an unmatched organism founds a new species
// with itself as representative. Species left empty are dropped.
func (pop *Population) speciate() {
	all := append([]*Organism(nil), pop.Organisms()...)
	for _, s := range pop.species {
		s.clearMembers()
	}

	for _, o := range all {
		placed := false
		for _, s := range pop.species {
			if s.Match(o.Genome, pop.params) {
				s.Add(o)
				placed = true
				break
			}
		}
		if !placed {
			ns := NewSpecies(o.Genome)
			ns.Add(o)
			pop.species = append(pop.species, ns)
		}
	}

	kept := pop.species[:0]
	for _, s := range pop.species {
		if s.Len() > 0 {
			kept = append(kept, s)
		}
	}
	pop.species = kept
}

// cullStagnant updates each species' stagnation record and removes species
// that have gone the configured number of generations without improving,
// always preserving the species holding the population champion.
func (pop *Population) cullStagnant() {
	champ := pop.Champion()

	kept := pop.species[:0]
	for _, s := range pop.species {
		s.updateStagnation()
		holdsChampion := false
		if champ != nil {
			for _, o := range s.Organisms() {
				if o == champ {
					holdsChampion = true
					break
				}
			}
		}
		if holdsChampion || s.Stagnation() < pop.params.StagnationThreshold {
			kept = append(kept, s)
		}
	}
	pop.species = kept
}

// allocateOffspring shares the population size out across species in
// proportion to their adjusted fitness sums, rounding per species and
// settling any rounding drift on the species with the largest allocation.
// When no species has positive adjusted fitness (the unevaluated first
// generation, or an all-NaN evaluation) the slots are split evenly.
func (pop *Population) allocateOffspring() []int {
	counts := make([]int, len(pop.species))
	if len(pop.species) == 0 {
		return counts
	}

	sums := make([]float64, len(pop.species))
	total := 0.0
	for i, s := range pop.species {
		sums[i] = s.AdjustedFitnessSum()
		total += sums[i]
	}

	allocated := 0
	if total > 0 && !math.IsInf(total, 0) {
		for i := range counts {
			counts[i] = int(math.Round(float64(pop.size) * sums[i] / total))
			allocated += counts[i]
		}
	} else {
		even := pop.size / len(pop.species)
		for i := range counts {
			counts[i] = even
			allocated += even
		}
	}

	if drift := pop.size - allocated; drift != 0 {
		largest := 0
		for i := range counts {
			if counts[i] > counts[largest] {
				largest = i
			}
		}
		counts[largest] += drift
		if counts[largest] < 0 {
			counts[largest] = 0
		}
	}
	return counts
}

// reproduce replaces each species' members with its allotted offspring,
// dropping species that produced none.
func (pop *Population) reproduce(counts []int) {
	kept := pop.species[:0]
	for i, s := range pop.species {
		offspring := s.Reproduce(counts[i], &pop.innovationID, pop.rng, pop.params)
		if len(offspring) == 0 {
			continue
		}
		s.replaceMembers(offspring)
		kept = append(kept, s)
	}
	pop.species = kept
}
