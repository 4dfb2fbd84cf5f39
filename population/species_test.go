package population

import (
	"math"
	"math/rand"
	"testing"

	"ctrneat/common"
	"ctrneat/config"
	"ctrneat/genome"
)

func testParams() config.Parameters {
	return config.DefaultParameters(1, 1)
}

func organismWithFitness(g *genome.NeuralNetwork, fitness float64) *Organism {
	o := NewOrganism(g)
	o.Fitness = common.Fitness(fitness)
	return o
}

func TestSpeciesMatch(t *testing.T) {
	p := testParams()

	rep := genome.WithNeurons(2)
	rep.AddConnection(0, 1, 1.0)
	s := NewSpecies(rep)

	near := genome.WithNeurons(2)
	near.AddConnection(0, 1, 0.5)
	if !s.Match(near, &p) {
		t.Error("compatible genome did not match")
	}

	far := genome.WithNeurons(2)
	far.AddConnection(0, 1, 30.0)
	if s.Match(far, &p) {
		t.Error("incompatible genome matched")
	}
}

func TestSpeciesChampionIgnoresNaN(t *testing.T) {
	s := NewSpecies(genome.WithNeurons(2))
	s.Add(NewOrganism(genome.WithNeurons(2))) // NaN fitness
	s.Add(organismWithFitness(genome.WithNeurons(2), 3.0))
	s.Add(organismWithFitness(genome.WithNeurons(2), 7.0))
	s.Add(NewOrganism(genome.WithNeurons(2)))

	champ := s.Champion()
	if champ == nil || float64(champ.Fitness) != 7.0 {
		t.Errorf("champion = %+v, expected fitness 7.0", champ)
	}
}

func TestAdjustedFitnessSum(t *testing.T) {
	s := NewSpecies(genome.WithNeurons(2))
	s.Add(organismWithFitness(genome.WithNeurons(2), 4.0))
	s.Add(organismWithFitness(genome.WithNeurons(2), 2.0))

	// (4 + 2) / 2 members: fitness sharing divides by species size.
	if got := s.AdjustedFitnessSum(); math.Abs(got-3.0) > 1e-12 {
		t.Errorf("adjusted fitness sum = %v, expected 3.0", got)
	}

	if got := NewSpecies(genome.WithNeurons(2)).AdjustedFitnessSum(); got != 0 {
		t.Errorf("empty species sum = %v, expected 0", got)
	}

	nan := NewSpecies(genome.WithNeurons(2))
	nan.Add(NewOrganism(genome.WithNeurons(2)))
	nan.Add(organismWithFitness(genome.WithNeurons(2), 6.0))
	if got := nan.AdjustedFitnessSum(); math.Abs(got-3.0) > 1e-12 {
		t.Errorf("NaN members must contribute nothing, got %v", got)
	}
}

func TestSpeciesStagnation(t *testing.T) {
	s := NewSpecies(genome.WithNeurons(2))
	s.Add(organismWithFitness(genome.WithNeurons(2), 1.0))

	s.updateStagnation()
	if s.Stagnation() != 0 || float64(s.BestFitness()) != 1.0 {
		t.Fatalf("first improvement: stagnation=%d best=%v", s.Stagnation(), s.BestFitness())
	}

	// Same fitness: no improvement.
	s.updateStagnation()
	s.updateStagnation()
	if s.Stagnation() != 2 {
		t.Errorf("stagnation = %d, expected 2", s.Stagnation())
	}

	// A new best resets the counter.
	s.Organisms()[0].Fitness = 2.0
	s.updateStagnation()
	if s.Stagnation() != 0 || float64(s.BestFitness()) != 2.0 {
		t.Errorf("after improvement: stagnation=%d best=%v", s.Stagnation(), s.BestFitness())
	}
}

func TestReproduceKeepsElite(t *testing.T) {
	p := testParams()
	rng := rand.New(rand.NewSource(5))

	s := NewSpecies(genome.WithNeurons(2))
	elite := genome.WithNeurons(2)
	elite.AddConnection(0, 1, 1.25)
	s.Add(organismWithFitness(elite, 10.0))
	for i := 0; i < 9; i++ {
		g := genome.WithNeurons(2)
		g.AddConnection(0, 1, float64(i))
		s.Add(organismWithFitness(g, float64(i)))
	}

	innovation := common.NeuronID(2)
	offspring := s.Reproduce(10, &innovation, rng, &p)

	if len(offspring) != 10 {
		t.Fatalf("got %d offspring, expected 10", len(offspring))
	}
	// The elite is the fittest member, copied unchanged with its fitness.
	if !offspring[0].Genome.Equal(elite) {
		t.Error("first offspring is not the untouched elite clone")
	}
	if float64(offspring[0].Fitness) != 10.0 {
		t.Errorf("elite fitness = %v, expected 10.0", offspring[0].Fitness)
	}
	// All other children are fresh and unevaluated.
	for i, o := range offspring[1:] {
		if !math.IsNaN(float64(o.Fitness)) {
			t.Errorf("child %d carries fitness %v, expected NaN", i+1, o.Fitness)
		}
	}
}

func TestReproduceEdgeCases(t *testing.T) {
	p := testParams()
	rng := rand.New(rand.NewSource(5))
	innovation := common.NeuronID(2)

	s := NewSpecies(genome.WithNeurons(2))
	if got := s.Reproduce(5, &innovation, rng, &p); got != nil {
		t.Errorf("empty species produced %d offspring", len(got))
	}

	s.Add(organismWithFitness(genome.WithNeurons(2), 1.0))
	if got := s.Reproduce(0, &innovation, rng, &p); got != nil {
		t.Errorf("zero budget produced %d offspring", len(got))
	}

	// A single member still fills the budget by clone-and-mutate.
	offspring := s.Reproduce(3, &innovation, rng, &p)
	if len(offspring) != 3 {
		t.Errorf("got %d offspring, expected 3", len(offspring))
	}
}

func TestRefreshRepresentative(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	rep := genome.WithNeurons(2)
	s := NewSpecies(rep)

	s.refreshRepresentative(rng) // empty: keeps the old one
	if s.Representative() != rep {
		t.Error("empty species must keep its representative")
	}

	member := genome.WithNeurons(2)
	s.Add(NewOrganism(member))
	s.refreshRepresentative(rng)
	if s.Representative() != member {
		t.Error("representative was not refreshed from the membership")
	}
}
