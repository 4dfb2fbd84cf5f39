package telemetry

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ctrneat/common"
	"ctrneat/config"
	"ctrneat/population"
)

func evaluatedPopulation(t *testing.T) *population.Population {
	t.Helper()
	p := config.DefaultParameters(1, 1)
	pop := population.New(8, rand.New(rand.NewSource(6)), &p)
	for i, o := range pop.Organisms() {
		o.Fitness = common.Fitness(i)
	}
	return pop
}

func TestCollect(t *testing.T) {
	pop := evaluatedPopulation(t)
	stats := Collect(3, pop)

	if stats.Generation != 3 {
		t.Errorf("generation = %d, expected 3", stats.Generation)
	}
	if stats.OrganismCount != 8 {
		t.Errorf("organism count = %d, expected 8", stats.OrganismCount)
	}
	if stats.BestFitness != 7.0 {
		t.Errorf("best fitness = %v, expected 7.0", stats.BestFitness)
	}
	if math.Abs(stats.MeanFitness-3.5) > 1e-12 {
		t.Errorf("mean fitness = %v, expected 3.5", stats.MeanFitness)
	}
	if stats.SpeciesCount != 1 {
		t.Errorf("species count = %d, expected 1", stats.SpeciesCount)
	}
	if stats.ChampionNeurons != 2 || stats.ChampionConnections != 0 {
		t.Errorf("champion shape %d/%d, expected 2/0",
			stats.ChampionNeurons, stats.ChampionConnections)
	}
}

func TestCollectUnevaluated(t *testing.T) {
	p := config.DefaultParameters(1, 1)
	pop := population.New(4, rand.New(rand.NewSource(6)), &p)

	stats := Collect(1, pop)
	if !math.IsNaN(stats.MeanFitness) {
		t.Errorf("mean of unevaluated population = %v, expected NaN", stats.MeanFitness)
	}
	if !math.IsNaN(stats.BestFitness) {
		t.Errorf("best of unevaluated population = %v, expected NaN", stats.BestFitness)
	}
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "stats.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter failed: %v", err)
	}

	pop := evaluatedPopulation(t)
	if err := w.Write(Collect(1, pop)); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := w.Write(Collect(2, pop)); err != nil {
		t.Fatalf("second write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, expected header plus two records:\n%s", len(lines), data)
	}
	if !strings.Contains(lines[0], "generation") || !strings.Contains(lines[0], "best_fitness") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if strings.Contains(lines[2], "generation,") {
		t.Error("header repeated for the second record")
	}
}

func TestCSVWriterDisabled(t *testing.T) {
	w, err := NewCSVWriter("")
	if err != nil {
		t.Fatalf("disabled writer errored: %v", err)
	}
	if w != nil {
		t.Fatal("empty path should return a nil writer")
	}
	// Nil-safety of the full surface.
	if err := w.Write(GenerationStats{}); err != nil {
		t.Errorf("nil writer Write errored: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("nil writer Close errored: %v", err)
	}
}
