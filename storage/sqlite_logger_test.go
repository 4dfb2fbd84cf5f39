package storage_test

import (
	"bytes"
	"database/sql"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"ctrneat/common"
	"ctrneat/config"
	"ctrneat/population"
	"ctrneat/storage"
)

// tableExistsAndHasColumns checks a table's presence and columns via PRAGMA.
func tableExistsAndHasColumns(t *testing.T, db *sql.DB, tableName string, expectedCols []string) {
	t.Helper()
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s);", tableName))
	if err != nil {
		t.Fatalf("PRAGMA table_info(%s): %v", tableName, err)
	}
	defer rows.Close()

	foundCols := make(map[string]bool)
	for rows.Next() {
		var cid, notnull, pk int
		var name, typeStr string
		var dfltValue sql.NullString
		if err := rows.Scan(&cid, &name, &typeStr, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("scanning table_info row for %s: %v", tableName, err)
		}
		foundCols[name] = true
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("iterating table_info rows for %s: %v", tableName, err)
	}

	for _, col := range expectedCols {
		if !foundCols[col] {
			t.Errorf("table %s: missing column %s", tableName, col)
		}
	}
}

func evaluatedPopulation(t *testing.T) *population.Population {
	t.Helper()
	p := config.DefaultParameters(1, 1)
	pop := population.New(10, rand.New(rand.NewSource(4)), &p)
	pop.Evolve()
	for i, o := range pop.Organisms() {
		o.Fitness = common.Fitness(1.0 + float64(i))
	}
	return pop
}

func TestNewSQLiteLoggerCreatesTables(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "run.db")
	logger, err := storage.NewSQLiteLogger(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteLogger failed: %v", err)
	}
	defer logger.Close()

	tableExistsAndHasColumns(t, logger.DBForTest(), "Generations",
		[]string{"GenerationID", "Generation", "Timestamp", "BestFitness", "MeanFitness",
			"SpeciesCount", "OrganismCount", "InnovationID", "ChampionGenome"})
	tableExistsAndHasColumns(t, logger.DBForTest(), "SpeciesStates",
		[]string{"StateID", "GenerationID", "SpeciesIndex", "Size", "BestFitness",
			"Stagnation", "AdjustedFitnessSum"})
}

func TestLogGeneration(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "run.db")
	logger, err := storage.NewSQLiteLogger(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteLogger failed: %v", err)
	}
	defer logger.Close()

	pop := evaluatedPopulation(t)
	if err := logger.LogGeneration(1, pop); err != nil {
		t.Fatalf("LogGeneration failed: %v", err)
	}
	if err := logger.LogGeneration(2, pop); err != nil {
		t.Fatalf("second LogGeneration failed: %v", err)
	}

	db := logger.DBForTest()

	var generationCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM Generations").Scan(&generationCount); err != nil {
		t.Fatalf("counting generations: %v", err)
	}
	if generationCount != 2 {
		t.Errorf("got %d generation rows, expected 2", generationCount)
	}

	var speciesCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM SpeciesStates WHERE GenerationID = 1").Scan(&speciesCount); err != nil {
		t.Fatalf("counting species states: %v", err)
	}
	if speciesCount != len(pop.Species()) {
		t.Errorf("got %d species rows, expected %d", speciesCount, len(pop.Species()))
	}

	// The champion genome round-trips through its JSON column.
	var championJSON string
	if err := db.QueryRow("SELECT ChampionGenome FROM Generations WHERE GenerationID = 1").Scan(&championJSON); err != nil {
		t.Fatalf("reading champion genome: %v", err)
	}
	loaded, err := storage.UnmarshalGenome([]byte(championJSON))
	if err != nil {
		t.Fatalf("champion genome column does not parse: %v", err)
	}
	if !loaded.Equal(pop.Champion().Genome) {
		t.Error("champion genome column does not match the population champion")
	}
}

func TestExportTableToCSV(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "run.db")
	logger, err := storage.NewSQLiteLogger(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteLogger failed: %v", err)
	}
	pop := evaluatedPopulation(t)
	if err := logger.LogGeneration(1, pop); err != nil {
		t.Fatalf("LogGeneration failed: %v", err)
	}
	logger.Close()

	var buf bytes.Buffer
	if err := storage.ExportTableToCSV(dbPath, storage.TableGenerations, &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d CSV lines, expected header plus one row:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "generation_id") || !strings.Contains(lines[0], "best_fitness") {
		t.Errorf("unexpected CSV header: %s", lines[0])
	}

	buf.Reset()
	if err := storage.ExportTableToCSV(dbPath, storage.TableSpeciesStates, &buf); err != nil {
		t.Fatalf("species export failed: %v", err)
	}
	if !strings.Contains(buf.String(), "species_index") {
		t.Errorf("unexpected species CSV output: %s", buf.String())
	}

	if err := storage.ExportTableToCSV(dbPath, "Bogus", &buf); err == nil {
		t.Error("expected error for unsupported table")
	}
	if err := storage.ExportTableToCSV(filepath.Join(t.TempDir(), "absent.db"), storage.TableGenerations, &buf); err == nil {
		t.Error("expected error for missing database")
	}
}
