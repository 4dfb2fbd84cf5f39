package storage

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Exportable tables.
const (
	TableGenerations   = "Generations"
	TableSpeciesStates = "SpeciesStates"
)

// GenerationRow mirrors one row of the Generations table for CSV export.
type GenerationRow struct {
	GenerationID   int64   `csv:"generation_id"`
	Generation     int     `csv:"generation"`
	Timestamp      string  `csv:"timestamp"`
	BestFitness    float64 `csv:"best_fitness"`
	MeanFitness    float64 `csv:"mean_fitness"`
	SpeciesCount   int     `csv:"species_count"`
	OrganismCount  int     `csv:"organism_count"`
	InnovationID   int     `csv:"innovation_id"`
	ChampionGenome string  `csv:"champion_genome"`
}

// SpeciesStateRow mirrors one row of the SpeciesStates table for CSV export.
type SpeciesStateRow struct {
	StateID            int64   `csv:"state_id"`
	GenerationID       int64   `csv:"generation_id"`
	SpeciesIndex       int     `csv:"species_index"`
	Size               int     `csv:"size"`
	BestFitness        float64 `csv:"best_fitness"`
	Stagnation         int     `csv:"stagnation"`
	AdjustedFitnessSum float64 `csv:"adjusted_fitness_sum"`
}

// ExportTableToCSV reads the named table from the SQLite database at dbPath
// and writes it as CSV to out. Only the logging tables of this package are
// supported.
func ExportTableToCSV(dbPath, table string, out io.Writer) error {
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("cannot access database %s: %w", dbPath, err)
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database at %s: %w", dbPath, err)
	}
	defer db.Close()

	switch table {
	case TableGenerations:
		rows, err := readGenerationRows(db)
		if err != nil {
			return err
		}
		if err := gocsv.Marshal(&rows, out); err != nil {
			return fmt.Errorf("failed to write %s CSV: %w", table, err)
		}
	case TableSpeciesStates:
		rows, err := readSpeciesStateRows(db)
		if err != nil {
			return err
		}
		if err := gocsv.Marshal(&rows, out); err != nil {
			return fmt.Errorf("failed to write %s CSV: %w", table, err)
		}
	default:
		return fmt.Errorf("unsupported table %q, must be %q or %q", table, TableGenerations, TableSpeciesStates)
	}
	return nil
}

func readGenerationRows(db *sql.DB) ([]*GenerationRow, error) {
	rows, err := db.Query(`SELECT GenerationID, Generation, Timestamp, BestFitness, MeanFitness,
            SpeciesCount, OrganismCount, InnovationID, ChampionGenome
        FROM Generations ORDER BY GenerationID`)
	if err != nil {
		return nil, fmt.Errorf("failed to query Generations: %w", err)
	}
	defer rows.Close()

	var out []*GenerationRow
	for rows.Next() {
		var r GenerationRow
		var best, mean sql.NullFloat64
		var champion sql.NullString
		if err := rows.Scan(&r.GenerationID, &r.Generation, &r.Timestamp, &best, &mean,
			&r.SpeciesCount, &r.OrganismCount, &r.InnovationID, &champion); err != nil {
			return nil, fmt.Errorf("failed to scan Generations row: %w", err)
		}
		r.BestFitness = best.Float64
		r.MeanFitness = mean.Float64
		r.ChampionGenome = champion.String
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating Generations rows: %w", err)
	}
	return out, nil
}

func readSpeciesStateRows(db *sql.DB) ([]*SpeciesStateRow, error) {
	rows, err := db.Query(`SELECT StateID, GenerationID, SpeciesIndex, Size, BestFitness,
            Stagnation, AdjustedFitnessSum
        FROM SpeciesStates ORDER BY StateID`)
	if err != nil {
		return nil, fmt.Errorf("failed to query SpeciesStates: %w", err)
	}
	defer rows.Close()

	var out []*SpeciesStateRow
	for rows.Next() {
		var r SpeciesStateRow
		var best sql.NullFloat64
		if err := rows.Scan(&r.StateID, &r.GenerationID, &r.SpeciesIndex, &r.Size, &best,
			&r.Stagnation, &r.AdjustedFitnessSum); err != nil {
			return nil, fmt.Errorf("failed to scan SpeciesStates row: %w", err)
		}
		r.BestFitness = best.Float64
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating SpeciesStates rows: %w", err)
	}
	return out, nil
}
