package storage

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"ctrneat/common"
	"ctrneat/population"
)

// SQLiteLogger records the progress of an evolution run in a SQLite
// database: one row per generation plus one row per species per generation.
// The champion genome of each generation is stored as its canonical JSON.
type SQLiteLogger struct {
	db *sql.DB
}

// NewSQLiteLogger opens (and resets) the database at dataSourceName and
// creates the logging tables. The file is recreated for each logging session.
func NewSQLiteLogger(dataSourceName string) (*SQLiteLogger, error) {
	// Start fresh for every run; historical runs keep their own files.
	_ = os.Remove(dataSourceName)

	dbConn, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database at %s: %w", dataSourceName, err)
	}
	if err = dbConn.Ping(); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("failed to ping SQLite database at %s: %w", dataSourceName, err)
	}

	logger := &SQLiteLogger{db: dbConn}
	if err = logger.createTables(); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("failed to create SQLite tables: %w", err)
	}
	return logger, nil
}

// createTables defines and executes the SQL for the logging tables.
func (sl *SQLiteLogger) createTables() error {
	generationsTableSQL := `
    CREATE TABLE IF NOT EXISTS Generations (
        GenerationID INTEGER PRIMARY KEY AUTOINCREMENT,
        Generation INTEGER NOT NULL,
        Timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
        BestFitness REAL,
        MeanFitness REAL,
        SpeciesCount INTEGER,
        OrganismCount INTEGER,
        InnovationID INTEGER,
        ChampionGenome TEXT
    );`
	if _, err := sl.db.Exec(generationsTableSQL); err != nil {
		return fmt.Errorf("failed to create Generations table: %w", err)
	}

	speciesStatesTableSQL := `
    CREATE TABLE IF NOT EXISTS SpeciesStates (
        StateID INTEGER PRIMARY KEY AUTOINCREMENT,
        GenerationID INTEGER NOT NULL,
        SpeciesIndex INTEGER NOT NULL,
        Size INTEGER,
        BestFitness REAL,
        Stagnation INTEGER,
        AdjustedFitnessSum REAL,
        FOREIGN KEY (GenerationID) REFERENCES Generations (GenerationID) ON DELETE CASCADE
    );`
	if _, err := sl.db.Exec(speciesStatesTableSQL); err != nil {
		return fmt.Errorf("failed to create SpeciesStates table: %w", err)
	}
	return nil
}

// DBForTest returns the database handle for use in tests. This method should
// only be used in test contexts.
func (sl *SQLiteLogger) DBForTest() *sql.DB {
	return sl.db
}

// LogGeneration saves one generation's state: the summary row, the champion
// genome JSON, and one row per species. All rows are written in a single
// transaction.
func (sl *SQLiteLogger) LogGeneration(generation common.Generation, pop *population.Population) error {
	if sl.db == nil {
		return fmt.Errorf("SQLite logger not initialized")
	}

	tx, err := sl.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin SQLite transaction: %w", err)
	}
	defer tx.Rollback()

	var bestFitness sql.NullFloat64
	var championJSON sql.NullString
	if champ := pop.Champion(); champ != nil {
		if f := float64(champ.Fitness); f == f { // skip NaN
			bestFitness = sql.NullFloat64{Float64: f, Valid: true}
		}
		data, err := marshalGenomeCompact(champ.Genome)
		if err != nil {
			return fmt.Errorf("failed to serialize champion genome: %w", err)
		}
		championJSON = sql.NullString{String: string(data), Valid: true}
	}

	organisms := pop.Organisms()
	meanFitness := sql.NullFloat64{}
	sum, n := 0.0, 0
	for _, o := range organisms {
		if f := float64(o.Fitness); f == f {
			sum += f
			n++
		}
	}
	if n > 0 {
		meanFitness = sql.NullFloat64{Float64: sum / float64(n), Valid: true}
	}

	res, err := tx.Exec(`INSERT INTO Generations
            (Generation, Timestamp, BestFitness, MeanFitness, SpeciesCount, OrganismCount, InnovationID, ChampionGenome)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		int(generation),
		time.Now(),
		bestFitness,
		meanFitness,
		len(pop.Species()),
		len(organisms),
		int(pop.InnovationID()),
		championJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert into Generations: %w", err)
	}
	generationID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get LastInsertId for generation: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO SpeciesStates
            (GenerationID, SpeciesIndex, Size, BestFitness, Stagnation, AdjustedFitnessSum)
        VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare SpeciesStates statement: %w", err)
	}
	defer stmt.Close()

	for i, s := range pop.Species() {
		speciesBest := sql.NullFloat64{}
		if f := float64(s.BestFitness()); f == f {
			speciesBest = sql.NullFloat64{Float64: f, Valid: true}
		}
		if _, err = stmt.Exec(generationID, i, s.Len(), speciesBest, int(s.Stagnation()), s.AdjustedFitnessSum()); err != nil {
			return fmt.Errorf("failed to insert state for species %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit SQLite transaction: %w", err)
	}
	return nil
}

// Close shuts down the database connection.
func (sl *SQLiteLogger) Close() error {
	if sl.db != nil {
		return sl.db.Close()
	}
	return nil
}
