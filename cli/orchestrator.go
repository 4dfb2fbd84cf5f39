package cli

import (
	"fmt"
	"log"
	"math"
	"math/rand"

	"ctrneat/common"
	"ctrneat/config"
	"ctrneat/genome"
	"ctrneat/population"
	"ctrneat/storage"
	"ctrneat/telemetry"
)

// Orchestrator manages one evolution experiment based on the application
// configuration: it creates the population, alternates Evolve and evaluation,
// feeds telemetry and the SQLite logger, and stops at the configured target
// fitness or generation bound.
type Orchestrator struct {
	AppCfg *config.AppConfig
	Env    population.Environment
	Pop    *population.Population
	Hof    *telemetry.HallOfFame

	logger *storage.SQLiteLogger
	csv    *telemetry.CSVWriter

	// saveGenomeFn allows mocking champion persistence in tests.
	saveGenomeFn func(g *genome.NeuralNetwork, path string) error
}

// NewOrchestrator creates an orchestrator for the given configuration and
// evaluator. It defaults to actual file system operations for persisting the
// champion genome.
func NewOrchestrator(appCfg *config.AppConfig, env population.Environment) *Orchestrator {
	return &Orchestrator{
		AppCfg:       appCfg,
		Env:          env,
		Hof:          telemetry.NewHallOfFame(10),
		saveGenomeFn: storage.SaveGenomeToJSON,
	}
}

// Run executes the experiment loop and returns the champion organism.
// It requires at least one stop condition (target fitness or generation
// bound). With only a target fitness set, the loop runs until a champion
// reaches it.
func (o *Orchestrator) Run() (*population.Organism, error) {
	if err := o.AppCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	rc := &o.AppCfg.Run
	if rc.TargetFitness <= 0 && rc.MaxGenerations <= 0 {
		return nil, fmt.Errorf("no stop condition: set target_fitness and/or max_generations")
	}

	seed := rc.ResolveSeed()
	rng := rand.New(rand.NewSource(seed))
	fmt.Printf("Evolution starting: population=%d seed=%d inputs=%d outputs=%d\n",
		rc.PopulationSize, seed, o.AppCfg.Params.NInputs, o.AppCfg.Params.NOutputs)

	if err := o.initializeOutputs(); err != nil {
		return nil, err
	}
	defer o.closeOutputs()

	o.Pop = population.New(rc.PopulationSize, rng, &o.AppCfg.Params)

	bestSeen := math.Inf(-1)
	generation := 0
	for {
		generation++
		o.Pop.Evolve()
		if rc.Parallelism > 1 {
			o.Pop.EvaluateInParallel(o.Env, rc.Parallelism)
		} else {
			o.Pop.EvaluateIn(o.Env)
		}

		champ := o.Pop.Champion()
		if champ != nil {
			o.Hof.Consider(champ, generation)
			if f := float64(champ.Fitness); !math.IsNaN(f) && f > bestSeen {
				bestSeen = f
				fmt.Printf("generation %d: best fitness %.4f (species: %d, neurons: %d, connections: %d)\n",
					generation, f, len(o.Pop.Species()),
					champ.Genome.NNeurons(), champ.Genome.NConnections())
			}
		}

		if err := o.logGeneration(generation); err != nil {
			// Telemetry failures should not kill a long run.
			log.Printf("warning: failed to log generation %d: %v", generation, err)
		}

		if rc.TargetFitness > 0 && champ != nil && float64(champ.Fitness) >= rc.TargetFitness {
			fmt.Printf("target fitness %.4f reached in generation %d\n", rc.TargetFitness, generation)
			break
		}
		if rc.MaxGenerations > 0 && generation >= rc.MaxGenerations {
			fmt.Printf("generation bound %d reached\n", rc.MaxGenerations)
			break
		}
	}

	champ := o.bestOrganism()
	if champ != nil && rc.ChampionFile != "" {
		if err := o.saveGenomeFn(champ.Genome, rc.ChampionFile); err != nil {
			return champ, fmt.Errorf("failed to save champion genome: %w", err)
		}
		fmt.Printf("champion genome written to %s\n", rc.ChampionFile)
	}
	return champ, nil
}

// bestOrganism prefers the hall-of-fame record over the current generation's
// champion, so a late dip does not lose the best organism of the run.
func (o *Orchestrator) bestOrganism() *population.Organism {
	if e := o.Hof.Best(); e != nil {
		return e.Organism
	}
	return o.Pop.Champion()
}

// initializeOutputs sets up the SQLite logger and the stats CSV writer if
// configured.
func (o *Orchestrator) initializeOutputs() error {
	rc := &o.AppCfg.Run
	if rc.DbPath != "" {
		logger, err := storage.NewSQLiteLogger(rc.DbPath)
		if err != nil {
			return fmt.Errorf("failed to initialize SQLite logger at %s: %w", rc.DbPath, err)
		}
		o.logger = logger
		fmt.Printf("SQLite logging enabled: %s\n", rc.DbPath)
	}
	csv, err := telemetry.NewCSVWriter(rc.CsvPath)
	if err != nil {
		return err
	}
	o.csv = csv
	if csv != nil {
		fmt.Printf("CSV stats enabled: %s\n", rc.CsvPath)
	}
	return nil
}

// logGeneration feeds the configured sinks for one generation.
func (o *Orchestrator) logGeneration(generation int) error {
	if o.logger != nil {
		if err := o.logger.LogGeneration(common.Generation(generation), o.Pop); err != nil {
			return err
		}
	}
	if o.csv != nil {
		return o.csv.Write(telemetry.Collect(generation, o.Pop))
	}
	return nil
}

// closeOutputs shuts down the logging sinks.
func (o *Orchestrator) closeOutputs() {
	if o.logger != nil {
		if err := o.logger.Close(); err != nil {
			log.Printf("error closing SQLite logger: %v", err)
		}
	}
	if err := o.csv.Close(); err != nil {
		log.Printf("error closing stats CSV: %v", err)
	}
}
