package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"ctrneat/cli"
	"ctrneat/config"
)

var (
	// Flags for the xor command.
	xorPopulation   int
	xorGenerations  int
	xorTarget       float64
	xorDbPath       string
	xorCsvPath      string
	xorChampionFile string
	xorParallelism  int
)

// xorCmd runs the XOR experiment over two-input, single-output genomes.
var xorCmd = &cobra.Command{
	Use:   "xor",
	Short: "Evolve a network computing exclusive-or.",
	Long: `Runs the XOR experiment. Each organism is activated on the four cases of
the exclusive-or truth table; fitness is (4-e)² for the summed absolute error
e, so a perfect organism scores 16.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appCfg := &config.AppConfig{
			Params: config.DefaultParameters(2, 1),
			Run:    config.DefaultRunConfig(),
		}
		appCfg.Run.PopulationSize = xorPopulation
		appCfg.Run.MaxGenerations = xorGenerations
		appCfg.Run.TargetFitness = xorTarget
		appCfg.Run.Seed = seed

		if configFile != "" {
			fmt.Printf("Loading TOML configuration: %s\n", configFile)
			if err := appCfg.LoadTOML(configFile); err != nil {
				log.Printf("warning: %v, continuing with defaults and CLI flags", err)
			}
		}

		if cmd.Flags().Changed("population") {
			appCfg.Run.PopulationSize = xorPopulation
		}
		if cmd.Flags().Changed("generations") {
			appCfg.Run.MaxGenerations = xorGenerations
		}
		if cmd.Flags().Changed("target") {
			appCfg.Run.TargetFitness = xorTarget
		}
		if cmd.Flags().Changed("dbPath") || appCfg.Run.DbPath == "" {
			appCfg.Run.DbPath = xorDbPath
		}
		if cmd.Flags().Changed("csvPath") || appCfg.Run.CsvPath == "" {
			appCfg.Run.CsvPath = xorCsvPath
		}
		if cmd.Flags().Changed("championFile") || appCfg.Run.ChampionFile == "" {
			appCfg.Run.ChampionFile = xorChampionFile
		}
		if cmd.Flags().Changed("parallelism") {
			appCfg.Run.Parallelism = xorParallelism
		}
		if cmd.Root().PersistentFlags().Changed("seed") {
			appCfg.Run.Seed = seed
		}

		orchestrator := cli.NewOrchestrator(appCfg, cli.NewXOREnvironment())
		champ, err := orchestrator.Run()
		if err != nil {
			return fmt.Errorf("xor experiment failed: %w", err)
		}
		if champ != nil {
			fmt.Printf("champion: fitness=%.4f neurons=%d connections=%d\n",
				float64(champ.Fitness), champ.Genome.NNeurons(), champ.Genome.NConnections())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(xorCmd)

	xorCmd.Flags().IntVarP(&xorPopulation, "population", "p", 150, "Number of organisms per generation.")
	xorCmd.Flags().IntVarP(&xorGenerations, "generations", "g", 300, "Generation bound (0 for unbounded; requires a target).")
	xorCmd.Flags().Float64VarP(&xorTarget, "target", "t", 15.5, "Stop once the champion reaches this fitness (0 disables).")
	xorCmd.Flags().StringVar(&xorDbPath, "dbPath", "", "SQLite database file for generation logging (empty disables).")
	xorCmd.Flags().StringVar(&xorCsvPath, "csvPath", "", "CSV file for generation statistics (empty disables).")
	xorCmd.Flags().StringVar(&xorChampionFile, "championFile", "", "File to write the champion genome JSON to (empty disables).")
	xorCmd.Flags().IntVar(&xorParallelism, "parallelism", 1, "Number of evaluation workers (<=1 is sequential).")
}
