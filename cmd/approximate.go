package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"ctrneat/cli"
	"ctrneat/config"
)

var (
	// Flags for the approximate command.
	approxPopulation   int
	approxGenerations  int
	approxTarget       float64
	approxDbPath       string
	approxCsvPath      string
	approxChampionFile string
	approxParallelism  int
)

// approximateCmd runs the function-approximation experiment: evolve a
// single-input, single-output network until it tracks x² on [-10, 10].
var approximateCmd = &cobra.Command{
	Use:   "approximate",
	Short: "Evolve a network approximating x² on [-10, 10].",
	Long: `Runs the function-approximation experiment. Each organism is activated on
the grid x = -10..10 (presented as x/10) and its output, scaled by 100, is
compared against x². Fitness is 100/(1+d) for the summed absolute error d,
so 100 is a perfect fit. The run stops at the target fitness or the
generation bound, whichever comes first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appCfg := &config.AppConfig{
			Params: config.DefaultParameters(1, 1),
			Run:    config.DefaultRunConfig(),
		}
		appCfg.Run.PopulationSize = approxPopulation
		appCfg.Run.MaxGenerations = approxGenerations
		appCfg.Run.TargetFitness = approxTarget
		appCfg.Run.Seed = seed

		if configFile != "" {
			fmt.Printf("Loading TOML configuration: %s\n", configFile)
			if err := appCfg.LoadTOML(configFile); err != nil {
				log.Printf("warning: %v, continuing with defaults and CLI flags", err)
			}
		}

		// Explicitly set flags override the TOML file.
		if cmd.Flags().Changed("population") {
			appCfg.Run.PopulationSize = approxPopulation
		}
		if cmd.Flags().Changed("generations") {
			appCfg.Run.MaxGenerations = approxGenerations
		}
		if cmd.Flags().Changed("target") {
			appCfg.Run.TargetFitness = approxTarget
		}
		if cmd.Flags().Changed("dbPath") || appCfg.Run.DbPath == "" {
			appCfg.Run.DbPath = approxDbPath
		}
		if cmd.Flags().Changed("csvPath") || appCfg.Run.CsvPath == "" {
			appCfg.Run.CsvPath = approxCsvPath
		}
		if cmd.Flags().Changed("championFile") || appCfg.Run.ChampionFile == "" {
			appCfg.Run.ChampionFile = approxChampionFile
		}
		if cmd.Flags().Changed("parallelism") {
			appCfg.Run.Parallelism = approxParallelism
		}
		if cmd.Root().PersistentFlags().Changed("seed") {
			appCfg.Run.Seed = seed
		}

		orchestrator := cli.NewOrchestrator(appCfg, cli.NewFunctionApproximation())
		champ, err := orchestrator.Run()
		if err != nil {
			return fmt.Errorf("approximate experiment failed: %w", err)
		}
		if champ != nil {
			fmt.Printf("champion: fitness=%.4f neurons=%d connections=%d\n",
				float64(champ.Fitness), champ.Genome.NNeurons(), champ.Genome.NConnections())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(approximateCmd)

	approximateCmd.Flags().IntVarP(&approxPopulation, "population", "p", 150, "Number of organisms per generation.")
	approximateCmd.Flags().IntVarP(&approxGenerations, "generations", "g", 0, "Generation bound (0 for unbounded; requires a target).")
	approximateCmd.Flags().Float64VarP(&approxTarget, "target", "t", 99.0, "Stop once the champion reaches this fitness (0 disables).")
	approximateCmd.Flags().StringVar(&approxDbPath, "dbPath", "", "SQLite database file for generation logging (empty disables).")
	approximateCmd.Flags().StringVar(&approxCsvPath, "csvPath", "", "CSV file for generation statistics (empty disables).")
	approximateCmd.Flags().StringVar(&approxChampionFile, "championFile", "", "File to write the champion genome JSON to (empty disables).")
	approximateCmd.Flags().IntVar(&approxParallelism, "parallelism", 1, "Number of evaluation workers (<=1 is sequential).")
}
