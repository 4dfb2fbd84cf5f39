// Package cmd defines the command-line interface: the root command plus the
// experiment, inspection and export subcommands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Persistent flags shared by all subcommands.
	configFile string
	seed       int64
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ctrneat",
	Short: "ctrneat: neuroevolution of continuous-time recurrent neural networks",
	Long: `ctrneat evolves populations of recurrent neural networks with the NEAT
family of algorithms. Genomes encode neurons and connections, networks are
activated as numerically integrated continuous-time systems, and a
user-selected experiment supplies the fitness function.

For details on a specific command, use: ctrneat [command] --help`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(); it only needs to happen once.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "configFile", "", "Path to a TOML configuration file.")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "Seed for the random number generator (0 uses the current time).")
}
