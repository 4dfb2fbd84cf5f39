package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ctrneat/storage"
)

var (
	// Flags for the inspect command.
	inspectGenomeFile string
	inspectInputs     string
	inspectOutputs    int
)

// inspectCmd loads a genome JSON file, prints its structure, and optionally
// activates it on a given sensor vector.
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print a saved genome and optionally activate it.",
	Long: `Loads a genome from its JSON file and prints the neuron and connection
genes in insertion order. With --inputs, the genome is materialized into a
network and activated once on the given comma-separated sensor values,
printing the resulting outputs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := storage.LoadGenomeFromJSON(inspectGenomeFile)
		if err != nil {
			return err
		}

		fmt.Printf("genome: %d neurons, %d connections\n", g.NNeurons(), g.NConnections())
		for _, n := range g.Neurons() {
			fmt.Printf("  neuron %d bias=%.6f\n", n.ID, n.Bias)
		}
		for _, c := range g.Connections() {
			fmt.Printf("  connection %d -> %d weight=%.6f\n", c.ID.In, c.ID.Out, c.Weight)
		}

		if inspectInputs == "" {
			return nil
		}
		sensors, err := parseFloatList(inspectInputs)
		if err != nil {
			return fmt.Errorf("invalid --inputs: %w", err)
		}
		outputs := make([]float64, inspectOutputs)
		g.MakeNetwork().Activate(sensors, outputs)
		fmt.Printf("activation %v -> %v\n", sensors, outputs)
		return nil
	},
}

// parseFloatList parses a comma-separated list of floats.
func parseFloatList(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	values := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as float: %w", p, err)
		}
		values = append(values, v)
	}
	return values, nil
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVarP(&inspectGenomeFile, "genome", "f", "", "Path to the genome JSON file.")
	inspectCmd.Flags().StringVar(&inspectInputs, "inputs", "", "Comma-separated sensor values to activate the network on.")
	inspectCmd.Flags().IntVar(&inspectOutputs, "outputs", 1, "Number of output values to read.")
	_ = inspectCmd.MarkFlagRequired("genome")
}
