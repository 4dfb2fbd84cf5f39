package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ctrneat/storage"
)

var (
	// Flags for the export command.
	exportDbPath string
	exportTable  string
	exportOutput string
)

// exportCmd dumps a logged SQLite table as CSV.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a logged SQLite table to CSV.",
	Long: `Reads a table written by the run logger (Generations or SpeciesStates)
from a SQLite database and writes it as CSV to the output file, or to stdout
if no output is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := os.Stdout
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("failed to create output file %s: %w", exportOutput, err)
			}
			defer f.Close()
			out = f
		}
		if err := storage.ExportTableToCSV(exportDbPath, exportTable, out); err != nil {
			return err
		}
		if exportOutput != "" {
			fmt.Printf("table %s exported to %s\n", exportTable, exportOutput)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportDbPath, "dbPath", "", "Path to the SQLite database file.")
	exportCmd.Flags().StringVar(&exportTable, "table", storage.TableGenerations, "Table to export (Generations or SpeciesStates).")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output CSV file (stdout if empty).")
	_ = exportCmd.MarkFlagRequired("dbPath")
}
