package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/puzzlegest/internal/export"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write puzzles as JSON, YAML or an XLSX workbook",
	Long: `Export puzzle records from the store (or --input) in another format.

Examples:
  puzzlegest export --format yaml
  puzzlegest export --doc 3f2a9c0e1b7d4a55 --format xlsx --out puzzles.xlsx`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		records, err := loadRecords(cmd.Context())
		if err != nil {
			return err
		}
		if exportOut == "" {
			if format == export.FormatXLSX {
				return fmt.Errorf("--out is required for xlsx")
			}
			return export.Write(cmd.OutOrStdout(), format, records)
		}

		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		if err := export.Write(f, format, records); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported %d puzzles to %s\n", len(records), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "json, yaml or xlsx")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default: stdout)")
	addRecordFlags(exportCmd)
	rootCmd.AddCommand(exportCmd)
}
