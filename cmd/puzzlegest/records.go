package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/puzzlegest/internal/export"
	"github.com/dgallion1/puzzlegest/internal/segment"
	"github.com/dgallion1/puzzlegest/internal/store"
)

// Record selection shared by the analysis, verify and export commands.
var (
	recordsInput  string
	recordsDoc    string
	recordsSource string
)

func addRecordFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&recordsInput, "input", "i", "", "JSON or YAML file of puzzle records")
	cmd.Flags().StringVar(&recordsDoc, "doc", "", "document ID in the store (default: the only document)")
	cmd.Flags().StringVar(&recordsSource, "source", "", "store records from text or vision (default: both)")
}

// loadRecords reads records from --input, or from the store otherwise.
func loadRecords(ctx context.Context) ([]segment.PuzzleRecord, error) {
	if recordsInput != "" {
		return export.ReadFile(recordsInput)
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	docID := recordsDoc
	if docID == "" {
		docs, err := st.ListDocuments(ctx)
		if err != nil {
			return nil, err
		}
		switch len(docs) {
		case 0:
			return nil, fmt.Errorf("no documents in %s; run extract first or pass --input", cfg.DBPath)
		case 1:
			docID = docs[0].ID
		default:
			return nil, fmt.Errorf("%d documents in %s; choose one with --doc", len(docs), cfg.DBPath)
		}
	}

	var source segment.Source
	switch segment.Source(recordsSource) {
	case "", segment.SourceText, segment.SourceVision:
		source = segment.Source(recordsSource)
	default:
		return nil, fmt.Errorf("--source must be text or vision")
	}
	return st.ListPuzzles(ctx, docID, source)
}
