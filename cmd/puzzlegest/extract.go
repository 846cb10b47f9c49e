package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/puzzlegest/internal/config"
	"github.com/dgallion1/puzzlegest/internal/export"
	"github.com/dgallion1/puzzlegest/internal/ocr"
	"github.com/dgallion1/puzzlegest/internal/pipeline"
	"github.com/dgallion1/puzzlegest/internal/render"
	"github.com/dgallion1/puzzlegest/internal/segment"
	"github.com/dgallion1/puzzlegest/internal/store"
)

var (
	extractSample int
	extractOut    string
	extractOCR    bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract puzzles from page text",
	Long: `Parse a book, pair its PROBLEM and SOLUTION markers and write the
puzzle records to a JSON or YAML file (chosen by extension).

With --ocr, blank PDF pages are rendered and read with Tesseract first.
With --db, the records are also saved to the SQLite store.

Examples:
  puzzlegest extract book.pdf
  puzzlegest extract book.pdf --sample 5 --out sample.yaml
  puzzlegest extract scan.pdf --ocr --db puzzles.db`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := newLogger()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path := args[0]

		pages, err := parseFile(path, cfg.PDFFallbackPdftotext)
		if err != nil {
			return err
		}
		log.Info("parsed document", "file", path, "pages", len(pages))

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		doc := store.Document{
			ID:          pipeline.DocIDFromHash(pipeline.ContentHashHex(data)),
			Filename:    filepath.Base(path),
			ContentHash: pipeline.ContentHashHex(data),
		}

		if extractOCR || cfg.OCRBlankPages {
			pages, err = ocrBlankPages(ctx, log, cfg, path, doc.ID, pages)
			if err != nil {
				return err
			}
		}

		records := pipeline.RunText(log, pages)
		if extractSample > 0 {
			records = pipeline.SampleRecords(records, extractSample)
		}

		if err := export.WriteFile(extractOut, records); err != nil {
			return fmt.Errorf("write %s: %w", extractOut, err)
		}
		if dbPath != "" {
			doc.Pages = len(pages)
			if err := saveRecords(ctx, cfg, doc, records); err != nil {
				return err
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), pipeline.Summarize(records))
		fmt.Fprintf(cmd.OutOrStdout(), "Saved to %s\n", extractOut)
		return nil
	},
}

func init() {
	extractCmd.Flags().IntVar(&extractSample, "sample", 0, "keep only about N evenly spaced puzzles")
	extractCmd.Flags().StringVar(&extractOut, "out", "bridge_puzzles.json", "output file (.json or .yaml)")
	extractCmd.Flags().BoolVar(&extractOCR, "ocr", false, "OCR blank PDF pages with Tesseract")
	rootCmd.AddCommand(extractCmd)
}

func ocrBlankPages(ctx context.Context, log *slog.Logger, cfg config.Config, path, docID string, pages []segment.PageText) ([]segment.PageText, error) {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		log.Warn("ocr fallback needs a PDF; skipping", "file", path)
		return pages, nil
	}
	rec, err := ocr.New(cfg.OCRLanguage)
	if err != nil {
		return nil, err
	}
	defer rec.Close()

	r := &render.Rasterizer{
		PDFPath:   path,
		ImagesDir: filepath.Join(cfg.ImagesDir, docID),
		DPI:       cfg.RenderDPI,
		Log:       log,
	}
	pages, filled, err := pipeline.FillBlankPages(ctx, log, pages, r, rec)
	if err != nil {
		return nil, err
	}
	log.Info("ocr filled blank pages", "count", filled)
	return pages, nil
}

// saveRecords writes the document row and its records to the store.
func saveRecords(ctx context.Context, cfg config.Config, doc store.Document, records []segment.PuzzleRecord) error {
	st, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.UpsertDocument(ctx, doc); err != nil {
		return err
	}
	if err := st.SavePuzzles(ctx, doc.ID, records); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Stored %d puzzles for document %s in %s\n", len(records), doc.ID, cfg.DBPath)
	return nil
}
