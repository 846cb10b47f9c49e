package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dgallion1/puzzlegest/internal/ocr"
	"github.com/dgallion1/puzzlegest/internal/segment"
)

// PageRenderer produces an image file for a zero-based page index.
type PageRenderer interface {
	Render(ctx context.Context, pageIndex int) (string, error)
}

// RunText segments page text into puzzle records.
func RunText(log *slog.Logger, pages []segment.PageText) []segment.PuzzleRecord {
	return segment.New(log).Segment(pages)
}

// FillBlankPages OCRs the rendered image of every page whose text is blank,
// so markers on image-only scans can be found. It returns the updated pages
// and how many were filled. Per-page failures are logged and skipped.
func FillBlankPages(ctx context.Context, log *slog.Logger, pages []segment.PageText, r PageRenderer, rec ocr.Recognizer) ([]segment.PageText, int, error) {
	out := make([]segment.PageText, len(pages))
	copy(out, pages)

	filled := 0
	for i, pg := range out {
		if strings.TrimSpace(pg.Text) != "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return out, filled, err
		}
		path, err := r.Render(ctx, pg.Index)
		if err != nil {
			log.Warn("render for ocr failed", "page", pg.Index+1, "error", err)
			continue
		}
		img, err := os.ReadFile(path)
		if err != nil {
			log.Warn("read rendered page failed", "page", pg.Index+1, "error", err)
			continue
		}
		text, err := rec.Recognize(img)
		if err != nil {
			log.Warn("ocr failed", "page", pg.Index+1, "error", err)
			continue
		}
		if text != "" {
			out[i].Text = text
			filled++
		}
	}
	log.Info("ocr fallback complete", "pages_filled", filled)
	return out, filled, nil
}

// SampleRecords returns every step-th record so that about n remain.
func SampleRecords(records []segment.PuzzleRecord, n int) []segment.PuzzleRecord {
	if n <= 0 || n >= len(records) {
		return records
	}
	step := len(records) / n
	out := make([]segment.PuzzleRecord, 0, n)
	for i := 0; i < len(records) && len(out) < n; i += step {
		out = append(out, records[i])
	}
	return out
}

// Summarize describes a run's outcome in one line.
func Summarize(records []segment.PuzzleRecord) string {
	failed := 0
	for _, r := range records {
		if r.Failed() {
			failed++
		}
	}
	return fmt.Sprintf("%d puzzles extracted, %d with errors", len(records), failed)
}
