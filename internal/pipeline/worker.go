package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/puzzlegest/internal/extract"
	"github.com/dgallion1/puzzlegest/internal/ocr"
	"github.com/dgallion1/puzzlegest/internal/parser"
	"github.com/dgallion1/puzzlegest/internal/render"
	"github.com/dgallion1/puzzlegest/internal/segment"
	"github.com/dgallion1/puzzlegest/internal/store"
)

// WorkerConfig carries the settings a worker needs from config.Config.
type WorkerConfig struct {
	ImagesDir         string
	RenderDPI         int
	OCRBlankPages     bool
	FallbackPdftotext bool
	VisionDelay       time.Duration
	VisionBatchSize   int
}

// Worker processes a single document job.
type Worker struct {
	store  *store.Store
	vision extract.VisionClient // nil disables vision mode
	ocr    ocr.Recognizer       // nil disables the OCR fallback
	stats  *extract.LLMStats
	log    *slog.Logger
	cfg    WorkerConfig

	// newRenderer is swapped in tests.
	newRenderer func(pdfPath, imagesDir string) PageRenderer
}

func NewWorker(st *store.Store, vision extract.VisionClient, rec ocr.Recognizer, stats *extract.LLMStats, log *slog.Logger, cfg WorkerConfig) *Worker {
	w := &Worker{
		store:  st,
		vision: vision,
		ocr:    rec,
		stats:  stats,
		log:    log,
		cfg:    cfg,
	}
	w.newRenderer = func(pdfPath, imagesDir string) PageRenderer {
		return &render.Rasterizer{PDFPath: pdfPath, ImagesDir: imagesDir, DPI: cfg.RenderDPI, Log: log}
	}
	return w
}

// Process runs the full extraction pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "mode", string(job.Mode))
	defer job.releaseFileData()

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, parser.Options{FallbackPdftotext: w.cfg.FallbackPdftotext})
	if err != nil {
		w.fail(log, job, "parsing", "unsupported format", err)
		return
	}
	data := job.FileData()
	pages, err := p.Parse(bytes.NewReader(data), job.Filename)
	if err != nil {
		w.fail(log, job, "parsing", "parse", err)
		return
	}
	log.Info("parsed document", "pages", len(pages))

	if err := w.store.UpsertDocument(ctx, store.Document{
		ID:          job.DocID,
		Filename:    job.Filename,
		ContentHash: job.ContentHash,
		Pages:       len(pages),
		CreatedAt:   job.CreatedAt.UTC(),
	}); err != nil {
		w.fail(log, job, "parsing", "store document", err)
		return
	}

	// Rendering needs the PDF on disk.
	var renderer PageRenderer
	isPDF := strings.EqualFold(filepath.Ext(job.Filename), ".pdf")
	if isPDF && (job.Mode == ModeVision || (w.cfg.OCRBlankPages && w.ocr != nil)) {
		renderer, err = w.prepareRenderer(job, data)
		if err != nil {
			w.fail(log, job, "parsing", "prepare pdf", err)
			return
		}
	}

	// Phase 2: OCR blank pages
	ocrCount := 0
	if renderer != nil && w.cfg.OCRBlankPages && w.ocr != nil {
		job.SetStatus(StatusOCR, "ocr")
		pages, ocrCount, err = FillBlankPages(ctx, log, pages, renderer, w.ocr)
		if err != nil {
			w.fail(log, job, "ocr", "ocr", err)
			return
		}
	}
	job.SetPages(len(pages), ocrCount)

	// Phase 3: Segment
	job.SetStatus(StatusSegmenting, "segmenting")
	var records []segment.PuzzleRecord
	switch job.Mode {
	case ModeVision:
		if w.vision == nil {
			w.fail(log, job, "segmenting", "vision", fmt.Errorf("no vision provider configured"))
			return
		}
		if renderer == nil {
			w.fail(log, job, "segmenting", "vision", fmt.Errorf("vision mode requires a PDF"))
			return
		}
		job.SetPuzzlesFound(len(segment.ScanMarkers(pages).Matched()))

		// Phase 4: Extract with the vision model
		job.SetStatus(StatusExtracting, "extracting")
		runner := &VisionRunner{
			Client:    w.vision,
			Renderer:  renderer,
			Sink:      w.store,
			Stats:     w.stats,
			Log:       log,
			Delay:     w.cfg.VisionDelay,
			BatchSize: w.cfg.VisionBatchSize,
		}
		records, err = runner.Run(ctx, pages, VisionOptions{
			DocID: job.DocID,
			Progress: func(rec segment.PuzzleRecord, done, total int) {
				job.IncrPuzzlesProcessed(rec.Failed())
			},
		})
		if err != nil {
			job.AddError(fmt.Sprintf("vision: %s", err))
			log.Error("vision extraction stopped", "error", err, "done", len(records))
		}
	default:
		records = RunText(log, pages)
		job.SetPuzzlesFound(len(records))
		for _, r := range records {
			job.IncrPuzzlesProcessed(r.Failed())
		}
	}

	if len(records) == 0 {
		log.Warn("no puzzles found")
		job.AddError("no puzzles found")
		job.SetStatus(StatusFailed, "segmenting")
		return
	}

	// Phase 5: Store
	job.SetStatus(StatusStoring, "storing")
	if err := w.store.SavePuzzles(ctx, job.DocID, records); err != nil {
		w.fail(log, job, "storing", "store puzzles", err)
		return
	}
	job.AddStored(len(records))

	failed := 0
	for _, r := range records {
		if r.Failed() {
			failed++
			job.AddError(fmt.Sprintf("puzzle %d: %s", r.Number, firstNonEmpty(r.Problem.Error, r.Solution.Error)))
		}
	}
	log.Info("extraction complete", "puzzles", len(records), "failed", failed)

	snap := job.Snapshot()
	if failed > 0 || len(snap.Progress.Errors) > 0 {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
}

// prepareRenderer writes the PDF next to its page images.
func (w *Worker) prepareRenderer(job *Job, data []byte) (PageRenderer, error) {
	dir := filepath.Join(w.cfg.ImagesDir, job.DocID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create images dir: %w", err)
	}
	pdfPath := filepath.Join(dir, "source.pdf")
	if err := os.WriteFile(pdfPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return w.newRenderer(pdfPath, dir), nil
}

func (w *Worker) fail(log *slog.Logger, job *Job, phase, what string, err error) {
	log.Error(what+" failed", "error", err)
	job.AddError(fmt.Sprintf("%s: %s", what, err))
	job.SetStatus(StatusFailed, phase)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
