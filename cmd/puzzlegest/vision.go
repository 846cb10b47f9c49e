package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/puzzlegest/internal/export"
	"github.com/dgallion1/puzzlegest/internal/extract"
	"github.com/dgallion1/puzzlegest/internal/pipeline"
	"github.com/dgallion1/puzzlegest/internal/render"
	"github.com/dgallion1/puzzlegest/internal/segment"
	"github.com/dgallion1/puzzlegest/internal/store"
)

var (
	visionStart     int
	visionEnd       int
	visionResume    bool
	visionProvider  string
	visionModel     string
	visionDelay     time.Duration
	visionBatchSize int
	visionImagesDir string
	visionOut       string
)

var visionCmd = &cobra.Command{
	Use:   "vision <pdf>",
	Short: "Extract puzzles by sending page images to a vision model",
	Long: `Render each problem and solution page and ask a vision model for the
puzzle fields. Records are saved to the store in batches, so an interrupted
run can continue with --resume.

The provider key comes from ANTHROPIC_API_KEY or OPENAI_API_KEY.

Examples:
  puzzlegest vision book.pdf --start 1 --end 10
  puzzlegest vision book.pdf --resume
  puzzlegest vision book.pdf --provider openai --model gpt-4o --delay 2s`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := newLogger()
		path := args[0]
		if !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return fmt.Errorf("vision extraction needs a PDF, got %s", path)
		}

		l, err := newLoader()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("provider") {
			l.Set("vision_provider", visionProvider)
		}
		if cmd.Flags().Changed("delay") {
			l.Set("vision_delay", visionDelay)
		}
		if cmd.Flags().Changed("batch-size") {
			l.Set("vision_batch_size", visionBatchSize)
		}
		if cmd.Flags().Changed("images-dir") {
			l.Set("images_dir", visionImagesDir)
		}
		cfg, err := l.Config()
		if err != nil {
			return err
		}
		if visionModel != "" {
			cfg.AnthropicModel = visionModel
			cfg.OpenAIModel = visionModel
		}
		if err := cfg.ValidateVision(); err != nil {
			return err
		}

		client, err := extract.NewVisionClient(visionConfig(cfg))
		if err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		hash := pipeline.ContentHashHex(data)
		docID := pipeline.DocIDFromHash(hash)

		pages, err := parseFile(path, cfg.PDFFallbackPdftotext)
		if err != nil {
			return err
		}

		st, err := store.Open(ctx, cfg.DBPath)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.UpsertDocument(ctx, store.Document{
			ID:          docID,
			Filename:    filepath.Base(path),
			ContentHash: hash,
			Pages:       len(pages),
		}); err != nil {
			return err
		}

		stats := extract.NewLLMStats(24 * time.Hour)
		runner := &pipeline.VisionRunner{
			Client: client,
			Renderer: &render.Rasterizer{
				PDFPath:   path,
				ImagesDir: filepath.Join(cfg.ImagesDir, docID),
				DPI:       cfg.RenderDPI,
				Log:       log,
			},
			Sink:      st,
			Stats:     stats,
			Log:       log,
			Delay:     cfg.VisionDelay,
			BatchSize: cfg.VisionBatchSize,
		}
		records, runErr := runner.Run(ctx, pages, pipeline.VisionOptions{
			DocID:  docID,
			Start:  visionStart,
			End:    visionEnd,
			Resume: visionResume,
			Progress: func(rec segment.PuzzleRecord, done, total int) {
				log.Info("puzzle extracted", "number", rec.Number, "done", done, "total", total, "failed", rec.Failed())
			},
		})
		if runErr != nil && !errors.Is(runErr, ctx.Err()) {
			return runErr
		}

		// The output covers every vision record of the document, including
		// earlier runs. It is written even after an interrupt.
		all, err := st.ListPuzzles(context.WithoutCancel(ctx), docID, segment.SourceVision)
		if err != nil {
			return err
		}
		if err := export.WriteFile(visionOut, all); err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, pipeline.Summarize(records))
		fmt.Fprintf(w, "Document %s: %d vision records saved to %s and %s\n", docID, len(all), cfg.DBPath, visionOut)
		if snap := stats.Snapshot(); snap.Count > 0 {
			fmt.Fprintf(w, "Model calls: %d, p50 %.0fms, p95 %.0fms\n", snap.Count, snap.P50Ms, snap.P95Ms)
		}
		return runErr
	},
}

func init() {
	visionCmd.Flags().IntVar(&visionStart, "start", 0, "first puzzle number")
	visionCmd.Flags().IntVar(&visionEnd, "end", 0, "last puzzle number")
	visionCmd.Flags().BoolVar(&visionResume, "resume", false, "continue after the highest stored puzzle")
	visionCmd.Flags().StringVar(&visionProvider, "provider", "", "vision provider: anthropic or openai")
	visionCmd.Flags().StringVar(&visionModel, "model", "", "model name for the provider")
	visionCmd.Flags().DurationVar(&visionDelay, "delay", 5*time.Second, "pause between model calls")
	visionCmd.Flags().IntVar(&visionBatchSize, "batch-size", 5, "puzzles per intermediate save")
	visionCmd.Flags().StringVar(&visionImagesDir, "images-dir", "", "where rendered pages are kept")
	visionCmd.Flags().StringVar(&visionOut, "out", "bridge_puzzles_vision.json", "output file (.json or .yaml)")
	rootCmd.AddCommand(visionCmd)
}
