package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/puzzlegest/internal/api"
	"github.com/dgallion1/puzzlegest/internal/config"
	"github.com/dgallion1/puzzlegest/internal/extract"
	"github.com/dgallion1/puzzlegest/internal/ocr"
	"github.com/dgallion1/puzzlegest/internal/pipeline"
	"github.com/dgallion1/puzzlegest/internal/store"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the puzzlegest HTTP API",
	Long: `Start the HTTP API server.

Uploads are queued and processed by a worker pool; results land in the
SQLite store. Editing the config file rotates PUZZLEGEST_API_KEY without a
restart. Ctrl+C or SIGTERM drains the workers and shuts down.

Examples:
  puzzlegest serve
  puzzlegest serve --port 9000 --db /var/lib/puzzlegest/puzzles.db`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel()}))

		loader, err := newLoader()
		if err != nil {
			return err
		}
		if servePort != "" {
			loader.Set("port", servePort)
		}
		cfg, err := loader.Config()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			log.Error("invalid configuration", "error", err)
			return err
		}

		st, err := store.Open(ctx, cfg.DBPath)
		if err != nil {
			return err
		}
		defer st.Close()

		// Vision and OCR are optional; jobs that need them fail without them.
		var vision extract.VisionClient
		if err := cfg.ValidateVision(); err != nil {
			log.Warn("vision mode disabled", "reason", err)
		} else {
			vision, err = extract.NewVisionClient(visionConfig(cfg))
			if err != nil {
				return err
			}
		}
		var rec ocr.Recognizer
		if cfg.OCRBlankPages {
			c, err := ocr.New(cfg.OCRLanguage)
			if err != nil {
				log.Warn("ocr fallback disabled", "error", err)
			} else {
				defer c.Close()
				rec = c
			}
		}

		stats := extract.NewLLMStats(time.Hour)
		orch := pipeline.NewOrchestrator(cfg, st, vision, rec, stats, log)
		orch.Start(ctx)

		srv := api.NewServer(orch, log, cfg)
		loader.OnChange(func(c config.Config) {
			if c.APIKey == "" {
				log.Warn("ignoring config change with empty api key")
				return
			}
			srv.SetAPIKey(c.APIKey)
			log.Info("config reloaded; api key updated")
		})
		loader.Watch()

		httpServer := &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      srv,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Graceful shutdown.
		go func() {
			<-ctx.Done()
			log.Info("shutting down...")

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			httpServer.Shutdown(shutdownCtx)
		}()

		log.Info("starting puzzlegest", "port", cfg.Port, "db", cfg.DBPath, "vision_model", orch.VisionModel())
		err = httpServer.ListenAndServe()
		orch.Stop()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func visionConfig(cfg config.Config) extract.ProviderConfig {
	return extract.ProviderConfig{
		Provider:       cfg.VisionProvider,
		AnthropicKey:   cfg.AnthropicAPIKey,
		AnthropicModel: cfg.AnthropicModel,
		OpenAIKey:      cfg.OpenAIAPIKey,
		OpenAIModel:    cfg.OpenAIModel,
	}
}
