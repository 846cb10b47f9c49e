package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/puzzlegest/internal/config"
	"github.com/dgallion1/puzzlegest/internal/extract"
	"github.com/dgallion1/puzzlegest/internal/ocr"
	"github.com/dgallion1/puzzlegest/internal/store"
)

// Orchestrator manages the extraction pipeline.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	worker *Worker
	store  *store.Store
	stats  *extract.LLMStats
	log    *slog.Logger
	cfg    config.Config

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewOrchestrator wires a worker from cfg. vision and rec may be nil.
func NewOrchestrator(cfg config.Config, st *store.Store, vision extract.VisionClient, rec ocr.Recognizer, stats *extract.LLMStats, log *slog.Logger) *Orchestrator {
	w := NewWorker(st, vision, rec, stats, log, WorkerConfig{
		ImagesDir:         cfg.ImagesDir,
		RenderDPI:         cfg.RenderDPI,
		OCRBlankPages:     cfg.OCRBlankPages,
		FallbackPdftotext: cfg.PDFFallbackPdftotext,
		VisionDelay:       cfg.VisionDelay,
		VisionBatchSize:   cfg.VisionBatchSize,
	})
	return &Orchestrator{
		jobs:   NewJobStore(cfg.JobTTL),
		queue:  make(chan *Job, cfg.MaxQueueSize),
		worker: w,
		store:  st,
		stats:  stats,
		log:    log,
		cfg:    cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					o.worker.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		if o.cancel != nil {
			o.cancel()
		}
		close(o.queue)
		o.wg.Wait()
	})
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.AddError("queue full")
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Store returns the puzzle store for direct use by API handlers.
func (o *Orchestrator) Store() *store.Store {
	return o.store
}

// Stats returns the LLM latency tracker.
func (o *Orchestrator) Stats() *extract.LLMStats {
	return o.stats
}

// VisionModel names the configured vision model, or "" when vision is off.
func (o *Orchestrator) VisionModel() string {
	if o.worker.vision == nil {
		return ""
	}
	return o.worker.vision.Model()
}
