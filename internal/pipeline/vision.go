package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgallion1/puzzlegest/internal/extract"
	"github.com/dgallion1/puzzlegest/internal/segment"
)

// PuzzleSink persists records as a vision run progresses.
type PuzzleSink interface {
	SavePuzzles(ctx context.Context, docID string, records []segment.PuzzleRecord) error
	MaxNumber(ctx context.Context, docID string, source segment.Source) (int, error)
}

// VisionRunner extracts puzzles by sending rendered page images to a vision
// model, one problem and one solution call per puzzle.
type VisionRunner struct {
	Client   extract.VisionClient
	Renderer PageRenderer
	Sink     PuzzleSink       // optional
	Stats    *extract.LLMStats // optional
	Log      *slog.Logger

	// Delay is the pause between model calls.
	Delay time.Duration
	// BatchSize is how many records accumulate before an intermediate save.
	BatchSize int
	// RetryDelay is the first backoff step; zero means one second.
	RetryDelay time.Duration
}

// VisionOptions bounds a run. Zero Start or End leaves that side open.
type VisionOptions struct {
	DocID  string
	Start  int
	End    int
	Resume bool

	// Progress is called after each puzzle with the count done and the total.
	Progress func(rec segment.PuzzleRecord, done, total int)
}

// Run processes every matched puzzle number in range. On cancellation it
// returns what was finished along with the context error; finished records
// have already been handed to the sink.
func (v *VisionRunner) Run(ctx context.Context, pages []segment.PageText, opts VisionOptions) ([]segment.PuzzleRecord, error) {
	log := v.logger()
	idx := segment.ScanMarkers(pages)

	start := opts.Start
	if opts.Resume && v.Sink != nil {
		last, err := v.Sink.MaxNumber(ctx, opts.DocID, segment.SourceVision)
		if err != nil {
			return nil, fmt.Errorf("resume: %w", err)
		}
		if last >= start {
			start = last + 1
		}
		log.Info("resuming vision extraction", "after", last)
	}

	var numbers []int
	for _, n := range idx.Matched() {
		if n < start || (opts.End > 0 && n > opts.End) {
			continue
		}
		numbers = append(numbers, n)
	}
	log.Info("vision extraction starting", "puzzles", len(numbers), "model", v.Client.Model())

	var records, pending []segment.PuzzleRecord
	flush := func() error {
		if v.Sink == nil || len(pending) == 0 {
			pending = nil
			return nil
		}
		// Saves must outlive a cancelled run.
		if err := v.Sink.SavePuzzles(context.WithoutCancel(ctx), opts.DocID, pending); err != nil {
			return fmt.Errorf("save intermediate results: %w", err)
		}
		log.Info("saved intermediate results", "count", len(pending))
		pending = nil
		return nil
	}

	batch := v.BatchSize
	if batch <= 0 {
		batch = 5
	}

	for i, n := range numbers {
		if err := ctx.Err(); err != nil {
			return records, joinErr(err, flush())
		}

		rec := segment.PuzzleRecord{Number: n, Source: segment.SourceVision}
		rec.Problem = v.problem(ctx, n, idx.ProblemPages[n])
		if err := v.pause(ctx); err != nil {
			return records, joinErr(err, flush())
		}
		rec.Solution = v.solution(ctx, n, idx.SolutionPages[n])

		records = append(records, rec)
		pending = append(pending, rec)
		if rec.Failed() {
			log.Warn("puzzle extracted with errors", "number", n,
				"problem_error", rec.Problem.Error, "solution_error", rec.Solution.Error)
		}
		if opts.Progress != nil {
			opts.Progress(rec, i+1, len(numbers))
		}
		if len(pending) >= batch {
			if err := flush(); err != nil {
				return records, err
			}
		}
		if i < len(numbers)-1 {
			if err := v.pause(ctx); err != nil {
				return records, joinErr(err, flush())
			}
		}
	}
	return records, flush()
}

func (v *VisionRunner) problem(ctx context.Context, n, page int) segment.Problem {
	raw, path, err := v.ask(ctx, segment.KindProblem, n, page, extract.ProblemPrompt(n))
	if err != nil {
		return segment.Problem{
			SeatCards: segment.EmptySeats(),
			PageIndex: page,
			ImagePath: path,
			Error:     err.Error(),
		}
	}
	p, issues := extract.ProblemFromResponse(raw)
	v.logIssues(n, segment.KindProblem, issues)
	p.PageIndex = page
	p.ImagePath = path
	return p
}

func (v *VisionRunner) solution(ctx context.Context, n, page int) segment.Solution {
	raw, path, err := v.ask(ctx, segment.KindSolution, n, page, extract.SolutionPrompt(n))
	if err != nil {
		return segment.Solution{
			SeatCards: segment.EmptySeats(),
			PageIndex: page,
			ImagePath: path,
			Error:     err.Error(),
		}
	}
	s, issues := extract.SolutionFromResponse(raw)
	v.logIssues(n, segment.KindSolution, issues)
	s.PageIndex = page
	s.ImagePath = path
	return s
}

// ask renders the page and calls the model with retries.
func (v *VisionRunner) ask(ctx context.Context, kind segment.Kind, n, page int, prompt string) (string, string, error) {
	path, err := v.Renderer.Render(ctx, page)
	if err != nil {
		return "", "", fmt.Errorf("render page %d: %w", page+1, err)
	}
	img, err := os.ReadFile(path)
	if err != nil {
		return "", path, fmt.Errorf("read image: %w", err)
	}

	log := v.logger().With("number", n, "kind", string(kind), "page", page+1)
	var raw string
	err = withRetry(ctx, log, v.RetryDelay, func() error {
		started := time.Now()
		out, err := v.Client.ExtractJSON(ctx, img, prompt)
		if v.Stats != nil {
			v.Stats.Record(string(kind), time.Since(started).Milliseconds())
		}
		raw = out
		return err
	})
	if err != nil {
		return "", path, err
	}
	return raw, path, nil
}

func (v *VisionRunner) logIssues(n int, kind segment.Kind, issues []string) {
	for _, issue := range issues {
		v.logger().Warn("vision response failed validation", "number", n, "kind", string(kind), "issue", issue)
	}
}

func (v *VisionRunner) pause(ctx context.Context) error {
	if v.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(v.Delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (v *VisionRunner) logger() *slog.Logger {
	if v.Log == nil {
		return slog.Default()
	}
	return v.Log
}

func joinErr(primary, secondary error) error {
	if secondary == nil {
		return primary
	}
	return fmt.Errorf("%w (also: %v)", primary, secondary)
}
