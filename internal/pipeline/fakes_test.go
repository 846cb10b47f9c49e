package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dgallion1/puzzlegest/internal/config"
	"github.com/dgallion1/puzzlegest/internal/segment"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRenderer writes a stub image per page.
type fakeRenderer struct {
	dir      string
	mu       sync.Mutex
	rendered []int
	fail     map[int]bool
}

func (r *fakeRenderer) Render(ctx context.Context, pageIndex int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[pageIndex] {
		return "", fmt.Errorf("render failed")
	}
	r.rendered = append(r.rendered, pageIndex)
	path := filepath.Join(r.dir, fmt.Sprintf("page_%d.png", pageIndex+1))
	return path, os.WriteFile(path, []byte(fmt.Sprintf("image-%d", pageIndex)), 0o644)
}

// fakeVision answers prompts; responses are keyed by a prompt substring.
type fakeVision struct {
	mu        sync.Mutex
	calls     []string
	errs      []error // returned in order before any success
	responses map[string]string
}

func (f *fakeVision) Model() string { return "fake-model" }

func (f *fakeVision) ExtractJSON(ctx context.Context, img []byte, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, prompt)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return "", err
	}
	for key, resp := range f.responses {
		if strings.Contains(prompt, key) {
			return resp, nil
		}
	}
	return `{"seatCards":{"north":"♠ A","south":"♠ K","east":"♠ Q","west":"♠ J"},"explanation":"ok","keyTechniques":["finesse"]}`, nil
}

// memorySink records saves in memory.
type memorySink struct {
	mu     sync.Mutex
	saves  [][]segment.PuzzleRecord
	maxNum int
}

func (m *memorySink) SavePuzzles(ctx context.Context, docID string, records []segment.PuzzleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves = append(m.saves, append([]segment.PuzzleRecord(nil), records...))
	return nil
}

func (m *memorySink) MaxNumber(ctx context.Context, docID string, source segment.Source) (int, error) {
	return m.maxNum, nil
}

type fakeOCR struct {
	text string
	err  error
	seen []string
}

func (f *fakeOCR) Recognize(img []byte) (string, error) {
	f.seen = append(f.seen, string(img))
	return f.text, f.err
}

// bookPages has puzzles 1-3 on consecutive page pairs.
func bookPages() []segment.PageText {
	return []segment.PageText{
		{Index: 0, Text: "Introduction"},
		{Index: 1, Text: "PROBLEM 1\nNORTH\n♠ A K\n\nWest leads the ♥2.\nPlan the play."},
		{Index: 2, Text: "SOLUTION 1\nNORTH\n♠ A K\n\nDraw trumps."},
		{Index: 3, Text: "PROBLEM 2\nNORTH\n♠ Q J\n\nWest leads the ♣3.\nPlan the play."},
		{Index: 4, Text: "SOLUTION 2\nNORTH\n♠ Q J\n\nDuck a club."},
		{Index: 5, Text: "PROBLEM 3\nNORTH\n♠ 9 8\n\nWest leads the ♦4.\nPlan the play."},
		{Index: 6, Text: "SOLUTION 3\nNORTH\n♠ 9 8\n\nSqueeze West."},
	}
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.ImagesDir = t.TempDir()
	cfg.WorkerCount = 1
	cfg.MaxQueueSize = 4
	return cfg
}
