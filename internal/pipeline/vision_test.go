package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/puzzlegest/internal/extract"
	"github.com/dgallion1/puzzlegest/internal/segment"
)

const problemReply = "```json\n" + `{"gameType":"Duplicate","vulnerability":"Both sides vulnerable","seatCards":{"north":"♠ A K","south":"♠ Q J","east":"","west":""},"openingLead":"West leads the ♥2.","task":"Plan the play."}` + "\n```"

func newRunner(t *testing.T, client *fakeVision, sink *memorySink) (*VisionRunner, *fakeRenderer) {
	t.Helper()
	r := &fakeRenderer{dir: t.TempDir()}
	v := &VisionRunner{
		Client:     client,
		Renderer:   r,
		Log:        quietLogger(),
		RetryDelay: time.Millisecond,
		BatchSize:  2,
		Stats:      extract.NewLLMStats(time.Hour),
	}
	if sink != nil {
		v.Sink = sink
	}
	return v, r
}

func TestVisionRunner_Run(t *testing.T) {
	client := &fakeVision{responses: map[string]string{"declarer-play puzzles": problemReply}}
	sink := &memorySink{}
	v, r := newRunner(t, client, sink)

	var progress []int
	records, err := v.Run(context.Background(), bookPages(), VisionOptions{
		DocID:    "doc",
		Progress: func(rec segment.PuzzleRecord, done, total int) { progress = append(progress, done) },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if len(client.calls) != 6 {
		t.Errorf("expected 6 model calls, got %d", len(client.calls))
	}
	rec := records[0]
	if rec.Source != segment.SourceVision || rec.Number != 1 {
		t.Errorf("unexpected record header %+v", rec)
	}
	if rec.Problem.GameType != "Duplicate" || rec.Problem.PageIndex != 1 {
		t.Errorf("unexpected problem %+v", rec.Problem)
	}
	if !strings.HasSuffix(rec.Problem.ImagePath, "page_2.png") || !strings.HasSuffix(rec.Solution.ImagePath, "page_3.png") {
		t.Errorf("unexpected image paths %q %q", rec.Problem.ImagePath, rec.Solution.ImagePath)
	}
	if rec.Solution.SeatCards[segment.West] != "♠ J" || len(rec.Solution.KeyTechniques) != 1 {
		t.Errorf("unexpected solution %+v", rec.Solution)
	}
	if len(r.rendered) != 6 {
		t.Errorf("expected 6 renders, got %d", len(r.rendered))
	}

	// Batch size 2: one save after two puzzles, one final save.
	if len(sink.saves) != 2 || len(sink.saves[0]) != 2 || len(sink.saves[1]) != 1 {
		t.Errorf("unexpected save batches: %d", len(sink.saves))
	}
	if len(progress) != 3 || progress[2] != 3 {
		t.Errorf("unexpected progress %v", progress)
	}
	if got := v.Stats.Report().ByLabel["problem"].Count; got != 3 {
		t.Errorf("expected 3 problem samples, got %d", got)
	}
}

func TestVisionRunner_Range(t *testing.T) {
	client := &fakeVision{}
	v, _ := newRunner(t, client, nil)
	records, err := v.Run(context.Background(), bookPages(), VisionOptions{Start: 2, End: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].Number != 2 {
		t.Fatalf("expected only puzzle 2, got %+v", records)
	}
}

func TestVisionRunner_Resume(t *testing.T) {
	client := &fakeVision{}
	sink := &memorySink{maxNum: 2}
	v, _ := newRunner(t, client, sink)
	records, err := v.Run(context.Background(), bookPages(), VisionOptions{DocID: "doc", Resume: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].Number != 3 {
		t.Fatalf("expected to resume at puzzle 3, got %+v", records)
	}
}

func TestVisionRunner_RetriesTransientErrors(t *testing.T) {
	client := &fakeVision{errs: []error{
		&extract.RetryableError{StatusCode: 429, Message: "slow down"},
		&extract.RetryableError{StatusCode: 529, Message: "overloaded"},
	}}
	v, _ := newRunner(t, client, nil)
	records, err := v.Run(context.Background(), bookPages(), VisionOptions{Start: 1, End: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records[0].Problem.Error != "" {
		t.Errorf("expected problem to succeed after retries, got %q", records[0].Problem.Error)
	}
	if len(client.calls) != 4 {
		t.Errorf("expected 3 problem attempts and 1 solution call, got %d", len(client.calls))
	}
}

func TestVisionRunner_PermanentErrorBecomesStub(t *testing.T) {
	client := &fakeVision{errs: []error{errFake("bad request")}}
	v, _ := newRunner(t, client, nil)
	records, err := v.Run(context.Background(), bookPages(), VisionOptions{Start: 1, End: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := records[0].Problem
	if p.Error != "bad request" || p.PageIndex != 1 || p.ImagePath == "" {
		t.Errorf("expected error stub with page and image, got %+v", p)
	}
	for _, seat := range segment.Seats {
		if v, ok := p.SeatCards[seat]; !ok || v != "" {
			t.Errorf("stub seat %s: expected empty entry, got %q (present %v)", seat, v, ok)
		}
	}
	if len(client.calls) != 2 {
		t.Errorf("permanent errors should not be retried, got %d calls", len(client.calls))
	}
	if records[0].Solution.Error != "" {
		t.Errorf("solution should still be extracted: %q", records[0].Solution.Error)
	}
}

func TestVisionRunner_UnparseableReply(t *testing.T) {
	client := &fakeVision{responses: map[string]string{"declarer-play puzzles": "I cannot read this."}}
	v, _ := newRunner(t, client, nil)
	records, _ := v.Run(context.Background(), bookPages(), VisionOptions{Start: 1, End: 1})
	p := records[0].Problem
	if p.Error != "Failed to parse JSON" || p.RawText != "I cannot read this." {
		t.Errorf("expected parse failure stub, got %+v", p)
	}
}

func TestVisionRunner_Cancelled(t *testing.T) {
	client := &fakeVision{}
	sink := &memorySink{}
	v, _ := newRunner(t, client, sink)
	v.Delay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var records []segment.PuzzleRecord
	var err error
	go func() {
		records, err = v.Run(ctx, bookPages(), VisionOptions{DocID: "doc"})
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop on cancel")
	}
	if err == nil {
		t.Fatal("expected context error")
	}
	if len(records) != 0 {
		t.Errorf("expected no finished records, got %d", len(records))
	}
}

type errFake string

func (e errFake) Error() string { return string(e) }
