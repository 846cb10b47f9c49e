package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/dgallion1/puzzlegest/internal/segment"
)

func TestRunText(t *testing.T) {
	records := RunText(quietLogger(), bookPages())
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[1].Solution.Explanation != "Duck a club." {
		t.Errorf("unexpected explanation %q", records[1].Solution.Explanation)
	}
	if Summarize(records) != "3 puzzles extracted, 0 with errors" {
		t.Errorf("unexpected summary %q", Summarize(records))
	}
}

func TestFillBlankPages(t *testing.T) {
	pages := []segment.PageText{
		{Index: 0, Text: "Contents"},
		{Index: 1, Text: "  \n"},
		{Index: 2, Text: ""},
	}
	r := &fakeRenderer{dir: t.TempDir(), fail: map[int]bool{2: true}}
	rec := &fakeOCR{text: "PROBLEM 1"}

	out, filled, err := FillBlankPages(context.Background(), quietLogger(), pages, r, rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filled != 1 {
		t.Errorf("expected 1 page filled, got %d", filled)
	}
	if out[1].Text != "PROBLEM 1" {
		t.Errorf("page 1: got %q", out[1].Text)
	}
	if out[2].Text != "" {
		t.Errorf("page 2 should stay blank after a render failure, got %q", out[2].Text)
	}
	if pages[1].Text != "  \n" {
		t.Error("input pages must not be modified")
	}
	if len(rec.seen) != 1 || rec.seen[0] != "image-1" {
		t.Errorf("unexpected OCR inputs %v", rec.seen)
	}
}

func TestFillBlankPages_OCRErrorSkipsPage(t *testing.T) {
	pages := []segment.PageText{{Index: 0, Text: ""}}
	r := &fakeRenderer{dir: t.TempDir()}
	out, filled, err := FillBlankPages(context.Background(), quietLogger(), pages, r, &fakeOCR{err: errors.New("tesseract missing")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filled != 0 || out[0].Text != "" {
		t.Errorf("expected page left blank, got %q (%d)", out[0].Text, filled)
	}
}

func TestFillBlankPages_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pages := []segment.PageText{{Index: 0, Text: ""}}
	_, _, err := FillBlankPages(ctx, quietLogger(), pages, &fakeRenderer{dir: t.TempDir()}, &fakeOCR{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSampleRecords(t *testing.T) {
	var records []segment.PuzzleRecord
	for i := 1; i <= 10; i++ {
		records = append(records, segment.PuzzleRecord{Number: i})
	}
	got := SampleRecords(records, 3)
	if len(got) != 3 || got[0].Number != 1 || got[1].Number != 4 || got[2].Number != 7 {
		t.Errorf("unexpected sample %+v", got)
	}
	if len(SampleRecords(records, 0)) != 10 || len(SampleRecords(records, 20)) != 10 {
		t.Error("non-positive or oversized samples should return everything")
	}
}
