package parser

import (
	"strings"
	"testing"
)

func TestTextParser_FormFeedPages(t *testing.T) {
	input := "Foreword\fPROBLEM 1\nNORTH\n♠ A K\f\fSOLUTION 1\nCash out."
	p := &TextParser{}
	pages, err := p.Parse(strings.NewReader(input), "book.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 4 {
		t.Fatalf("expected 4 pages, got %d", len(pages))
	}
	for i, pg := range pages {
		if pg.Index != i {
			t.Errorf("page %d: expected index %d, got %d", i, i, pg.Index)
		}
	}
	if pages[1].Text != "PROBLEM 1\nNORTH\n♠ A K" {
		t.Errorf("page 1: got %q", pages[1].Text)
	}
	if pages[2].Text != "" {
		t.Errorf("blank page should be kept empty, got %q", pages[2].Text)
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	pages, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 0 {
		t.Errorf("expected 0 pages for empty input, got %d", len(pages))
	}
}

func TestTextParser_SinglePage(t *testing.T) {
	p := &TextParser{}
	pages, err := p.Parse(strings.NewReader("Hello world"), "single.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 1 || pages[0].Text != "Hello world" {
		t.Fatalf("expected one page, got %+v", pages)
	}
}

func TestSplitPages_TrailingFormFeed(t *testing.T) {
	got := splitPages("one\ftwo\f")
	if len(got) != 2 {
		t.Fatalf("expected 2 pages, got %d: %q", len(got), got)
	}
}

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		want     string
		wantErr  bool
	}{
		{"book.pdf", "*parser.PDFParser", false},
		{"BOOK.TXT", "*parser.TextParser", false},
		{"notes.markdown", "*parser.MarkdownParser", false},
		{"dump.html", "*parser.HTMLParser", false},
		{"pages.csv", "*parser.CSVParser", false},
		{"book.docx", "*parser.DOCXParser", false},
		{"image.png", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.filename, func(t *testing.T) {
			p, err := ForFile(tc.filename, Options{})
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if IsSupportedExtension(tc.filename) {
					t.Error("extension should be unsupported")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := typeName(p); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
			if !IsSupportedExtension(tc.filename) {
				t.Error("extension should be supported")
			}
		})
	}
}

func TestForFile_PassesFallbackOption(t *testing.T) {
	p, err := ForFile("book.pdf", Options{FallbackPdftotext: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.(*PDFParser).FallbackPdftotext {
		t.Error("expected fallback to be enabled")
	}
}
