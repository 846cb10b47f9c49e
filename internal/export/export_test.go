package export

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/puzzlegest/internal/segment"
)

func records() []segment.PuzzleRecord {
	return []segment.PuzzleRecord{
		{
			Number: 12,
			Source: segment.SourceText,
			Problem: segment.Problem{
				GameType:      "Duplicate",
				Vulnerability: "Both sides vulnerable",
				SeatCards:     map[segment.Seat]string{segment.North: "♠ A K <5>", segment.South: "♠ Q J"},
				OpeningLead:   "West leads the ♥2.",
				Task:          "Plan the play.",
			},
			Solution: segment.Solution{
				SeatCards:   map[segment.Seat]string{segment.West: "♠ 7 6"},
				Explanation: "Draw trumps & finesse.",
			},
		},
	}
}

func TestWriteJSON_NoHTMLEscaping(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, records()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"♠ A K <5>"`, `"Draw trumps & finesse."`, "\n  {\n    \"number\": 12,"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := WriteJSON(&buf, nil); err != nil || strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("nil records should encode as [], got %q", buf.String())
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteYAML(&buf, records()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"- number: 12", "openingLead: West leads the ♥2.", "gameType: Duplicate"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestWriteFile_ReadFile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"out/puzzles.json", "puzzles.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := WriteFile(path, records()); err != nil {
				t.Fatalf("write: %v", err)
			}
			got, err := ReadFile(path)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if len(got) != 1 || got[0].Problem.SeatCards[segment.North] != "♠ A K <5>" {
				t.Errorf("unexpected records %+v", got)
			}
		})
	}
}

func TestXLSX(t *testing.T) {
	data, err := XLSX(records())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	cells := map[string]string{
		"A1": "Number",
		"P1": "Solution West",
		"A2": "12",
		"C2": "Duplicate",
		"E2": "♠ A K <5>",
		"L2": "Draw trumps & finesse.",
		"P2": "♠ 7 6",
	}
	for cell, want := range cells {
		got, err := f.GetCellValue(sheetName, cell)
		if err != nil {
			t.Fatalf("%s: %v", cell, err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", cell, got, want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"YAML", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"xlsx", FormatXLSX, false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
	if FormatForPath("a/b.yaml") != FormatYAML || FormatForPath("a/b.txt") != FormatJSON {
		t.Error("unexpected FormatForPath result")
	}
}
