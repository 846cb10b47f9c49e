package analyze

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dgallion1/puzzlegest/internal/segment"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// SummaryMarkdown describes one puzzle: header fields, the two declarer
// hands, the task and the start of the explanation.
func SummaryMarkdown(r segment.PuzzleRecord) string {
	p, s := r.Problem, r.Solution
	var b strings.Builder
	fmt.Fprintf(&b, "# Problem %d\n\n", r.Number)
	b.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Game Type | %s |\n", cell(orUnknown(p.GameType)))
	fmt.Fprintf(&b, "| Vulnerability | %s |\n", cell(orUnknown(p.Vulnerability)))
	fmt.Fprintf(&b, "| Lead | %s |\n", cell(orUnknown(p.OpeningLead)))
	fmt.Fprintf(&b, "| Source | %s |\n\n", r.Source)

	fmt.Fprintf(&b, "## North\n\n%s\n\n", orDash(p.SeatCards[segment.North]))
	fmt.Fprintf(&b, "## South\n\n%s\n\n", orDash(p.SeatCards[segment.South]))
	fmt.Fprintf(&b, "## Task\n\n%s\n\n", orDash(p.Task))
	fmt.Fprintf(&b, "## Solution\n\n%s\n", orDash(clip(s.Explanation, summaryLength)))
	if len(s.KeyTechniques) > 0 {
		b.WriteString("\n## Techniques\n\n")
		for _, t := range s.KeyTechniques {
			fmt.Fprintf(&b, "- %s\n", t)
		}
	}
	if r.Failed() {
		fmt.Fprintf(&b, "\n> Extraction error: %s\n", firstNonEmpty(p.Error, s.Error))
	}
	return b.String()
}

// RenderSummaryHTML renders SummaryMarkdown as an HTML fragment.
func RenderSummaryHTML(r segment.PuzzleRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(SummaryMarkdown(r)), &buf); err != nil {
		return nil, fmt.Errorf("render summary: %w", err)
	}
	return buf.Bytes(), nil
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
