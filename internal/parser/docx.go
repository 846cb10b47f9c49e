package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/puzzlegest/internal/segment"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. A heading-styled paragraph starts a new
// page; paragraphs before the first heading form their own page.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) ([]segment.PageText, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "puzzlegest-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var paras []docxPara
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		paras = append(paras, docxPara{heading: docxHeadingLevel(para) > 0, text: docxParagraphText(para)})
	}
	return numbered(groupParagraphs(paras)), nil
}

type docxPara struct {
	heading bool
	text    string
}

// groupParagraphs cuts the paragraph stream into pages at each heading.
func groupParagraphs(paras []docxPara) []string {
	var texts []string
	var current []string
	started := false

	flush := func() {
		if started || len(current) > 0 {
			texts = append(texts, strings.Join(current, "\n"))
		}
		current = nil
	}

	for _, p := range paras {
		if p.heading {
			flush()
			started = true
		}
		if p.text != "" {
			current = append(current, p.text)
		}
	}
	flush()
	return texts
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if !strings.HasPrefix(style, "heading") {
		return 0
	}
	switch strings.TrimPrefix(style, "heading") {
	case "1":
		return 1
	case "2":
		return 2
	case "3":
		return 3
	case "4":
		return 4
	case "5":
		return 5
	case "6":
		return 6
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
