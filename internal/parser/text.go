package parser

import (
	"io"

	"github.com/dgallion1/puzzlegest/internal/segment"
)

// TextParser handles plain text files. Form feeds separate pages, which is
// what pdftotext writes.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) ([]segment.PageText, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(src) == 0 {
		return nil, nil
	}
	return numbered(splitPages(string(src))), nil
}
