package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/puzzlegest/internal/segment"
)

// CSVParser handles page dumps with a header naming "page" (1-based) and
// "text" columns. Each row is one page.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) ([]segment.PageText, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	pageCol, textCol := -1, -1
	for i, h := range records[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "page":
			pageCol = i
		case "text":
			textCol = i
		}
	}
	if pageCol < 0 || textCol < 0 {
		return nil, fmt.Errorf("parse csv: header must name page and text columns")
	}

	pages := make([]segment.PageText, 0, len(records)-1)
	for line, row := range records[1:] {
		if pageCol >= len(row) || textCol >= len(row) {
			return nil, fmt.Errorf("parse csv: row %d: missing columns", line+2)
		}
		n, err := strconv.Atoi(strings.TrimSpace(row[pageCol]))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("parse csv: row %d: invalid page %q", line+2, row[pageCol])
		}
		pages = append(pages, segment.PageText{Index: n - 1, Text: row[textCol]})
	}
	return pages, nil
}
