package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/puzzlegest/internal/segment"
)

const sheetName = "Puzzles"

var xlsxHeaders = []string{
	"Number",
	"Source",
	"Game Type",
	"Vulnerability",
	"North",
	"South",
	"East",
	"West",
	"Bidding",
	"Opening Lead",
	"Task",
	"Explanation",
	"Solution North",
	"Solution South",
	"Solution East",
	"Solution West",
}

// XLSX builds a workbook with one row per puzzle.
func XLSX(records []segment.PuzzleRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	for i, h := range xlsxHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	for i, r := range records {
		row := i + 2
		p, s := r.Problem, r.Solution
		values := []any{
			r.Number,
			string(r.Source),
			p.GameType,
			p.Vulnerability,
			p.SeatCards[segment.North],
			p.SeatCards[segment.South],
			p.SeatCards[segment.East],
			p.SeatCards[segment.West],
			p.Bidding,
			p.OpeningLead,
			p.Task,
			s.Explanation,
			s.SeatCards[segment.North],
			s.SeatCards[segment.South],
			s.SeatCards[segment.East],
			s.SeatCards[segment.West],
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "B", 10)
	_ = f.SetColWidth(sheetName, "C", "D", 24)
	_ = f.SetColWidth(sheetName, "E", "K", 28)
	_ = f.SetColWidth(sheetName, "L", "L", 80)
	_ = f.SetColWidth(sheetName, "M", "P", 28)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
