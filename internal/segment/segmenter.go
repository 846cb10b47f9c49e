// Package segment turns ordered page text into paired puzzle records. It
// locates numbered PROBLEM and SOLUTION markers, bounds each marker's text and
// parses the card layouts, bidding, lead and explanation out of it.
package segment

import (
	"log/slog"
)

// Segmenter assembles puzzle records from page text.
type Segmenter struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Segmenter {
	if log == nil {
		log = slog.Default()
	}
	return &Segmenter{log: log}
}

// Segment scans the pages for markers and assembles every matched puzzle.
func (s *Segmenter) Segment(pages []PageText) []PuzzleRecord {
	return s.Assemble(ScanMarkers(pages), Pages(pages))
}

// Assemble builds one record per number present in both marker maps, in
// ascending order. A side whose marker cannot be located degrades to an
// error stub; the remaining numbers are still processed.
func (s *Segmenter) Assemble(idx MarkerIndex, pages PageLookup) []PuzzleRecord {
	for _, n := range idx.Unmatched() {
		_, hasProblem := idx.ProblemPages[n]
		s.log.Info("skipping unpaired puzzle number", "number", n, "has_problem", hasProblem)
	}

	matched := idx.Matched()
	records := make([]PuzzleRecord, 0, len(matched))
	for _, n := range matched {
		rec := BuildRecord(n, idx.ProblemPages[n], idx.SolutionPages[n], pages)
		if rec.Failed() {
			s.log.Warn("puzzle extracted with errors",
				"number", n,
				"problem_error", rec.Problem.Error,
				"solution_error", rec.Solution.Error,
			)
		}
		records = append(records, rec)
	}
	return records
}

// BuildRecord derives a single record from its problem and solution pages.
func BuildRecord(number, problemPage, solutionPage int, pages PageLookup) PuzzleRecord {
	rec := PuzzleRecord{Number: number, Source: SourceText}
	rec.Problem = buildProblem(number, problemPage, pages)
	rec.Solution = buildSolution(number, solutionPage, pages)
	normalizeRecord(&rec)
	return rec
}

func buildProblem(number, page int, pages PageLookup) Problem {
	text, _ := pages.Text(page)
	span, err := ExtractSpan(text, KindProblem, number, page)
	if err != nil {
		return Problem{Error: err.Error(), PageIndex: page}
	}
	p := ParseProblem(span)
	p.PageIndex = page
	return p
}

func buildSolution(number, page int, pages PageLookup) Solution {
	text, _ := pages.Text(page)
	span, err := ExtractSpan(text, KindSolution, number, page)
	if err != nil {
		return Solution{Error: err.Error(), PageIndex: page}
	}
	s := ParseSolution(span)
	s.PageIndex = page
	return s
}
