package segment

import (
	"regexp"
	"strconv"
	"strings"
)

// TerminalPhrase is the running footer that cross-references the book title.
const TerminalPhrase = "Test Your Play as Declarer"

var (
	nextProblemRe  = regexp.MustCompile(`PROBLEM\s+(\d+)`)
	nextSolutionRe = regexp.MustCompile(`SOLUTION\s+(\d+)`)
)

// ExtractSpan returns the slice of text belonging to the marker for number.
// The span starts at the marker and stops at the nearest following boundary:
// another marker of the same kind, the terminal phrase, or for solutions the
// next PROBLEM marker.
func ExtractSpan(text string, kind Kind, number, pageIndex int) (string, error) {
	start, end, ok := locateMarker(text, kind, number)
	if !ok {
		return "", &ExtractionError{Kind: kind, Number: number, PageIndex: pageIndex}
	}

	rest := text[end:]
	cut := len(rest)

	sameKind := nextProblemRe
	if kind == KindSolution {
		sameKind = nextSolutionRe
	}
	if loc := sameKind.FindStringIndex(rest); loc != nil && loc[0] < cut {
		cut = loc[0]
	}
	if i := strings.Index(rest, TerminalPhrase); i >= 0 && i < cut {
		cut = i
	}
	if kind == KindSolution {
		if loc := nextProblemRe.FindStringIndex(rest); loc != nil && loc[0] < cut {
			cut = loc[0]
		}
	}

	return text[start : end+cut], nil
}

// locateMarker finds "KIND n" as printed in upper case, falling back to any
// case only when the page has no upper-case marker for n.
func locateMarker(text string, kind Kind, number int) (int, int, bool) {
	upper, anyCase := nextProblemRe, problemMarkerRe
	if kind == KindSolution {
		upper, anyCase = nextSolutionRe, solutionMarkerRe
	}
	if start, end, ok := findNumbered(upper, text, number); ok {
		return start, end, true
	}
	return findNumbered(anyCase, text, number)
}

// findNumbered returns the first match of re whose captured number equals n.
func findNumbered(re *regexp.Regexp, text string, n int) (int, int, bool) {
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		if got, err := strconv.Atoi(text[m[2]:m[3]]); err == nil && got == n {
			return m[0], m[1], true
		}
	}
	return 0, 0, false
}
