package segment

import (
	"regexp"
	"strconv"
)

var (
	problemMarkerRe  = regexp.MustCompile(`(?i)PROBLEM\s+(\d+)`)
	solutionMarkerRe = regexp.MustCompile(`(?i)SOLUTION\s+(\d+)`)
)

// ScanMarkers indexes the first PROBLEM and SOLUTION marker of every page.
// When a number shows up on several pages the earliest page is kept.
func ScanMarkers(pages []PageText) MarkerIndex {
	idx := MarkerIndex{
		ProblemPages:  make(map[int]int),
		SolutionPages: make(map[int]int),
	}
	for _, p := range pages {
		if n, ok := firstMarker(problemMarkerRe, p.Text); ok {
			if _, seen := idx.ProblemPages[n]; !seen {
				idx.ProblemPages[n] = p.Index
			}
		}
		if n, ok := firstMarker(solutionMarkerRe, p.Text); ok {
			if _, seen := idx.SolutionPages[n]; !seen {
				idx.SolutionPages[n] = p.Index
			}
		}
	}
	return idx
}

func firstMarker(re *regexp.Regexp, text string) (int, bool) {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
