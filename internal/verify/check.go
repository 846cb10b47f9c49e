// Package verify runs automated sanity checks over extracted puzzles and
// writes a verification log.
package verify

import (
	"fmt"
	"os"
	"strings"

	"github.com/dgallion1/puzzlegest/internal/segment"
)

const (
	StatusOK     = "OK"
	StatusIssues = "Issues found"
)

// Report lists the problems found on one side of a puzzle.
type Report struct {
	Issues     []string `json:"issues"`
	Status     string   `json:"status"`
	IssueCount int      `json:"issue_count"`
}

// Result is the check outcome for one puzzle.
type Result struct {
	Number   int    `json:"puzzle_number"`
	Problem  Report `json:"problem"`
	Solution Report `json:"solution"`
}

// IssueCount is the total over both sides.
func (r Result) IssueCount() int {
	return r.Problem.IssueCount + r.Solution.IssueCount
}

// Check runs every problem and solution check on a record.
func Check(r segment.PuzzleRecord) Result {
	return Result{
		Number:   r.Number,
		Problem:  newReport(problemIssues(r.Problem)),
		Solution: newReport(solutionIssues(r.Solution, r.Source)),
	}
}

func newReport(issues []string) Report {
	if issues == nil {
		issues = []string{}
	}
	status := StatusOK
	if len(issues) > 0 {
		status = StatusIssues
	}
	return Report{Issues: issues, Status: status, IssueCount: len(issues)}
}

func problemIssues(p segment.Problem) []string {
	var issues []string
	if p.Error != "" {
		issues = append(issues, "Extraction error: "+p.Error)
	}
	if p.GameType == "" || p.GameType == segment.Unknown {
		issues = append(issues, "Game type is unknown")
	}
	if p.Vulnerability == "" || p.Vulnerability == segment.Unknown {
		issues = append(issues, "Vulnerability is unknown")
	}
	for _, seat := range []segment.Seat{segment.North, segment.South} {
		if strings.TrimSpace(p.SeatCards[seat]) == "" {
			issues = append(issues, fmt.Sprintf("%s hand is missing in card layout", title(seat)))
		}
	}
	issues = append(issues, handIssues(p.SeatCards, "")...)
	if strings.TrimSpace(p.OpeningLead) == "" {
		issues = append(issues, "Opening lead is empty")
	}
	if strings.TrimSpace(p.Task) == "" {
		issues = append(issues, "Task description is empty")
	}
	return issues
}

func solutionIssues(s segment.Solution, source segment.Source) []string {
	var issues []string
	if s.Error != "" {
		issues = append(issues, "Extraction error: "+s.Error)
	}
	if strings.TrimSpace(s.FullLayout) == "" {
		for _, seat := range segment.Seats {
			if strings.TrimSpace(s.SeatCards[seat]) == "" {
				issues = append(issues, fmt.Sprintf("%s hand is missing in solution card layout", title(seat)))
			}
		}
	}
	issues = append(issues, handIssues(s.SeatCards, "solution ")...)
	if strings.TrimSpace(s.Explanation) == "" {
		issues = append(issues, "Solution explanation is empty")
	}
	if source == segment.SourceVision {
		if s.KeyTechniques == nil {
			issues = append(issues, "Missing key techniques")
		} else if len(s.KeyTechniques) == 0 {
			issues = append(issues, "Key techniques list is empty")
		}
	}
	if s.ImagePath != "" {
		if _, err := os.Stat(s.ImagePath); err != nil {
			issues = append(issues, fmt.Sprintf("Stored image %s is missing", s.ImagePath))
		}
	}
	return issues
}

func handIssues(cards map[segment.Seat]string, prefix string) []string {
	var issues []string
	for _, seat := range segment.Seats {
		for _, bad := range InvalidHandChars(cards[seat]) {
			issues = append(issues, fmt.Sprintf("Invalid suit %s in %s%s hand", bad, prefix, seat))
		}
	}
	return issues
}

var handTokens = strings.NewReplacer("void", " ", "Void", " ", "VOID", " ", "10", " ")

// InvalidHandChars returns the characters of a hand string that are neither
// suit symbols, ranks, x, void markers nor separators. Each is reported once.
func InvalidHandChars(hand string) []string {
	var bad []string
	seen := make(map[rune]bool)
	for _, r := range handTokens.Replace(hand) {
		if validHandRune(r) || seen[r] {
			continue
		}
		seen[r] = true
		bad = append(bad, string(r))
	}
	return bad
}

func validHandRune(r rune) bool {
	switch {
	case strings.ContainsRune("♠♥♦♣", r):
		return true
	case strings.ContainsRune("AKQJT", r), r >= '2' && r <= '9':
		return true
	case r == 'x', r == '—', r == '-', r == ',', r == '.':
		return true
	case r == ' ', r == '\t', r == '\n', r == '\r':
		return true
	}
	return false
}

func title(s segment.Seat) string {
	v := string(s)
	if v == "" {
		return v
	}
	return strings.ToUpper(v[:1]) + v[1:]
}
