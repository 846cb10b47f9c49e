package segment

import "sort"

// PageText is the plain text of one physical page.
type PageText struct {
	Index int    `json:"pageIndex" yaml:"pageIndex"`
	Text  string `json:"text" yaml:"text"`
}

// PageLookup resolves a page index to its text.
type PageLookup interface {
	Text(pageIndex int) (string, bool)
}

// Pages is an ordered page sequence.
type Pages []PageText

// Text returns the text of the page with the given index.
func (p Pages) Text(pageIndex int) (string, bool) {
	// Sources usually emit dense, zero-based pages.
	if pageIndex >= 0 && pageIndex < len(p) && p[pageIndex].Index == pageIndex {
		return p[pageIndex].Text, true
	}
	for _, pg := range p {
		if pg.Index == pageIndex {
			return pg.Text, true
		}
	}
	return "", false
}

// Kind is a marker keyword.
type Kind string

const (
	KindProblem  Kind = "problem"
	KindSolution Kind = "solution"
)

// Keyword is the upper-case marker word as printed in the book.
func (k Kind) Keyword() string {
	if k == KindSolution {
		return "SOLUTION"
	}
	return "PROBLEM"
}

// Seat is a bridge table position.
type Seat string

const (
	North Seat = "north"
	South Seat = "south"
	East  Seat = "east"
	West  Seat = "west"
)

// Seats lists the four seats in label-search order.
var Seats = []Seat{North, South, East, West}

// Label is the all-caps diagram label for the seat.
func (s Seat) Label() string {
	switch s {
	case North:
		return "NORTH"
	case South:
		return "SOUTH"
	case East:
		return "EAST"
	case West:
		return "WEST"
	}
	return ""
}

// Source identifies which pipeline produced a record.
type Source string

const (
	SourceText   Source = "text"
	SourceVision Source = "vision"
)

const Unknown = "Unknown"

// MarkerIndex maps puzzle numbers to the page holding their marker.
type MarkerIndex struct {
	ProblemPages  map[int]int `json:"problemPages"`
	SolutionPages map[int]int `json:"solutionPages"`
}

// Matched returns numbers present in both maps, ascending.
func (m MarkerIndex) Matched() []int {
	var out []int
	for n := range m.ProblemPages {
		if _, ok := m.SolutionPages[n]; ok {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

// Unmatched returns numbers present in exactly one map, ascending.
func (m MarkerIndex) Unmatched() []int {
	var out []int
	for n := range m.ProblemPages {
		if _, ok := m.SolutionPages[n]; !ok {
			out = append(out, n)
		}
	}
	for n := range m.SolutionPages {
		if _, ok := m.ProblemPages[n]; !ok {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

// Problem is the structured content of a problem page.
type Problem struct {
	GameType      string          `json:"gameType" yaml:"gameType"`
	Vulnerability string          `json:"vulnerability" yaml:"vulnerability"`
	SeatCards     map[Seat]string `json:"seatCards" yaml:"seatCards"`
	Bidding       string          `json:"bidding" yaml:"bidding"`
	OpeningLead   string          `json:"openingLead" yaml:"openingLead"`
	Task          string          `json:"task" yaml:"task"`
	RawText       string          `json:"rawText" yaml:"rawText"`
	PageIndex     int             `json:"pageIndex" yaml:"pageIndex"`
	ImagePath     string          `json:"imagePath,omitempty" yaml:"imagePath,omitempty"`
	Error         string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// Solution is the structured content of a solution page.
type Solution struct {
	SeatCards     map[Seat]string `json:"seatCards" yaml:"seatCards"`
	FullLayout    string          `json:"fullLayout,omitempty" yaml:"fullLayout,omitempty"`
	Explanation   string          `json:"explanation" yaml:"explanation"`
	KeyTechniques []string        `json:"keyTechniques,omitempty" yaml:"keyTechniques,omitempty"`
	RawText       string          `json:"rawText" yaml:"rawText"`
	PageIndex     int             `json:"pageIndex" yaml:"pageIndex"`
	ImagePath     string          `json:"imagePath,omitempty" yaml:"imagePath,omitempty"`
	Error         string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// PuzzleRecord pairs a problem with its solution by number.
type PuzzleRecord struct {
	Number   int      `json:"number" yaml:"number"`
	Source   Source   `json:"source" yaml:"source"`
	Problem  Problem  `json:"problem" yaml:"problem"`
	Solution Solution `json:"solution" yaml:"solution"`
}

// Failed reports whether either side degraded to an error stub.
func (r PuzzleRecord) Failed() bool {
	return r.Problem.Error != "" || r.Solution.Error != ""
}

// EmptySeats returns a seat map holding all four seats with no cards.
func EmptySeats() map[Seat]string {
	m := make(map[Seat]string, len(Seats))
	for _, s := range Seats {
		m[s] = ""
	}
	return m
}
