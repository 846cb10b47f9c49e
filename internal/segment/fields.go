package segment

import (
	"regexp"
	"strings"
)

var (
	gameTypeRe      = regexp.MustCompile(`Rubber bridge|Duplicate|Variable conditions`)
	vulnerabilityRe = regexp.MustCompile(`North-South vulnerable|East-West vulnerable|Both sides vulnerable|Neither side vulnerable`)
	openingLeadRe   = regexp.MustCompile(`(West|East|South|North) leads the (.*?)\.`)
	leadsRe         = regexp.MustCompile(`(West|East|South|North) leads`)
	anyLabelRe      = regexp.MustCompile(`\b(NORTH|SOUTH|EAST|WEST)\b`)
	blankLineRe     = regexp.MustCompile(`\n[ \t]*\n`)
	seatEndRe       = regexp.MustCompile(`\b(NORTH|SOUTH|EAST|WEST)\b|(West|East|South|North) leads|\n[ \t]*\n`)
	solutionHeadRe  = regexp.MustCompile(`(?i)SOLUTION\s+\d+\s*`)

	seatLabelRe = map[Seat]*regexp.Regexp{
		North: regexp.MustCompile(`\bNORTH\s+`),
		South: regexp.MustCompile(`\bSOUTH\s+`),
		East:  regexp.MustCompile(`\bEAST\s+`),
		West:  regexp.MustCompile(`\bWEST\s+`),
	}
)

const taskPhrase = "Plan the play."

type problemRule struct {
	field string
	apply func(span string, p *Problem)
}

// problemRules run in order; each only touches its own field and leaves the
// default in place when its pattern does not match.
var problemRules = []problemRule{
	{"gameType", func(span string, p *Problem) {
		if m := gameTypeRe.FindString(span); m != "" {
			p.GameType = m
		}
	}},
	{"vulnerability", func(span string, p *Problem) {
		if m := vulnerabilityRe.FindString(span); m != "" {
			p.Vulnerability = m
		}
	}},
	{"seatCards", func(span string, p *Problem) {
		for _, s := range Seats {
			p.SeatCards[s] = seatCards(span, s)
		}
	}},
	{"bidding", func(span string, p *Problem) {
		p.Bidding = bidding(span)
	}},
	{"openingLead", func(span string, p *Problem) {
		p.OpeningLead = openingLeadRe.FindString(span)
	}},
	{"task", func(span string, p *Problem) {
		if strings.Contains(span, taskPhrase) {
			p.Task = taskPhrase
		}
	}},
}

// ParseProblem pulls the problem fields out of a bounded span.
func ParseProblem(span string) Problem {
	p := Problem{
		GameType:      Unknown,
		Vulnerability: Unknown,
		SeatCards:     EmptySeats(),
		RawText:       strings.TrimSpace(span),
	}
	for _, r := range problemRules {
		r.apply(span, &p)
	}
	return p
}

// ParseSolution pulls the full deal and the explanation out of a bounded span.
func ParseSolution(span string) Solution {
	s := Solution{
		SeatCards: EmptySeats(),
		RawText:   strings.TrimSpace(span),
	}

	found := false
	for _, seat := range Seats {
		if seatLabelRe[seat].MatchString(span) {
			found = true
		}
		s.SeatCards[seat] = seatCards(span, seat)
	}
	if !found {
		s.FullLayout = fullLayout(span)
	}

	s.Explanation = explanation(span, s.SeatCards)
	return s
}

// seatCards returns the text after the seat's label, up to the next label,
// a "<Seat> leads" phrase or a blank line.
func seatCards(span string, seat Seat) string {
	loc := seatLabelRe[seat].FindStringIndex(span)
	if loc == nil {
		return ""
	}
	rest := span[loc[1]:]
	if end := seatEndRe.FindStringIndex(rest); end != nil {
		rest = rest[:end[0]]
	}
	return strings.TrimSpace(rest)
}

// bidding returns the block from the first seat label up to the opening lead.
func bidding(span string) string {
	loc := anyLabelRe.FindStringIndex(span)
	if loc == nil {
		return ""
	}
	rest := span[loc[0]:]
	lead := leadsRe.FindStringIndex(rest)
	if lead == nil {
		return ""
	}
	return strings.TrimSpace(rest[:lead[0]])
}

func fullLayout(span string) string {
	loc := solutionHeadRe.FindStringIndex(span)
	if loc == nil {
		return ""
	}
	rest := span[loc[1]:]
	if end := blankLineRe.FindStringIndex(rest); end != nil {
		rest = rest[:end[0]]
	}
	return strings.TrimSpace(rest)
}

// explanation strips the hands, seat labels, marker and footer from a
// solution span. Everything else is prose and is kept.
func explanation(span string, cards map[Seat]string) string {
	text := span
	for _, seat := range Seats {
		if c := cards[seat]; c != "" {
			text = strings.ReplaceAll(text, c, "")
		}
	}
	text = solutionHeadRe.ReplaceAllString(text, "\n")
	text = strings.ReplaceAll(text, TerminalPhrase, "")
	text = anyLabelRe.ReplaceAllString(text, "")
	return collapseSpace(text)
}
