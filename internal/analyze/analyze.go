// Package analyze reports on extracted puzzle collections: counts, keyword
// search, technique mentions and per-puzzle summaries.
package analyze

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/puzzlegest/internal/segment"
)

const (
	topLeads      = 10
	snippetLength = 200
	summaryLength = 300
)

// Stats summarizes a collection.
type Stats struct {
	Total           int            `json:"total_puzzles"`
	GameTypes       map[string]int `json:"game_types"`
	Vulnerabilities map[string]int `json:"vulnerabilities"`
	Leads           []LeadCount    `json:"leads"`
}

// LeadCount is how often a card was led.
type LeadCount struct {
	Card  string `json:"card"`
	Count int    `json:"count"`
}

// Statistics counts game types, vulnerabilities and the most common leads.
func Statistics(records []segment.PuzzleRecord) Stats {
	st := Stats{
		Total:           len(records),
		GameTypes:       make(map[string]int),
		Vulnerabilities: make(map[string]int),
	}
	leads := make(map[string]int)
	for _, r := range records {
		st.GameTypes[orUnknown(r.Problem.GameType)]++
		st.Vulnerabilities[orUnknown(r.Problem.Vulnerability)]++
		if card := LeadCard(r.Problem.OpeningLead); card != "" {
			leads[card]++
		}
	}

	for card, n := range leads {
		st.Leads = append(st.Leads, LeadCount{Card: card, Count: n})
	}
	sort.Slice(st.Leads, func(i, j int) bool {
		if st.Leads[i].Count != st.Leads[j].Count {
			return st.Leads[i].Count > st.Leads[j].Count
		}
		return st.Leads[i].Card < st.Leads[j].Card
	})
	if len(st.Leads) > topLeads {
		st.Leads = st.Leads[:topLeads]
	}
	return st
}

// LeadCard returns the card named in "West leads the ♥2.", or "".
func LeadCard(lead string) string {
	_, card, ok := strings.Cut(lead, "leads the ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(strings.ReplaceAll(card, ".", ""))
}

// Match is one search hit.
type Match struct {
	Number  int    `json:"number"`
	Snippet string `json:"snippet"`
}

// Search finds records whose explanation contains keyword, ignoring case.
func Search(records []segment.PuzzleRecord, keyword string) []Match {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return nil
	}
	var out []Match
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Solution.Explanation), kw) {
			out = append(out, Match{Number: r.Number, Snippet: clip(r.Solution.Explanation, snippetLength)})
		}
	}
	return out
}

// ByNumber returns the record with the given number.
func ByNumber(records []segment.PuzzleRecord, n int) (segment.PuzzleRecord, bool) {
	for _, r := range records {
		if r.Number == n {
			return r, true
		}
	}
	return segment.PuzzleRecord{}, false
}

// Vocabulary is the list of techniques Techniques looks for.
var Vocabulary = []string{
	"finesse",
	"endplay",
	"squeeze",
	"elimination",
	"trump coup",
	"dummy reversal",
	"safety play",
	"duck",
	"overtake",
	"discard",
	"ruffing",
	"crossruff",
}

// Techniques maps each vocabulary term to the puzzle numbers whose
// explanation mentions it. Terms with no hits are left out.
func Techniques(records []segment.PuzzleRecord) map[string][]int {
	out := make(map[string][]int)
	for _, r := range records {
		text := strings.ToLower(r.Solution.Explanation)
		for _, term := range Vocabulary {
			if strings.Contains(text, term) {
				out[term] = append(out[term], r.Number)
			}
		}
	}
	return out
}

// clip shortens s to n runes plus "...".
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func orUnknown(s string) string {
	if s == "" {
		return segment.Unknown
	}
	return s
}
