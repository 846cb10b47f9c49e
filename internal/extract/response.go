package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dgallion1/puzzlegest/internal/segment"
)

// ErrParseJSON marks a reply that held no decodable JSON object.
var ErrParseJSON = errors.New("Failed to parse JSON")

// ParseVisionJSON strips code fences from a model reply and decodes the JSON
// object inside it.
func ParseVisionJSON(raw string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(stripCodeBlock(raw)), &out); err != nil || out == nil {
		return nil, ErrParseJSON
	}
	return out, nil
}

// ProblemFromResponse decodes a problem reply. A reply without JSON yields an
// error stub that keeps the raw text. Schema violations come back as issues;
// the decoded fields are still used.
func ProblemFromResponse(raw string) (segment.Problem, []string) {
	p := segment.Problem{
		GameType:      segment.Unknown,
		Vulnerability: segment.Unknown,
		SeatCards:     seatMap(nil),
		RawText:       raw,
	}
	obj, err := ParseVisionJSON(raw)
	if err != nil {
		p.Error = err.Error()
		return p, nil
	}

	var issues []string
	if err := ValidateProblemJSON(obj); err != nil {
		issues = append(issues, err.Error())
	}

	if v := asText(obj["gameType"]); v != "" {
		p.GameType = v
	}
	if v := asText(obj["vulnerability"]); v != "" {
		p.Vulnerability = v
	}
	p.SeatCards = seatMap(obj["seatCards"])
	p.Bidding = asText(obj["bidding"])
	p.OpeningLead = asText(obj["openingLead"])
	p.Task = asText(obj["task"])
	return p, issues
}

// SolutionFromResponse decodes a solution reply the same way.
func SolutionFromResponse(raw string) (segment.Solution, []string) {
	s := segment.Solution{
		SeatCards: seatMap(nil),
		RawText:   raw,
	}
	obj, err := ParseVisionJSON(raw)
	if err != nil {
		s.Error = err.Error()
		return s, nil
	}

	var issues []string
	if err := ValidateSolutionJSON(obj); err != nil {
		issues = append(issues, err.Error())
	}

	s.SeatCards = seatMap(obj["seatCards"])
	s.Explanation = asText(obj["explanation"])
	s.KeyTechniques = asList(obj["keyTechniques"])
	return s, issues
}

var suitKeys = map[string]string{
	"spades": "♠", "spade": "♠", "♠": "♠",
	"hearts": "♥", "heart": "♥", "♥": "♥",
	"diamonds": "♦", "diamond": "♦", "♦": "♦",
	"clubs": "♣", "club": "♣", "♣": "♣",
}

var suitOrder = []string{"♠", "♥", "♦", "♣"}

// seatMap reads a seatCards value, accepting upper- or lower-case seat keys.
func seatMap(v any) map[segment.Seat]string {
	out := segment.EmptySeats()
	m, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for k, hand := range m {
		seat := segment.Seat(strings.ToLower(k))
		if _, known := out[seat]; known {
			out[seat] = handText(hand)
		}
	}
	return out
}

// handText flattens a hand given either as a string or as a suit->cards
// object into "♠ A K ♥ Q ..." form.
func handText(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return asText(v)
	}
	bySuit := make(map[string]string, 4)
	var other []string
	for k, cards := range m {
		if sym, ok := suitKeys[strings.ToLower(k)]; ok {
			bySuit[sym] = asText(cards)
		} else {
			other = append(other, k+" "+asText(cards))
		}
	}
	var parts []string
	for _, sym := range suitOrder {
		if c, ok := bySuit[sym]; ok {
			parts = append(parts, strings.TrimSpace(sym+" "+c))
		}
	}
	sort.Strings(other)
	return strings.Join(append(parts, other...), " ")
}

func asText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := asText(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	case map[string]any:
		return handText(t)
	default:
		return fmt.Sprint(t)
	}
}

func asList(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s := asText(e); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(t, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
