package segment

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// glyphReplacer maps OCR glyph artifacts to suit symbols. Safe for prose.
var glyphReplacer = strings.NewReplacer(
	"®", "♠",
	"@", "♠",
	"©", "♦",
	"&", "♣",
)

// cardReplacer adds the letter confusions seen inside hand diagrams.
// O is read as diamonds, never hearts.
var cardReplacer = strings.NewReplacer(
	"®", "♠",
	"@", "♠",
	"a", "♠",
	"Y", "♥",
	"O", "♦",
	"©", "♦",
	"&", "♣",
	"h", "♣",
)

var spaceRe = regexp.MustCompile(`\s+`)

// Normalize applies the glyph substitutions and collapses whitespace.
func Normalize(s string) string {
	return collapseSpace(glyphReplacer.Replace(norm.NFC.String(s)))
}

// NormalizeCards is Normalize plus the letter substitutions, for hand text only.
func NormalizeCards(s string) string {
	return collapseSpace(cardReplacer.Replace(norm.NFC.String(s)))
}

func collapseSpace(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// normalizeRecord cleans every derived text field; raw text is left verbatim.
func normalizeRecord(r *PuzzleRecord) {
	for _, s := range Seats {
		if v, ok := r.Problem.SeatCards[s]; ok {
			r.Problem.SeatCards[s] = NormalizeCards(v)
		}
		if v, ok := r.Solution.SeatCards[s]; ok {
			r.Solution.SeatCards[s] = NormalizeCards(v)
		}
	}
	r.Problem.Bidding = Normalize(r.Problem.Bidding)
	r.Problem.OpeningLead = Normalize(r.Problem.OpeningLead)
	r.Solution.FullLayout = NormalizeCards(r.Solution.FullLayout)
	r.Solution.Explanation = Normalize(r.Solution.Explanation)
}
