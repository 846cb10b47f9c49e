package extract

import "fmt"

const suitNote = `Use the suit symbols ♠, ♥, ♦ and ♣ with card ranks (A K Q J 10 9 ... 2).`

const problemPrompt = `This image shows bridge problem %d from a book of declarer-play puzzles. Extract it as a single JSON object with these fields:

- "gameType": e.g. "Rubber bridge" or "Duplicate"
- "vulnerability": e.g. "North-South vulnerable"
- "seatCards": an object with "north", "south", "east" and "west" keys. Each value is that hand as one string, spades first, e.g. "♠ A K 5 ♥ Q 2 ♦ A J 10 4 ♣ K 8 6 3". Use "" for hands that are not shown.
- "bidding": the auction as printed, one string
- "openingLead": the lead sentence, e.g. "West leads the ♠K."
- "task": e.g. "Plan the play."

%s
Respond with ONLY the JSON object, no other text.`

const solutionPrompt = `This image shows the solution to bridge problem %d. All four hands are shown. Extract it as a single JSON object with these fields:

- "seatCards": an object with "north", "south", "east" and "west" keys. Each value is that hand as one string, spades first, e.g. "♠ 8 7 ♥ K J 10 9 ♦ 9 6 ♣ Q J 10 9 5".
- "explanation": the full explanation text
- "keyTechniques": a list of the techniques the explanation relies on, e.g. ["finesse", "endplay"]

%s
Respond with ONLY the JSON object, no other text.`

// ProblemPrompt asks for the problem fields of puzzle n.
func ProblemPrompt(n int) string {
	return fmt.Sprintf(problemPrompt, n, suitNote)
}

// SolutionPrompt asks for the full deal and explanation of puzzle n.
func SolutionPrompt(n int) string {
	return fmt.Sprintf(solutionPrompt, n, suitNote)
}
