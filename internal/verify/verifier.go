package verify

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/puzzlegest/internal/segment"
)

const timeLayout = "2006-01-02 15:04:05"

// Summary totals a verification run.
type Summary struct {
	RunID             string   `json:"run_id"`
	Checked           int      `json:"checked"`
	PuzzlesWithIssues int      `json:"puzzles_with_issues"`
	TotalIssues       int      `json:"total_issues"`
	LogPath           string   `json:"log_path,omitempty"`
	Results           []Result `json:"results,omitempty"`
}

// Verifier checks records and appends the results to a log file. An empty
// LogPath gets a timestamped name in the working directory.
type Verifier struct {
	LogPath string
	Log     *slog.Logger
	Now     func() time.Time
}

// CheckAll checks every record without writing a log.
func CheckAll(records []segment.PuzzleRecord) Summary {
	sum := Summary{RunID: uuid.NewString(), Results: []Result{}}
	for _, r := range records {
		res := Check(r)
		sum.Checked++
		sum.Results = append(sum.Results, res)
		if n := res.IssueCount(); n > 0 {
			sum.PuzzlesWithIssues++
			sum.TotalIssues += n
		}
	}
	return sum
}

// DefaultLogPath names a log after the time it was started.
func DefaultLogPath(t time.Time) string {
	return fmt.Sprintf("auto_verification_log_%s.txt", t.Format("20060102_150405"))
}

// All checks every record. Only puzzles with issues are written to the log.
func (v *Verifier) All(records []segment.PuzzleRecord) (Summary, error) {
	return v.run(records, fmt.Sprintf("Verifying all %d puzzles", len(records)), true)
}

// Sample checks n records picked with rng. Every checked puzzle is logged.
func (v *Verifier) Sample(records []segment.PuzzleRecord, n int, rng *rand.Rand) (Summary, error) {
	picked := pick(records, n, rng)
	nums := make([]int, len(picked))
	for i, r := range picked {
		nums[i] = r.Number
	}
	return v.run(picked, fmt.Sprintf("Randomly selected puzzles: %v", nums), false)
}

func (v *Verifier) run(records []segment.PuzzleRecord, heading string, onlyIssues bool) (Summary, error) {
	now := v.now()
	path := v.LogPath
	if path == "" {
		path = DefaultLogPath(now)
	}
	f, err := os.Create(path)
	if err != nil {
		return Summary{}, fmt.Errorf("create verification log: %w", err)
	}
	defer f.Close()

	sum := CheckAll(records)
	sum.LogPath = path
	fmt.Fprintf(f, "Automatic Verification Log - %s\n", now.Format(timeLayout))
	fmt.Fprintf(f, "Run: %s\n%s\n\n", sum.RunID, heading)

	for _, res := range sum.Results {
		if n := res.IssueCount(); n > 0 {
			v.logger().Info("puzzle has issues", "number", res.Number, "issues", n)
		} else if onlyIssues {
			continue
		}
		if err := writeEntry(f, res, v.now()); err != nil {
			return sum, err
		}
	}

	fmt.Fprintf(f, "\nVerification Summary:\n")
	fmt.Fprintf(f, "Total puzzles: %d\n", sum.Checked)
	fmt.Fprintf(f, "Puzzles with issues: %d\n", sum.PuzzlesWithIssues)
	if _, err := fmt.Fprintf(f, "Total issues found: %d\n", sum.TotalIssues); err != nil {
		return sum, fmt.Errorf("write verification log: %w", err)
	}
	v.logger().Info("verification complete", "run_id", sum.RunID, "checked", sum.Checked,
		"with_issues", sum.PuzzlesWithIssues, "issues", sum.TotalIssues, "log", path)
	return sum, nil
}

func writeEntry(w io.Writer, res Result, at time.Time) error {
	entry := struct {
		Result
		VerificationTime string `json:"verification_time"`
	}{res, at.Format(timeLayout)}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if _, err := fmt.Fprintf(w, "Puzzle #%d Verification:\n%s\n\n", res.Number, data); err != nil {
		return fmt.Errorf("write verification log: %w", err)
	}
	return nil
}

// pick returns up to n records chosen without replacement, in number order.
func pick(records []segment.PuzzleRecord, n int, rng *rand.Rand) []segment.PuzzleRecord {
	if n >= len(records) {
		n = len(records)
	}
	if n <= 0 {
		return nil
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	perm := rng.Perm(len(records))[:n]
	sort.Ints(perm)
	out := make([]segment.PuzzleRecord, n)
	for i, idx := range perm {
		out[i] = records[idx]
	}
	return out
}

func (v *Verifier) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

func (v *Verifier) logger() *slog.Logger {
	if v.Log == nil {
		return slog.Default()
	}
	return v.Log
}
