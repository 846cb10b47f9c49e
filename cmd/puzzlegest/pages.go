package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dgallion1/puzzlegest/internal/parser"
	"github.com/dgallion1/puzzlegest/internal/segment"
)

var (
	pagesPuzzle  int
	pagesRange   []int
	pagesListAll bool
)

var pagesCmd = &cobra.Command{
	Use:   "pages <file>",
	Short: "Find the pages holding each problem and solution",
	Long: `Scan a book for PROBLEM and SOLUTION markers and report their pages.

Page numbers are zero-based. Without flags a summary is printed.

Examples:
  puzzlegest pages book.pdf
  puzzlegest pages book.pdf --puzzle 12
  puzzlegest pages book.pdf --range 10,20
  puzzlegest pages book.pdf --list-all`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		pages, err := parseFile(args[0], cfg.PDFFallbackPdftotext)
		if err != nil {
			return err
		}
		idx := segment.ScanMarkers(pages)
		w := cmd.OutOrStdout()

		switch {
		case pagesPuzzle > 0:
			printPuzzlePages(w, pagesPuzzle, idx)
		case len(pagesRange) > 0:
			if len(pagesRange) != 2 || pagesRange[0] > pagesRange[1] {
				return fmt.Errorf("--range needs START,END with START <= END")
			}
			for n := pagesRange[0]; n <= pagesRange[1]; n++ {
				if hasMarker(idx, n) {
					printPuzzlePages(w, n, idx)
					fmt.Fprintln(w)
				}
			}
		case pagesListAll:
			for _, n := range allNumbers(idx) {
				printPuzzlePages(w, n, idx)
				fmt.Fprintln(w)
			}
		default:
			fmt.Fprintf(w, "Scanned %d pages.\n", len(pages))
			fmt.Fprintln(w, "\nPuzzle Summary:")
			fmt.Fprintf(w, "Total puzzles found: %d\n", len(allNumbers(idx)))
			fmt.Fprintf(w, "Problems found: %d\n", len(idx.ProblemPages))
			fmt.Fprintf(w, "Solutions found: %d\n", len(idx.SolutionPages))
			fmt.Fprintf(w, "Matched pairs: %d\n", len(idx.Matched()))
			fmt.Fprintln(w, "\nUse --puzzle, --range, or --list-all to see more details.")
		}
		return nil
	},
}

func init() {
	pagesCmd.Flags().IntVarP(&pagesPuzzle, "puzzle", "p", 0, "show one puzzle number")
	pagesCmd.Flags().IntSliceVarP(&pagesRange, "range", "r", nil, "show puzzles START,END")
	pagesCmd.Flags().BoolVarP(&pagesListAll, "list-all", "l", false, "list every puzzle")
	rootCmd.AddCommand(pagesCmd)
}

func printPuzzlePages(w io.Writer, n int, idx segment.MarkerIndex) {
	pp, hasProblem := idx.ProblemPages[n]
	sp, hasSolution := idx.SolutionPages[n]
	switch {
	case hasProblem && hasSolution:
		fmt.Fprintf(w, "Puzzle #%d:\n", n)
		fmt.Fprintf(w, "  Problem page: %d (0-indexed)\n", pp)
		fmt.Fprintf(w, "  Solution page: %d (0-indexed)\n", sp)
	case hasProblem:
		fmt.Fprintf(w, "Puzzle #%d: Problem found on page %d but no solution found.\n", n, pp)
	case hasSolution:
		fmt.Fprintf(w, "Puzzle #%d: Solution found on page %d but no problem found.\n", n, sp)
	default:
		fmt.Fprintf(w, "Puzzle #%d not found.\n", n)
	}
}

func hasMarker(idx segment.MarkerIndex, n int) bool {
	_, p := idx.ProblemPages[n]
	_, s := idx.SolutionPages[n]
	return p || s
}

func allNumbers(idx segment.MarkerIndex) []int {
	seen := make(map[int]bool)
	for n := range idx.ProblemPages {
		seen[n] = true
	}
	for n := range idx.SolutionPages {
		seen[n] = true
	}
	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// parseFile reads page text from any supported document.
func parseFile(path string, fallback bool) ([]segment.PageText, error) {
	p, err := parser.ForFile(path, parser.Options{FallbackPdftotext: fallback})
	if err != nil {
		return nil, err
	}
	if pdf, ok := p.(*parser.PDFParser); ok {
		return pdf.ParseFile(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return p.Parse(f, path)
}
