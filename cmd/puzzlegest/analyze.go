package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/puzzlegest/internal/analyze"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count game types, vulnerabilities and opening leads",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := loadRecords(cmd.Context())
		if err != nil {
			return err
		}
		return output(analyze.Statistics(records))
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Find puzzles whose explanation mentions a keyword",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := loadRecords(cmd.Context())
		if err != nil {
			return err
		}
		matches := analyze.Search(records, args[0])
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Found %d puzzles containing '%s':\n", len(matches), args[0])
		for _, m := range matches {
			fmt.Fprintf(w, "\nProblem #%d:\n  %s\n", m.Number, m.Snippet)
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <number>",
	Short: "Print a summary of one puzzle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("puzzle number: %w", err)
		}
		records, err := loadRecords(cmd.Context())
		if err != nil {
			return err
		}
		rec, ok := analyze.ByNumber(records, n)
		if !ok {
			return fmt.Errorf("puzzle #%d not found", n)
		}
		fmt.Fprint(cmd.OutOrStdout(), analyze.SummaryMarkdown(rec))
		return nil
	},
}

var techniquesCmd = &cobra.Command{
	Use:   "techniques",
	Short: "List bridge techniques and the puzzles that use them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := loadRecords(cmd.Context())
		if err != nil {
			return err
		}
		found := analyze.Techniques(records)
		terms := make([]string, 0, len(found))
		for t := range found {
			terms = append(terms, t)
		}
		sort.Strings(terms)

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "Bridge Techniques and Related Puzzles:")
		for _, t := range terms {
			nums := make([]string, len(found[t]))
			for i, n := range found[t] {
				nums[i] = strconv.Itoa(n)
			}
			fmt.Fprintf(w, "\n%s:\n  Found in puzzles: %s\n", strings.ToUpper(t[:1])+t[1:], strings.Join(nums, ", "))
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{statsCmd, searchCmd, showCmd, techniquesCmd} {
		addRecordFlags(c)
		rootCmd.AddCommand(c)
	}
}
