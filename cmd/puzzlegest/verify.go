package main

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/puzzlegest/internal/verify"
)

var (
	verifyAll     bool
	verifyRandom  int
	verifyLogFile string
	verifySeed    uint64
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run automated checks over extracted puzzles",
	Long: `Check puzzles for missing hands, unknown headers, invalid card
characters and empty text, and write the findings to a verification log.

By default a random sample of puzzles is checked; --all checks every one and
logs only the puzzles with issues.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := loadRecords(cmd.Context())
		if err != nil {
			return err
		}
		v := &verify.Verifier{LogPath: verifyLogFile, Log: newLogger()}

		var sum verify.Summary
		if verifyAll {
			sum, err = v.All(records)
		} else {
			seed := verifySeed
			if seed == 0 {
				seed = uint64(time.Now().UnixNano())
			}
			sum, err = v.Sample(records, verifyRandom, rand.New(rand.NewPCG(seed, seed>>1)))
		}
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "Verification complete:")
		fmt.Fprintf(w, "Total puzzles: %d\n", sum.Checked)
		fmt.Fprintf(w, "Puzzles with issues: %d\n", sum.PuzzlesWithIssues)
		fmt.Fprintf(w, "Total issues found: %d\n", sum.TotalIssues)
		fmt.Fprintf(w, "Results logged to %s\n", sum.LogPath)
		return nil
	},
}

func init() {
	verifyCmd.Flags().BoolVarP(&verifyAll, "all", "a", false, "verify every puzzle")
	verifyCmd.Flags().IntVarP(&verifyRandom, "random", "r", 10, "number of random puzzles to verify")
	verifyCmd.Flags().StringVarP(&verifyLogFile, "log-file", "l", "", "verification log path")
	verifyCmd.Flags().Uint64Var(&verifySeed, "seed", 0, "random seed for the sample")
	addRecordFlags(verifyCmd)
	rootCmd.AddCommand(verifyCmd)
}
