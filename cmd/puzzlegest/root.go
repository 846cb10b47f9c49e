package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/puzzlegest/internal/config"
)

var (
	cfgFile      string
	outputFormat string
	dbPath       string
	verbose      bool
	jsonLogs     bool
)

var rootCmd = &cobra.Command{
	Use:   "puzzlegest",
	Short: "Extract bridge declarer-play puzzles from scanned books",
	Long: `Puzzlegest turns a book of numbered bridge problems into structured
puzzle records.

It locates the PROBLEM and SOLUTION markers in the page text, pairs them by
number and pulls out the hands, bidding, opening lead and explanation. A
vision model can be used instead of text parsing for poor scans.

Records can be analyzed, verified and exported from a JSON/YAML file or from
the SQLite store, and the whole pipeline is available over HTTP with serve.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./puzzlegest.yaml if present)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().StringVar(
		&dbPath, "db", "", "SQLite database path (overrides DB_PATH)",
	)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "log-json", false, "log as JSON")
}

// newLogger writes to stderr so stdout stays clean for command output.
func newLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: logLevel()}
	if jsonLogs {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// newLoader reads configuration and applies the persistent flag overrides.
func newLoader() (*config.Loader, error) {
	l, err := config.NewLoader(cfgFile)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		l.Set("db_path", dbPath)
	}
	return l, nil
}

func loadConfig() (config.Config, error) {
	l, err := newLoader()
	if err != nil {
		return config.Config{}, err
	}
	return l.Config()
}

func logLevel() slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// output writes data to stdout in the --output format.
func output(data any) error {
	return outputTo(os.Stdout, outputFormat, data)
}

func outputTo(w io.Writer, format string, data any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want yaml or json)", format)
	}
}
