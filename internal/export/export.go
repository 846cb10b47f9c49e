// Package export reads and writes puzzle collections as JSON, YAML and XLSX.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/puzzlegest/internal/segment"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts json, yaml/yml or xlsx.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unknown export format %q (want json, yaml or xlsx)", s)
}

// FormatForPath picks a format from a file extension, defaulting to JSON.
func FormatForPath(path string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return FormatJSON
	}
	return f
}

// Write encodes records in the given format.
func Write(w io.Writer, format Format, records []segment.PuzzleRecord) error {
	switch format {
	case FormatYAML:
		return WriteYAML(w, records)
	case FormatXLSX:
		data, err := XLSX(records)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return WriteJSON(w, records)
	}
}

// WriteJSON writes indented UTF-8 JSON; suit symbols and markup are left
// unescaped.
func WriteJSON(w io.Writer, records []segment.PuzzleRecord) error {
	if records == nil {
		records = []segment.PuzzleRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// WriteYAML writes the records as a YAML sequence.
func WriteYAML(w io.Writer, records []segment.PuzzleRecord) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// ReadFile loads records written by WriteJSON or WriteYAML.
func ReadFile(path string) ([]segment.PuzzleRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []segment.PuzzleRecord
	switch FormatForPath(path) {
	case FormatYAML:
		err = yaml.Unmarshal(data, &records)
	case FormatXLSX:
		return nil, fmt.Errorf("%s: xlsx files cannot be read back", path)
	default:
		err = json.Unmarshal(data, &records)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}

// WriteFile writes records to path in the format implied by its extension.
func WriteFile(path string, records []segment.PuzzleRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, FormatForPath(path), records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
