package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ValidateFormat checks an --output value
func ValidateFormat(format string) error {
	switch strings.ToLower(format) {
	case "", FormatTable, FormatJSON, FormatYAML:
		return nil
	}
	return fmt.Errorf("invalid output format '%s', must be one of: table, json, yaml", format)
}

func (o *Options) tableOutput() bool {
	format := strings.ToLower(o.Output)
	return format == "" || format == FormatTable
}

// render writes v as JSON or YAML, or calls table with a tabwriter for the default format
func render(out io.Writer, format string, v any, table func(w *tabwriter.Writer)) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	table(w)
	return w.Flush()
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// nopCloser lets prompts write to a plain io.Writer
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
