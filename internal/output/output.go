package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mj1618/shopshield/internal/model"
	"gopkg.in/yaml.v3"
)

// Format represents the output format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// OutputFormat is the current output format, set by the root command's --format flag.
var OutputFormat Format = FormatYAML

// PrettyOutput enables pretty-printing for JSON output.
var PrettyOutput bool

// Writer receives all printed output. Tests swap it for a buffer.
var Writer io.Writer = os.Stdout

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatYAML, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unsupported output format: %s (use yaml or json)", s)
}

// ClassifyResult is the output of the `classify` command.
type ClassifyResult struct {
	Match   bool                    `yaml:"match"             json:"match"`
	Rule    string                  `yaml:"rule,omitempty"    json:"rule,omitempty"`
	Field   string                  `yaml:"field,omitempty"   json:"field,omitempty"`
	Keyword string                  `yaml:"keyword,omitempty" json:"keyword,omitempty"`
	Element model.ElementDescriptor `yaml:"element"           json:"element"`
}

// LogsResult is the output of the `logs` command.
type LogsResult struct {
	Count   int                      `yaml:"count"   json:"count"`
	Entries []model.OverrideLogEntry `yaml:"entries" json:"entries"`
}

// ClearResult is the output of `logs --clear`.
type ClearResult struct {
	OK      bool  `yaml:"ok"      json:"ok"`
	Cleared int64 `yaml:"cleared" json:"cleared"`
}

// Print serializes v to Writer in the current output format.
func Print(v interface{}) error {
	switch OutputFormat {
	case FormatJSON:
		if PrettyOutput {
			return PrintPrettyJSON(v)
		}
		return PrintJSON(v)
	case FormatYAML:
		return PrintYAML(v)
	default:
		return fmt.Errorf("unsupported output format: %s", OutputFormat)
	}
}

// PrintJSON serializes v to Writer as compact single-line JSON.
func PrintJSON(v interface{}) error {
	enc := json.NewEncoder(Writer)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// PrintPrettyJSON serializes v to Writer as indented JSON.
func PrintPrettyJSON(v interface{}) error {
	enc := json.NewEncoder(Writer)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// PrintYAML serializes v to Writer as YAML.
func PrintYAML(v interface{}) error {
	enc := yaml.NewEncoder(Writer)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	return enc.Close()
}

// EventWriter streams events as JSON lines, one per event.
type EventWriter struct {
	enc *json.Encoder
}

// NewEventWriter returns an EventWriter on w.
func NewEventWriter(w io.Writer) *EventWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &EventWriter{enc: enc}
}

// Write emits one event.
func (e *EventWriter) Write(c model.GuardChange) error {
	return e.enc.Encode(c)
}
