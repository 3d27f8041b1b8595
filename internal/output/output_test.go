package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mj1618/shopshield/internal/model"
	"gopkg.in/yaml.v3"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := Writer
	Writer = &buf
	t.Cleanup(func() { Writer = old })
	return &buf
}

func sampleLogs() LogsResult {
	return LogsResult{
		Count: 1,
		Entries: []model.OverrideLogEntry{
			{ID: "a1", Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), PageURL: "https://shop.example.com/cart", Note: "gift"},
		},
	}
}

func TestPrintYAML(t *testing.T) {
	buf := capture(t)

	if err := PrintYAML(sampleLogs()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	// YAML output should be multi-line
	if strings.Count(out, "\n") <= 1 {
		t.Errorf("YAML output should be multi-line, got:\n%s", out)
	}

	var decoded LogsResult
	if err := yaml.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if len(decoded.Entries) != 1 || decoded.Entries[0].Note != "gift" {
		t.Errorf("entries: got %+v", decoded.Entries)
	}
}

func TestPrintJSON_Compact(t *testing.T) {
	buf := capture(t)

	if err := PrintJSON(sampleLogs()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	// Compact output should be a single line (plus newline from Encode)
	if strings.Count(out, "\n") > 1 {
		t.Errorf("compact output should be single line, got:\n%s", out)
	}
	var decoded LogsResult
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Entries[0].PageURL != "https://shop.example.com/cart" {
		t.Errorf("url: got %q", decoded.Entries[0].PageURL)
	}
}

func TestPrint_Formats(t *testing.T) {
	oldFormat, oldPretty := OutputFormat, PrettyOutput
	defer func() { OutputFormat, PrettyOutput = oldFormat, oldPretty }()

	tests := []struct {
		format    Format
		pretty    bool
		multiline bool
		prefix    string
	}{
		{FormatYAML, false, true, "match:"},
		{FormatJSON, false, false, "{"},
		{FormatJSON, true, true, "{"},
	}
	for _, tt := range tests {
		buf := capture(t)
		OutputFormat, PrettyOutput = tt.format, tt.pretty
		if err := Print(ClassifyResult{Match: true, Rule: "keyword", Element: model.ElementDescriptor{Tag: model.TagButton}}); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		if !strings.HasPrefix(out, tt.prefix) {
			t.Errorf("%s: output should start with %q, got %q", tt.format, tt.prefix, out)
		}
		if got := strings.Count(out, "\n") > 1; got != tt.multiline {
			t.Errorf("%s pretty=%v: multiline=%v, want %v", tt.format, tt.pretty, got, tt.multiline)
		}
	}

	OutputFormat = "xml"
	if err := Print(struct{}{}); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"yaml", "json"} {
		if f, err := ParseFormat(s); err != nil || string(f) != s {
			t.Errorf("ParseFormat(%q) = %q, %v", s, f, err)
		}
	}
	if _, err := ParseFormat("toml"); err == nil {
		t.Error("expected error for toml")
	}
}

func TestClassifyResult_OmitEmpty(t *testing.T) {
	data, err := yaml.Marshal(ClassifyResult{Element: model.ElementDescriptor{Tag: model.TagOther}})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	// Rule, field, keyword should be omitted for a non-match
	for _, k := range []string{"rule", "field", "keyword"} {
		if _, ok := m[k]; ok {
			t.Errorf("empty %s should be omitted", k)
		}
	}
	// match should always be present
	if _, ok := m["match"]; !ok {
		t.Error("match should always be present")
	}
}

func TestEventWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewEventWriter(&buf)
	_ = w.Write(model.GuardChange{Type: model.ChangeBlocked, TS: 1, Path: "body > button", Tag: model.TagButton, Text: "Buy <now>"})
	_ = w.Write(model.GuardChange{Type: model.ChangeGate, TS: 2, Gate: "g1", State: "counting", Remaining: 5})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "Buy <now>") {
		t.Errorf("HTML should not be escaped: %s", lines[0])
	}
	var c model.GuardChange
	if err := json.Unmarshal([]byte(lines[1]), &c); err != nil {
		t.Fatal(err)
	}
	if c.Remaining != 5 || c.Gate != "g1" {
		t.Errorf("decoded: %+v", c)
	}
}
