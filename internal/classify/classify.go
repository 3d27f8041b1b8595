// Package classify decides whether a UI element is a checkout or payment
// trigger. Everything here is pure: the same descriptor always yields the
// same verdict.
package classify

import (
	"strings"

	"github.com/mj1618/shopshield/internal/model"
	"golang.org/x/text/unicode/norm"
)

// Rule names reported by Explain.
const (
	RuleKeyword   = "keyword"
	RuleCardField = "card-field"
)

// Verdict explains a classification.
type Verdict struct {
	Match   bool   `yaml:"match"             json:"match"`
	Rule    string `yaml:"rule,omitempty"    json:"rule,omitempty"`
	Field   string `yaml:"field,omitempty"   json:"field,omitempty"`
	Keyword string `yaml:"keyword,omitempty" json:"keyword,omitempty"`
}

// Classify reports whether d looks like a checkout or payment trigger.
func Classify(d model.ElementDescriptor) bool {
	return Explain(d).Match
}

// Explain is Classify with the first rule that fired.
func Explain(d model.ElementDescriptor) Verdict {
	for _, f := range d.TextFields() {
		text := Normalize(f.Value)
		if text == "" {
			continue
		}
		for _, kw := range Keywords {
			if strings.Contains(text, kw) {
				return Verdict{Match: true, Rule: RuleKeyword, Field: f.Name, Keyword: kw}
			}
		}
	}

	if d.Tag == model.TagInput && cardFieldInputTypes[Normalize(d.InputType)] {
		name := Normalize(d.Name)
		for _, frag := range CardFieldFragments {
			if strings.Contains(name, frag) {
				return Verdict{Match: true, Rule: RuleCardField, Field: "name", Keyword: frag}
			}
		}
	}
	return Verdict{}
}

// Normalize folds s for matching: NFKC, lowercase, trimmed, with internal
// whitespace runs collapsed to a single space.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(norm.NFKC.String(s))
	return strings.Join(strings.Fields(s), " ")
}
