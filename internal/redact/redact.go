package redact

import (
	"sort"
	"unicode/utf8"

	"github.com/hpungsan/mindprint/internal/errors"
)

// Result holds redacted text and the number of replacements per category.
type Result struct {
	Text   string
	Counts map[Category]int
}

// span is a half-open byte range [Start, End) consumed by a rule.
type span struct {
	Start, End  int
	Category    Category
	Placeholder string
}

// Redact applies the pattern catalog to text in priority order and replaces
// each match with its category placeholder. Once a span is consumed by an
// earlier rule, later rules cannot match inside it. The operation is pure and
// idempotent: running Redact on its own output returns identical text.
//
// Malformed (non-UTF-8) input fails fast with REDACTION_FAILED rather than
// producing a partially redacted result.
func Redact(text string) (*Result, error) {
	if !utf8.ValidString(text) {
		return nil, errors.NewRedactionFailed("input is not valid UTF-8")
	}

	var consumed []span
	counts := make(map[Category]int)

	for _, rule := range catalog {
		matches := rule.Matcher.FindAllStringIndex(text, -1)
		for _, m := range matches {
			if overlapsAny(m[0], m[1], consumed) {
				continue
			}
			consumed = append(consumed, span{
				Start:       m[0],
				End:         m[1],
				Category:    rule.Category,
				Placeholder: rule.Placeholder,
			})
			counts[rule.Category]++
		}
	}

	if len(consumed) == 0 {
		return &Result{Text: text, Counts: counts}, nil
	}

	sort.Slice(consumed, func(i, j int) bool {
		return consumed[i].Start < consumed[j].Start
	})

	var b []byte
	prev := 0
	for _, s := range consumed {
		b = append(b, text[prev:s.Start]...)
		b = append(b, s.Placeholder...)
		prev = s.End
	}
	b = append(b, text[prev:]...)

	return &Result{Text: string(b), Counts: counts}, nil
}

// MatchesAnyRule reports whether any catalog rule matches anywhere in text.
// Used to verify the closure property on redacted output.
func MatchesAnyRule(text string) bool {
	for _, rule := range catalog {
		if rule.Matcher.MatchString(text) {
			return true
		}
	}
	return false
}

// overlapsAny reports whether [start, end) intersects any consumed span.
func overlapsAny(start, end int, spans []span) bool {
	for _, s := range spans {
		if start < s.End && end > s.Start {
			return true
		}
	}
	return false
}
