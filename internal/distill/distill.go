package distill

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/hpungsan/mindprint/internal/cognition"
	"github.com/hpungsan/mindprint/internal/redact"
)

// Distill runs the full pipeline over the given sources and returns a
// populated cognition profile. The stages run strictly in order: sources are
// concatenated (facts before events), the concatenation is redacted as a
// whole so values split across adjacent lines are still matched, and only the
// redacted text is ever split and classified.
func Distill(sources []Source) (*cognition.Profile, error) {
	combined := concatenate(sources)

	redacted, err := redact.Redact(combined)
	if err != nil {
		return nil, err
	}

	profile := cognition.NewProfile()
	seen := make(map[string]bool)

	for _, line := range candidateLines(redacted.Text) {
		section, ok := cognition.Classify(line)
		if !ok {
			continue
		}
		// Generalize pass: a line that still carries a proper-noun-like
		// fragment the catalog did not catch is dropped entirely. If
		// uncertain, remove.
		if containsProperNoun(line) {
			continue
		}
		if seen[line] {
			continue
		}
		seen[line] = true
		profile.Append(section, line)
	}

	return profile, nil
}

// concatenate joins source text in a fixed deterministic order:
// facts first, then events, preserving given order within each kind.
func concatenate(sources []Source) string {
	var b strings.Builder
	for _, kind := range []SourceKind{KindFact, KindEvent} {
		for _, s := range sources {
			if s.Kind != kind {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// candidateLines splits redacted markdown into classification candidates:
// list item text and paragraph text, in document order. Headings, code
// blocks, and other structural nodes are not candidates.
func candidateLines(redacted string) []string {
	src := []byte(redacted)
	root := goldmark.New().Parser().Parse(text.NewReader(src))

	var lines []string
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindParagraph, ast.KindTextBlock:
			var parts []string
			segs := n.Lines()
			for i := 0; i < segs.Len(); i++ {
				seg := segs.At(i)
				if part := strings.TrimSpace(string(seg.Value(src))); part != "" {
					parts = append(parts, part)
				}
			}
			if line := strings.Join(parts, " "); line != "" {
				lines = append(lines, line)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return lines
}

// properNounWord matches a capitalized word (an unredacted concrete noun
// candidate). Placeholders like [NAME] are all-caps and never match.
var properNounWord = regexp.MustCompile(`^[A-Z][a-z]+$`)

// sentenceStarters are the capitalized words allowed to open a bullet in
// ordinary sentence case: verbs and function words drawn from the classifier
// vocabulary. A bullet opening with any other capitalized word (a bare first
// name, a product name) is ambiguous and the line is dropped.
var sentenceStarters = map[string]bool{
	"a": true, "after": true, "an": true, "approaches": true, "automates": true,
	"avoids": true, "balances": true, "before": true, "breaks": true,
	"builds": true, "built": true, "considers": true, "debugs": true,
	"decides": true, "delivers": true, "designs": true, "evaluates": true,
	"executes": true, "experiments": true, "explores": true, "focuses": true,
	"generally": true, "good": true, "has": true, "implements": true,
	"is": true, "iterated": true, "iterates": true, "leans": true,
	"learned": true, "learns": true, "likes": true, "often": true,
	"practices": true, "prefers": true, "prioritizes": true, "refactors": true,
	"relies": true, "seeks": true, "shipped": true, "ships": true,
	"strong": true, "studies": true, "tends": true, "the": true,
	"they": true, "thinks": true, "this": true, "typically": true,
	"uses": true, "usually": true, "validated": true, "validates": true,
	"weighs": true, "when": true, "works": true, "worked": true,
}

// containsProperNoun reports whether any word of the line looks like a
// proper noun. The first word is exempt only when it is a recognized
// sentence starter; if uncertain, the caller drops the line.
func containsProperNoun(line string) bool {
	for i, w := range strings.Fields(line) {
		w = strings.Trim(w, ".,;:!?()[]'\"")
		if !properNounWord.MatchString(w) {
			continue
		}
		if i == 0 && sentenceStarters[strings.ToLower(w)] {
			continue
		}
		return true
	}
	return false
}
