package cognition

import (
	"slices"
	"strings"
)

// MinLineWords is the default minimum word count for a classifiable line.
// Shorter lines carry too little signal and are discarded.
const MinLineWords = 4

// predicate pairs a section with the vocabulary that routes a line into it.
// Keywords are matched case-insensitively as substrings of the lowercased
// line, so stems like "collaborat" cover several inflections.
type predicate struct {
	Section  SectionName
	Keywords []string
}

// predicates is the ordered classifier table. First match wins; order breaks
// ties between sections whose vocabularies could both match a line.
var predicates = []predicate{
	{
		Section: DecisionApproach,
		Keywords: []string{
			"decision", "decide", "tradeoff", "trade-off", "risk",
			"validate", "validation", "evaluate", "criteria", "weigh",
			"option", "prioritize",
		},
	},
	{
		Section: LearningStyle,
		Keywords: []string{
			"learn", "iterate", "iteration", "experiment", "explore",
			"practice", "study", "feedback", "curious", "read up",
		},
	},
	{
		Section: ExecutionTendencies,
		Keywords: []string{
			"workflow", "pipeline", "automate", "automation", "execute",
			"implement", "ship", "deliver", "debug", "refactor",
			"incremental", "checklist",
		},
	},
	{
		Section: CognitiveStrengths,
		Keywords: []string{
			"strength", "good at", "excel", "insight", "discovered",
			"realized", "found that", "noticed", "spot",
		},
	},
	{
		Section: CoreThinkingPatterns,
		Keywords: []string{
			"pattern", "architecture", "design", "system", "framework",
			"approach", "model", "abstraction", "structure", "principle",
			"first principles",
		},
	},
	{
		Section: ExperienceThemes,
		Keywords: []string{
			"project", "team", "collaborat", "worked", "works with",
			"built", "shipped", "experience", "customer", "stakeholder",
		},
	},
}

// blocklist contains boilerplate lines that are never classified, regardless
// of vocabulary. These are the scaffold placeholders memory files ship with.
var blocklist = []string{
	"(important facts about the user)",
	"(user preferences learned over time)",
	"(information about ongoing projects)",
	"(things to remember)",
	"(pending)",
	"(none)",
	"tbd",
	"n/a",
}

// Classify maps a redacted line to a cognition section. The second return is
// false when the line is discarded: too short, boilerplate, or matching no
// predicate. There is no catch-all section; ambiguous content is dropped
// rather than guessed.
func Classify(line string) (SectionName, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "", false
	}

	lower := strings.ToLower(trimmed)
	if slices.Contains(blocklist, lower) {
		return "", false
	}

	if len(strings.Fields(trimmed)) < MinLineWords {
		return "", false
	}

	for _, p := range predicates {
		for _, kw := range p.Keywords {
			if strings.Contains(lower, kw) {
				return p.Section, true
			}
		}
	}

	return "", false
}
