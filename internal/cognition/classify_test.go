package cognition

import "testing"

func TestClassify_DecisionVocabulary(t *testing.T) {
	section, ok := Classify("Weighs the risk of each option before committing")
	if !ok {
		t.Fatal("line should classify")
	}
	if section != DecisionApproach {
		t.Errorf("section = %q, want %q", section, DecisionApproach)
	}
}

func TestClassify_LearningVocabulary(t *testing.T) {
	section, ok := Classify("Prefers to iterate quickly and learn from small experiments")
	if !ok {
		t.Fatal("line should classify")
	}
	if section != LearningStyle {
		t.Errorf("section = %q, want %q", section, LearningStyle)
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	// "decision" (DecisionApproach) is declared before "design"
	// (CoreThinkingPatterns); declaration order breaks the tie.
	section, ok := Classify("Every design decision gets written down first")
	if !ok {
		t.Fatal("line should classify")
	}
	if section != DecisionApproach {
		t.Errorf("section = %q, want %q (declaration order)", section, DecisionApproach)
	}
}

func TestClassify_NoMatchIsDropped(t *testing.T) {
	if _, ok := Classify("the quick brown fox jumps over the lazy dog"); ok {
		t.Error("line with no predicate vocabulary should be dropped, not defaulted")
	}
}

func TestClassify_ShortLinesDropped(t *testing.T) {
	if _, ok := Classify("risk tradeoff"); ok {
		t.Error("lines below the minimum word count should be dropped")
	}
}

func TestClassify_BlocklistDropped(t *testing.T) {
	for _, line := range []string{
		"(Important facts about the user)",
		"(User preferences learned over time)",
		"TBD",
	} {
		if _, ok := Classify(line); ok {
			t.Errorf("boilerplate %q should be dropped", line)
		}
	}
}

func TestClassify_EmptyLine(t *testing.T) {
	if _, ok := Classify("   "); ok {
		t.Error("blank line should be dropped")
	}
}
