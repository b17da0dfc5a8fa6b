package distill

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpungsan/mindprint/internal/cognition"
	"github.com/hpungsan/mindprint/internal/errors"
)

func TestDistill_NoRawLeak(t *testing.T) {
	sources := []Source{{
		Kind: KindFact,
		Path: "MEMORY.md",
		Text: "## Project Context\n- Works with Jane Doe (jane@acme.com) on project Falcon, customer ACME-2024-001\n",
	}}

	profile, err := Distill(sources)
	if err != nil {
		t.Fatalf("Distill failed: %v", err)
	}

	doc := cognition.Render(profile)
	for _, leaked := range []string{"jane@acme.com", "ACME-2024-001", "Jane Doe", "Falcon"} {
		if strings.Contains(doc, leaked) {
			t.Errorf("distilled output leaks %q:\n%s", leaked, doc)
		}
	}
}

func TestDistill_ClassifiesCleanLines(t *testing.T) {
	sources := []Source{{
		Kind: KindFact,
		Path: "MEMORY.md",
		Text: "- Prefers to validate assumptions before making a decision\n",
	}}

	profile, err := Distill(sources)
	if err != nil {
		t.Fatalf("Distill failed: %v", err)
	}

	var bullets []string
	for _, s := range profile.Sections {
		if s.Name == cognition.DecisionApproach {
			bullets = s.Bullets
		}
	}
	if len(bullets) != 1 {
		t.Fatalf("DecisionApproach bullets = %v, want exactly one", bullets)
	}
	if !strings.Contains(bullets[0], "validate assumptions") {
		t.Errorf("bullet = %q, want the validated line", bullets[0])
	}
}

func TestDistill_FactsBeforeEvents(t *testing.T) {
	// Event source supplied first; facts must still come first in output.
	sources := []Source{
		{Kind: KindEvent, Path: "HISTORY.md", Text: "- Iterated on the rollout until feedback stabilized\n"},
		{Kind: KindFact, Path: "MEMORY.md", Text: "- Learns best by running small experiments first\n"},
	}

	profile, err := Distill(sources)
	if err != nil {
		t.Fatalf("Distill failed: %v", err)
	}

	var bullets []string
	for _, s := range profile.Sections {
		if s.Name == cognition.LearningStyle {
			bullets = s.Bullets
		}
	}
	if len(bullets) != 2 {
		t.Fatalf("LearningStyle bullets = %v, want 2", bullets)
	}
	if !strings.Contains(bullets[0], "experiments") {
		t.Errorf("fact line should come first, got %q", bullets[0])
	}
	if !strings.Contains(bullets[1], "rollout") {
		t.Errorf("event line should come second, got %q", bullets[1])
	}
}

func TestDistill_DropsProperNounLines(t *testing.T) {
	sources := []Source{{
		Kind: KindFact,
		Text: "- Prefers to validate decisions against the Gemini dashboard\n",
	}}

	profile, err := Distill(sources)
	if err != nil {
		t.Fatalf("Distill failed: %v", err)
	}
	if profile.BulletCount() != 0 {
		t.Errorf("line with stray proper noun should be dropped, got %d bullets", profile.BulletCount())
	}
}

func TestDistill_DropsNameLeadingLines(t *testing.T) {
	sources := []Source{{
		Kind: KindFact,
		Text: "- Alice prefers to validate assumptions before any decision\n",
	}}

	profile, err := Distill(sources)
	if err != nil {
		t.Fatalf("Distill failed: %v", err)
	}

	doc := cognition.Render(profile)
	if strings.Contains(doc, "Alice") {
		t.Errorf("bare first name leaked into the document:\n%s", doc)
	}
	if profile.BulletCount() != 0 {
		t.Errorf("line opening with an unrecognized capitalized word should be dropped, got %d bullets", profile.BulletCount())
	}
}

func TestDistill_DeduplicatesLines(t *testing.T) {
	sources := []Source{{
		Kind: KindFact,
		Text: "- Prefers to validate assumptions before making a decision\n- Prefers to validate assumptions before making a decision\n",
	}}

	profile, err := Distill(sources)
	if err != nil {
		t.Fatalf("Distill failed: %v", err)
	}
	if profile.BulletCount() != 1 {
		t.Errorf("BulletCount = %d, want 1 after dedup", profile.BulletCount())
	}
}

func TestDistill_InvalidUTF8FailsClosed(t *testing.T) {
	sources := []Source{{Kind: KindFact, Text: "bad \xff bytes"}}

	_, err := Distill(sources)
	if !errors.Is(err, errors.ErrRedactionFailed) {
		t.Errorf("err = %v, want REDACTION_FAILED", err)
	}
}

func TestDistill_SkipsHeadingsAndCode(t *testing.T) {
	sources := []Source{{
		Kind: KindFact,
		Text: "## Decision notes\n\n```\nvalidate the decision inside a code block\n```\n",
	}}

	profile, err := Distill(sources)
	if err != nil {
		t.Fatalf("Distill failed: %v", err)
	}
	if profile.BulletCount() != 0 {
		t.Errorf("headings and fenced code are not candidates, got %d bullets", profile.BulletCount())
	}
}

func TestLoadSources_BothFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, MemoryFileName), []byte("- a fact"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, HistoryFileName), []byte("- an event"), 0600); err != nil {
		t.Fatal(err)
	}

	sources, err := LoadSources(dir)
	if err != nil {
		t.Fatalf("LoadSources failed: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("len(sources) = %d, want 2", len(sources))
	}
	if sources[0].Kind != KindFact || sources[1].Kind != KindEvent {
		t.Errorf("kinds = %v/%v, want fact/event", sources[0].Kind, sources[1].Kind)
	}
}

func TestLoadSources_MemoryOnly(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, MemoryFileName), []byte("- a fact"), 0600); err != nil {
		t.Fatal(err)
	}

	sources, err := LoadSources(dir)
	if err != nil {
		t.Fatalf("LoadSources failed: %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("len(sources) = %d, want 1", len(sources))
	}
}

func TestLoadSources_NeitherFile(t *testing.T) {
	_, err := LoadSources(t.TempDir())
	if !errors.Is(err, errors.ErrSourceNotFound) {
		t.Errorf("err = %v, want SOURCE_NOT_FOUND", err)
	}
}
