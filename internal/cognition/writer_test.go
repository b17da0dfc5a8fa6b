package cognition

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/mindprint/internal/errors"
)

func sampleProfile() *Profile {
	p := NewProfile()
	p.Append(CoreThinkingPatterns, "Breaks problems into small composable systems")
	p.Append(DecisionApproach, "Validates assumptions before committing to a decision")
	p.Append(ExperienceThemes, "Collaborative project work across distributed teams")
	return p
}

func TestRender_SectionOrderAndVersionStamp(t *testing.T) {
	doc := Render(sampleProfile())

	require.True(t, strings.HasPrefix(doc, DocumentHeader+"\n"))

	// All six sections present, in order, even the empty ones.
	lastIdx := -1
	for _, name := range SectionOrder {
		idx := strings.Index(doc, "## "+string(name))
		require.NotEqual(t, -1, idx, "section %q missing", name)
		assert.Greater(t, idx, lastIdx, "section %q out of order", name)
		lastIdx = idx
	}

	// Exactly one version line, equal to the schema constant.
	assert.Equal(t, 1, strings.Count(doc, "Cognition Model Version: "))
	assert.Contains(t, doc, "Cognition Model Version: "+ModelVersion)
}

func TestWrite_CreatesDirAndFile(t *testing.T) {
	destDir := filepath.Join(t.TempDir(), ".mindprint")

	path, err := Write(sampleProfile(), destDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(destDir, DocumentName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Render(sampleProfile()), string(data))

	// No temp files left behind.
	entries, err := os.ReadDir(destDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWrite_Idempotent(t *testing.T) {
	destDir := t.TempDir()

	_, err := Write(sampleProfile(), destDir)
	require.NoError(t, err)
	_, err = Write(sampleProfile(), destDir)
	require.NoError(t, err)
}

func TestParse_RoundTrip(t *testing.T) {
	original := sampleProfile()

	parsed, err := Parse(Render(original))
	require.NoError(t, err)

	assert.Equal(t, original.ModelVersion, parsed.ModelVersion)
	assert.Equal(t, original.BulletCount(), parsed.BulletCount())
	assert.Equal(t, Render(original), Render(parsed))
}

func TestParse_RejectsRawMemoryText(t *testing.T) {
	raw := "## User Information\n- Works with Jane Doe (jane@acme.com)\n"

	_, err := Parse(raw)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "raw memory must not parse as a cognition document")
}

func TestParse_RejectsUnknownSection(t *testing.T) {
	doc := DocumentHeader + "\n\n## Secret Notes\n- something\n\nCognition Model Version: 2.0\n"

	_, err := Parse(doc)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestParse_RequiresExactlyOneVersionLine(t *testing.T) {
	noVersion := DocumentHeader + "\n\n## Core Thinking Patterns\n"
	_, err := Parse(noVersion)
	assert.Error(t, err)

	double := Render(sampleProfile()) + "Cognition Model Version: 2.0\n"
	_, err = Parse(double)
	assert.Error(t, err)
}
