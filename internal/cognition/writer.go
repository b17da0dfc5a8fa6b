package cognition

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/mindprint/internal/errors"
)

// DocumentName is the canonical file name of a cognition document.
const DocumentName = "cognition.md"

// DocumentHeader is the first line of every cognition document.
const DocumentHeader = "# 🧠 Cognitive Profile"

// versionPrefix introduces the single version stamp line.
const versionPrefix = "Cognition Model Version: "

// Render serializes the profile to the canonical document format. Sections
// appear in fixed order; empty sections are emitted with zero bullets so the
// schema stays stable for downstream parsers. Exactly one version line is
// written, verbatim from the profile.
func Render(p *Profile) string {
	var b strings.Builder
	b.WriteString(DocumentHeader)
	b.WriteString("\n")

	for _, name := range SectionOrder {
		b.WriteString("\n## ")
		b.WriteString(string(name))
		b.WriteString("\n")
		for _, s := range p.Sections {
			if s.Name != name {
				continue
			}
			for _, bullet := range s.Bullets {
				b.WriteString("- ")
				b.WriteString(bullet)
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\n")
	b.WriteString(versionPrefix)
	b.WriteString(p.ModelVersion)
	b.WriteString("\n")
	return b.String()
}

// Write serializes the profile into destDir/cognition.md and returns the
// written path. The directory is created if absent. The document is staged in
// a temp file and atomically renamed into place so a half-written file is
// never observable.
func Write(p *Profile, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0700); err != nil {
		return "", errors.NewWriteFailed(err)
	}

	destPath := filepath.Join(destDir, DocumentName)

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return "", errors.NewWriteFailed(err)
	}
	tempPath := destPath + "." + hex.EncodeToString(randBytes) + ".tmp"

	if err := os.WriteFile(tempPath, []byte(Render(p)), 0600); err != nil {
		return "", errors.NewWriteFailed(err)
	}
	if err := os.Rename(tempPath, destPath); err != nil {
		_ = os.Remove(tempPath)
		return "", errors.NewWriteFailed(err)
	}

	return destPath, nil
}

// Parse is the strict inverse of Render. It accepts only well-formed
// cognition documents: the canonical header, known section names, and exactly
// one version line. Anything else is rejected, which is what keeps raw memory
// text from ever round-tripping through the persona store.
func Parse(text string) (*Profile, error) {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != DocumentHeader {
		return nil, errors.NewInvalidRequest("not a cognition document: missing header")
	}

	known := make(map[string]SectionName, len(SectionOrder))
	for _, name := range SectionOrder {
		known[string(name)] = name
	}

	p := NewProfile()
	var current SectionName
	inSection := false
	versions := 0

	for _, line := range lines[1:] {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "## "):
			name, ok := known[strings.TrimPrefix(trimmed, "## ")]
			if !ok {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown cognition section: %s", trimmed))
			}
			current = name
			inSection = true
		case strings.HasPrefix(trimmed, versionPrefix):
			versions++
			p.ModelVersion = strings.TrimSpace(strings.TrimPrefix(trimmed, versionPrefix))
			inSection = false
		case strings.HasPrefix(trimmed, "- "):
			if !inSection {
				return nil, errors.NewInvalidRequest("bullet outside of any section")
			}
			p.Append(current, strings.TrimPrefix(trimmed, "- "))
		case trimmed == "":
			// blank lines are structural noise
		default:
			return nil, errors.NewInvalidRequest(fmt.Sprintf("unexpected content line: %q", trimmed))
		}
	}

	if versions != 1 {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("expected exactly one version line, found %d", versions))
	}
	if p.ModelVersion == "" {
		return nil, errors.NewInvalidRequest("empty model version")
	}

	return p, nil
}
