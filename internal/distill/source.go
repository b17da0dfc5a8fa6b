package distill

import (
	"os"
	"path/filepath"

	"github.com/hpungsan/mindprint/internal/errors"
)

// SourceKind distinguishes durable facts from event history.
type SourceKind string

const (
	KindFact  SourceKind = "fact"
	KindEvent SourceKind = "event"
)

// Source is a raw memory text blob. Sources are ephemeral: read once per
// distillation run and never persisted or written to any shareable artifact.
type Source struct {
	Kind SourceKind
	Path string
	Text string
}

// Memory source file names, in the order they are read.
const (
	MemoryFileName  = "MEMORY.md"
	HistoryFileName = "HISTORY.md"
)

// LoadSources reads MEMORY.md and HISTORY.md from dir. Either file may be
// absent; if neither exists the run fails with SOURCE_NOT_FOUND.
func LoadSources(dir string) ([]Source, error) {
	var sources []Source

	memPath := filepath.Join(dir, MemoryFileName)
	if data, err := os.ReadFile(memPath); err == nil {
		sources = append(sources, Source{Kind: KindFact, Path: memPath, Text: string(data)})
	} else if !os.IsNotExist(err) {
		return nil, errors.NewInternal(err)
	}

	histPath := filepath.Join(dir, HistoryFileName)
	if data, err := os.ReadFile(histPath); err == nil {
		sources = append(sources, Source{Kind: KindEvent, Path: histPath, Text: string(data)})
	} else if !os.IsNotExist(err) {
		return nil, errors.NewInternal(err)
	}

	if len(sources) == 0 {
		return nil, errors.NewSourceNotFound(dir)
	}

	return sources, nil
}
