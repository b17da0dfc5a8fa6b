package cognition

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hpungsan/mindprint/internal/errors"
)

// DocumentInfo is the metadata reported for one cognition document.
type DocumentInfo struct {
	Path         string `json:"path"`
	ModelVersion string `json:"model_version"`
	BulletCount  int    `json:"bullet_count"`
	ModifiedAt   int64  `json:"modified_at"`
}

// Inventory walks root and reports every parseable cognition document.
// Files that carry the document name but do not parse are skipped; a
// malformed document is not a profile.
func Inventory(root string) ([]DocumentInfo, error) {
	infos := make([]DocumentInfo, 0)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() || d.Name() != DocumentName {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		p, perr := Parse(string(data))
		if perr != nil {
			return nil
		}

		info := DocumentInfo{
			Path:         path,
			ModelVersion: p.ModelVersion,
			BulletCount:  p.BulletCount(),
		}
		if fi, serr := d.Info(); serr == nil {
			info.ModifiedAt = fi.ModTime().Unix()
		}
		infos = append(infos, info)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewInvalidRequest("no such directory: " + root)
		}
		return nil, errors.NewInternal(err)
	}
	return infos, nil
}
