package cognition

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventory_FindsNestedDocuments(t *testing.T) {
	root := t.TempDir()

	p := NewProfile()
	p.Append(DecisionApproach, "Weighs tradeoffs before committing to a decision.")
	_, err := Write(p, root)
	require.NoError(t, err)
	_, err = Write(p, filepath.Join(root, "personas", "seller-1"))
	require.NoError(t, err)

	infos, err := Inventory(root)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	for _, info := range infos {
		assert.Equal(t, ModelVersion, info.ModelVersion)
		assert.Equal(t, 1, info.BulletCount)
		assert.NotZero(t, info.ModifiedAt)
	}
}

func TestInventory_SkipsMalformedDocuments(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, DocumentName), []byte("just some notes"), 0600))

	infos, err := Inventory(root)
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestInventory_EmptyDirectory(t *testing.T) {
	infos, err := Inventory(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestInventory_MissingRoot(t *testing.T) {
	_, err := Inventory(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
