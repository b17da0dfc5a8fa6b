package syncer

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/mindprint/internal/cognition"
	"github.com/hpungsan/mindprint/internal/config"
	"github.com/hpungsan/mindprint/internal/errors"
	"github.com/hpungsan/mindprint/internal/rental"
	"github.com/hpungsan/mindprint/internal/store"
)

func newSyncer(t *testing.T) (*Syncer, *store.Store) {
	t.Helper()
	st, err := store.Open(t.TempDir(), config.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st, rental.NewService(st, config.DefaultConfig())), st
}

func writeMemory(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "MEMORY.md"), []byte(content), 0600))
}

const memoryText = `# Memory

- Prefers to validate assumptions and weigh tradeoffs before a decision is made.
- Learns new frameworks through small iterative experiments and feedback.
`

func TestSync_DistillsAndPublishes(t *testing.T) {
	s, st := newSyncer(t)
	workspace := t.TempDir()
	writeMemory(t, workspace, memoryText)

	res, err := s.Sync(context.Background(), "seller-1", workspace)
	require.NoError(t, err)
	assert.True(t, res.Distilled)
	assert.Greater(t, res.BulletCount, 0)

	// The document lands in the workspace.
	data, err := os.ReadFile(res.DocumentPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), cognition.DocumentHeader)

	// And in the persona store.
	p, err := st.GetAsset(context.Background(), "seller-1")
	require.NoError(t, err)
	assert.Equal(t, res.BulletCount, p.BulletCount())

	// Seller telemetry rides along.
	rec, err := st.GetSeller(context.Background(), "seller-1")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.HostFingerprint)
}

func TestSync_FallsBackToExistingDocument(t *testing.T) {
	s, st := newSyncer(t)
	workspace := t.TempDir()

	p := cognition.NewProfile()
	p.Append(cognition.ExecutionTendencies, "Automates repetitive steps into a repeatable pipeline.")
	_, err := cognition.Write(p, workspace)
	require.NoError(t, err)

	res, err := s.Sync(context.Background(), "seller-1", workspace)
	require.NoError(t, err)
	assert.False(t, res.Distilled)
	assert.Equal(t, 1, res.BulletCount)

	got, err := st.GetAsset(context.Background(), "seller-1")
	require.NoError(t, err)
	assert.Equal(t, cognition.Render(p), cognition.Render(got))
}

func TestSync_NoSourcesAnywhere(t *testing.T) {
	s, _ := newSyncer(t)
	_, err := s.Sync(context.Background(), "seller-1", t.TempDir())
	assert.True(t, errors.Is(err, errors.ErrSourceNotFound), "got %v", err)
}

func TestSync_ConcurrentSameWorkspace(t *testing.T) {
	s, _ := newSyncer(t)
	workspace := t.TempDir()
	writeMemory(t, workspace, memoryText)

	var wg sync.WaitGroup
	results := make([]*SyncResult, 8)
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.Sync(context.Background(), "seller-1", workspace)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].BulletCount, results[i].BulletCount)
	}
}

func TestPull_MaterializesPersona(t *testing.T) {
	s, st := newSyncer(t)
	baseDir := t.TempDir()
	workspace := t.TempDir()
	writeMemory(t, workspace, memoryText)

	_, err := s.Sync(context.Background(), "seller-1", workspace)
	require.NoError(t, err)

	svc := rental.NewService(st, config.DefaultConfig())
	r, err := svc.Issue(context.Background(), "seller-1", rental.IssueOptions{})
	require.NoError(t, err)

	res, err := s.Pull(context.Background(), "buyer-1", r.Token, baseDir)
	require.NoError(t, err)
	assert.Equal(t, "seller-1", res.SellerUserID)
	assert.Equal(t, filepath.Join(baseDir, "personas", "seller-1", cognition.DocumentName), res.DocumentPath)

	data, err := os.ReadFile(res.DocumentPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Cognition Model Version:")

	rec, err := st.GetBuyer(context.Background(), "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, "buyer-1", rec.UserID)
}

func TestPull_RevokedToken(t *testing.T) {
	s, st := newSyncer(t)
	workspace := t.TempDir()
	writeMemory(t, workspace, memoryText)
	_, err := s.Sync(context.Background(), "seller-1", workspace)
	require.NoError(t, err)

	svc := rental.NewService(st, config.DefaultConfig())
	r, err := svc.Issue(context.Background(), "seller-1", rental.IssueOptions{})
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(context.Background(), r.Token))

	_, err = s.Pull(context.Background(), "buyer-1", r.Token, t.TempDir())
	assert.True(t, errors.Is(err, errors.ErrTokenRevoked), "got %v", err)
}
