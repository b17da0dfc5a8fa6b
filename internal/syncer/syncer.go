package syncer

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"

	"github.com/hpungsan/mindprint/internal/cognition"
	"github.com/hpungsan/mindprint/internal/distill"
	"github.com/hpungsan/mindprint/internal/errors"
	"github.com/hpungsan/mindprint/internal/rental"
	"github.com/hpungsan/mindprint/internal/store"
	"github.com/hpungsan/mindprint/internal/telemetry"
)

// personasDirName is where pulled seller profiles are materialized under the
// base directory.
const personasDirName = "personas"

// SyncResult reports what one sync run produced.
type SyncResult struct {
	DocumentPath string `json:"document_path"`
	BulletCount  int    `json:"bullet_count"`
	Distilled    bool   `json:"distilled"`
}

// PullResult reports where a rented profile was materialized.
type PullResult struct {
	SellerUserID string `json:"seller_user_id"`
	DocumentPath string `json:"document_path"`
}

// Syncer runs seller sync and buyer pull flows. Concurrent syncs of the same
// workspace collapse into one run; distinct workspaces proceed in parallel.
type Syncer struct {
	store   *store.Store
	rentals *rental.Service
	group   singleflight.Group
}

func New(st *store.Store, rentals *rental.Service) *Syncer {
	return &Syncer{store: st, rentals: rentals}
}

// Sync distills the workspace's memory files into a cognition document,
// writes it into the workspace, and publishes it to the persona store along
// with seller telemetry. If the workspace has no memory files but carries a
// previously distilled document, that document is published as-is.
func (s *Syncer) Sync(ctx context.Context, userID, workspaceDir string) (*SyncResult, error) {
	key, err := workspaceKey(workspaceDir)
	if err != nil {
		return nil, err
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.syncOnce(ctx, userID, workspaceDir)
	})
	if err != nil {
		return nil, err
	}
	return v.(*SyncResult), nil
}

func (s *Syncer) syncOnce(ctx context.Context, userID, workspaceDir string) (*SyncResult, error) {
	profile, distilled, err := s.loadOrDistill(workspaceDir)
	if err != nil {
		return nil, err
	}

	docPath := filepath.Join(workspaceDir, cognition.DocumentName)
	if distilled {
		docPath, err = cognition.Write(profile, workspaceDir)
		if err != nil {
			return nil, err
		}
	}

	if err := s.store.UpsertSeller(ctx, telemetry.Snapshot(userID)); err != nil {
		return nil, err
	}
	if err := s.store.SaveAsset(ctx, userID, profile); err != nil {
		return nil, err
	}

	return &SyncResult{
		DocumentPath: docPath,
		BulletCount:  profile.BulletCount(),
		Distilled:    distilled,
	}, nil
}

// loadOrDistill prefers a fresh distillation from memory sources and falls
// back to an existing cognition document.
func (s *Syncer) loadOrDistill(workspaceDir string) (*cognition.Profile, bool, error) {
	sources, err := distill.LoadSources(workspaceDir)
	if err == nil {
		p, derr := distill.Distill(sources)
		if derr != nil {
			return nil, false, derr
		}
		return p, true, nil
	}
	if !errors.Is(err, errors.ErrSourceNotFound) {
		return nil, false, err
	}

	data, rerr := os.ReadFile(filepath.Join(workspaceDir, cognition.DocumentName))
	if rerr != nil {
		return nil, false, err
	}
	p, perr := cognition.Parse(string(data))
	if perr != nil {
		return nil, false, perr
	}
	return p, false, nil
}

// Pull validates a rental token, materializes the seller's cognition
// document under personas/<seller>/ in the base directory, and records buyer
// telemetry.
func (s *Syncer) Pull(ctx context.Context, buyerUserID, token, baseDir string) (*PullResult, error) {
	profile, row, err := s.rentals.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	destDir := filepath.Join(baseDir, personasDirName, row.SellerUserID)
	docPath, err := cognition.Write(profile, destDir)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpsertBuyer(ctx, telemetry.Snapshot(buyerUserID)); err != nil {
		return nil, err
	}

	return &PullResult{
		SellerUserID: row.SellerUserID,
		DocumentPath: docPath,
	}, nil
}

// workspaceKey normalizes a workspace path so concurrent syncs of the same
// directory share one singleflight slot even when spelled differently.
func workspaceKey(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.NewInvalidRequest("invalid workspace path: " + dir)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return filepath.Clean(abs), nil
}
