package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"path"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/mindprint/internal/cognition"
	"github.com/hpungsan/mindprint/internal/errors"
)

// assetFileName is the logical path recorded for distilled cognition
// documents. Prefixed with the seller's user ID so the uniqueness constraint
// on (file_path, content_hash) is scoped per seller.
const assetFileName = ".mindprint/cognition.md"

// InstallRecord describes one CLI installation, seller or buyer side.
// Metadata carries environment details as an opaque JSON object.
type InstallRecord struct {
	UserID          string
	HostFingerprint string
	FirstSeen       int64
	LastSeen        int64
	Metadata        map[string]string
}

// Rental is one issued rental token row. ExpiresAt is nil for tokens issued
// without an expiry; RevokedAt is nil until the token is revoked.
type Rental struct {
	Token        string
	SellerUserID string
	CreatedAt    int64
	ExpiresAt    *int64
	RevokedAt    *int64
}

// UpsertSeller records a seller installation. First-seen is preserved across
// updates and last-seen never moves backwards.
func (s *Store) UpsertSeller(ctx context.Context, rec *InstallRecord) error {
	return s.upsertInstall(ctx, "sellers", rec)
}

// UpsertBuyer records a buyer installation with the same semantics as
// UpsertSeller.
func (s *Store) UpsertBuyer(ctx context.Context, rec *InstallRecord) error {
	return s.upsertInstall(ctx, "buyers", rec)
}

func (s *Store) upsertInstall(ctx context.Context, table string, rec *InstallRecord) error {
	if rec.UserID == "" {
		return errors.NewInvalidRequest("user ID is required")
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	metaJSON := "{}"
	if len(rec.Metadata) > 0 {
		b, err := json.Marshal(rec.Metadata)
		if err != nil {
			return errors.NewInvalidRequest("metadata is not serializable")
		}
		metaJSON = string(b)
	}

	seen := rec.LastSeen
	if seen == 0 {
		seen = time.Now().Unix()
	}
	first := rec.FirstSeen
	if first == 0 {
		first = seen
	}

	// The table name is one of two compile-time constants, never user input.
	query := `
		INSERT INTO ` + table + ` (user_id, host_fingerprint, first_seen, last_seen, metadata_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			host_fingerprint = excluded.host_fingerprint,
			last_seen        = MAX(last_seen, excluded.last_seen),
			metadata_json    = excluded.metadata_json`
	if _, err := s.db.ExecContext(ctx, query, rec.UserID, rec.HostFingerprint, first, seen, metaJSON); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

// GetSeller loads one seller installation record.
func (s *Store) GetSeller(ctx context.Context, userID string) (*InstallRecord, error) {
	return s.getInstall(ctx, "sellers", userID)
}

// GetBuyer loads one buyer installation record.
func (s *Store) GetBuyer(ctx context.Context, userID string) (*InstallRecord, error) {
	return s.getInstall(ctx, "buyers", userID)
}

func (s *Store) getInstall(ctx context.Context, table string, userID string) (*InstallRecord, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	rec := &InstallRecord{}
	var metaJSON string
	query := `SELECT user_id, host_fingerprint, first_seen, last_seen, metadata_json FROM ` + table + ` WHERE user_id = ?`
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&rec.UserID, &rec.HostFingerprint, &rec.FirstSeen, &rec.LastSeen, &metaJSON)
	if err == sql.ErrNoRows {
		return nil, errors.NewSellerNotFound(userID)
	}
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if metaJSON != "" {
		_ = json.Unmarshal([]byte(metaJSON), &rec.Metadata)
	}
	return rec, nil
}

// SaveAsset persists the rendered cognition document for a seller. A new
// save fully replaces any previous asset for that seller; readers never see
// a partial update because the replacement happens in one transaction.
//
// Only a structured Profile is accepted here. Raw memory text has no path
// into the store.
func (s *Store) SaveAsset(ctx context.Context, userID string, profile *cognition.Profile) error {
	if userID == "" {
		return errors.NewInvalidRequest("user ID is required")
	}
	if profile == nil {
		return errors.NewInvalidRequest("profile is required")
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	content := cognition.Render(profile)
	sum := sha256.Sum256([]byte(content))
	hash := hex.EncodeToString(sum[:])
	filePath := path.Join(userID, assetFileName)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapStoreErr(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM memory_data WHERE user_id = ?`, userID); err != nil {
		return mapStoreErr(err)
	}

	query := `
		INSERT INTO memory_data (id, file_path, content, content_hash, scanned_at, user_id)
		VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query,
		ulid.Make().String(), filePath, content, hash, time.Now().Unix(), userID); err != nil {
		return mapStoreErr(err)
	}

	if err := tx.Commit(); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

// GetAsset loads the latest cognition document for a seller and parses it
// back into a structured profile.
func (s *Store) GetAsset(ctx context.Context, userID string) (*cognition.Profile, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var content string
	query := `SELECT content FROM memory_data WHERE user_id = ? ORDER BY scanned_at DESC, id DESC LIMIT 1`
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&content)
	if err == sql.ErrNoRows {
		return nil, errors.NewSellerNotFound(userID)
	}
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return cognition.Parse(content)
}

// HasAsset reports whether a seller has a distilled asset on record.
func (s *Store) HasAsset(ctx context.Context, userID string) (bool, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM memory_data WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return false, mapStoreErr(err)
	}
	return n > 0, nil
}

// InsertRental records a newly issued rental token.
func (s *Store) InsertRental(ctx context.Context, r *Rental) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	query := `
		INSERT INTO rentals (token, seller_user_id, created_at, expires_at, revoked_at)
		VALUES (?, ?, ?, ?, NULL)`
	if _, err := s.db.ExecContext(ctx, query, r.Token, r.SellerUserID, r.CreatedAt, r.ExpiresAt); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

// GetRental loads one rental row by token.
func (s *Store) GetRental(ctx context.Context, token string) (*Rental, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	r, err := scanRental(s.db.QueryRowContext(ctx,
		`SELECT token, seller_user_id, created_at, expires_at, revoked_at FROM rentals WHERE token = ?`, token))
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetRentalWithAsset loads a rental row together with the seller's latest
// cognition document in a single transaction, so the token check and the
// asset read observe the same database state.
func (s *Store) GetRentalWithAsset(ctx context.Context, token string) (*Rental, string, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, "", mapStoreErr(err)
	}
	defer tx.Rollback()

	r, err := scanRental(tx.QueryRowContext(ctx,
		`SELECT token, seller_user_id, created_at, expires_at, revoked_at FROM rentals WHERE token = ?`, token))
	if err != nil {
		return nil, "", err
	}

	var content string
	err = tx.QueryRowContext(ctx,
		`SELECT content FROM memory_data WHERE user_id = ? ORDER BY scanned_at DESC, id DESC LIMIT 1`,
		r.SellerUserID).Scan(&content)
	if err == sql.ErrNoRows {
		return nil, "", errors.NewSellerNotFound(r.SellerUserID)
	}
	if err != nil {
		return nil, "", mapStoreErr(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, "", mapStoreErr(err)
	}
	return r, content, nil
}

// RevokeRental marks a rental token revoked. Revoking an unknown or
// already-revoked token is a no-op.
func (s *Store) RevokeRental(ctx context.Context, token string, now int64) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	query := `UPDATE rentals SET revoked_at = ? WHERE token = ? AND revoked_at IS NULL`
	if _, err := s.db.ExecContext(ctx, query, now, token); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

// ListRentals returns all rental rows for one seller, newest first.
func (s *Store) ListRentals(ctx context.Context, sellerUserID string) ([]*Rental, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT token, seller_user_id, created_at, expires_at, revoked_at
		 FROM rentals WHERE seller_user_id = ? ORDER BY created_at DESC, token`,
		sellerUserID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	defer rows.Close()

	var out []*Rental
	for rows.Next() {
		r := &Rental{}
		if err := rows.Scan(&r.Token, &r.SellerUserID, &r.CreatedAt, &r.ExpiresAt, &r.RevokedAt); err != nil {
			return nil, mapStoreErr(err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStoreErr(err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRental(row rowScanner) (*Rental, error) {
	r := &Rental{}
	err := row.Scan(&r.Token, &r.SellerUserID, &r.CreatedAt, &r.ExpiresAt, &r.RevokedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewTokenNotFound()
	}
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return r, nil
}
