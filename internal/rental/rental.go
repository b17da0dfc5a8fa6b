package rental

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/mindprint/internal/cognition"
	"github.com/hpungsan/mindprint/internal/config"
	"github.com/hpungsan/mindprint/internal/errors"
	"github.com/hpungsan/mindprint/internal/store"
)

// Token states as reported to sellers. Buyers never see the distinction
// between expired and revoked.
const (
	StateValid   = "valid"
	StateExpired = "expired"
	StateRevoked = "revoked"
)

// IssueOptions controls rental token issuance.
type IssueOptions struct {
	// TTL is the token lifetime. Nil means the configured default.
	TTL *time.Duration
	// NoExpiry issues a token that never expires. Takes precedence over TTL.
	NoExpiry bool
}

// Service issues, validates, and revokes rental tokens. Validation is a
// single atomic read against the store so a token cannot pass the check and
// then serve an asset under different database state.
type Service struct {
	store *store.Store
	cfg   *config.Config
	now   func() time.Time
}

func NewService(st *store.Store, cfg *config.Config) *Service {
	return &Service{store: st, cfg: cfg, now: time.Now}
}

// Issue creates a rental token for a seller. The seller must have a
// distilled cognition asset on record; there is nothing to rent otherwise.
func (s *Service) Issue(ctx context.Context, sellerUserID string, opts IssueOptions) (*store.Rental, error) {
	if sellerUserID == "" {
		return nil, errors.NewInvalidRequest("seller user ID is required")
	}

	ok, err := s.store.HasAsset(ctx, sellerUserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewSellerNotFound(sellerUserID)
	}

	now := s.now().Unix()
	r := &store.Rental{
		SellerUserID: sellerUserID,
		CreatedAt:    now,
	}
	if !opts.NoExpiry {
		ttl := s.cfg.DefaultTTL()
		if opts.TTL != nil {
			ttl = *opts.TTL
		}
		if ttl < 0 {
			return nil, errors.NewInvalidRequest("ttl must not be negative")
		}
		exp := now + int64(ttl/time.Second)
		r.ExpiresAt = &exp
	}

	token, err := s.newToken()
	if err != nil {
		return nil, err
	}
	r.Token = token

	if err := s.store.InsertRental(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks a token and, if it is valid, returns the seller's
// cognition profile along with the rental row. The token row and the asset
// are read in one transaction and judged against a single captured clock
// reading.
func (s *Service) Validate(ctx context.Context, token string) (*cognition.Profile, *store.Rental, error) {
	token = s.normalize(token)
	if token == "" {
		return nil, nil, errors.NewInvalidRequest("token is required")
	}

	now := s.now().Unix()
	r, content, err := s.store.GetRentalWithAsset(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	switch State(r, now) {
	case StateRevoked:
		return nil, nil, errors.NewTokenRevoked()
	case StateExpired:
		return nil, nil, errors.NewTokenExpired()
	}

	profile, err := cognition.Parse(content)
	if err != nil {
		return nil, nil, err
	}
	return profile, r, nil
}

// Revoke invalidates a token. Revoking an unknown, expired, or
// already-revoked token is a no-op.
func (s *Service) Revoke(ctx context.Context, token string) error {
	token = s.normalize(token)
	if token == "" {
		return errors.NewInvalidRequest("token is required")
	}
	return s.store.RevokeRental(ctx, token, s.now().Unix())
}

// List returns a seller's rental tokens with their current states.
func (s *Service) List(ctx context.Context, sellerUserID string) ([]*store.Rental, error) {
	return s.store.ListRentals(ctx, sellerUserID)
}

// State reports the lifecycle state of a rental row at the given instant.
// A token is still valid at the exact expiry second; it is expired strictly
// after.
func State(r *store.Rental, now int64) string {
	if r.RevokedAt != nil {
		return StateRevoked
	}
	if r.ExpiresAt != nil && now > *r.ExpiresAt {
		return StateExpired
	}
	return StateValid
}

// newToken builds an opaque namespaced token from random bytes. The token
// encodes no seller identity or expiry.
func (s *Service) newToken() (string, error) {
	n := s.cfg.TokenBytes
	if n <= 0 {
		n = 16
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", errors.NewInternal(err)
	}
	return fmt.Sprintf("%s@%s", s.cfg.TokenNamespace, hex.EncodeToString(b)), nil
}

// normalize trims whitespace and adds the configured namespace prefix when
// the caller passed a bare token body.
func (s *Service) normalize(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	if !strings.Contains(token, "@") {
		token = s.cfg.TokenNamespace + "@" + token
	}
	return token
}
