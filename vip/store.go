package vip

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Store persists entitlements. Every read hits the database; there is no
// cache, so state survives restarts without staleness.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// Get returns the entitlement for userID, or nil when absent.
func (s *Store) Get(ctx context.Context, userID string) (*Entitlement, error) {
	e := new(Entitlement)
	err := s.db.NewSelect().Model(e).Where("user_id = ?", userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entitlement %s: %w", userID, err)
	}
	return e, nil
}

// Upsert applies the grant policy in a single atomic statement: a still-active
// row keeps the later of its current expiry and the requested one (package
// label is overwritten either way); an expired or absent row takes the
// requested values outright.
func (s *Store) Upsert(ctx context.Context, userID string, expiresAt int64, pkg string, now time.Time) (*Entitlement, error) {
	e := &Entitlement{UserID: userID, ExpiresAt: expiresAt, Package: pkg}
	_, err := s.db.NewInsert().Model(e).
		On("CONFLICT (user_id) DO UPDATE").
		Set("expires_at = CASE WHEN entitlement.expires_at > ? AND entitlement.expires_at > EXCLUDED.expires_at THEN entitlement.expires_at ELSE EXCLUDED.expires_at END", now.Unix()).
		Set("package = EXCLUDED.package").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("upsert entitlement %s: %w", userID, err)
	}
	return s.Get(ctx, userID)
}

// Delete revokes userID's entitlement. Returns false when no row existed.
func (s *Store) Delete(ctx context.Context, userID string) (bool, error) {
	res, err := s.db.NewDelete().Model((*Entitlement)(nil)).Where("user_id = ?", userID).Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("delete entitlement %s: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete entitlement %s: %w", userID, err)
	}
	return n > 0, nil
}

// List returns all entitlements, active and expired, in no particular order.
// Callers partition by validity using the clock at read time.
func (s *Store) List(ctx context.Context) ([]Entitlement, error) {
	var out []Entitlement
	if err := s.db.NewSelect().Model(&out).Scan(ctx); err != nil {
		return nil, fmt.Errorf("list entitlements: %w", err)
	}
	return out, nil
}

// ExpiringWithin returns entitlements still active at now but lapsing within
// the window. Feeds the expiry-reminder sweep.
func (s *Store) ExpiringWithin(ctx context.Context, now time.Time, window time.Duration) ([]Entitlement, error) {
	var out []Entitlement
	err := s.db.NewSelect().Model(&out).
		Where("expires_at > ?", now.Unix()).
		Where("expires_at <= ?", now.Add(window).Unix()).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expiring entitlements: %w", err)
	}
	return out, nil
}
