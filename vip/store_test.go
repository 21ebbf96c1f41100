package vip

import (
	"context"
	"testing"
	"time"

	"github.com/uptrace/bun"

	"github.com/open-rails/vipgate/storage"
)

func testDB(t *testing.T) *bun.DB {
	t.Helper()
	db, _, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := storage.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func TestGetAbsent(t *testing.T) {
	s := NewStore(testDB(t))
	e, err := s.Get(context.Background(), "42")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e != nil {
		t.Fatalf("expected nil for absent entitlement, got %+v", e)
	}
}

func TestUpsertCreatesAndExtends(t *testing.T) {
	ctx := context.Background()
	s := NewStore(testDB(t))
	now := time.Unix(1000, 0)

	// First grant: stored verbatim.
	e, err := s.Upsert(ctx, "42", 1000+604800, "7days", now)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if e.UserID != "42" || e.ExpiresAt != 605800 || e.Package != "7days" {
		t.Fatalf("unexpected row after first grant: %+v", e)
	}

	// Shorter re-grant while active must not decrease the expiry, but the
	// package label follows the latest grant.
	e, err = s.Upsert(ctx, "42", 1000+86400, "1day", now)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if e.ExpiresAt != 605800 {
		t.Fatalf("active re-grant decreased expiry: %d", e.ExpiresAt)
	}
	if e.Package != "1day" {
		t.Fatalf("package not overwritten: %q", e.Package)
	}

	// Longer re-grant extends.
	e, err = s.Upsert(ctx, "42", 1000+30*86400, "30days", now)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if e.ExpiresAt != 1000+30*86400 {
		t.Fatalf("longer re-grant did not extend: %d", e.ExpiresAt)
	}
}

func TestUpsertReplacesExpired(t *testing.T) {
	ctx := context.Background()
	s := NewStore(testDB(t))

	if _, err := s.Upsert(ctx, "7", 500, "1day", time.Unix(100, 0)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// The row is expired at now=1000; the new grant takes effect exactly as
	// requested.
	now := time.Unix(1000, 0)
	e, err := s.Upsert(ctx, "7", 1000+86400, "1day", now)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if e.ExpiresAt != 1000+86400 {
		t.Fatalf("expired re-grant not replaced outright: %d", e.ExpiresAt)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := NewStore(testDB(t))

	removed, err := s.Delete(ctx, "nobody")
	if err != nil {
		t.Fatalf("delete absent: %v", err)
	}
	if removed {
		t.Fatal("delete of absent row reported true")
	}

	if _, err := s.Upsert(ctx, "9", 2000, "1day", time.Unix(1000, 0)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	removed, err = s.Delete(ctx, "9")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !removed {
		t.Fatal("delete of existing row reported false")
	}
	e, err := s.Get(ctx, "9")
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if e != nil {
		t.Fatalf("row survived delete: %+v", e)
	}
}

func TestListAndExpiringWithin(t *testing.T) {
	ctx := context.Background()
	s := NewStore(testDB(t))
	now := time.Unix(10000, 0)

	seed := []struct {
		user    string
		expires int64
	}{
		{"expired", 500},
		{"soon", now.Unix() + 3600},
		{"later", now.Unix() + 7*86400},
	}
	for _, row := range seed {
		if _, err := s.Upsert(ctx, row.user, row.expires, "7days", time.Unix(100, 0)); err != nil {
			t.Fatalf("seed %s: %v", row.user, err)
		}
	}

	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(all))
	}

	soon, err := s.ExpiringWithin(ctx, now, 24*time.Hour)
	if err != nil {
		t.Fatalf("expiring: %v", err)
	}
	if len(soon) != 1 || soon[0].UserID != "soon" {
		t.Fatalf("expected only the lapsing row, got %+v", soon)
	}
}
