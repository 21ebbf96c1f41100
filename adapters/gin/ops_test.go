package opsgin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/uptrace/bun"

	"github.com/open-rails/vipgate/content"
	"github.com/open-rails/vipgate/storage"
	"github.com/open-rails/vipgate/vip"
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

func TestHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testDB(t)
	r := Router(db, vip.NewStore(db), content.NewStore(db), "")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStats(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testDB(t)
	vips := vip.NewStore(db)
	registry := content.NewStore(db)
	ctx := context.Background()

	if _, err := registry.Create(ctx, "https://example.com/a"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	now := time.Now()
	if _, err := vips.Upsert(ctx, "1", now.Unix()+3600, "1day", now); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := vips.Upsert(ctx, "2", 500, "1day", time.Unix(100, 0)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	r := Router(db, vips, registry, "")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var got struct {
		Videos     int `json:"videos"`
		VIPActive  int `json:"vip_active"`
		VIPExpired int `json:"vip_expired"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Videos != 1 || got.VIPActive != 1 || got.VIPExpired != 1 {
		t.Fatalf("unexpected stats: %+v", got)
	}
}

func TestTokenGate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testDB(t)
	r := Router(db, vip.NewStore(db), content.NewStore(db), "secret")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer secret")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}

	// Probes stay open.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected open healthz, got %d", w.Code)
	}
}
