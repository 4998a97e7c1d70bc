package xivapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"market-alerts-go/config"
	"market-alerts-go/metrics"
)

func sheetServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/api/sheet/Item/5057":
			fmt.Fprint(w, `{"fields":{"Name":"Iron Ore"}}`)
		case "/api/sheet/World/74":
			fmt.Fprint(w, `{"fields":{"Name":"Coeurl"}}`)
		default:
			http.NotFound(w, r)
		}
	}))
}

func testConfig(baseURL string) config.XIVAPIConfig {
	return config.XIVAPIConfig{
		BaseURL:        baseURL,
		CacheTTLSec:    60,
		CacheSize:      10,
		RequestTimeout: 5,
	}
}

func TestItemNameResolution(t *testing.T) {
	var hits atomic.Int32
	srv := sheetServer(t, &hits)
	defer srv.Close()

	c := New(testConfig(srv.URL), zap.NewNop(), metrics.NewNop())
	name, err := c.ItemName(context.Background(), 5057)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "Iron Ore" {
		t.Fatalf("unexpected name: %q", name)
	}
}

func TestCacheSuppressesSecondRequest(t *testing.T) {
	var hits atomic.Int32
	srv := sheetServer(t, &hits)
	defer srv.Close()

	c := New(testConfig(srv.URL), zap.NewNop(), metrics.NewNop())
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := c.ItemName(ctx, 5057); err != nil {
			t.Fatalf("lookup %d: %v", i, err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected 1 upstream hit, got %d", got)
	}
}

func TestItemAndWorldCachesAreIndependent(t *testing.T) {
	var hits atomic.Int32
	srv := sheetServer(t, &hits)
	defer srv.Close()

	c := New(testConfig(srv.URL), zap.NewNop(), metrics.NewNop())
	ctx := context.Background()
	if _, err := c.ItemName(ctx, 5057); err != nil {
		t.Fatalf("item: %v", err)
	}
	world, err := c.WorldName(ctx, 74)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	if world != "Coeurl" {
		t.Fatalf("unexpected world name: %q", world)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("expected 2 upstream hits, got %d", got)
	}
}

func TestCacheEntryExpiresAfterTTL(t *testing.T) {
	var hits atomic.Int32
	srv := sheetServer(t, &hits)
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.CacheTTLSec = 1
	c := New(cfg, zap.NewNop(), metrics.NewNop())
	ctx := context.Background()

	if _, err := c.ItemName(ctx, 5057); err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected 1 upstream hit before expiry, got %d", got)
	}

	time.Sleep(1100 * time.Millisecond)

	if _, err := c.ItemName(ctx, 5057); err != nil {
		t.Fatalf("lookup after expiry: %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("expected a refetch after the TTL elapsed, got %d hits", got)
	}
}

func TestUpstreamErrorNotCached(t *testing.T) {
	var hits atomic.Int32
	srv := sheetServer(t, &hits)
	defer srv.Close()

	c := New(testConfig(srv.URL), zap.NewNop(), metrics.NewNop())
	ctx := context.Background()
	if _, err := c.ItemName(ctx, 99999); err == nil {
		t.Fatal("expected error for unknown sheet row")
	}
	if _, err := c.ItemName(ctx, 99999); err == nil {
		t.Fatal("expected error again")
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("failures must not be cached; got %d hits", got)
	}
}
