package kv_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/printmine/backend-printshop/internal/kv"
)

func newStore(t *testing.T) (*kv.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return &kv.Store{Client: client, Prefix: "printshop"}, mr
}

func TestLoadMissingBucket(t *testing.T) {
	store, _ := newStore(t)
	var doc []string
	found, err := store.Load(context.Background(), "demo", kv.BucketBillItems, &doc)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if found {
		t.Fatal("expected missing bucket")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	in := map[string]int{"a4": 500, "photo": 20}
	if err := store.Save(ctx, "demo", kv.BucketStock, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	var out map[string]int
	found, err := store.Load(ctx, "demo", kv.BucketStock, &out)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if out["a4"] != 500 || out["photo"] != 20 {
		t.Fatalf("round trip mismatch: %v", out)
	}
}

func TestTenantsAreIsolated(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	if err := store.Save(ctx, "shop-a", kv.BucketSettings, "a"); err != nil {
		t.Fatalf("save: %v", err)
	}
	var doc string
	found, err := store.Load(ctx, "shop-b", kv.BucketSettings, &doc)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if found {
		t.Fatal("tenant b must not see tenant a's bucket")
	}
}

func TestSaveTTLExpires(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()
	if err := store.SaveTTL(ctx, "demo", "cart:abc", "doc", time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	var doc string
	found, err := store.Load(ctx, "demo", "cart:abc", &doc)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if found {
		t.Fatal("bucket should have expired")
	}
}
