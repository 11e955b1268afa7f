package store

import (
	"context"
	"testing"
	"time"
)

// newTestRedisStore returns a store on DB 15 of a local Redis.
// Note: This requires a Redis instance running on localhost:6379
// Skip with: go test -short
func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping Redis integration test")
	}

	store := NewRedisStore(RedisConfig{
		Addr:   "localhost:6379",
		DB:     15, // Use separate DB for tests
		Prefix: "hostgate:test",
		TTL:    time.Minute,
	})
	t.Cleanup(func() { _ = store.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		t.Skip("Redis not available:", err)
	}

	if err := store.Clear(context.Background()); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Clear(context.Background()) })
	return store
}

func TestRedisStore_Record(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	events := []Event{
		{Domain: "example.com", Allowed: true, At: time.Now()},
		{Domain: "example.com", Allowed: false, At: time.Now()},
		{Domain: "other.test", Allowed: true},
	}
	for _, ev := range events {
		if err := store.Record(ctx, ev); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	counts, err := store.Counts(ctx, "example.com")
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}
	if counts != (Counts{Allowed: 1, Denied: 1}) {
		t.Errorf("Counts(example.com) = %+v", counts)
	}

	total, err := store.Counts(ctx, "")
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}
	if total != (Counts{Allowed: 2, Denied: 1}) {
		t.Errorf("total = %+v", total)
	}

	missing, err := store.Counts(ctx, "unknown.test")
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}
	if missing != (Counts{}) {
		t.Errorf("Counts(unknown.test) = %+v, want zero", missing)
	}
}

func TestRedisStore_WaitReady(t *testing.T) {
	store := newTestRedisStore(t)

	if err := store.WaitReady(context.Background(), time.Second); err != nil {
		t.Errorf("WaitReady() error = %v", err)
	}
}

func TestRedisStore_WaitReadyGivesUp(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping slow backoff test")
	}

	store := NewRedisStore(RedisConfig{Addr: "127.0.0.1:1"})
	defer store.Close()

	start := time.Now()
	if err := store.WaitReady(context.Background(), 300*time.Millisecond); err == nil {
		t.Fatal("WaitReady() should fail when nothing listens")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("WaitReady() took %v", elapsed)
	}
}
