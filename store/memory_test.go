package store

import (
	"context"
	"sync"
	"testing"
)

func TestMemoryStore_Record(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	events := []Event{
		{Domain: "example.com", Allowed: true},
		{Domain: "example.com", Allowed: true},
		{Domain: "example.com", Allowed: false},
		{Domain: "other.test", Allowed: false},
	}
	for _, ev := range events {
		if err := store.Record(ctx, ev); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	if got := store.Counts("example.com"); got != (Counts{Allowed: 2, Denied: 1}) {
		t.Errorf("Counts(example.com) = %+v", got)
	}
	if got := store.Counts("other.test").Total(); got != 1 {
		t.Errorf("Counts(other.test).Total() = %d, want 1", got)
	}
	if got := store.Counts("unknown.test"); got != (Counts{}) {
		t.Errorf("Counts(unknown.test) = %+v, want zero", got)
	}

	store.Clear()
	if got := store.Counts("example.com"); got != (Counts{}) {
		t.Errorf("Counts after Clear() = %+v, want zero", got)
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Record(context.Background(), Event{Domain: "example.com", Allowed: i%4 != 0})
		}(i)
	}
	wg.Wait()

	if got := store.Counts("example.com"); got.Allowed != 75 || got.Denied != 25 {
		t.Errorf("Counts() = %+v, want 75/25", got)
	}
}
