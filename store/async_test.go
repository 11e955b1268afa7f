package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	mu    sync.Mutex
	calls int
}

func (s *failingStore) Record(context.Context, Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return errors.New("connection refused")
}

func (s *failingStore) Close() error { return nil }

type blockingStore struct {
	MemoryStore
	release chan struct{}
}

func (s *blockingStore) Record(ctx context.Context, ev Event) error {
	<-s.release
	return s.MemoryStore.Record(ctx, ev)
}

func TestAsyncRecorder_WritesEveryEvent(t *testing.T) {
	mem := NewMemoryStore()
	recorder := NewAsyncRecorder(mem, 16, nil)

	for i := 0; i < 10; i++ {
		recorder.RecordRequest("example.com", i < 7)
	}
	recorder.Close()

	assert.Equal(t, Counts{Allowed: 7, Denied: 3}, mem.Counts("example.com"))
	assert.Zero(t, recorder.Dropped())
	assert.Zero(t, recorder.Failed())
}

func TestAsyncRecorder_DropsWhenFull(t *testing.T) {
	store := &blockingStore{release: make(chan struct{})}
	recorder := NewAsyncRecorder(store, 2, nil)

	// The worker takes at most one event and blocks, the buffer holds two more.
	for i := 0; i < 10; i++ {
		recorder.RecordRequest("example.com", true)
	}

	close(store.release)
	recorder.Close()

	written := store.Counts("example.com").Total()
	require.GreaterOrEqual(t, written, int64(2))
	require.LessOrEqual(t, written, int64(3))
	assert.Equal(t, int64(10), written+recorder.Dropped())
}

func TestAsyncRecorder_CountsFailures(t *testing.T) {
	store := &failingStore{}
	recorder := NewAsyncRecorder(store, 8, nil)

	for i := 0; i < 5; i++ {
		recorder.RecordRequest("example.com", false)
	}
	recorder.Close()

	assert.Equal(t, int64(5), recorder.Failed())
	assert.Equal(t, 5, store.calls)
}

func TestAsyncRecorder_CloseIsIdempotent(t *testing.T) {
	recorder := NewAsyncRecorder(NewMemoryStore(), 0, nil)

	recorder.Close()
	recorder.Close()

	recorder.RecordRequest("late.test", true)
	assert.Equal(t, int64(1), recorder.Dropped())
}
