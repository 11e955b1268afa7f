package store

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ssgreg/logf"
	"golang.org/x/time/rate"
)

// DefaultBufferSize is the event buffer of an AsyncRecorder.
const DefaultBufferSize = 1024

// defaultWriteTimeout bounds a single Store.Record call.
const defaultWriteTimeout = 2 * time.Second

// AsyncRecorder forwards admission decisions to a Store from one background
// goroutine so that checks never wait for I/O. It satisfies hostgate.Recorder.
//
// When the buffer is full the event is dropped and counted.
type AsyncRecorder struct {
	store  Store
	logger *logf.Logger
	now    func() time.Time

	events  chan Event
	done    chan struct{}
	dropped atomic.Int64
	failed  atomic.Int64

	errLog rate.Sometimes

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewAsyncRecorder starts a recorder writing to store. bufferSize <= 0 means
// DefaultBufferSize. A nil logger discards write errors.
func NewAsyncRecorder(store Store, bufferSize int, logger *logf.Logger) *AsyncRecorder {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if logger == nil {
		logger = logf.NewDisabledLogger()
	}

	r := &AsyncRecorder{
		store:  store,
		logger: logger,
		now:    time.Now,
		events: make(chan Event, bufferSize),
		done:   make(chan struct{}),
		errLog: rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
	go r.run()
	return r
}

// RecordRequest enqueues a decision without blocking.
func (r *AsyncRecorder) RecordRequest(domain string, allowed bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.dropped.Add(1)
		return
	}

	select {
	case r.events <- Event{Domain: domain, Allowed: allowed, At: r.now()}:
	default:
		r.dropped.Add(1)
	}
}

// Dropped returns the number of events discarded because the buffer was full
// or the recorder was closed.
func (r *AsyncRecorder) Dropped() int64 {
	return r.dropped.Load()
}

// Failed returns the number of events the store rejected.
func (r *AsyncRecorder) Failed() int64 {
	return r.failed.Load()
}

// Close stops accepting events, writes the buffered ones and waits for the
// worker to exit. It does not close the underlying Store.
func (r *AsyncRecorder) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.events)
		r.mu.Unlock()
	})
	<-r.done
}

func (r *AsyncRecorder) run() {
	defer close(r.done)

	for ev := range r.events {
		ctx, cancel := context.WithTimeout(context.Background(), defaultWriteTimeout)
		err := r.store.Record(ctx, ev)
		cancel()

		if err != nil {
			r.failed.Add(1)
			r.errLog.Do(func() {
				r.logger.Error("failed to record decision",
					logf.String("domain", ev.Domain),
					logf.Int64("failed_total", r.failed.Load()),
					logf.Error(err),
				)
			})
		}
	}
}
