package hostgate

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ssgreg/logf"

	"github.com/yourusername/hostgate/core"
)

const (
	// DefaultCapacity is the burst size of buckets created on first check.
	DefaultCapacity = 30

	// DefaultPeriod is the time a default bucket needs to refill completely.
	DefaultPeriod = 60 * time.Second
)

// Policy is the capacity and refill period of one bucket.
type Policy = core.Policy

// Decision contains the result of an admission check.
type Decision struct {
	// Key is the bucket key (hostname) that was checked
	Key string

	// Allowed indicates whether the fetch may proceed now
	Allowed bool

	// Remaining is the number of tokens left in the bucket
	Remaining float64

	// Limit is the bucket capacity
	Limit float64

	// RetryAfter is how long until one token is available.
	// It is 0 when Allowed is true or when the bucket never refills.
	RetryAfter time.Duration
}

// Status is an aggregate view of the registry.
type Status struct {
	BucketCount int
}

// BucketInfo is a point-in-time view of one bucket.
type BucketInfo struct {
	Key      string        `json:"key"`
	Capacity float64       `json:"cap"`
	Period   time.Duration `json:"-"`
	PeriodMs int64         `json:"periodMs"`
	Tokens   float64       `json:"tokens"`
}

// Registry maps keys to independent token buckets.
//
// The map is guarded by mu and every bucket by its own mutex, so checks on
// unrelated keys only contend on the map lookup. A bucket's
// refill-consume sequence and its reconfiguration are serialized by the
// bucket mutex.
type Registry struct {
	mu      sync.RWMutex
	buckets map[string]*bucketEntry

	defaults core.Policy
	seed     *Config
	now      func() time.Time
	recorder Recorder
	logger   *logf.Logger
}

// bucketEntry owns one bucket's policy and state.
type bucketEntry struct {
	mu     sync.Mutex
	bucket *core.TokenBucket
	state  core.BucketState
}

// New creates a Registry with the given options.
// Without options buckets default to DefaultCapacity tokens per DefaultPeriod.
//
// Example:
//
//	registry, err := hostgate.New(
//	    hostgate.WithDefaults(10, time.Second),
//	)
func New(opts ...Option) (*Registry, error) {
	r := &Registry{
		buckets:  make(map[string]*bucketEntry),
		defaults: core.Policy{Capacity: DefaultCapacity, Period: DefaultPeriod},
		now:      time.Now,
		logger:   logf.NewDisabledLogger(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if r.seed != nil {
		for domain, config := range r.seed.Domains {
			policy, err := config.ToPolicy()
			if err == nil {
				err = r.ConfigurePolicy(domain, policy)
			}
			if err != nil {
				return nil, fmt.Errorf("failed to seed domain %s: %w", domain, err)
			}
		}
	}

	return r, nil
}

// Defaults returns the policy applied to buckets created on first check.
func (r *Registry) Defaults() core.Policy {
	return r.defaults
}

// Configure replaces (or creates) the bucket for key with a full bucket of
// capacity tokens that refills completely every period. Invalid input leaves
// the registry unchanged.
func (r *Registry) Configure(key string, capacity float64, period time.Duration) error {
	return r.ConfigurePolicy(key, core.Policy{Capacity: capacity, Period: period})
}

// ConfigurePolicy is Configure with a core.Policy.
func (r *Registry) ConfigurePolicy(key string, policy core.Policy) error {
	if key == "" {
		return ErrInvalidKey
	}
	if err := policy.Validate(); err != nil {
		return err
	}

	entry := r.entry(key)
	bucket := core.NewTokenBucket(policy)

	entry.mu.Lock()
	entry.bucket = bucket
	entry.state = bucket.Full(r.now())
	entry.mu.Unlock()

	r.logger.Debug("bucket configured",
		logf.String("key", key),
		logf.Float64("cap", policy.Capacity),
		logf.Duration("period", policy.Period),
	)
	return nil
}

// Check consumes one token from the bucket for key and reports whether the
// fetch is allowed. Unknown keys get a default bucket.
func (r *Registry) Check(key string) bool {
	return r.Decide(key).Allowed
}

// Decide is Check with the full decision details.
func (r *Registry) Decide(key string) Decision {
	entry := r.entry(key)

	entry.mu.Lock()
	state, result := entry.bucket.Check(&entry.state, r.now())
	entry.state = *state
	entry.mu.Unlock()

	if r.recorder != nil {
		r.recorder.RecordRequest(key, result.Allowed)
	}

	return Decision{
		Key:        key,
		Allowed:    result.Allowed,
		Remaining:  result.Remaining,
		Limit:      result.Limit,
		RetryAfter: result.RetryAfter,
	}
}

// Status returns the number of tracked keys.
func (r *Registry) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Status{BucketCount: len(r.buckets)}
}

// Buckets returns a snapshot of every bucket sorted by key. Token counts
// include time accrued since the last check but the buckets are not modified.
func (r *Registry) Buckets() []BucketInfo {
	r.mu.RLock()
	entries := make(map[string]*bucketEntry, len(r.buckets))
	for key, entry := range r.buckets {
		entries[key] = entry
	}
	r.mu.RUnlock()

	now := r.now()
	infos := make([]BucketInfo, 0, len(entries))
	for key, entry := range entries {
		entry.mu.Lock()
		policy := entry.bucket.Policy()
		state := entry.bucket.Refill(entry.state, now)
		entry.mu.Unlock()

		infos = append(infos, BucketInfo{
			Key:      key,
			Capacity: policy.Capacity,
			Period:   policy.Period,
			PeriodMs: policy.Period.Milliseconds(),
			Tokens:   state.Tokens,
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos
}

// entry returns the bucket entry for key, inserting a default bucket if the
// key is unknown.
func (r *Registry) entry(key string) *bucketEntry {
	// Fast path - bucket exists
	r.mu.RLock()
	entry, exists := r.buckets[key]
	r.mu.RUnlock()
	if exists {
		return entry
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check: another goroutine might have created it
	if entry, exists = r.buckets[key]; exists {
		return entry
	}

	bucket := core.NewTokenBucket(r.defaults)
	entry = &bucketEntry{
		bucket: bucket,
		state:  bucket.Full(r.now()),
	}
	r.buckets[key] = entry
	return entry
}
