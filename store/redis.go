package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultRedisPrefix namespaces every key written by RedisStore.
	DefaultRedisPrefix = "hostgate:stats"

	// DefaultRedisTTL is how long per-minute and per-domain hashes are kept.
	DefaultRedisTTL = 24 * time.Hour
)

// RedisStore aggregates decision counts in Redis hashes:
//
//	<prefix>:total                 cumulative, never expires
//	<prefix>:minute:200601021504   one hash per minute, expires after TTL
//	<prefix>:domain:<host>         one hash per domain, expires after TTL
//
// Each hash has the fields "allowed" and "denied".
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration // How long to keep time series and per-domain hashes
}

// Ensure RedisStore implements Store interface
var _ Store = (*RedisStore)(nil)

// RedisConfig for creating a Redis store
type RedisConfig struct {
	Addr     string        // Redis address (e.g., "localhost:6379")
	Password string        // Redis password (empty for no auth)
	DB       int           // Redis database number
	Prefix   string        // Key prefix (default: DefaultRedisPrefix)
	TTL      time.Duration // TTL for expiring hashes (default: DefaultRedisTTL)
}

// NewRedisStore creates a new Redis-backed store
func NewRedisStore(config RedisConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	prefix := strings.Trim(config.Prefix, ":")
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}

	ttl := config.TTL
	if ttl == 0 {
		ttl = DefaultRedisTTL
	}

	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Record increments the total, per-minute and per-domain counters in one pipeline
func (s *RedisStore) Record(ctx context.Context, ev Event) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	field := decisionField(ev.Allowed)

	pipe := s.client.Pipeline()
	pipe.HIncrBy(ctx, s.totalKey(), field, 1)

	minuteKey := fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
	pipe.HIncrBy(ctx, minuteKey, field, 1)
	pipe.Expire(ctx, minuteKey, s.ttl)

	if domain := strings.TrimSpace(ev.Domain); domain != "" {
		domainKey := s.domainKey(domain)
		pipe.HIncrBy(ctx, domainKey, field, 1)
		pipe.Expire(ctx, domainKey, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record decision for %s: %w", ev.Domain, err)
	}
	return nil
}

// Counts returns the counts recorded for domain. An empty domain returns the
// cumulative totals.
func (s *RedisStore) Counts(ctx context.Context, domain string) (Counts, error) {
	key := s.totalKey()
	if domain != "" {
		key = s.domainKey(domain)
	}

	vals, err := s.client.HMGet(ctx, key, decisionField(true), decisionField(false)).Result()
	if err != nil {
		return Counts{}, fmt.Errorf("failed to read counts for %q: %w", domain, err)
	}

	var counts Counts
	if counts.Allowed, err = parseCount(vals[0]); err != nil {
		return Counts{}, err
	}
	if counts.Denied, err = parseCount(vals[1]); err != nil {
		return Counts{}, err
	}
	return counts, nil
}

// Clear removes all keys under the store prefix
func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+":*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Ping checks if Redis connection is alive
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// WaitReady pings Redis with exponential backoff until it answers, maxWait
// elapses or ctx is done.
func (s *RedisStore) WaitReady(ctx context.Context, maxWait time.Duration) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 100 * time.Millisecond
	eb.MaxElapsedTime = maxWait

	op := func() error {
		return s.Ping(ctx)
	}
	if err := backoff.Retry(op, backoff.WithContext(eb, ctx)); err != nil {
		return fmt.Errorf("redis at %s is not ready: %w", s.client.Options().Addr, err)
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) totalKey() string {
	return s.prefix + ":total"
}

func (s *RedisStore) domainKey(domain string) string {
	return s.prefix + ":domain:" + domain
}

func decisionField(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "denied"
}

func parseCount(val any) (int64, error) {
	if val == nil {
		return 0, nil
	}
	str, ok := val.(string)
	if !ok {
		return 0, errors.New("unexpected counter type")
	}
	n, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid counter %q: %w", str, err)
	}
	return n, nil
}
