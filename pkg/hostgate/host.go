package hostgate

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/dgraph-io/ristretto/v2"
)

// HostFromURL extracts the bucket key from an absolute URL: its hostname,
// lower-cased and without port or brackets.
// Example: "https://Example.com:8443/a?b" -> "example.com".
func HostFromURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty url", ErrInvalidURL)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme == "" {
		return "", fmt.Errorf("%w: missing scheme in %q", ErrInvalidURL, raw)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrInvalidURL, raw)
	}
	return host, nil
}

// HostCache memoizes HostFromURL for recently seen URLs.
// Only successful extractions are cached.
type HostCache struct {
	rc *ristretto.Cache[string, string]
}

// NewHostCache creates a HostCache holding up to maxEntries URLs.
func NewHostCache(maxEntries int64) (*HostCache, error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("%w: host cache size must be positive", ErrInvalidConfig)
	}
	rc, err := ristretto.NewCache(&ristretto.Config[string, string]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create host cache: %w", err)
	}
	return &HostCache{rc: rc}, nil
}

// Resolve returns the hostname of raw. A nil HostCache resolves without caching.
func (c *HostCache) Resolve(raw string) (string, error) {
	if c == nil {
		return HostFromURL(raw)
	}
	if host, ok := c.rc.Get(raw); ok {
		return host, nil
	}

	host, err := HostFromURL(raw)
	if err != nil {
		return "", err
	}
	c.rc.Set(raw, host, 1)
	return host, nil
}

// Close stops the cache's background goroutines.
func (c *HostCache) Close() {
	if c != nil {
		c.rc.Close()
	}
}
