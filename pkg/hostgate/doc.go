// Package hostgate provides per-domain request admission using token buckets.
//
// A Registry keeps one continuous-refill token bucket per key, normally the
// hostname of a URL a client wants to fetch. A bucket allows bursts of up to
// its capacity and then refills at capacity/period tokens per unit of time.
// Refill is computed lazily on access, so no timers run per key.
//
// # Quick Start
//
//	registry, err := hostgate.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	host, err := hostgate.HostFromURL("https://example.com/page")
//	if err != nil {
//	    // not a fetchable URL, report a client error
//	}
//	if registry.Check(host) {
//	    // fetch now
//	}
//
// Unknown hosts get a bucket with DefaultCapacity tokens refilling every
// DefaultPeriod (30 per minute). Override the defaults at construction:
//
//	registry, err := hostgate.New(hostgate.WithDefaults(10, time.Second))
//
// # Per-domain policies
//
// Configure resets a domain's bucket to a new policy:
//
//	err := registry.Configure("example.com", 2, time.Second)
//	if errors.Is(err, hostgate.ErrInvalidConfig) {
//	    // period <= 0 or negative capacity, nothing was changed
//	}
//
// Policies can also be loaded from YAML:
//
//	registry, err := hostgate.New(hostgate.WithConfigFile("domains.yaml"))
//
// Example YAML configuration:
//
//	defaults:
//	  cap: 30
//	  period_ms: 60000
//
//	domains:
//	  example.com:
//	    cap: 2
//	    period_ms: 1000
//
// # Concurrency
//
// All Registry methods are safe for concurrent use. Concurrent checks on the
// same key never admit more requests than the bucket holds tokens. Buckets
// are never evicted, so memory grows with the number of distinct keys.
package hostgate
