package core

import (
	"fmt"
	"math"
	"time"
)

// Policy defines the rate limiting policy for one bucket
type Policy struct {
	Capacity float64       // Maximum tokens (burst size), 0 denies everything
	Period   time.Duration // Time to refill from empty to Capacity
}

// Validate checks that the policy can drive a bucket.
func (p Policy) Validate() error {
	if p.Capacity < 0 || math.IsNaN(p.Capacity) || math.IsInf(p.Capacity, 0) {
		return fmt.Errorf("%w: %v", ErrNegativeCapacity, p.Capacity)
	}
	if p.Period <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidPeriod, p.Period)
	}
	return nil
}

// RefillPerSec returns how many tokens accrue per second.
func (p Policy) RefillPerSec() float64 {
	return p.Capacity / p.Period.Seconds()
}

// BucketState represents the current state of a token bucket
type BucketState struct {
	Tokens       float64   // Current tokens available
	LastRefillAt time.Time // Last time tokens were refilled
}

// CheckResult contains the result of a rate limit check
type CheckResult struct {
	Allowed    bool          // Whether the request is allowed
	Remaining  float64       // Tokens remaining after this request
	Limit      float64       // Total capacity
	RetryAfter time.Duration // Time until one token is available (0 if allowed or never)
}
