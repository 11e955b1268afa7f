package core

import (
	"math"
	"time"
)

// TokenBucket implements the continuous-refill token bucket algorithm.
// It holds no state of its own: callers own the BucketState and must
// serialize access to it.
type TokenBucket struct {
	policy Policy
}

// NewTokenBucket creates a new token bucket with the given policy
func NewTokenBucket(policy Policy) *TokenBucket {
	return &TokenBucket{policy: policy}
}

// Policy returns the policy the bucket was built with.
func (tb *TokenBucket) Policy() Policy {
	return tb.policy
}

// Full returns the state of a freshly created bucket at now.
func (tb *TokenBucket) Full(now time.Time) BucketState {
	return BucketState{
		Tokens:       tb.policy.Capacity,
		LastRefillAt: now,
	}
}

// Refill adds the tokens accrued between state.LastRefillAt and now.
// A clock that moved backwards counts as zero elapsed time and does not
// rewind LastRefillAt.
func (tb *TokenBucket) Refill(state BucketState, now time.Time) BucketState {
	elapsed := now.Sub(state.LastRefillAt)
	if elapsed <= 0 {
		state.Tokens = clamp(state.Tokens, tb.policy.Capacity)
		return state
	}

	tokensToAdd := elapsed.Seconds() * tb.policy.RefillPerSec()

	return BucketState{
		Tokens:       clamp(state.Tokens+tokensToAdd, tb.policy.Capacity),
		LastRefillAt: now,
	}
}

// Check determines if a request should be allowed based on the current bucket state.
// A nil state is treated as a full bucket. It returns the updated state and check result.
func (tb *TokenBucket) Check(state *BucketState, now time.Time) (*BucketState, CheckResult) {
	current := tb.Full(now)
	if state != nil {
		current = tb.Refill(*state, now)
	}

	if current.Tokens >= 1.0 {
		current.Tokens -= 1.0
		return &current, CheckResult{
			Allowed:   true,
			Remaining: current.Tokens,
			Limit:     tb.policy.Capacity,
		}
	}

	return &current, CheckResult{
		Allowed:    false,
		Remaining:  current.Tokens,
		Limit:      tb.policy.Capacity,
		RetryAfter: tb.retryAfter(current.Tokens),
	}
}

// retryAfter returns the time until one token accrues, or 0 if the bucket
// can never hold a whole token.
func (tb *TokenBucket) retryAfter(tokens float64) time.Duration {
	rate := tb.policy.RefillPerSec()
	if rate <= 0 || tb.policy.Capacity < 1 {
		return 0
	}
	seconds := (1.0 - tokens) / rate
	return time.Duration(math.Ceil(seconds * float64(time.Second)))
}

func clamp(tokens, capacity float64) float64 {
	if tokens > capacity {
		return capacity
	}
	if tokens < 0 {
		return 0
	}
	return tokens
}
