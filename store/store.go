package store

import (
	"context"
	"time"
)

// Event is one admission decision as seen by a decision sink.
type Event struct {
	Domain  string
	Allowed bool
	At      time.Time
}

// Store defines the interface for admission statistics sinks.
// It never holds bucket state.
type Store interface {
	Record(ctx context.Context, ev Event) error
	Close() error
}

// Counts are the allowed and denied totals of a domain.
type Counts struct {
	Allowed int64 `json:"allowed"`
	Denied  int64 `json:"denied"`
}

// Total returns Allowed + Denied.
func (c Counts) Total() int64 {
	return c.Allowed + c.Denied
}
