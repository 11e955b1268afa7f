package api

import (
	"net/http"

	"github.com/yourusername/hostgate/metrics"
	"github.com/yourusername/hostgate/pkg/hostgate"
)

// MetricsProvider defines the interface for getting metrics
type MetricsProvider interface {
	GetSnapshot() *metrics.Snapshot
}

// BucketLister lists the registry buckets. *hostgate.Registry satisfies it.
type BucketLister interface {
	Buckets() []hostgate.BucketInfo
}

// StatsHandler handles GET /api/stats requests
type StatsHandler struct {
	provider MetricsProvider
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(provider MetricsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// ServeHTTP handles the stats endpoint
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*") // Allow dashboard to fetch
	sendJSON(w, http.StatusOK, h.provider.GetSnapshot())
}

// BucketsHandler handles GET /api/buckets requests
type BucketsHandler struct {
	lister BucketLister
}

// NewBucketsHandler creates a new buckets handler
func NewBucketsHandler(lister BucketLister) *BucketsHandler {
	return &BucketsHandler{lister: lister}
}

// ServeHTTP handles the buckets endpoint
func (h *BucketsHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	sendJSON(w, http.StatusOK, map[string]any{"buckets": h.lister.Buckets()})
}
