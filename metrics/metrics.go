package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// topDomainsLimit is the number of domains reported in a Snapshot.
const topDomainsLimit = 10

// Metrics tracks admission statistics
type Metrics struct {
	totalRequests   atomic.Int64
	allowedRequests atomic.Int64
	deniedRequests  atomic.Int64

	configures       atomic.Int64
	failedConfigures atomic.Int64

	// Per-domain stats
	mu          sync.RWMutex
	domainStats map[string]*DomainStats
	startTime   time.Time
	now         func() time.Time
}

// DomainStats tracks statistics for a specific domain
type DomainStats struct {
	Domain          string    `json:"domain"`
	TotalRequests   int64     `json:"total_requests"`
	AllowedRequests int64     `json:"allowed_requests"`
	DeniedRequests  int64     `json:"denied_requests"`
	LastRequestAt   time.Time `json:"last_request_at"`
	FirstRequestAt  time.Time `json:"first_request_at"`

	// Configures counts accepted configure calls for the domain.
	Configures       int64     `json:"configures"`
	LastConfiguredAt time.Time `json:"last_configured_at"`
}

// NewMetrics creates a new metrics tracker
func NewMetrics() *Metrics {
	return &Metrics{
		domainStats: make(map[string]*DomainStats),
		startTime:   time.Now(),
		now:         time.Now,
	}
}

// RecordRequest records an admission check. It satisfies hostgate.Recorder.
func (m *Metrics) RecordRequest(domain string, allowed bool) {
	m.totalRequests.Add(1)

	if allowed {
		m.allowedRequests.Add(1)
	} else {
		m.deniedRequests.Add(1)
	}

	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.domainLocked(domain)
	if stats.FirstRequestAt.IsZero() {
		stats.FirstRequestAt = now
	}

	stats.TotalRequests++
	if allowed {
		stats.AllowedRequests++
	} else {
		stats.DeniedRequests++
	}
	stats.LastRequestAt = now
}

// RecordConfigure records a configure call and whether it failed. Rejected
// calls are only counted globally, so they never add a tracked domain.
func (m *Metrics) RecordConfigure(domain string, err error) {
	m.configures.Add(1)
	if err != nil {
		m.failedConfigures.Add(1)
		return
	}

	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.domainLocked(domain)
	stats.Configures++
	stats.LastConfiguredAt = now
}

// domainLocked returns the stats for domain, creating them if needed.
// m.mu must be held for writing.
func (m *Metrics) domainLocked(domain string) *DomainStats {
	stats, exists := m.domainStats[domain]
	if !exists {
		stats = &DomainStats{Domain: domain}
		m.domainStats[domain] = stats
	}
	return stats
}

// GetSnapshot returns a snapshot of current metrics
func (m *Metrics) GetSnapshot() *Snapshot {
	m.mu.RLock()
	topDomains := make([]*DomainStats, 0, len(m.domainStats))
	for _, stats := range m.domainStats {
		copied := *stats
		topDomains = append(topDomains, &copied)
	}
	m.mu.RUnlock()

	sort.Slice(topDomains, func(i, j int) bool {
		if topDomains[i].TotalRequests != topDomains[j].TotalRequests {
			return topDomains[i].TotalRequests > topDomains[j].TotalRequests
		}
		return topDomains[i].Domain < topDomains[j].Domain
	})
	uniqueDomains := int64(len(topDomains))
	if len(topDomains) > topDomainsLimit {
		topDomains = topDomains[:topDomainsLimit]
	}

	return &Snapshot{
		TotalRequests:    m.totalRequests.Load(),
		AllowedRequests:  m.allowedRequests.Load(),
		DeniedRequests:   m.deniedRequests.Load(),
		Configures:       m.configures.Load(),
		FailedConfigures: m.failedConfigures.Load(),
		UniqueDomains:    uniqueDomains,
		TopDomains:       topDomains,
		UptimeSeconds:    int64(m.now().Sub(m.startTime).Seconds()),
		StartTime:        m.startTime,
	}
}

// Snapshot represents a point-in-time view of metrics
type Snapshot struct {
	TotalRequests    int64          `json:"total_requests"`
	AllowedRequests  int64          `json:"allowed_requests"`
	DeniedRequests   int64          `json:"denied_requests"`
	Configures       int64          `json:"configures"`
	FailedConfigures int64          `json:"failed_configures"`
	UniqueDomains    int64          `json:"unique_domains"`
	TopDomains       []*DomainStats `json:"top_domains"`
	UptimeSeconds    int64          `json:"uptime_seconds"`
	StartTime        time.Time      `json:"start_time"`
}
