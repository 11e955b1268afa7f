package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector exposes Metrics to Prometheus. Values are read from the
// tracker at scrape time, so nothing is double-counted.
type Collector struct {
	metrics *Metrics
	buckets func() int

	checks     *prometheus.Desc
	configures *prometheus.Desc
	bucketsGa  *prometheus.Desc
	domains    *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a Collector over m. buckets reports the number of
// buckets held by the registry and may be nil.
func NewCollector(m *Metrics, buckets func() int) *Collector {
	return &Collector{
		metrics: m,
		buckets: buckets,
		checks: prometheus.NewDesc(
			"hostgate_checks_total",
			"Admission checks by decision.",
			[]string{"decision"}, nil,
		),
		configures: prometheus.NewDesc(
			"hostgate_configures_total",
			"Configure calls by result.",
			[]string{"result"}, nil,
		),
		bucketsGa: prometheus.NewDesc(
			"hostgate_buckets",
			"Number of buckets held by the registry.",
			nil, nil,
		),
		domains: prometheus.NewDesc(
			"hostgate_tracked_domains",
			"Number of distinct domains that have been checked.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.checks
	ch <- c.configures
	ch <- c.bucketsGa
	ch <- c.domains
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	m := c.metrics
	ch <- prometheus.MustNewConstMetric(c.checks, prometheus.CounterValue,
		float64(m.allowedRequests.Load()), "allowed")
	ch <- prometheus.MustNewConstMetric(c.checks, prometheus.CounterValue,
		float64(m.deniedRequests.Load()), "denied")

	failed := m.failedConfigures.Load()
	ch <- prometheus.MustNewConstMetric(c.configures, prometheus.CounterValue,
		float64(m.configures.Load()-failed), "ok")
	ch <- prometheus.MustNewConstMetric(c.configures, prometheus.CounterValue,
		float64(failed), "error")

	var buckets int
	if c.buckets != nil {
		buckets = c.buckets()
	}
	ch <- prometheus.MustNewConstMetric(c.bucketsGa, prometheus.GaugeValue, float64(buckets))

	m.mu.RLock()
	domains := len(m.domainStats)
	m.mu.RUnlock()
	ch <- prometheus.MustNewConstMetric(c.domains, prometheus.GaugeValue, float64(domains))
}
