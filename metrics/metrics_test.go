package metrics

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetrics_RecordRequest(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("example.com", true)
	m.RecordRequest("example.com", true)
	m.RecordRequest("example.com", false)
	m.RecordRequest("other.test", false)

	snapshot := m.GetSnapshot()
	if snapshot.TotalRequests != 4 {
		t.Errorf("TotalRequests = %d, want 4", snapshot.TotalRequests)
	}
	if snapshot.AllowedRequests != 2 || snapshot.DeniedRequests != 2 {
		t.Errorf("allowed/denied = %d/%d, want 2/2", snapshot.AllowedRequests, snapshot.DeniedRequests)
	}
	if snapshot.UniqueDomains != 2 {
		t.Errorf("UniqueDomains = %d, want 2", snapshot.UniqueDomains)
	}

	top := snapshot.TopDomains[0]
	if top.Domain != "example.com" || top.TotalRequests != 3 || top.DeniedRequests != 1 {
		t.Errorf("top domain = %+v", top)
	}
	if top.FirstRequestAt.IsZero() || top.LastRequestAt.Before(top.FirstRequestAt) {
		t.Errorf("timestamps = %v / %v", top.FirstRequestAt, top.LastRequestAt)
	}
}

func TestMetrics_TopDomainsLimited(t *testing.T) {
	m := NewMetrics()

	for i := 0; i < 15; i++ {
		domain := fmt.Sprintf("d%02d.test", i)
		for j := 0; j <= i; j++ {
			m.RecordRequest(domain, true)
		}
	}

	snapshot := m.GetSnapshot()
	if len(snapshot.TopDomains) != topDomainsLimit {
		t.Fatalf("len(TopDomains) = %d, want %d", len(snapshot.TopDomains), topDomainsLimit)
	}
	if snapshot.UniqueDomains != 15 {
		t.Errorf("UniqueDomains = %d, want 15", snapshot.UniqueDomains)
	}
	if snapshot.TopDomains[0].Domain != "d14.test" {
		t.Errorf("first = %s, want d14.test", snapshot.TopDomains[0].Domain)
	}
	for i := 1; i < len(snapshot.TopDomains); i++ {
		if snapshot.TopDomains[i].TotalRequests > snapshot.TopDomains[i-1].TotalRequests {
			t.Fatal("TopDomains not sorted by total requests")
		}
	}
}

func TestMetrics_SnapshotIsACopy(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("example.com", true)

	snapshot := m.GetSnapshot()
	m.RecordRequest("example.com", true)

	if snapshot.TopDomains[0].TotalRequests != 1 {
		t.Error("snapshot should not change after later requests")
	}
}

func TestMetrics_Concurrent(t *testing.T) {
	m := NewMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.RecordRequest("example.com", i%2 == 0)
		}(i)
	}
	wg.Wait()

	snapshot := m.GetSnapshot()
	if snapshot.TotalRequests != 50 || snapshot.AllowedRequests != 25 {
		t.Errorf("total/allowed = %d/%d, want 50/25", snapshot.TotalRequests, snapshot.AllowedRequests)
	}
}

func TestMetrics_RecordConfigurePerDomain(t *testing.T) {
	m := NewMetrics()
	m.RecordConfigure("example.com", nil)
	m.RecordConfigure("example.com", nil)
	m.RecordConfigure("rejected.test", errors.New("invalid"))
	m.RecordRequest("example.com", true)

	snapshot := m.GetSnapshot()
	if snapshot.Configures != 3 || snapshot.FailedConfigures != 1 {
		t.Errorf("configures = %d/%d failed, want 3/1", snapshot.Configures, snapshot.FailedConfigures)
	}
	if snapshot.UniqueDomains != 1 {
		t.Fatalf("UniqueDomains = %d, want 1: a rejected configure must not track its domain", snapshot.UniqueDomains)
	}

	stats := snapshot.TopDomains[0]
	if stats.Domain != "example.com" || stats.Configures != 2 {
		t.Errorf("stats = %+v, want 2 configures for example.com", stats)
	}
	if stats.LastConfiguredAt.IsZero() {
		t.Error("LastConfiguredAt should be set")
	}
	if stats.TotalRequests != 1 || stats.FirstRequestAt.IsZero() {
		t.Errorf("request stats = %+v, want one request with FirstRequestAt set", stats)
	}
}

func TestMetrics_ConfigureOnlyDomainHasNoRequestTime(t *testing.T) {
	m := NewMetrics()
	m.RecordConfigure("quiet.test", nil)

	stats := m.GetSnapshot().TopDomains[0]
	if !stats.FirstRequestAt.IsZero() || stats.TotalRequests != 0 {
		t.Errorf("stats = %+v, want no request data", stats)
	}
}

func TestCollector(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("example.com", true)
	m.RecordRequest("example.com", false)
	m.RecordRequest("other.test", true)
	m.RecordConfigure("example.com", nil)
	m.RecordConfigure("bad.test", errors.New("invalid"))

	registry := prometheus.NewPedanticRegistry()
	registry.MustRegister(NewCollector(m, func() int { return 7 }))

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	got := make(map[string]float64)
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			name := family.GetName()
			for _, label := range metric.GetLabel() {
				name += "/" + label.GetValue()
			}
			switch {
			case metric.GetCounter() != nil:
				got[name] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				got[name] = metric.GetGauge().GetValue()
			}
		}
	}

	want := map[string]float64{
		"hostgate_checks_total/allowed":   2,
		"hostgate_checks_total/denied":    1,
		"hostgate_configures_total/ok":    1,
		"hostgate_configures_total/error": 1,
		"hostgate_buckets":                7,
		"hostgate_tracked_domains":        2,
	}
	for name, value := range want {
		if got[name] != value {
			t.Errorf("%s = %v, want %v", name, got[name], value)
		}
	}
}

func TestCollector_NilBuckets(t *testing.T) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(NewCollector(NewMetrics(), nil))

	if _, err := registry.Gather(); err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
}
