package hostgate_test

import (
	"errors"
	"testing"
	"time"

	"github.com/yourusername/hostgate"
)

func TestRootPackage(t *testing.T) {
	registry, err := hostgate.New(hostgate.WithDefaults(1, time.Minute))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	host, err := hostgate.HostFromURL("https://Example.com:8443/a")
	if err != nil {
		t.Fatalf("HostFromURL() error = %v", err)
	}
	if !registry.Check(host) {
		t.Error("first check should be allowed")
	}
	if registry.Check(host) {
		t.Error("second check should be denied with cap 1")
	}

	if _, err := hostgate.PolicyFromMillis(1, 0); !errors.Is(err, hostgate.ErrInvalidPeriod) {
		t.Errorf("PolicyFromMillis() error = %v, want ErrInvalidPeriod", err)
	}
	if _, err := hostgate.HostFromURL("not a url"); !errors.Is(err, hostgate.ErrInvalidURL) {
		t.Errorf("HostFromURL() error = %v, want ErrInvalidURL", err)
	}
}
