package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/hostgate/pkg/hostgate"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hostgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.HTTP.Addr)
	assert.Equal(t, ":3001", cfg.GRPC.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, int64(10000), cfg.HostCache.MaxEntries)
	assert.Equal(t, 1024, cfg.Recorder.Buffer)
	assert.Empty(t, cfg.Redis.Addr)
	assert.False(t, cfg.Tracing.Enabled)

	assert.False(t, cfg.Limits.Set(), "limits must be unset without explicit values")
	policy, err := cfg.DefaultPolicy()
	require.NoError(t, err)
	assert.Equal(t, float64(hostgate.DefaultCapacity), policy.Capacity)
	assert.Equal(t, hostgate.DefaultPeriod, policy.Period)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
http:
  addr: ":8080"
  readTimeout: 2s
log:
  level: debug
  format: text
limits:
  cap: 5
  periodMs: 1000
  domainsFile: domains.yaml
redis:
  addr: localhost:6379
  ttl: 1h
tracing:
  enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 2*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.HTTP.WriteTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.LoggingConfig().Format)
	policy, err := cfg.DefaultPolicy()
	require.NoError(t, err)
	assert.Equal(t, hostgate.Policy{Capacity: 5, Period: time.Second}, policy)
	assert.Equal(t, "domains.yaml", cfg.Limits.DomainsFile)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("HOSTGATE_HTTP_ADDR", ":9999")
	t.Setenv("HOSTGATE_LIMITS_CAP", "12")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTP.Addr)
	require.NotNil(t, cfg.Limits.Cap)
	assert.Equal(t, float64(12), *cfg.Limits.Cap)
	assert.Nil(t, cfg.Limits.PeriodMs)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "zero period", content: "limits:\n  periodMs: 0\n", wantErr: hostgate.ErrInvalidPeriod},
		{name: "negative cap", content: "limits:\n  cap: -1\n", wantErr: hostgate.ErrNegativeCapacity},
		{name: "period overflowing a duration", content: "limits:\n  periodMs: 18446744073710\n", wantErr: hostgate.ErrInvalidPeriod},
		{name: "unknown log level", content: "log:\n  level: loud\n"},
		{name: "zero host cache", content: "hostCache:\n  maxEntries: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestDomains(t *testing.T) {
	dir := t.TempDir()
	domainsFile := filepath.Join(dir, "domains.yaml")
	require.NoError(t, os.WriteFile(domainsFile, []byte(`
defaults:
  cap: 3
  period_ms: 5000
domains:
  example.com:
    cap: 1
`), 0o600))

	tests := []struct {
		name        string
		limits      string
		wantDefault hostgate.Policy
	}{
		{
			name:        "file defaults apply without server limits",
			wantDefault: hostgate.Policy{Capacity: 3, Period: 5 * time.Second},
		},
		{
			name:        "explicit cap keeps the file period",
			limits:      "  cap: 8\n",
			wantDefault: hostgate.Policy{Capacity: 8, Period: 5 * time.Second},
		},
		{
			name:        "explicit cap and period override the file",
			limits:      "  cap: 8\n  periodMs: 1000\n",
			wantDefault: hostgate.Policy{Capacity: 8, Period: time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, "limits:\n  domainsFile: "+domainsFile+"\n"+tt.limits))
			require.NoError(t, err)

			domains, err := cfg.Domains()
			require.NoError(t, err)

			registry, err := hostgate.New(hostgate.WithConfig(domains))
			require.NoError(t, err)
			assert.Equal(t, tt.wantDefault, registry.Defaults())

			buckets := registry.Buckets()
			require.Len(t, buckets, 1)
			assert.Equal(t, "example.com", buckets[0].Key)
			assert.Equal(t, float64(1), buckets[0].Capacity)
			assert.Equal(t, 5*time.Second, buckets[0].Period, "seeded domains keep the file defaults")
		})
	}
}

func TestDomains_WithoutFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, "limits:\n  periodMs: 2000\n"))
	require.NoError(t, err)

	domains, err := cfg.Domains()
	require.NoError(t, err)
	assert.Empty(t, domains.Domains)

	defaults, err := domains.Defaults.ToPolicy()
	require.NoError(t, err)
	assert.Equal(t, hostgate.Policy{Capacity: hostgate.DefaultCapacity, Period: 2 * time.Second}, defaults)
}

func TestDomains_MissingFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, "limits:\n  domainsFile: "+filepath.Join(t.TempDir(), "missing.yaml")+"\n"))
	require.NoError(t, err)

	_, err = cfg.Domains()
	require.Error(t, err)
	assert.True(t, errors.Is(err, hostgate.ErrInvalidConfig), "got %v", err)
}
