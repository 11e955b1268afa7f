package hostgate

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yourusername/hostgate/core"
)

// Config holds the registry configuration: the policy for buckets created on
// first check and buckets that are configured up front.
type Config struct {
	// Defaults are applied to every domain seen for the first time
	Defaults PolicyConfig `yaml:"defaults"`

	// Domains maps hostnames to their own policies
	// Example: "example.com" -> 2 tokens per second
	Domains map[string]PolicyConfig `yaml:"domains,omitempty"`
}

// PolicyConfig defines bucket parameters in file form.
type PolicyConfig struct {
	// Cap is the maximum number of tokens (burst size).
	// Omitted in a domain entry, the default cap is used.
	Cap *float64 `yaml:"cap,omitempty"`

	// PeriodMs is the time in milliseconds to refill from 0 to Cap.
	// Omitted in a domain entry, the default period is used.
	PeriodMs *int64 `yaml:"period_ms,omitempty"`
}

// maxPeriodMs is the largest millisecond count a time.Duration can hold.
const maxPeriodMs = math.MaxInt64 / int64(time.Millisecond)

// PeriodFromMillis converts a refill period in milliseconds to a Duration.
// Periods that are not positive or do not fit in a Duration fail with
// ErrInvalidPeriod.
func PeriodFromMillis(ms int64) (time.Duration, error) {
	if ms <= 0 {
		return 0, ErrInvalidPeriod
	}
	if ms > maxPeriodMs {
		return 0, fmt.Errorf("%w: %d ms exceeds the maximum of %d ms", ErrInvalidPeriod, ms, maxPeriodMs)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// PolicyFromMillis builds a validated policy from a capacity and a refill
// period in milliseconds.
func PolicyFromMillis(capacity float64, periodMs int64) (Policy, error) {
	period, err := PeriodFromMillis(periodMs)
	if err != nil {
		return Policy{}, err
	}
	policy := Policy{Capacity: capacity, Period: period}
	if err := policy.Validate(); err != nil {
		return Policy{}, err
	}
	return policy, nil
}

// NewConfig creates a new Config with the built-in defaults.
func NewConfig() *Config {
	capacity := float64(DefaultCapacity)
	periodMs := DefaultPeriod.Milliseconds()
	return &Config{
		Defaults: PolicyConfig{
			Cap:      &capacity,
			PeriodMs: &periodMs,
		},
		Domains: make(map[string]PolicyConfig),
	}
}

// LoadConfigFromFile loads configuration from a YAML file.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrInvalidConfig, err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML configuration, fills omitted values and validates the result.
func ParseConfig(data []byte) (*Config, error) {
	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse YAML: %v", ErrInvalidConfig, err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyDefaults fills omitted default values with the built-in ones and
// omitted domain values with the defaults. Domain keys are lower-cased.
func (c *Config) applyDefaults() {
	if c.Defaults.Cap == nil {
		capacity := float64(DefaultCapacity)
		c.Defaults.Cap = &capacity
	}
	if c.Defaults.PeriodMs == nil {
		periodMs := DefaultPeriod.Milliseconds()
		c.Defaults.PeriodMs = &periodMs
	}

	domains := make(map[string]PolicyConfig, len(c.Domains))
	for domain, policy := range c.Domains {
		if policy.Cap == nil {
			capacity := *c.Defaults.Cap
			policy.Cap = &capacity
		}
		if policy.PeriodMs == nil {
			periodMs := *c.Defaults.PeriodMs
			policy.PeriodMs = &periodMs
		}
		domains[strings.ToLower(domain)] = policy
	}
	c.Domains = domains
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Defaults.Validate(); err != nil {
		return fmt.Errorf("invalid defaults: %w", err)
	}

	for domain, policy := range c.Domains {
		if domain == "" {
			return fmt.Errorf("%w: empty domain", ErrInvalidConfig)
		}
		if err := policy.Validate(); err != nil {
			return fmt.Errorf("invalid policy for domain %s: %w", domain, err)
		}
	}

	return nil
}

// Validate checks if a PolicyConfig is valid.
func (p PolicyConfig) Validate() error {
	_, err := p.ToPolicy()
	return err
}

// SetDomain sets the policy for a domain.
func (c *Config) SetDomain(domain string, policy PolicyConfig) error {
	if err := policy.Validate(); err != nil {
		return err
	}
	if c.Domains == nil {
		c.Domains = make(map[string]PolicyConfig)
	}
	c.Domains[strings.ToLower(domain)] = policy
	return nil
}

// ToPolicy converts a PolicyConfig to a validated core.Policy. Both fields
// must be set.
func (p PolicyConfig) ToPolicy() (core.Policy, error) {
	if p.Cap == nil {
		return core.Policy{}, fmt.Errorf("%w: cap is required", ErrInvalidConfig)
	}
	if p.PeriodMs == nil {
		return core.Policy{}, fmt.Errorf("%w: period_ms is required", ErrInvalidPeriod)
	}
	return PolicyFromMillis(*p.Cap, *p.PeriodMs)
}
