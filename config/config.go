// Package config loads the server configuration from a YAML file and
// HOSTGATE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/yourusername/hostgate/logging"
	"github.com/yourusername/hostgate/pkg/hostgate"
)

// EnvPrefix is the prefix of environment overrides: http.addr is read from
// HOSTGATE_HTTP_ADDR.
const EnvPrefix = "HOSTGATE"

// Config is the server configuration.
type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	Log       LogConfig       `mapstructure:"log"`
	Limits    LimitsConfig    `mapstructure:"limits"`
	HostCache HostCacheConfig `mapstructure:"hostCache"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Recorder  RecorderConfig  `mapstructure:"recorder"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

// HTTPConfig configures the HTTP API server.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"readTimeout"`
	WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
}

// GRPCConfig configures the gRPC server. An empty Addr disables it.
type GRPCConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level   string        `mapstructure:"level"`
	Format  string        `mapstructure:"format"`
	Output  string        `mapstructure:"output"`
	NoColor bool          `mapstructure:"noColor"`
	File    LogFileConfig `mapstructure:"file"`
}

// LogFileConfig configures file output with rotation.
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"maxSizeMB"`
	MaxBackups int    `mapstructure:"maxBackups"`
}

// LimitsConfig holds the default bucket policy and an optional YAML file of
// per-domain policies. Cap and PeriodMs are nil unless set in the file or the
// environment; unset values fall back to the domains file defaults, then to
// the built-in ones.
type LimitsConfig struct {
	Cap         *float64 `mapstructure:"cap"`
	PeriodMs    *int64   `mapstructure:"periodMs"`
	DomainsFile string   `mapstructure:"domainsFile"`
}

// Set reports whether limits.cap or limits.periodMs was given.
func (l LimitsConfig) Set() bool {
	return l.Cap != nil || l.PeriodMs != nil
}

// Apply overrides the given default policy with the limits that were set.
func (l LimitsConfig) Apply(defaults *hostgate.PolicyConfig) {
	if l.Cap != nil {
		capacity := *l.Cap
		defaults.Cap = &capacity
	}
	if l.PeriodMs != nil {
		periodMs := *l.PeriodMs
		defaults.PeriodMs = &periodMs
	}
}

// HostCacheConfig sizes the URL to hostname cache.
type HostCacheConfig struct {
	MaxEntries int64 `mapstructure:"maxEntries"`
}

// RedisConfig configures the decision statistics store. An empty Addr
// disables it.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
	WaitFor  time.Duration `mapstructure:"waitFor"`
}

// RecorderConfig sizes the asynchronous decision recorder.
type RecorderConfig struct {
	Buffer int `mapstructure:"buffer"`
}

// TracingConfig toggles the stdout span exporter.
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":3000")
	v.SetDefault("http.readTimeout", 5*time.Second)
	v.SetDefault("http.writeTimeout", 10*time.Second)
	v.SetDefault("http.shutdownTimeout", 10*time.Second)
	v.SetDefault("grpc.addr", ":3001")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logging.FormatJSON)
	v.SetDefault("log.output", logging.OutputStdout)
	v.SetDefault("log.noColor", false)
	v.SetDefault("log.file.path", "hostgate.log")
	v.SetDefault("log.file.maxSizeMB", 100)
	v.SetDefault("log.file.maxBackups", 5)

	// limits.cap and limits.periodMs have no default so that IsSet only
	// reports explicit values.
	v.SetDefault("limits.domainsFile", "")

	v.SetDefault("hostCache.maxEntries", 10000)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "hostgate:stats")
	v.SetDefault("redis.ttl", 24*time.Hour)
	v.SetDefault("redis.waitFor", 10*time.Second)

	v.SetDefault("recorder.buffer", 1024)

	v.SetDefault("tracing.enabled", false)
}

// Load reads the configuration. path may be empty, in which case only
// defaults and environment variables are used.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"limits.cap", "limits.periodMs"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if !v.IsSet("limits.cap") {
		cfg.Limits.Cap = nil
	}
	if !v.IsSet("limits.periodMs") {
		cfg.Limits.PeriodMs = nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values viper cannot check by type alone.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if _, err := c.DefaultPolicy(); err != nil {
		return fmt.Errorf("invalid limits: %w", err)
	}
	if c.HostCache.MaxEntries <= 0 {
		return errors.New("hostCache.maxEntries must be positive")
	}
	if c.Recorder.Buffer <= 0 {
		return errors.New("recorder.buffer must be positive")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}
	return nil
}

// DefaultPolicy returns the built-in default policy with the limits that
// were set applied on top.
func (c *Config) DefaultPolicy() (hostgate.Policy, error) {
	defaults := hostgate.NewConfig().Defaults
	c.Limits.Apply(&defaults)
	return defaults.ToPolicy()
}

// Domains returns the registry seed: the domains file when one is configured,
// else the built-in defaults, with explicit limits overriding its defaults
// section. Domains in the file keep the values they resolved to when parsed.
func (c *Config) Domains() (*hostgate.Config, error) {
	domains := hostgate.NewConfig()
	if c.Limits.DomainsFile != "" {
		var err error
		if domains, err = hostgate.LoadConfigFromFile(c.Limits.DomainsFile); err != nil {
			return nil, fmt.Errorf("failed to load domains file: %w", err)
		}
	}
	if c.Limits.Set() {
		c.Limits.Apply(&domains.Defaults)
		if err := domains.Validate(); err != nil {
			return nil, err
		}
	}
	return domains, nil
}

// LoggingConfig converts the log section to a logging.Config.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:   c.Log.Level,
		Format:  c.Log.Format,
		Output:  c.Log.Output,
		NoColor: c.Log.NoColor,
		File: logging.FileConfig{
			Path:       c.Log.File.Path,
			MaxSizeMB:  c.Log.File.MaxSizeMB,
			MaxBackups: c.Log.File.MaxBackups,
		},
	}
}
