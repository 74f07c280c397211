// Package config loads runtime configuration from the environment. Every
// setting has a SMOOTHOPERATOR_ prefixed variable and a sensible default;
// only the access passcode is mandatory.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the resolved runtime configuration.
type Config struct {
	// Host and Port are the HTTP bind address.
	Host string
	Port int

	// Passcode gates session authentication. Either the plaintext passcode
	// or a bcrypt hash of it. Required.
	Passcode string

	// AllowedOrigins is the CORS allowlist for the browser frontend.
	AllowedOrigins []string

	// SessionTTL and ThreadTTL bound idle lifetimes in the lifecycle store.
	SessionTTL time.Duration
	ThreadTTL  time.Duration
	// ReapInterval is the background sweep period.
	ReapInterval time.Duration

	// MaxIterations bounds the per-turn handoff loop.
	MaxIterations int

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// LogFormat is "text" or "json".
	LogFormat string
}

// Load reads configuration from SMOOTHOPERATOR_* environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("smoothoperator")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8000)
	v.SetDefault("allowed_origins", "http://localhost:3000")
	v.SetDefault("session_ttl", time.Hour)
	v.SetDefault("thread_ttl", 2*time.Hour)
	v.SetDefault("reap_interval", time.Minute)
	v.SetDefault("max_iterations", 10)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	cfg := &Config{
		Host:           v.GetString("host"),
		Port:           v.GetInt("port"),
		Passcode:       v.GetString("passcode"),
		AllowedOrigins: splitOrigins(v.GetString("allowed_origins")),
		SessionTTL:     v.GetDuration("session_ttl"),
		ThreadTTL:      v.GetDuration("thread_ttl"),
		ReapInterval:   v.GetDuration("reap_interval"),
		MaxIterations:  v.GetInt("max_iterations"),
		LogLevel:       v.GetString("log_level"),
		LogFormat:      v.GetString("log_format"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Passcode == "" {
		return errors.New("SMOOTHOPERATOR_PASSCODE must be set")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Errorf("invalid port %d", c.Port)
	}
	if c.SessionTTL <= 0 || c.ThreadTTL <= 0 {
		return errors.New("session and thread TTLs must be positive")
	}
	if c.ReapInterval <= 0 {
		return errors.New("reap interval must be positive")
	}
	if c.MaxIterations <= 0 {
		return errors.New("max iterations must be positive")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
