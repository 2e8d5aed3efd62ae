// Package config provides Viper-based configuration loading for the loadout widget backend.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	// Host is the bind address for the HTTP listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the HTTP listener.
	Port int `mapstructure:"port"`
	// ReadTimeout bounds reading a whole request.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout bounds writing a response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// RequestTimeout bounds handler execution, upstream calls included.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// CORSOrigin is sent as Access-Control-Allow-Origin.
	CORSOrigin string `mapstructure:"cors_origin"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BungieConfig holds Bungie.net platform API settings.
type BungieConfig struct {
	// BaseURL is the platform root.
	BaseURL string `mapstructure:"base_url"`
	// APIKey is the application key; an empty key is allowed so the server
	// can start and report the misconfiguration per request.
	APIKey string `mapstructure:"api_key"`
	// Timeout bounds every outbound request.
	Timeout time.Duration `mapstructure:"timeout"`
	// RatePerSecond caps outbound requests; zero disables limiting.
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	// Burst is the limiter bucket size.
	Burst int `mapstructure:"burst"`
}

// CacheConfig holds definition cache settings.
type CacheConfig struct {
	// Size is the maximum number of cached definitions.
	Size int `mapstructure:"size"`
}

// DIMLinkConfig holds DIM deep link settings.
type DIMLinkConfig struct {
	// Enabled adds a link to every loadout response, not only when requested.
	Enabled bool `mapstructure:"enabled"`
	// Shorten passes links through the shortener.
	Shorten bool `mapstructure:"shorten"`
	// ShortenerURL is the shortener endpoint; the long URL is appended escaped.
	ShortenerURL string `mapstructure:"shortener_url"`
	// ShortenTimeout bounds one shortener call.
	ShortenTimeout time.Duration `mapstructure:"shorten_timeout"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// TracingConfig holds OpenTelemetry trace export settings.
type TracingConfig struct {
	// Exporter is "none" (spans are sampled for ids but never exported) or
	// "stdout" (spans are written as JSON to stderr).
	Exporter string `mapstructure:"exporter"`
	// SampleRatio is the fraction of root spans sampled, in [0, 1].
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Bungie  BungieConfig  `mapstructure:"bungie"`
	Cache   CacheConfig   `mapstructure:"cache"`
	DIMLink DIMLinkConfig `mapstructure:"dimlink"`
	Logging LoggingConfig `mapstructure:"logging"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateBungie(c.Bungie); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Cache.Size < 1 {
		errs = append(errs, fmt.Sprintf("cache.size must be >= 1, got %d", c.Cache.Size))
	}
	if err := validateDIMLink(c.DIMLink); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateTracing(c.Tracing); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", s.Port))
	}
	if s.ReadTimeout < 0 {
		errs = append(errs, "server.read_timeout must not be negative")
	}
	if s.WriteTimeout < 0 {
		errs = append(errs, "server.write_timeout must not be negative")
	}
	if s.RequestTimeout <= 0 {
		errs = append(errs, "server.request_timeout must be positive")
	}
	if s.ShutdownTimeout <= 0 {
		errs = append(errs, "server.shutdown_timeout must be positive")
	}
	if s.CORSOrigin == "" {
		errs = append(errs, "server.cors_origin must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateBungie(b BungieConfig) error {
	var errs []string
	if u, err := url.Parse(b.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("bungie.base_url must be an absolute URL, got %q", b.BaseURL))
	}
	if b.Timeout <= 0 {
		errs = append(errs, "bungie.timeout must be positive")
	}
	if b.RatePerSecond < 0 {
		errs = append(errs, fmt.Sprintf("bungie.rate_per_second must be >= 0, got %v", b.RatePerSecond))
	}
	if b.Burst < 1 {
		errs = append(errs, fmt.Sprintf("bungie.burst must be >= 1, got %d", b.Burst))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDIMLink(d DIMLinkConfig) error {
	if !d.Shorten {
		return nil
	}
	if d.ShortenerURL == "" {
		return errors.New("dimlink.shortener_url must not be empty when dimlink.shorten is set")
	}
	if d.ShortenTimeout <= 0 {
		return errors.New("dimlink.shorten_timeout must be positive")
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateTracing(t TracingConfig) error {
	if t.Exporter != "none" && t.Exporter != "stdout" {
		return fmt.Errorf("tracing.exporter must be one of [none, stdout], got %q", t.Exporter)
	}
	if t.SampleRatio < 0 || t.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be in [0, 1], got %v", t.SampleRatio)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path skips the file, so an
// environment-only deployment needs no config file.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := NewViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// NewViper returns a Viper instance with defaults and environment overrides
// applied. Every key can be overridden by D2L_<SECTION>_<KEY>; the Bungie key
// also honours BUNGIE_API_KEY and the port honours PORT, as set by most hosts.
//
// Postcondition: Returns a non-nil Viper.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix("D2L")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("bungie.api_key", "D2L_BUNGIE_API_KEY", "BUNGIE_API_KEY")
	_ = v.BindEnv("server.port", "D2L_SERVER_PORT", "PORT")

	setDefaults(v)
	return v
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.request_timeout", "45s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.cors_origin", "*")

	v.SetDefault("bungie.base_url", "https://www.bungie.net/Platform")
	v.SetDefault("bungie.api_key", "")
	v.SetDefault("bungie.timeout", "10s")
	v.SetDefault("bungie.rate_per_second", 20)
	v.SetDefault("bungie.burst", 5)

	v.SetDefault("cache.size", 4096)

	v.SetDefault("dimlink.enabled", false)
	v.SetDefault("dimlink.shorten", true)
	v.SetDefault("dimlink.shortener_url", "https://tinyurl.com/api-create.php?url=")
	v.SetDefault("dimlink.shorten_timeout", "3s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("tracing.exporter", "none")
	v.SetDefault("tracing.sample_ratio", 1.0)
}
