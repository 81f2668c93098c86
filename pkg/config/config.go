package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/gatekeep/pkg/httputil"
	"github.com/platinummonkey/gatekeep/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Redis backs sessions and rate limiting
	Redis RedisConfig `yaml:"redis"`

	// Database backs ownership lookups
	Database DatabaseConfig `yaml:"database"`

	Audit AuditConfig `yaml:"audit"`

	RateLimit RateLimitConfig `yaml:"rateLimit"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"healthPort"`

	// AllowedOrigins enables CORS for the listed origins
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	URL        string        `yaml:"url"`
	Password   string        `yaml:"password"`
	DB         int           `yaml:"db"`
	PoolSize   int           `yaml:"poolSize"`
	KeyPrefix  string        `yaml:"keyPrefix"`
	SessionTTL time.Duration `yaml:"sessionTTL"`
}

// DatabaseConfig holds the ownership database settings. An empty driver
// disables ownership lookups.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`

	// Owner lookups are cached in-process
	OwnerCacheSize int           `yaml:"ownerCacheSize"`
	OwnerCacheTTL  time.Duration `yaml:"ownerCacheTTL"`

	// StatsSchedule is a cron spec for publishing pool statistics
	StatsSchedule string `yaml:"statsSchedule"`
}

// AuditConfig controls the audit sink
type AuditConfig struct {
	Enabled bool `yaml:"enabled"`
	// OutputPath is a file to append events to; empty means stdout
	OutputPath string `yaml:"outputPath"`
	Async      bool   `yaml:"async"`
}

// RateLimitConfig holds per-window request limits
type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled"`
	PrincipalRequests int           `yaml:"principalRequests"`
	AnonymousRequests int           `yaml:"anonymousRequests"`
	Window            time.Duration `yaml:"window"`
	FailOpen          bool          `yaml:"failOpen"`
	// TrustedProxies are CIDRs or IPs whose X-Forwarded-For names the client
	TrustedProxies []string `yaml:"trustedProxies"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel string `yaml:"logLevel"`

	// Metrics
	MetricsEnabled bool `yaml:"metricsEnabled"`

	// OpenTelemetry
	OTelEnabled        bool    `yaml:"otelEnabled"`
	OTelEndpoint       string  `yaml:"otelEndpoint"`
	OTelServiceName    string  `yaml:"otelServiceName"`
	OTelServiceVersion string  `yaml:"otelServiceVersion"`
	OTelEnvironment    string  `yaml:"otelEnvironment"`
	OTelSampleRatio    float64 `yaml:"otelSampleRatio"` // 0 or 1 keeps every trace
	OTelInsecure       bool    `yaml:"otelInsecure"`    // Use insecure gRPC connection
}

// Level returns the parsed log level, falling back to info
func (o ObservabilityConfig) Level() observability.LogLevel {
	level, err := observability.ParseLogLevel(o.LogLevel)
	if err != nil {
		return observability.InfoLevel
	}
	return level
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			HealthPort:      "9090",
		},
		Redis: RedisConfig{
			URL:        "redis://localhost:6379",
			PoolSize:   10,
			KeyPrefix:  "gatekeep",
			SessionTTL: 24 * time.Hour,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			OwnerCacheSize:  10000,
			OwnerCacheTTL:   30 * time.Second,
			StatsSchedule:   "@every 15s",
		},
		Audit: AuditConfig{
			Enabled: true,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			PrincipalRequests: 1000,
			AnonymousRequests: 100,
			Window:            time.Minute,
			FailOpen:          true,
		},
		Observability: ObservabilityConfig{
			LogLevel:           "info",
			MetricsEnabled:     true,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "gatekeep",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
		},
	}
}

// LoadConfig loads configuration from environment variables. If
// GATEKEEP_CONFIG names a YAML file it is read first and the environment
// overrides it.
func LoadConfig() (*Config, error) {
	return LoadFile(os.Getenv("GATEKEEP_CONFIG"))
}

// LoadFile loads a YAML configuration file, applies environment overrides
// and validates the result. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnv overrides cfg with any GATEKEEP_* variables that are set
func applyEnv(cfg *Config) {
	s := &cfg.Server
	s.Host = getEnv("GATEKEEP_HOST", s.Host)
	s.Port = getEnv("GATEKEEP_PORT", s.Port)
	s.HealthPort = getEnv("GATEKEEP_HEALTH_PORT", s.HealthPort)
	s.ReadTimeout = getEnvDuration("GATEKEEP_READ_TIMEOUT", s.ReadTimeout)
	s.WriteTimeout = getEnvDuration("GATEKEEP_WRITE_TIMEOUT", s.WriteTimeout)
	s.IdleTimeout = getEnvDuration("GATEKEEP_IDLE_TIMEOUT", s.IdleTimeout)
	s.ShutdownTimeout = getEnvDuration("GATEKEEP_SHUTDOWN_TIMEOUT", s.ShutdownTimeout)
	s.AllowedOrigins = getEnvList("GATEKEEP_ALLOWED_ORIGINS", s.AllowedOrigins)

	r := &cfg.Redis
	r.URL = getEnv("GATEKEEP_REDIS_URL", r.URL)
	r.Password = getEnv("GATEKEEP_REDIS_PASSWORD", r.Password)
	r.DB = getEnvInt("GATEKEEP_REDIS_DB", r.DB)
	r.PoolSize = getEnvInt("GATEKEEP_REDIS_POOL_SIZE", r.PoolSize)
	r.KeyPrefix = getEnv("GATEKEEP_REDIS_KEY_PREFIX", r.KeyPrefix)
	r.SessionTTL = getEnvDuration("GATEKEEP_SESSION_TTL", r.SessionTTL)

	d := &cfg.Database
	d.Driver = getEnv("GATEKEEP_DB_DRIVER", d.Driver)
	d.DSN = getEnv("GATEKEEP_DB_DSN", d.DSN)
	d.MaxOpenConns = getEnvInt("GATEKEEP_DB_MAX_OPEN_CONNS", d.MaxOpenConns)
	d.MaxIdleConns = getEnvInt("GATEKEEP_DB_MAX_IDLE_CONNS", d.MaxIdleConns)
	d.ConnMaxLifetime = getEnvDuration("GATEKEEP_DB_CONN_MAX_LIFETIME", d.ConnMaxLifetime)
	d.OwnerCacheSize = getEnvInt("GATEKEEP_OWNER_CACHE_SIZE", d.OwnerCacheSize)
	d.OwnerCacheTTL = getEnvDuration("GATEKEEP_OWNER_CACHE_TTL", d.OwnerCacheTTL)
	d.StatsSchedule = getEnv("GATEKEEP_DB_STATS_SCHEDULE", d.StatsSchedule)

	a := &cfg.Audit
	a.Enabled = getEnvBool("GATEKEEP_AUDIT_ENABLED", a.Enabled)
	a.OutputPath = getEnv("GATEKEEP_AUDIT_OUTPUT", a.OutputPath)
	a.Async = getEnvBool("GATEKEEP_AUDIT_ASYNC", a.Async)

	rl := &cfg.RateLimit
	rl.Enabled = getEnvBool("GATEKEEP_RATE_LIMIT_ENABLED", rl.Enabled)
	rl.PrincipalRequests = getEnvInt("GATEKEEP_RATE_LIMIT_PRINCIPAL", rl.PrincipalRequests)
	rl.AnonymousRequests = getEnvInt("GATEKEEP_RATE_LIMIT_ANONYMOUS", rl.AnonymousRequests)
	rl.Window = getEnvDuration("GATEKEEP_RATE_LIMIT_WINDOW", rl.Window)
	rl.FailOpen = getEnvBool("GATEKEEP_RATE_LIMIT_FAIL_OPEN", rl.FailOpen)
	rl.TrustedProxies = getEnvList("GATEKEEP_TRUSTED_PROXIES", rl.TrustedProxies)

	o := &cfg.Observability
	o.LogLevel = getEnv("GATEKEEP_LOG_LEVEL", o.LogLevel)
	o.MetricsEnabled = getEnvBool("GATEKEEP_METRICS_ENABLED", o.MetricsEnabled)
	o.OTelEnabled = getEnvBool("GATEKEEP_OTEL_ENABLED", o.OTelEnabled)
	o.OTelEndpoint = getEnv("GATEKEEP_OTEL_ENDPOINT", o.OTelEndpoint)
	o.OTelServiceName = getEnv("GATEKEEP_OTEL_SERVICE_NAME", o.OTelServiceName)
	o.OTelServiceVersion = getEnv("GATEKEEP_OTEL_SERVICE_VERSION", o.OTelServiceVersion)
	o.OTelEnvironment = getEnv("GATEKEEP_OTEL_ENVIRONMENT", o.OTelEnvironment)
	o.OTelSampleRatio = getEnvFloat("GATEKEEP_OTEL_SAMPLE_RATIO", o.OTelSampleRatio)
	o.OTelInsecure = getEnvBool("GATEKEEP_OTEL_INSECURE", o.OTelInsecure)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("redis URL is required")
	}
	if c.Redis.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}

	switch c.Database.Driver {
	case "":
	case "postgres", "sqlite3":
		if c.Database.DSN == "" {
			return fmt.Errorf("database DSN is required for driver %s", c.Database.Driver)
		}
	default:
		return fmt.Errorf("invalid database driver: %s (must be postgres or sqlite3)", c.Database.Driver)
	}
	if c.Database.OwnerCacheSize < 0 {
		return fmt.Errorf("owner cache size must not be negative")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.PrincipalRequests <= 0 || c.RateLimit.AnonymousRequests <= 0 {
			return fmt.Errorf("rate limits must be positive when rate limiting is enabled")
		}
		if c.RateLimit.Window <= 0 {
			return fmt.Errorf("rate limit window must be positive")
		}
	}
	if _, err := httputil.ParseTrustedProxies(c.RateLimit.TrustedProxies); err != nil {
		return err
	}

	if _, err := observability.ParseLogLevel(c.Observability.LogLevel); err != nil {
		return err
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}
	if r := c.Observability.OTelSampleRatio; r < 0 || r > 1 {
		return fmt.Errorf("OpenTelemetry sample ratio must be between 0 and 1, got %v", r)
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns a comma-separated environment variable or a default
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
