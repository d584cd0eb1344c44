// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim (e.g. "casevault-auth").
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim (e.g. "casevault-api").
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the access token lifetime (e.g. "8h"). When unset the
	// token lives as long as the absolute session cap.
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// BcryptCost is the bcrypt cost factor (4-31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// SessionIdleTimeout is how long a session may sit without activity before
	// it is terminated (e.g. "30m").
	SessionIdleTimeout string `mapstructure:"SESSION_IDLE_TIMEOUT"`
	// SessionAbsoluteTimeout caps total session lifetime regardless of activity (e.g. "8h").
	SessionAbsoluteTimeout string `mapstructure:"SESSION_ABSOLUTE_TIMEOUT"`
	// SessionWarningTime is how long before idle termination the warning fires (e.g. "5m").
	SessionWarningTime string `mapstructure:"SESSION_WARNING_TIME"`
	// SessionHeartbeatPeriod is how often session state is persisted to the database (e.g. "5m").
	SessionHeartbeatPeriod string `mapstructure:"SESSION_HEARTBEAT_PERIOD"`

	// RateLimitMaxRequests is the default fixed-window request quota per caller.
	RateLimitMaxRequests int `mapstructure:"RATE_LIMIT_MAX_REQUESTS"`
	// RateLimitWindow is the default fixed-window duration (e.g. "60s").
	RateLimitWindow string `mapstructure:"RATE_LIMIT_WINDOW"`

	// SecurityEventKafkaBrokers is a comma-separated list of Kafka broker addresses.
	// When empty, the security event stream is disabled.
	SecurityEventKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// SecurityEventKafkaTopic is the Kafka topic for security events (default casevault-security-events).
	SecurityEventKafkaTopic string `mapstructure:"SECURITY_EVENT_KAFKA_TOPIC"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint (e.g. http://localhost:4317).
	// When empty, no-op telemetry providers are used.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`

	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_ISSUER", "casevault-auth")
	v.SetDefault("JWT_AUDIENCE", "casevault-api")
	v.SetDefault("JWT_ACCESS_TTL", "")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("SESSION_IDLE_TIMEOUT", "30m")
	v.SetDefault("SESSION_ABSOLUTE_TIMEOUT", "8h")
	v.SetDefault("SESSION_WARNING_TIME", "5m")
	v.SetDefault("SESSION_HEARTBEAT_PERIOD", "5m")
	v.SetDefault("RATE_LIMIT_MAX_REQUESTS", 10)
	v.SetDefault("RATE_LIMIT_WINDOW", "60s")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("SECURITY_EVENT_KAFKA_TOPIC", "casevault-security-events")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	if cfg.IdleTimeout() <= cfg.WarningTime() {
		return nil, errors.New("config: SESSION_IDLE_TIMEOUT must exceed SESSION_WARNING_TIME")
	}
	if cfg.AbsoluteTimeout() < cfg.IdleTimeout() {
		return nil, errors.New("config: SESSION_ABSOLUTE_TIMEOUT must be at least SESSION_IDLE_TIMEOUT")
	}

	return &cfg, nil
}

// AccessTokenTTL parses JWTAccessTTL as a time.Duration. Returns the absolute
// session timeout if unset or invalid.
func (c *Config) AccessTokenTTL() time.Duration {
	return durationOr(c.JWTAccessTTL, c.AbsoluteTimeout())
}

// IdleTimeout parses SessionIdleTimeout as a time.Duration. Returns 30m if unset or invalid.
func (c *Config) IdleTimeout() time.Duration {
	return durationOr(c.SessionIdleTimeout, 30*time.Minute)
}

// AbsoluteTimeout parses SessionAbsoluteTimeout as a time.Duration. Returns 8h if unset or invalid.
func (c *Config) AbsoluteTimeout() time.Duration {
	return durationOr(c.SessionAbsoluteTimeout, 8*time.Hour)
}

// WarningTime parses SessionWarningTime as a time.Duration. Returns 5m if unset or invalid.
func (c *Config) WarningTime() time.Duration {
	return durationOr(c.SessionWarningTime, 5*time.Minute)
}

// HeartbeatPeriod parses SessionHeartbeatPeriod as a time.Duration. Returns 5m if unset or invalid.
func (c *Config) HeartbeatPeriod() time.Duration {
	return durationOr(c.SessionHeartbeatPeriod, 5*time.Minute)
}

// RateWindow parses RateLimitWindow as a time.Duration. Returns 60s if unset or invalid.
func (c *Config) RateWindow() time.Duration {
	return durationOr(c.RateLimitWindow, 60*time.Second)
}

// SecurityEventKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if the security event stream is enabled (non-empty list) and to create the producer.
func (c *Config) SecurityEventKafkaBrokersList() []string {
	if c == nil || c.SecurityEventKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.SecurityEventKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func durationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
