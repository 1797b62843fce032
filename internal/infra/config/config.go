package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Valkey   ValkeyConfig   `yaml:"valkey"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// AuthConfig holds the two secrets and the credential policies.
type AuthConfig struct {
	HashKey            string         `yaml:"hashKey"`
	SigningKey         string         `yaml:"signingKey"`
	TokenTTL           time.Duration  `yaml:"tokenTtl"`
	TokenIssuer        string         `yaml:"tokenIssuer"`
	HashingConcurrency int            `yaml:"hashingConcurrency"`
	Argon2             Argon2Config   `yaml:"argon2"`
	Throttle           ThrottleConfig `yaml:"throttle"`
}

// Argon2Config contains the argon2id cost parameters.
type Argon2Config struct {
	Memory      uint32 `yaml:"memory"`
	Iterations  uint32 `yaml:"iterations"`
	Parallelism uint8  `yaml:"parallelism"`
	SaltLength  uint32 `yaml:"saltLength"`
	KeyLength   uint32 `yaml:"keyLength"`
}

// ThrottleConfig bounds failed login attempts per username.
type ThrottleConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxFailures int           `yaml:"maxFailures"`
	Window      time.Duration `yaml:"window"`
}

// DatabaseConfig contains DSN and pooling settings.
type DatabaseConfig struct {
	DSN            string        `yaml:"dsn"`
	MaxConns       int32         `yaml:"maxConns"`
	MinConns       int32         `yaml:"minConns"`
	AcquireTimeout time.Duration `yaml:"acquireTimeout"`
	AutoMigrate    bool          `yaml:"autoMigrate"`
}

// ValkeyConfig contains connection information for the login throttle store.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// String keeps secrets out of accidental %v logging.
func (a AuthConfig) String() string {
	return fmt.Sprintf("{HashKey:[REDACTED] SigningKey:[REDACTED] TokenTTL:%s TokenIssuer:%s}", a.TokenTTL, a.TokenIssuer)
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	host, port := os.Getenv("HOST"), os.Getenv("PORT")
	if host != "" || port != "" {
		currentHost, currentPort, err := net.SplitHostPort(cfg.HTTP.Address)
		if err != nil {
			currentHost, currentPort = "", "8080"
		}
		if host == "" {
			host = currentHost
		}
		if port == "" {
			port = currentPort
		}
		cfg.HTTP.Address = net.JoinHostPort(host, port)
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := firstEnv("AUTH_HASH_KEY", "SECRET_KEY"); v != "" {
		cfg.Auth.HashKey = v
	}
	if v := firstEnv("AUTH_SIGNING_KEY", "JWT_SECRET"); v != "" {
		cfg.Auth.SigningKey = v
	}
	if v := os.Getenv("AUTH_TOKEN_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Auth.TokenTTL = parsed
		}
	}
	if v := os.Getenv("AUTH_TOKEN_ISSUER"); v != "" {
		cfg.Auth.TokenIssuer = v
	}
	if v := os.Getenv("AUTH_HASHING_CONCURRENCY"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Auth.HashingConcurrency = parsed
		}
	}
	if v := os.Getenv("AUTH_THROTTLE_ENABLED"); v != "" {
		cfg.Auth.Throttle.Enabled = parseBool(v)
	}
	if v := os.Getenv("AUTH_THROTTLE_MAX_FAILURES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Auth.Throttle.MaxFailures = parsed
		}
	}
	if v := os.Getenv("AUTH_THROTTLE_WINDOW"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Auth.Throttle.Window = parsed
		}
	}
	if v := firstEnv("DATABASE_DSN", "DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("DATABASE_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Database.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("DATABASE_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Database.MinConns = int32(parsed)
		}
	}
	if v := os.Getenv("DATABASE_ACQUIRE_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Database.AcquireTimeout = parsed
		}
	}
	if v := os.Getenv("DATABASE_AUTO_MIGRATE"); v != "" {
		cfg.Database.AutoMigrate = parseBool(v)
	}
	if v := os.Getenv("VALKEY_ENABLED"); v != "" {
		cfg.Valkey.Enabled = parseBool(v)
	}
	if v := os.Getenv("VALKEY_ADDR"); v != "" {
		cfg.Valkey.Addr = v
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
		},
		Auth: AuthConfig{
			TokenTTL:           time.Hour,
			TokenIssuer:        "userauth",
			HashingConcurrency: 4,
			Argon2: Argon2Config{
				Memory:      64 * 1024,
				Iterations:  3,
				Parallelism: 2,
				SaltLength:  16,
				KeyLength:   32,
			},
			Throttle: ThrottleConfig{
				Enabled:     true,
				MaxFailures: 5,
				Window:      15 * time.Minute,
			},
		},
		Database: DatabaseConfig{
			MaxConns:       5,
			MinConns:       0,
			AcquireTimeout: 5 * time.Second,
			AutoMigrate:    true,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if strings.TrimSpace(c.Auth.HashKey) == "" {
		return errors.New("auth.hashKey (SECRET_KEY) is required")
	}
	if strings.TrimSpace(c.Auth.SigningKey) == "" {
		return errors.New("auth.signingKey (JWT_SECRET) is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.tokenTtl must be positive")
	}
	if c.Auth.HashingConcurrency <= 0 {
		return errors.New("auth.hashingConcurrency must be positive")
	}
	if c.Auth.Argon2.Memory < 8*uint32(c.Auth.Argon2.Parallelism) || c.Auth.Argon2.Iterations == 0 || c.Auth.Argon2.Parallelism == 0 {
		return errors.New("auth.argon2 parameters are invalid")
	}
	if c.Auth.Argon2.SaltLength < 8 || c.Auth.Argon2.KeyLength < 16 {
		return errors.New("auth.argon2 salt/key length too short")
	}
	if c.Auth.Throttle.Enabled {
		if c.Auth.Throttle.MaxFailures <= 0 {
			return errors.New("auth.throttle.maxFailures must be positive")
		}
		if c.Auth.Throttle.Window <= 0 {
			return errors.New("auth.throttle.window must be positive")
		}
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn (DATABASE_URL) is required")
	}
	if c.Database.MaxConns <= 0 {
		return errors.New("database.maxConns must be positive")
	}
	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return errors.New("database.minConns must be between 0 and maxConns")
	}
	if c.Database.AcquireTimeout <= 0 {
		return errors.New("database.acquireTimeout must be positive")
	}
	if c.Valkey.Enabled && strings.TrimSpace(c.Valkey.Addr) == "" {
		return errors.New("valkey.addr cannot be empty when valkey is enabled")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
