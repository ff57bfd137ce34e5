package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// HTTP server serving the pages
	Server ServerConfig `mapstructure:"server"`

	// Track metadata backend
	API APIConfig `mapstructure:"api"`

	// Redis (session store + rate limit)
	Redis RedisConfig `mapstructure:"redis"`

	// NATS (lookup events)
	NATS NATSConfig `mapstructure:"nats"`

	// PostgreSQL (lookup history)
	Postgres PostgresConfig `mapstructure:"postgres"`

	// Prometheus
	Prometheus PrometheusConfig `mapstructure:"prometheus"`

	// Rate limit on form submissions
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

type ServerConfig struct {
	Addr          string        `mapstructure:"addr"`
	Title         string        `mapstructure:"title"`
	SessionSecret string        `mapstructure:"session_secret"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	CookieName    string        `mapstructure:"cookie_name"`
}

type APIConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	BasicUser     string        `mapstructure:"basic_user"`
	BasicPassword string        `mapstructure:"basic_password"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	Port     int    `mapstructure:"port"`
	SSLMode  string `mapstructure:"sslmode"`
}

type PrometheusConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

type RateLimitConfig struct {
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

// Enabled reports whether a redis host is configured.
func (c RedisConfig) Enabled() bool { return c.Host != "" }

// Enabled reports whether a NATS host is configured.
func (c NATSConfig) Enabled() bool { return c.Host != "" }

// Enabled reports whether a Postgres host is configured.
func (c PostgresConfig) Enabled() bool { return c.Host != "" }

func Load() (*Config, error) {
	// Load local .env for development (ignored when missing).
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Search for config/config.yaml (plus root for overrides).
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Allow environment variables to override YAML entries.
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Preserve legacy env variable names.
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.title", "Universal Music Group Code Challenge")
	v.SetDefault("server.session_ttl", 24*time.Hour)
	v.SetDefault("server.cookie_name", "trackdesk_session")

	// Same defaults as the browser client shipped with the backend.
	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.basic_user", "admin")
	v.SetDefault("api.basic_password", "admin123")
	v.SetDefault("api.timeout", 30*time.Second)

	v.SetDefault("prometheus.port", 9090)

	v.SetDefault("ratelimit.max_requests", 60)
	v.SetDefault("ratelimit.window", time.Minute)
}

func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.addr", "HTTP_ADDR")
	v.BindEnv("server.session_secret", "SESSION_SECRET")
	v.BindEnv("server.session_ttl", "SESSION_TTL")

	// Backend API (names used by the original browser build)
	v.BindEnv("api.base_url", "VITE_API_BASE_URL", "API_BASE_URL")
	v.BindEnv("api.basic_user", "VITE_BASIC_USER", "BASIC_USER")
	v.BindEnv("api.basic_password", "VITE_BASIC_PASS", "BASIC_PASS")
	v.BindEnv("api.timeout", "API_TIMEOUT")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// NATS
	v.BindEnv("nats.host", "NATS_HOST")
	v.BindEnv("nats.port", "NATS_PORT")
	v.BindEnv("nats.user", "NATS_USER")
	v.BindEnv("nats.password", "NATS_PASSWORD")

	// PostgreSQL
	v.BindEnv("postgres.host", "PG_HOST")
	v.BindEnv("postgres.user", "PG_USER")
	v.BindEnv("postgres.password", "PG_PASSWORD")
	v.BindEnv("postgres.database", "PG_DB")
	v.BindEnv("postgres.port", "PG_PORT")
	v.BindEnv("postgres.sslmode", "PG_SSLMODE")

	// Prometheus
	v.BindEnv("prometheus.enabled", "PROM_ENABLED")
	v.BindEnv("prometheus.port", "PROM_PORT")
}

func (c *Config) validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("config: api.base_url must not be empty")
	}
	if c.Server.CookieName == "" {
		return fmt.Errorf("config: server.cookie_name must not be empty")
	}
	return nil
}
