// Package config provides configuration loading for the campaign server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	pob "github.com/angelmc32/pob-v1"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Redemption RedemptionConfig `mapstructure:"redemption"`
	Keygen     KeygenConfig     `mapstructure:"keygen"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	Host           string        `mapstructure:"host"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	Environment    string        `mapstructure:"environment"` // dev, staging, prod
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	APIKeys        []string      `mapstructure:"api_keys"` // empty disables auth
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// URL returns the postgres:// URL used by migrations.
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedemptionConfig holds the public redemption site settings.
type RedemptionConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	ClaimTTL time.Duration `mapstructure:"claim_ttl"`
}

// KeygenConfig holds key generation limits.
type KeygenConfig struct {
	Workers     int `mapstructure:"workers"`
	MaxQuantity int `mapstructure:"max_quantity"`
}

// RateLimitConfig holds per-client request limits.
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	BurstSize         int `mapstructure:"burst_size"`
}

// Pipeline returns the library configuration for campaign generation.
func (c *Config) Pipeline() pob.Config {
	return pob.Config{
		BaseURL:     c.Redemption.BaseURL,
		Workers:     c.Keygen.Workers,
		MaxQuantity: c.Keygen.MaxQuantity,
	}.WithDefaults()
}

// Load reads configuration from files and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pob")

	v.SetEnvPrefix("POB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Nested keys without defaults are not picked up by AutomaticEnv
	_ = v.BindEnv("redemption.base_url", "POB_REDEMPTION_BASE_URL")
	_ = v.BindEnv("database.password", "POB_DATABASE_PASSWORD")
	_ = v.BindEnv("redis.password", "POB_REDIS_PASSWORD")
	_ = v.BindEnv("server.api_keys", "POB_SERVER_API_KEYS")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	if c.Redemption.BaseURL == "" {
		return pob.NewValidationError("redemption.base_url", "is required (POB_REDEMPTION_BASE_URL)")
	}
	if _, err := pob.NewURLBuilder(c.Redemption.BaseURL); err != nil {
		return fmt.Errorf("redemption.base_url: %w", err)
	}
	if c.Keygen.MaxQuantity < 0 {
		return pob.NewValidationError("keygen.max_quantity", "must not be negative")
	}
	return nil
}

// setDefaults configures default values for all settings.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "dev")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})
	v.SetDefault("server.api_keys", []string{})

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "pob")
	v.SetDefault("database.password", "pob")
	v.SetDefault("database.database", "pob")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Redemption defaults
	v.SetDefault("redemption.claim_ttl", "30s")

	// Keygen defaults
	v.SetDefault("keygen.workers", 4)
	v.SetDefault("keygen.max_quantity", pob.DefaultMaxQuantity)

	// Rate limit defaults
	v.SetDefault("rate_limit.requests_per_minute", 60)
	v.SetDefault("rate_limit.burst_size", 10)
}
