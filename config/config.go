package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Catalog sources
const (
	CatalogSourceHTTP = "http"
	CatalogSourceSQL  = "sql"
	CatalogSourceFile = "file"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CatalogConfig selects and configures the product catalog collaborator
type CatalogConfig struct {
	Source   string            `mapstructure:"source"` // "http", "sql" or "file"
	File     string            `mapstructure:"file"`
	HTTP     HTTPCatalogConfig `mapstructure:"http"`
	Database DatabaseConfig    `mapstructure:"database"`
}

// HTTPCatalogConfig holds document store API configuration
type HTTPCatalogConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Collection        string        `mapstructure:"collection"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	MaxRetries        int           `mapstructure:"max_retries"`
}

// DatabaseConfig holds SQL catalog configuration
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // "postgres" or "sqlite"
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// CacheConfig holds catalog snapshot cache configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// MatchingConfig holds matching engine configuration
type MatchingConfig struct {
	DefaultLimit       int     `mapstructure:"default_limit"`
	MultiLimit         int     `mapstructure:"multi_limit"`
	SkincareCategory   string  `mapstructure:"skincare_category"`
	MinDetectionScore  float64 `mapstructure:"min_detection_score"`
	EnableDebugLogging bool    `mapstructure:"enable_debug_logging"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	return LoadWithOverrides("", nil)
}

// LoadWithOverrides loads configuration like Load, reading configFile when
// non-empty and applying overrides (viper keys such as "catalog.source") last
func LoadWithOverrides(configFile string, overrides map[string]any) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/skinmatch/")
	}

	// SKINMATCH_CATALOG_HTTP_BASE_URL -> catalog.http.base_url
	v.SetEnvPrefix("SKINMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Catalog defaults
	v.SetDefault("catalog.source", CatalogSourceHTTP)
	v.SetDefault("catalog.file", "")
	v.SetDefault("catalog.http.base_url", "")
	v.SetDefault("catalog.http.api_key", "")
	v.SetDefault("catalog.http.collection", "products")
	v.SetDefault("catalog.http.timeout", "15s")
	v.SetDefault("catalog.http.requests_per_second", 5)
	v.SetDefault("catalog.http.burst", 10)
	v.SetDefault("catalog.http.max_retries", 3)
	v.SetDefault("catalog.database.driver", "postgres")
	v.SetDefault("catalog.database.dsn", "")
	v.SetDefault("catalog.database.max_open_conns", 10)
	v.SetDefault("catalog.database.max_idle_conns", 5)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "5m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)

	// Matching defaults
	v.SetDefault("matching.default_limit", 3)
	v.SetDefault("matching.multi_limit", 5)
	v.SetDefault("matching.skincare_category", "soin")
	v.SetDefault("matching.min_detection_score", 0.5)
	v.SetDefault("matching.enable_debug_logging", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Catalog.Source {
	case CatalogSourceHTTP:
		if config.Catalog.HTTP.BaseURL == "" {
			return fmt.Errorf("catalog base URL is required (set SKINMATCH_CATALOG_HTTP_BASE_URL)")
		}
	case CatalogSourceSQL:
		if config.Catalog.Database.DSN == "" {
			return fmt.Errorf("database DSN is required (set SKINMATCH_CATALOG_DATABASE_DSN)")
		}
		if d := config.Catalog.Database.Driver; d != "postgres" && d != "sqlite" {
			return fmt.Errorf("database driver must be 'postgres' or 'sqlite', got: %s", d)
		}
	case CatalogSourceFile:
		if config.Catalog.File == "" {
			return fmt.Errorf("catalog file path is required (set SKINMATCH_CATALOG_FILE)")
		}
	default:
		return fmt.Errorf("catalog source must be 'http', 'sql' or 'file', got: %s", config.Catalog.Source)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Matching.MinDetectionScore < 0 || config.Matching.MinDetectionScore > 1 {
		return fmt.Errorf("min detection score must be within [0, 1], got: %v", config.Matching.MinDetectionScore)
	}

	return nil
}

// loadEnvFile exports variables from ./.env without overriding the environment
func loadEnvFile() error {
	ev := viper.New()
	ev.SetConfigFile(".env")
	ev.SetConfigType("env")

	if err := ev.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound) {
			return nil
		}
		return err
	}

	for _, key := range ev.AllKeys() {
		name := strings.ToUpper(key)
		if _, exists := os.LookupEnv(name); exists {
			continue
		}
		if err := os.Setenv(name, ev.GetString(key)); err != nil {
			return err
		}
	}
	return nil
}
