package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig
	Store         StoreConfig
	OpenFoodFacts OpenFoodFactsConfig `mapstructure:"openfoodfacts"`
	Carbon        CarbonConfig
	Batch         BatchConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string `mapstructure:"port"`
	Environment string `mapstructure:"environment"`
}

// StoreConfig holds product store configuration
type StoreConfig struct {
	Type         string        `mapstructure:"type"` // "mongo" or "memory"
	URI          string        `mapstructure:"uri"`
	Database     string        `mapstructure:"database"`
	Collection   string        `mapstructure:"collection"`
	TTL          time.Duration `mapstructure:"ttl"`
	ReapInterval time.Duration `mapstructure:"reap_interval"` // memory store only
}

// OpenFoodFactsConfig holds upstream product API configuration
type OpenFoodFactsConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"` // requests per second
	RateBurst int           `mapstructure:"rate_burst"`
}

// CarbonConfig holds Carbon Interface API configuration
type CarbonConfig struct {
	APIURL  string        `mapstructure:"api_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// BatchConfig holds batch resolution configuration
type BatchConfig struct {
	MaxConcurrentFetches int `mapstructure:"max_concurrent_fetches"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/ecoscan/")

	// Environment variable settings
	v.SetEnvPrefix("ECOSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")

	// Store defaults. The empty URI default registers the key so the
	// env-only value survives Unmarshal.
	v.SetDefault("store.type", "mongo")
	v.SetDefault("store.uri", "")
	v.SetDefault("store.database", "products_db")
	v.SetDefault("store.collection", "products")
	v.SetDefault("store.ttl", "24h")
	v.SetDefault("store.reap_interval", "10m")

	// OpenFoodFacts defaults
	v.SetDefault("openfoodfacts.base_url", "https://world.openfoodfacts.org/api/v0/product")
	v.SetDefault("openfoodfacts.timeout", "10s")
	v.SetDefault("openfoodfacts.rate_limit", 10.0)
	v.SetDefault("openfoodfacts.rate_burst", 10)

	// Carbon Interface defaults. The empty key default registers the key
	// so the env-only value survives Unmarshal.
	v.SetDefault("carbon.api_url", "https://api.carboninterface.com/v1/estimates")
	v.SetDefault("carbon.api_key", "")
	v.SetDefault("carbon.timeout", "10s")

	// Batch defaults
	v.SetDefault("batch.max_concurrent_fetches", 5)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Store.Type != "mongo" && config.Store.Type != "memory" {
		return fmt.Errorf("store type must be 'mongo' or 'memory', got: %s", config.Store.Type)
	}

	if config.Store.Type == "mongo" && config.Store.URI == "" {
		return fmt.Errorf("MongoDB URI is required when store type is 'mongo' (set ECOSCAN_STORE_URI)")
	}

	if config.Store.TTL <= 0 {
		return fmt.Errorf("store TTL must be positive, got: %s", config.Store.TTL)
	}

	if config.Batch.MaxConcurrentFetches < 1 {
		return fmt.Errorf("batch max_concurrent_fetches must be at least 1, got: %d", config.Batch.MaxConcurrentFetches)
	}

	return nil
}
