package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Versions   VersionsConfig   `mapstructure:"versions"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Query      QueryConfig      `mapstructure:"query"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// ExtractionConfig describes where raw per-version exports live and where artifacts go
type ExtractionConfig struct {
	VersionsDir  string `mapstructure:"versions_dir"`
	OutputDir    string `mapstructure:"output_dir"`
	RecipeDir    string `mapstructure:"recipe_dir"`
	LootTableDir string `mapstructure:"loot_table_dir"`
	MetadataFile string `mapstructure:"metadata_file"`
	Workers      int    `mapstructure:"workers"`
}

// VersionsConfig contains version ordering hints
type VersionsConfig struct {
	// SnapshotPins maps a snapshot id to the release it precedes, e.g. "23w45a": "1.20.3"
	SnapshotPins map[string]string `mapstructure:"snapshot_pins"`
}

// RedisConfig contains Redis connection configuration
type RedisConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	PingTimeout    time.Duration `mapstructure:"ping_timeout"`
	ArtifactTTL    time.Duration `mapstructure:"artifact_ttl"`
	KeyPrefix      string        `mapstructure:"key_prefix"`
}

// QueryConfig contains in-process cache settings for versioned queries
type QueryConfig struct {
	CacheTTL             time.Duration `mapstructure:"cache_ttl"`
	CacheCleanupInterval time.Duration `mapstructure:"cache_cleanup_interval"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig contains metrics export configuration
type MetricsConfig struct {
	// Textfile is the node_exporter textfile path; empty disables export
	Textfile string `mapstructure:"textfile"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/etc/crafting-source")

	// Set environment variable prefix and key replacement
	viper.SetEnvPrefix("MC_SRC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Explicitly bind environment variables for better reliability
	viper.BindEnv("extraction.versions_dir", "MC_SRC_EXTRACTION_VERSIONS_DIR")
	viper.BindEnv("extraction.output_dir", "MC_SRC_EXTRACTION_OUTPUT_DIR")
	viper.BindEnv("extraction.workers", "MC_SRC_EXTRACTION_WORKERS")
	viper.BindEnv("redis.enabled", "MC_SRC_REDIS_ENABLED")
	viper.BindEnv("redis.url", "MC_SRC_REDIS_URL")
	viper.BindEnv("logging.level", "MC_SRC_LOGGING_LEVEL")
	viper.BindEnv("logging.format", "MC_SRC_LOGGING_FORMAT")
	viper.BindEnv("metrics.textfile", "MC_SRC_METRICS_TEXTFILE")

	// Set defaults
	setDefaults()

	// Try to read config file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults + env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	// Extraction defaults mirror the export layout
	viper.SetDefault("extraction.versions_dir", "versions")
	viper.SetDefault("extraction.output_dir", "finalized")
	viper.SetDefault("extraction.recipe_dir", "tags/recipe")
	viper.SetDefault("extraction.loot_table_dir", "tags/loot_table")
	viper.SetDefault("extraction.metadata_file", "version.json")
	viper.SetDefault("extraction.workers", 8)

	// Redis defaults (disabled unless a URL is provided)
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.max_connections", 10)
	viper.SetDefault("redis.read_timeout", "3s")
	viper.SetDefault("redis.write_timeout", "3s")
	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.ping_timeout", "5s")
	viper.SetDefault("redis.artifact_ttl", "24h")
	viper.SetDefault("redis.key_prefix", "mcsrc:artifact:")

	// Query defaults
	viper.SetDefault("query.cache_ttl", "10m")
	viper.SetDefault("query.cache_cleanup_interval", "15m")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// Validate validates the configuration and ensures required fields are present
func (c *Config) Validate() error {
	dirs := map[string]string{
		"extraction.versions_dir":   c.Extraction.VersionsDir,
		"extraction.output_dir":     c.Extraction.OutputDir,
		"extraction.recipe_dir":     c.Extraction.RecipeDir,
		"extraction.loot_table_dir": c.Extraction.LootTableDir,
		"extraction.metadata_file":  c.Extraction.MetadataFile,
	}
	for name, value := range dirs {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("required configuration field '%s' cannot be empty", name)
		}
	}

	if c.Extraction.Workers < 1 || c.Extraction.Workers > 256 {
		return fmt.Errorf("extraction.workers must be between 1 and 256, got %d", c.Extraction.Workers)
	}

	if c.Redis.Enabled {
		if c.Redis.URL == "" {
			return fmt.Errorf("required configuration field 'redis.url' is not set (use environment variable MC_SRC_REDIS_URL)")
		}

		timeouts := map[string]time.Duration{
			"redis.read_timeout":  c.Redis.ReadTimeout,
			"redis.write_timeout": c.Redis.WriteTimeout,
			"redis.ping_timeout":  c.Redis.PingTimeout,
		}
		for name, timeout := range timeouts {
			if timeout <= 0 {
				return fmt.Errorf("timeout '%s' must be positive, got %v", name, timeout)
			}
			if timeout > 10*time.Minute {
				return fmt.Errorf("timeout '%s' seems too large, got %v", name, timeout)
			}
		}

		if c.Redis.MaxConnections <= 0 {
			return fmt.Errorf("redis.max_connections must be positive, got %d", c.Redis.MaxConnections)
		}
		if c.Redis.MaxRetries < 0 {
			return fmt.Errorf("redis.max_retries cannot be negative, got %d", c.Redis.MaxRetries)
		}
		if c.Redis.ArtifactTTL <= 0 {
			return fmt.Errorf("redis.artifact_ttl must be positive, got %v", c.Redis.ArtifactTTL)
		}
	}

	if c.Query.CacheTTL <= 0 {
		return fmt.Errorf("query.cache_ttl must be positive, got %v", c.Query.CacheTTL)
	}
	if c.Query.CacheCleanupInterval <= 0 {
		return fmt.Errorf("query.cache_cleanup_interval must be positive, got %v", c.Query.CacheCleanupInterval)
	}

	return nil
}
