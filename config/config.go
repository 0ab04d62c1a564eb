package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Store      StoreConfig
	Cache      CacheConfig
	RateLimit  RateLimitConfig
	Crawler    CrawlerConfig
	Benchmarks BenchmarksConfig
	Matching   MatchingConfig
	Sync       SyncConfig
	Enrichment EnrichmentConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig controls the zerolog logger
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "console" or "json"; empty picks by environment
}

// StoreConfig selects the catalog store
type StoreConfig struct {
	Driver string `mapstructure:"driver"` // "sqlite" or "postgres"
	DSN    string `mapstructure:"dsn"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int     `mapstructure:"per_ip"` // requests per minute per client IP
	Crawl float64 `mapstructure:"crawl"`  // outgoing crawl requests per second
}

// SelectorConfig holds the CSS selectors of one scraped page type.
// Listing pages use item/name/price/spec/image; benchmark charts use row/name/score.
type SelectorConfig struct {
	Item      string `mapstructure:"item"`
	Row       string `mapstructure:"row"`
	Name      string `mapstructure:"name"`
	Price     string `mapstructure:"price"`
	Score     string `mapstructure:"score"`
	Spec      string `mapstructure:"spec"`
	Image     string `mapstructure:"image"`
	ImageAttr string `mapstructure:"image_attr"`
}

// SourceConfig is one scraped URL; {page} in the URL is replaced by the page number
type SourceConfig struct {
	URL       string         `mapstructure:"url"`
	Selectors SelectorConfig `mapstructure:"selectors"`
}

// CrawlerConfig holds the listing crawl configuration. Sources are keyed by category.
type CrawlerConfig struct {
	UserAgent string                  `mapstructure:"user_agent"`
	Timeout   time.Duration           `mapstructure:"timeout"`
	MaxPages  int                     `mapstructure:"max_pages"`
	Sources   map[string]SourceConfig `mapstructure:"sources"`
}

// ScoreFloorConfig is one row of the benchmark score-floor table
type ScoreFloorConfig struct {
	Category string `mapstructure:"category"`
	Pattern  string `mapstructure:"pattern"`
	MinScore int64  `mapstructure:"min_score"`
}

// BenchmarksConfig holds benchmark chart sources and the score-floor table.
// An empty floor table uses the built-in defaults.
type BenchmarksConfig struct {
	Sources     map[string]SourceConfig `mapstructure:"sources"`
	ScoreFloors []ScoreFloorConfig      `mapstructure:"score_floors"`
}

// MatchingConfig holds matching algorithm configuration
type MatchingConfig struct {
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	KeywordMinLength    int     `mapstructure:"keyword_min_length"`
	StrictKeys          bool    `mapstructure:"strict_keys"`
	EnableDebugLogging  bool    `mapstructure:"enable_debug_logging"`
}

// SyncConfig holds catalog sync configuration
type SyncConfig struct {
	Timezone               string `mapstructure:"timezone"`
	MinListingsForDeletion int    `mapstructure:"min_listings_for_deletion"`
}

// EnrichmentConfig holds review generation configuration. Enrichment is disabled
// without an API key.
type EnrichmentConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Delay       time.Duration `mapstructure:"delay"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseBackoff time.Duration `mapstructure:"base_backoff"`
}

// Location resolves the sync timezone
func (c SyncConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	// .env is optional; existing environment variables win
	_ = godotenv.Load()

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pcsite/")

	// PCSITE_SERVER_PORT overrides server.port
	v.SetEnvPrefix("PCSITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
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

// setDefaults sets default configuration values. Every key that may come from the
// environment needs a default so viper binds it.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "")

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "pcsite.db")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "168h") // 7 days

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.crawl", 1.0)

	v.SetDefault("crawler.user_agent", "PCSite/1.0")
	v.SetDefault("crawler.timeout", "30s")
	v.SetDefault("crawler.max_pages", 10)

	v.SetDefault("matching.similarity_threshold", 0.65)
	v.SetDefault("matching.keyword_min_length", 3)
	v.SetDefault("matching.strict_keys", false)
	v.SetDefault("matching.enable_debug_logging", false)

	v.SetDefault("sync.timezone", "Asia/Seoul")
	v.SetDefault("sync.min_listings_for_deletion", 1)

	v.SetDefault("enrichment.api_key", "")
	v.SetDefault("enrichment.model", "gemini-2.0-flash")
	v.SetDefault("enrichment.delay", "2s")
	v.SetDefault("enrichment.max_attempts", 3)
	v.SetDefault("enrichment.base_backoff", "1s")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Store.Driver != "sqlite" && config.Store.Driver != "postgres" {
		return fmt.Errorf("store driver must be 'sqlite' or 'postgres', got: %s", config.Store.Driver)
	}
	if config.Store.Driver == "postgres" && config.Store.DSN == "" {
		return fmt.Errorf("store dsn is required when store driver is 'postgres'")
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}
	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Matching.SimilarityThreshold <= 0 || config.Matching.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be in (0, 1], got: %v", config.Matching.SimilarityThreshold)
	}
	if config.Matching.KeywordMinLength < 1 {
		return fmt.Errorf("keyword min length must be positive, got: %d", config.Matching.KeywordMinLength)
	}

	if _, err := config.Sync.Location(); err != nil {
		return fmt.Errorf("sync timezone: %w", err)
	}
	if config.Sync.MinListingsForDeletion < 1 {
		return fmt.Errorf("min listings for deletion must be at least 1, got: %d", config.Sync.MinListingsForDeletion)
	}

	if config.RateLimit.PerIP < 0 || config.RateLimit.Crawl <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}

	for i, floor := range config.Benchmarks.ScoreFloors {
		if floor.Pattern == "" {
			continue
		}
		if _, err := regexp.Compile(floor.Pattern); err != nil {
			return fmt.Errorf("score floor %d: %w", i, err)
		}
	}

	return nil
}
