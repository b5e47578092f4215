package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	RedisAddr    string
	RedisPass    string
	RedisDB      int
	Port         string
	IsProduction bool

	// Upstream (Bank of Korea ECOS) API
	BokBaseURL  string
	BokAPIKey   string
	BokStatCode string
	BokTimeout  time.Duration

	// Upstream call budget (shared across instances)
	RateLimitMaxCalls    int
	RateLimitWindow      time.Duration
	RateLimitMaxWait     time.Duration
	RateLimitMinInterval time.Duration
	RateLimitBlock       bool

	// Cache tier
	CacheTTL      time.Duration
	CacheJitter   float64
	CacheStaleTTL time.Duration
	CachePrefix   string

	// Per-client-IP HTTP rate limit, ulule/limiter format (e.g. "100-M")
	HTTPRateLimit string

	// Overall per-request resolution budget
	RequestTimeout time.Duration

	// Background refresh
	RefreshInterval time.Duration
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)

	viper.SetDefault("BOK_API_BASE_URL", "https://ecos.bok.or.kr/api")
	viper.SetDefault("BOK_API_KEY", "")
	viper.SetDefault("BOK_API_STAT_CODE", "731Y001")
	viper.SetDefault("BOK_API_TIMEOUT", "10s")

	viper.SetDefault("RATE_LIMIT_MAX_CALLS", 300)
	viper.SetDefault("RATE_LIMIT_WINDOW", "30m")
	viper.SetDefault("RATE_LIMIT_MAX_WAIT", "5m")
	viper.SetDefault("RATE_LIMIT_MIN_INTERVAL", "0s")
	viper.SetDefault("RATE_LIMIT_BLOCK", false)

	viper.SetDefault("CACHE_TTL", "24h")
	viper.SetDefault("CACHE_JITTER", 0.2)
	viper.SetDefault("CACHE_STALE_TTL", "168h")
	viper.SetDefault("CACHE_PREFIX", "fxnow")

	viper.SetDefault("HTTP_RATE_LIMIT", "100-M")
	viper.SetDefault("REQUEST_TIMEOUT", "30s")
	viper.SetDefault("REFRESH_INTERVAL", "30m")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.RedisAddr = viper.GetString("REDIS_ADDR")
	cfg.RedisPass = viper.GetString("REDIS_PASSWORD")
	cfg.RedisDB = viper.GetInt("REDIS_DB")
	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.BokBaseURL = viper.GetString("BOK_API_BASE_URL")
	cfg.BokAPIKey = viper.GetString("BOK_API_KEY")
	if cfg.BokAPIKey == "" {
		log.Println("Warning: BOK_API_KEY environment variable not set. Upstream calls will fail authentication.")
	}
	cfg.BokStatCode = viper.GetString("BOK_API_STAT_CODE")

	var err error
	if cfg.BokTimeout, err = parseDuration("BOK_API_TIMEOUT"); err != nil {
		return nil, err
	}

	cfg.RateLimitMaxCalls = viper.GetInt("RATE_LIMIT_MAX_CALLS")
	if cfg.RateLimitWindow, err = parseDuration("RATE_LIMIT_WINDOW"); err != nil {
		return nil, err
	}
	if cfg.RateLimitMaxWait, err = parseDuration("RATE_LIMIT_MAX_WAIT"); err != nil {
		return nil, err
	}
	if cfg.RateLimitMinInterval, err = parseDuration("RATE_LIMIT_MIN_INTERVAL"); err != nil {
		return nil, err
	}
	cfg.RateLimitBlock = viper.GetBool("RATE_LIMIT_BLOCK")

	if cfg.CacheTTL, err = parseDuration("CACHE_TTL"); err != nil {
		return nil, err
	}
	cfg.CacheJitter = viper.GetFloat64("CACHE_JITTER")
	if cfg.CacheStaleTTL, err = parseDuration("CACHE_STALE_TTL"); err != nil {
		return nil, err
	}
	cfg.CachePrefix = viper.GetString("CACHE_PREFIX")

	cfg.HTTPRateLimit = viper.GetString("HTTP_RATE_LIMIT")
	if cfg.RequestTimeout, err = parseDuration("REQUEST_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = parseDuration("REFRESH_INTERVAL"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseDuration(key string) (time.Duration, error) {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s ('%s'): %w", key, raw, err)
	}
	return d, nil
}
