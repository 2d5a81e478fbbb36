package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Kafka          KafkaConfig          `mapstructure:"kafka"`
	Auth           AuthConfig           `mapstructure:"auth"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
	Security       SecurityConfig       `mapstructure:"security"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MaxIdleTime    time.Duration `mapstructure:"max_idle_time"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type RedisConfig struct {
	URL        string        `mapstructure:"url"`
	MaxRetries int           `mapstructure:"max_retries"`
	PoolSize   int           `mapstructure:"pool_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topics  struct {
		Interactions string `mapstructure:"interactions"`
	} `mapstructure:"topics"`
}

type AuthConfig struct {
	JWTSecret string          `mapstructure:"jwt_secret"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Limit   int           `mapstructure:"limit"`
	Window  time.Duration `mapstructure:"window"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RecommendationConfig carries every tunable of the recommendation core.
// The struct is immutable after Load; services receive it at construction,
// which lets tests inject alternate weights and complementary maps.
type RecommendationConfig struct {
	Similarity      SimilarityConfig      `mapstructure:"similarity"`
	Trending        TrendingConfig        `mapstructure:"trending"`
	Personalization PersonalizationConfig `mapstructure:"personalization"`
	RecentlyViewed  RecentlyViewedConfig  `mapstructure:"recently_viewed"`
	CompleteTheLook CompleteTheLookConfig `mapstructure:"complete_the_look"`
}

type SimilarityConfig struct {
	// KNNEnabled selects the exact nearest-neighbor strategy at startup.
	// When false the engine runs degraded: same category sorted by
	// absolute price difference.
	KNNEnabled   bool `mapstructure:"knn_enabled"`
	DefaultCount int  `mapstructure:"default_count"`
}

type TrendingConfig struct {
	WindowDays   int           `mapstructure:"window_days"`
	DefaultCount int           `mapstructure:"default_count"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

type PersonalizationConfig struct {
	WindowDays   int     `mapstructure:"window_days"`
	MaxEvents    int     `mapstructure:"max_events"`
	DefaultCount int     `mapstructure:"default_count"`
	TopProducts  int     `mapstructure:"top_products"`
	PriceBandLow float64 `mapstructure:"price_band_low"`
	PriceBandHi  float64 `mapstructure:"price_band_high"`
	// Weights score interaction kinds for the weighted-personalized
	// operation: purchases must dominate views.
	Weights map[string]float64 `mapstructure:"weights"`
}

type RecentlyViewedConfig struct {
	MaxEvents    int `mapstructure:"max_events"`
	DefaultCount int `mapstructure:"default_count"`
}

type CompleteTheLookConfig struct {
	DefaultCount   int `mapstructure:"default_count"`
	PerSubCategory int `mapstructure:"per_sub_category"`
	// Complementary maps category -> sub-category -> stylistically paired
	// sub-categories.
	Complementary map[string]map[string][]string `mapstructure:"complementary"`
}

type SecurityConfig struct {
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

func Load() (*Config, error) {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	setDefaults()

	// Environment variable overrides
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional, continue with env vars and defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "development")

	// Database defaults
	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.max_idle_time", "15m")
	viper.SetDefault("database.max_lifetime", "1h")
	viper.SetDefault("database.connect_timeout", "10s")

	// Redis defaults
	viper.SetDefault("redis.url", "localhost:6379")
	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.timeout", "5s")

	// Kafka defaults
	viper.SetDefault("kafka.enabled", false)
	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.topics.interactions", "product-interactions")

	// Auth defaults
	viper.SetDefault("auth.rate_limit.enabled", true)
	viper.SetDefault("auth.rate_limit.limit", 1000)
	viper.SetDefault("auth.rate_limit.window", "1h")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	// Similarity defaults
	viper.SetDefault("recommendation.similarity.knn_enabled", true)
	viper.SetDefault("recommendation.similarity.default_count", 6)

	// Trending defaults
	viper.SetDefault("recommendation.trending.window_days", 7)
	viper.SetDefault("recommendation.trending.default_count", 6)
	viper.SetDefault("recommendation.trending.cache_ttl", "1m")

	// Personalization defaults
	viper.SetDefault("recommendation.personalization.window_days", 30)
	viper.SetDefault("recommendation.personalization.max_events", 20)
	viper.SetDefault("recommendation.personalization.default_count", 6)
	viper.SetDefault("recommendation.personalization.top_products", 5)
	viper.SetDefault("recommendation.personalization.price_band_low", 0.7)
	viper.SetDefault("recommendation.personalization.price_band_high", 1.3)
	viper.SetDefault("recommendation.personalization.weights", map[string]float64{
		"purchase":    5.0,
		"add_to_cart": 3.0,
		"wishlist":    2.0,
		"click":       1.5,
		"view":        1.0,
	})

	// Recently viewed defaults
	viper.SetDefault("recommendation.recently_viewed.max_events", 50)
	viper.SetDefault("recommendation.recently_viewed.default_count", 8)

	// Complete-the-look defaults
	viper.SetDefault("recommendation.complete_the_look.default_count", 4)
	viper.SetDefault("recommendation.complete_the_look.per_sub_category", 2)
	viper.SetDefault("recommendation.complete_the_look.complementary", map[string]map[string][]string{
		"women": {
			"dresses":     {"accessories", "shoes"},
			"tops":        {"pants", "skirts", "accessories"},
			"pants":       {"tops", "shoes", "accessories"},
			"skirts":      {"tops", "shoes", "accessories"},
			"shoes":       {"accessories"},
			"accessories": {"tops", "dresses"},
		},
		"men": {
			"shirts":      {"pants", "shoes", "accessories"},
			"pants":       {"shirts", "shoes", "accessories"},
			"t-shirts":    {"pants", "shoes"},
			"shoes":       {"accessories"},
			"accessories": {"shirts", "pants"},
		},
		"kids": {
			"tops":    {"pants", "shoes"},
			"pants":   {"tops", "shoes"},
			"dresses": {"shoes", "accessories"},
		},
	})

	// Security defaults
	viper.SetDefault("security.cors.allowed_origins", []string{"*"})
	viper.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("security.cors.allowed_headers", []string{"*"})
}
