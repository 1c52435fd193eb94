package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Catalog     CatalogConfig   `mapstructure:"catalog"`
	Store       StoreConfig     `mapstructure:"store"`
	Timer       TimerConfig     `mapstructure:"timer"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level"`
	LogFile     string          `mapstructure:"log_file"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// 食譜目錄來源
const (
	SourceFile = "file"
	SourceHTTP = "http"
)

// CatalogConfig 食譜目錄配置
type CatalogConfig struct {
	Source          string        `mapstructure:"source"`
	Dir             string        `mapstructure:"dir"`
	BaseURL         string        `mapstructure:"base_url"`
	IngredientsFile string        `mapstructure:"ingredients_file"`
	RecipesFile     string        `mapstructure:"recipes_file"`
	SubstitutesFile string        `mapstructure:"substitutes_file"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Watch           bool          `mapstructure:"watch"`
	WatchDebounce   time.Duration `mapstructure:"watch_debounce"`
	DefaultServings int           `mapstructure:"default_servings"`
}

// 儲存驅動
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// StoreConfig 使用者清單（已選食材、收藏、購物清單）的儲存設定
type StoreConfig struct {
	Driver          string        `mapstructure:"driver"`
	KeyPrefix       string        `mapstructure:"key_prefix"`
	TTL             time.Duration `mapstructure:"ttl"`
	MaxKeys         int           `mapstructure:"max_keys"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	Redis           RedisConfig   `mapstructure:"redis"`
}

// RedisConfig Redis 連線設定
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// TimerConfig 步驟計時器設定
type TimerConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	Retention     time.Duration `mapstructure:"retention"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 不存在時只使用環境變數與預設值
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	_ = v.BindEnv("catalog.source", "CATALOG_SOURCE")
	_ = v.BindEnv("catalog.dir", "CATALOG_DIR")
	_ = v.BindEnv("catalog.base_url", "CATALOG_BASE_URL")
	_ = v.BindEnv("catalog.watch", "CATALOG_WATCH")
	_ = v.BindEnv("store.driver", "STORE_DRIVER")
	_ = v.BindEnv("store.redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("store.redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("store.redis.db", "REDIS_DB")
	_ = v.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	_ = v.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	_ = v.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	_ = v.BindEnv("dedup_window", "DEDUP_WINDOW")
	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("log_file", "LOG_FILE")
	_ = v.BindEnv("server.port", "PORT")

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-finder")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	// 食譜目錄
	v.SetDefault("catalog.source", SourceFile)
	v.SetDefault("catalog.dir", "data")
	v.SetDefault("catalog.ingredients_file", "ingredients.json")
	v.SetDefault("catalog.recipes_file", "recipes.json")
	v.SetDefault("catalog.substitutes_file", "substitutes.json")
	v.SetDefault("catalog.timeout", "10s")
	v.SetDefault("catalog.watch", false)
	v.SetDefault("catalog.watch_debounce", "500ms")
	v.SetDefault("catalog.default_servings", 4)

	// 儲存
	v.SetDefault("store.driver", StoreMemory)
	v.SetDefault("store.key_prefix", "fc")
	v.SetDefault("store.ttl", "720h")
	v.SetDefault("store.max_keys", 30000)
	v.SetDefault("store.cleanup_interval", "10m")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.db", 0)

	// 計時器
	v.SetDefault("timer.sweep_interval", "5s")
	v.SetDefault("timer.retention", "10m")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 300)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("dedup_window", "300ms")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "logs/app.log")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}

	switch config.Catalog.Source {
	case SourceFile:
		if config.Catalog.Dir == "" {
			return fmt.Errorf("catalog dir is required for file source")
		}
	case SourceHTTP:
		if config.Catalog.BaseURL == "" {
			return fmt.Errorf("catalog base_url is required for http source")
		}
		if config.Catalog.Watch {
			return fmt.Errorf("catalog watch is only supported for file source")
		}
	default:
		return fmt.Errorf("unknown catalog source %q", config.Catalog.Source)
	}
	if config.Catalog.DefaultServings <= 0 {
		return fmt.Errorf("invalid catalog default servings")
	}

	switch config.Store.Driver {
	case StoreMemory:
		if config.Store.MaxKeys <= 0 {
			return fmt.Errorf("invalid store max keys")
		}
		if config.Store.CleanupInterval <= 0 {
			return fmt.Errorf("invalid store cleanup interval")
		}
	case StoreRedis:
		if config.Store.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required")
		}
	default:
		return fmt.Errorf("unknown store driver %q", config.Store.Driver)
	}
	if config.Store.TTL < 0 {
		return fmt.Errorf("invalid store ttl")
	}

	if config.Timer.SweepInterval <= 0 {
		return fmt.Errorf("invalid timer sweep interval")
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit settings")
	}

	return nil
}
