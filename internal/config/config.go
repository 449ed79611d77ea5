package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

type APIConfig struct {
	BaseURL     string
	Timeout     time.Duration
	RefreshPath string
	LoginPath   string
	RateLimit   float64
	Burst       int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type StorageConfig struct {
	// Driver is one of sqlite, redis or memory.
	Driver string
	Path   string
	Redis  RedisConfig
}

type CacheConfig struct {
	StaleTime  time.Duration
	GCTime     time.Duration
	MaxEntries int
}

type JobsConfig struct {
	SessionSchedule  string
	ActivitySchedule string
}

type PreviewConfig struct {
	Timeout  time.Duration
	MaxBytes int64
}

type LoggingConfig struct {
	Level string
}

type AppConfig struct {
	Environment string
	API         APIConfig
	Storage     StorageConfig
	Cache       CacheConfig
	Jobs        JobsConfig
	Preview     PreviewConfig
	Logging     LoggingConfig
}

// Load reads shelflife.yaml (optional) and SHELFLIFE_* environment overrides.
func Load(configFile string) (*AppConfig, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("shelflife")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.config/shelflife")
	}

	v.SetEnvPrefix("SHELFLIFE")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.baseurl is required")
	}
	switch c.Storage.Driver {
	case "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("storage.driver: unsupported driver %q (sqlite, redis, memory)", c.Storage.Driver)
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.maxentries must be > 0")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("api.baseurl", "http://localhost:8000/api")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.refreshpath", "/auth/token/refresh/")
	v.SetDefault("api.loginpath", "/login")
	v.SetDefault("api.ratelimit", 0) // unlimited
	v.SetDefault("api.burst", 10)

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.path", "shelflife.db")
	v.SetDefault("storage.redis.addr", "127.0.0.1:6379")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.prefix", "shelflife:")

	v.SetDefault("cache.staletime", "60s")
	v.SetDefault("cache.gctime", "5m")
	v.SetDefault("cache.maxentries", 500)

	v.SetDefault("jobs.sessionschedule", "0 */10 * * * *")
	v.SetDefault("jobs.activityschedule", "*/30 * * * * *")

	v.SetDefault("preview.timeout", "60s")
	v.SetDefault("preview.maxbytes", 256<<20)

	v.SetDefault("logging.level", "")
}
