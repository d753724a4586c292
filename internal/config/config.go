package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// UpstreamConfig points at the third-party image host. Credentials are
// optional at startup; routes touching the catalog fail per request when
// they are absent.
type UpstreamConfig struct {
	BaseURL   string
	AccountID string
	APIToken  string
	PageSize  int
	Timeout   time.Duration
}

// ArchiveConfig controls the rejected-image archive. An empty endpoint
// disables archiving entirely.
type ArchiveConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}

type AuthConfig struct {
	// AdminPasswordHash is an argon2id encoded hash. When empty,
	// AdminPassword is compared directly.
	AdminPasswordHash string
	AdminPassword     string
	JWTSecret         string
	SessionTTL        time.Duration
}

type CacheConfig struct {
	ApprovedTTL time.Duration
}

type SyncConfig struct {
	// Schedule is a cron expression with a seconds field. Empty disables
	// the background sync.
	Schedule string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Upstream         UpstreamConfig
	Archive          ArchiveConfig
	Auth             AuthConfig
	Cache            CacheConfig
	Sync             SyncConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("PHOTOBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
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

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 20)
	v.SetDefault("postgres.maxidle", 5)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("upstream.baseurl", "https://api.cloudflare.com/client/v4")
	v.SetDefault("upstream.pagesize", 100)
	v.SetDefault("upstream.timeout", "30s")

	v.SetDefault("archive.bucket", "photoboard-rejected")
	v.SetDefault("archive.usessl", false)
	v.SetDefault("archive.region", "us-east-1")

	v.SetDefault("auth.sessionttl", "12h")

	v.SetDefault("cache.approvedttl", "30s")

	v.SetDefault("sync.schedule", "")
}
