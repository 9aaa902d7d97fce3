package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	KPay         KPayConfig
	PubSub       PubSubConfig
	FeatureFlags FeatureFlagsConfig
	Earnings     EarningsConfig
	Webhooks     WebhookConfig
	Schedule     ScheduleConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("SHWECART_DB_DSN is required")
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHWECART_APP_ENV" required:"true"`
	Port         string `envconfig:"SHWECART_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SHWECART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHWECART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"SHWECART_DB_DSN"`

	MaxOpenConns    int           `envconfig:"SHWECART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHWECART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHWECART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHWECART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHWECART_REDIS_URL"`
	Address      string        `envconfig:"SHWECART_REDIS_ADDR"`
	Password     string        `envconfig:"SHWECART_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHWECART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHWECART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHWECART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHWECART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHWECART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHWECART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"SHWECART_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"SHWECART_JWT_ISSUER" default:"shwecart-id"`
}

// KPayConfig configures the mobile-money gateway adapter.
type KPayConfig struct {
	BaseURL        string        `envconfig:"SHWECART_KPAY_BASE_URL" required:"true"`
	MerchantID     string        `envconfig:"SHWECART_KPAY_MERCHANT_ID" required:"true"`
	APIKey         string        `envconfig:"SHWECART_KPAY_API_KEY" required:"true"`
	RequestTimeout time.Duration `envconfig:"SHWECART_KPAY_REQUEST_TIMEOUT" default:"15s"`
}

type PubSubConfig struct {
	ProjectID          string `envconfig:"SHWECART_PUBSUB_PROJECT_ID"`
	NotificationsTopic string `envconfig:"SHWECART_PUBSUB_NOTIFICATIONS_TOPIC" default:"sc-order-notifications"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHWECART_AUTO_MIGRATE" default:"false"`
}

// EarningsConfig bounds the derived rider earnings and leaderboard reads.
type EarningsConfig struct {
	Window           time.Duration `envconfig:"SHWECART_EARNINGS_WINDOW" default:"168h"`
	LeaderboardLimit int           `envconfig:"SHWECART_LEADERBOARD_LIMIT" default:"10"`
	LeaderboardTTL   time.Duration `envconfig:"SHWECART_LEADERBOARD_CACHE_TTL" default:"60s"`
}

// WebhookConfig tunes the payment webhook intake.
type WebhookConfig struct {
	AuditTTL time.Duration `envconfig:"SHWECART_WEBHOOK_AUDIT_TTL" default:"720h"`
}

// ScheduleConfig drives the daily ordering window the scheduler enforces.
// Hours are in the store's local timezone; an admin override always wins.
type ScheduleConfig struct {
	OpenHour  int           `envconfig:"SHWECART_SCHEDULE_OPEN_HOUR" default:"9"`
	CloseHour int           `envconfig:"SHWECART_SCHEDULE_CLOSE_HOUR" default:"21"`
	Timezone  string        `envconfig:"SHWECART_SCHEDULE_TIMEZONE" default:"Asia/Yangon"`
	Interval  time.Duration `envconfig:"SHWECART_SCHEDULE_INTERVAL" default:"1m"`
}
