package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "WISHCRAFT"

	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Shopify      ShopifyConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"WISHCRAFT_APP_ENV" required:"true"`
	Port         string `envconfig:"WISHCRAFT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"WISHCRAFT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"WISHCRAFT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"WISHCRAFT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"WISHCRAFT_DB_DSN"`
	Driver string `envconfig:"WISHCRAFT_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"WISHCRAFT_DB_HOST"`
	Port     int    `envconfig:"WISHCRAFT_DB_PORT" default:"5432"`
	User     string `envconfig:"WISHCRAFT_DB_USER"`
	Password string `envconfig:"WISHCRAFT_DB_PASSWORD"`
	Name     string `envconfig:"WISHCRAFT_DB_NAME"`
	SSLMode  string `envconfig:"WISHCRAFT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"WISHCRAFT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"WISHCRAFT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"WISHCRAFT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"WISHCRAFT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("database DSN or host/user/name components are required")
	}
	d.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(d.Password),
		d.Host,
		d.Port,
		d.Name,
		d.SSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"WISHCRAFT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"WISHCRAFT_REDIS_ADDR"`
	Password     string        `envconfig:"WISHCRAFT_REDIS_PASSWORD"`
	DB           int           `envconfig:"WISHCRAFT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"WISHCRAFT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"WISHCRAFT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"WISHCRAFT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WISHCRAFT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WISHCRAFT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// ShopifyConfig carries the webhook secret and the line-item property keys
// the reconciliation pipeline reads from order payloads.
type ShopifyConfig struct {
	WebhookSecret         string        `envconfig:"WISHCRAFT_SHOPIFY_WEBHOOK_SECRET" required:"true"`
	RegistryItemKey       string        `envconfig:"WISHCRAFT_SHOPIFY_REGISTRY_ITEM_KEY" default:"_registry_item_id"`
	RegistryKey           string        `envconfig:"WISHCRAFT_SHOPIFY_REGISTRY_KEY" default:"_registry_id"`
	GiftMessageKey        string        `envconfig:"WISHCRAFT_SHOPIFY_GIFT_MESSAGE_KEY" default:"_gift_message"`
	WebhookDedupTTL       time.Duration `envconfig:"WISHCRAFT_SHOPIFY_WEBHOOK_DEDUP_TTL" default:"24h"`
	GiftMessageMaxLen     int           `envconfig:"WISHCRAFT_SHOPIFY_GIFT_MESSAGE_MAX_LEN" default:"1000"`
	LegacyPropertyScan    bool          `envconfig:"WISHCRAFT_SHOPIFY_LEGACY_PROPERTY_SCAN" default:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"WISHCRAFT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"WISHCRAFT_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"WISHCRAFT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"WISHCRAFT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"WISHCRAFT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	ActivityTopic        string `envconfig:"WISHCRAFT_PUBSUB_ACTIVITY_TOPIC" default:"registry-activity"`
	NotificationTopic    string `envconfig:"WISHCRAFT_PUBSUB_NOTIFICATION_TOPIC" default:"registry-notifications"`
	ActivitySubscription string `envconfig:"WISHCRAFT_PUBSUB_ACTIVITY_SUBSCRIPTION" default:"registry-activity-worker"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"WISHCRAFT_OUTBOX_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"WISHCRAFT_OUTBOX_POLL_INTERVAL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"WISHCRAFT_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"WISHCRAFT_OUTBOX_IDEMPOTENCY_TTL" default:"72h"`
}
