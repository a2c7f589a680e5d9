package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Shopify      ShopifyConfig
	Sweepstakes  SweepstakesConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Sweepstakes.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"RAFFLEBEE_APP_ENV" required:"true"`
	Port         string `envconfig:"RAFFLEBEE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RAFFLEBEE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RAFFLEBEE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"RAFFLEBEE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN string `envconfig:"RAFFLEBEE_DB_DSN"`

	LegacyHost     string `envconfig:"RAFFLEBEE_DB_HOST"`
	LegacyPort     int    `envconfig:"RAFFLEBEE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RAFFLEBEE_DB_USER"`
	LegacyPassword string `envconfig:"RAFFLEBEE_DB_PASSWORD"`
	LegacyName     string `envconfig:"RAFFLEBEE_DB_NAME"`
	LegacySSLMode  string `envconfig:"RAFFLEBEE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RAFFLEBEE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RAFFLEBEE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RAFFLEBEE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RAFFLEBEE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RAFFLEBEE_REDIS_URL"`
	Address      string        `envconfig:"RAFFLEBEE_REDIS_ADDR"`
	Password     string        `envconfig:"RAFFLEBEE_REDIS_PASSWORD"`
	DB           int           `envconfig:"RAFFLEBEE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RAFFLEBEE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RAFFLEBEE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RAFFLEBEE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RAFFLEBEE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RAFFLEBEE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// ShopifyConfig holds the app credentials used to authenticate inbound webhooks.
type ShopifyConfig struct {
	APIKey          string        `envconfig:"RAFFLEBEE_SHOPIFY_API_KEY"`
	APISecret       string        `envconfig:"RAFFLEBEE_SHOPIFY_API_SECRET" required:"true"`
	WebhookDedupTTL time.Duration `envconfig:"RAFFLEBEE_SHOPIFY_WEBHOOK_DEDUP_TTL" default:"72h"`
	// StorefrontOrigins may call the storefront API from theme and checkout extensions.
	StorefrontOrigins []string `envconfig:"RAFFLEBEE_SHOPIFY_STOREFRONT_ORIGINS" default:"https://*.myshopify.com,https://extensions.shopifycdn.com"`
}

// SweepstakesConfig carries the business defaults of the sweepstakes program.
type SweepstakesConfig struct {
	EligibleCountry  string          `envconfig:"RAFFLEBEE_SWEEPSTAKES_ELIGIBLE_COUNTRY" default:"US"`
	DefaultPrize     decimal.Decimal `envconfig:"RAFFLEBEE_SWEEPSTAKES_DEFAULT_PRIZE" default:"1000"`
	DefaultThreshold decimal.Decimal `envconfig:"RAFFLEBEE_SWEEPSTAKES_DEFAULT_THRESHOLD" default:"50"`
	RecentEntryLimit int             `envconfig:"RAFFLEBEE_SWEEPSTAKES_RECENT_ENTRY_LIMIT" default:"50"`
}

func (s SweepstakesConfig) validate() error {
	if strings.TrimSpace(s.EligibleCountry) == "" {
		return fmt.Errorf("%s must not be empty", EnvEligibleCountry)
	}
	if s.DefaultPrize.IsNegative() {
		return fmt.Errorf("%s must be non-negative", EnvDefaultPrize)
	}
	if s.DefaultThreshold.IsNegative() {
		return fmt.Errorf("%s must be non-negative", EnvDefaultThreshold)
	}
	if s.RecentEntryLimit <= 0 {
		return fmt.Errorf("%s must be positive", EnvRecentEntryLimit)
	}
	return nil
}

type CronConfig struct {
	Interval time.Duration `envconfig:"RAFFLEBEE_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"RAFFLEBEE_CRON_LOCK_TTL" default:"55m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"RAFFLEBEE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
