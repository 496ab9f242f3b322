package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "JEWELSTORE_DB_DSN"
	EnvDBHost = "JEWELSTORE_DB_HOST"
	EnvDBUser = "JEWELSTORE_DB_USER"
	EnvDBName = "JEWELSTORE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Artifacts    ArtifactsConfig
	Stripe       StripeConfig
	Sendgrid     SendgridConfig
	Webhooks     WebhooksConfig
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
	Env          string `envconfig:"JEWELSTORE_APP_ENV" required:"true"`
	Port         string `envconfig:"JEWELSTORE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"JEWELSTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"JEWELSTORE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"JEWELSTORE_DB_DSN"`
	Driver string `envconfig:"JEWELSTORE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"JEWELSTORE_DB_HOST"`
	LegacyPort     int    `envconfig:"JEWELSTORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"JEWELSTORE_DB_USER"`
	LegacyPassword string `envconfig:"JEWELSTORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"JEWELSTORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"JEWELSTORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"JEWELSTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"JEWELSTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"JEWELSTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"JEWELSTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"JEWELSTORE_REDIS_URL"`
	Address      string        `envconfig:"JEWELSTORE_REDIS_ADDR"`
	Password     string        `envconfig:"JEWELSTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"JEWELSTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"JEWELSTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"JEWELSTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"JEWELSTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"JEWELSTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"JEWELSTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool   `envconfig:"JEWELSTORE_USE_SQLITE" default:"false"`
	SQLitePath  string `envconfig:"JEWELSTORE_SQLITE_PATH" default:"jewelstore.db"`
	AutoMigrate bool   `envconfig:"JEWELSTORE_AUTO_MIGRATE" default:"false"`
}

// ArtifactsConfig locates generated blobs (barcode images, item photos).
type ArtifactsConfig struct {
	Dir string `envconfig:"JEWELSTORE_ARTIFACTS_DIR" default:"data/artifacts"`
}

type StripeConfig struct {
	APIKey     string `envconfig:"JEWELSTORE_STRIPE_API_KEY"`
	Secret     string `envconfig:"JEWELSTORE_STRIPE_SECRET"`
	Env        string `envconfig:"JEWELSTORE_STRIPE_ENV" default:"test"`
	Currency   string `envconfig:"JEWELSTORE_STRIPE_CURRENCY" default:"eur"`
	SuccessURL string `envconfig:"JEWELSTORE_STRIPE_SUCCESS_URL" default:"http://localhost:8080/api/v1/invoices/payment-success"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type SendgridConfig struct {
	APIKey      string `envconfig:"JEWELSTORE_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"JEWELSTORE_SENDGRID_FROM_EMAIL"`
	FromName    string `envconfig:"JEWELSTORE_SENDGRID_FROM_NAME" default:"Jewelstore"`
}

type WebhooksConfig struct {
	IdempotencyTTL time.Duration `envconfig:"JEWELSTORE_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.Driver == "sqlite" {
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
