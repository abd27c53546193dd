package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Mpesa        MpesaConfig
	Stripe       StripeConfig
	Payments     PaymentsConfig
	RateLimit    RateLimitConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DOPEEVENTS_APP_ENV" required:"true"`
	Port         string `envconfig:"DOPEEVENTS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DOPEEVENTS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DOPEEVENTS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DOPEEVENTS_DB_DSN"`
	Driver string `envconfig:"DOPEEVENTS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DOPEEVENTS_DB_HOST"`
	LegacyPort     int    `envconfig:"DOPEEVENTS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DOPEEVENTS_DB_USER"`
	LegacyPassword string `envconfig:"DOPEEVENTS_DB_PASSWORD"`
	LegacyName     string `envconfig:"DOPEEVENTS_DB_NAME"`
	LegacySSLMode  string `envconfig:"DOPEEVENTS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DOPEEVENTS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DOPEEVENTS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DOPEEVENTS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DOPEEVENTS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DOPEEVENTS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DOPEEVENTS_REDIS_ADDR"`
	Password     string        `envconfig:"DOPEEVENTS_REDIS_PASSWORD"`
	DB           int           `envconfig:"DOPEEVENTS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DOPEEVENTS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DOPEEVENTS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DOPEEVENTS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DOPEEVENTS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DOPEEVENTS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// MpesaConfig carries the Daraja API credentials. The struct is handed to the
// payment initiator and webhook reconciler at construction time; nothing reads
// credentials from process-wide state after startup.
type MpesaConfig struct {
	BaseURL        string        `envconfig:"DOPEEVENTS_MPESA_BASE_URL" required:"true"`
	ConsumerKey    string        `envconfig:"DOPEEVENTS_MPESA_CONSUMER_KEY" required:"true"`
	ConsumerSecret string        `envconfig:"DOPEEVENTS_MPESA_CONSUMER_SECRET" required:"true"`
	Shortcode      string        `envconfig:"DOPEEVENTS_MPESA_SHORTCODE" required:"true"`
	Passkey        string        `envconfig:"DOPEEVENTS_MPESA_PASSKEY" required:"true"`
	CallbackURL    string        `envconfig:"DOPEEVENTS_MPESA_CALLBACK_URL" required:"true"`
	HTTPTimeout    time.Duration `envconfig:"DOPEEVENTS_MPESA_HTTP_TIMEOUT" default:"30s"`
	MaxRetries     int           `envconfig:"DOPEEVENTS_MPESA_MAX_RETRIES" default:"3"`
}

type StripeConfig struct {
	APIKey string `envconfig:"DOPEEVENTS_STRIPE_API_KEY"`
	Secret string `envconfig:"DOPEEVENTS_STRIPE_SECRET"`
	Env    string `envconfig:"DOPEEVENTS_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type PaymentsConfig struct {
	PendingTTL      time.Duration `envconfig:"DOPEEVENTS_PAYMENTS_PENDING_TTL" default:"2h"`
	WebhookGuardTTL time.Duration `envconfig:"DOPEEVENTS_PAYMENTS_WEBHOOK_GUARD_TTL" default:"24h"`
	IdempotencyTTL  time.Duration `envconfig:"DOPEEVENTS_PAYMENTS_IDEMPOTENCY_TTL" default:"24h"`
}

// RateLimitConfig throttles payment initiation. A zero limit disables the
// corresponding counter.
type RateLimitConfig struct {
	InitiateWindow     time.Duration `envconfig:"DOPEEVENTS_RATE_LIMIT_INITIATE_WINDOW" default:"1m"`
	InitiateIPLimit    int           `envconfig:"DOPEEVENTS_RATE_LIMIT_INITIATE_IP_LIMIT" default:"10"`
	InitiatePhoneLimit int           `envconfig:"DOPEEVENTS_RATE_LIMIT_INITIATE_PHONE_LIMIT" default:"3"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"DOPEEVENTS_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"DOPEEVENTS_CRON_LOCK_TTL" default:"65m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"DOPEEVENTS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"DOPEEVENTS_AUTO_MIGRATE" default:"false"`
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
