package config

// EnvPrefix is passed to envconfig; the struct tags carry fully-qualified
// names so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "DOPEEVENTS_APP_ENV"
	EnvPort     = "DOPEEVENTS_APP_PORT"
	EnvDBDSN    = "DOPEEVENTS_DB_DSN"
	EnvDBHost   = "DOPEEVENTS_DB_HOST"
	EnvDBUser   = "DOPEEVENTS_DB_USER"
	EnvDBName   = "DOPEEVENTS_DB_NAME"
	EnvRedisURL = "DOPEEVENTS_REDIS_URL"

	EnvMpesaBaseURL        = "DOPEEVENTS_MPESA_BASE_URL"
	EnvMpesaConsumerKey    = "DOPEEVENTS_MPESA_CONSUMER_KEY"
	EnvMpesaConsumerSecret = "DOPEEVENTS_MPESA_CONSUMER_SECRET"
	EnvMpesaShortcode      = "DOPEEVENTS_MPESA_SHORTCODE"
	EnvMpesaPasskey        = "DOPEEVENTS_MPESA_PASSKEY"
	EnvMpesaCallbackURL    = "DOPEEVENTS_MPESA_CALLBACK_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
