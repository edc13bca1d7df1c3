package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names so
// the prefix only matters for fields without a tag.
const EnvPrefix = "SMEAZY"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Environment variable names shared with tests and error messages.
const (
	EnvAppEnv   = "SMEAZY_APP_ENV"
	EnvPort     = "SMEAZY_APP_PORT"
	EnvDBDSN    = "SMEAZY_DB_DSN"
	EnvDBHost   = "SMEAZY_DB_HOST"
	EnvDBUser   = "SMEAZY_DB_USER"
	EnvDBName   = "SMEAZY_DB_NAME"
	EnvRedisURL = "SMEAZY_REDIS_URL"

	EnvJWTSecret              = "SMEAZY_JWT_SECRET"
	EnvJWTIssuer              = "SMEAZY_JWT_ISSUER"
	EnvJWTExpMins             = "SMEAZY_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "SMEAZY_REFRESH_TOKEN_TTL_MINUTES"

	EnvSMSEnabled  = "SMEAZY_SMS_ENABLED"
	EnvSMSUsername = "SMEAZY_SMS_USERNAME"
	EnvSMSAPIKey   = "SMEAZY_SMS_API_KEY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
