package config

// EnvPrefix namespaces every environment variable consumed by the platform.
const EnvPrefix = "CLICKMARKET"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv     = "CLICKMARKET_APP_ENV"
	EnvPort       = "CLICKMARKET_APP_PORT"
	EnvDBDSN      = "CLICKMARKET_DB_DSN"
	EnvDBHost     = "CLICKMARKET_DB_HOST"
	EnvDBUser     = "CLICKMARKET_DB_USER"
	EnvDBName     = "CLICKMARKET_DB_NAME"
	EnvRedisURL   = "CLICKMARKET_REDIS_URL"
	EnvJWTSecret  = "CLICKMARKET_JWT_SECRET"
	EnvJWTIssuer  = "CLICKMARKET_JWT_ISSUER"
	EnvJWTExpMins = "CLICKMARKET_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
