package config

const (
	EnvPrefix = "RAFFLEBEE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "RAFFLEBEE_APP_ENV"
	EnvPort     = "RAFFLEBEE_APP_PORT"
	EnvLogLevel = "RAFFLEBEE_LOG_LEVEL"

	EnvDBDSN  = "RAFFLEBEE_DB_DSN"
	EnvDBHost = "RAFFLEBEE_DB_HOST"
	EnvDBUser = "RAFFLEBEE_DB_USER"
	EnvDBName = "RAFFLEBEE_DB_NAME"

	EnvRedisURL = "RAFFLEBEE_REDIS_URL"

	EnvShopifyAPISecret       = "RAFFLEBEE_SHOPIFY_API_SECRET"
	EnvShopifyWebhookDedupTTL = "RAFFLEBEE_SHOPIFY_WEBHOOK_DEDUP_TTL"

	EnvEligibleCountry  = "RAFFLEBEE_SWEEPSTAKES_ELIGIBLE_COUNTRY"
	EnvDefaultPrize     = "RAFFLEBEE_SWEEPSTAKES_DEFAULT_PRIZE"
	EnvDefaultThreshold = "RAFFLEBEE_SWEEPSTAKES_DEFAULT_THRESHOLD"
	EnvRecentEntryLimit = "RAFFLEBEE_SWEEPSTAKES_RECENT_ENTRY_LIMIT"

	EnvCronInterval = "RAFFLEBEE_CRON_INTERVAL"
	EnvCronLockTTL  = "RAFFLEBEE_CRON_LOCK_TTL"

	EnvAutoMigrate = "RAFFLEBEE_AUTO_MIGRATE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
