package env

import (
	"path/filepath"
	"time"
)

const (
	AppVersionEnvVar = "APP_VERSION"

	APIPortEnvVar      = "API_PORT"
	CORSAllowAllEnvVar = "CORS_ALLOW_ALL"

	ConfigPathEnvVar            = "CONFIG_PATH"
	OverrideStorageConfigEnvVar = "OVERRIDE_STORAGE_CONFIG"

	CatalogFileEnvVar       = "CATALOG_FILE"
	CatalogPriceSheetEnvVar = "CATALOG_PRICE_SHEET"

	ResultCacheSecondsEnvVar = "RESULT_CACHE_SECONDS"

	ActivityEnabledEnvVar = "ACTIVITY_ENABLED"
	ActivityDBPathEnvVar  = "ACTIVITY_DB_PATH"
	ActivitySQLDSNEnvVar  = "ACTIVITY_SQL_DSN"
	ActivityURLEnvVar     = "ACTIVITY_URL"
	ActivityTokenEnvVar   = "ACTIVITY_TOKEN"
	AdminTokenEnvVar      = "ADMIN_TOKEN"

	SentryDSNEnvVar   = "SENTRY_DSN"
	SentryEnvironment = "SENTRY_ENVIRONMENT"
)

// GetAppVersion returns the application version reported on /healthz and in telemetry.
func GetAppVersion() string {
	return Get(AppVersionEnvVar, "0.1.0")
}

// GetAPIPort returns the port the HTTP API listens on.
func GetAPIPort() int {
	return GetInt(APIPortEnvVar, 9090)
}

func IsCORSAllowAll() bool {
	return GetBool(CORSAllowAllEnvVar, true)
}

// GetConfigPath returns the directory used for persisted override documents when no bucket
// storage configuration is provided.
func GetConfigPath() string {
	return Get(ConfigPathEnvVar, "/var/configs/")
}

// GetConfigPathWithDefault returns the config path, or defaultValue when CONFIG_PATH is unset.
func GetConfigPathWithDefault(defaultValue string) string {
	return Get(ConfigPathEnvVar, defaultValue)
}

// GetOverrideStorageConfig returns the path to a YAML bucket storage configuration. An empty
// value selects local file storage rooted at GetConfigPath().
func GetOverrideStorageConfig() string {
	return Get(OverrideStorageConfigEnvVar, "")
}

// GetCatalogFile returns an optional YAML/JSON catalog overlay.
func GetCatalogFile() string {
	return Get(CatalogFileEnvVar, "")
}

// GetCatalogPriceSheet returns an optional CSV price sheet applied over the catalog.
func GetCatalogPriceSheet() string {
	return Get(CatalogPriceSheetEnvVar, "")
}

// GetResultCacheDuration returns how long computed results are cached. Zero disables caching.
func GetResultCacheDuration() time.Duration {
	return time.Duration(GetInt(ResultCacheSecondsEnvVar, 60)) * time.Second
}

func IsActivityEnabled() bool {
	return GetBool(ActivityEnabledEnvVar, true)
}

// GetActivityDBPath returns the BoltDB file used for activity events.
func GetActivityDBPath() string {
	return Get(ActivityDBPathEnvVar, filepath.Join(GetConfigPath(), "activity.db"))
}

// GetActivitySQLDSN returns a postgres DSN. When set it takes precedence over the BoltDB store.
func GetActivitySQLDSN() string {
	return Get(ActivitySQLDSNEnvVar, "")
}

// GetActivityURL returns the base URL of a remote activity endpoint. Empty posts to the local
// server's own store.
func GetActivityURL() string {
	return Get(ActivityURLEnvVar, "")
}

func GetActivityToken() string {
	return Get(ActivityTokenEnvVar, "")
}

func GetAdminToken() string {
	return Get(AdminTokenEnvVar, "")
}

func GetSentryDSN() string {
	return Get(SentryDSNEnvVar, "")
}

func GetSentryEnvironment() string {
	return Get(SentryEnvironment, "production")
}
