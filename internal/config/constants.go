package config

const (
	// ConfigPathEnv names the environment variable holding the config file path
	ConfigPathEnv = "RELEASEWATCH_CONFIG_PATH"

	// GitHub Defaults
	DefaultGitHubAPIURL    = "https://api.github.com"
	DefaultGitHubNtfyTopic = "github"

	// Plausible Defaults
	DefaultPlausibleURL        = "https://plausible.io"
	DefaultPlausibleReportTime = "20:00"
	DefaultPlausibleTimezone   = "Europe/Berlin"
	DefaultPlausibleNtfyTopic  = "plausible"
	DefaultPlausibleTemplate   = "**Tagesstatistik für {site}**\n\n" +
		"📊 Besucher: {visitors}\n" +
		"👀 Seitenaufrufe: {pageviews}\n" +
		"↩️ Absprungrate: {bounce_rate}%\n" +
		"⏱️ Durchschn. Besuchsdauer: {visit_duration}s"

	// Ntfy Defaults
	DefaultNtfyBaseURL  = "https://ntfy.sh"
	DefaultNtfyPriority = "default"

	// General Defaults
	DefaultCheckIntervalSeconds = 3600
	DefaultErrorCooldownSeconds = 60
	DefaultFetchTimeoutSeconds  = 30

	// Storage Defaults
	DefaultStorageStateFile        = "data/last_checks.json"
	DefaultStorageCacheDir         = "data/cache"
	DefaultStorageStatsArchiveDir  = "data/stats"
	DefaultStorageCompressionCodec = "zstd"

	// Scheduler Defaults
	DefaultSchedulerSQLiteDBPath     = "data/scheduler_history.db"
	DefaultSchedulerHistoryRetention = 500

	// Web Defaults
	DefaultWebListenAddr        = ":5000"
	DefaultWebUsersFile         = "config/users.json"
	DefaultWebSessionTTLMinutes = 720
	DefaultWebCacheTTLSeconds   = 300
)
