package config

// GitHubConfig defines the release sources and where their notifications go
type GitHubConfig struct {
	Enabled   bool     `json:"enabled" yaml:"enabled"`
	Token     string   `json:"token,omitempty" yaml:"token,omitempty"`
	Repos     []string `json:"repos,omitempty" yaml:"repos,omitempty" validate:"dive,repo"`
	NtfyTopic string   `json:"ntfy_topic,omitempty" yaml:"ntfy_topic,omitempty" validate:"required"`
	APIURL    string   `json:"api_url,omitempty" yaml:"api_url,omitempty" validate:"required,url"`
}

// NewDefaultGitHubConfig creates default GitHub configuration
func NewDefaultGitHubConfig() GitHubConfig {
	return GitHubConfig{
		Enabled:   true,
		Repos:     []string{},
		NtfyTopic: DefaultGitHubNtfyTopic,
		APIURL:    DefaultGitHubAPIURL,
	}
}

// PlausibleConfig defines the stats sources and the daily report schedule
type PlausibleConfig struct {
	Enabled         bool     `json:"enabled" yaml:"enabled"`
	Token           string   `json:"token,omitempty" yaml:"token,omitempty"`
	URL             string   `json:"url,omitempty" yaml:"url,omitempty" validate:"required,url"`
	Sites           []string `json:"sites,omitempty" yaml:"sites,omitempty" validate:"dive,required"`
	ReportTime      string   `json:"report_time,omitempty" yaml:"report_time,omitempty" validate:"required,reporttime"`
	Timezone        string   `json:"timezone,omitempty" yaml:"timezone,omitempty" validate:"required,timezone"`
	NtfyTopic       string   `json:"ntfy_topic,omitempty" yaml:"ntfy_topic,omitempty" validate:"required"`
	MessageTemplate string   `json:"message_template,omitempty" yaml:"message_template,omitempty"`
}

// NewDefaultPlausibleConfig creates default Plausible configuration
func NewDefaultPlausibleConfig() PlausibleConfig {
	return PlausibleConfig{
		Enabled:         true,
		URL:             DefaultPlausibleURL,
		Sites:           []string{},
		ReportTime:      DefaultPlausibleReportTime,
		Timezone:        DefaultPlausibleTimezone,
		NtfyTopic:       DefaultPlausibleNtfyTopic,
		MessageTemplate: DefaultPlausibleTemplate,
	}
}

// NtfyConfig defines the push relay endpoint
type NtfyConfig struct {
	Token    string `json:"token,omitempty" yaml:"token,omitempty"`
	BaseURL  string `json:"base_url,omitempty" yaml:"base_url,omitempty" validate:"required,url"`
	Priority string `json:"priority,omitempty" yaml:"priority,omitempty" validate:"omitempty,oneof=min low default high max urgent 1 2 3 4 5"`
}

// NewDefaultNtfyConfig creates default ntfy configuration
func NewDefaultNtfyConfig() NtfyConfig {
	return NtfyConfig{
		BaseURL:  DefaultNtfyBaseURL,
		Priority: DefaultNtfyPriority,
	}
}

// GeneralConfig holds timing settings shared by both monitor groups. All
// durations are in seconds.
type GeneralConfig struct {
	CheckInterval int    `json:"check_interval,omitempty" yaml:"check_interval,omitempty" validate:"min=1"`
	ErrorCooldown int    `json:"error_cooldown,omitempty" yaml:"error_cooldown,omitempty" validate:"min=1"`
	FetchTimeout  int    `json:"fetch_timeout,omitempty" yaml:"fetch_timeout,omitempty" validate:"min=1"`
	PublicBaseURL string `json:"public_base_url,omitempty" yaml:"public_base_url,omitempty" validate:"omitempty,url"`
}

// NewDefaultGeneralConfig creates default general configuration
func NewDefaultGeneralConfig() GeneralConfig {
	return GeneralConfig{
		CheckInterval: DefaultCheckIntervalSeconds,
		ErrorCooldown: DefaultErrorCooldownSeconds,
		FetchTimeout:  DefaultFetchTimeoutSeconds,
	}
}
