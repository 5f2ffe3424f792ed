package config

// WebConfig defines the operator web interface
type WebConfig struct {
	Enabled           bool        `json:"enabled" yaml:"enabled"`
	ListenAddr        string      `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty" validate:"required"`
	UsersFile         string      `json:"users_file,omitempty" yaml:"users_file,omitempty" validate:"required"`
	SessionSecret     string      `json:"session_secret,omitempty" yaml:"session_secret,omitempty"`
	SessionTTLMinutes int         `json:"session_ttl,omitempty" yaml:"session_ttl,omitempty" validate:"min=1"`
	TemplatesDir      string      `json:"templates_dir,omitempty" yaml:"templates_dir,omitempty"`
	Redis             RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty"`
}

// RedisConfig configures the optional page cache. An empty Addr disables it.
type RedisConfig struct {
	Addr       string `json:"addr,omitempty" yaml:"addr,omitempty" validate:"omitempty,hostname_port"`
	Password   string `json:"password,omitempty" yaml:"password,omitempty"`
	DB         int    `json:"db,omitempty" yaml:"db,omitempty" validate:"min=0"`
	TTLSeconds int    `json:"ttl_seconds,omitempty" yaml:"ttl_seconds,omitempty" validate:"min=0"`
}

// NewDefaultWebConfig creates default web configuration
func NewDefaultWebConfig() WebConfig {
	return WebConfig{
		Enabled:           true,
		ListenAddr:        DefaultWebListenAddr,
		UsersFile:         DefaultWebUsersFile,
		SessionTTLMinutes: DefaultWebSessionTTLMinutes,
		Redis: RedisConfig{
			TTLSeconds: DefaultWebCacheTTLSeconds,
		},
	}
}
