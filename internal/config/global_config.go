package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/logger"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// GlobalConfig contains all configuration sections for the application
type GlobalConfig struct {
	GitHub          GitHubConfig         `json:"github" yaml:"github"`
	Plausible       PlausibleConfig      `json:"plausible" yaml:"plausible"`
	Ntfy            NtfyConfig           `json:"ntfy" yaml:"ntfy"`
	General         GeneralConfig        `json:"general" yaml:"general"`
	StorageConfig   StorageConfig        `json:"storage_config,omitempty" yaml:"storage_config,omitempty"`
	SchedulerConfig SchedulerConfig      `json:"scheduler_config,omitempty" yaml:"scheduler_config,omitempty"`
	WebConfig       WebConfig            `json:"web_config,omitempty" yaml:"web_config,omitempty"`
	LogConfig       logger.FileLogConfig `json:"log_config,omitempty" yaml:"log_config,omitempty"`
}

// NewDefaultGlobalConfig creates a new GlobalConfig with default values
func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		GitHub:          NewDefaultGitHubConfig(),
		Plausible:       NewDefaultPlausibleConfig(),
		Ntfy:            NewDefaultNtfyConfig(),
		General:         NewDefaultGeneralConfig(),
		StorageConfig:   NewDefaultStorageConfig(),
		SchedulerConfig: NewDefaultSchedulerConfig(),
		WebConfig:       NewDefaultWebConfig(),
		LogConfig:       logger.NewDefaultFileLogConfig(),
	}
}

// Clone returns a deep copy so snapshots handed to a cycle never alias the
// config being edited.
func (c *GlobalConfig) Clone() *GlobalConfig {
	cp := *c
	cp.GitHub.Repos = append([]string(nil), c.GitHub.Repos...)
	cp.Plausible.Sites = append([]string(nil), c.Plausible.Sites...)
	return &cp
}

// LoadGlobalConfig loads the configuration from a file or default locations.
// It determines the config file path using GetConfigPath, supports both JSON and YAML formats.
// Environment overrides are applied after the file is parsed.
func LoadGlobalConfig(providedPath string, logger zerolog.Logger) (*GlobalConfig, string, error) {
	cfg := NewDefaultGlobalConfig()

	filePath := GetConfigPath(providedPath)
	if filePath == "" {
		if providedPath != "" {
			return nil, "", common.NewValidationError("config_file", providedPath, "config file does not exist")
		}
		logger.Info().Msg("No config file found, using defaults")
		applyEnvOverrides(cfg)
		return cfg, "", nil
	}

	fileManager := common.NewFileManager(logger)
	data, err := fileManager.ReadFile(filePath)
	if err != nil {
		return nil, "", common.WrapError(err, "failed to load config file content")
	}

	if err := parseConfigContent(data, filePath, cfg); err != nil {
		return nil, "", common.WrapError(err, "failed to parse config content")
	}

	applyEnvOverrides(cfg)
	logger.Info().Str("path", filePath).Msg("Configuration loaded")
	return cfg, filePath, nil
}

// SaveGlobalConfig writes cfg to filePath atomically, in YAML unless the
// extension says JSON.
func SaveGlobalConfig(filePath string, cfg *GlobalConfig, logger zerolog.Logger) error {
	var (
		data []byte
		err  error
	)
	if isYAMLFile(filepath.Ext(filePath)) || filepath.Ext(filePath) == "" {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return common.WrapError(err, "failed to encode config")
	}

	if err := common.NewFileManager(logger).WriteFileAtomic(filePath, data, 0o600); err != nil {
		return common.WrapError(err, "failed to write config")
	}
	logger.Info().Str("path", filePath).Msg("Configuration saved")
	return nil
}

// parseConfigContent parses the config content based on file extension
func parseConfigContent(data []byte, filePath string, cfg *GlobalConfig) error {
	if isYAMLFile(filepath.Ext(filePath)) {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return common.NewError("failed to unmarshal YAML from '%s': %w", filePath, err)
		}
		return nil
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal JSON from '%s': %w", filePath, err)
	}
	return nil
}

// isYAMLFile checks if the file extension indicates a YAML file
func isYAMLFile(ext string) bool {
	return ext == ".yaml" || ext == ".yml"
}

// applyEnvOverrides lets secrets come from the environment instead of the file
func applyEnvOverrides(cfg *GlobalConfig) {
	overrides := []struct {
		env    string
		target *string
	}{
		{"GITHUB_TOKEN", &cfg.GitHub.Token},
		{"PLAUSIBLE_TOKEN", &cfg.Plausible.Token},
		{"NTFY_TOKEN", &cfg.Ntfy.Token},
		{"RELEASEWATCH_SESSION_SECRET", &cfg.WebConfig.SessionSecret},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.env)); v != "" {
			*o.target = v
		}
	}
}
