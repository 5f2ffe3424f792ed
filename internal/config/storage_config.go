package config

// StorageConfig defines where state, cached payloads and archived stats live
type StorageConfig struct {
	StateFile        string `json:"state_file,omitempty" yaml:"state_file,omitempty" validate:"required"`
	CacheDir         string `json:"cache_dir,omitempty" yaml:"cache_dir,omitempty" validate:"required"`
	StatsArchiveDir  string `json:"stats_archive_dir,omitempty" yaml:"stats_archive_dir,omitempty" validate:"required"`
	CompressionCodec string `json:"compression_codec,omitempty" yaml:"compression_codec,omitempty" validate:"omitempty,codec"`
}

// NewDefaultStorageConfig creates default storage configuration
func NewDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		StateFile:        DefaultStorageStateFile,
		CacheDir:         DefaultStorageCacheDir,
		StatsArchiveDir:  DefaultStorageStatsArchiveDir,
		CompressionCodec: DefaultStorageCompressionCodec,
	}
}
