package config

// SchedulerConfig defines configuration for the cycle history database
type SchedulerConfig struct {
	SQLiteDBPath     string `json:"sqlite_db_path,omitempty" yaml:"sqlite_db_path,omitempty" validate:"required"`
	HistoryRetention int    `json:"history_retention,omitempty" yaml:"history_retention,omitempty" validate:"min=0"` // rows kept, 0 keeps all
}

// NewDefaultSchedulerConfig creates default scheduler configuration
func NewDefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		SQLiteDBPath:     DefaultSchedulerSQLiteDBPath,
		HistoryRetention: DefaultSchedulerHistoryRetention,
	}
}
