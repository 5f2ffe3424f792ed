package config

import (
	"sync"
	"time"
	_ "time/tzdata" // report zones must resolve on hosts without a zoneinfo database

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/rs/zerolog"
)

// ReleaseSource is one repository to watch for releases
type ReleaseSource struct {
	Key   string
	Token string
}

// StatsSource is one analytics site with its daily report schedule
type StatsSource struct {
	Key          string
	Token        string
	ReportHour   int
	ReportMinute int
	Location     *time.Location
}

// NotificationTarget is the push relay endpoint
type NotificationTarget struct {
	Endpoint string
	Token    string
	Priority string
}

// Source is the read-only view of configuration consumed by the monitors
type Source interface {
	ReleaseSources() []ReleaseSource
	StatsSources() []StatsSource
	NotificationTarget() NotificationTarget
	Interval() time.Duration
}

// Snapshot is an immutable, validated configuration. Every cycle reads one
// snapshot from start to end.
type Snapshot struct {
	cfg          *GlobalConfig
	location     *time.Location
	reportHour   int
	reportMinute int
}

// NewSnapshot validates cfg and resolves derived values. It fails fast with a
// descriptive error instead of failing mid-cycle.
func NewSnapshot(cfg *GlobalConfig) (*Snapshot, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(cfg.Plausible.Timezone)
	if err != nil {
		return nil, common.NewConfigurationError("plausible", "timezone", err.Error())
	}
	hour, minute, err := ParseReportTime(cfg.Plausible.ReportTime)
	if err != nil {
		return nil, common.NewConfigurationError("plausible", "report_time", err.Error())
	}
	return &Snapshot{
		cfg:          cfg.Clone(),
		location:     loc,
		reportHour:   hour,
		reportMinute: minute,
	}, nil
}

// Config returns a copy of the underlying configuration
func (s *Snapshot) Config() *GlobalConfig {
	return s.cfg.Clone()
}

// ReleaseSources lists configured repositories, empty when GitHub is disabled
func (s *Snapshot) ReleaseSources() []ReleaseSource {
	if !s.cfg.GitHub.Enabled {
		return nil
	}
	out := make([]ReleaseSource, 0, len(s.cfg.GitHub.Repos))
	for _, repo := range s.cfg.GitHub.Repos {
		out = append(out, ReleaseSource{Key: repo, Token: s.cfg.GitHub.Token})
	}
	return out
}

// StatsSources lists configured sites, empty when Plausible is disabled
func (s *Snapshot) StatsSources() []StatsSource {
	if !s.cfg.Plausible.Enabled {
		return nil
	}
	out := make([]StatsSource, 0, len(s.cfg.Plausible.Sites))
	for _, site := range s.cfg.Plausible.Sites {
		out = append(out, StatsSource{
			Key:          site,
			Token:        s.cfg.Plausible.Token,
			ReportHour:   s.reportHour,
			ReportMinute: s.reportMinute,
			Location:     s.location,
		})
	}
	return out
}

// NotificationTarget returns the push relay endpoint
func (s *Snapshot) NotificationTarget() NotificationTarget {
	return NotificationTarget{
		Endpoint: s.cfg.Ntfy.BaseURL,
		Token:    s.cfg.Ntfy.Token,
		Priority: s.cfg.Ntfy.Priority,
	}
}

// Interval is the pause between the end of one cycle and the start of the next
func (s *Snapshot) Interval() time.Duration {
	return time.Duration(s.cfg.General.CheckInterval) * time.Second
}

// ErrorCooldown is the pause after a cycle aborted by an orchestration error
func (s *Snapshot) ErrorCooldown() time.Duration {
	return time.Duration(s.cfg.General.ErrorCooldown) * time.Second
}

// FetchTimeout bounds each upstream request
func (s *Snapshot) FetchTimeout() time.Duration {
	return time.Duration(s.cfg.General.FetchTimeout) * time.Second
}

// ReleaseTopic is the ntfy topic for release notifications
func (s *Snapshot) ReleaseTopic() string {
	return s.cfg.GitHub.NtfyTopic
}

// StatsTopic is the ntfy topic for daily stats reports
func (s *Snapshot) StatsTopic() string {
	return s.cfg.Plausible.NtfyTopic
}

// StatsTemplate is the body template of daily stats reports
func (s *Snapshot) StatsTemplate() string {
	if s.cfg.Plausible.MessageTemplate == "" {
		return DefaultPlausibleTemplate
	}
	return s.cfg.Plausible.MessageTemplate
}

// PublicBaseURL is the externally reachable address of the web interface,
// empty when release links should point upstream
func (s *Snapshot) PublicBaseURL() string {
	return s.cfg.General.PublicBaseURL
}

// Location is the reference zone for the stats reporting day
func (s *Snapshot) Location() *time.Location {
	return s.location
}

// Provider holds the current snapshot and persists replacements
type Provider struct {
	mu       sync.RWMutex
	current  *Snapshot
	filePath string
	logger   zerolog.Logger
}

// NewProvider creates a Provider. filePath may be empty, in which case updates
// are kept in memory only.
func NewProvider(cfg *GlobalConfig, filePath string, logger zerolog.Logger) (*Provider, error) {
	snap, err := NewSnapshot(cfg)
	if err != nil {
		return nil, err
	}
	return &Provider{
		current:  snap,
		filePath: filePath,
		logger:   logger.With().Str("component", "ConfigProvider").Logger(),
	}, nil
}

// Current returns the active snapshot
func (p *Provider) Current() *Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Update validates cfg, writes it to disk and makes it the active snapshot.
// On any error the previous snapshot stays active.
func (p *Provider) Update(cfg *GlobalConfig) error {
	snap, err := NewSnapshot(cfg)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.filePath != "" {
		if err := SaveGlobalConfig(p.filePath, snap.cfg, p.logger); err != nil {
			return err
		}
	}
	p.current = snap
	p.logger.Info().
		Int("repos", len(cfg.GitHub.Repos)).
		Int("sites", len(cfg.Plausible.Sites)).
		Int("check_interval", cfg.General.CheckInterval).
		Msg("Configuration updated")
	return nil
}
