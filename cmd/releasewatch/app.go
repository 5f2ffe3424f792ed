package main

import (
	"fmt"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/aleister1102/releasewatch/internal/datastore"
	"github.com/aleister1102/releasewatch/internal/github"
	"github.com/aleister1102/releasewatch/internal/logger"
	"github.com/aleister1102/releasewatch/internal/monitor"
	"github.com/aleister1102/releasewatch/internal/notifier"
	"github.com/aleister1102/releasewatch/internal/plausible"
	"github.com/aleister1102/releasewatch/internal/scheduler"
	"github.com/rs/zerolog"
)

// app holds the wired components shared by the subcommands
type app struct {
	cfgPath   string
	provider  *config.Provider
	logger    zerolog.Logger
	state     *datastore.StateStore
	archive   *datastore.StatsArchive
	history   *scheduler.HistoryDB
	github    *github.Client
	plausible *plausible.Client
	runners   []scheduler.GroupRunner
}

// loadConfig reads configuration and builds the logger. It is the minimum
// every subcommand needs.
func loadConfig(configPath string) (*config.GlobalConfig, string, zerolog.Logger, error) {
	bootstrap, err := logger.New(logger.NewDefaultFileLogConfig())
	if err != nil {
		return nil, "", zerolog.Nop(), err
	}

	cfg, path, err := config.LoadGlobalConfig(configPath, bootstrap)
	if err != nil {
		return nil, "", zerolog.Nop(), fmt.Errorf("loading configuration: %w", err)
	}

	log, err := logger.New(cfg.LogConfig)
	if err != nil {
		return nil, "", zerolog.Nop(), fmt.Errorf("initializing logger: %w", err)
	}
	return cfg, path, log, nil
}

// newApp wires stores, adapters and monitors
func newApp(configPath string) (*app, error) {
	cfg, path, log, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	provider, err := config.NewProvider(cfg, path, log)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	snap := provider.Current()

	state, err := datastore.NewStateStore(cfg.StorageConfig, log)
	if err != nil {
		return nil, err
	}
	archive, err := datastore.NewStatsArchive(cfg.StorageConfig, log)
	if err != nil {
		return nil, err
	}
	history, err := scheduler.NewHistoryDB(cfg.SchedulerConfig.SQLiteDBPath, cfg.SchedulerConfig.HistoryRetention, log)
	if err != nil {
		return nil, err
	}

	clients := common.NewHTTPClientFactory(log)
	apiClient, err := clients.CreateAPIClient(snap.FetchTimeout())
	if err != nil {
		_ = history.Close()
		return nil, err
	}
	notifyClient, err := clients.CreateNotifierClient(snap.FetchTimeout())
	if err != nil {
		_ = history.Close()
		return nil, err
	}

	ghClient := github.NewClient(apiClient, cfg.GitHub.APIURL, log)
	plClient := plausible.NewClient(apiClient, cfg.Plausible.URL, log)
	sink := notifier.NewNtfyNotifier(log, notifyClient)

	runners := []scheduler.GroupRunner{
		monitor.NewReleaseMonitor(ghClient, state, sink, log),
		monitor.NewStatsMonitor(plClient, state, sink, log, monitor.WithArchive(archive)),
	}

	return &app{
		cfgPath:   path,
		provider:  provider,
		logger:    log,
		state:     state,
		archive:   archive,
		history:   history,
		github:    ghClient,
		plausible: plClient,
		runners:   runners,
	}, nil
}

// newScheduler builds a scheduler over the monitors, recording history
func (a *app) newScheduler(opts ...scheduler.Option) *scheduler.Scheduler {
	opts = append([]scheduler.Option{scheduler.WithHistory(a.history)}, opts...)
	return scheduler.NewScheduler(a.provider, a.runners, a.logger, opts...)
}

func (a *app) Close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Closing history database")
		}
	}
}
