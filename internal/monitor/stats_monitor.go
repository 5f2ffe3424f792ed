package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/aleister1102/releasewatch/internal/notifier"
	"github.com/rs/zerolog"
)

const (
	dayLayout       = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

// StatsMonitor sends the daily analytics report for every configured site
type StatsMonitor struct {
	fetcher StatsFetcher
	store   StatsStore
	archive StatsRecorder
	sink    notifier.Sink
	now     func() time.Time
	logger  zerolog.Logger
}

// StatsMonitorOption configures a StatsMonitor
type StatsMonitorOption func(*StatsMonitor)

// WithArchive records every fetched snapshot in archive
func WithArchive(archive StatsRecorder) StatsMonitorOption {
	return func(m *StatsMonitor) { m.archive = archive }
}

// WithClock replaces the wall clock
func WithClock(now func() time.Time) StatsMonitorOption {
	return func(m *StatsMonitor) { m.now = now }
}

// NewStatsMonitor creates a new StatsMonitor
func NewStatsMonitor(fetcher StatsFetcher, store StatsStore, sink notifier.Sink, logger zerolog.Logger, opts ...StatsMonitorOption) *StatsMonitor {
	m := &StatsMonitor{
		fetcher: fetcher,
		store:   store,
		sink:    sink,
		now:     time.Now,
		logger:  logger.With().Str("component", "StatsMonitor").Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Kind returns the monitor group handled by this monitor
func (m *StatsMonitor) Kind() models.EntityKind {
	return models.KindStats
}

// RunCycle sends the report for every site when one is due. A manual trigger
// always reports. When nothing is due no site is fetched and every site ends
// Unchanged.
func (m *StatsMonitor) RunCycle(ctx context.Context, snap *config.Snapshot, trigger models.Trigger, observe ResultObserver) ([]models.EntityResult, error) {
	sources := snap.StatsSources()
	manual := trigger == models.TriggerManual
	now := m.now().In(snap.Location())
	today := now.Format(dayLayout)

	state, err := m.store.Snapshot()
	if err != nil {
		return nil, err
	}

	if len(sources) == 0 {
		m.logger.Debug().Msg("No stats sources configured")
		return nil, nil
	}

	src := sources[0]
	if !ReportDue(now, src.ReportHour, src.ReportMinute, state.Plausible.LastReport, manual) {
		m.logger.Debug().
			Str("today", today).
			Str("last_report", state.Plausible.LastReport).
			Str("current_time", now.Format("15:04")).
			Msg("No stats report due")
		results := make([]models.EntityResult, 0, len(sources))
		for _, s := range sources {
			r := models.EntityResult{Kind: models.KindStats, Key: s.Key, Outcome: models.OutcomeUnchanged, Marker: state.Plausible.Markers[s.Key]}
			results = append(results, r)
			observe.notify(r)
		}
		return results, nil
	}

	m.logger.Info().Int("sites", len(sources)).Bool("manual", manual).Str("day", today).Msg("Starting stats report")

	results := make([]models.EntityResult, len(sources))
	errs := common.NewErrorCollector()
	var wg sync.WaitGroup
	for i, s := range sources {
		wg.Add(1)
		go func(i int, s config.StatsSource) {
			defer wg.Done()
			result, err := m.DetectAndNotify(ctx, snap, s, now, manual)
			if err != nil {
				errs.AddWithContext(err, s.Key)
			}
			results[i] = result
			observe.notify(result)
		}(i, s)
	}
	wg.Wait()

	if errs.HasErrors() {
		return results, errs.Error()
	}

	if !anyFetched(results) {
		// Leave the day open so the next cycle retries the report.
		m.logger.Warn().Str("day", today).Msg("No site could be fetched, report not recorded")
		return results, nil
	}

	if err := m.store.RecordReport(today, now.Format(timestampLayout), manual); err != nil {
		return results, err
	}
	m.logger.Info().Str("checked_at", now.Format(timestampLayout)).Bool("manual", manual).Msg("Stats report finished")
	return results, nil
}

// DetectAndNotify fetches one site's figures for the day of now, stores them
// and sends the report. The returned error is non-nil only for store failures.
func (m *StatsMonitor) DetectAndNotify(ctx context.Context, snap *config.Snapshot, src config.StatsSource, now time.Time, manual bool) (models.EntityResult, error) {
	result := models.EntityResult{Kind: models.KindStats, Key: src.Key}
	log := m.logger.With().Str("site", src.Key).Logger()
	day := now.Format(dayLayout)

	stats, err := m.fetcher.FetchStats(ctx, src.Key, src.Token, day)
	if err != nil {
		log.Warn().Err(err).Msg("Stats fetch failed, state left untouched")
		result.Outcome = models.OutcomeFetchFailed
		result.Error = err.Error()
		return result, nil
	}
	stats.Site = src.Key
	stats.Day = day
	stats.FetchedAt = now.UTC()

	if _, _, err := m.store.CommitStats(stats, now.Format(timestampLayout)); err != nil {
		log.Error().Err(err).Msg("Failed to persist stats state")
		result.Outcome = models.OutcomeFetchFailed
		result.Error = err.Error()
		return result, err
	}
	result.Marker = stats.Marker()

	if m.archive != nil {
		if err := m.archive.Append(stats.ToArchiveRecord(manual)); err != nil {
			log.Warn().Err(err).Msg("Failed to archive stats snapshot")
		}
	}

	msg := notifier.FormatStatsMessage(snap.StatsTopic(), snap.StatsTemplate(), stats)
	if status, err := m.sink.Send(ctx, snap.NotificationTarget(), msg); err != nil {
		log.Error().Err(err).Int("status_code", status).Msg("Stats notification not delivered")
	} else {
		log.Info().Int("status_code", status).Msg("Stats notification sent")
	}
	result.Outcome = models.OutcomeNotified
	return result, nil
}

func anyFetched(results []models.EntityResult) bool {
	for _, r := range results {
		if r.Outcome != models.OutcomeFetchFailed {
			return true
		}
	}
	return false
}
