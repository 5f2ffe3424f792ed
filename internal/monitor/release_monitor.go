package monitor

import (
	"context"
	"sync"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/aleister1102/releasewatch/internal/notifier"
	"github.com/rs/zerolog"
)

// ReleaseMonitor detects new releases and announces them
type ReleaseMonitor struct {
	fetcher ReleaseFetcher
	store   ReleaseStore
	sink    notifier.Sink
	logger  zerolog.Logger
}

// NewReleaseMonitor creates a new ReleaseMonitor
func NewReleaseMonitor(fetcher ReleaseFetcher, store ReleaseStore, sink notifier.Sink, logger zerolog.Logger) *ReleaseMonitor {
	return &ReleaseMonitor{
		fetcher: fetcher,
		store:   store,
		sink:    sink,
		logger:  logger.With().Str("component", "ReleaseMonitor").Logger(),
	}
}

// Kind returns the monitor group handled by this monitor
func (m *ReleaseMonitor) Kind() models.EntityKind {
	return models.KindRelease
}

// RunCycle checks every configured repository concurrently and waits for all
// of them. Fetch failures end as FetchFailed results; a store failure is
// returned so the caller can abort and cool down.
func (m *ReleaseMonitor) RunCycle(ctx context.Context, snap *config.Snapshot, trigger models.Trigger, observe ResultObserver) ([]models.EntityResult, error) {
	sources := snap.ReleaseSources()
	m.logger.Info().Int("repos", len(sources)).Str("trigger", string(trigger)).Msg("Starting release check")

	results := make([]models.EntityResult, len(sources))
	errs := common.NewErrorCollector()
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src config.ReleaseSource) {
			defer wg.Done()
			result, err := m.DetectAndNotify(ctx, snap, src)
			if err != nil {
				errs.AddWithContext(err, src.Key)
			}
			results[i] = result
			observe.notify(result)
		}(i, src)
	}
	wg.Wait()

	m.logger.Info().Int("repos", len(sources)).Msg("Release check finished")
	return results, errs.Error()
}

// DetectAndNotify runs one repository through fetch, commit and notify. The
// returned error is non-nil only for store failures.
func (m *ReleaseMonitor) DetectAndNotify(ctx context.Context, snap *config.Snapshot, src config.ReleaseSource) (models.EntityResult, error) {
	result := models.EntityResult{Kind: models.KindRelease, Key: src.Key}
	log := m.logger.With().Str("repo", src.Key).Logger()

	payload, err := m.fetcher.FetchLatest(ctx, src.Key, src.Token)
	if err != nil {
		if common.IsFetchFailure(err) {
			log.Warn().Err(err).Msg("Release fetch failed, state left untouched")
		} else {
			log.Error().Err(err).Msg("Release fetch failed")
		}
		result.Outcome = models.OutcomeFetchFailed
		result.Error = err.Error()
		return result, nil
	}

	previous, _, err := m.store.CommitRelease(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to persist release state")
		result.Outcome = models.OutcomeFetchFailed
		result.Error = err.Error()
		return result, err
	}
	result.Marker = payload.Marker()

	if payload.Marker() == previous {
		log.Debug().Str("tag", payload.Tag).Msg("No new release")
		result.Outcome = models.OutcomeUnchanged
		return result, nil
	}

	log.Info().Str("tag", payload.Tag).Str("previous", previous).Str("current", payload.Marker()).Msg("New release found")
	msg := notifier.FormatReleaseMessage(snap.ReleaseTopic(), payload, snap.PublicBaseURL())
	if status, err := m.sink.Send(ctx, snap.NotificationTarget(), msg); err != nil {
		log.Error().Err(err).Int("status_code", status).Msg("Release notification not delivered")
	}
	result.Outcome = models.OutcomeNotified
	return result, nil
}
