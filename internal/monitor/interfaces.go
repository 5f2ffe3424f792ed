package monitor

import (
	"context"

	"github.com/aleister1102/releasewatch/internal/models"
)

// ReleaseFetcher is the release-source adapter
type ReleaseFetcher interface {
	FetchLatest(ctx context.Context, key, token string) (models.ReleasePayload, error)
}

// StatsFetcher is the stats-source adapter
type StatsFetcher interface {
	FetchStats(ctx context.Context, site, token, day string) (models.StatsSnapshot, error)
}

// ReleaseStore persists release markers and payloads
type ReleaseStore interface {
	CommitRelease(payload models.ReleasePayload) (previous string, hadPrevious bool, err error)
}

// StatsStore persists stats markers, payloads and report bookkeeping
type StatsStore interface {
	Snapshot() (models.StateRecord, error)
	CommitStats(snap models.StatsSnapshot, checkedAt string) (previous string, hadPrevious bool, err error)
	RecordReport(day, checkedAt string, manual bool) error
}

// StatsRecorder keeps the history of fetched snapshots
type StatsRecorder interface {
	Append(record models.StatsArchiveRecord) error
}

// ResultObserver is told about every entity outcome as soon as it is known
type ResultObserver func(result models.EntityResult)

func (o ResultObserver) notify(result models.EntityResult) {
	if o != nil {
		o(result)
	}
}
