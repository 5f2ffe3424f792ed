package monitor

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/aleister1102/releasewatch/internal/datastore"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeReleaseFetcher struct {
	mu       sync.Mutex
	payloads map[string]models.ReleasePayload
	errs     map[string]error
	calls    int
}

func (f *fakeReleaseFetcher) FetchLatest(_ context.Context, key, _ string) (models.ReleasePayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.errs[key]; ok {
		return models.ReleasePayload{}, err
	}
	p, ok := f.payloads[key]
	if !ok {
		return models.ReleasePayload{}, common.NewHTTPErrorWithURL(404, "Not Found", key)
	}
	return p, nil
}

type fakeStatsFetcher struct {
	mu    sync.Mutex
	stats map[string]models.StatsSnapshot
	errs  map[string]error
	days  []string
}

func (f *fakeStatsFetcher) FetchStats(_ context.Context, site, _, day string) (models.StatsSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.days = append(f.days, day)
	if err, ok := f.errs[site]; ok {
		return models.StatsSnapshot{}, err
	}
	return f.stats[site], nil
}

func (f *fakeStatsFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.days)
}

type fakeSink struct {
	mu     sync.Mutex
	sent   []models.Notification
	status int
	err    error
}

func (s *fakeSink) Send(_ context.Context, _ config.NotificationTarget, n models.Notification) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	if s.status == 0 {
		return 200, s.err
	}
	return s.status, s.err
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type fakeArchive struct {
	mu      sync.Mutex
	records []models.StatsArchiveRecord
}

func (a *fakeArchive) Append(r models.StatsArchiveRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, r)
	return nil
}

// brokenStore fails every write the way an unwritable disk would
type brokenStore struct{}

var errDiskGone = common.NewStoreError("save state", errors.New("disk gone"))

func (brokenStore) CommitRelease(models.ReleasePayload) (string, bool, error) {
	return "", false, errDiskGone
}

func (brokenStore) Snapshot() (models.StateRecord, error) { return models.NewStateRecord(), nil }

func (brokenStore) CommitStats(models.StatsSnapshot, string) (string, bool, error) {
	return "", false, errDiskGone
}

func (brokenStore) RecordReport(string, string, bool) error { return errDiskGone }

func newTestStore(t *testing.T) *datastore.StateStore {
	t.Helper()
	dir := t.TempDir()
	store, err := datastore.NewStateStore(config.StorageConfig{
		StateFile:       filepath.Join(dir, "last_checks.json"),
		CacheDir:        filepath.Join(dir, "cache"),
		StatsArchiveDir: filepath.Join(dir, "stats"),
	}, zerolog.Nop())
	require.NoError(t, err)
	return store
}

func newTestSnapshot(t *testing.T, mutate func(cfg *config.GlobalConfig)) *config.Snapshot {
	t.Helper()
	cfg := config.NewDefaultGlobalConfig()
	if mutate != nil {
		mutate(cfg)
	}
	snap, err := config.NewSnapshot(cfg)
	require.NoError(t, err)
	return snap
}
