package datastore

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/rs/zerolog"
)

const (
	releaseCacheSubdir = "releases"
	statsCacheSubdir   = "stats"
)

// StateStore persists last-seen markers in one JSON file and the latest
// payload per entity in a cache directory. A single lock serializes every
// read-modify-write, so concurrent entity checks never interleave updates.
type StateStore struct {
	mu          sync.Mutex
	statePath   string
	cacheDir    string
	fileManager *common.FileManager
	logger      zerolog.Logger
}

// NewStateStore creates a StateStore and ensures its directories exist
func NewStateStore(cfg config.StorageConfig, logger zerolog.Logger) (*StateStore, error) {
	storeLogger := logger.With().Str("component", "StateStore").Logger()
	fm := common.NewFileManager(storeLogger)

	for _, dir := range []string{
		filepath.Dir(cfg.StateFile),
		filepath.Join(cfg.CacheDir, releaseCacheSubdir),
		filepath.Join(cfg.CacheDir, statsCacheSubdir),
	} {
		if err := fm.EnsureDirectory(dir, 0o755); err != nil {
			return nil, common.NewStoreError("prepare state directories", err)
		}
	}

	storeLogger.Info().Str("state_file", cfg.StateFile).Str("cache_dir", cfg.CacheDir).Msg("State store initialized")
	return &StateStore{
		statePath:   cfg.StateFile,
		cacheDir:    cfg.CacheDir,
		fileManager: fm,
		logger:      storeLogger,
	}, nil
}

// Snapshot returns a copy of the persisted state. A missing or corrupt file
// yields an empty record.
func (s *StateStore) Snapshot() (models.StateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Update applies fn to the current state and persists the result as one
// atomic unit. Nothing is written when fn returns an error.
func (s *StateStore) Update(fn func(state *models.StateRecord) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(&state); err != nil {
		return err
	}
	return s.save(state)
}

// GetMarker returns the last-seen marker for an entity
func (s *StateStore) GetMarker(kind models.EntityKind, key string) (string, bool, error) {
	state, err := s.Snapshot()
	if err != nil {
		return "", false, err
	}
	markers := state.Markers(kind)
	if markers == nil {
		return "", false, common.NewValidationError("kind", kind, "unknown entity kind")
	}
	value, ok := markers[key]
	return value, ok, nil
}

// SetMarker records value as the last-seen marker for an entity
func (s *StateStore) SetMarker(kind models.EntityKind, key, value string) error {
	return s.Update(func(state *models.StateRecord) error {
		markers := state.Markers(kind)
		if markers == nil {
			return common.NewValidationError("kind", kind, "unknown entity kind")
		}
		markers[key] = value
		return nil
	})
}

// CommitRelease overwrites the cached payload and then the marker for its
// repository, returning the marker that was stored before.
func (s *StateStore) CommitRelease(payload models.ReleasePayload) (string, bool, error) {
	var previous string
	var hadPrevious bool
	err := s.Update(func(state *models.StateRecord) error {
		previous, hadPrevious = state.GitHub[payload.Repo]
		if err := s.writeCache(s.releaseCachePath(payload.Repo), payload); err != nil {
			return err
		}
		state.GitHub[payload.Repo] = payload.Marker()
		return nil
	})
	return previous, hadPrevious, err
}

// CommitStats overwrites the cached snapshot, the site marker and the site's
// last report time, returning the marker that was stored before.
func (s *StateStore) CommitStats(snap models.StatsSnapshot, checkedAt string) (string, bool, error) {
	var previous string
	var hadPrevious bool
	err := s.Update(func(state *models.StateRecord) error {
		previous, hadPrevious = state.Plausible.Markers[snap.Site]
		if err := s.writeCache(s.statsCachePath(snap.Site), snap); err != nil {
			return err
		}
		state.Plausible.Markers[snap.Site] = snap.Marker()
		state.Plausible.CheckedSites[snap.Site] = checkedAt
		return nil
	})
	return previous, hadPrevious, err
}

// RecordReport stores the bookkeeping of a finished stats report run. The
// report day only advances for scheduled runs so a manual report never
// suppresses the daily one.
func (s *StateStore) RecordReport(day, checkedAt string, manual bool) error {
	return s.Update(func(state *models.StateRecord) error {
		if !manual {
			state.Plausible.LastReport = day
		}
		state.Plausible.LastCheck = checkedAt
		state.Plausible.Manual = manual
		return nil
	})
}

// GetCachedRelease returns the cached payload for a repository, or an error
// matching common.ErrNotFound when none is cached.
func (s *StateStore) GetCachedRelease(key string) (*models.ReleasePayload, error) {
	var payload models.ReleasePayload
	if err := s.readCache(s.releaseCachePath(key), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SetCachedRelease overwrites the cached payload for a repository
func (s *StateStore) SetCachedRelease(key string, payload models.ReleasePayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeCache(s.releaseCachePath(key), payload)
}

// GetCachedStats returns the most recent snapshot fetched for a site
func (s *StateStore) GetCachedStats(site string) (*models.StatsSnapshot, error) {
	var snap models.StatsSnapshot
	if err := s.readCache(s.statsCachePath(site), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// SetCachedStats overwrites the cached snapshot for a site
func (s *StateStore) SetCachedStats(site string, snap models.StatsSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeCache(s.statsCachePath(site), snap)
}

// CachedReleases returns every cached release payload ordered by publish
// time, newest first. Unreadable entries are skipped.
func (s *StateStore) CachedReleases() ([]models.ReleasePayload, error) {
	dir := filepath.Join(s.cacheDir, releaseCacheSubdir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, common.NewStoreError("list cached releases", err)
	}

	var out []models.ReleasePayload
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		var payload models.ReleasePayload
		if _, err := s.fileManager.ReadJSON(filepath.Join(dir, entry.Name()), &payload); err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Skipping unreadable cached release")
			continue
		}
		out = append(out, payload)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt > out[j].PublishedAt
	})
	return out, nil
}

func (s *StateStore) load() (models.StateRecord, error) {
	state := models.NewStateRecord()
	found, err := s.fileManager.ReadJSON(s.statePath, &state)
	if errors.Is(err, common.ErrCorruptFile) {
		// The next save replaces the broken file.
		s.logger.Warn().Err(err).Str("path", s.statePath).Msg("State file is corrupt, starting from empty state")
		return models.NewStateRecord(), nil
	}
	if err != nil {
		return models.StateRecord{}, common.NewStoreError("load state", err)
	}
	if !found {
		return models.NewStateRecord(), nil
	}
	state.Normalize()
	return state, nil
}

func (s *StateStore) save(state models.StateRecord) error {
	if err := s.fileManager.WriteJSONAtomic(s.statePath, state); err != nil {
		return common.NewStoreError("save state", err)
	}
	return nil
}

func (s *StateStore) readCache(path string, v interface{}) error {
	found, err := s.fileManager.ReadJSON(path, v)
	if errors.Is(err, common.ErrCorruptFile) {
		s.logger.Warn().Err(err).Str("path", path).Msg("Cached payload is corrupt, ignoring it")
		return common.WrapErrorf(common.ErrNotFound, "corrupt cached payload at %s", filepath.Base(path))
	}
	if err != nil {
		return common.NewStoreError("read cache", err)
	}
	if !found {
		return common.WrapErrorf(common.ErrNotFound, "no cached payload at %s", filepath.Base(path))
	}
	return nil
}

func (s *StateStore) writeCache(path string, v interface{}) error {
	if err := s.fileManager.WriteJSONAtomic(path, v); err != nil {
		return common.NewStoreError("write cache", err)
	}
	return nil
}

func (s *StateStore) releaseCachePath(key string) string {
	return filepath.Join(s.cacheDir, releaseCacheSubdir, cacheFileName(key))
}

func (s *StateStore) statsCachePath(site string) string {
	return filepath.Join(s.cacheDir, statsCacheSubdir, cacheFileName(site))
}

// cacheFileName maps an entity key onto a single path element
func cacheFileName(key string) string {
	name := strings.NewReplacer("/", "__", "\\", "__").Replace(key)
	if name == "" || name == "." || name == ".." {
		name = "_" + name
	}
	return name + ".json"
}
