package datastore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
)

// StatsArchive keeps every fetched stats snapshot in one parquet file per site.
// Appending rewrites the file through a temp file and rename.
type StatsArchive struct {
	baseDir string
	codec   string
	locks   *KeyMutexManager
	logger  zerolog.Logger
}

// NewStatsArchive creates a StatsArchive rooted at cfg.StatsArchiveDir
func NewStatsArchive(cfg config.StorageConfig, logger zerolog.Logger) (*StatsArchive, error) {
	archiveLogger := logger.With().Str("component", "StatsArchive").Logger()
	if err := common.NewFileManager(archiveLogger).EnsureDirectory(cfg.StatsArchiveDir, 0o755); err != nil {
		return nil, common.NewStoreError("prepare stats archive directory", err)
	}
	return &StatsArchive{
		baseDir: cfg.StatsArchiveDir,
		codec:   cfg.CompressionCodec,
		locks:   NewKeyMutexManager(),
		logger:  archiveLogger,
	}, nil
}

// Append adds one row to the site's archive file
func (a *StatsArchive) Append(record models.StatsArchiveRecord) error {
	if record.Site == "" {
		return common.NewValidationError("site", record.Site, "site is required")
	}
	mu := a.locks.GetMutex(record.Site)
	mu.Lock()
	defer mu.Unlock()

	path := a.filePath(record.Site)
	existing, err := a.readRecords(path)
	if err != nil {
		a.logger.Error().Err(err).Str("path", path).Msg("Error reading existing archive file, will attempt to overwrite")
		existing = nil
	}

	all := append(existing, record)
	if err := a.writeRecords(path, all); err != nil {
		return common.NewStoreError("append stats archive", err)
	}

	a.logger.Debug().Str("site", record.Site).Int("rows", len(all)).Msg("Stats snapshot archived")
	return nil
}

// History returns up to limit rows for site, newest first. limit <= 0 returns all.
func (a *StatsArchive) History(site string, limit int) ([]models.StatsArchiveRecord, error) {
	mu := a.locks.GetMutex(site)
	mu.Lock()
	defer mu.Unlock()

	records, err := a.readRecords(a.filePath(site))
	if err != nil {
		return nil, common.NewStoreError("read stats archive", err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].FetchedAt > records[j].FetchedAt
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (a *StatsArchive) filePath(site string) string {
	return filepath.Join(a.baseDir, strings.TrimSuffix(cacheFileName(site), ".json")+".parquet")
}

func (a *StatsArchive) readRecords(path string) ([]models.StatsArchiveRecord, error) {
	osFile, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open archive file '%s': %w", path, err)
	}
	defer osFile.Close()

	stat, err := osFile.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive file '%s': %w", path, err)
	}
	if stat.Size() == 0 {
		return nil, nil
	}

	pqFile, err := parquet.OpenFile(osFile, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file '%s': %w", path, err)
	}

	reader := parquet.NewReader(pqFile)
	defer reader.Close()

	var records []models.StatsArchiveRecord
	for {
		var record models.StatsArchiveRecord
		if err := reader.Read(&record); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("error reading record from parquet file '%s': %w", path, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func (a *StatsArchive) writeRecords(path string, records []models.StatsArchiveRecord) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp archive file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	writer := parquet.NewWriter(tmp, parquet.SchemaOf(models.StatsArchiveRecord{}), a.compressionOption())
	for _, rec := range records {
		if err := writer.Write(rec); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("writing archive row for %s: %w", rec.Site, err)
		}
	}
	if err := writer.Close(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("closing Parquet writer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing archive file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing archive file: %w", err)
	}
	return os.Rename(tmpName, path)
}

func (a *StatsArchive) compressionOption() parquet.WriterOption {
	switch strings.ToLower(a.codec) {
	case "snappy":
		return parquet.Compression(&parquet.Snappy)
	case "gzip":
		return parquet.Compression(&parquet.Gzip)
	case "zstd":
		return parquet.Compression(&parquet.Zstd)
	case "", "none":
		return parquet.Compression(&parquet.Uncompressed)
	default:
		a.logger.Warn().Str("codec", a.codec).Msg("Unsupported compression codec string, defaulting to Uncompressed")
		return parquet.Compression(&parquet.Uncompressed)
	}
}
