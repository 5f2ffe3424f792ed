package datastore

import (
	"sync"
	"testing"
	"time"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsArchive_AppendAndHistory(t *testing.T) {
	for _, codec := range []string{"zstd", "snappy", "gzip", "none"} {
		t.Run(codec, func(t *testing.T) {
			cfg := newTestStorageConfig(t)
			cfg.CompressionCodec = codec
			archive, err := NewStatsArchive(cfg, zerolog.Nop())
			require.NoError(t, err)

			base := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)
			for i := 0; i < 3; i++ {
				snap := models.StatsSnapshot{
					Site:      "example.com",
					Visitors:  int64(10 + i),
					Day:       base.AddDate(0, 0, i).Format("2006-01-02"),
					FetchedAt: base.AddDate(0, 0, i),
				}
				require.NoError(t, archive.Append(snap.ToArchiveRecord(i == 2)))
			}

			history, err := archive.History("example.com", 0)
			require.NoError(t, err)
			require.Len(t, history, 3)
			assert.Equal(t, "2024-05-03", history[0].Day, "newest first")
			assert.True(t, history[0].Manual)
			assert.Equal(t, int64(10), history[2].Visitors)

			limited, err := archive.History("example.com", 2)
			require.NoError(t, err)
			assert.Len(t, limited, 2)
		})
	}
}

func TestStatsArchive_UnknownSiteIsEmpty(t *testing.T) {
	archive, err := NewStatsArchive(newTestStorageConfig(t), zerolog.Nop())
	require.NoError(t, err)

	history, err := archive.History("nobody.example", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestStatsArchive_RequiresSite(t *testing.T) {
	archive, err := NewStatsArchive(newTestStorageConfig(t), zerolog.Nop())
	require.NoError(t, err)

	err = archive.Append(models.StatsArchiveRecord{})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestStatsArchive_ConcurrentAppendsSameSite(t *testing.T) {
	archive, err := NewStatsArchive(newTestStorageConfig(t), zerolog.Nop())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := models.StatsArchiveRecord{Site: "example.com", Day: "2024-05-01", FetchedAt: int64(i)}
			assert.NoError(t, archive.Append(rec))
		}(i)
	}
	wg.Wait()

	history, err := archive.History("example.com", 0)
	require.NoError(t, err)
	assert.Len(t, history, 5)
}

func TestKeyMutexManager_SameKeySameMutex(t *testing.T) {
	m := NewKeyMutexManager()
	assert.Same(t, m.GetMutex("a"), m.GetMutex("a"))
	assert.NotSame(t, m.GetMutex("a"), m.GetMutex("b"))
}
