package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const historyTable = "cycle_history"

// HistoryDB records every scheduler cycle in SQLite
type HistoryDB struct {
	db        *sql.DB
	retention int
	logger    zerolog.Logger
}

// HistoryEntry represents a record in the cycle_history table.
type HistoryEntry struct {
	ID         int64      `json:"id"`
	CycleID    string     `json:"cycle_id"`
	Group      string     `json:"group"`
	Trigger    string     `json:"trigger"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     string     `json:"status"`
	Notified   int        `json:"notified"`
	Unchanged  int        `json:"unchanged"`
	Failed     int        `json:"failed"`
	Error      string     `json:"error,omitempty"`
}

// Duration returns how long the cycle ran, zero while it is still running
func (e HistoryEntry) Duration() time.Duration {
	if e.FinishedAt == nil {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}

// NewHistoryDB opens the database at path and ensures the schema is set up.
// retention is the number of rows kept, 0 keeps all.
func NewHistoryDB(path string, retention int, logger zerolog.Logger) (*HistoryDB, error) {
	dbLogger := logger.With().Str("component", "HistoryDB").Logger()
	dbLogger.Info().Str("db_path", path).Msg("Initializing scheduler database connection")

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			dbLogger.Error().Err(err).Str("directory", dir).Msg("Failed to create scheduler database directory")
			return nil, fmt.Errorf("failed to create scheduler database directory %s: %w", dir, err)
		}
	}

	dbInstance, err := sql.Open("sqlite", path)
	if err != nil {
		dbLogger.Error().Err(err).Str("db_path", path).Msg("Failed to open scheduler database")
		return nil, fmt.Errorf("sql.Open failed for %s: %w", path, err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY between goroutines.
	dbInstance.SetMaxOpenConns(1)

	h := &HistoryDB{db: dbInstance, retention: retention, logger: dbLogger}
	if err := h.InitSchema(); err != nil {
		h.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	dbLogger.Info().Str("path", path).Msg("Database initialized and schema verified.")
	return h, nil
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	if h.db != nil {
		return h.db.Close()
	}
	return nil
}

// InitSchema creates the cycle_history table if it doesn't already exist.
func (h *HistoryDB) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS cycle_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cycle_id TEXT UNIQUE NOT NULL,
		grp TEXT NOT NULL,
		trigger_kind TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		status TEXT NOT NULL,
		notified INTEGER DEFAULT 0,
		unchanged INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_cycle_history_grp_started ON cycle_history (grp, started_at);
	`
	if _, err := h.db.Exec(query); err != nil {
		h.logger.Error().Err(err).Msg("Failed to initialize schema")
		return err
	}
	return nil
}

// RecordCycleStart inserts a STARTED row for summary and returns its row ID
func (h *HistoryDB) RecordCycleStart(ctx context.Context, summary models.CycleSummary) (int64, error) {
	query, args, err := sq.Insert(historyTable).
		Columns("cycle_id", "grp", "trigger_kind", "started_at", "status").
		Values(summary.ID, string(summary.Group), string(summary.Trigger), summary.StartedAt.UnixMilli(), models.CycleStatusStarted).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building insert: %w", err)
	}

	result, err := h.db.ExecContext(ctx, query, args...)
	if err != nil {
		h.logger.Error().Err(err).Str("cycle_id", summary.ID).Msg("Failed to record cycle start")
		return 0, fmt.Errorf("failed to insert cycle start record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	h.logger.Debug().Int64("db_id", id).Str("cycle_id", summary.ID).Msg("Recorded cycle start")
	return id, nil
}

// UpdateCycleCompletion stores the outcome counts and final status of a cycle
// and prunes rows beyond the retention limit.
func (h *HistoryDB) UpdateCycleCompletion(ctx context.Context, id int64, summary models.CycleSummary) error {
	query, args, err := sq.Update(historyTable).
		Set("finished_at", summary.FinishedAt.UnixMilli()).
		Set("status", summary.Status).
		Set("notified", summary.Count(models.OutcomeNotified)).
		Set("unchanged", summary.Count(models.OutcomeUnchanged)).
		Set("failed", summary.Count(models.OutcomeFetchFailed)).
		Set("error", sql.NullString{String: summary.Error, Valid: summary.Error != ""}).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building update: %w", err)
	}

	if _, err := h.db.ExecContext(ctx, query, args...); err != nil {
		h.logger.Error().Err(err).Int64("db_id", id).Msg("Failed to update cycle completion")
		return fmt.Errorf("failed to update cycle completion for ID %d: %w", id, err)
	}
	return h.prune(ctx)
}

// RecentCycles returns the newest cycles, optionally limited to one group
func (h *HistoryDB) RecentCycles(ctx context.Context, group string, limit int) ([]HistoryEntry, error) {
	builder := sq.Select("id", "cycle_id", "grp", "trigger_kind", "started_at", "finished_at", "status", "notified", "unchanged", "failed", "error").
		From(historyTable).
		OrderBy("started_at DESC", "id DESC")
	if group != "" {
		builder = builder.Where(sq.Eq{"grp": group})
	}
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycle history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			e          HistoryEntry
			startedAt  int64
			finishedAt sql.NullInt64
			errText    sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.CycleID, &e.Group, &e.Trigger, &startedAt, &finishedAt, &e.Status, &e.Notified, &e.Unchanged, &e.Failed, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan cycle history row: %w", err)
		}
		e.StartedAt = time.UnixMilli(startedAt)
		if finishedAt.Valid {
			t := time.UnixMilli(finishedAt.Int64)
			e.FinishedAt = &t
		}
		e.Error = errText.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LastCompleted returns the start time of the most recent completed cycle of
// group, or nil when there is none.
func (h *HistoryDB) LastCompleted(ctx context.Context, group string) (*time.Time, error) {
	query, args, err := sq.Select("started_at").
		From(historyTable).
		Where(sq.Eq{"grp": group, "status": models.CycleStatusCompleted}).
		OrderBy("started_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}

	var startedAt int64
	if err := h.db.QueryRowContext(ctx, query, args...).Scan(&startedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query last completed cycle: %w", err)
	}
	t := time.UnixMilli(startedAt)
	return &t, nil
}

func (h *HistoryDB) prune(ctx context.Context) error {
	if h.retention <= 0 {
		return nil
	}
	keep := sq.Select("id").From(historyTable).OrderBy("id DESC").Limit(uint64(h.retention))
	query, args, err := sq.Delete(historyTable).
		Where(sq.Expr("id NOT IN (?)", keep)).
		ToSql()
	if err != nil {
		return fmt.Errorf("building prune: %w", err)
	}
	res, err := h.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to prune cycle history: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		h.logger.Debug().Int64("rows", n).Msg("Pruned cycle history")
	}
	return nil
}
