package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/relocato/leadimport/internal/model"
)

// GetWatermark returns the last import timestamp recorded for a
// folder. A folder that was never imported yields the zero time.
func (s *SQLiteStore) GetWatermark(
	ctx context.Context,
	folder string,
) (time.Time, error) {
	var last time.Time
	err := s.db.GetContext(ctx, &last,
		"SELECT last_import FROM import_watermarks WHERE folder = ?", folder)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("reading watermark for %s: %w", folder, err)
	}
	return last, nil
}

// SetWatermark records the last import timestamp for a folder.
func (s *SQLiteStore) SetWatermark(
	ctx context.Context,
	folder string,
	t time.Time,
) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO import_watermarks (folder, last_import, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(folder) DO UPDATE SET
			last_import = excluded.last_import,
			updated_at = excluded.updated_at`,
		folder, t.UTC(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("setting watermark for %s: %w", folder, err)
	}
	return nil
}

// RecordRun appends one entry to the import run history.
func (s *SQLiteStore) RecordRun(ctx context.Context, run model.ImportRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	stats, err := json.Marshal(run.Stats)
	if err != nil {
		return fmt.Errorf("marshaling run stats %s: %w", run.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO import_runs (id, type, folder, stats, started_at, finished_at, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Type, run.Folder, string(stats),
		run.StartedAt.UTC(), run.FinishedAt.UTC(), run.Error,
	)
	if err != nil {
		return fmt.Errorf("recording import run %s: %w", run.ID, err)
	}

	return nil
}
