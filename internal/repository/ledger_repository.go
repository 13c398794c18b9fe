package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/cpas-demos/internal/errors"
	"github.com/unclebandit/cpas-demos/internal/model"
)

type LedgerRepositoryInterface interface {
	StartRun(ctx context.Context, run *model.Run) error
	RecordRow(ctx context.Context, ev model.RowResultEvent) error
	FinishRun(ctx context.Context, runID string, summary model.Summary) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRowResults(ctx context.Context, runID string) ([]model.RowResultEvent, error)
}

// LedgerRepository keeps booster runs and their row outcomes in Postgres.
// Writes are upserts so a redelivered event does not duplicate rows.
type LedgerRepository struct {
	DB *sql.DB
}

func (r *LedgerRepository) StartRun(ctx context.Context, run *model.Run) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	query := `
        INSERT INTO booster_runs (id, mode, source, started_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO NOTHING
    `
	_, err := r.DB.ExecContext(ctx, query, run.ID, run.Mode, run.Source, run.StartedAt)
	return err
}

func (r *LedgerRepository) RecordRow(ctx context.Context, ev model.RowResultEvent) error {
	query := `
        INSERT INTO booster_row_results
            (run_id, row_index, ad_name, status, error, video_id, creative_id, published_ad_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (run_id, row_index) DO UPDATE
        SET ad_name=EXCLUDED.ad_name, status=EXCLUDED.status, error=EXCLUDED.error,
            video_id=EXCLUDED.video_id, creative_id=EXCLUDED.creative_id,
            published_ad_id=EXCLUDED.published_ad_id, recorded_at=NOW()
    `
	_, err := r.DB.ExecContext(ctx, query, ev.RunID, ev.RowIndex, ev.AdName, ev.Status, ev.Error, ev.VideoID, ev.CreativeID, ev.PublishedAdID)
	return err
}

func (r *LedgerRepository) FinishRun(ctx context.Context, runID string, summary model.Summary) error {
	query := `
        UPDATE booster_runs
        SET finished_at=$1, total=$2, succeeded=$3, failed=$4
        WHERE id=$5
    `
	res, err := r.DB.ExecContext(ctx, query, time.Now(), summary.Total, summary.Succeeded, summary.Failed, runID)
	if err != nil {
		return err
	}
	// the start event may still be in flight; an error gets the event redelivered
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s not started yet", runID)
	}
	return nil
}

func (r *LedgerRepository) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return nil, appErrors.NewRunNotFound(runID)
	}
	query := `
        SELECT id, mode, source, started_at, finished_at, total, succeeded, failed
        FROM booster_runs WHERE id=$1
    `
	var run model.Run
	err := r.DB.QueryRowContext(ctx, query, runID).Scan(&run.ID, &run.Mode, &run.Source, &run.StartedAt, &run.FinishedAt, &run.Total, &run.Succeeded, &run.Failed)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewRunNotFound(runID)
		}
		return nil, err
	}
	return &run, nil
}

func (r *LedgerRepository) ListRowResults(ctx context.Context, runID string) ([]model.RowResultEvent, error) {
	query := `
        SELECT run_id, row_index, ad_name, status, error, video_id, creative_id, published_ad_id
        FROM booster_row_results
        WHERE run_id=$1
        ORDER BY row_index
    `
	rows, err := r.DB.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []model.RowResultEvent{}
	for rows.Next() {
		var ev model.RowResultEvent
		if err := rows.Scan(&ev.RunID, &ev.RowIndex, &ev.AdName, &ev.Status, &ev.Error, &ev.VideoID, &ev.CreativeID, &ev.PublishedAdID); err != nil {
			return nil, err
		}
		results = append(results, ev)
	}
	return results, rows.Err()
}
