package repositories

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/mkoziy/sparkify/loader/internal/models"
)

// StartRun records the start of a pass over one source tree.
func StartRun(ctx context.Context, db bun.IDB, runID string, source models.Source, root string) (*models.LoadRun, error) {
	run := &models.LoadRun{
		RunID:     runID,
		Source:    source,
		Root:      root,
		StartTime: time.Now().UTC(),
		Status:    models.RunRunning,
	}
	if _, err := db.NewInsert().Model(run).Exec(ctx); err != nil {
		return nil, err
	}
	return run, nil
}

// FinishRun stores the final counters and status of a run.
func FinishRun(ctx context.Context, db bun.IDB, run *models.LoadRun) error {
	end := time.Now().UTC()
	run.EndTime = &end
	_, err := db.NewUpdate().
		Model(run).
		Column("end_time", "status", "files_found", "files_loaded", "files_failed", "rows_loaded", "error_log").
		Where("run_id = ?", run.RunID).
		Where("source = ?", run.Source).
		Exec(ctx)
	return err
}

// GetRuns lists the per-source records of a run.
func GetRuns(ctx context.Context, db bun.IDB, runID string) ([]*models.LoadRun, error) {
	var runs []*models.LoadRun
	err := db.NewSelect().
		Model(&runs).
		Where("run_id = ?", runID).
		OrderExpr("id ASC").
		Scan(ctx)
	return runs, err
}
