package models

import (
	"time"

	"github.com/uptrace/bun"
)

// LoadRun records one pass over a source tree and how it ended.
type LoadRun struct {
	bun.BaseModel `bun:"table:load_runs,alias:lr"`

	ID          int64      `bun:"id,pk,autoincrement" json:"id"`
	RunID       string     `bun:"run_id,notnull" json:"run_id"`
	Source      Source     `bun:"source,notnull" json:"source"`
	Root        string     `bun:"root,notnull" json:"root"`
	StartTime   time.Time  `bun:"start_time,notnull" json:"start_time"`
	EndTime     *time.Time `bun:"end_time" json:"end_time,omitempty"`
	Status      RunStatus  `bun:"status,notnull" json:"status"`
	FilesFound  int        `bun:"files_found,default:0" json:"files_found"`
	FilesLoaded int        `bun:"files_loaded,default:0" json:"files_loaded"`
	FilesFailed int        `bun:"files_failed,default:0" json:"files_failed"`
	RowsLoaded  int64      `bun:"rows_loaded,default:0" json:"rows_loaded"`
	ErrorLog    *string    `bun:"error_log" json:"error_log,omitempty"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// Duration returns how long the run took, or zero while it is running.
func (r *LoadRun) Duration() time.Duration {
	if r.EndTime == nil {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}
