package repositories

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/mkoziy/sparkify/loader/internal/models"
)

// InsertTimes appends calendar rows. The time table has no key, so repeated
// loads duplicate rows.
func InsertTimes(ctx context.Context, db bun.IDB, rows []*models.Time) (int64, error) {
	return insert(ctx, db, rows, nil)
}

// InsertSongplays appends songplays; each gets a fresh songplay_id.
func InsertSongplays(ctx context.Context, db bun.IDB, plays []*models.Songplay) (int64, error) {
	return insert(ctx, db, plays, nil)
}

// TruncateFacts empties the time and songplays tables so a full re-run does
// not duplicate them.
func TruncateFacts(ctx context.Context, db bun.IDB) error {
	for _, model := range []interface{}{(*models.Songplay)(nil), (*models.Time)(nil)} {
		if _, err := db.NewTruncateTable().Model(model).Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// CountRows returns the number of rows in the model's table.
func CountRows(ctx context.Context, db bun.IDB, model interface{}) (int, error) {
	return db.NewSelect().Model(model).Count(ctx)
}
