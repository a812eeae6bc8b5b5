package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

var indexes = []struct{ name, create string }{
	{"idx_songplays_start_time", `CREATE INDEX IF NOT EXISTS idx_songplays_start_time ON songplays(start_time)`},
	{"idx_songplays_user_id", `CREATE INDEX IF NOT EXISTS idx_songplays_user_id ON songplays(user_id)`},
	{"idx_songs_title_duration", `CREATE INDEX IF NOT EXISTS idx_songs_title_duration ON songs(title, duration)`},
	{"idx_artists_name", `CREATE INDEX IF NOT EXISTS idx_artists_name ON artists(name)`},
	{"idx_time_start_time", `CREATE INDEX IF NOT EXISTS idx_time_start_time ON "time"(start_time)`},
	{"idx_load_runs_run_source", `CREATE UNIQUE INDEX IF NOT EXISTS idx_load_runs_run_source ON load_runs(run_id, source)`},
}

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		for _, idx := range indexes {
			if _, err := db.ExecContext(ctx, idx.create); err != nil {
				return err
			}
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		for _, idx := range indexes {
			if _, err := db.ExecContext(ctx, "DROP INDEX IF EXISTS "+idx.name); err != nil {
				return err
			}
		}
		return nil
	})
}
