package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"github.com/mkoziy/sparkify/loader/internal/models"
)

var Migrations = migrate.NewMigrations()

// Models lists the schema tables in creation order.
func Models() []interface{} {
	return []interface{}{
		(*models.Songplay)(nil),
		(*models.User)(nil),
		(*models.Song)(nil),
		(*models.Artist)(nil),
		(*models.Time)(nil),
		(*models.LoadRun)(nil),
	}
}

// CreateTables creates every schema table that does not exist yet.
func CreateTables(ctx context.Context, db *bun.DB) error {
	for _, model := range Models() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// DropTables drops every schema table, in reverse creation order.
func DropTables(ctx context.Context, db *bun.DB) error {
	list := Models()
	for i := len(list) - 1; i >= 0; i-- {
		if _, err := db.NewDropTable().Model(list[i]).IfExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// RunMigrations runs all pending migrations.
func RunMigrations(ctx context.Context, db *bun.DB, log *zap.Logger) error {
	migrator := migrate.NewMigrator(db, Migrations)

	if err := migrator.Init(ctx); err != nil {
		return err
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}

	if group.IsZero() {
		log.Debug("no new migrations to run")
		return nil
	}

	log.Info("migrated schema", zap.Stringer("group", group))
	return nil
}

// Reset drops the schema and the migration bookkeeping, then migrates again.
func Reset(ctx context.Context, db *bun.DB, log *zap.Logger) error {
	if err := DropTables(ctx, db); err != nil {
		return err
	}

	migrator := migrate.NewMigrator(db, Migrations)
	if err := migrator.Reset(ctx); err != nil {
		return err
	}

	log.Info("dropped schema")
	return RunMigrations(ctx, db, log)
}
