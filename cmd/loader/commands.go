package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/mkoziy/sparkify/loader/internal/config"
	"github.com/mkoziy/sparkify/loader/internal/database"
	"github.com/mkoziy/sparkify/loader/internal/migrations"
	"github.com/mkoziy/sparkify/loader/internal/pipeline"
	"github.com/mkoziy/sparkify/loader/internal/repositories"
)

type rootFlags struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "loader",
		Short:         "Load song metadata and activity logs into the sparkify star schema",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), flags, func(ctx context.Context, cfg config.Config, log *zap.Logger, db *bun.DB) error {
				if cfg.Load.AutoMigrate() {
					if err := migrations.RunMigrations(ctx, db, log); err != nil {
						return err
					}
				}

				p := pipeline.New(db, log, cmd.OutOrStdout(), pipeline.Options{
					Extension: cfg.Sources.Extension,
					Users:     repositories.UserConflict(cfg.Load.UserConflict == config.UserConflictLatest),
				})
				log.Info("starting load", zap.String("run_id", p.RunID()))
				return p.Run(ctx, cfg.Sources.SongData, cfg.Sources.LogData)
			})
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "config.yaml", "path to the YAML config file (optional)")
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "log every SQL query and enable development logging")

	cmd.AddCommand(
		newMigrateCmd(flags),
		newResetCmd(flags),
		newTruncateCmd(flags),
	)
	return cmd
}

func newMigrateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema tables and indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), flags, func(ctx context.Context, _ config.Config, log *zap.Logger, db *bun.DB) error {
				return migrations.RunMigrations(ctx, db, log)
			})
		},
	}
}

func newResetCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate every schema table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), flags, func(ctx context.Context, _ config.Config, log *zap.Logger, db *bun.DB) error {
				return migrations.Reset(ctx, db, log)
			})
		},
	}
}

func newTruncateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "truncate",
		Short: "Empty the time and songplays tables before a clean re-run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), flags, func(ctx context.Context, _ config.Config, log *zap.Logger, db *bun.DB) error {
				if err := repositories.TruncateFacts(ctx, db); err != nil {
					return err
				}
				log.Info("truncated fact tables")
				return nil
			})
		},
	}
}

// withDB loads configuration, opens the database and always closes it.
func withDB(ctx context.Context, flags *rootFlags, fn func(context.Context, config.Config, *zap.Logger, *bun.DB) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if flags.debug {
		cfg.Database.Debug = true
	}

	log, err := newLogger(cfg.Database.Debug)
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("close database", zap.Error(err))
		}
	}()

	return fn(ctx, cfg, log, db)
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
