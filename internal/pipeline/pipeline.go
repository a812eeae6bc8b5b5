// Package pipeline drives the extract, transform and load steps over the
// song and log trees, one transaction per file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/mkoziy/sparkify/loader/internal/discovery"
	"github.com/mkoziy/sparkify/loader/internal/models"
	"github.com/mkoziy/sparkify/loader/internal/repositories"
)

// FileFunc loads one file through db and returns how many rows it wrote.
type FileFunc func(ctx context.Context, db bun.IDB, path string) (int64, error)

// Options tunes a Pipeline.
type Options struct {
	// Extension selects data files; ".json" when empty.
	Extension string
	// Users declares how existing users are treated.
	Users repositories.Conflict
}

// Pipeline loads source trees into the star schema.
type Pipeline struct {
	db    *bun.DB
	log   *zap.Logger
	out   io.Writer
	opts  Options
	runID string
}

// New creates a pipeline writing through db. Progress lines go to out.
func New(db *bun.DB, log *zap.Logger, out io.Writer, opts Options) *Pipeline {
	if opts.Extension == "" {
		opts.Extension = ".json"
	}
	if len(opts.Users.Columns) == 0 {
		opts.Users = repositories.UserConflict(false)
	}
	return &Pipeline{
		db:    db,
		log:   log,
		out:   out,
		opts:  opts,
		runID: uuid.NewString(),
	}
}

// RunID identifies this pipeline's rows in load_runs.
func (p *Pipeline) RunID() string { return p.runID }

// Run loads the song tree, then the log tree. Songplays are resolved against
// the songs and artists already stored, so the order matters. Fatal errors
// stop at once; file failures are collected and returned at the end.
func (p *Pipeline) Run(ctx context.Context, songRoot, logRoot string) error {
	songErr := p.ProcessData(ctx, models.SourceSongData, songRoot, p.ProcessSongFile)
	if IsFatal(songErr) {
		return songErr
	}

	logErr := p.ProcessData(ctx, models.SourceLogData, logRoot, p.ProcessLogFile)
	if IsFatal(logErr) {
		return logErr
	}
	return errors.Join(songErr, logErr)
}

// ProcessData runs fn over every data file under root, committing each file
// on its own.
func (p *Pipeline) ProcessData(ctx context.Context, source models.Source, root string, fn FileFunc) error {
	files, err := discovery.FindFiles(root, p.opts.Extension)
	if err != nil {
		return err
	}

	total := len(files)
	fmt.Fprintf(p.out, "%d files found in %s\n", total, root)

	run, err := repositories.StartRun(ctx, p.db, p.runID, source, root)
	if err != nil {
		return p.classify(ctx, root, &LoadError{Path: root, Table: "load_runs", Err: err})
	}
	run.FilesFound = total

	log := p.log.With(zap.String("run_id", p.runID), zap.String("source", string(source)))

	var failures []error
	for i, path := range files {
		var written int64
		err := p.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			n, err := fn(ctx, tx, path)
			written = n
			return err
		})

		if err != nil {
			err = p.classify(ctx, path, err)
			failures = append(failures, err)
			run.FilesFailed++
			log.Error("file failed", zap.String("path", path), zap.Error(err))

			if IsFatal(err) {
				p.finish(ctx, log, run, failures)
				return err
			}
		} else {
			run.FilesLoaded++
			run.RowsLoaded += written
			log.Debug("file loaded", zap.String("path", path), zap.Int64("rows", written))
		}

		fmt.Fprintf(p.out, "%d/%d files processed.\n", i+1, total)
	}

	p.finish(ctx, log, run, failures)
	return errors.Join(failures...)
}

// classify turns a failed file into a ParseError or LoadError, and marks
// load errors fatal when the database no longer answers.
func (p *Pipeline) classify(ctx context.Context, path string, err error) error {
	var perr *ParseError
	if errors.As(err, &perr) {
		return err
	}

	var lerr *LoadError
	if !errors.As(err, &lerr) {
		lerr = &LoadError{Path: path, Err: err}
	}
	if pingErr := p.db.PingContext(ctx); pingErr != nil {
		lerr.Conn = true
	}
	return lerr
}

func (p *Pipeline) finish(ctx context.Context, log *zap.Logger, run *models.LoadRun, failures []error) {
	switch {
	case len(failures) == 0:
		run.Status = models.RunCompleted
	case run.FilesLoaded > 0:
		run.Status = models.RunPartial
	default:
		run.Status = models.RunFailed
	}
	if len(failures) > 0 {
		msgs := make([]string, len(failures))
		for i, f := range failures {
			msgs[i] = f.Error()
		}
		joined := strings.Join(msgs, "\n")
		run.ErrorLog = &joined
	}

	if err := repositories.FinishRun(ctx, p.db, run); err != nil {
		log.Warn("record run outcome", zap.Error(err))
	}
	log.Info("source done",
		zap.String("status", string(run.Status)),
		zap.Int("files_found", run.FilesFound),
		zap.Int("files_loaded", run.FilesLoaded),
		zap.Int("files_failed", run.FilesFailed),
		zap.Int64("rows_loaded", run.RowsLoaded),
	)
}
