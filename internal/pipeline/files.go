package pipeline

import (
	"context"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/mkoziy/sparkify/loader/internal/repositories"
	"github.com/mkoziy/sparkify/loader/internal/sources/eventlog"
	"github.com/mkoziy/sparkify/loader/internal/sources/songdata"
)

// ProcessSongFile loads the songs and artists of one metadata file.
func (p *Pipeline) ProcessSongFile(ctx context.Context, db bun.IDB, path string) (int64, error) {
	records, err := songdata.Read(path)
	if err != nil {
		return 0, err
	}

	rows, err := songdata.Transform(records)
	if err != nil {
		return 0, &LoadError{Path: path, Err: err}
	}

	songs, err := repositories.InsertSongs(ctx, db, rows.Songs)
	if err != nil {
		return 0, &LoadError{Path: path, Table: "songs", Err: err}
	}
	artists, err := repositories.InsertArtists(ctx, db, rows.Artists)
	if err != nil {
		return 0, &LoadError{Path: path, Table: "artists", Err: err}
	}
	return songs + artists, nil
}

// ProcessLogFile loads the time, user and songplay rows of one activity log.
func (p *Pipeline) ProcessLogFile(ctx context.Context, db bun.IDB, path string) (int64, error) {
	records, err := eventlog.Read(path)
	if err != nil {
		return 0, err
	}

	rows, err := eventlog.Transform(records)
	if err != nil {
		return 0, &LoadError{Path: path, Table: "songplays", Err: err}
	}

	times, err := repositories.InsertTimes(ctx, db, rows.Times)
	if err != nil {
		return 0, &LoadError{Path: path, Table: "time", Err: err}
	}
	users, err := repositories.InsertUsers(ctx, db, rows.Users, p.opts.Users)
	if err != nil {
		return 0, &LoadError{Path: path, Table: "users", Err: err}
	}

	resolved := 0
	for _, c := range rows.Candidates {
		songID, artistID, err := repositories.ResolveSongArtist(ctx, db, c.Song, c.Artist, c.Length)
		if err != nil {
			return 0, &LoadError{Path: path, Table: "songs", Err: err}
		}
		c.Songplay.SongID, c.Songplay.ArtistID = songID, artistID
		if c.Songplay.IsResolved() {
			resolved++
		}
	}

	plays, err := repositories.InsertSongplays(ctx, db, rows.Songplays())
	if err != nil {
		return 0, &LoadError{Path: path, Table: "songplays", Err: err}
	}

	p.log.Debug("log file transformed",
		zap.String("path", path),
		zap.Int("read", rows.Read),
		zap.Int("filtered", rows.Filtered),
		zap.Int("songplays", len(rows.Candidates)),
		zap.Int("resolved", resolved),
	)
	return times + users + plays, nil
}
