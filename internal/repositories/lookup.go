package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/mkoziy/sparkify/loader/internal/models"
)

// ResolveSongArtist finds the catalogue keys of a played track by exact
// title, artist name and duration. A miss is not an error: both keys come
// back nil. When several songs match, the lowest song_id wins.
func ResolveSongArtist(ctx context.Context, db bun.IDB, title, artist *string, duration *float64) (songID, artistID *string, err error) {
	if title == nil || artist == nil || duration == nil {
		return nil, nil, nil
	}

	var sid, aid string
	err = db.NewSelect().
		Model((*models.Song)(nil)).
		ColumnExpr("s.song_id, a.artist_id").
		Join("JOIN artists AS a ON a.artist_id = s.artist_id").
		Where("s.title = ?", *title).
		Where("a.name = ?", *artist).
		Where("s.duration = ?", *duration).
		OrderExpr("s.song_id ASC").
		Limit(1).
		Scan(ctx, &sid, &aid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &sid, &aid, nil
}
