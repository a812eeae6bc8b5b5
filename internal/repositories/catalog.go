package repositories

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/mkoziy/sparkify/loader/internal/models"
)

// InsertSongs adds songs that are not stored yet; existing song_ids are left untouched.
func InsertSongs(ctx context.Context, db bun.IDB, songs []*models.Song) (int64, error) {
	conflict := Ignore("song_id")
	return insert(ctx, db, songs, &conflict)
}

// InsertArtists adds artists that are not stored yet; existing artist_ids are left untouched.
func InsertArtists(ctx context.Context, db bun.IDB, artists []*models.Artist) (int64, error) {
	conflict := Ignore("artist_id")
	return insert(ctx, db, artists, &conflict)
}

// GetSongByID fetches a song with its artist.
func GetSongByID(ctx context.Context, db bun.IDB, songID string) (*models.Song, error) {
	song := new(models.Song)
	err := db.NewSelect().
		Model(song).
		Where("s.song_id = ?", songID).
		Relation("Artist").
		Scan(ctx)

	return song, err
}
