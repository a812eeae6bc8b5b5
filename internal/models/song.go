package models

import (
	"errors"

	"github.com/uptrace/bun"
)

// Song is a song dimension row keyed by its catalogue id.
type Song struct {
	bun.BaseModel `bun:"table:songs,alias:s"`

	SongID   string  `bun:"song_id,pk" json:"song_id"`
	Title    string  `bun:"title,notnull" json:"title"`
	ArtistID string  `bun:"artist_id,notnull" json:"artist_id"`
	Year     *int    `bun:"year" json:"year,omitempty"`
	Duration float64 `bun:"duration,notnull,type:double precision" json:"duration"`

	Artist *Artist `bun:"rel:belongs-to,join:artist_id=artist_id" json:"-"`
}

// Validate checks that required song fields are present.
func (s *Song) Validate() error {
	if s.SongID == "" {
		return errors.New("song_id is required")
	}
	if s.Title == "" {
		return errors.New("title is required")
	}
	if s.ArtistID == "" {
		return errors.New("artist_id is required")
	}
	return nil
}
