package models

import (
	"errors"
	"time"

	"github.com/uptrace/bun"
)

// Songplay is one NextSong event. SongID and ArtistID stay nil when the
// played track is not in the catalogue.
type Songplay struct {
	bun.BaseModel `bun:"table:songplays,alias:sp"`

	ID        int64     `bun:"songplay_id,pk,autoincrement" json:"songplay_id"`
	StartTime time.Time `bun:"start_time,notnull" json:"start_time"`
	UserID    int64     `bun:"user_id,notnull" json:"user_id"`
	Level     Level     `bun:"level" json:"level"`
	SongID    *string   `bun:"song_id" json:"song_id,omitempty"`
	ArtistID  *string   `bun:"artist_id" json:"artist_id,omitempty"`
	SessionID int64     `bun:"session_id" json:"session_id"`
	Location  string    `bun:"location" json:"location"`
	UserAgent string    `bun:"user_agent" json:"user_agent"`
}

// Validate checks the non-null columns of a songplay.
func (sp *Songplay) Validate() error {
	if sp.StartTime.IsZero() {
		return errors.New("start_time is required")
	}
	if sp.UserID <= 0 {
		return errors.New("user_id is required")
	}
	return nil
}

// IsResolved reports whether both catalogue keys were found.
func (sp *Songplay) IsResolved() bool {
	return sp.SongID != nil && sp.ArtistID != nil
}
