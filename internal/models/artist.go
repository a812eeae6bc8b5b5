package models

import (
	"errors"

	"github.com/uptrace/bun"
)

// Artist is an artist dimension row.
type Artist struct {
	bun.BaseModel `bun:"table:artists,alias:a"`

	ArtistID  string          `bun:"artist_id,pk" json:"artist_id"`
	Name      string          `bun:"name,notnull" json:"name"`
	Location  *string         `bun:"location" json:"location,omitempty"`
	Latitude  NullableFloat64 `bun:"latitude,type:double precision" json:"latitude"`
	Longitude NullableFloat64 `bun:"longitude,type:double precision" json:"longitude"`
}

// Validate checks that required artist fields are present.
func (a *Artist) Validate() error {
	if a.ArtistID == "" {
		return errors.New("artist_id is required")
	}
	if a.Name == "" {
		return errors.New("artist name is required")
	}
	return nil
}

// HasCoordinates reports whether both latitude and longitude are known.
func (a *Artist) HasCoordinates() bool {
	return a.Latitude.Valid && a.Longitude.Valid
}
