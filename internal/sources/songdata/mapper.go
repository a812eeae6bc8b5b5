// Package songdata turns song metadata records into song and artist rows.
package songdata

import (
	"fmt"

	"github.com/mkoziy/sparkify/loader/internal/models"
	"github.com/mkoziy/sparkify/loader/internal/sources/ndjson"
)

// Rows holds the dimension rows derived from one song metadata file.
type Rows struct {
	Songs   []*models.Song
	Artists []*models.Artist
}

// Read parses a song metadata file.
func Read(path string) ([]Record, error) {
	return ndjson.ReadAll[Record](path)
}

// MapToSong converts a record to a song row.
func MapToSong(rec Record) (*models.Song, error) {
	if rec.Duration == nil {
		return nil, fmt.Errorf("song %q: duration is required", rec.SongID)
	}
	song := &models.Song{
		SongID:   rec.SongID,
		Title:    rec.Title,
		ArtistID: rec.ArtistID,
		Year:     rec.Year,
		Duration: *rec.Duration,
	}
	if err := song.Validate(); err != nil {
		return nil, fmt.Errorf("song %q: %w", rec.SongID, err)
	}
	return song, nil
}

// MapToArtist converts a record to an artist row.
func MapToArtist(rec Record) (*models.Artist, error) {
	artist := &models.Artist{
		ArtistID:  rec.ArtistID,
		Name:      rec.ArtistName,
		Location:  rec.ArtistLocation,
		Latitude:  models.NewNullableFloat64(rec.ArtistLatitude),
		Longitude: models.NewNullableFloat64(rec.ArtistLongitude),
	}
	if err := artist.Validate(); err != nil {
		return nil, fmt.Errorf("artist %q: %w", rec.ArtistID, err)
	}
	return artist, nil
}

// Transform maps every record to one song and one artist row. Duplicates are
// kept; the loader drops them on conflict.
func Transform(records []Record) (Rows, error) {
	rows := Rows{
		Songs:   make([]*models.Song, 0, len(records)),
		Artists: make([]*models.Artist, 0, len(records)),
	}
	for _, rec := range records {
		song, err := MapToSong(rec)
		if err != nil {
			return Rows{}, err
		}
		artist, err := MapToArtist(rec)
		if err != nil {
			return Rows{}, err
		}
		rows.Songs = append(rows.Songs, song)
		rows.Artists = append(rows.Artists, artist)
	}
	return rows, nil
}
