package songdata

// Record is one line of a song metadata file.
type Record struct {
	NumSongs        int      `json:"num_songs"`
	ArtistID        string   `json:"artist_id"`
	ArtistLatitude  *float64 `json:"artist_latitude"`
	ArtistLongitude *float64 `json:"artist_longitude"`
	ArtistLocation  *string  `json:"artist_location"`
	ArtistName      string   `json:"artist_name"`
	SongID          string   `json:"song_id"`
	Title           string   `json:"title"`
	Duration        *float64 `json:"duration"`
	Year            *int     `json:"year"`
}
