// Package eventlog turns activity log records into time, user and songplay
// rows.
package eventlog

import (
	"errors"
	"time"

	"github.com/mkoziy/sparkify/loader/internal/models"
	"github.com/mkoziy/sparkify/loader/internal/sources/ndjson"
)

// Candidate is a songplay whose catalogue keys are not resolved yet. Song,
// Artist and Length carry the natural key used for the lookup.
type Candidate struct {
	Songplay *models.Songplay
	Song     *string
	Artist   *string
	Length   *float64
}

// Rows holds what one activity log file produces.
type Rows struct {
	Times      []*models.Time
	Users      []*models.User
	Candidates []Candidate
	Read       int
	Filtered   int
}

var errMissingUser = errors.New("userId is required")

// Read parses an activity log file.
func Read(path string) ([]Record, error) {
	return ndjson.ReadAll[Record](path)
}

// IsNextSong reports whether the record is a song play.
func IsNextSong(rec Record) bool {
	return rec.Page == PageNextSong
}

// StartTime converts an epoch-millisecond timestamp to UTC.
func StartTime(ts int64) time.Time {
	return time.UnixMilli(ts).UTC()
}

// MapToTime derives the calendar row for a record.
func MapToTime(rec Record) *models.Time {
	return models.NewTime(StartTime(rec.TS))
}

// MapToUser derives the user row for a record.
func MapToUser(rec Record) (*models.User, error) {
	id, err := rec.UserID.ID()
	if err != nil {
		return nil, err
	}
	user := &models.User{
		UserID:    id,
		FirstName: deref(rec.FirstName),
		LastName:  deref(rec.LastName),
		Gender:    deref(rec.Gender),
		Level:     models.Level(rec.Level),
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

// MapToSongplay derives an unresolved songplay. Records without song, artist
// or length still produce a candidate.
func MapToSongplay(rec Record) (Candidate, error) {
	id, err := rec.UserID.ID()
	if err != nil {
		return Candidate{}, err
	}
	sp := &models.Songplay{
		StartTime: StartTime(rec.TS),
		UserID:    id,
		Level:     models.Level(rec.Level),
		SessionID: rec.SessionID,
		Location:  deref(rec.Location),
		UserAgent: deref(rec.UserAgent),
	}
	if err := sp.Validate(); err != nil {
		return Candidate{}, err
	}
	return Candidate{
		Songplay: sp,
		Song:     rec.Song,
		Artist:   rec.Artist,
		Length:   rec.Length,
	}, nil
}

// Transform keeps NextSong records and emits one time row, one user row and
// one songplay candidate for each of them, without deduplication.
func Transform(records []Record) (Rows, error) {
	rows := Rows{Read: len(records)}
	for _, rec := range records {
		if !IsNextSong(rec) {
			rows.Filtered++
			continue
		}

		user, err := MapToUser(rec)
		if err != nil {
			return Rows{}, err
		}
		candidate, err := MapToSongplay(rec)
		if err != nil {
			return Rows{}, err
		}

		rows.Times = append(rows.Times, MapToTime(rec))
		rows.Users = append(rows.Users, user)
		rows.Candidates = append(rows.Candidates, candidate)
	}
	return rows, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Songplays returns the songplay of every candidate, in order.
func (r Rows) Songplays() []*models.Songplay {
	out := make([]*models.Songplay, len(r.Candidates))
	for i, c := range r.Candidates {
		out[i] = c.Songplay
	}
	return out
}
