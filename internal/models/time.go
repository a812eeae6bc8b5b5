package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Time is the calendar breakdown of a songplay start time. The table has no
// key, so the same instant may appear more than once.
type Time struct {
	bun.BaseModel `bun:"table:time,alias:t"`

	StartTime time.Time `bun:"start_time,notnull" json:"start_time"`
	Hour      int       `bun:"hour,type:smallint" json:"hour"`
	Day       int       `bun:"day,type:smallint" json:"day"`
	Week      int       `bun:"week,type:smallint" json:"week"`
	Month     int       `bun:"month,type:smallint" json:"month"`
	Year      int       `bun:"year,type:smallint" json:"year"`
	Weekday   int       `bun:"weekday,type:smallint" json:"weekday"`
}

// NewTime decomposes an instant in UTC. Weekday counts from Monday=0.
func NewTime(at time.Time) *Time {
	at = at.UTC()
	_, week := at.ISOWeek()
	return &Time{
		StartTime: at,
		Hour:      at.Hour(),
		Day:       at.Day(),
		Week:      week,
		Month:     int(at.Month()),
		Year:      at.Year(),
		Weekday:   (int(at.Weekday()) + 6) % 7,
	}
}

// IsWeekend reports whether the row falls on Saturday or Sunday.
func (t *Time) IsWeekend() bool {
	return t.Weekday >= 5
}
