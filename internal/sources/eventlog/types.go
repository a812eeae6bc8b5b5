package eventlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// PageNextSong marks a song being played.
const PageNextSong = "NextSong"

// Record is one line of an activity log file.
type Record struct {
	Artist        *string  `json:"artist"`
	Auth          string   `json:"auth"`
	FirstName     *string  `json:"firstName"`
	Gender        *string  `json:"gender"`
	ItemInSession int      `json:"itemInSession"`
	LastName      *string  `json:"lastName"`
	Length        *float64 `json:"length"`
	Level         string   `json:"level"`
	Location      *string  `json:"location"`
	Method        string   `json:"method"`
	Page          string   `json:"page"`
	Registration  *float64 `json:"registration"`
	SessionID     int64    `json:"sessionId"`
	Song          *string  `json:"song"`
	Status        int      `json:"status"`
	TS            int64    `json:"ts"`
	UserAgent     *string  `json:"userAgent"`
	UserID        UserID   `json:"userId"`
}

// UserID accepts the forms the logs use for userId: a number, a numeric
// string, or an empty string or null for logged-out events. Anything else
// decodes without error and is kept in Raw, so only records that need a user
// fail on it.
type UserID struct {
	Int64 int64
	Valid bool
	Raw   string
}

func (u *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*u = UserID{}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if raw == "" {
			return nil
		}
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != math.Trunc(f) {
			u.Raw = string(data)
			return nil
		}
		id = int64(f)
	}
	u.Int64, u.Valid = id, true
	return nil
}

// ID returns the numeric id, or an error when the record has no usable one.
func (u UserID) ID() (int64, error) {
	switch {
	case u.Valid:
		return u.Int64, nil
	case u.Raw != "":
		return 0, fmt.Errorf("userId %s is not a whole number", u.Raw)
	default:
		return 0, errMissingUser
	}
}
