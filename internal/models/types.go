package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// Level is the subscription tier a user was on for an event.
type Level string

const (
	LevelFree Level = "free"
	LevelPaid Level = "paid"
)

// RunStatus tracks the outcome of a load run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunPartial   RunStatus = "partial"
	RunFailed    RunStatus = "failed"
)

// Source names the input tree a run read from.
type Source string

const (
	SourceSongData Source = "song_data"
	SourceLogData  Source = "log_data"
)

// NullableFloat64 handles nullable float columns.
type NullableFloat64 struct {
	Float64 float64
	Valid   bool
}

// NewNullableFloat64 wraps an optional value.
func NewNullableFloat64(v *float64) NullableFloat64 {
	if v == nil {
		return NullableFloat64{}
	}
	return NullableFloat64{Float64: *v, Valid: true}
}

func (n NullableFloat64) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Float64, nil
}

func (n *NullableFloat64) Scan(value interface{}) error {
	if value == nil {
		n.Float64 = 0
		n.Valid = false
		return nil
	}

	switch v := value.(type) {
	case float64:
		n.Float64 = v
	case int64:
		n.Float64 = float64(v)
	case []byte:
		if err := json.Unmarshal(v, &n.Float64); err != nil {
			return err
		}
	case string:
		if err := json.Unmarshal([]byte(v), &n.Float64); err != nil {
			return err
		}
	default:
		return errors.New("failed to scan NullableFloat64")
	}

	n.Valid = true
	return nil
}

// MarshalJSON writes null for unknown values.
func (n NullableFloat64) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}
