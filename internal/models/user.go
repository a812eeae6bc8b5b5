package models

import (
	"errors"

	"github.com/uptrace/bun"
)

// User is a listener seen in the activity logs.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	UserID    int64  `bun:"user_id,pk" json:"user_id"`
	FirstName string `bun:"first_name" json:"first_name"`
	LastName  string `bun:"last_name" json:"last_name"`
	Gender    string `bun:"gender" json:"gender"`
	Level     Level  `bun:"level" json:"level"`
}

// Validate checks that the user carries an id.
func (u *User) Validate() error {
	if u.UserID <= 0 {
		return errors.New("user_id is required")
	}
	return nil
}

// IsPaid reports whether the user was on the paid tier when seen.
func (u *User) IsPaid() bool {
	return u.Level == LevelPaid
}
