package models

import "time"

// User represents a registered account. Identity fields are immutable after
// registration. PasswordHash is opaque to everything except the users app
// and never serializes.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
